package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"fitcommunity/internal/domain"
	"fitcommunity/internal/models"
	"fitcommunity/internal/repository"
	"fitcommunity/internal/upstream"

	"gorm.io/gorm"
)

type GoalInput struct {
	Title        string
	Description  string
	GoalType     string
	TargetValue  float64
	CurrentValue float64
	Unit         string
	StartDate    *time.Time
	TargetDate   time.Time
	Status       string // updates only
}

type GoalView struct {
	models.FitnessGoal
	ProgressPercentage float64 `json:"progress_percentage"`
}

func goalView(g *models.FitnessGoal) *GoalView {
	return &GoalView{FitnessGoal: *g, ProgressPercentage: g.ProgressPercentage()}
}

// GoalSuggester is satisfied by *upstream.LLM.
type GoalSuggester interface {
	SuggestGoals(ctx context.Context, profile string) ([]upstream.GoalSuggestion, error)
}

type GoalService struct {
	repo      *repository.GoalRepository
	mentors   *repository.MentorRepository
	users     *repository.UserRepository
	notify    *NotificationService
	suggester GoalSuggester
	now       func() time.Time
}

func NewGoalService(repo *repository.GoalRepository, mentors *repository.MentorRepository, users *repository.UserRepository, notify *NotificationService, suggester GoalSuggester) *GoalService {
	return &GoalService{repo: repo, mentors: mentors, users: users, notify: notify, suggester: suggester, now: time.Now}
}

func validateGoal(in GoalInput, start time.Time) error {
	fields := map[string]string{}
	if strings.TrimSpace(in.Title) == "" {
		fields["title"] = "is required"
	}
	if in.TargetValue <= 0 || math.IsNaN(in.TargetValue) {
		fields["target_value"] = "must be greater than 0"
	}
	if in.CurrentValue < 0 {
		fields["current_value"] = "must not be negative"
	}
	if in.TargetDate.IsZero() {
		fields["target_date"] = "is required"
	} else if in.TargetDate.Before(start) {
		fields["target_date"] = "must not be before start_date"
	}
	if len(fields) > 0 {
		return domain.Validation("invalid goal", fields)
	}
	return nil
}

// Create makes a goal for ownerID. When actorID differs, actorID must be an
// accepted mentor of ownerID; the goal records the mentor and the owner is notified.
func (s *GoalService) Create(ctx context.Context, actorID, ownerID uint, in GoalInput) (*GoalView, error) {
	if ownerID == 0 {
		ownerID = actorID
	}
	var mentorID *uint
	if ownerID != actorID {
		ok, err := s.mentors.IsAcceptedMentor(actorID, ownerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.Forbidden("only an accepted mentor can create goals for another user")
		}
		mentorID = &actorID
	}
	start := s.now()
	if in.StartDate != nil {
		start = *in.StartDate
	}
	if err := validateGoal(in, start); err != nil {
		return nil, err
	}
	g := &models.FitnessGoal{
		UserID:       ownerID,
		MentorID:     mentorID,
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		GoalType:     in.GoalType,
		TargetValue:  in.TargetValue,
		CurrentValue: in.CurrentValue,
		Unit:         in.Unit,
		StartDate:    start,
		TargetDate:   in.TargetDate,
		Status:       domain.GoalStatusActive,
	}
	if g.CurrentValue >= g.TargetValue {
		at := s.now()
		g.Status = domain.GoalStatusCompleted
		g.CompletedAt = &at
	}
	if err := s.repo.Create(g); err != nil {
		return nil, err
	}
	if mentorID != nil {
		s.notify.Emit(ctx, Notice{
			RecipientID:       ownerID,
			SenderID:          actorID,
			Type:              domain.NotifyGoalAssigned,
			Title:             "New goal from your mentor",
			Message:           fmt.Sprintf("Your mentor set a new goal: %s", g.Title),
			RelatedObjectID:   g.ID,
			RelatedObjectType: domain.ObjectGoal,
		})
	}
	return goalView(g), nil
}

// visible loads a goal readable by userID: its owner or its assigning mentor.
func (s *GoalService) visible(userID, id uint) (*models.FitnessGoal, error) {
	g, err := s.repo.GetByID(id)
	if err != nil {
		return nil, lookupErr(err, "goal")
	}
	if g.UserID == userID {
		return g, nil
	}
	if g.MentorID != nil && *g.MentorID == userID {
		ok, err := s.mentors.IsAcceptedMentor(userID, g.UserID)
		if err != nil {
			return nil, err
		}
		if ok {
			return g, nil
		}
	}
	return nil, domain.NotFound("goal not found")
}

func (s *GoalService) Get(userID, id uint) (*GoalView, error) {
	g, err := s.visible(userID, id)
	if err != nil {
		return nil, err
	}
	return goalView(g), nil
}

// List returns userID's own goals, or a mentee's goals when ownerID is an accepted mentee.
func (s *GoalService) List(userID, ownerID uint, status string) ([]GoalView, error) {
	if ownerID == 0 {
		ownerID = userID
	}
	if ownerID != userID {
		ok, err := s.mentors.IsAcceptedMentor(userID, ownerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.Forbidden("not a mentor of this user")
		}
	}
	goals, err := s.repo.ListByUser(ownerID, status)
	if err != nil {
		return nil, err
	}
	out := make([]GoalView, 0, len(goals))
	for i := range goals {
		out = append(out, *goalView(&goals[i]))
	}
	return out, nil
}

var goalStatuses = map[string]bool{
	domain.GoalStatusActive:    true,
	domain.GoalStatusCompleted: true,
	domain.GoalStatusInactive:  true,
	domain.GoalStatusAbandoned: true,
}

// Update edits a goal. Moving it to COMPLETED stamps completed_at; an ACTIVE
// goal whose new target is already met completes as if by progress.
func (s *GoalService) Update(ctx context.Context, userID, id uint, in GoalInput) (*GoalView, error) {
	g, err := s.visible(userID, id)
	if err != nil {
		return nil, err
	}
	if err := validateGoal(in, g.StartDate); err != nil {
		return nil, err
	}
	if in.Status != "" && !goalStatuses[in.Status] {
		return nil, domain.Validation("invalid goal", map[string]string{"status": "unknown status"})
	}
	prev := g.Status
	g.Title = strings.TrimSpace(in.Title)
	g.Description = in.Description
	g.GoalType = in.GoalType
	g.TargetValue = in.TargetValue
	g.Unit = in.Unit
	g.TargetDate = in.TargetDate
	if in.Status != "" {
		g.Status = in.Status
	}
	switch {
	case g.Status != domain.GoalStatusCompleted:
		g.CompletedAt = nil
	case prev != domain.GoalStatusCompleted:
		at := s.now()
		g.CompletedAt = &at
	}
	if err := s.repo.Update(g); err != nil {
		return nil, err
	}
	completed, err := s.repo.ClaimCompletion(g.ID, s.now())
	if err != nil {
		return nil, err
	}
	if completed {
		if g, err = s.repo.GetByID(id); err != nil {
			return nil, lookupErr(err, "goal")
		}
		s.achieved(ctx, g)
	}
	return goalView(g), nil
}

// Assigned lists the goals mentorID set for mentees it still mentors.
func (s *GoalService) Assigned(mentorID uint) ([]GoalView, error) {
	goals, err := s.repo.ListAssignedBy(mentorID)
	if err != nil {
		return nil, err
	}
	mentoring := make(map[uint]bool)
	out := make([]GoalView, 0, len(goals))
	for i := range goals {
		owner := goals[i].UserID
		ok, seen := mentoring[owner]
		if !seen {
			if ok, err = s.mentors.IsAcceptedMentor(mentorID, owner); err != nil {
				return nil, err
			}
			mentoring[owner] = ok
		}
		if ok {
			out = append(out, *goalView(&goals[i]))
		}
	}
	return out, nil
}

// Delete is owner-only; mentors cannot remove a mentee's goals.
func (s *GoalService) Delete(userID, id uint) error {
	g, err := s.repo.GetByID(id)
	if err != nil {
		return lookupErr(err, "goal")
	}
	if g.UserID != userID {
		return domain.Forbidden("only the owner can delete a goal")
	}
	return s.repo.Delete(id)
}

// AddProgress increments current_value. Reaching the target while ACTIVE
// completes the goal and sends one ACHIEVEMENT notice to the owner and one to
// the mentor, if any.
func (s *GoalService) AddProgress(ctx context.Context, userID, id uint, increment float64) (*GoalView, error) {
	if increment <= 0 || math.IsNaN(increment) || math.IsInf(increment, 0) {
		return nil, domain.Validation("invalid input", map[string]string{"increment": "must be greater than 0"})
	}
	g, err := s.repo.GetByID(id)
	if err != nil {
		return nil, lookupErr(err, "goal")
	}
	if g.UserID != userID {
		return nil, domain.Forbidden("only the owner can log progress")
	}
	if g.Status == domain.GoalStatusAbandoned {
		return nil, domain.Invalid("goal was abandoned")
	}
	g, completed, err := s.repo.AddProgress(id, increment, s.now())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("goal not found")
	}
	if err != nil {
		return nil, err
	}
	if completed {
		s.achieved(ctx, g)
	}
	return goalView(g), nil
}

func (s *GoalService) achieved(ctx context.Context, g *models.FitnessGoal) {
	n := Notice{
		Type:              domain.NotifyAchievement,
		Title:             "Goal achieved",
		Message:           fmt.Sprintf("Goal %q reached its target", g.Title),
		RelatedObjectID:   g.ID,
		RelatedObjectType: domain.ObjectGoal,
	}
	n.RecipientID = g.UserID
	s.notify.Emit(ctx, n)
	if g.MentorID != nil {
		n.RecipientID = *g.MentorID
		s.notify.Emit(ctx, n)
	}
}

// CheckInactive moves overdue ACTIVE goals to INACTIVE and tells owner and
// mentor. Each goal is reported once however many times this runs.
func (s *GoalService) CheckInactive(ctx context.Context) (int, error) {
	overdue, err := s.repo.ClaimOverdue(s.now())
	for _, g := range overdue {
		recipients := []uint{g.UserID}
		if g.MentorID != nil {
			recipients = append(recipients, *g.MentorID)
		}
		s.notify.EmitAll(ctx, recipients, Notice{
			Type:              domain.NotifyGoalDeadline,
			Title:             "Goal deadline passed",
			Message:           fmt.Sprintf("Goal %q passed its target date and is now inactive", g.Title),
			RelatedObjectID:   g.ID,
			RelatedObjectType: domain.ObjectGoal,
		})
	}
	return len(overdue), err
}

// Suggest asks the LLM for goals that fit the user's profile.
func (s *GoalService) Suggest(ctx context.Context, userID uint, focus string) ([]upstream.GoalSuggestion, error) {
	u, err := s.users.GetByID(userID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	return s.suggester.SuggestGoals(ctx, describeProfile(u, s.now(), focus))
}

func describeProfile(u *models.User, now time.Time, focus string) string {
	var b strings.Builder
	b.WriteString("Suggest fitness goals for a user")
	if age := u.Age(now); age != nil {
		fmt.Fprintf(&b, ", age %d", *age)
	}
	if u.Gender != "" {
		fmt.Fprintf(&b, ", gender %s", u.Gender)
	}
	if u.HeightCm != nil {
		fmt.Fprintf(&b, ", height %.0f cm", *u.HeightCm)
	}
	if u.WeightKg != nil {
		fmt.Fprintf(&b, ", weight %.1f kg", *u.WeightKg)
	}
	b.WriteString(".")
	if focus = strings.TrimSpace(focus); focus != "" {
		fmt.Fprintf(&b, " Focus: %s.", focus)
	}
	return b.String()
}
