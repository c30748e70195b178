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
	"fitcommunity/pkg/location"
	"fitcommunity/pkg/proximity"

	"gorm.io/gorm"
)

type ChallengeInput struct {
	Title         string
	Description   string
	ChallengeType string
	TargetValue   float64
	Unit          string
	StartDate     time.Time
	EndDate       time.Time
	MinAge        *int
	MaxAge        *int
	Location      string
	Latitude      *float64
	Longitude     *float64
}

// SearchParams are the query-string filters of challenge search. Nil means the filter was not supplied.
type SearchParams struct {
	IsActive      *bool
	Participating *bool
	MinAge        *int
	MaxAge        *int
	Location      string
	RadiusKm      *float64
	Limit         int
	Offset        int
}

type ParticipantView struct {
	UserID       uint       `json:"user_id"`
	Username     string     `json:"username"`
	AvatarURL    string     `json:"avatar_url"`
	CurrentValue float64    `json:"current_value"`
	Progress     float64    `json:"progress_percentage"`
	FinishDate   *time.Time `json:"finish_date"`
	JoinedAt     time.Time  `json:"joined_at"`
	Rank         int        `json:"rank,omitempty"`
}

type ChallengeView struct {
	models.Challenge
	IsActive         bool              `json:"is_active"`
	ParticipantCount int64             `json:"participant_count"`
	IsParticipating  bool              `json:"is_participating"`
	DistanceKm       *float64          `json:"distance_km,omitempty"`
	Proximity        string            `json:"proximity,omitempty"`
	Participants     []ParticipantView `json:"participants,omitempty"`
}

type ChallengeService struct {
	repo          *repository.ChallengeRepository
	geocoder      upstream.Geocoder
	notify        *NotificationService
	defaultRadius float64
	now           func() time.Time
}

func NewChallengeService(repo *repository.ChallengeRepository, geocoder upstream.Geocoder, notify *NotificationService, defaultRadiusKm float64) *ChallengeService {
	return &ChallengeService{repo: repo, geocoder: geocoder, notify: notify, defaultRadius: defaultRadiusKm, now: time.Now}
}

func (s *ChallengeService) Create(ctx context.Context, coachID uint, in ChallengeInput) (*ChallengeView, error) {
	c := &models.Challenge{CoachID: coachID}
	if err := s.apply(ctx, c, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(c); err != nil {
		return nil, err
	}
	return &ChallengeView{Challenge: *c, IsActive: c.IsActive(s.now())}, nil
}

// Update replaces the editable fields. Only the owning coach may edit.
func (s *ChallengeService) Update(ctx context.Context, userID, id uint, in ChallengeInput) (*ChallengeView, error) {
	c, err := s.owned(userID, id)
	if err != nil {
		return nil, err
	}
	// keep stored coordinates unless the location text changed or new ones were sent
	if in.Latitude == nil && in.Longitude == nil && strings.EqualFold(strings.TrimSpace(in.Location), c.Location) {
		in.Latitude, in.Longitude = c.Latitude, c.Longitude
	}
	if err := s.apply(ctx, c, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(c); err != nil {
		return nil, err
	}
	return s.Detail(userID, c.ID)
}

func (s *ChallengeService) Delete(userID, id uint) error {
	if _, err := s.owned(userID, id); err != nil {
		return err
	}
	return s.repo.Delete(id)
}

func (s *ChallengeService) owned(userID, id uint) (*models.Challenge, error) {
	c, err := s.repo.GetByID(id)
	if err != nil {
		return nil, lookupErr(err, "challenge")
	}
	if c.CoachID != userID {
		return nil, domain.Forbidden("only the coach who created this challenge can change it")
	}
	return c, nil
}

func (s *ChallengeService) apply(ctx context.Context, c *models.Challenge, in ChallengeInput) error {
	fields := map[string]string{}
	if strings.TrimSpace(in.Title) == "" {
		fields["title"] = "is required"
	}
	if in.TargetValue <= 0 {
		fields["target_value"] = "must be greater than 0"
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		fields["end_date"] = "start_date and end_date are required"
	} else if !in.EndDate.After(in.StartDate) {
		fields["end_date"] = "must be after start_date"
	}
	if in.MinAge != nil && *in.MinAge < 0 {
		fields["min_age"] = "must not be negative"
	}
	if in.MinAge != nil && in.MaxAge != nil && *in.MinAge > *in.MaxAge {
		fields["max_age"] = "must be greater than or equal to min_age"
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		fields["latitude"] = "latitude and longitude must be given together"
	} else if in.Latitude != nil && !(location.Point{Lat: *in.Latitude, Lng: *in.Longitude}).Valid() {
		fields["latitude"] = "coordinates out of range"
	}
	if len(fields) > 0 {
		return domain.Validation("invalid challenge", fields)
	}

	lat, lng := in.Latitude, in.Longitude
	loc := strings.TrimSpace(in.Location)
	if lat == nil && loc != "" {
		p, err := s.geocoder.Geocode(ctx, loc)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.Validation("invalid challenge", map[string]string{"location": "could not be geocoded"})
		}
		lat, lng = &p.Lat, &p.Lng
	}

	c.Title = strings.TrimSpace(in.Title)
	c.Description = in.Description
	c.ChallengeType = in.ChallengeType
	c.TargetValue = in.TargetValue
	c.Unit = in.Unit
	c.StartDate = in.StartDate
	c.EndDate = in.EndDate
	c.MinAge = in.MinAge
	c.MaxAge = in.MaxAge
	c.Location = loc
	c.Latitude, c.Longitude = lat, lng
	return nil
}

// Search applies the active, participation, age band and location filters.
// A location the geocoder cannot find yields no matches; a geocoder outage
// fails the request.
func (s *ChallengeService) Search(ctx context.Context, userID uint, p SearchParams) ([]ChallengeView, error) {
	radius := s.defaultRadius
	if p.RadiusKm != nil {
		radius = *p.RadiusKm
	}
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius <= 0 {
		return nil, domain.Invalid("radius_km must be a positive number")
	}
	f := repository.ChallengeFilter{
		Now:           s.now(),
		UserID:        userID,
		IsActive:      p.IsActive,
		Participating: p.Participating,
		MinAge:        p.MinAge,
		MaxAge:        p.MaxAge,
		RadiusKm:      radius,
		Limit:         p.Limit,
		Offset:        p.Offset,
	}
	if loc := strings.TrimSpace(p.Location); loc != "" {
		center, err := s.geocoder.Geocode(ctx, loc)
		if err != nil {
			return nil, err
		}
		if center == nil {
			return []ChallengeView{}, nil
		}
		f.Center = center
	}
	hits, err := s.repo.Search(f)
	if err != nil {
		return nil, err
	}
	return s.views(userID, hits, radius)
}

func (s *ChallengeService) views(userID uint, hits []repository.ChallengeHit, radius float64) ([]ChallengeView, error) {
	ids := make([]uint, len(hits))
	for i, h := range hits {
		ids[i] = h.Challenge.ID
	}
	counts, err := s.repo.CountParticipants(ids)
	if err != nil {
		return nil, err
	}
	joined, err := s.repo.ParticipatingIn(userID, ids)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]ChallengeView, 0, len(hits))
	for _, h := range hits {
		v := ChallengeView{
			Challenge:        h.Challenge,
			IsActive:         h.Challenge.IsActive(now),
			ParticipantCount: counts[h.Challenge.ID],
			IsParticipating:  joined[h.Challenge.ID],
			DistanceKm:       h.DistanceKm,
		}
		if h.DistanceKm != nil {
			rounded := math.Round(*h.DistanceKm*100) / 100
			v.DistanceKm = &rounded
			v.Proximity = proximity.Describe(*h.DistanceKm, radius)
		}
		out = append(out, v)
	}
	return out, nil
}

// Detail includes the participant list only for participants and the owning coach.
func (s *ChallengeService) Detail(userID, id uint) (*ChallengeView, error) {
	c, err := s.repo.GetByID(id)
	if err != nil {
		return nil, lookupErr(err, "challenge")
	}
	views, err := s.views(userID, []repository.ChallengeHit{{Challenge: *c}}, 0)
	if err != nil {
		return nil, err
	}
	v := views[0]
	if v.IsParticipating || c.CoachID == userID {
		v.Participants, err = s.participants(c)
		if err != nil {
			return nil, err
		}
	}
	return &v, nil
}

func (s *ChallengeService) participants(c *models.Challenge) ([]ParticipantView, error) {
	rows, err := s.repo.ListParticipants(c.ID)
	if err != nil {
		return nil, err
	}
	out := make([]ParticipantView, 0, len(rows))
	for i, p := range rows {
		out = append(out, ParticipantView{
			UserID:       p.UserID,
			Username:     p.User.Username,
			AvatarURL:    p.User.AvatarURL,
			CurrentValue: p.CurrentValue,
			Progress:     progressPct(p.CurrentValue, c.TargetValue),
			FinishDate:   p.FinishDate,
			JoinedAt:     p.JoinedAt,
			Rank:         i + 1,
		})
	}
	return out, nil
}

func progressPct(current, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return math.Min(100, math.Round(current/target*10000)/100)
}

func (s *ChallengeService) Join(userID, id uint) (*models.ChallengeParticipant, error) {
	c, err := s.repo.GetByID(id)
	if err != nil {
		return nil, lookupErr(err, "challenge")
	}
	if c.HasEnded(s.now()) {
		return nil, domain.Invalid("challenge has already ended")
	}
	p := &models.ChallengeParticipant{ChallengeID: id, UserID: userID}
	if err := s.repo.AddParticipant(p); err != nil {
		if isDuplicate(err) {
			return nil, domain.Conflict("already joined this challenge")
		}
		return nil, err
	}
	return p, nil
}

func (s *ChallengeService) Leave(userID, id uint) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return lookupErr(err, "challenge")
	}
	removed, err := s.repo.RemoveParticipant(id, userID)
	if err != nil {
		return err
	}
	if !removed {
		return domain.NotFound("not a participant of this challenge")
	}
	return nil
}

// ProgressResult is returned after a progress increment.
type ProgressResult struct {
	Participant *models.ChallengeParticipant `json:"participant"`
	Progress    float64                      `json:"progress_percentage"`
	Finished    bool                         `json:"just_finished"`
}

func (s *ChallengeService) AddProgress(ctx context.Context, userID, id uint, increment float64) (*ProgressResult, error) {
	if increment <= 0 || math.IsNaN(increment) || math.IsInf(increment, 0) {
		return nil, domain.Validation("invalid input", map[string]string{"increment": "must be greater than 0"})
	}
	c, err := s.repo.GetByID(id)
	if err != nil {
		return nil, lookupErr(err, "challenge")
	}
	now := s.now()
	if !c.IsActive(now) {
		return nil, domain.Invalid("progress can only be logged while the challenge is active")
	}
	p, finished, err := s.repo.AddProgress(id, userID, increment, c.TargetValue, now)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("not a participant of this challenge")
	}
	if err != nil {
		return nil, err
	}
	if finished {
		s.notify.Emit(ctx, Notice{
			RecipientID:       userID,
			Type:              domain.NotifyAchievement,
			Title:             "Challenge complete",
			Message:           fmt.Sprintf("You reached the target of %q", c.Title),
			RelatedObjectID:   c.ID,
			RelatedObjectType: domain.ObjectChallenge,
		})
	}
	return &ProgressResult{Participant: p, Progress: progressPct(p.CurrentValue, c.TargetValue), Finished: finished}, nil
}

// Leaderboard is visible to the same audience as Detail's participant list.
func (s *ChallengeService) Leaderboard(userID, id uint) ([]ParticipantView, error) {
	c, err := s.repo.GetByID(id)
	if err != nil {
		return nil, lookupErr(err, "challenge")
	}
	if c.CoachID != userID {
		joined, err := s.repo.IsParticipant(id, userID)
		if err != nil {
			return nil, err
		}
		if !joined {
			return nil, domain.Forbidden("only participants and the coach can see the leaderboard")
		}
	}
	return s.participants(c)
}

// CheckEnded announces every challenge whose end_date has passed, once per
// challenge, to its participants and coach. Returns the number of challenges announced.
func (s *ChallengeService) CheckEnded(ctx context.Context) (int, error) {
	ended, err := s.repo.ClaimEnded(s.now())
	if err != nil {
		return len(ended), err
	}
	for _, c := range ended {
		ids, err := s.repo.ParticipantUserIDs(c.ID)
		if err != nil {
			return len(ended), err
		}
		msg := fmt.Sprintf("The challenge %q has ended", c.Title)
		s.notify.EmitAll(ctx, append(ids, c.CoachID), Notice{
			Type:              domain.NotifyChallengeEnded,
			Title:             "Challenge ended",
			Message:           msg,
			RelatedObjectID:   c.ID,
			RelatedObjectType: domain.ObjectChallenge,
		})
	}
	return len(ended), nil
}

// Nearby is Search centered on explicit coordinates, used by clients that already know the position.
// A zero radius means the configured default.
func (s *ChallengeService) Nearby(userID uint, center location.Point, radiusKm float64) ([]ChallengeView, error) {
	if !center.Valid() {
		return nil, domain.Invalid("lat must be within [-90, 90] and lng within [-180, 180]")
	}
	if radiusKm == 0 {
		radiusKm = s.defaultRadius
	}
	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) || radiusKm <= 0 {
		return nil, domain.Invalid("radius_km must be a positive number")
	}
	hits, err := s.repo.Search(repository.ChallengeFilter{Now: s.now(), UserID: userID, Center: &center, RadiusKm: radiusKm})
	if err != nil {
		return nil, err
	}
	return s.views(userID, hits, radiusKm)
}
