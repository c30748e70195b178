package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fitcommunity/internal/domain"
	"fitcommunity/internal/models"
	"fitcommunity/internal/repository"

	"gorm.io/gorm"
)

// MentorService runs the request/accept/reject/terminate lifecycle. Exactly
// one side of a relationship is a coach; either side may open the request.
type MentorService struct {
	repo   *repository.MentorRepository
	users  *repository.UserRepository
	notify *NotificationService
	now    func() time.Time
}

func NewMentorService(repo *repository.MentorRepository, users *repository.UserRepository, notify *NotificationService) *MentorService {
	return &MentorService{repo: repo, users: users, notify: notify, now: time.Now}
}

func (s *MentorService) Request(ctx context.Context, requesterID, targetID uint) (*models.MentorRelationship, error) {
	if requesterID == targetID {
		return nil, domain.Invalid("cannot mentor yourself")
	}
	requester, err := s.users.GetByID(requesterID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	target, err := s.users.GetByID(targetID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	var mentorID, menteeID uint
	switch {
	case requester.IsCoach() && !target.IsCoach():
		mentorID, menteeID = requester.ID, target.ID
	case !requester.IsCoach() && target.IsCoach():
		mentorID, menteeID = target.ID, requester.ID
	default:
		return nil, domain.Invalid("a mentorship needs exactly one coach")
	}

	existing, err := s.repo.GetByPair(mentorID, menteeID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		m := &models.MentorRelationship{MentorID: mentorID, MenteeID: menteeID, RequestedBy: requesterID, Status: domain.MentorStatusPending}
		if err := s.repo.Create(m); err != nil {
			if isDuplicate(err) {
				return nil, domain.Conflict("a mentorship request already exists")
			}
			return nil, err
		}
		existing = m
	case err != nil:
		return nil, err
	case existing.Status == domain.MentorStatusPending || existing.Status == domain.MentorStatusAccepted:
		return nil, domain.Conflict("mentorship already " + strings.ToLower(existing.Status))
	default:
		ok, err := s.repo.Reopen(existing.ID, requesterID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.Conflict("mentorship changed concurrently")
		}
		existing.Status = domain.MentorStatusPending
		existing.RequestedBy = requesterID
		existing.RespondedAt = nil
	}

	s.notify.Emit(ctx, Notice{
		RecipientID:       targetID,
		SenderID:          requesterID,
		Type:              domain.NotifyMentorRequest,
		Title:             "Mentorship request",
		Message:           fmt.Sprintf("%s wants to connect as your %s", requester.DisplayName(), roleWord(requester)),
		RelatedObjectID:   existing.ID,
		RelatedObjectType: domain.ObjectMentorship,
	})
	return existing, nil
}

func roleWord(u *models.User) string {
	if u.IsCoach() {
		return "mentor"
	}
	return "mentee"
}

// respond is accept or reject by the party that did not open the request.
func (s *MentorService) respond(userID, id uint, to string) (*models.MentorRelationship, error) {
	m, err := s.repo.GetByID(id)
	if err != nil {
		return nil, lookupErr(err, "mentorship")
	}
	if !m.Involves(userID) {
		return nil, domain.NotFound("mentorship not found")
	}
	if m.RequestedBy == userID {
		return nil, domain.Forbidden("only the invited party can respond")
	}
	if m.Status != domain.MentorStatusPending {
		return nil, domain.Conflict("mentorship is " + strings.ToLower(m.Status) + ", not pending")
	}
	at := s.now()
	ok, err := s.repo.Transition(id, domain.MentorStatusPending, to, at)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.Conflict("mentorship changed concurrently")
	}
	m.Status = to
	m.RespondedAt = &at
	return m, nil
}

func (s *MentorService) Accept(ctx context.Context, userID, id uint) (*models.MentorRelationship, error) {
	m, err := s.respond(userID, id, domain.MentorStatusAccepted)
	if err != nil {
		return nil, err
	}
	s.notify.Emit(ctx, Notice{
		RecipientID:       m.RequestedBy,
		SenderID:          userID,
		Type:              domain.NotifyMentorAccepted,
		Title:             "Mentorship accepted",
		Message:           "Your mentorship request was accepted",
		RelatedObjectID:   m.ID,
		RelatedObjectType: domain.ObjectMentorship,
	})
	return m, nil
}

func (s *MentorService) Reject(userID, id uint) (*models.MentorRelationship, error) {
	return s.respond(userID, id, domain.MentorStatusRejected)
}

// Terminate ends an accepted mentorship; either party may do it.
func (s *MentorService) Terminate(userID, id uint) (*models.MentorRelationship, error) {
	m, err := s.repo.GetByID(id)
	if err != nil {
		return nil, lookupErr(err, "mentorship")
	}
	if !m.Involves(userID) {
		return nil, domain.NotFound("mentorship not found")
	}
	at := s.now()
	ok, err := s.repo.Transition(id, domain.MentorStatusAccepted, domain.MentorStatusTerminated, at)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.Conflict("only an accepted mentorship can be terminated")
	}
	m.Status = domain.MentorStatusTerminated
	m.RespondedAt = &at
	return m, nil
}

func (s *MentorService) Mentors(userID uint) ([]models.MentorRelationship, error) {
	return s.repo.ListMentors(userID)
}

func (s *MentorService) Mentees(userID uint) ([]models.MentorRelationship, error) {
	return s.repo.ListMentees(userID)
}

func (s *MentorService) Pending(userID uint) ([]models.MentorRelationship, error) {
	return s.repo.ListPendingFor(userID)
}
