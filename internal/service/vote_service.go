package service

import (
	"context"
	"errors"
	"fmt"

	"fitcommunity/internal/domain"
	"fitcommunity/internal/metrics"
	"fitcommunity/internal/models"
	"fitcommunity/internal/repository"

	"gorm.io/gorm"
)

// VoteState is what the API returns for a user's vote on one content row.
type VoteState struct {
	ContentType domain.ContentType `json:"content_type"`
	ObjectID    uint               `json:"object_id"`
	VoteType    string             `json:"vote_type,omitempty"` // empty when the user has not voted
	LikeCount   int64              `json:"like_count"`
}

type VoteService struct {
	votes  *repository.VoteRepository
	db     *gorm.DB
	notify *NotificationService
}

func NewVoteService(db *gorm.DB, votes *repository.VoteRepository, notify *NotificationService) *VoteService {
	return &VoteService{votes: votes, db: db, notify: notify}
}

func (s *VoteService) Cast(ctx context.Context, userID uint, ref domain.ContentRef, voteType string) (*VoteState, error) {
	if !domain.ValidVoteType(voteType) {
		return nil, domain.Validation("invalid input", map[string]string{"vote_type": "must be UPVOTE or DOWNVOTE"})
	}
	res, err := s.votes.Cast(userID, ref, voteType)
	if err != nil {
		return nil, s.ledgerErr(err, ref)
	}
	switch {
	case res.Previous == "":
		metrics.VotesTotal.WithLabelValues("created").Inc()
	case res.Previous != voteType:
		metrics.VotesTotal.WithLabelValues("switched").Inc()
	default:
		metrics.VotesTotal.WithLabelValues("unchanged").Inc()
	}
	if res.BecameUpvote() {
		noun := contentNoun(ref.Type)
		s.notify.Emit(ctx, Notice{
			RecipientID:       res.Content.AuthorID,
			SenderID:          userID,
			Type:              domain.NotifyLike,
			Title:             "New like",
			Message:           fmt.Sprintf("%s liked your %s", s.username(userID), noun),
			RelatedObjectID:   ref.ID,
			RelatedObjectType: string(ref.Type),
		})
	}
	return &VoteState{ContentType: ref.Type, ObjectID: ref.ID, VoteType: res.Vote.VoteType, LikeCount: res.Content.LikeCount}, nil
}

func (s *VoteService) Remove(userID uint, ref domain.ContentRef) (*VoteState, error) {
	res, err := s.votes.Remove(userID, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound("vote not found")
		}
		return nil, s.ledgerErr(err, ref)
	}
	metrics.VotesTotal.WithLabelValues("removed").Inc()
	return &VoteState{ContentType: ref.Type, ObjectID: ref.ID, LikeCount: res.Content.LikeCount}, nil
}

func (s *VoteService) Get(userID uint, ref domain.ContentRef) (*VoteState, error) {
	info, err := repository.LookupContent(s.db, ref)
	if err != nil {
		return nil, lookupErr(err, string(ref.Type))
	}
	state := &VoteState{ContentType: ref.Type, ObjectID: ref.ID, LikeCount: info.LikeCount}
	v, err := s.votes.Get(userID, ref)
	switch {
	case err == nil:
		state.VoteType = v.VoteType
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	return state, nil
}

func (s *VoteService) ledgerErr(err error, ref domain.ContentRef) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NotFound(string(ref.Type) + " not found")
	case errors.Is(err, repository.ErrVoteContention):
		return domain.Conflict("vote changed concurrently, retry")
	}
	return err
}

func (s *VoteService) username(id uint) string {
	var u models.User
	if err := s.db.Select("username").First(&u, id).Error; err != nil {
		return "Someone"
	}
	return u.Username
}
