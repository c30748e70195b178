package repository

import (
	"errors"
	"fmt"

	"fitcommunity/internal/domain"
	"fitcommunity/internal/models"

	"gorm.io/gorm"
)

// ErrVoteContention is returned when a vote kept changing underneath us for every attempt.
var ErrVoteContention = errors.New("vote changed concurrently")

const voteAttempts = 3

// VoteResult describes what a ledger call did.
type VoteResult struct {
	Vote     *models.Vote
	Previous string // "" when no vote existed
	Delta    int    // change applied to like_count
	Content  ContentInfo
}

// BecameUpvote reports whether this call turned the user's vote into an UPVOTE.
func (v *VoteResult) BecameUpvote() bool {
	return v.Vote != nil && v.Vote.VoteType == domain.VoteUp && v.Previous != domain.VoteUp
}

type VoteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

func (r *VoteRepository) Get(userID uint, ref domain.ContentRef) (*models.Vote, error) {
	var v models.Vote
	err := r.db.Where("user_id = ? AND content_type = ? AND object_id = ?", userID, string(ref.Type), ref.ID).First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func likeWeight(voteType string) int {
	if voteType == domain.VoteUp {
		return 1
	}
	return 0
}

// Cast records userID's vote on ref. A missing vote is created, a different
// vote is switched in place and an identical vote is left alone. like_count
// moves by the UPVOTE delta of the transition inside the same transaction.
//
// Transitions are compare-and-set on vote_type and inserts race on the unique
// (user_id, content_type, object_id) index; the loser of either race retries
// against the row the winner wrote.
func (r *VoteRepository) Cast(userID uint, ref domain.ContentRef, voteType string) (*VoteResult, error) {
	for attempt := 0; attempt < voteAttempts; attempt++ {
		var out *VoteResult
		err := r.db.Transaction(func(tx *gorm.DB) error {
			res, err := castOnce(tx, userID, ref, voteType)
			out = res
			return err
		})
		if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrVoteContention) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, ErrVoteContention
}

func castOnce(tx *gorm.DB, userID uint, ref domain.ContentRef, voteType string) (*VoteResult, error) {
	content, err := LookupContent(tx, ref)
	if err != nil {
		return nil, err
	}
	res := &VoteResult{Content: *content}

	var existing models.Vote
	err = tx.Where("user_id = ? AND content_type = ? AND object_id = ?", userID, string(ref.Type), ref.ID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		v := &models.Vote{UserID: userID, ContentType: string(ref.Type), ObjectID: ref.ID, VoteType: voteType}
		if err := tx.Create(v).Error; err != nil {
			return nil, err
		}
		res.Vote = v
		res.Delta = likeWeight(voteType)
	case err != nil:
		return nil, err
	case existing.VoteType == voteType:
		res.Vote = &existing
		res.Previous = existing.VoteType
		return res, nil
	default:
		upd := tx.Model(&models.Vote{}).
			Where("id = ? AND vote_type = ?", existing.ID, existing.VoteType).
			Update("vote_type", voteType)
		if upd.Error != nil {
			return nil, upd.Error
		}
		if upd.RowsAffected != 1 {
			return nil, ErrVoteContention
		}
		res.Previous = existing.VoteType
		existing.VoteType = voteType
		res.Vote = &existing
		res.Delta = likeWeight(voteType) - likeWeight(res.Previous)
	}

	if err := adjustLikes(tx, ref, res.Delta); err != nil {
		return nil, fmt.Errorf("adjust like_count: %w", err)
	}
	res.Content.LikeCount += int64(res.Delta)
	return res, nil
}

// Remove deletes userID's vote on ref and takes back its like if it was an
// UPVOTE. Returns gorm.ErrRecordNotFound without touching like_count when no
// vote exists.
func (r *VoteRepository) Remove(userID uint, ref domain.ContentRef) (*VoteResult, error) {
	for attempt := 0; attempt < voteAttempts; attempt++ {
		var out *VoteResult
		err := r.db.Transaction(func(tx *gorm.DB) error {
			var existing models.Vote
			if err := tx.Where("user_id = ? AND content_type = ? AND object_id = ?", userID, string(ref.Type), ref.ID).First(&existing).Error; err != nil {
				return err
			}
			del := tx.Where("id = ? AND vote_type = ?", existing.ID, existing.VoteType).Delete(&models.Vote{})
			if del.Error != nil {
				return del.Error
			}
			if del.RowsAffected != 1 {
				return ErrVoteContention
			}
			delta := -likeWeight(existing.VoteType)
			if err := adjustLikes(tx, ref, delta); err != nil {
				return fmt.Errorf("adjust like_count: %w", err)
			}
			out = &VoteResult{Previous: existing.VoteType, Delta: delta}
			if info, err := LookupContent(tx, ref); err == nil {
				out.Content = *info
			}
			return nil
		})
		if errors.Is(err, ErrVoteContention) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, ErrVoteContention
}

// CountUpvotes counts UPVOTE rows for ref; the authoritative value of like_count.
func (r *VoteRepository) CountUpvotes(ref domain.ContentRef) (int64, error) {
	var n int64
	err := r.db.Model(&models.Vote{}).
		Where("content_type = ? AND object_id = ? AND vote_type = ?", string(ref.Type), ref.ID, domain.VoteUp).
		Count(&n).Error
	return n, err
}
