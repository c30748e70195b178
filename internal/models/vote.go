package models

import "time"

// Vote is one user's vote on one piece of forum content. Rows are hard-deleted
// so the (user, content_type, object_id) unique index stays authoritative.
type Vote struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index:idx_vote_owner,unique" json:"user_id"`
	ContentType string    `gorm:"size:20;not null;index:idx_vote_owner,unique;index:idx_vote_target" json:"content_type"`
	ObjectID    uint      `gorm:"not null;index:idx_vote_owner,unique;index:idx_vote_target" json:"object_id"`
	VoteType    string    `gorm:"size:10;not null" json:"vote_type"` // UPVOTE | DOWNVOTE
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Vote) TableName() string {
	return "votes"
}
