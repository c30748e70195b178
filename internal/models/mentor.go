package models

import (
	"time"

	"fitcommunity/internal/domain"
)

// MentorRelationship links a coach (mentor) with a user (mentee). Either side
// may open the request; the other side accepts or rejects it.
type MentorRelationship struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	MentorID    uint       `gorm:"not null;index:idx_mentor_pair,unique" json:"mentor_id"`
	MenteeID    uint       `gorm:"not null;index:idx_mentor_pair,unique" json:"mentee_id"`
	RequestedBy uint       `gorm:"not null" json:"requested_by"`
	Status      string     `gorm:"size:20;not null;index" json:"status"`
	RespondedAt *time.Time `json:"responded_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Mentor User `gorm:"foreignKey:MentorID" json:"mentor,omitempty"`
	Mentee User `gorm:"foreignKey:MenteeID" json:"mentee,omitempty"`
}

func (MentorRelationship) TableName() string {
	return "mentor_relationships"
}

func (m *MentorRelationship) IsAccepted() bool { return m.Status == domain.MentorStatusAccepted }

// Involves reports whether userID is either party.
func (m *MentorRelationship) Involves(userID uint) bool {
	return m.MentorID == userID || m.MenteeID == userID
}

// Counterpart returns the other party's id.
func (m *MentorRelationship) Counterpart(userID uint) uint {
	if m.MentorID == userID {
		return m.MenteeID
	}
	return m.MentorID
}
