package models

import (
	"time"

	"gorm.io/gorm"
)

type Challenge struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CoachID       uint           `gorm:"not null;index" json:"coach_id"`
	Title         string         `gorm:"size:200;not null" json:"title"`
	Description   string         `gorm:"type:text" json:"description"`
	ChallengeType string         `gorm:"size:50;index" json:"challenge_type"`
	TargetValue   float64        `gorm:"not null" json:"target_value"`
	Unit          string         `gorm:"size:30" json:"unit"`
	StartDate     time.Time      `gorm:"not null;index" json:"start_date"`
	EndDate       time.Time      `gorm:"not null;index" json:"end_date"`
	MinAge        *int           `json:"min_age"`
	MaxAge        *int           `json:"max_age"`
	Location      string         `gorm:"size:255" json:"location"`
	Latitude      *float64       `gorm:"index:idx_challenge_lat_lng" json:"latitude"`
	Longitude     *float64       `gorm:"index:idx_challenge_lat_lng" json:"longitude"`
	EndNotifiedAt *time.Time     `json:"-"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Coach        User                   `gorm:"foreignKey:CoachID" json:"-"`
	Participants []ChallengeParticipant `gorm:"foreignKey:ChallengeID" json:"-"`
}

func (Challenge) TableName() string {
	return "challenges"
}

// IsActive reports start <= t <= end.
func (c *Challenge) IsActive(t time.Time) bool {
	return !t.Before(c.StartDate) && !t.After(c.EndDate)
}

func (c *Challenge) HasEnded(t time.Time) bool { return t.After(c.EndDate) }

// ChallengeParticipant rows are hard-deleted on leave so the unique pair can be rejoined.
type ChallengeParticipant struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ChallengeID  uint       `gorm:"not null;index:idx_participant_pair,unique" json:"challenge_id"`
	UserID       uint       `gorm:"not null;index:idx_participant_pair,unique" json:"user_id"`
	CurrentValue float64    `gorm:"not null;default:0" json:"current_value"`
	FinishDate   *time.Time `json:"finish_date"`
	JoinedAt     time.Time  `gorm:"autoCreateTime" json:"joined_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (ChallengeParticipant) TableName() string {
	return "challenge_participants"
}
