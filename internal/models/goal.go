package models

import (
	"math"
	"time"

	"gorm.io/gorm"
)

type FitnessGoal struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	MentorID     *uint          `gorm:"index" json:"mentor_id"`
	Title        string         `gorm:"size:200;not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	GoalType     string         `gorm:"size:50;index" json:"goal_type"`
	TargetValue  float64        `gorm:"not null" json:"target_value"`
	CurrentValue float64        `gorm:"not null;default:0" json:"current_value"`
	Unit         string         `gorm:"size:30" json:"unit"`
	StartDate    time.Time      `gorm:"not null" json:"start_date"`
	TargetDate   time.Time      `gorm:"not null;index" json:"target_date"`
	Status       string         `gorm:"size:20;not null;index" json:"status"`
	CompletedAt  *time.Time     `json:"completed_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	User   User  `gorm:"foreignKey:UserID" json:"-"`
	Mentor *User `gorm:"foreignKey:MentorID" json:"-"`
}

func (FitnessGoal) TableName() string {
	return "fitness_goals"
}

// ProgressPercentage is current/target as a percentage, capped at 100.
func (g *FitnessGoal) ProgressPercentage() float64 {
	if g.TargetValue <= 0 {
		return 0
	}
	p := g.CurrentValue / g.TargetValue * 100
	return math.Min(100, math.Round(p*100)/100)
}
