package models

import (
	"time"

	"fitcommunity/internal/domain"

	"gorm.io/gorm"
)

// User is stored whole but serializes only what any member may see. Contact
// and body fields travel through Account.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email        string         `gorm:"uniqueIndex;size:255;not null" json:"-"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	Role         string         `gorm:"size:20;not null;index;default:'USER'" json:"role"` // USER | COACH | ADMIN
	FirstName    string         `gorm:"size:100" json:"first_name"`
	LastName     string         `gorm:"size:100" json:"last_name"`
	Bio          string         `gorm:"type:text" json:"bio"`
	DateOfBirth  *time.Time     `json:"-"`
	Gender       string         `gorm:"size:20" json:"-"`
	HeightCm     *float64       `json:"-"`
	WeightKg     *float64       `json:"-"`
	Location     string         `gorm:"size:255" json:"-"`
	AvatarURL    string         `gorm:"size:512" json:"avatar_url"`
	GoogleID     *string        `gorm:"uniqueIndex;size:255" json:"-"` // nil for email signups
	FCMToken     string         `gorm:"size:512" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// Account is the owner's view of their user row.
type Account struct {
	User
	Email       string     `json:"email"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Gender      string     `json:"gender"`
	HeightCm    *float64   `json:"height_cm"`
	WeightKg    *float64   `json:"weight_kg"`
	Location    string     `json:"location"`
}

func (u *User) Account() Account {
	return Account{
		User:        *u,
		Email:       u.Email,
		DateOfBirth: u.DateOfBirth,
		Gender:      u.Gender,
		HeightCm:    u.HeightCm,
		WeightKg:    u.WeightKg,
		Location:    u.Location,
	}
}

func (u *User) IsCoach() bool { return u.Role == domain.RoleCoach }
func (u *User) IsAdmin() bool { return u.Role == domain.RoleAdmin }

// Age returns age in whole years at t, or nil when no date of birth is set.
func (u *User) Age(t time.Time) *int {
	if u.DateOfBirth == nil {
		return nil
	}
	dob := *u.DateOfBirth
	age := t.Year() - dob.Year()
	if t.Month() < dob.Month() || (t.Month() == dob.Month() && t.Day() < dob.Day()) {
		age--
	}
	return &age
}

// DisplayName prefers the full name and falls back to the username.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}
