package models

import (
	"time"

	"gorm.io/gorm"
)

type Notification struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	RecipientID       uint           `gorm:"not null;index:idx_notif_recipient" json:"recipient_id"`
	SenderID          *uint          `gorm:"index" json:"sender_id"`
	Type              string         `gorm:"size:50;not null;index" json:"type"`
	Title             string         `gorm:"size:255" json:"title"`
	Message           string         `gorm:"type:text" json:"message"`
	RelatedObjectID   *uint          `json:"related_object_id"`
	RelatedObjectType string         `gorm:"size:30" json:"related_object_type,omitempty"`
	IsRead            bool           `gorm:"default:false;index:idx_notif_recipient" json:"is_read"`
	ReadAt            *time.Time     `json:"read_at"`
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	Recipient User  `gorm:"foreignKey:RecipientID" json:"-"`
	Sender    *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}
