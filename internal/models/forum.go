package models

import (
	"time"

	"gorm.io/gorm"
)

type Forum struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"uniqueIndex;size:150;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedBy   uint           `gorm:"not null" json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Forum) TableName() string {
	return "forums"
}

type Thread struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ForumID        uint           `gorm:"not null;index" json:"forum_id"`
	AuthorID       uint           `gorm:"not null;index" json:"author_id"`
	Title          string         `gorm:"size:255;not null" json:"title"`
	Content        string         `gorm:"type:text;not null" json:"content"`
	ImageURL       string         `gorm:"size:512" json:"image_url"`
	IsPinned       bool           `gorm:"default:false;index" json:"is_pinned"`
	IsLocked       bool           `gorm:"default:false" json:"is_locked"`
	ViewCount      int64          `gorm:"not null;default:0" json:"view_count"`
	LikeCount      int64          `gorm:"not null;default:0" json:"like_count"`
	CommentCount   int64          `gorm:"not null;default:0" json:"comment_count"`
	LastActivityAt time.Time      `gorm:"index" json:"last_activity_at"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	Author User `gorm:"foreignKey:AuthorID" json:"author"`
}

func (Thread) TableName() string {
	return "threads"
}

type Comment struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	ThreadID        uint           `gorm:"not null;index" json:"thread_id"`
	AuthorID        uint           `gorm:"not null;index" json:"author_id"`
	Content         string         `gorm:"type:text;not null" json:"content"`
	LikeCount       int64          `gorm:"not null;default:0" json:"like_count"`
	SubcommentCount int64          `gorm:"not null;default:0" json:"subcomment_count"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	Author User `gorm:"foreignKey:AuthorID" json:"author"`
}

func (Comment) TableName() string {
	return "comments"
}

type Subcomment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CommentID uint           `gorm:"not null;index" json:"comment_id"`
	AuthorID  uint           `gorm:"not null;index" json:"author_id"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	LikeCount int64          `gorm:"not null;default:0" json:"like_count"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Author User `gorm:"foreignKey:AuthorID" json:"author"`
}

func (Subcomment) TableName() string {
	return "subcomments"
}
