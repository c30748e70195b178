package repository

import (
	"time"

	"fitcommunity/internal/models"

	"gorm.io/gorm"
)

type ForumRepository struct {
	db *gorm.DB
}

func NewForumRepository(db *gorm.DB) *ForumRepository {
	return &ForumRepository{db: db}
}

// Forums

func (r *ForumRepository) CreateForum(f *models.Forum) error {
	return r.db.Create(f).Error
}

func (r *ForumRepository) GetForum(id uint) (*models.Forum, error) {
	var f models.Forum
	if err := r.db.First(&f, id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *ForumRepository) ListForums() ([]models.Forum, error) {
	var list []models.Forum
	err := r.db.Order("title").Find(&list).Error
	return list, err
}

// Threads

func (r *ForumRepository) CreateThread(t *models.Thread) error {
	return r.db.Create(t).Error
}

func (r *ForumRepository) GetThread(id uint) (*models.Thread, error) {
	var t models.Thread
	if err := r.db.Preload("Author").First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ListThreads orders pinned threads first, then by latest activity.
func (r *ForumRepository) ListThreads(forumID uint, limit, offset int) ([]models.Thread, error) {
	var list []models.Thread
	err := r.db.Where("forum_id = ?", forumID).Preload("Author").
		Order("is_pinned DESC, last_activity_at DESC, id DESC").
		Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *ForumRepository) UpdateThread(id uint, fields map[string]interface{}) error {
	return r.db.Model(&models.Thread{}).Where("id = ?", id).Updates(fields).Error
}

func (r *ForumRepository) DeleteThread(id uint) error {
	return r.db.Delete(&models.Thread{}, id).Error
}

// IncrementViews bumps view_count without touching updated_at.
func (r *ForumRepository) IncrementViews(id uint) error {
	return r.db.Model(&models.Thread{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
}

// Comments

// CreateComment inserts c and bumps the parent thread's comment_count and
// last_activity_at in the same transaction.
func (r *ForumRepository) CreateComment(c *models.Comment, at time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		return tx.Model(&models.Thread{}).Where("id = ?", c.ThreadID).
			UpdateColumns(map[string]interface{}{
				"comment_count":    gorm.Expr("comment_count + ?", 1),
				"last_activity_at": at,
			}).Error
	})
}

func (r *ForumRepository) GetComment(id uint) (*models.Comment, error) {
	var c models.Comment
	if err := r.db.Preload("Author").First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ForumRepository) ListComments(threadID uint, limit, offset int) ([]models.Comment, error) {
	var list []models.Comment
	err := r.db.Where("thread_id = ?", threadID).Preload("Author").
		Order("created_at ASC, id ASC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *ForumRepository) UpdateCommentContent(id uint, content string) error {
	return r.db.Model(&models.Comment{}).Where("id = ?", id).Update("content", content).Error
}

// DeleteComment soft-deletes the comment and decrements comment_count.
func (r *ForumRepository) DeleteComment(c *models.Comment) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Comment{}, c.ID)
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		return tx.Model(&models.Thread{}).Where("id = ? AND comment_count > 0", c.ThreadID).
			UpdateColumn("comment_count", gorm.Expr("comment_count - ?", 1)).Error
	})
}

// Subcomments

func (r *ForumRepository) CreateSubcomment(s *models.Subcomment, threadID uint, at time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(s).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comment{}).Where("id = ?", s.CommentID).
			UpdateColumn("subcomment_count", gorm.Expr("subcomment_count + ?", 1)).Error; err != nil {
			return err
		}
		return tx.Model(&models.Thread{}).Where("id = ?", threadID).
			UpdateColumn("last_activity_at", at).Error
	})
}

func (r *ForumRepository) GetSubcomment(id uint) (*models.Subcomment, error) {
	var s models.Subcomment
	if err := r.db.Preload("Author").First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ForumRepository) ListSubcomments(commentID uint) ([]models.Subcomment, error) {
	var list []models.Subcomment
	err := r.db.Where("comment_id = ?", commentID).Preload("Author").Order("created_at ASC, id ASC").Find(&list).Error
	return list, err
}

func (r *ForumRepository) UpdateSubcommentContent(id uint, content string) error {
	return r.db.Model(&models.Subcomment{}).Where("id = ?", id).Update("content", content).Error
}

func (r *ForumRepository) DeleteSubcomment(s *models.Subcomment) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Subcomment{}, s.ID)
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		return tx.Model(&models.Comment{}).Where("id = ? AND subcomment_count > 0", s.CommentID).
			UpdateColumn("subcomment_count", gorm.Expr("subcomment_count - ?", 1)).Error
	})
}
