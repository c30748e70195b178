package repository

import (
	"time"

	"fitcommunity/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(n *models.Notification) error {
	return r.db.Create(n).Error
}

func (r *NotificationRepository) ListByRecipient(recipientID uint, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	var list []models.Notification
	q := r.db.Where("recipient_id = ?", recipientID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	err := q.Preload("Sender").Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *NotificationRepository) CountUnread(recipientID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.Notification{}).Where("recipient_id = ? AND is_read = ?", recipientID, false).Count(&n).Error
	return n, err
}

// MarkRead flags one notification as read. Already-read rows are left as is;
// a missing or foreign id returns gorm.ErrRecordNotFound.
func (r *NotificationRepository) MarkRead(id, recipientID uint, at time.Time) error {
	var n models.Notification
	if err := r.db.Where("id = ? AND recipient_id = ?", id, recipientID).First(&n).Error; err != nil {
		return err
	}
	if n.IsRead {
		return nil
	}
	return r.db.Model(&models.Notification{}).Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at}).Error
}

func (r *NotificationRepository) MarkAllRead(recipientID uint, at time.Time) (int64, error) {
	res := r.db.Model(&models.Notification{}).Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

func (r *NotificationRepository) Delete(id, recipientID uint) error {
	res := r.db.Where("id = ? AND recipient_id = ?", id, recipientID).Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountFor counts notifications of one type sent to recipientID.
func (r *NotificationRepository) CountFor(recipientID uint, notifType string) (int64, error) {
	var n int64
	err := r.db.Model(&models.Notification{}).Where("recipient_id = ? AND type = ?", recipientID, notifType).Count(&n).Error
	return n, err
}
