package repository

import (
	"fitcommunity/internal/models"

	"gorm.io/gorm"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// CreateChat inserts the chat and one participant row per member.
func (r *ChatRepository) CreateChat(c *models.Chat, memberIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		parts := make([]models.ChatParticipant, 0, len(memberIDs))
		for _, id := range memberIDs {
			parts = append(parts, models.ChatParticipant{ChatID: c.ID, UserID: id})
		}
		if err := tx.Create(&parts).Error; err != nil {
			return err
		}
		c.Participants = parts
		return nil
	})
}

func (r *ChatRepository) GetChat(id uint) (*models.Chat, error) {
	var c models.Chat
	if err := r.db.Preload("Participants.User").First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ChatRepository) ListForUser(userID uint, limit, offset int) ([]models.Chat, error) {
	var list []models.Chat
	sub := r.db.Model(&models.ChatParticipant{}).Select("chat_id").Where("user_id = ?", userID)
	err := r.db.Where("id IN (?)", sub).Preload("Participants.User").
		Order("updated_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *ChatRepository) IsParticipant(chatID, userID uint) (bool, error) {
	var n int64
	err := r.db.Model(&models.ChatParticipant{}).Where("chat_id = ? AND user_id = ?", chatID, userID).Count(&n).Error
	return n > 0, err
}

func (r *ChatRepository) ParticipantIDs(chatID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.ChatParticipant{}).Where("chat_id = ?", chatID).Order("user_id").Pluck("user_id", &ids).Error
	return ids, err
}

// CreateMessage stores m and bumps the chat's updated_at so chat lists sort by activity.
func (r *ChatRepository) CreateMessage(m *models.Message) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return tx.Model(&models.Chat{}).Where("id = ?", m.ChatID).UpdateColumn("updated_at", m.CreatedAt).Error
	})
}

// ListMessages returns up to limit messages older than beforeID (0 = newest), newest first.
func (r *ChatRepository) ListMessages(chatID uint, beforeID uint, limit int) ([]models.Message, error) {
	var list []models.Message
	q := r.db.Where("chat_id = ?", chatID)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	err := q.Order("id DESC").Limit(limit).Find(&list).Error
	return list, err
}
