package service

import (
	"context"
	"time"

	"fitcommunity/internal/domain"
	"fitcommunity/internal/logging"
	"fitcommunity/internal/metrics"
	"fitcommunity/internal/models"
	"fitcommunity/internal/repository"
)

// Notice is one inbox entry to create.
type Notice struct {
	RecipientID       uint
	SenderID          uint // 0 for system notices
	Type              string
	Title             string
	Message           string
	RelatedObjectID   uint
	RelatedObjectType string
}

// NotificationService is the only writer of notification rows. Mutating
// services call Emit after their own write has committed.
type NotificationService struct {
	repo     *repository.NotificationRepository
	userRepo *repository.UserRepository
	push     Pusher
	timeout  time.Duration
	now      func() time.Time
}

const defaultPushTimeout = 5 * time.Second

func NewNotificationService(repo *repository.NotificationRepository, userRepo *repository.UserRepository, push Pusher) *NotificationService {
	return &NotificationService{repo: repo, userRepo: userRepo, push: push, timeout: defaultPushTimeout, now: time.Now}
}

// SetPushTimeout bounds each device push. Non-positive values keep the default.
func (s *NotificationService) SetPushTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// Emit creates the inbox row and pushes it. It never fails the caller: a notice
// addressed to its own sender is skipped and errors are logged. The returned
// row is nil when nothing was stored.
func (s *NotificationService) Emit(ctx context.Context, n Notice) *models.Notification {
	if n.RecipientID == 0 {
		return nil
	}
	if n.SenderID != 0 && n.SenderID == n.RecipientID {
		metrics.NotificationsTotal.WithLabelValues(n.Type, "skipped_self").Inc()
		return nil
	}
	row := &models.Notification{
		RecipientID:       n.RecipientID,
		Type:              n.Type,
		Title:             n.Title,
		Message:           n.Message,
		RelatedObjectType: n.RelatedObjectType,
	}
	if n.SenderID != 0 {
		sid := n.SenderID
		row.SenderID = &sid
	}
	if n.RelatedObjectID != 0 {
		oid := n.RelatedObjectID
		row.RelatedObjectID = &oid
	}
	if err := s.repo.Create(row); err != nil {
		metrics.NotificationsTotal.WithLabelValues(n.Type, "failed").Inc()
		logging.Ctx(ctx).Error().Err(err).
			Uint("recipient_id", n.RecipientID).Str("type", n.Type).
			Msg("notification create failed")
		return nil
	}
	metrics.NotificationsTotal.WithLabelValues(n.Type, "created").Inc()
	s.sendPush(ctx, row)
	return row
}

// EmitAll sends the same notice to every recipient, each skipped independently when it is the sender.
func (s *NotificationService) EmitAll(ctx context.Context, recipients []uint, n Notice) int {
	sent := 0
	seen := make(map[uint]bool, len(recipients))
	for _, id := range recipients {
		if seen[id] {
			continue
		}
		seen[id] = true
		n.RecipientID = id
		if s.Emit(ctx, n) != nil {
			sent++
		}
	}
	return sent
}

func (s *NotificationService) sendPush(ctx context.Context, n *models.Notification) {
	if s.push == nil || s.userRepo == nil {
		return
	}
	u, err := s.userRepo.GetByID(n.RecipientID)
	if err != nil || u.FCMToken == "" {
		return
	}
	data := map[string]interface{}{"notification_id": n.ID}
	if n.RelatedObjectID != nil {
		data["related_object_id"] = *n.RelatedObjectID
		data["related_object_type"] = n.RelatedObjectType
	}
	pushCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.push.SendToUser(pushCtx, u.FCMToken, n.Type, n.Title, n.Message, data); err != nil {
		metrics.NotificationsTotal.WithLabelValues(n.Type, "push_failed").Inc()
		logging.Ctx(ctx).Warn().Err(err).Uint("notification_id", n.ID).Msg("notification push failed")
		return
	}
	metrics.NotificationsTotal.WithLabelValues(n.Type, "pushed").Inc()
}

// Inbox

func (s *NotificationService) List(userID uint, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	return s.repo.ListByRecipient(userID, unreadOnly, limit, offset)
}

func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	return s.repo.CountUnread(userID)
}

func (s *NotificationService) MarkRead(userID, id uint) error {
	return lookupErr(s.repo.MarkRead(id, userID, s.now()), "notification")
}

func (s *NotificationService) MarkAllRead(userID uint) (int64, error) {
	return s.repo.MarkAllRead(userID, s.now())
}

func (s *NotificationService) Delete(userID, id uint) error {
	return lookupErr(s.repo.Delete(id, userID), "notification")
}

// contentNoun is used in notification text.
func contentNoun(t domain.ContentType) string {
	switch t {
	case domain.ContentComment:
		return "comment"
	case domain.ContentSubcomment:
		return "reply"
	default:
		return "thread"
	}
}
