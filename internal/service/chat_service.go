package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"fitcommunity/internal/domain"
	"fitcommunity/internal/models"
	"fitcommunity/internal/repository"
	"fitcommunity/pkg/cloudinary"

	"github.com/google/uuid"
)

const maxChatMembers = 50

// Broadcaster delivers a payload to the live connections of a chat.
type Broadcaster interface {
	Broadcast(chatID uint, payload interface{}) int
}

type ChatService struct {
	repo   *repository.ChatRepository
	users  *repository.UserRepository
	notify *NotificationService
	live   Broadcaster
	images cloudinary.Uploader
	folder string
	now    func() time.Time
}

func NewChatService(repo *repository.ChatRepository, users *repository.UserRepository, notify *NotificationService, live Broadcaster) *ChatService {
	return &ChatService{repo: repo, users: users, notify: notify, live: live, now: time.Now}
}

// UseMedia enables chat image uploads under folder.
func (s *ChatService) UseMedia(images cloudinary.Uploader, folder string) {
	s.images = images
	s.folder = folder
}

// UploadMedia stores an image for a chat the user belongs to. The returned URL
// goes into a later Send as media_url.
func (s *ChatService) UploadMedia(ctx context.Context, userID, chatID uint, file io.Reader) (*cloudinary.UploadResult, error) {
	if _, err := s.member(userID, chatID); err != nil {
		return nil, err
	}
	if s.images == nil {
		return nil, domain.UpstreamUnavailable("image upload", nil)
	}
	publicID := "img_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	folder := fmt.Sprintf("%s/chat/%d", s.folder, chatID)
	res, err := s.images.UploadImage(ctx, file, folder, publicID, cloudinary.ChatMedia)
	if err != nil {
		return nil, domain.Upstream("chat upload", err)
	}
	return res, nil
}

// Create opens a chat between the creator and participantIDs.
func (s *ChatService) Create(creatorID uint, title string, participantIDs []uint) (*models.Chat, error) {
	members := map[uint]struct{}{creatorID: {}}
	for _, id := range participantIDs {
		if id != 0 {
			members[id] = struct{}{}
		}
	}
	if len(members) < 2 {
		return nil, domain.Validation("invalid chat", map[string]string{"participant_ids": "must name at least one other user"})
	}
	if len(members) > maxChatMembers {
		return nil, domain.Validation("invalid chat", map[string]string{"participant_ids": "too many participants"})
	}
	ids := make([]uint, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	found, err := s.users.GetByIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		return nil, domain.NotFound("user not found")
	}
	c := &models.Chat{Title: strings.TrimSpace(title), CreatedBy: creatorID}
	if err := s.repo.CreateChat(c, ids); err != nil {
		return nil, err
	}
	return s.repo.GetChat(c.ID)
}

func (s *ChatService) List(userID uint, limit, offset int) ([]models.Chat, error) {
	return s.repo.ListForUser(userID, limit, offset)
}

// member loads the chat and checks userID belongs to it.
func (s *ChatService) member(userID, chatID uint) (*models.Chat, error) {
	c, err := s.repo.GetChat(chatID)
	if err != nil {
		return nil, lookupErr(err, "chat")
	}
	for _, p := range c.Participants {
		if p.UserID == userID {
			return c, nil
		}
	}
	return nil, domain.Forbidden("not a participant of this chat")
}

// CanJoin reports whether userID may attach to the chat's live stream.
func (s *ChatService) CanJoin(userID, chatID uint) error {
	_, err := s.member(userID, chatID)
	return err
}

func (s *ChatService) Messages(userID, chatID, beforeID uint, limit int) ([]models.Message, error) {
	if _, err := s.member(userID, chatID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(chatID, beforeID, limit)
}

// MessageEvent is the websocket frame for a stored message.
type MessageEvent struct {
	Type      string    `json:"type"`
	ID        uint      `json:"id"`
	ChatID    uint      `json:"chat_id"`
	SenderID  uint      `json:"sender_id"`
	Content   string    `json:"content"`
	MediaURL  string    `json:"media_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Send stores a message, fans it out to connected participants and
// notifies every other participant.
func (s *ChatService) Send(ctx context.Context, senderID, chatID uint, content, mediaURL string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" && mediaURL == "" {
		return nil, domain.Validation("invalid message", map[string]string{"content": "is required"})
	}
	c, err := s.member(senderID, chatID)
	if err != nil {
		return nil, err
	}
	m := &models.Message{ChatID: chatID, SenderID: senderID, Content: content, MediaURL: mediaURL, CreatedAt: s.now()}
	if err := s.repo.CreateMessage(m); err != nil {
		return nil, err
	}
	if s.live != nil {
		s.live.Broadcast(chatID, MessageEvent{
			Type:      "message",
			ID:        m.ID,
			ChatID:    chatID,
			SenderID:  senderID,
			Content:   m.Content,
			MediaURL:  m.MediaURL,
			CreatedAt: m.CreatedAt,
		})
	}

	var sender string
	recipients := make([]uint, 0, len(c.Participants))
	for _, p := range c.Participants {
		if p.UserID == senderID {
			sender = p.User.DisplayName()
			continue
		}
		recipients = append(recipients, p.UserID)
	}
	preview := content
	if preview == "" {
		preview = "sent an attachment"
	}
	if r := []rune(preview); len(r) > 80 {
		preview = string(r[:80]) + "..."
	}
	s.notify.EmitAll(ctx, recipients, Notice{
		SenderID:          senderID,
		Type:              domain.NotifyMessage,
		Title:             "New message from " + sender,
		Message:           preview,
		RelatedObjectID:   chatID,
		RelatedObjectType: domain.ObjectChat,
	})
	return m, nil
}
