package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fitcommunity/internal/domain"
	"fitcommunity/internal/models"
	"fitcommunity/internal/repository"
)

type ThreadInput struct {
	Title    string
	Content  string
	IsPinned *bool // coaches and admins only
	IsLocked *bool // coaches and admins only
}

type ForumService struct {
	repo   *repository.ForumRepository
	notify *NotificationService
	now    func() time.Time
}

func NewForumService(repo *repository.ForumRepository, notify *NotificationService) *ForumService {
	return &ForumService{repo: repo, notify: notify, now: time.Now}
}

func (s *ForumService) ListForums() ([]models.Forum, error) {
	return s.repo.ListForums()
}

func (s *ForumService) GetForum(id uint) (*models.Forum, error) {
	f, err := s.repo.GetForum(id)
	return f, lookupErr(err, "forum")
}

func (s *ForumService) CreateForum(userID uint, title, description string) (*models.Forum, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.Validation("invalid forum", map[string]string{"title": "is required"})
	}
	f := &models.Forum{Title: title, Description: description, CreatedBy: userID}
	if err := s.repo.CreateForum(f); err != nil {
		if isDuplicate(err) {
			return nil, domain.Conflict("a forum with this title already exists")
		}
		return nil, err
	}
	return f, nil
}

// Threads

func (s *ForumService) ListThreads(forumID uint, limit, offset int) ([]models.Thread, error) {
	if _, err := s.GetForum(forumID); err != nil {
		return nil, err
	}
	return s.repo.ListThreads(forumID, limit, offset)
}

// ViewThread loads a thread and counts the view.
func (s *ForumService) ViewThread(id uint) (*models.Thread, error) {
	if err := s.repo.IncrementViews(id); err != nil {
		return nil, err
	}
	t, err := s.repo.GetThread(id)
	return t, lookupErr(err, "thread")
}

func (s *ForumService) CreateThread(userID, forumID uint, in ThreadInput) (*models.Thread, error) {
	if _, err := s.GetForum(forumID); err != nil {
		return nil, err
	}
	fields := map[string]string{}
	if strings.TrimSpace(in.Title) == "" {
		fields["title"] = "is required"
	}
	if strings.TrimSpace(in.Content) == "" {
		fields["content"] = "is required"
	}
	if len(fields) > 0 {
		return nil, domain.Validation("invalid thread", fields)
	}
	t := &models.Thread{
		ForumID:        forumID,
		AuthorID:       userID,
		Title:          strings.TrimSpace(in.Title),
		Content:        in.Content,
		LastActivityAt: s.now(),
	}
	if err := s.repo.CreateThread(t); err != nil {
		return nil, err
	}
	return s.repo.GetThread(t.ID)
}

// UpdateThread lets the author edit text; moderators (coach/admin) may also pin or lock.
func (s *ForumService) UpdateThread(userID uint, role string, id uint, in ThreadInput) (*models.Thread, error) {
	t, err := s.repo.GetThread(id)
	if err != nil {
		return nil, lookupErr(err, "thread")
	}
	moderator := role == domain.RoleAdmin || role == domain.RoleCoach
	fields := map[string]interface{}{}
	if in.Title != "" || in.Content != "" {
		if t.AuthorID != userID {
			return nil, domain.Forbidden("only the author can edit this thread")
		}
		if in.Title != "" {
			fields["title"] = strings.TrimSpace(in.Title)
		}
		if in.Content != "" {
			fields["content"] = in.Content
		}
	}
	if in.IsPinned != nil || in.IsLocked != nil {
		if !moderator {
			return nil, domain.Forbidden("only coaches and admins can pin or lock threads")
		}
		if in.IsPinned != nil {
			fields["is_pinned"] = *in.IsPinned
		}
		if in.IsLocked != nil {
			fields["is_locked"] = *in.IsLocked
		}
	}
	if len(fields) == 0 {
		return t, nil
	}
	if err := s.repo.UpdateThread(id, fields); err != nil {
		return nil, err
	}
	return s.repo.GetThread(id)
}

// ThreadAuthor loads the thread and checks userID wrote it.
func (s *ForumService) ThreadAuthor(userID, id uint) (*models.Thread, error) {
	t, err := s.repo.GetThread(id)
	if err != nil {
		return nil, lookupErr(err, "thread")
	}
	if t.AuthorID != userID {
		return nil, domain.Forbidden("only the author can change this thread")
	}
	return t, nil
}

// SetThreadImage stores an uploaded image URL on the author's thread.
func (s *ForumService) SetThreadImage(userID, id uint, url string) (*models.Thread, error) {
	t, err := s.ThreadAuthor(userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateThread(id, map[string]interface{}{"image_url": url}); err != nil {
		return nil, err
	}
	t.ImageURL = url
	return t, nil
}

func (s *ForumService) DeleteThread(userID uint, role string, id uint) error {
	t, err := s.repo.GetThread(id)
	if err != nil {
		return lookupErr(err, "thread")
	}
	if t.AuthorID != userID && role != domain.RoleAdmin {
		return domain.Forbidden("only the author can delete this thread")
	}
	return s.repo.DeleteThread(id)
}

// Comments

func (s *ForumService) ListComments(threadID uint, limit, offset int) ([]models.Comment, error) {
	if _, err := s.repo.GetThread(threadID); err != nil {
		return nil, lookupErr(err, "thread")
	}
	return s.repo.ListComments(threadID, limit, offset)
}

func requireContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return domain.Validation("invalid input", map[string]string{"content": "is required"})
	}
	return nil
}

// CreateComment adds a comment and notifies the thread author unless they wrote it.
func (s *ForumService) CreateComment(ctx context.Context, userID, threadID uint, content string) (*models.Comment, error) {
	if err := requireContent(content); err != nil {
		return nil, err
	}
	t, err := s.repo.GetThread(threadID)
	if err != nil {
		return nil, lookupErr(err, "thread")
	}
	if t.IsLocked {
		return nil, domain.Forbidden("thread is locked")
	}
	c := &models.Comment{ThreadID: threadID, AuthorID: userID, Content: content}
	if err := s.repo.CreateComment(c, s.now()); err != nil {
		return nil, err
	}
	c, err = s.repo.GetComment(c.ID)
	if err != nil {
		return nil, err
	}
	s.notify.Emit(ctx, Notice{
		RecipientID:       t.AuthorID,
		SenderID:          userID,
		Type:              domain.NotifyComment,
		Title:             "New comment",
		Message:           fmt.Sprintf("%s commented on %q", c.Author.Username, t.Title),
		RelatedObjectID:   t.ID,
		RelatedObjectType: domain.ObjectThread,
	})
	return c, nil
}

func (s *ForumService) UpdateComment(userID, id uint, content string) (*models.Comment, error) {
	if err := requireContent(content); err != nil {
		return nil, err
	}
	c, err := s.repo.GetComment(id)
	if err != nil {
		return nil, lookupErr(err, "comment")
	}
	if c.AuthorID != userID {
		return nil, domain.Forbidden("only the author can edit this comment")
	}
	if err := s.repo.UpdateCommentContent(id, content); err != nil {
		return nil, err
	}
	c.Content = content
	return c, nil
}

func (s *ForumService) DeleteComment(userID uint, role string, id uint) error {
	c, err := s.repo.GetComment(id)
	if err != nil {
		return lookupErr(err, "comment")
	}
	if c.AuthorID != userID && role != domain.RoleAdmin {
		return domain.Forbidden("only the author can delete this comment")
	}
	return s.repo.DeleteComment(c)
}

// Subcomments

func (s *ForumService) ListSubcomments(commentID uint) ([]models.Subcomment, error) {
	if _, err := s.repo.GetComment(commentID); err != nil {
		return nil, lookupErr(err, "comment")
	}
	return s.repo.ListSubcomments(commentID)
}

// CreateSubcomment adds a reply and notifies the comment author unless they wrote it.
func (s *ForumService) CreateSubcomment(ctx context.Context, userID, commentID uint, content string) (*models.Subcomment, error) {
	if err := requireContent(content); err != nil {
		return nil, err
	}
	parent, err := s.repo.GetComment(commentID)
	if err != nil {
		return nil, lookupErr(err, "comment")
	}
	t, err := s.repo.GetThread(parent.ThreadID)
	if err != nil {
		return nil, lookupErr(err, "thread")
	}
	if t.IsLocked {
		return nil, domain.Forbidden("thread is locked")
	}
	sc := &models.Subcomment{CommentID: commentID, AuthorID: userID, Content: content}
	if err := s.repo.CreateSubcomment(sc, t.ID, s.now()); err != nil {
		return nil, err
	}
	sc, err = s.repo.GetSubcomment(sc.ID)
	if err != nil {
		return nil, err
	}
	s.notify.Emit(ctx, Notice{
		RecipientID:       parent.AuthorID,
		SenderID:          userID,
		Type:              domain.NotifyReply,
		Title:             "New reply",
		Message:           fmt.Sprintf("%s replied to your comment", sc.Author.Username),
		RelatedObjectID:   parent.ID,
		RelatedObjectType: domain.ObjectComment,
	})
	return sc, nil
}

func (s *ForumService) UpdateSubcomment(userID, id uint, content string) (*models.Subcomment, error) {
	if err := requireContent(content); err != nil {
		return nil, err
	}
	sc, err := s.repo.GetSubcomment(id)
	if err != nil {
		return nil, lookupErr(err, "reply")
	}
	if sc.AuthorID != userID {
		return nil, domain.Forbidden("only the author can edit this reply")
	}
	if err := s.repo.UpdateSubcommentContent(id, content); err != nil {
		return nil, err
	}
	sc.Content = content
	return sc, nil
}

func (s *ForumService) DeleteSubcomment(userID uint, role string, id uint) error {
	sc, err := s.repo.GetSubcomment(id)
	if err != nil {
		return lookupErr(err, "reply")
	}
	if sc.AuthorID != userID && role != domain.RoleAdmin {
		return domain.Forbidden("only the author can delete this reply")
	}
	return s.repo.DeleteSubcomment(sc)
}
