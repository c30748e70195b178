package service

import (
	"context"
	"testing"

	"fitcommunity/internal/domain"
	"fitcommunity/internal/models"
	"fitcommunity/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newForumFixture(t *testing.T) (*env, *ForumService, *models.User, *models.Thread) {
	t.Helper()
	e := newEnv(t)
	svc := NewForumService(repository.NewForumRepository(e.db), e.notify)
	svc.now = fixedNow
	author := e.user(t, "author", domain.RoleCoach)
	f, err := svc.CreateForum(author.ID, "Running", "all about running")
	require.NoError(t, err)
	th, err := svc.CreateThread(author.ID, f.ID, ThreadInput{Title: "Couch to 5k", Content: "week one"})
	require.NoError(t, err)
	return e, svc, author, th
}

func TestCommentNotifiesThreadAuthorOnce(t *testing.T) {
	e, svc, author, th := newForumFixture(t)
	reader := e.user(t, "reader", domain.RoleUser)
	ctx := context.Background()

	c, err := svc.CreateComment(ctx, reader.ID, th.ID, "great plan")
	require.NoError(t, err)
	assert.Equal(t, "reader", c.Author.Username)
	assert.EqualValues(t, 1, e.count(t, author.ID, domain.NotifyComment))

	_, err = svc.CreateComment(ctx, author.ID, th.ID, "thanks")
	require.NoError(t, err)
	assert.EqualValues(t, 1, e.count(t, author.ID, domain.NotifyComment), "own comment must not notify")

	got, err := svc.ViewThread(th.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.CommentCount)
	assert.EqualValues(t, 1, got.ViewCount)
}

func TestReplyNotifiesCommentAuthor(t *testing.T) {
	e, svc, author, th := newForumFixture(t)
	reader := e.user(t, "reader", domain.RoleUser)
	ctx := context.Background()

	c, err := svc.CreateComment(ctx, reader.ID, th.ID, "question")
	require.NoError(t, err)
	_, err = svc.CreateSubcomment(ctx, author.ID, c.ID, "answer")
	require.NoError(t, err)
	assert.EqualValues(t, 1, e.count(t, reader.ID, domain.NotifyReply))

	_, err = svc.CreateSubcomment(ctx, reader.ID, c.ID, "follow-up")
	require.NoError(t, err)
	assert.EqualValues(t, 1, e.count(t, reader.ID, domain.NotifyReply))

	subs, err := svc.ListSubcomments(c.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 2)
}

func TestLockedThreadRejectsComments(t *testing.T) {
	e, svc, author, th := newForumFixture(t)
	reader := e.user(t, "reader", domain.RoleUser)

	_, err := svc.UpdateThread(reader.ID, domain.RoleUser, th.ID, ThreadInput{IsLocked: ptr(true)})
	requireKind(t, err, domain.KindForbidden)

	locked, err := svc.UpdateThread(author.ID, domain.RoleCoach, th.ID, ThreadInput{IsLocked: ptr(true)})
	require.NoError(t, err)
	assert.True(t, locked.IsLocked)

	_, err = svc.CreateComment(context.Background(), reader.ID, th.ID, "too late")
	requireKind(t, err, domain.KindForbidden)
}

func TestAuthorOnlyEdits(t *testing.T) {
	e, svc, author, th := newForumFixture(t)
	reader := e.user(t, "reader", domain.RoleUser)
	c, err := svc.CreateComment(context.Background(), reader.ID, th.ID, "first")
	require.NoError(t, err)

	_, err = svc.UpdateComment(author.ID, c.ID, "edited")
	requireKind(t, err, domain.KindForbidden)
	requireKind(t, svc.DeleteComment(author.ID, domain.RoleCoach, c.ID), domain.KindForbidden)

	up, err := svc.UpdateComment(reader.ID, c.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", up.Content)

	require.NoError(t, svc.DeleteComment(reader.ID, domain.RoleUser, c.ID))
	got, err := svc.ViewThread(th.ID)
	require.NoError(t, err)
	assert.Zero(t, got.CommentCount)

	_, err = svc.UpdateThread(reader.ID, domain.RoleUser, th.ID, ThreadInput{Title: "mine now"})
	requireKind(t, err, domain.KindForbidden)
}

func TestForumValidation(t *testing.T) {
	e, svc, author, th := newForumFixture(t)

	_, err := svc.CreateForum(author.ID, "Running", "")
	requireKind(t, err, domain.KindConflict)

	_, err = svc.CreateThread(author.ID, th.ForumID, ThreadInput{Title: "  "})
	requireKind(t, err, domain.KindValidation)

	_, err = svc.CreateComment(context.Background(), author.ID, 9999, "x")
	requireKind(t, err, domain.KindNotFound)

	_, err = svc.ListThreads(9999, 10, 0)
	requireKind(t, err, domain.KindNotFound)
	_ = e
}
