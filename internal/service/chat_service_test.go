package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"fitcommunity/internal/domain"
	"fitcommunity/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatSendFansOutAndNotifiesOthers(t *testing.T) {
	e := newEnv(t)
	live := &fakeBroadcaster{}
	svc := NewChatService(repository.NewChatRepository(e.db), e.users, e.notify, live)
	svc.now = fixedNow
	ann := e.user(t, "ann", domain.RoleUser)
	bob := e.user(t, "bob", domain.RoleUser)
	cat := e.user(t, "cat", domain.RoleCoach)
	ctx := context.Background()

	chat, err := svc.Create(ann.ID, "crew", []uint{bob.ID, cat.ID, bob.ID})
	require.NoError(t, err)
	require.Len(t, chat.Participants, 3)

	m, err := svc.Send(ctx, ann.ID, chat.ID, "leg day?", "")
	require.NoError(t, err)
	require.Len(t, live.frames[chat.ID], 1)
	ev := live.frames[chat.ID][0].(MessageEvent)
	assert.Equal(t, m.ID, ev.ID)
	assert.Equal(t, "message", ev.Type)

	assert.Zero(t, e.count(t, ann.ID, domain.NotifyMessage))
	assert.EqualValues(t, 1, e.count(t, bob.ID, domain.NotifyMessage))
	assert.EqualValues(t, 1, e.count(t, cat.ID, domain.NotifyMessage))

	msgs, err := svc.Messages(bob.ID, chat.ID, 0, 50)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "leg day?", msgs[0].Content)

	list, err := svc.List(cat.ID, 20, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestChatMembership(t *testing.T) {
	e := newEnv(t)
	svc := NewChatService(repository.NewChatRepository(e.db), e.users, e.notify, nil)
	ann := e.user(t, "ann", domain.RoleUser)
	bob := e.user(t, "bob", domain.RoleUser)
	eve := e.user(t, "eve", domain.RoleUser)

	_, err := svc.Create(ann.ID, "", []uint{ann.ID})
	requireKind(t, err, domain.KindValidation)
	_, err = svc.Create(ann.ID, "", []uint{9999})
	requireKind(t, err, domain.KindNotFound)

	chat, err := svc.Create(ann.ID, "", []uint{bob.ID})
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), eve.ID, chat.ID, "hi", "")
	requireKind(t, err, domain.KindForbidden)
	_, err = svc.Messages(eve.ID, chat.ID, 0, 10)
	requireKind(t, err, domain.KindForbidden)
	requireKind(t, svc.CanJoin(eve.ID, chat.ID), domain.KindForbidden)
	require.NoError(t, svc.CanJoin(bob.ID, chat.ID))

	_, err = svc.Send(context.Background(), bob.ID, chat.ID, "  ", "")
	requireKind(t, err, domain.KindValidation)
}

func TestChatUploadMedia(t *testing.T) {
	e := newEnv(t)
	svc := NewChatService(repository.NewChatRepository(e.db), e.users, e.notify, nil)
	ann := e.user(t, "ann", domain.RoleUser)
	bob := e.user(t, "bob", domain.RoleUser)
	eve := e.user(t, "eve", domain.RoleUser)
	ctx := context.Background()
	chat, err := svc.Create(ann.ID, "", []uint{bob.ID})
	require.NoError(t, err)

	_, err = svc.UploadMedia(ctx, ann.ID, chat.ID, strings.NewReader("img"))
	requireKind(t, err, domain.KindUpstreamUnavailable)

	up := &fakeUploader{}
	svc.UseMedia(up, "fit")
	_, err = svc.UploadMedia(ctx, eve.ID, chat.ID, strings.NewReader("img"))
	requireKind(t, err, domain.KindForbidden)
	assert.Empty(t, up.uploaded)

	res, err := svc.UploadMedia(ctx, ann.ID, chat.ID, strings.NewReader("img"))
	require.NoError(t, err)
	require.Len(t, up.uploaded, 1)
	assert.True(t, strings.HasPrefix(up.uploaded[0], fmt.Sprintf("fit/chat/%d/img_", chat.ID)))

	m, err := svc.Send(ctx, ann.ID, chat.ID, "", res.URL)
	require.NoError(t, err)
	assert.Equal(t, res.URL, m.MediaURL)
	assert.EqualValues(t, 1, e.count(t, bob.ID, domain.NotifyMessage))
}
