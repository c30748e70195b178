package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fitcommunity/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitSkipsSelf(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "ann", domain.RoleUser)

	got := e.notify.Emit(context.Background(), Notice{RecipientID: u.ID, SenderID: u.ID, Type: domain.NotifyLike, Title: "x"})
	assert.Nil(t, got)
	assert.Zero(t, e.count(t, u.ID, domain.NotifyLike))
}

func TestEmitStoresAndPushes(t *testing.T) {
	e := newEnv(t)
	ann := e.user(t, "ann", domain.RoleUser)
	bob := e.user(t, "bob", domain.RoleUser)
	require.NoError(t, e.users.UpdateFields(bob.ID, map[string]interface{}{"fcm_token": "tok-bob"}))

	row := e.notify.Emit(context.Background(), Notice{RecipientID: bob.ID, SenderID: ann.ID, Type: domain.NotifyComment, Title: "New comment"})
	require.NotNil(t, row)
	require.NotNil(t, row.SenderID)
	assert.Equal(t, ann.ID, *row.SenderID)
	assert.False(t, row.IsRead)

	require.Len(t, e.pusher.sent, 1)
	assert.Equal(t, push{"tok-bob", domain.NotifyComment, "New comment"}, e.pusher.sent[0])
}

func TestEmitSurvivesPushFailure(t *testing.T) {
	e := newEnv(t)
	e.pusher.err = errors.New("fcm down")
	bob := e.user(t, "bob", domain.RoleUser)
	require.NoError(t, e.users.UpdateFields(bob.ID, map[string]interface{}{"fcm_token": "tok"}))

	row := e.notify.Emit(context.Background(), Notice{RecipientID: bob.ID, Type: domain.NotifyAchievement, Title: "done"})
	require.NotNil(t, row)
	assert.EqualValues(t, 1, e.count(t, bob.ID, domain.NotifyAchievement))
}

type stuckPusher struct {
	deadline bool
}

func (p *stuckPusher) SendToUser(ctx context.Context, _, _, _, _ string, _ map[string]interface{}) error {
	_, p.deadline = ctx.Deadline()
	<-ctx.Done()
	return ctx.Err()
}

func TestEmitBoundsSlowPush(t *testing.T) {
	e := newEnv(t)
	stuck := &stuckPusher{}
	svc := NewNotificationService(e.notices, e.users, stuck)
	svc.SetPushTimeout(50 * time.Millisecond)
	bob := e.user(t, "bob", domain.RoleUser)
	require.NoError(t, e.users.UpdateFields(bob.ID, map[string]interface{}{"fcm_token": "tok"}))

	start := time.Now()
	row := svc.Emit(context.Background(), Notice{RecipientID: bob.ID, Type: domain.NotifyAchievement, Title: "done"})
	assert.Less(t, time.Since(start), 2*time.Second)
	require.NotNil(t, row)
	assert.True(t, stuck.deadline)
	assert.EqualValues(t, 1, e.count(t, bob.ID, domain.NotifyAchievement))
}

func TestEmitAllDedupsAndSkipsSender(t *testing.T) {
	e := newEnv(t)
	ann := e.user(t, "ann", domain.RoleUser)
	bob := e.user(t, "bob", domain.RoleUser)
	cat := e.user(t, "cat", domain.RoleUser)

	sent := e.notify.EmitAll(context.Background(), []uint{ann.ID, bob.ID, bob.ID, cat.ID}, Notice{SenderID: ann.ID, Type: domain.NotifyMessage, Title: "hi"})
	assert.Equal(t, 2, sent)
	assert.Zero(t, e.count(t, ann.ID, domain.NotifyMessage))
	assert.EqualValues(t, 1, e.count(t, bob.ID, domain.NotifyMessage))
	assert.EqualValues(t, 1, e.count(t, cat.ID, domain.NotifyMessage))
}

func TestInboxOwnership(t *testing.T) {
	e := newEnv(t)
	bob := e.user(t, "bob", domain.RoleUser)
	eve := e.user(t, "eve", domain.RoleUser)
	row := e.notify.Emit(context.Background(), Notice{RecipientID: bob.ID, Type: domain.NotifyAchievement, Title: "done"})
	require.NotNil(t, row)

	requireKind(t, e.notify.MarkRead(eve.ID, row.ID), domain.KindNotFound)
	requireKind(t, e.notify.Delete(eve.ID, row.ID), domain.KindNotFound)

	require.NoError(t, e.notify.MarkRead(bob.ID, row.ID))
	n, err := e.notify.UnreadCount(bob.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, e.notify.Delete(bob.ID, row.ID))
	list, err := e.notify.List(bob.ID, false, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}
