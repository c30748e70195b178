package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fitcommunity/internal/database/dbtest"
	"fitcommunity/internal/domain"
	"fitcommunity/internal/models"
	"fitcommunity/internal/repository"
	"fitcommunity/pkg/location"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var t0 = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return t0 }

type push struct {
	Token, Type, Title string
}

type fakePusher struct {
	mu   sync.Mutex
	sent []push
	err  error
}

func (f *fakePusher) SendToUser(_ context.Context, token, notifType, title, _ string, _ map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, push{token, notifType, title})
	return f.err
}

type fakeGeocoder struct {
	point *location.Point
	err   error
	calls int
}

func (f *fakeGeocoder) Geocode(context.Context, string) (*location.Point, error) {
	f.calls++
	return f.point, f.err
}

type fakeBroadcaster struct {
	frames map[uint][]interface{}
}

func (f *fakeBroadcaster) Broadcast(chatID uint, payload interface{}) int {
	if f.frames == nil {
		f.frames = map[uint][]interface{}{}
	}
	f.frames[chatID] = append(f.frames[chatID], payload)
	return 1
}

type env struct {
	db      *gorm.DB
	pusher  *fakePusher
	users   *repository.UserRepository
	notices *repository.NotificationRepository
	notify  *NotificationService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.New(t)
	e := &env{db: db, pusher: &fakePusher{}}
	e.users = repository.NewUserRepository(db)
	e.notices = repository.NewNotificationRepository(db)
	e.notify = NewNotificationService(e.notices, e.users, e.pusher)
	e.notify.now = fixedNow
	return e
}

func (e *env) user(t *testing.T, name, role string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", Role: role}
	require.NoError(t, e.users.Create(u))
	return u
}

func (e *env) count(t *testing.T, recipient uint, notifType string) int64 {
	t.Helper()
	n, err := e.notices.CountFor(recipient, notifType)
	require.NoError(t, err)
	return n
}

func requireKind(t *testing.T, err error, want domain.Kind) {
	t.Helper()
	require.Error(t, err)
	var de *domain.Error
	require.True(t, errors.As(err, &de), "expected domain error, got %v", err)
	require.Equal(t, want, de.Kind, de.Message)
}

func ptr[T any](v T) *T { return &v }
