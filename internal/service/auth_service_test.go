package service

import (
	"testing"

	"fitcommunity/config"
	"fitcommunity/internal/auth"
	"fitcommunity/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuth(t *testing.T) (*env, *AuthService) {
	t.Helper()
	e := newEnv(t)
	return e, NewAuthService(config.Default(), e.users)
}

func TestRegisterLoginRefresh(t *testing.T) {
	_, svc := newAuth(t)

	u, pair, err := svc.Register(RegisterInput{Email: " Ann@Example.com ", Username: "ann", Password: "password1", Role: domain.RoleCoach})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.NotEmpty(t, pair.AccessToken)

	claims, err := auth.ParseAccessToken(&config.Default().JWT, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, domain.RoleCoach, claims.Role)

	_, _, err = svc.Login("ANN@example.com", "password1")
	require.NoError(t, err)
	_, _, err = svc.Login("ann@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCreds)

	next, err := svc.Refresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, next.AccessToken)
	_, err = svc.Refresh(pair.AccessToken)
	requireKind(t, err, domain.KindUnauthenticated)
}

func TestRegisterConflictsAndRoles(t *testing.T) {
	_, svc := newAuth(t)
	_, _, err := svc.Register(RegisterInput{Email: "a@example.com", Username: "ann", Password: "password1"})
	require.NoError(t, err)

	_, _, err = svc.Register(RegisterInput{Email: "a@example.com", Username: "other", Password: "password1"})
	assert.ErrorIs(t, err, ErrEmailExists)
	_, _, err = svc.Register(RegisterInput{Email: "b@example.com", Username: "ann", Password: "password1"})
	assert.ErrorIs(t, err, ErrUsernameExists)
	_, _, err = svc.Register(RegisterInput{Email: "c@example.com", Username: "boss", Password: "password1", Role: domain.RoleAdmin})
	requireKind(t, err, domain.KindInvalid)
}

func TestGoogleLinksExistingAccount(t *testing.T) {
	_, svc := newAuth(t)
	orig, _, err := svc.Register(RegisterInput{Email: "ann@example.com", Username: "ann", Password: "password1"})
	require.NoError(t, err)

	u, _, isNew, err := svc.LoginWithGoogle("g-1", "Ann@example.com", "Ann Lee", "https://img")
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, orig.ID, u.ID)

	fresh, _, isNew, err := svc.LoginWithGoogle("g-2", "ann@other.org", "Ann Other", "")
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, "ann1", fresh.Username)
	assert.Equal(t, "Ann", fresh.FirstName)
}

func TestChangePassword(t *testing.T) {
	_, svc := newAuth(t)
	u, _, err := svc.Register(RegisterInput{Email: "a@example.com", Username: "ann", Password: "password1"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ChangePassword(u.ID, "nope", "password2"), ErrInvalidCreds)
	require.NoError(t, svc.ChangePassword(u.ID, "password1", "password2"))
	_, _, err = svc.Login("a@example.com", "password2")
	require.NoError(t, err)
}
