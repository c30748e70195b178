package service

import (
	"context"
	"testing"

	"fitcommunity/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMentorLifecycle(t *testing.T) {
	f := newGoalFixture(t)
	ctx := context.Background()

	m, err := f.mentors.Request(ctx, f.coach.ID, f.athlete.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MentorStatusPending, m.Status)
	assert.Equal(t, f.coach.ID, m.MentorID)
	assert.EqualValues(t, 1, f.count(t, f.athlete.ID, domain.NotifyMentorRequest))

	_, err = f.mentors.Request(ctx, f.athlete.ID, f.coach.ID)
	requireKind(t, err, domain.KindConflict)

	// the requester cannot accept their own request
	_, err = f.mentors.Accept(ctx, f.coach.ID, m.ID)
	requireKind(t, err, domain.KindForbidden)

	m, err = f.mentors.Accept(ctx, f.athlete.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MentorStatusAccepted, m.Status)
	assert.EqualValues(t, 1, f.count(t, f.coach.ID, domain.NotifyMentorAccepted))

	mentors, err := f.mentors.Mentors(f.athlete.ID)
	require.NoError(t, err)
	assert.Len(t, mentors, 1)

	_, err = f.mentors.Reject(f.athlete.ID, m.ID)
	requireKind(t, err, domain.KindConflict)

	m, err = f.mentors.Terminate(f.athlete.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MentorStatusTerminated, m.Status)

	// a terminated pair can be reopened
	m, err = f.mentors.Request(ctx, f.athlete.ID, f.coach.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MentorStatusPending, m.Status)
	assert.Equal(t, f.athlete.ID, m.RequestedBy)

	pending, err := f.mentors.Pending(f.coach.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestMentorRequestNeedsOneCoach(t *testing.T) {
	f := newGoalFixture(t)
	other := f.user(t, "other", domain.RoleUser)
	coach2 := f.user(t, "coach2", domain.RoleCoach)

	_, err := f.mentors.Request(context.Background(), f.athlete.ID, other.ID)
	requireKind(t, err, domain.KindInvalid)
	_, err = f.mentors.Request(context.Background(), f.coach.ID, coach2.ID)
	requireKind(t, err, domain.KindInvalid)
	_, err = f.mentors.Request(context.Background(), f.coach.ID, f.coach.ID)
	requireKind(t, err, domain.KindInvalid)
	_, err = f.mentors.Request(context.Background(), f.coach.ID, 9999)
	requireKind(t, err, domain.KindNotFound)
}

func TestStrangerCannotSeeMentorship(t *testing.T) {
	f := newGoalFixture(t)
	m, err := f.mentors.Request(context.Background(), f.coach.ID, f.athlete.ID)
	require.NoError(t, err)
	stranger := f.user(t, "stranger", domain.RoleUser)

	_, err = f.mentors.Accept(context.Background(), stranger.ID, m.ID)
	requireKind(t, err, domain.KindNotFound)
	_, err = f.mentors.Terminate(stranger.ID, m.ID)
	requireKind(t, err, domain.KindNotFound)
}
