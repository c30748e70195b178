package service

import (
	"context"
	"testing"
	"time"

	"fitcommunity/internal/domain"
	"fitcommunity/internal/models"
	"fitcommunity/internal/repository"
	"fitcommunity/internal/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSuggester struct {
	profile string
}

func (f *fakeSuggester) SuggestGoals(_ context.Context, profile string) ([]upstream.GoalSuggestion, error) {
	f.profile = profile
	return []upstream.GoalSuggestion{{Title: "Run 5k", TargetValue: 5, Unit: "km", DurationDays: 30}}, nil
}

type goalFixture struct {
	*env
	goals   *GoalService
	mentors *MentorService
	coach   *models.User
	athlete *models.User
}

func newGoalFixture(t *testing.T) *goalFixture {
	t.Helper()
	e := newEnv(t)
	mentorRepo := repository.NewMentorRepository(e.db)
	f := &goalFixture{
		env:     e,
		goals:   NewGoalService(repository.NewGoalRepository(e.db), mentorRepo, e.users, e.notify, &fakeSuggester{}),
		mentors: NewMentorService(mentorRepo, e.users, e.notify),
		coach:   e.user(t, "coach", domain.RoleCoach),
		athlete: e.user(t, "athlete", domain.RoleUser),
	}
	f.goals.now = fixedNow
	f.mentors.now = fixedNow
	return f
}

func (f *goalFixture) accept(t *testing.T) {
	t.Helper()
	m, err := f.mentors.Request(context.Background(), f.athlete.ID, f.coach.ID)
	require.NoError(t, err)
	_, err = f.mentors.Accept(context.Background(), f.coach.ID, m.ID)
	require.NoError(t, err)
}

func goalInput(target float64) GoalInput {
	return GoalInput{Title: "Squat", GoalType: "strength", TargetValue: target, Unit: "kg", TargetDate: t0.Add(30 * 24 * time.Hour)}
}

func TestMentorGateOnAssignedGoals(t *testing.T) {
	f := newGoalFixture(t)
	ctx := context.Background()

	_, err := f.goals.Create(ctx, f.coach.ID, f.athlete.ID, goalInput(100))
	requireKind(t, err, domain.KindForbidden)

	f.accept(t)
	g, err := f.goals.Create(ctx, f.coach.ID, f.athlete.ID, goalInput(100))
	require.NoError(t, err)
	require.NotNil(t, g.MentorID)
	assert.Equal(t, f.coach.ID, *g.MentorID)
	assert.Equal(t, f.athlete.ID, g.UserID)
	assert.EqualValues(t, 1, f.count(t, f.athlete.ID, domain.NotifyGoalAssigned))

	// the mentor can read it, a stranger cannot
	_, err = f.goals.Get(f.coach.ID, g.ID)
	require.NoError(t, err)
	stranger := f.user(t, "stranger", domain.RoleUser)
	_, err = f.goals.Get(stranger.ID, g.ID)
	require.Error(t, err)
}

func TestGoalCompletionNotifiesOnce(t *testing.T) {
	f := newGoalFixture(t)
	f.accept(t)
	ctx := context.Background()
	g, err := f.goals.Create(ctx, f.coach.ID, f.athlete.ID, goalInput(100))
	require.NoError(t, err)

	v, err := f.goals.AddProgress(ctx, f.athlete.ID, g.ID, 60)
	require.NoError(t, err)
	assert.Equal(t, domain.GoalStatusActive, v.Status)
	assert.InDelta(t, 60, v.ProgressPercentage, 0.001)

	v, err = f.goals.AddProgress(ctx, f.athlete.ID, g.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, domain.GoalStatusCompleted, v.Status)
	assert.InDelta(t, 100, v.ProgressPercentage, 0.001)
	require.NotNil(t, v.CompletedAt)

	_, err = f.goals.AddProgress(ctx, f.athlete.ID, g.ID, 10)
	require.NoError(t, err)

	assert.EqualValues(t, 1, f.count(t, f.athlete.ID, domain.NotifyAchievement))
	assert.EqualValues(t, 1, f.count(t, f.coach.ID, domain.NotifyAchievement))
}

func TestGoalProgressOwnerOnly(t *testing.T) {
	f := newGoalFixture(t)
	g, err := f.goals.Create(context.Background(), f.athlete.ID, 0, goalInput(10))
	require.NoError(t, err)

	_, err = f.goals.AddProgress(context.Background(), f.coach.ID, g.ID, 1)
	requireKind(t, err, domain.KindForbidden)
	_, err = f.goals.AddProgress(context.Background(), f.athlete.ID, g.ID, -1)
	requireKind(t, err, domain.KindValidation)
}

func TestCheckInactiveNotifiesOnce(t *testing.T) {
	f := newGoalFixture(t)
	f.accept(t)
	ctx := context.Background()
	in := goalInput(100)
	in.StartDate = ptr(t0.Add(-10 * 24 * time.Hour))
	in.TargetDate = t0.Add(-24 * time.Hour)
	_, err := f.goals.Create(ctx, f.coach.ID, f.athlete.ID, in)
	require.NoError(t, err)

	n, err := f.goals.CheckInactive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = f.goals.CheckInactive(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.EqualValues(t, 1, f.count(t, f.athlete.ID, domain.NotifyGoalDeadline))
	assert.EqualValues(t, 1, f.count(t, f.coach.ID, domain.NotifyGoalDeadline))

	list, err := f.goals.List(f.athlete.ID, f.athlete.ID, domain.GoalStatusInactive)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGoalValidation(t *testing.T) {
	f := newGoalFixture(t)
	_, err := f.goals.Create(context.Background(), f.athlete.ID, 0, GoalInput{TargetDate: t0.Add(-time.Hour)})
	requireKind(t, err, domain.KindValidation)
}

func TestSuggestDescribesProfile(t *testing.T) {
	f := newGoalFixture(t)
	sugg := &fakeSuggester{}
	f.goals.suggester = sugg
	require.NoError(t, f.users.UpdateFields(f.athlete.ID, map[string]interface{}{"weight_kg": 80.0}))

	out, err := f.goals.Suggest(context.Background(), f.athlete.ID, "endurance")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Contains(t, sugg.profile, "endurance")
}

func TestUpdateToCompletedStampsCompletedAt(t *testing.T) {
	f := newGoalFixture(t)
	ctx := context.Background()
	g, err := f.goals.Create(ctx, f.athlete.ID, 0, goalInput(100))
	require.NoError(t, err)

	in := goalInput(100)
	in.Status = domain.GoalStatusCompleted
	v, err := f.goals.Update(ctx, f.athlete.ID, g.ID, in)
	require.NoError(t, err)
	require.NotNil(t, v.CompletedAt)
	assert.True(t, t0.Equal(*v.CompletedAt))

	stored, err := f.goals.Get(f.athlete.ID, g.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CompletedAt)

	in.Status = domain.GoalStatusActive
	v, err = f.goals.Update(ctx, f.athlete.ID, g.ID, in)
	require.NoError(t, err)
	assert.Nil(t, v.CompletedAt)
}

func TestUpdateLoweringTargetCompletesGoal(t *testing.T) {
	f := newGoalFixture(t)
	f.accept(t)
	ctx := context.Background()
	g, err := f.goals.Create(ctx, f.coach.ID, f.athlete.ID, goalInput(100))
	require.NoError(t, err)
	_, err = f.goals.AddProgress(ctx, f.athlete.ID, g.ID, 60)
	require.NoError(t, err)

	v, err := f.goals.Update(ctx, f.athlete.ID, g.ID, goalInput(50))
	require.NoError(t, err)
	assert.Equal(t, domain.GoalStatusCompleted, v.Status)
	require.NotNil(t, v.CompletedAt)
	assert.InDelta(t, 60, v.CurrentValue, 0.001)

	// a second edit finds nothing left to complete
	_, err = f.goals.Update(ctx, f.athlete.ID, g.ID, goalInput(40))
	require.NoError(t, err)

	assert.EqualValues(t, 1, f.count(t, f.athlete.ID, domain.NotifyAchievement))
	assert.EqualValues(t, 1, f.count(t, f.coach.ID, domain.NotifyAchievement))
}

func TestAssignedListsCurrentMenteesOnly(t *testing.T) {
	f := newGoalFixture(t)
	f.accept(t)
	ctx := context.Background()
	_, err := f.goals.Create(ctx, f.coach.ID, f.athlete.ID, goalInput(100))
	require.NoError(t, err)
	_, err = f.goals.Create(ctx, f.athlete.ID, 0, goalInput(10))
	require.NoError(t, err)

	list, err := f.goals.Assigned(f.coach.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, f.athlete.ID, list[0].UserID)

	// ending the mentorship hides the old assignments
	require.NoError(t, f.db.Model(&models.MentorRelationship{}).
		Where("mentor_id = ?", f.coach.ID).Update("status", domain.MentorStatusTerminated).Error)
	list, err = f.goals.Assigned(f.coach.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
