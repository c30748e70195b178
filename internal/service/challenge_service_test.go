package service

import (
	"context"
	"math"
	"testing"
	"time"

	"fitcommunity/internal/domain"
	"fitcommunity/internal/models"
	"fitcommunity/internal/repository"
	"fitcommunity/pkg/location"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nyc = location.Point{Lat: 40.7128, Lng: -74.0060}

type challengeFixture struct {
	*env
	svc   *ChallengeService
	geo   *fakeGeocoder
	coach *models.User
}

func newChallengeFixture(t *testing.T) *challengeFixture {
	t.Helper()
	e := newEnv(t)
	geo := &fakeGeocoder{point: &nyc}
	svc := NewChallengeService(repository.NewChallengeRepository(e.db), geo, e.notify, 10)
	svc.now = fixedNow
	return &challengeFixture{env: e, svc: svc, geo: geo, coach: e.user(t, "coach", domain.RoleCoach)}
}

func (f *challengeFixture) create(t *testing.T, title string, mut func(in *ChallengeInput)) *ChallengeView {
	t.Helper()
	in := ChallengeInput{
		Title:       title,
		TargetValue: 100,
		Unit:        "km",
		StartDate:   t0.Add(-24 * time.Hour),
		EndDate:     t0.Add(7 * 24 * time.Hour),
	}
	if mut != nil {
		mut(&in)
	}
	v, err := f.svc.Create(context.Background(), f.coach.ID, in)
	require.NoError(t, err)
	return v
}

func titles(views []ChallengeView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.Title)
	}
	return out
}

func TestCreateGeocodesLocation(t *testing.T) {
	f := newChallengeFixture(t)
	v := f.create(t, "Central Park loop", func(in *ChallengeInput) { in.Location = "New York" })
	require.NotNil(t, v.Latitude)
	assert.InDelta(t, nyc.Lat, *v.Latitude, 1e-9)
	assert.Equal(t, 1, f.geo.calls)

	// explicit coordinates win over the text
	v = f.create(t, "Pinned", func(in *ChallengeInput) {
		in.Location = "New York"
		in.Latitude, in.Longitude = ptr(1.0), ptr(2.0)
	})
	assert.InDelta(t, 1.0, *v.Latitude, 1e-9)
	assert.Equal(t, 1, f.geo.calls)
}

func TestOnlyCoachesOwnChallenges(t *testing.T) {
	f := newChallengeFixture(t)
	v := f.create(t, "Mine", nil)
	other := f.user(t, "other-coach", domain.RoleCoach)

	_, err := f.svc.Update(context.Background(), other.ID, v.ID, ChallengeInput{Title: "Stolen"})
	requireKind(t, err, domain.KindForbidden)
	requireKind(t, f.svc.Delete(other.ID, v.ID), domain.KindForbidden)
}

func TestSearchLocationFailurePolicy(t *testing.T) {
	f := newChallengeFixture(t)
	f.create(t, "Near", func(in *ChallengeInput) { in.Latitude, in.Longitude = ptr(nyc.Lat), ptr(nyc.Lng) })
	ctx := context.Background()

	_, err := f.svc.Search(ctx, 0, SearchParams{Location: "New York", RadiusKm: ptr(-1.0)})
	requireKind(t, err, domain.KindInvalid)

	f.geo.point, f.geo.err = nil, domain.UpstreamUnavailable("geocoder", nil)
	_, err = f.svc.Search(ctx, 0, SearchParams{Location: "New York"})
	requireKind(t, err, domain.KindUpstreamUnavailable)

	f.geo.err = nil
	out, err := f.svc.Search(ctx, 0, SearchParams{Location: "Atlantis"})
	require.NoError(t, err)
	assert.Empty(t, out)

	f.geo.point = &nyc
	out, err = f.svc.Search(ctx, 0, SearchParams{Location: "New York"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].DistanceKm)
	assert.NotEmpty(t, out[0].Proximity)
}

func TestSearchFilters(t *testing.T) {
	f := newChallengeFixture(t)
	athlete := f.user(t, "athlete", domain.RoleUser)
	open := f.create(t, "Open", nil)
	f.create(t, "Adults", func(in *ChallengeInput) { in.MinAge, in.MaxAge = ptr(18), ptr(60) })
	f.create(t, "Over 21", func(in *ChallengeInput) { in.MinAge = ptr(21) })
	f.create(t, "Upcoming", func(in *ChallengeInput) {
		in.StartDate = t0.Add(48 * time.Hour)
		in.EndDate = t0.Add(96 * time.Hour)
	})
	_, err := f.svc.Join(athlete.ID, open.ID)
	require.NoError(t, err)
	ctx := context.Background()

	out, err := f.svc.Search(ctx, athlete.ID, SearchParams{MinAge: ptr(20), MaxAge: ptr(20)})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Open", "Adults", "Upcoming"}, titles(out))

	out, err = f.svc.Search(ctx, athlete.ID, SearchParams{IsActive: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Upcoming"}, titles(out))

	out, err = f.svc.Search(ctx, athlete.ID, SearchParams{Participating: ptr(true)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].IsParticipating)
	assert.EqualValues(t, 1, out[0].ParticipantCount)

	out, err = f.svc.Search(ctx, athlete.ID, SearchParams{Participating: ptr(false)})
	require.NoError(t, err)
	assert.Len(t, out, 3)
}

func TestJoinLeaveAndProgress(t *testing.T) {
	f := newChallengeFixture(t)
	athlete := f.user(t, "athlete", domain.RoleUser)
	c := f.create(t, "Hundred", nil)
	ctx := context.Background()

	_, err := f.svc.Join(athlete.ID, c.ID)
	require.NoError(t, err)
	_, err = f.svc.Join(athlete.ID, c.ID)
	requireKind(t, err, domain.KindConflict)

	res, err := f.svc.AddProgress(ctx, athlete.ID, c.ID, 70)
	require.NoError(t, err)
	assert.False(t, res.Finished)
	res, err = f.svc.AddProgress(ctx, athlete.ID, c.ID, 40)
	require.NoError(t, err)
	assert.True(t, res.Finished)
	first := *res.Participant.FinishDate
	res, err = f.svc.AddProgress(ctx, athlete.ID, c.ID, 5)
	require.NoError(t, err)
	assert.False(t, res.Finished)
	assert.True(t, first.Equal(*res.Participant.FinishDate))
	assert.EqualValues(t, 1, f.count(t, athlete.ID, domain.NotifyAchievement))

	board, err := f.svc.Leaderboard(athlete.ID, c.ID)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, 1, board[0].Rank)
	board, err = f.svc.Leaderboard(f.coach.ID, c.ID)
	require.NoError(t, err)
	assert.Len(t, board, 1)
	outsider := f.user(t, "outsider", domain.RoleUser)
	_, err = f.svc.Leaderboard(outsider.ID, c.ID)
	requireKind(t, err, domain.KindForbidden)

	require.NoError(t, f.svc.Leave(athlete.ID, c.ID))
	requireKind(t, f.svc.Leave(athlete.ID, c.ID), domain.KindNotFound)
}

func TestJoinEndedChallenge(t *testing.T) {
	f := newChallengeFixture(t)
	athlete := f.user(t, "athlete", domain.RoleUser)
	c := f.create(t, "Old", func(in *ChallengeInput) {
		in.StartDate = t0.Add(-72 * time.Hour)
		in.EndDate = t0.Add(-24 * time.Hour)
	})
	_, err := f.svc.Join(athlete.ID, c.ID)
	requireKind(t, err, domain.KindInvalid)
}

func TestDetailHidesParticipantsFromOutsiders(t *testing.T) {
	f := newChallengeFixture(t)
	athlete := f.user(t, "athlete", domain.RoleUser)
	outsider := f.user(t, "outsider", domain.RoleUser)
	c := f.create(t, "Private board", nil)
	_, err := f.svc.Join(athlete.ID, c.ID)
	require.NoError(t, err)

	v, err := f.svc.Detail(outsider.ID, c.ID)
	require.NoError(t, err)
	assert.Nil(t, v.Participants)

	v, err = f.svc.Detail(athlete.ID, c.ID)
	require.NoError(t, err)
	assert.Len(t, v.Participants, 1)

	v, err = f.svc.Detail(f.coach.ID, c.ID)
	require.NoError(t, err)
	assert.Len(t, v.Participants, 1)
}

func TestCheckEndedAnnouncesOnce(t *testing.T) {
	f := newChallengeFixture(t)
	athlete := f.user(t, "athlete", domain.RoleUser)
	c := f.create(t, "Week", nil)
	_, err := f.svc.Join(athlete.ID, c.ID)
	require.NoError(t, err)

	f.svc.now = func() time.Time { return t0.Add(8 * 24 * time.Hour) }
	n, err := f.svc.CheckEnded(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = f.svc.CheckEnded(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.EqualValues(t, 1, f.count(t, athlete.ID, domain.NotifyChallengeEnded))
	assert.EqualValues(t, 1, f.count(t, f.coach.ID, domain.NotifyChallengeEnded))
}

func TestNearbyValidatesCenterAndRadius(t *testing.T) {
	f := newChallengeFixture(t)
	f.create(t, "Central Park loop", func(in *ChallengeInput) { in.Latitude, in.Longitude = ptr(40.7812), ptr(-73.9665) })

	// zero falls back to the 10 km default
	got, err := f.svc.Nearby(f.coach.ID, nyc, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Central Park loop"}, titles(got))

	for _, c := range []struct {
		center location.Point
		radius float64
	}{
		{location.Point{Lat: 90.01, Lng: 0}, 5},
		{location.Point{Lat: 0, Lng: -180.5}, 5},
		{location.Point{Lat: math.NaN(), Lng: 0}, 5},
		{nyc, math.NaN()},
		{nyc, math.Inf(1)},
		{nyc, -1},
	} {
		_, err := f.svc.Nearby(f.coach.ID, c.center, c.radius)
		requireKind(t, err, domain.KindInvalid)
	}
}
