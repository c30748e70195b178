package repository

import (
	"testing"
	"time"

	"fitcommunity/internal/domain"
	"fitcommunity/internal/models"
	"fitcommunity/pkg/location"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titles(hits []ChallengeHit) []string {
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.Challenge.Title)
	}
	return out
}

func TestSearchAgeBandCompatibility(t *testing.T) {
	db := newDB(t)
	coach := mkUser(t, db, "coach", domain.RoleCoach)
	mkChallenge(t, db, coach.ID, func(c *models.Challenge) { c.Title = "band"; c.MinAge = ptr(18); c.MaxAge = ptr(60) })
	mkChallenge(t, db, coach.ID, func(c *models.Challenge) { c.Title = "older"; c.MinAge = ptr(21) })
	mkChallenge(t, db, coach.ID, func(c *models.Challenge) { c.Title = "open" })
	repo := NewChallengeRepository(db)

	hits, err := repo.Search(ChallengeFilter{Now: t0, MinAge: ptr(20), MaxAge: ptr(20)})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"band", "open"}, titles(hits))

	hits, err = repo.Search(ChallengeFilter{Now: t0})
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestSearchActivePartition(t *testing.T) {
	db := newDB(t)
	coach := mkUser(t, db, "coach", domain.RoleCoach)
	mkChallenge(t, db, coach.ID, func(c *models.Challenge) { c.Title = "running" })
	mkChallenge(t, db, coach.ID, func(c *models.Challenge) {
		c.Title = "future"
		c.StartDate = t0.Add(48 * time.Hour)
		c.EndDate = t0.Add(96 * time.Hour)
	})
	mkChallenge(t, db, coach.ID, func(c *models.Challenge) {
		c.Title = "past"
		c.StartDate = t0.Add(-96 * time.Hour)
		c.EndDate = t0.Add(-48 * time.Hour)
	})
	repo := NewChallengeRepository(db)

	hits, err := repo.Search(ChallengeFilter{Now: t0, IsActive: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, []string{"running"}, titles(hits))

	hits, err = repo.Search(ChallengeFilter{Now: t0, IsActive: ptr(false)})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"future", "past"}, titles(hits))
}

func TestSearchParticipation(t *testing.T) {
	db := newDB(t)
	coach := mkUser(t, db, "coach", domain.RoleCoach)
	user := mkUser(t, db, "user", domain.RoleUser)
	joined := mkChallenge(t, db, coach.ID, func(c *models.Challenge) { c.Title = "joined" })
	mkChallenge(t, db, coach.ID, func(c *models.Challenge) { c.Title = "other" })
	repo := NewChallengeRepository(db)
	require.NoError(t, repo.AddParticipant(&models.ChallengeParticipant{ChallengeID: joined.ID, UserID: user.ID}))

	hits, err := repo.Search(ChallengeFilter{Now: t0, UserID: user.ID, Participating: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, []string{"joined"}, titles(hits))

	hits, err = repo.Search(ChallengeFilter{Now: t0, UserID: user.ID, Participating: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, titles(hits))
}

func TestSearchByDistance(t *testing.T) {
	db := newDB(t)
	coach := mkUser(t, db, "coach", domain.RoleCoach)
	center := location.Point{Lat: 40.7128, Lng: -74.0060}
	at := func(title string, lat, lng float64) {
		mkChallenge(t, db, coach.ID, func(c *models.Challenge) { c.Title = title; c.Latitude = ptr(lat); c.Longitude = ptr(lng) })
	}
	at("here", 40.7130, -74.0062)
	at("brooklyn", 40.6782, -73.9442) // ~6.5 km
	at("philly", 39.9526, -75.1652)   // ~130 km
	// inside the box corner but outside the circle
	box := location.BoundingBox(center, 10)
	at("corner", box.MaxLat-0.001, box.MaxLng-0.001)
	mkChallenge(t, db, coach.ID, func(c *models.Challenge) { c.Title = "nowhere" })
	repo := NewChallengeRepository(db)

	hits, err := repo.Search(ChallengeFilter{Now: t0, Center: &center, RadiusKm: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"here", "brooklyn"}, titles(hits))
	for _, h := range hits {
		require.NotNil(t, h.DistanceKm)
		assert.LessOrEqual(t, *h.DistanceKm, 10.0)
	}

	hits, err = repo.Search(ChallengeFilter{Now: t0, Center: &center, RadiusKm: 200})
	require.NoError(t, err)
	assert.Equal(t, []string{"here", "brooklyn", "corner", "philly"}, titles(hits))
}

func TestSearchByDistanceDueEastAtMidLatitude(t *testing.T) {
	db := newDB(t)
	coach := mkUser(t, db, "coach", domain.RoleCoach)
	center := location.Point{Lat: 41.0082, Lng: 28.9784}
	mkChallenge(t, db, coach.ID, func(c *models.Challenge) { c.Title = "east"; c.Latitude = ptr(41.0082); c.Longitude = ptr(29.0854) })
	mkChallenge(t, db, coach.ID, func(c *models.Challenge) { c.Title = "west"; c.Latitude = ptr(41.0082); c.Longitude = ptr(28.8714) })
	mkChallenge(t, db, coach.ID, func(c *models.Challenge) { c.Title = "far east"; c.Latitude = ptr(41.0082); c.Longitude = ptr(29.1400) })
	repo := NewChallengeRepository(db)

	hits, err := repo.Search(ChallengeFilter{Now: t0, Center: &center, RadiusKm: 10})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"east", "west"}, titles(hits))
}

func TestSearchByDistanceAcrossAntimeridian(t *testing.T) {
	db := newDB(t)
	coach := mkUser(t, db, "coach", domain.RoleCoach)
	center := location.Point{Lat: -16.8, Lng: 179.98}
	mkChallenge(t, db, coach.ID, func(c *models.Challenge) { c.Title = "over the line"; c.Latitude = ptr(-16.8); c.Longitude = ptr(-179.97) })
	mkChallenge(t, db, coach.ID, func(c *models.Challenge) { c.Title = "same side"; c.Latitude = ptr(-16.8); c.Longitude = ptr(179.93) })
	mkChallenge(t, db, coach.ID, func(c *models.Challenge) { c.Title = "greenwich"; c.Latitude = ptr(-16.8); c.Longitude = ptr(0.0) })
	repo := NewChallengeRepository(db)

	hits, err := repo.Search(ChallengeFilter{Now: t0, Center: &center, RadiusKm: 15})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"over the line", "same side"}, titles(hits))
}

func TestAddProgressSetsFinishDateOnce(t *testing.T) {
	db := newDB(t)
	coach := mkUser(t, db, "coach", domain.RoleCoach)
	user := mkUser(t, db, "user", domain.RoleUser)
	c := mkChallenge(t, db, coach.ID, nil)
	repo := NewChallengeRepository(db)
	require.NoError(t, repo.AddParticipant(&models.ChallengeParticipant{ChallengeID: c.ID, UserID: user.ID}))

	p, finished, err := repo.AddProgress(c.ID, user.ID, 60, c.TargetValue, t0)
	require.NoError(t, err)
	assert.False(t, finished)
	assert.Nil(t, p.FinishDate)

	p, finished, err = repo.AddProgress(c.ID, user.ID, 40, c.TargetValue, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, finished)
	require.NotNil(t, p.FinishDate)
	first := *p.FinishDate

	p, finished, err = repo.AddProgress(c.ID, user.ID, 5, c.TargetValue, t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, finished)
	assert.True(t, first.Equal(*p.FinishDate))
	assert.Equal(t, 105.0, p.CurrentValue)
}

func TestClaimEndedOnce(t *testing.T) {
	db := newDB(t)
	coach := mkUser(t, db, "coach", domain.RoleCoach)
	mkChallenge(t, db, coach.ID, func(c *models.Challenge) {
		c.Title = "done"
		c.StartDate = t0.Add(-96 * time.Hour)
		c.EndDate = t0.Add(-time.Hour)
	})
	mkChallenge(t, db, coach.ID, func(c *models.Challenge) { c.Title = "running" })
	repo := NewChallengeRepository(db)

	claimed, err := repo.ClaimEnded(t0)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, "done", claimed[0].Title)

	claimed, err = repo.ClaimEnded(t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, claimed)
}
