package repository

import (
	"fmt"
	"testing"
	"time"

	"fitcommunity/internal/database/dbtest"
	"fitcommunity/internal/domain"
	"fitcommunity/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var t0 = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func mkUser(t *testing.T, db *gorm.DB, name, role string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", Role: role}
	require.NoError(t, db.Create(u).Error)
	return u
}

// mkThread creates a forum (once per db) and a thread authored by authorID.
func mkThread(t *testing.T, db *gorm.DB, authorID uint) *models.Thread {
	t.Helper()
	var f models.Forum
	if err := db.First(&f).Error; err != nil {
		f = models.Forum{Title: "General", CreatedBy: authorID}
		require.NoError(t, db.Create(&f).Error)
	}
	th := &models.Thread{ForumID: f.ID, AuthorID: authorID, Title: "t", Content: "c", LastActivityAt: t0}
	require.NoError(t, db.Create(th).Error)
	return th
}

func mkChallenge(t *testing.T, db *gorm.DB, coachID uint, mut func(c *models.Challenge)) *models.Challenge {
	t.Helper()
	c := &models.Challenge{
		CoachID:     coachID,
		Title:       fmt.Sprintf("challenge-%d", time.Now().UnixNano()),
		TargetValue: 100,
		Unit:        "km",
		StartDate:   t0.Add(-24 * time.Hour),
		EndDate:     t0.Add(24 * time.Hour),
	}
	if mut != nil {
		mut(c)
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func newDB(t *testing.T) *gorm.DB {
	return dbtest.New(t)
}

func likeCount(t *testing.T, db *gorm.DB, ref domain.ContentRef) int64 {
	t.Helper()
	info, err := LookupContent(db, ref)
	require.NoError(t, err)
	return info.LikeCount
}
