package repository

import (
	"errors"
	"sync"
	"testing"

	"fitcommunity/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func assertLikesMatchVotes(t *testing.T, repo *VoteRepository, ref domain.ContentRef) {
	t.Helper()
	n, err := repo.CountUpvotes(ref)
	require.NoError(t, err)
	assert.Equal(t, n, likeCount(t, repo.db, ref), "like_count drifted from UPVOTE rows for %s", ref)
}

func TestCastVoteTransitions(t *testing.T) {
	db := newDB(t)
	author := mkUser(t, db, "author", domain.RoleUser)
	voter := mkUser(t, db, "voter", domain.RoleUser)
	th := mkThread(t, db, author.ID)
	ref := domain.ContentRef{Type: domain.ContentThread, ID: th.ID}
	repo := NewVoteRepository(db)

	res, err := repo.Cast(voter.ID, ref, domain.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, "", res.Previous)
	assert.Equal(t, 1, res.Delta)
	assert.True(t, res.BecameUpvote())
	assert.Equal(t, author.ID, res.Content.AuthorID)
	assertLikesMatchVotes(t, repo, ref)
	assert.EqualValues(t, 1, likeCount(t, db, ref))

	// same vote again is a no-op
	res, err = repo.Cast(voter.ID, ref, domain.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Delta)
	assert.False(t, res.BecameUpvote())
	assert.EqualValues(t, 1, likeCount(t, db, ref))

	res, err = repo.Cast(voter.ID, ref, domain.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, domain.VoteUp, res.Previous)
	assert.Equal(t, -1, res.Delta)
	assert.EqualValues(t, 0, likeCount(t, db, ref))
	assertLikesMatchVotes(t, repo, ref)

	var rows int64
	require.NoError(t, db.Table("votes").Where("user_id = ?", voter.ID).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)

	res, err = repo.Cast(voter.ID, ref, domain.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Delta)
	assert.True(t, res.BecameUpvote())
	assertLikesMatchVotes(t, repo, ref)
}

func TestDownvoteDoesNotCountAsLike(t *testing.T) {
	db := newDB(t)
	author := mkUser(t, db, "author", domain.RoleUser)
	th := mkThread(t, db, author.ID)
	ref := domain.ContentRef{Type: domain.ContentThread, ID: th.ID}
	repo := NewVoteRepository(db)

	res, err := repo.Cast(author.ID, ref, domain.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Delta)
	assert.EqualValues(t, 0, likeCount(t, db, ref))

	rm, err := repo.Remove(author.ID, ref)
	require.NoError(t, err)
	assert.Equal(t, 0, rm.Delta)
	assert.EqualValues(t, 0, likeCount(t, db, ref))
}

func TestRemoveVote(t *testing.T) {
	db := newDB(t)
	author := mkUser(t, db, "author", domain.RoleUser)
	voter := mkUser(t, db, "voter", domain.RoleUser)
	th := mkThread(t, db, author.ID)
	ref := domain.ContentRef{Type: domain.ContentThread, ID: th.ID}
	repo := NewVoteRepository(db)

	_, err := repo.Remove(voter.ID, ref)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.EqualValues(t, 0, likeCount(t, db, ref))

	_, err = repo.Cast(voter.ID, ref, domain.VoteUp)
	require.NoError(t, err)
	_, err = repo.Cast(author.ID, ref, domain.VoteUp)
	require.NoError(t, err)
	assert.EqualValues(t, 2, likeCount(t, db, ref))

	res, err := repo.Remove(voter.ID, ref)
	require.NoError(t, err)
	assert.Equal(t, -1, res.Delta)
	assert.EqualValues(t, 1, res.Content.LikeCount)
	assertLikesMatchVotes(t, repo, ref)

	// removing twice leaves like_count alone
	_, err = repo.Remove(voter.ID, ref)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.EqualValues(t, 1, likeCount(t, db, ref))
}

func TestVoteOnMissingContent(t *testing.T) {
	db := newDB(t)
	u := mkUser(t, db, "u", domain.RoleUser)
	_, err := NewVoteRepository(db).Cast(u.ID, domain.ContentRef{Type: domain.ContentComment, ID: 999}, domain.VoteUp)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestConcurrentVotersKeepCountExact(t *testing.T) {
	db := newDB(t)
	author := mkUser(t, db, "author", domain.RoleUser)
	th := mkThread(t, db, author.ID)
	ref := domain.ContentRef{Type: domain.ContentThread, ID: th.ID}
	repo := NewVoteRepository(db)

	const voters = 8
	ids := make([]uint, voters)
	for i := range ids {
		ids[i] = mkUser(t, db, "v"+string(rune('a'+i)), domain.RoleUser).ID
	}
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			_, err := repo.Cast(id, ref, domain.VoteUp)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()
	assert.EqualValues(t, voters, likeCount(t, db, ref))
	assertLikesMatchVotes(t, repo, ref)
}

func TestReconcileRepairsDrift(t *testing.T) {
	db := newDB(t)
	author := mkUser(t, db, "author", domain.RoleUser)
	voter := mkUser(t, db, "voter", domain.RoleUser)
	th := mkThread(t, db, author.ID)
	ref := domain.ContentRef{Type: domain.ContentThread, ID: th.ID}
	_, err := NewVoteRepository(db).Cast(voter.ID, ref, domain.VoteUp)
	require.NoError(t, err)

	require.NoError(t, db.Exec("UPDATE threads SET like_count = 7, comment_count = 3 WHERE id = ?", th.ID).Error)

	repairs, err := NewCounterRepository(db).Reconcile()
	require.NoError(t, err)
	fixed := map[string]int64{}
	for _, r := range repairs {
		fixed[r.Table+"."+r.Column] = r.Fixed
	}
	assert.EqualValues(t, 1, fixed["threads.like_count"])
	assert.EqualValues(t, 1, fixed["threads.comment_count"])
	assert.EqualValues(t, 0, fixed["comments.like_count"])

	var got struct{ LikeCount, CommentCount int64 }
	require.NoError(t, db.Table("threads").Select("like_count, comment_count").Where("id = ?", th.ID).Scan(&got).Error)
	assert.EqualValues(t, 1, got.LikeCount)
	assert.EqualValues(t, 0, got.CommentCount)
}
