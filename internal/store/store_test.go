package store

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"rupl/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("id-%d", n.Add(1)) }
}

func TestTx_NowIsStrictlyIncreasing(t *testing.T) {
	t.Parallel()

	s := New(WithClock(fixedClock(1000)))

	var stamps []int64
	require.NoError(t, s.Update(func(tx *Tx) error {
		for range 3 {
			stamps = append(stamps, tx.Now())
		}
		return nil
	}))

	assert.Equal(t, []int64{1000, 1001, 1002}, stamps)
}

func TestTx_NowSurvivesClockGoingBack(t *testing.T) {
	t.Parallel()

	wall := int64(5000)
	s := New(WithClock(func() time.Time { return time.UnixMilli(wall) }))

	var first, second int64
	require.NoError(t, s.Update(func(tx *Tx) error {
		first = tx.Now()
		return nil
	}))
	wall = 10
	require.NoError(t, s.Update(func(tx *Tx) error {
		second = tx.Now()
		return nil
	}))

	assert.Greater(t, second, first)
}

func TestStore_PrependPostKeepsMostRecentFirst(t *testing.T) {
	t.Parallel()

	s := New(WithIDGenerator(sequentialIDs()))
	require.NoError(t, s.Update(func(tx *Tx) error {
		tx.PrependPost(models.Post{ID: tx.NewID()})
		tx.PrependPost(models.Post{ID: tx.NewID()})
		return nil
	}))

	require.NoError(t, s.View(func(tx *Tx) error {
		posts := tx.Posts()
		require.Len(t, posts, 2)
		assert.Equal(t, "id-2", posts[0].ID)
		assert.Equal(t, "id-1", posts[1].ID)
		return nil
	}))
}

func TestStore_UserByEmailReturnsFirstMatch(t *testing.T) {
	t.Parallel()

	s := New()
	require.NoError(t, s.Update(func(tx *Tx) error {
		tx.AppendUser(models.User{ID: "a", Email: "dup@example.com"})
		tx.AppendUser(models.User{ID: "b", Email: "dup@example.com"})
		return nil
	}))

	require.NoError(t, s.View(func(tx *Tx) error {
		u, ok := tx.UserByEmail("dup@example.com")
		require.True(t, ok)
		assert.Equal(t, "a", u.ID)
		_, ok = tx.UserByEmail("DUP@example.com")
		assert.False(t, ok)
		return nil
	}))
}

func TestStore_HooksRunOnlyAfterSuccessfulUpdate(t *testing.T) {
	t.Parallel()

	s := New()
	var calls atomic.Int32
	s.OnCommit(func() { calls.Add(1) })

	require.NoError(t, s.Update(func(tx *Tx) error {
		tx.SetCurrentUserID("1")
		return nil
	}))
	failErr := errors.New("rejected")
	err := s.Update(func(*Tx) error { return failErr })
	require.ErrorIs(t, err, failErr)
	require.NoError(t, s.View(func(*Tx) error { return nil }))

	assert.Equal(t, int32(1), calls.Load())
}

func TestStore_MutationInsideViewPanics(t *testing.T) {
	t.Parallel()

	s := New()
	assert.Panics(t, func() {
		_ = s.View(func(tx *Tx) error {
			tx.SetCurrentUserID("1")
			return nil
		})
	})
}

func TestStore_SnapshotIsDetached(t *testing.T) {
	t.Parallel()

	s := New()
	require.NoError(t, s.Update(func(tx *Tx) error {
		tx.AppendUser(models.User{ID: "1", Saved: []string{}})
		tx.PrependPost(models.Post{ID: "p", Likes: []string{}})
		tx.SetCredential("1", "secret")
		tx.SetCurrentUserID("1")
		return nil
	}))

	snap := s.Snapshot()
	snap.Users[0].Saved = append(snap.Users[0].Saved, "p")
	snap.Posts[0].Likes = append(snap.Posts[0].Likes, "1")
	snap.Credentials["1"] = "changed"

	require.NoError(t, s.View(func(tx *Tx) error {
		u, _ := tx.UserByID("1")
		p, _ := tx.PostByID("p")
		c, _ := tx.Credential("1")
		assert.Empty(t, u.Saved)
		assert.Empty(t, p.Likes)
		assert.Equal(t, "secret", c)
		assert.Equal(t, "1", tx.CurrentUserID())
		return nil
	}))
}

func TestStore_RestoreAdvancesClock(t *testing.T) {
	t.Parallel()

	s := New(WithClock(fixedClock(100)))
	s.Restore(&models.Snapshot{
		Posts: []models.Post{{
			ID:        "p",
			CreatedAt: 500,
			Comments:  []models.Comment{{ID: "c", CreatedAt: 900}},
		}},
	})

	var ts int64
	require.NoError(t, s.Update(func(tx *Tx) error {
		ts = tx.Now()
		return nil
	}))
	assert.Equal(t, int64(901), ts)

	s.Restore(nil)
	assert.Empty(t, s.Snapshot().Posts)
}

func TestStore_ConcurrentUpdatesAreSerialized(t *testing.T) {
	t.Parallel()

	s := New()
	require.NoError(t, s.Update(func(tx *Tx) error {
		tx.PrependPost(models.Post{ID: "p"})
		return nil
	}))

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(uid string) {
			defer wg.Done()
			_ = s.Update(func(tx *Tx) error {
				p, _ := tx.PostByID("p")
				p.ToggleLike(uid)
				return nil
			})
		}(fmt.Sprintf("u%d", i))
	}
	wg.Wait()

	require.NoError(t, s.View(func(tx *Tx) error {
		p, _ := tx.PostByID("p")
		assert.Len(t, p.Likes, 50)
		return nil
	}))
}
