// Package storetest holds the behaviour every core.PostStore has to satisfy.
package storetest

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nunc/internal/core"
)

// T0 is the creation time of the fixture posts.
var T0 = time.UnixMilli(1_700_000_000_000)

// NewPost builds a post created at T0 plus offset.
func NewPost(id string, boosts int64, offset time.Duration) core.Post {
	created := time.UnixMilli(T0.Add(offset).UnixMilli())
	return core.Post{
		ID:        id,
		Text:      "post " + id,
		Country:   "Ireland",
		Boosts:    boosts,
		CreatedAt: created,
		ExpiresAt: created.Add(core.PostTTL),
	}
}

// Run executes the store contract against stores produced by newStore. Every
// call to newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) core.PostStore) {
	t.Helper()

	t.Run("save and find", func(t *testing.T) {
		store := newStore(t)
		post := NewPost("a", 3, 0)
		post.Country = core.DefaultCountry

		require.NoError(t, store.Save(t.Context(), post))

		found, err := store.FindLive(t.Context(), "a", T0)
		require.NoError(t, err)
		requirePost(t, post, found)
	})

	t.Run("save rejects duplicate ids", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.Save(t.Context(), NewPost("a", 0, 0)))
		require.ErrorIs(t, store.Save(t.Context(), NewPost("a", 1, time.Second)), core.ErrConflict)
	})

	t.Run("find missing and expired posts", func(t *testing.T) {
		store := newStore(t)
		post := NewPost("a", 0, 0)
		require.NoError(t, store.Save(t.Context(), post))

		_, err := store.FindLive(t.Context(), "missing", T0)
		require.ErrorIs(t, err, core.ErrNotFound)

		_, err = store.FindLive(t.Context(), "a", post.ExpiresAt.Add(-time.Millisecond))
		require.NoError(t, err)

		_, err = store.FindLive(t.Context(), "a", post.ExpiresAt)
		require.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("list live posts in ranking order", func(t *testing.T) {
		store := newStore(t)
		posts := []core.Post{
			NewPost("old", 1, -2*time.Hour),
			NewPost("b", 5, 0),
			NewPost("a", 5, 0),
			NewPost("new", 5, time.Second),
			NewPost("expired", 100, -core.PostTTL-time.Hour),
		}
		for _, p := range posts {
			require.NoError(t, store.Save(t.Context(), p))
		}

		listed, err := store.ListLive(t.Context(), T0.Add(time.Minute), 0)
		require.NoError(t, err)
		core.SortPosts(listed)
		require.Equal(t, []string{"new", "a", "b", "old"}, ids(listed))

		limited, err := store.ListLive(t.Context(), T0.Add(time.Minute), 2)
		require.NoError(t, err)
		core.SortPosts(limited)
		require.Equal(t, []string{"new", "a"}, ids(limited))
	})

	t.Run("list empty store", func(t *testing.T) {
		store := newStore(t)

		listed, err := store.ListLive(t.Context(), T0, 0)
		require.NoError(t, err)
		require.Empty(t, listed)
	})

	t.Run("apply boost", func(t *testing.T) {
		store := newStore(t)
		post := NewPost("a", 2, 0)
		require.NoError(t, store.Save(t.Context(), post))

		boosted, err := store.ApplyBoost(t.Context(), "a", 5, T0)
		require.NoError(t, err)
		require.EqualValues(t, 7, boosted.Boosts)
		require.Equal(t, post.Text, boosted.Text)
		require.True(t, post.ExpiresAt.Equal(boosted.ExpiresAt))

		found, err := store.FindLive(t.Context(), "a", T0)
		require.NoError(t, err)
		require.EqualValues(t, 7, found.Boosts)
	})

	t.Run("apply boost to missing and expired posts", func(t *testing.T) {
		store := newStore(t)
		post := NewPost("a", 2, 0)
		require.NoError(t, store.Save(t.Context(), post))

		_, err := store.ApplyBoost(t.Context(), "missing", 1, T0)
		require.ErrorIs(t, err, core.ErrNotFound)

		_, err = store.ApplyBoost(t.Context(), "a", 1, post.ExpiresAt)
		require.ErrorIs(t, err, core.ErrNotFound)

		found, err := store.FindLive(t.Context(), "a", T0)
		require.NoError(t, err)
		require.EqualValues(t, 2, found.Boosts)
	})

	t.Run("concurrent boosts are not lost", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Save(t.Context(), NewPost("a", 0, 0)))
		require.NoError(t, store.Save(t.Context(), NewPost("b", 0, 0)))

		const n = 50
		var wg sync.WaitGroup
		errs := make(chan error, 2*n)
		for i := 0; i < n; i++ {
			for _, id := range []string{"a", "b"} {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := store.ApplyBoost(t.Context(), id, 1, T0)
					errs <- err
				}()
			}
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		for _, id := range []string{"a", "b"} {
			found, err := store.FindLive(t.Context(), id, T0)
			require.NoError(t, err)
			require.EqualValues(t, n, found.Boosts, fmt.Sprintf("post %s", id))
		}
	})

	t.Run("delete expired", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Save(t.Context(), NewPost("live", 0, time.Hour)))
		require.NoError(t, store.Save(t.Context(), NewPost("edge", 0, 0)))
		require.NoError(t, store.Save(t.Context(), NewPost("gone", 0, -time.Hour)))

		n, err := store.DeleteExpired(t.Context(), T0.Add(core.PostTTL))
		require.NoError(t, err)
		require.EqualValues(t, 2, n)

		listed, err := store.ListLive(t.Context(), T0, 0)
		require.NoError(t, err)
		require.Equal(t, []string{"live"}, ids(listed))

		n, err = store.DeleteExpired(t.Context(), T0.Add(core.PostTTL))
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("health check", func(t *testing.T) {
		require.NoError(t, newStore(t).HealthCheck(t.Context()))
	})
}

func ids(posts []core.Post) []string {
	res := make([]string, 0, len(posts))
	for _, p := range posts {
		res = append(res, p.ID)
	}
	return res
}

func requirePost(t *testing.T, want, got core.Post) {
	t.Helper()

	require.Equal(t, want.ID, got.ID)
	require.Equal(t, want.Text, got.Text)
	require.Equal(t, want.Country, got.Country)
	require.Equal(t, want.Boosts, got.Boosts)
	require.True(t, want.CreatedAt.Equal(got.CreatedAt), "createdAt %s != %s", want.CreatedAt, got.CreatedAt)
	require.True(t, want.ExpiresAt.Equal(got.ExpiresAt), "expiresAt %s != %s", want.ExpiresAt, got.ExpiresAt)
}
