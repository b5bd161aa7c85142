package ledgerclient_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"resty.dev/v3"

	"nunc/internal/api"
	"nunc/internal/ledger"
	"nunc/internal/persistence/memory"
	"nunc/pkg/ledgerclient"
)

type server struct {
	clock  *clockwork.FakeClock
	client *ledgerclient.Client
	feeds  atomic.Int64
}

func newServer(t *testing.T) *server {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	clock := clockwork.NewFakeClockAt(time.UnixMilli(1_700_000_000_000))
	handler := api.NewHandler(logger, ledger.New(logger, memory.NewStore(), clock), []string{"*"})

	s := &server{clock: clock}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/api/posts" {
			s.feeds.Add(1)
		}
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	s.client = ledgerclient.NewClient(&ledgerclient.ClientConfig{
		BaseURL:             ts.URL,
		ResponseMiddlewares: []resty.ResponseMiddleware{ledgerclient.MetricMiddleware},
	})
	t.Cleanup(func() {
		s.client.Close() //nolint:errcheck
	})

	return s
}

func TestClient(t *testing.T) {
	t.Parallel()

	s := newServer(t)
	ctx := t.Context()

	require.NoError(t, s.client.Health(ctx))

	first, err := s.client.CreatePost(ctx, ledgerclient.NewPost{Text: "first", Country: "Kenya"})
	require.NoError(t, err)
	assert.Equal(t, "Kenya", first.Country)
	assert.EqualValues(t, 0, first.Boosts)
	assert.Equal(t, first.CreatedAt+(24*time.Hour).Milliseconds(), first.ExpiresAt)

	second, err := s.client.CreatePost(ctx, ledgerclient.NewPost{Text: "second", Boosts: 2})
	require.NoError(t, err)

	boosted, err := s.client.Boost(ctx, first.ID, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 5, boosted.Boosts)

	posts, err := s.client.ListPosts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, first.ID, posts[0].ID)
	assert.Equal(t, second.ID, posts[1].ID)

	posts, err = s.client.ListPosts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	totals, err := s.client.CountryTotals(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, totals)
	assert.Equal(t, ledgerclient.CountryTotal{Country: "Kenya", Boosts: 5}, totals[0])
}

func TestClient_errors(t *testing.T) {
	t.Parallel()

	s := newServer(t)
	ctx := t.Context()

	_, err := s.client.CreatePost(ctx, ledgerclient.NewPost{Text: "visit nunc.io/"})
	require.Error(t, err)
	assert.True(t, ledgerclient.IsValidation(err))
	assert.False(t, ledgerclient.IsNotFound(err))

	var apiErr *ledgerclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "url_blocked", apiErr.Code)

	_, err = s.client.Boost(ctx, "missing", 1)
	require.Error(t, err)
	assert.True(t, ledgerclient.IsNotFound(err))
	assert.False(t, ledgerclient.IsValidation(err))
}

func TestFeedCache(t *testing.T) {
	t.Parallel()

	t.Run("serves from cache until the ttl passes", func(t *testing.T) {
		t.Parallel()

		s := newServer(t)
		ctx := t.Context()
		cache := ledgerclient.NewFeedCache(s.client, time.Minute, s.clock)

		_, err := cache.CreatePost(ctx, ledgerclient.NewPost{Text: "cached"})
		require.NoError(t, err)

		posts, err := cache.Feed(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 1)

		_, err = cache.Feed(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, s.feeds.Load())

		s.clock.Advance(time.Minute)

		_, err = cache.Feed(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, s.feeds.Load())
	})

	t.Run("mutations invalidate", func(t *testing.T) {
		t.Parallel()

		s := newServer(t)
		ctx := t.Context()
		cache := ledgerclient.NewFeedCache(s.client, time.Hour, s.clock)

		post, err := cache.CreatePost(ctx, ledgerclient.NewPost{Text: "a"})
		require.NoError(t, err)

		_, err = cache.Feed(ctx)
		require.NoError(t, err)

		_, err = cache.Boost(ctx, post.ID, 3)
		require.NoError(t, err)

		posts, err := cache.Feed(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.EqualValues(t, 3, posts[0].Boosts)
		assert.EqualValues(t, 2, s.feeds.Load())

		_, err = cache.Boost(ctx, "missing", 1)
		require.True(t, ledgerclient.IsNotFound(err))

		_, err = cache.Feed(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, s.feeds.Load())
	})

	t.Run("prunes expired posts without refetching", func(t *testing.T) {
		t.Parallel()

		s := newServer(t)
		ctx := t.Context()
		cache := ledgerclient.NewFeedCache(s.client, 48*time.Hour, s.clock)

		_, err := cache.CreatePost(ctx, ledgerclient.NewPost{Text: "soon gone"})
		require.NoError(t, err)

		posts, err := cache.Feed(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 1)

		s.clock.Advance(24 * time.Hour)

		posts, err = cache.Feed(ctx)
		require.NoError(t, err)
		assert.Empty(t, posts)
		assert.EqualValues(t, 1, s.feeds.Load())
	})
}
