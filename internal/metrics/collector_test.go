package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nunc/internal/config"
	"nunc/internal/core"
)

type stubLedger struct {
	core.Ledger

	posts []core.Post
	err   error
}

func (s stubLedger) List(context.Context, int) ([]core.Post, error) {
	return s.posts, s.err
}

func (s stubLedger) HealthCheck(context.Context) error {
	return s.err
}

func TestCollector_collect(t *testing.T) {
	c := &Collector{
		Logger: slog.New(slog.DiscardHandler),
		Ledger: stubLedger{posts: []core.Post{
			{ID: "a", Boosts: 3},
			{ID: "b", Boosts: 4},
		}},
	}
	require.NoError(t, c.Init(t.Context()))
	require.NoError(t, c.collect(t.Context()))

	assert.InDelta(t, 2, testutil.ToFloat64(livePosts), 0)
	assert.InDelta(t, 7, testutil.ToFloat64(liveBoosts), 0)

	c.Ledger = stubLedger{err: errors.New("boom")}
	require.Error(t, c.collect(t.Context()))
	assert.InDelta(t, 2, testutil.ToFloat64(livePosts), 0)
}

func TestCollector_Run(t *testing.T) {
	posts := make([]core.Post, 5)
	for i := range posts {
		posts[i] = core.Post{ID: string(rune('a' + i)), Boosts: 2}
	}

	clock := clockwork.NewFakeClock()
	c := NewCollector(slog.New(slog.DiscardHandler), stubLedger{posts: posts}, clock)
	require.NoError(t, c.Init(t.Context()))

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.NoError(t, clock.BlockUntilContext(t.Context(), 1))
	clock.Advance(collectInterval)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(livePosts) == 5 && testutil.ToFloat64(liveBoosts) == 10
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestHTTPServer_health(t *testing.T) {
	newServer := func(t *testing.T, err error) *HTTPServer {
		t.Helper()

		s := &HTTPServer{
			Logger: slog.New(slog.DiscardHandler),
			Config: &config.Config{MetricsListen: ":0"},
			Ledger: stubLedger{err: err},
		}
		require.NoError(t, s.Init(t.Context()))
		return s
	}

	get := func(s *HTTPServer, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		s.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	assert.Equal(t, http.StatusOK, get(newServer(t, nil), "/health").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(newServer(t, errors.New("down")), "/health").Code)

	rec := get(newServer(t, nil), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nunc_live_posts")
}
