package ledger_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nunc/internal/core"
	"nunc/internal/ledger"
	"nunc/internal/persistence/memory"
)

func TestSweeper(t *testing.T) {
	t.Parallel()

	t.Run("deletes expired posts on every tick", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStore()
		l, clock := newLedger(t, store)

		_, err := l.Create(t.Context(), core.Draft{Text: "short lived"})
		require.NoError(t, err)

		s := ledger.NewSweeper(slog.New(slog.DiscardHandler), l, time.Minute, clock)
		require.NoError(t, s.Init(t.Context()))

		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan error, 1)
		go func() { done <- s.Run(ctx) }()

		require.NoError(t, clock.BlockUntilContext(t.Context(), 1))
		clock.Advance(core.PostTTL)

		require.Eventually(t, func() bool {
			return storeEmpty(t, store)
		}, time.Second, 10*time.Millisecond)

		cancel()
		require.NoError(t, <-done)
	})

	t.Run("zero interval disables it", func(t *testing.T) {
		t.Parallel()

		l, clock := newLedger(t, memory.NewStore())
		s := ledger.NewSweeper(slog.New(slog.DiscardHandler), l, 0, clock)
		require.NoError(t, s.Init(t.Context()))

		assert.NoError(t, s.Run(t.Context()))
	})
}

// storeEmpty lists at the start time, when any post still stored is live.
func storeEmpty(t *testing.T, store core.PostStore) bool {
	t.Helper()

	posts, err := store.ListLive(t.Context(), start, 0)
	return err == nil && len(posts) == 0
}
