package async_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nunc/pkg/async"
)

func feed(n int) <-chan int {
	ch := make(chan int, n)
	for i := range n {
		ch <- i
	}
	close(ch)
	return ch
}

func TestWorkerPool(t *testing.T) {
	t.Parallel()

	t.Run("processes every item", func(t *testing.T) {
		t.Parallel()

		var sum atomic.Int64
		err := async.WorkerPool(t.Context(), 4, feed(100), func(_ context.Context, i int) error {
			sum.Add(int64(i))
			return nil
		})

		require.NoError(t, err)
		assert.EqualValues(t, 4950, sum.Load())
	})

	t.Run("bounds concurrency", func(t *testing.T) {
		t.Parallel()

		var running, peak atomic.Int64
		err := async.WorkerPool(t.Context(), 3, feed(30), func(_ context.Context, _ int) error {
			n := running.Add(1)
			defer running.Add(-1)

			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			return nil
		})

		require.NoError(t, err)
		assert.LessOrEqual(t, peak.Load(), int64(3))
	})

	t.Run("returns the first error", func(t *testing.T) {
		t.Parallel()

		errBoom := errors.New("boom")
		err := async.WorkerPool(t.Context(), 2, feed(10), func(_ context.Context, i int) error {
			if i == 3 {
				return errBoom
			}
			return nil
		})

		require.ErrorIs(t, err, errBoom)
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		ch := make(chan int)
		err := async.WorkerPool(ctx, 2, ch, func(context.Context, int) error {
			return nil
		})

		require.ErrorIs(t, err, context.Canceled)
	})
}
