package async

import (
	"context"
	"sync"
)

type EachAsyncIteratee[T any] func(context.Context, T) error

// WorkerPool calls fn for every item received from ch, at most concurrency
// calls at a time. It returns once ch is closed and all calls are done, or
// with the first error after the in-flight calls have finished.
func WorkerPool[T any](ctx context.Context, concurrency int, ch <-chan T, fn EachAsyncIteratee[T]) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	semaphore := make(chan struct{}, max(concurrency, 1))

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)

loop:
	for {
		var (
			m  T
			ok bool
		)

		select {
		case <-ctx.Done():
			break loop
		case m, ok = <-ch:
			if !ok {
				break loop
			}
		}

		select {
		case <-ctx.Done():
			break loop
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(m T) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := fn(ctx, m); err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}(m)
	}

	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
