package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

type fn func(ctx context.Context) error

// ShouldRetry decides whether a failed attempt (counted from 1) is retried.
type ShouldRetry func(err error, attempt int) bool

// Always retries every error.
func Always(error, int) bool {
	return true
}

// Do calls f until it succeeds, attempts are exhausted, shouldRetry declines the
// error or ctx is done. It sleeps delay between attempts. The last error is
// wrapped together with ErrAttemptsExhausted when attempts run out.
func Do(ctx context.Context, attempts int, delay time.Duration, shouldRetry ShouldRetry, f fn) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; ; attempt++ {
		err = f(ctx)
		if err == nil {
			return nil
		}

		if !shouldRetry(err, attempt) {
			return err
		}

		if attempt >= attempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, attempt, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(ctx.Err(), err)
		case <-timer.C:
		}
	}
}
