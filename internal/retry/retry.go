// Package retry provides a bounded, fixed-interval retry loop.
//
// Unlike exponential-backoff schemes, the policy here is deliberately flat:
// a fixed number of attempts separated by a constant interval. It exists for
// contended-resource acquisition (advisory file locks) where the caller has a
// hard time budget and prefers giving up over waiting longer.
//
// The worst-case wall-clock cost of a config is Budget():
// (MaxAttempts-1) * Interval, plus the time spent in fn itself.
//
// All waits respect context cancellation.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Config defines the retry behavior.
//
// The zero value is not usable; MaxAttempts must be at least 1.
type Config struct {
	// MaxAttempts is the total number of times fn is invoked, including the
	// first attempt. Must be greater than 0.
	MaxAttempts int

	// Interval is the constant delay between consecutive attempts.
	// Zero means retry immediately.
	Interval time.Duration
}

// Budget returns the worst-case time spent sleeping between attempts.
func (c Config) Budget() time.Duration {
	if c.MaxAttempts <= 1 {
		return 0
	}
	return time.Duration(c.MaxAttempts-1) * c.Interval
}

// ShouldRetryFunc decides whether an error from fn warrants another attempt.
// Returning false fails the loop immediately with that error.
// A nil ShouldRetryFunc retries every error.
type ShouldRetryFunc func(error) bool

// Do executes fn up to cfg.MaxAttempts times, sleeping cfg.Interval between
// attempts. It returns nil as soon as fn succeeds.
//
// If fn keeps failing, Do returns an error wrapping the last failure once the
// attempt budget is exhausted. If shouldRetry reports an error as permanent,
// Do returns that error as-is without further attempts.
//
// If ctx is canceled while sleeping, Do returns the context error.
func Do(ctx context.Context, cfg Config, fn func() error, shouldRetry ShouldRetryFunc) error {
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if attempt > 0 && cfg.Interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.Interval):
			}
		}

		err := fn()
		if err == nil {
			return nil
		}

		if shouldRetry != nil && !shouldRetry(err) {
			return err
		}

		lastErr = err
	}

	return fmt.Errorf("gave up after %d attempts: %w", cfg.MaxAttempts, lastErr)
}
