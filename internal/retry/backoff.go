// Package retry provides exponential backoff for reconnect attempts at
// the CLI layer.  The connection core itself never retries; it returns
// the first hard failure, and callers opt into retrying around it.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// PermanentError wraps an error to signal that retrying will not help.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as non-retryable.  The backoff loop returns the
// inner error immediately without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Backoff implements exponential backoff with optional jitter.
type Backoff struct {
	// InitialDelay is the delay before the first retry (default 1s).
	InitialDelay time.Duration
	// MaxDelay caps the backoff duration (default 30s).
	MaxDelay time.Duration
	// MaxAttempts is the total number of tries including the first.
	// Default: 3.
	MaxAttempts int
	// Jitter adds ±25% randomisation.
	Jitter bool
}

// Do runs op until it succeeds, returns a permanent error, exhausts
// MaxAttempts, or the context is cancelled.  The delay doubles after
// each failure.
func (b *Backoff) Do(ctx context.Context, op func() error) error {
	delay := b.InitialDelay
	if delay <= 0 {
		delay = time.Second
	}
	maxDelay := b.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}
	attempts := b.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = op(); err == nil {
			return nil
		}
		var pe *PermanentError
		if errors.As(err, &pe) {
			return pe.Err
		}
		if i == attempts-1 {
			break
		}

		d := delay
		if b.Jitter {
			// ±25%
			d += time.Duration((rand.Float64() - 0.5) * 0.5 * float64(d))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return err
}
