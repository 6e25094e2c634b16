package http

import (
	"context"
	"math/rand"
	"time"
)

// backoff implements exponential backoff with jitter between send attempts.
type backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

// newBackoff creates a new backoff with the given initial and max durations.
func newBackoff(initial, max time.Duration) *backoff {
	return &backoff{
		initial: initial,
		max:     max,
		current: initial,
	}
}

// Sleep waits for the current backoff duration, then doubles it up to the
// maximum. Returns the context error if the context ends first.
func (b *backoff) Sleep(ctx context.Context) error {
	// Add jitter: ±20%
	jitter := float64(b.current) * 0.2 * (rand.Float64()*2 - 1)
	sleep := time.Duration(float64(b.current) + jitter)

	timer := time.NewTimer(sleep)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return nil
}

// Reset resets the backoff to the initial duration.
func (b *backoff) Reset() {
	b.current = b.initial
}
