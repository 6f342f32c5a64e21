package ingest

import (
	"context"
	"time"

	"github.com/santapalabra/scripture/core/errors"
)

// Retry bounds how often a transient failure is retried.
type Retry struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetry is three attempts starting at 100ms and doubling.
var DefaultRetry = Retry{Attempts: 3, Backoff: 100 * time.Millisecond}

// Do runs fn until it succeeds, returns a non-transient error, the attempts
// run out, or ctx ends. onRetry is called before each new attempt.
func (r Retry) Do(ctx context.Context, fn func() error, onRetry func(attempt int, err error)) (attempts int, err error) {
	if r.Attempts < 1 {
		r.Attempts = 1
	}
	delay := r.Backoff
	for attempts = 1; ; attempts++ {
		err = fn()
		if err == nil || !errors.Is(err, errors.ErrTransient) || attempts >= r.Attempts {
			return attempts, err
		}
		if onRetry != nil {
			onRetry(attempts, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempts, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
