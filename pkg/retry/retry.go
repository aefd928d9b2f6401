package retry

import (
	"context"
	"time"
)

// Policy describes a bounded polling loop: how many attempts to make and how
// long to sleep between them. The same value drives the shutdown/start
// waiters and the health prober.
type Policy struct {
	MaxAttempts int
	Interval    time.Duration
}

// Outcome classifies a single attempt.
type Outcome int

const (
	// Done means the condition holds; stop polling and report success.
	Done Outcome = iota
	// Again means the condition does not hold yet; sleep and retry.
	Again
	// Abort means the attempt hit an error that retrying cannot fix.
	Abort
)

// Do runs fn up to p.MaxAttempts times, sleeping p.Interval between
// attempts. fn receives the 1-based attempt number. Do returns nil when fn
// reports Done, the last error when attempts are exhausted or fn aborts, and
// ctx.Err() when the context is cancelled mid-wait.
func (p Policy) Do(ctx context.Context, fn func(attempt int) (Outcome, error)) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		outcome, err := fn(attempt)
		switch outcome {
		case Done:
			return nil
		case Abort:
			return err
		}
		lastErr = err

		if attempt == p.MaxAttempts {
			break
		}

		select {
		case <-time.After(p.Interval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}
