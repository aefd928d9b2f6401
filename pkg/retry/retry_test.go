package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyDo_SucceedsFirstAttempt(t *testing.T) {
	p := Policy{MaxAttempts: 5, Interval: time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), func(attempt int) (Outcome, error) {
		calls++
		return Done, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPolicyDo_SucceedsLastAttempt(t *testing.T) {
	p := Policy{MaxAttempts: 4, Interval: time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), func(attempt int) (Outcome, error) {
		calls++
		if attempt < 4 {
			return Again, errors.New("not ready")
		}
		return Done, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
}

func TestPolicyDo_ExhaustsAttempts(t *testing.T) {
	p := Policy{MaxAttempts: 3, Interval: time.Millisecond}

	notReady := errors.New("not ready")
	calls := 0
	err := p.Do(context.Background(), func(attempt int) (Outcome, error) {
		calls++
		return Again, notReady
	})

	assert.ErrorIs(t, err, notReady)
	assert.Equal(t, 3, calls, "exactly MaxAttempts attempts must be made")
}

func TestPolicyDo_AttemptNumbersAreOneBased(t *testing.T) {
	p := Policy{MaxAttempts: 3, Interval: time.Millisecond}

	var seen []int
	_ = p.Do(context.Background(), func(attempt int) (Outcome, error) {
		seen = append(seen, attempt)
		return Again, nil
	})

	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestPolicyDo_AbortStopsImmediately(t *testing.T) {
	p := Policy{MaxAttempts: 10, Interval: time.Millisecond}

	fatal := errors.New("fatal")
	calls := 0
	err := p.Do(context.Background(), func(attempt int) (Outcome, error) {
		calls++
		return Abort, fatal
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestPolicyDo_ContextCancelledBetweenAttempts(t *testing.T) {
	p := Policy{MaxAttempts: 10, Interval: 5 * time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := p.Do(ctx, func(attempt int) (Outcome, error) {
		return Again, errors.New("not ready")
	})

	assert.ErrorIs(t, err, context.Canceled)
}
