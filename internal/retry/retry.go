// Package retry runs an operation with bounded exponential backoff.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	nuts "github.com/vaudience/go-nuts"
)

// Task is one attempt. It returns whether a failure is worth retrying.
type Task func(ctx context.Context) (retry bool, err error)

// Backoff retries a task with exponentially growing, jittered pauses.
type Backoff struct {
	// MaxAttempts caps the number of attempts; 0 and 1 both mean a single attempt.
	MaxAttempts uint64
	// MinInterval defaults to 250ms.
	MinInterval time.Duration
	// MaxInterval defaults to 10s.
	MaxInterval time.Duration
	NoJitter    bool
}

// Do runs task until it succeeds, reports a non-retryable failure, runs out
// of attempts or ctx ends. The last error of the task is returned.
func (b Backoff) Do(ctx context.Context, name string, task Task) error {
	var attempt int
	var last error
	op := func() error {
		attempt++
		retry, err := task(ctx)
		last = err
		if err != nil && !retry {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		nuts.L.Warnf("[Retry] %s attempt %d failed, retrying in %v: %v", name, attempt, next, err)
	}

	if err := backoff.RetryNotify(op, b.policy(ctx), notify); err != nil {
		return last
	}
	if attempt > 1 {
		nuts.L.Infof("[Retry] %s succeeded on attempt %d", name, attempt)
	}
	return nil
}

func (b Backoff) policy(ctx context.Context) backoff.BackOff {
	minInterval := b.MinInterval
	if minInterval == 0 {
		minInterval = 250 * time.Millisecond
	}
	maxInterval := b.MaxInterval
	if maxInterval == 0 {
		maxInterval = 10 * time.Second
	}
	// between 95% and 105% of the base interval
	jitter := .05
	if b.NoJitter {
		jitter = 0
	}

	exp := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(minInterval),
		backoff.WithMaxInterval(maxInterval),
		backoff.WithMultiplier(2),
		backoff.WithRandomizationFactor(jitter),
		backoff.WithMaxElapsedTime(0),
	)

	var retries uint64
	if b.MaxAttempts > 1 {
		retries = b.MaxAttempts - 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, retries), ctx)
}
