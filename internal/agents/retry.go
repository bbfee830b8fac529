package agents

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryPolicy controls how external collaborator calls are retried.
// Only errors the retryable classifier accepts are retried; anything else
// fails immediately.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool
}

// DefaultRetryPolicy retries up to five attempts with randomized exponential
// backoff between one and five seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   1 * time.Second,
		MaxDelay:    5 * time.Second,
		Jitter:      true,
	}
}

// Do runs fn until it succeeds, exhausts the attempt budget, or hits a
// non-retryable error. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, retryable func(error) bool, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if attempt == attempts || !retryable(err) {
			return err
		}
		select {
		case <-time.After(p.delay(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// delay computes the backoff for the given 1-based attempt number.
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay
	if d <= 0 {
		d = time.Second
	}
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			d = p.MaxDelay
			break
		}
	}
	if p.Jitter {
		d = time.Duration(rand.Int64N(int64(d)) + 1)
	}
	return d
}
