package utils

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryPolicy holds the parameters for the retry strategy.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Logger      *logrus.Logger
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	limit := p.MaxDelay
	if limit <= 0 {
		limit = 5 * time.Second
	}
	if attempt > 30 {
		return limit
	}
	d := base << (attempt - 1)
	if d <= 0 || d > limit {
		d = limit
	}
	return d
}

// Retry runs fn until it succeeds, returns a non-transient error, the context
// ends, or MaxAttempts is reached. Only errors accepted by IsTransient are retried.
func Retry(ctx context.Context, p RetryPolicy, op string, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) || attempt == attempts {
			return lastErr
		}

		wait := p.delay(attempt)
		if p.Logger != nil {
			p.Logger.WithFields(logrus.Fields{
				"op":       op,
				"attempt":  attempt,
				"max":      attempts,
				"retry_in": wait.String(),
			}).WithError(lastErr).Warn("transient failure, retrying")
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return lastErr
		case <-t.C:
		}
	}
	return lastErr
}
