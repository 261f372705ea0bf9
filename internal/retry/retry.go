// Package retry is the caller-side retry policy for provider calls. Only retryable
// error kinds (rate limiting, provider unavailability) are retried.
package retry

import (
	"context"
	"time"

	"mecabal-location/internal/apperr"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds retries with exponential backoff.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultPolicy allows three attempts starting at 200ms.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, InitialInterval: 200 * time.Millisecond, MaxInterval: 2 * time.Second}
}

// Do runs fn until it succeeds, fails with a non-retryable error, the attempts are used up
// or ctx is done. The last error is returned unchanged.
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	if p.MaxAttempts <= 1 {
		return fn(ctx)
	}

	eb := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		eb.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}
	eb.MaxElapsedTime = 0

	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(p.MaxAttempts-1)), ctx)

	return backoff.RetryWithData(func() (T, error) {
		v, err := fn(ctx)
		if err != nil && !apperr.KindOf(err).Retryable() {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, b)
}
