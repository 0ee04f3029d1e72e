package match

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds retries of outbound collaborator calls. The zero value
// makes a single attempt.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Do calls op until it succeeds, the attempts are exhausted, or ctx is done.
//
// Postcondition: Returns nil on the first success, otherwise the last error.
func (r RetryPolicy) Do(ctx context.Context, op func() error) error {
	if r.MaxAttempts <= 1 {
		return op()
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.InitialInterval
	b.MaxInterval = r.MaxInterval
	b.MaxElapsedTime = 0
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.MaxAttempts-1)), ctx))
}
