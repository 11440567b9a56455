package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryPolicy bounds how often a lost optimistic-lock race is retried before
// the operation fails with ErrConflict.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetry is used when a policy field is left zero.
var DefaultRetry = RetryPolicy{MaxAttempts: 5, Backoff: 10 * time.Millisecond}

// run invokes fn until it succeeds, fails with something other than
// ErrVersionMismatch, or the attempt budget is spent. Each retry waits
// Backoff, honoring ctx cancellation.
func (p RetryPolicy) run(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultRetry.MaxAttempts
	}
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn()
		if err == nil || !errors.Is(err, ErrVersionMismatch) {
			return err
		}
		if i < attempts-1 && p.Backoff > 0 {
			select {
			case <-time.After(p.Backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("%w after %d attempts", ErrConflict, attempts)
}
