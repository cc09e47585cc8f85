package state

import (
	"context"
	"time"

	"github.com/BrenoJLeal02/uniespoverflow-front/internal/forum"
)

// RetryPolicy bounds how often a remote mutation is repeated after a
// transient failure.
type RetryPolicy struct {
	Attempts int           // total tries; values below 1 mean one try
	Backoff  time.Duration // delay before the second try, doubled after each
}

// DefaultRetry is used when a store is built without a policy.
var DefaultRetry = RetryPolicy{Attempts: 3, Backoff: 250 * time.Millisecond}

// do runs fn until it succeeds, fails permanently, the attempts run out or ctx
// ends. It returns the last error.
func (p RetryPolicy) do(ctx context.Context, fn func(context.Context) error) error {
	attempts := max(p.Attempts, 1)
	delay := p.Backoff
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !forum.IsRetryable(err) || attempt == attempts {
			return err
		}
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return err
			case <-timer.C:
			}
			delay *= 2
		}
	}
	return err
}
