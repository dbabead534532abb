package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/itsmeakapa/secref/internal/log"
)

const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = 5 * time.Second
)

// RetryPolicy retries transient fetch failures with linearly increasing backoff (attempt number times the
// base delay). Permanent failures are propagated immediately; exhausting the attempt ceiling is fatal to
// the run.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
	}
}

func (p RetryPolicy) Do(ctx context.Context, operation string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		if IsPermanent(err) {
			return err
		}

		if attempt == attempts {
			break
		}

		wait := time.Duration(attempt) * p.BaseDelay
		log.WithFields("operation", operation, "attempt", attempt, "error", err).Warnf("fetch failed, retrying in %s", wait)

		if err := Sleep(ctx, wait); err != nil {
			return err
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, attempts, err)
}

// Sleep blocks for the given duration or until the context is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
