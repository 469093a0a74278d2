package generator

import (
	"context"
	"time"
)

// RetryPolicy - число попыток и базовая задержка.
// Перед попыткой N+1 ждем Delay*N (линейный backoff).
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetryPolicy matches the production settings: 3 attempts, 1s, 2s between them.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Delay: time.Second}

// Do calls fn until it succeeds, the attempts run out or ctx is done.
// Returns the last error.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		if werr := wait(ctx, p.Delay*time.Duration(attempt+1)); werr != nil {
			return err
		}
	}
	return err
}

func wait(ctx context.Context, d time.Duration) error {
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
