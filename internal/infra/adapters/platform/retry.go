package platform

import (
	"context"
	"time"
)

// RetryPolicy bounds transient-failure retries around one platform call.
// Backoff grows as attempt² seconds by default, matching the upstream
// rate limits these APIs enforce.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*attempt) * time.Second
		},
		sleep: sleepCtx,
	}
}

// Do runs fn up to MaxAttempts times, sleeping between attempts. The last
// error is returned once the budget is exhausted. Cancellation arrives
// through ctx; the policy adds no deadline of its own.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.Backoff == nil {
		p.Backoff = func(attempt int) time.Duration {
			return time.Duration(attempt*attempt) * time.Second
		}
	}
	if p.sleep == nil {
		p.sleep = sleepCtx
	}

	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == p.MaxAttempts {
			break
		}
		if serr := p.sleep(ctx, p.Backoff(attempt)); serr != nil {
			return serr
		}
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
