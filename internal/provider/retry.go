package provider

import (
	"context"
	"math/rand/v2"
	"time"
)

// Policy is a reusable bounded-retry policy applied uniformly at provider
// boundaries: transient failures retry with doubling backoff and jitter,
// everything else surfaces immediately.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseDelay is the sleep before the first retry.
	BaseDelay time.Duration
	// MaxDelay caps exponential backoff.
	MaxDelay time.Duration
	// JitterFrac applies +/- jitter to backoff sleeps (0.2 = +/-20%).
	JitterFrac float64
}

// DefaultPolicy matches the provider-agnostic policy: up to 3 attempts,
// base delay doubling, with jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		JitterFrac:  0.2,
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 200 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 2 * time.Second
	}
	return p
}

// Do runs fn until it succeeds, returns a non-transient error, or the
// attempt budget is spent. Context cancellation wins over the budget.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	p = p.withDefaults()

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) || attempt == p.MaxAttempts-1 {
			return lastErr
		}

		t := time.NewTimer(p.sleep(attempt))
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
	return lastErr
}

func (p Policy) sleep(attempt int) time.Duration {
	sleep := p.BaseDelay
	for i := 0; i < attempt && sleep < p.MaxDelay; i++ {
		sleep *= 2
		if sleep > p.MaxDelay {
			sleep = p.MaxDelay
			break
		}
	}
	if p.JitterFrac <= 0 {
		return sleep
	}
	j := 1 + (rand.Float64()*2-1)*p.JitterFrac
	return time.Duration(float64(sleep) * j)
}
