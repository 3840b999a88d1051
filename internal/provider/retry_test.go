package provider_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gohub-dev/leadflow/internal/provider"
)

func fastPolicy(attempts int) provider.Policy {
	return provider.Policy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
		JitterFrac:  0,
	}
}

func TestPolicy_RetriesRateLimited(t *testing.T) {
	t.Parallel()

	calls := 0
	err := fastPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return provider.Errorf("hunter", "domain-search", provider.KindRateLimited, "429")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestPolicy_SurfacesAfterBudget(t *testing.T) {
	t.Parallel()

	calls := 0
	err := fastPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		return provider.Errorf("hunter", "domain-search", provider.KindUnavailable, "boom")
	})
	if !provider.IsTransient(err) {
		t.Fatalf("expected transient error surfaced, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestPolicy_DoesNotRetryAuthFailed(t *testing.T) {
	t.Parallel()

	calls := 0
	err := fastPolicy(5).Do(context.Background(), func(context.Context) error {
		calls++
		return provider.Errorf("hunter", "email-finder", provider.KindAuthFailed, "401")
	})
	if !provider.IsAuthFailed(err) {
		t.Fatalf("expected auth failure, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestPolicy_DoesNotRetryNotFound(t *testing.T) {
	t.Parallel()

	calls := 0
	err := fastPolicy(5).Do(context.Background(), func(context.Context) error {
		calls++
		return provider.Errorf("hunter", "email-finder", provider.KindNotFound, "no data")
	})
	if !provider.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestPolicy_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := fastPolicy(100).Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return provider.Errorf("hunter", "domain-search", provider.KindUnavailable, "boom")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestKindOf_DeadlineIsUnavailable(t *testing.T) {
	t.Parallel()

	k, ok := provider.KindOf(context.DeadlineExceeded)
	if !ok || k != provider.KindUnavailable {
		t.Fatalf("expected timeout to classify as unavailable, got %v ok=%t", k, ok)
	}
}

func TestKindOf_WrappedProviderError(t *testing.T) {
	t.Parallel()

	inner := provider.Errorf("gemini", "generate", provider.KindRateLimited, "429")
	wrapped := errors.Join(errors.New("outer"), inner)
	k, ok := provider.KindOf(wrapped)
	if !ok || k != provider.KindRateLimited {
		t.Fatalf("expected rate_limited through wrap, got %v ok=%t", k, ok)
	}
}
