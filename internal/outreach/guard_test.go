package outreach_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gohub-dev/leadflow/internal/lead"
	"github.com/gohub-dev/leadflow/internal/outreach"
	"github.com/gohub-dev/leadflow/internal/provider"
)

// scriptWriter returns queued errors before succeeding.
type scriptWriter struct {
	errs  []error
	calls int
	out   lead.OutreachCopy
}

func (w *scriptWriter) Generate(context.Context, *lead.Lead) (lead.OutreachCopy, error) {
	w.calls++
	if len(w.errs) > 0 {
		err := w.errs[0]
		w.errs = w.errs[1:]
		if err != nil {
			return lead.OutreachCopy{}, err
		}
	}
	return w.out, nil
}

// hungWriter blocks until its context is done.
type hungWriter struct{}

func (hungWriter) Generate(ctx context.Context, _ *lead.Lead) (lead.OutreachCopy, error) {
	<-ctx.Done()
	return lead.OutreachCopy{}, ctx.Err()
}

func fastPolicy() provider.Policy {
	return provider.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestGuard_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	w := &scriptWriter{
		errs: []error{
			provider.Errorf("gemini", "generate", provider.KindRateLimited, "429"),
			provider.Errorf("gemini", "generate", provider.KindUnavailable, "503"),
		},
		out: lead.OutreachCopy{EmailSubject: "hello"},
	}
	g := outreach.NewGuard(w, fastPolicy(), 0, 0)

	out, err := g.Generate(context.Background(), &lead.Lead{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.EmailSubject != "hello" {
		t.Fatalf("unexpected copy: %+v", out)
	}
	if w.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", w.calls)
	}
}

func TestGuard_AuthFailureIsNotRetried(t *testing.T) {
	t.Parallel()

	w := &scriptWriter{
		errs: []error{provider.Errorf("gemini", "generate", provider.KindAuthFailed, "401")},
	}
	g := outreach.NewGuard(w, fastPolicy(), 0, 0)

	if _, err := g.Generate(context.Background(), &lead.Lead{}); !provider.IsAuthFailed(err) {
		t.Fatalf("expected auth failure, got %v", err)
	}
	if w.calls != 1 {
		t.Fatalf("auth failure must not be retried, got %d calls", w.calls)
	}
}

func TestGuard_TimesOutHungGeneration(t *testing.T) {
	t.Parallel()

	g := outreach.NewGuard(hungWriter{}, provider.Policy{MaxAttempts: 1}, 0, 20*time.Millisecond)

	start := time.Now()
	_, err := g.Generate(context.Background(), &lead.Lead{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("generation not bounded by the timeout, took %s", elapsed)
	}
}
