package enrich_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gohub-dev/leadflow/internal/enrich"
	"github.com/gohub-dev/leadflow/internal/provider"
)

type fakeProvider struct {
	mu            sync.Mutex
	profileCalls  int
	peopleCalls   int
	profileErrs   []error
	decisionErr   error
	profileResult enrich.CompanyProfile
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) CompanyProfile(context.Context, string) (enrich.CompanyProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileCalls++
	if len(f.profileErrs) > 0 {
		err := f.profileErrs[0]
		f.profileErrs = f.profileErrs[1:]
		if err != nil {
			return enrich.CompanyProfile{}, err
		}
	}
	return f.profileResult, nil
}

func (f *fakeProvider) DecisionMakers(context.Context, string, []string) ([]enrich.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.peopleCalls++
	if f.decisionErr != nil {
		return nil, f.decisionErr
	}
	return []enrich.Person{{Name: "A", Title: "CEO"}}, nil
}

func (f *fakeProvider) FindEmail(context.Context, enrich.Person, string) (enrich.EmailResult, error) {
	return enrich.EmailResult{}, provider.Errorf("fake", "find-email", provider.KindNotFound, "none")
}

func fastPolicy() provider.Policy {
	return provider.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestGateway_RetriesRateLimited(t *testing.T) {
	t.Parallel()

	f := &fakeProvider{
		profileErrs: []error{
			provider.Errorf("fake", "company-profile", provider.KindRateLimited, "429"),
			provider.Errorf("fake", "company-profile", provider.KindRateLimited, "429"),
		},
		profileResult: enrich.CompanyProfile{Name: "Acme"},
	}
	g := enrich.NewGateway(f, fastPolicy(), 0)

	out, err := g.CompanyProfile(context.Background(), "acme.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Name != "Acme" {
		t.Fatalf("unexpected profile: %+v", out)
	}
	if f.profileCalls != 3 {
		t.Fatalf("expected 3 attempts, got %d", f.profileCalls)
	}
}

func TestGateway_AuthFailureIsSticky(t *testing.T) {
	t.Parallel()

	f := &fakeProvider{
		profileErrs: []error{
			provider.Errorf("fake", "company-profile", provider.KindAuthFailed, "401"),
		},
	}
	g := enrich.NewGateway(f, fastPolicy(), 0)

	if _, err := g.CompanyProfile(context.Background(), "acme.com"); !provider.IsAuthFailed(err) {
		t.Fatalf("expected auth failure, got %v", err)
	}
	if !g.Disabled() {
		t.Fatal("gateway must be disabled after auth failure")
	}

	// Further calls short-circuit without touching the provider.
	if _, err := g.DecisionMakers(context.Background(), "acme.com", nil); !provider.IsAuthFailed(err) {
		t.Fatalf("expected short-circuit auth failure, got %v", err)
	}
	if f.peopleCalls != 0 {
		t.Fatalf("dead provider must not be called, got %d calls", f.peopleCalls)
	}
	if f.profileCalls != 1 {
		t.Fatalf("auth failure must not be retried, got %d calls", f.profileCalls)
	}
}

func TestGateway_NotFoundPassesThrough(t *testing.T) {
	t.Parallel()

	f := &fakeProvider{
		decisionErr: provider.Errorf("fake", "decision-makers", provider.KindNotFound, "none"),
	}
	g := enrich.NewGateway(f, fastPolicy(), 0)

	_, err := g.DecisionMakers(context.Background(), "acme.com", nil)
	if !provider.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if f.peopleCalls != 1 {
		t.Fatalf("not-found must not be retried, got %d calls", f.peopleCalls)
	}
	if g.Disabled() {
		t.Fatal("not-found must not disable the provider")
	}
}

func TestGateway_RateLimiterSerializesCalls(t *testing.T) {
	t.Parallel()

	f := &fakeProvider{profileResult: enrich.CompanyProfile{Name: "Acme"}}
	// 50 rps with burst 1: 4 calls need >= ~60ms.
	g := enrich.NewGateway(f, fastPolicy(), 50)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = g.CompanyProfile(context.Background(), "acme.com")
		}()
	}
	wg.Wait()

	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("limiter did not pace calls: %s", elapsed)
	}
}

func TestPickDecisionMaker_TitlePriority(t *testing.T) {
	t.Parallel()

	people := []enrich.Person{
		{Name: "B", Title: "Marketing Lead"},
		{Name: "C", Title: "E-Commerce Manager"},
		{Name: "A", Title: "Founder & CEO"},
	}
	got, ok := enrich.PickDecisionMaker(people, enrich.DefaultTitleFilter)
	if !ok || got.Name != "A" {
		t.Fatalf("expected CEO-titled person to win, got %+v ok=%t", got, ok)
	}

	// No title match: the provider's first candidate stands.
	got, ok = enrich.PickDecisionMaker(people[:2], []string{"CTO"})
	if !ok || got.Name != "B" {
		t.Fatalf("expected first candidate fallback, got %+v", got)
	}

	if _, ok := enrich.PickDecisionMaker(nil, enrich.DefaultTitleFilter); ok {
		t.Fatal("empty candidate list must report !ok")
	}
}
