// Package enrich is the uniform gateway to company/contact data providers.
// The gateway owns retry, rate limiting and the auth kill-switch; provider
// implementations only translate their wire format and error shapes into the
// normalized taxonomy.
package enrich

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/gohub-dev/leadflow/internal/lead"
	"github.com/gohub-dev/leadflow/internal/provider"
)

// CompanyProfile is the firmographic record a provider returns for a domain.
type CompanyProfile struct {
	Name        string
	Industry    string
	Country     string
	Description string

	// EmployeeCount is nil when the provider has no size estimate.
	EmployeeCount *int
}

// Person is one decision-maker candidate, in provider-ranked order.
type Person struct {
	Name       string
	Title      string
	ProfileURL string
	Location   string
	Email      string
}

// EmailResult is a found-and-verified address.
type EmailResult struct {
	Email  string
	Status lead.EmailStatus
	Phone  string
}

// Provider is the capability interface every enrichment source implements.
// Implementations are selected by configuration, not by branching in the
// orchestrator. All errors must be *provider.Error.
type Provider interface {
	Name() string
	CompanyProfile(ctx context.Context, domain string) (CompanyProfile, error)
	DecisionMakers(ctx context.Context, domain string, titleFilter []string) ([]Person, error)
	FindEmail(ctx context.Context, person Person, companyDomain string) (EmailResult, error)
}

// Gateway wraps a Provider with the shared retry policy, a per-provider rate
// limiter and sticky auth-failure state. After an auth failure every further
// call short-circuits: the provider is dead for the rest of the run.
type Gateway struct {
	p       Provider
	policy  provider.Policy
	limiter *rate.Limiter

	mu       sync.Mutex
	authDead bool
}

// NewGateway builds a gateway. rateLimitRPS is a ceiling shared across all
// workers; <= 0 disables limiting.
func NewGateway(p Provider, policy provider.Policy, rateLimitRPS float64) *Gateway {
	var limiter *rate.Limiter
	if rateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(rateLimitRPS), 1)
	}
	return &Gateway{p: p, policy: policy, limiter: limiter}
}

// Name reports the wrapped provider's name for diagnostics.
func (g *Gateway) Name() string { return g.p.Name() }

// Disabled reports whether the provider has been shut off by an auth failure.
func (g *Gateway) Disabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.authDead
}

func (g *Gateway) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	g.mu.Lock()
	dead := g.authDead
	g.mu.Unlock()
	if dead {
		return provider.Errorf(g.p.Name(), op, provider.KindAuthFailed, "provider disabled after earlier auth failure")
	}

	err := g.policy.Do(ctx, func(ctx context.Context) error {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		return fn(ctx)
	})
	if provider.IsAuthFailed(err) {
		g.mu.Lock()
		g.authDead = true
		g.mu.Unlock()
	}
	return err
}

func (g *Gateway) CompanyProfile(ctx context.Context, domain string) (CompanyProfile, error) {
	var out CompanyProfile
	err := g.call(ctx, "company-profile", func(ctx context.Context) error {
		var err error
		out, err = g.p.CompanyProfile(ctx, domain)
		return err
	})
	return out, err
}

func (g *Gateway) DecisionMakers(ctx context.Context, domain string, titleFilter []string) ([]Person, error) {
	var out []Person
	err := g.call(ctx, "decision-makers", func(ctx context.Context) error {
		var err error
		out, err = g.p.DecisionMakers(ctx, domain, titleFilter)
		return err
	})
	return out, err
}

func (g *Gateway) FindEmail(ctx context.Context, person Person, companyDomain string) (EmailResult, error) {
	var out EmailResult
	err := g.call(ctx, "find-email", func(ctx context.Context) error {
		var err error
		out, err = g.p.FindEmail(ctx, person, companyDomain)
		return err
	})
	return out, err
}
