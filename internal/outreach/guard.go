package outreach

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/gohub-dev/leadflow/internal/lead"
	"github.com/gohub-dev/leadflow/internal/provider"
)

// Guard wraps a Writer with the shared retry policy, a rate limiter and a
// per-attempt timeout. Copy generation is the one external call the
// enrichment gateway does not cover, so it carries the same guardrails.
type Guard struct {
	w       Writer
	policy  provider.Policy
	limiter *rate.Limiter
	timeout time.Duration
}

// NewGuard builds a guard. rateLimitRPS <= 0 disables limiting; timeout <= 0
// leaves each attempt bounded only by the run context.
func NewGuard(w Writer, policy provider.Policy, rateLimitRPS float64, timeout time.Duration) *Guard {
	var limiter *rate.Limiter
	if rateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(rateLimitRPS), 1)
	}
	return &Guard{w: w, policy: policy, limiter: limiter, timeout: timeout}
}

func (g *Guard) Generate(ctx context.Context, l *lead.Lead) (lead.OutreachCopy, error) {
	var out lead.OutreachCopy
	err := g.policy.Do(ctx, func(ctx context.Context) error {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		if g.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		var err error
		out, err = g.w.Generate(ctx, l)
		return err
	})
	return out, err
}
