// Package score computes the deterministic qualification score for a lead.
package score

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gohub-dev/leadflow/internal/lead"
)

// Criterion names used in the qualification breakdown.
const (
	CriterionPlatform      = "platform_match"
	CriterionSizeSweetSpot = "company_size_sweet_spot"
	CriterionSizeGood      = "company_size_good"
	CriterionGeography     = "target_geography"
	CriterionEcommerce     = "ecommerce_presence"
	CriterionNoCompeting   = "no_competing_product"
	CriterionDecisionMaker = "decision_maker_found"
	CriterionEmailVerified = "email_verified"
)

// SizeBand awards points when the employee count falls inside [Min, Max].
type SizeBand struct {
	Name   string `yaml:"name"`
	Min    int    `yaml:"min"`
	Max    int    `yaml:"max"`
	Points int    `yaml:"points"`
}

func (b SizeBand) width() int { return b.Max - b.Min }

func (b SizeBand) contains(n int) bool { return n >= b.Min && n <= b.Max }

// Weights is the injected point table for the independent criteria. Size
// points live in the band table, not here.
type Weights struct {
	PlatformMatch      int `yaml:"platform_match"`
	TargetGeography    int `yaml:"target_geography"`
	EcommercePresence  int `yaml:"ecommerce_presence"`
	NoCompetingProduct int `yaml:"no_competing_product"`
	DecisionMakerFound int `yaml:"decision_maker_found"`
	EmailVerified      int `yaml:"email_verified"`
}

// Engine scores leads against a fixed configuration. Score is pure: the same
// lead always yields the same qualification.
type Engine struct {
	weights   Weights
	bands     []SizeBand
	countries map[string]struct{}
	threshold int
}

// NewEngine validates the configuration and returns a scoring engine.
// Bands are stored narrowest-first so the best matching band wins.
func NewEngine(w Weights, bands []SizeBand, targetCountries []string, threshold int) (*Engine, error) {
	if threshold < 0 {
		return nil, fmt.Errorf("qualification threshold must be >= 0, got %d", threshold)
	}
	for _, p := range []struct {
		name string
		v    int
	}{
		{CriterionPlatform, w.PlatformMatch},
		{CriterionGeography, w.TargetGeography},
		{CriterionEcommerce, w.EcommercePresence},
		{CriterionNoCompeting, w.NoCompetingProduct},
		{CriterionDecisionMaker, w.DecisionMakerFound},
		{CriterionEmailVerified, w.EmailVerified},
	} {
		if p.v < 0 {
			return nil, fmt.Errorf("weight %s must be >= 0, got %d", p.name, p.v)
		}
	}

	sorted := make([]SizeBand, len(bands))
	copy(sorted, bands)
	for _, b := range sorted {
		if b.Min > b.Max {
			return nil, fmt.Errorf("size band %q: min %d > max %d", b.Name, b.Min, b.Max)
		}
		if b.Points < 0 {
			return nil, fmt.Errorf("size band %q: points must be >= 0", b.Name)
		}
	}
	// Bands should be disjoint, but when a configuration makes them overlap
	// the narrowest matching band wins, so order narrowest-first.
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].width() < sorted[j].width() })

	countries := make(map[string]struct{}, len(targetCountries))
	for _, c := range targetCountries {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c != "" {
			countries[c] = struct{}{}
		}
	}

	return &Engine{
		weights:   w,
		bands:     sorted,
		countries: countries,
		threshold: threshold,
	}, nil
}

// MaxScore is the total awardable when every criterion hits its best band.
func (e *Engine) MaxScore() int {
	best := 0
	for _, b := range e.bands {
		if b.Points > best {
			best = b.Points
		}
	}
	return e.weights.PlatformMatch + best + e.weights.TargetGeography +
		e.weights.EcommercePresence + e.weights.NoCompetingProduct +
		e.weights.DecisionMakerFound + e.weights.EmailVerified
}

// Threshold returns the configured qualification threshold.
func (e *Engine) Threshold() int { return e.threshold }

// Score maps an enriched lead to a qualification. Each criterion contributes
// independently; a lead qualifies iff the total is >= the threshold
// (inclusive, so a tie at the threshold qualifies).
func (e *Engine) Score(l *lead.Lead) lead.Qualification {
	c := l.Company
	dm := l.DecisionMaker

	breakdown := make(map[string]int)
	total := 0
	award := func(name string, pts int) {
		if pts <= 0 {
			return
		}
		breakdown[name] = pts
		total += pts
	}

	if c.Platform == lead.PlatformShopifyLike {
		award(CriterionPlatform, e.weights.PlatformMatch)
	}

	if c.EmployeeCount != nil {
		// Bands are ordered narrowest-first: the sweet spot beats any broader
		// acceptable band that also contains the count.
		for _, b := range e.bands {
			if b.contains(*c.EmployeeCount) {
				name := CriterionSizeGood
				if b.Name != "" {
					name = "company_size_" + b.Name
				}
				award(name, b.Points)
				break
			}
		}
	}

	if _, ok := e.countries[strings.ToUpper(strings.TrimSpace(c.Country))]; ok {
		award(CriterionGeography, e.weights.TargetGeography)
	}

	if c.Platform == lead.PlatformShopifyLike || c.StoreURL != "" {
		award(CriterionEcommerce, e.weights.EcommercePresence)
	}

	if !c.SellsCompetingProduct {
		award(CriterionNoCompeting, e.weights.NoCompetingProduct)
	}

	if dm != nil && strings.TrimSpace(dm.Name) != "" {
		award(CriterionDecisionMaker, e.weights.DecisionMakerFound)
	}

	// An address string alone is worth nothing: only a VALID verification
	// status earns email points.
	if dm != nil && dm.Contact.Email != "" && dm.Contact.EmailStatus == lead.EmailValid {
		award(CriterionEmailVerified, e.weights.EmailVerified)
	}

	qualified := total >= e.threshold
	return lead.Qualification{
		Score:     total,
		Qualified: qualified,
		Breakdown: breakdown,
		FitNotes:  fitNotes(breakdown, qualified),
	}
}

func fitNotes(breakdown map[string]int, qualified bool) string {
	var strengths, gaps []string

	if _, ok := breakdown[CriterionPlatform]; ok {
		strengths = append(strengths, "target platform")
	} else {
		gaps = append(gaps, "platform not confirmed")
	}
	if _, ok := breakdown[CriterionSizeSweetSpot]; ok {
		strengths = append(strengths, "ideal company size")
	}
	if _, ok := breakdown[CriterionGeography]; ok {
		strengths = append(strengths, "target geography")
	}
	if _, ok := breakdown[CriterionDecisionMaker]; ok {
		strengths = append(strengths, "decision maker identified")
	} else {
		gaps = append(gaps, "no decision maker found")
	}
	if _, ok := breakdown[CriterionEmailVerified]; !ok {
		gaps = append(gaps, "no verified email")
	}

	var notes []string
	if len(strengths) > 0 {
		notes = append(notes, "Strengths: "+strings.Join(strengths, ", "))
	}
	if len(gaps) > 0 && !qualified {
		notes = append(notes, "Gaps: "+strings.Join(gaps, ", "))
	}
	if len(notes) == 0 {
		return "Scoring complete"
	}
	return strings.Join(notes, ". ")
}
