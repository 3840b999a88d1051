// Package screen applies the exclusion list and in-run URL deduplication
// before a candidate reaches enrichment or scoring.
package screen

import (
	"strings"
	"sync"

	"github.com/gohub-dev/leadflow/internal/lead"
)

// Exclusions is a configured set of company identities that must never be
// processed. Matching is a case-insensitive substring check against both the
// company name and the normalized website URL.
type Exclusions struct {
	terms []string
}

func NewExclusions(terms []string) *Exclusions {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return &Exclusions{terms: out}
}

// Match returns the exclusion term that matched, or "" when the company is
// allowed through.
func (e *Exclusions) Match(companyName, website string) string {
	if e == nil {
		return ""
	}
	name := strings.ToLower(companyName)
	site := lead.NormalizeURL(website)
	for _, term := range e.terms {
		if strings.Contains(name, term) || strings.Contains(site, term) {
			return term
		}
	}
	return ""
}

// DedupSet is the run-scoped set of claimed lead identities. Claim is atomic
// check-and-set so two workers cannot both win the same URL.
type DedupSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDedupSet() *DedupSet {
	return &DedupSet{seen: make(map[string]struct{})}
}

// Claim normalizes the URL and claims it for this run. It returns false if
// the identity was already claimed.
func (d *DedupSet) Claim(rawURL string) bool {
	key := lead.NormalizeURL(rawURL)
	if key == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

// Len reports how many identities have been claimed.
func (d *DedupSet) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
