// Package lead defines the accumulating record each pipeline stage writes into.
package lead

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Platform classifies the e-commerce platform a candidate site runs on.
type Platform string

const (
	PlatformShopifyLike Platform = "shopify_like"
	PlatformCustom      Platform = "custom"
	PlatformUnknown     Platform = "unknown"
)

// Segment tags a company with one of the target verticals.
type Segment string

const (
	SegmentEPharmacy  Segment = "e-pharmacy"
	SegmentSunglasses Segment = "sunglasses"
	SegmentEyewear    Segment = "eyewear"
)

// EmailStatus is the verification state of a found email address.
type EmailStatus string

const (
	EmailUnverified EmailStatus = "unverified"
	EmailValid      EmailStatus = "valid"
	EmailInvalid    EmailStatus = "invalid"
	EmailUnknown    EmailStatus = "unknown"
)

// Status is the lead lifecycle state reported in the Status export group.
type Status string

const (
	StatusNew          Status = "new"
	StatusQualified    Status = "qualified"
	StatusDisqualified Status = "disqualified"
	StatusExcluded     Status = "excluded"
	StatusFailed       Status = "failed"
)

type Company struct {
	Name          string
	Website       string
	StoreURL      string
	PrimaryDomain string
	Platform      Platform
	Segment       Segment
	Industry      string
	Country       string

	// EmployeeCount is nil when no size estimate was obtained.
	EmployeeCount *int

	Description string
	LinkedInURL string

	// SellsCompetingProduct flags companies that already sell the regulated
	// product we would be pitching (prescription eyewear).
	SellsCompetingProduct bool
}

type ContactInfo struct {
	Email       string
	EmailStatus EmailStatus
	Phone       string
}

type DecisionMaker struct {
	Name       string
	Title      string
	ProfileURL string
	Location   string
	Contact    ContactInfo
}

type Qualification struct {
	Score     int
	Qualified bool
	Breakdown map[string]int
	FitNotes  string
}

type OutreachCopy struct {
	ConnectionRequest string
	Followup          string
	EmailSubject      string
	EmailBody         string
}

// StageNote records one stage's outcome in the lead's audit trail.
type StageNote struct {
	Stage   string
	Outcome string // "ok", "skipped: ...", "degraded: ..."
}

// Lead is the aggregate record for one candidate URL. Identity is the
// company's normalized website URL.
type Lead struct {
	ID            string
	Company       Company
	DecisionMaker *DecisionMaker
	Qualification Qualification
	Outreach      *OutreachCopy
	Status        Status
	Source        string
	Audit         []StageNote
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// New creates an empty lead for a raw candidate URL.
func New(rawURL, source string) *Lead {
	now := time.Now().UTC()
	return &Lead{
		ID: uuid.NewString()[:8],
		Company: Company{
			Website:  strings.TrimSpace(rawURL),
			Platform: PlatformUnknown,
		},
		Status:    StatusNew,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Key returns the lead's dedup identity.
func (l *Lead) Key() string {
	return NormalizeURL(l.Company.Website)
}

// Record appends a stage note and bumps the updated timestamp.
func (l *Lead) Record(stage, format string, args ...any) {
	l.Audit = append(l.Audit, StageNote{Stage: stage, Outcome: fmt.Sprintf(format, args...)})
	l.UpdatedAt = time.Now().UTC()
}

// Degraded returns the stages whose note marks missing or skipped data.
func (l *Lead) Degraded() []string {
	var out []string
	for _, n := range l.Audit {
		if strings.HasPrefix(n.Outcome, "degraded") || strings.HasPrefix(n.Outcome, "skipped") {
			out = append(out, n.Stage)
		}
	}
	return out
}

// NormalizeURL reduces a URL to the dedup key: lowercase, scheme stripped,
// leading www stripped, trailing slash stripped. The path is kept so
// distinct storefronts under one host stay distinct.
func NormalizeURL(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	s = strings.TrimRight(s, "/")
	return s
}

// Domain extracts the bare host from a URL, for provider lookups.
func Domain(raw string) string {
	s := NormalizeURL(raw)
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	return s
}
