// Package pipeline drives one candidate URL through verification, screening,
// enrichment, scoring and copy generation. Stages accumulate onto the lead
// record; a stage that cannot produce data degrades the lead instead of
// failing the run.
package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gohub-dev/leadflow/internal/enrich"
	"github.com/gohub-dev/leadflow/internal/lead"
	"github.com/gohub-dev/leadflow/internal/outreach"
	"github.com/gohub-dev/leadflow/internal/provider"
	"github.com/gohub-dev/leadflow/internal/score"
	"github.com/gohub-dev/leadflow/internal/screen"
	"github.com/gohub-dev/leadflow/internal/verify"
)

// Stage names used in lead audit notes.
const (
	StageVerify  = "verify"
	StageScreen  = "screen"
	StageCompany = "company"
	StagePeople  = "people"
	StageEmail   = "email"
	StageScore   = "score"
	StageCopy    = "copy"
)

// Verifier classifies the platform of a candidate site.
type Verifier interface {
	Verify(ctx context.Context, rawURL string) verify.Result
}

// Enricher is the provider surface the orchestrator needs. Satisfied by
// *enrich.Gateway.
type Enricher interface {
	Name() string
	Disabled() bool
	CompanyProfile(ctx context.Context, domain string) (enrich.CompanyProfile, error)
	DecisionMakers(ctx context.Context, domain string, titleFilter []string) ([]enrich.Person, error)
	FindEmail(ctx context.Context, person enrich.Person, companyDomain string) (enrich.EmailResult, error)
}

// Orchestrator wires the stages together. Safe for concurrent use: all
// mutable state lives on the lead or behind the dedup set's lock.
type Orchestrator struct {
	Verifier    Verifier
	Enricher    Enricher
	Engine      *score.Engine
	Writer      outreach.Writer
	Exclusions  *screen.Exclusions
	Dedup       *screen.DedupSet
	TitleFilter []string

	// Logf receives per-stage diagnostics. Nil disables logging.
	Logf func(format string, args ...any)
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.Logf != nil {
		o.Logf(format, args...)
	}
}

// validateURL rejects candidates that cannot name a host. A bad URL fails
// only its own candidate, never the batch.
func validateURL(raw string) error {
	s := strings.TrimSpace(raw)
	if s == "" {
		return fmt.Errorf("empty url")
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if u.Host == "" || !strings.Contains(u.Host, ".") {
		return fmt.Errorf("url has no usable host: %q", raw)
	}
	return nil
}

// competingSignals mark companies that already sell the prescription product
// we would be pitching.
var competingSignals = []string{
	"prescription glasses",
	"prescription lenses",
	"prescription sunglasses",
	"prescription eyewear",
	"rx lenses",
	"rx glasses",
}

func sellsCompetingProduct(texts ...string) bool {
	for _, t := range texts {
		t = strings.ToLower(t)
		for _, sig := range competingSignals {
			if strings.Contains(t, sig) {
				return true
			}
		}
	}
	return false
}

// Process drives one candidate end to end. Returns nil when the URL is a
// duplicate already claimed by this run. Every non-duplicate candidate comes
// back as a lead, scored unless the screen excluded it.
func (o *Orchestrator) Process(ctx context.Context, rawURL string, segment lead.Segment, source string) *lead.Lead {
	if err := validateURL(rawURL); err != nil {
		l := lead.New(rawURL, source)
		l.Company.Segment = segment
		l.Status = lead.StatusFailed
		l.Record(StageVerify, "failed: %v", err)
		o.logf("invalid candidate url=%q: %v", rawURL, err)
		return l
	}
	if o.Dedup != nil && !o.Dedup.Claim(rawURL) {
		o.logf("skip duplicate url=%s", rawURL)
		return nil
	}

	l := lead.New(rawURL, source)
	l.Company.Segment = segment

	o.verifyStage(ctx, l)

	if term := o.screenStage(l); term != "" {
		return l
	}

	o.companyStage(ctx, l)
	o.peopleStage(ctx, l)
	o.emailStage(ctx, l)
	o.scoreStage(l)
	o.copyStage(ctx, l)

	return l
}

func (o *Orchestrator) verifyStage(ctx context.Context, l *lead.Lead) {
	if o.Verifier == nil {
		l.Record(StageVerify, "skipped: no verifier configured")
		return
	}
	res := o.Verifier.Verify(ctx, l.Company.Website)
	l.Company.Platform = res.Platform
	l.Company.StoreURL = res.StoreURL
	l.Company.PrimaryDomain = lead.Domain(res.StoreURL)
	if l.Company.Name == "" {
		l.Company.Name = res.StoreName
	}
	if l.Company.Description == "" {
		l.Company.Description = res.Description
	}
	if l.Company.Country == "" {
		l.Company.Country = res.CountryHint
	}

	switch {
	case res.Err != nil:
		l.Record(StageVerify, "degraded: %v", res.Err)
		o.logf("verify url=%s platform=%s err=%v", l.Company.Website, res.Platform, res.Err)
	default:
		l.Record(StageVerify, "ok: platform=%s confidence=%s method=%s", res.Platform, res.Confidence, res.Method)
		o.logf("verify url=%s platform=%s confidence=%s", l.Company.Website, res.Platform, res.Confidence)
	}
}

// screenStage applies the exclusion list. An excluded lead is terminal and is
// never scored.
func (o *Orchestrator) screenStage(l *lead.Lead) string {
	if o.Exclusions == nil {
		return ""
	}
	term := o.Exclusions.Match(l.Company.Name, l.Company.Website)
	if term == "" {
		l.Record(StageScreen, "ok")
		return ""
	}
	l.Status = lead.StatusExcluded
	l.Record(StageScreen, "excluded: matched %q", term)
	o.logf("exclude url=%s term=%q", l.Company.Website, term)
	return term
}

func (o *Orchestrator) companyStage(ctx context.Context, l *lead.Lead) {
	if o.skipIfDone(ctx, l, StageCompany) {
		return
	}
	profile, err := o.Enricher.CompanyProfile(ctx, lead.Domain(l.Company.Website))
	if err != nil {
		l.Record(StageCompany, "degraded: %v", err)
		o.logf("company url=%s err=%v", l.Company.Website, err)
		return
	}
	if profile.Name != "" {
		l.Company.Name = profile.Name
	}
	if profile.Country != "" {
		l.Company.Country = profile.Country
	}
	if profile.Industry != "" {
		l.Company.Industry = profile.Industry
	}
	if profile.Description != "" {
		l.Company.Description = profile.Description
	}
	if profile.EmployeeCount != nil {
		l.Company.EmployeeCount = profile.EmployeeCount
	}
	l.Company.SellsCompetingProduct = sellsCompetingProduct(l.Company.Name, l.Company.Description)
	l.Record(StageCompany, "ok")
}

func (o *Orchestrator) peopleStage(ctx context.Context, l *lead.Lead) {
	if o.skipIfDone(ctx, l, StagePeople) {
		return
	}
	filter := o.TitleFilter
	if len(filter) == 0 {
		filter = enrich.DefaultTitleFilter
	}
	people, err := o.Enricher.DecisionMakers(ctx, lead.Domain(l.Company.Website), filter)
	if err != nil {
		l.Record(StagePeople, "degraded: %v", err)
		o.logf("people url=%s err=%v", l.Company.Website, err)
		return
	}
	person, ok := enrich.PickDecisionMaker(people, filter)
	if !ok {
		l.Record(StagePeople, "degraded: no decision maker found")
		return
	}
	l.DecisionMaker = &lead.DecisionMaker{
		Name:       person.Name,
		Title:      person.Title,
		ProfileURL: person.ProfileURL,
		Location:   person.Location,
		Contact:    lead.ContactInfo{Email: person.Email, EmailStatus: lead.EmailUnverified},
	}
	l.Record(StagePeople, "ok: %s (%s)", person.Name, person.Title)
}

func (o *Orchestrator) emailStage(ctx context.Context, l *lead.Lead) {
	if l.DecisionMaker == nil {
		l.Record(StageEmail, "skipped: no decision maker")
		return
	}
	if o.skipIfDone(ctx, l, StageEmail) {
		return
	}
	person := enrich.Person{
		Name:  l.DecisionMaker.Name,
		Title: l.DecisionMaker.Title,
		Email: l.DecisionMaker.Contact.Email,
	}
	res, err := o.Enricher.FindEmail(ctx, person, lead.Domain(l.Company.Website))
	if err != nil {
		l.Record(StageEmail, "degraded: %v", err)
		o.logf("email url=%s err=%v", l.Company.Website, err)
		return
	}
	if res.Email == "" {
		l.Record(StageEmail, "degraded: no address found")
		return
	}
	l.DecisionMaker.Contact.Email = res.Email
	l.DecisionMaker.Contact.EmailStatus = res.Status
	if res.Phone != "" {
		l.DecisionMaker.Contact.Phone = res.Phone
	}
	l.Record(StageEmail, "ok: status=%s", res.Status)
}

// scoreStage runs exactly once per lead, over whatever data the earlier
// stages managed to collect.
func (o *Orchestrator) scoreStage(l *lead.Lead) {
	l.Qualification = o.Engine.Score(l)
	if l.Qualification.Qualified {
		l.Status = lead.StatusQualified
	} else {
		l.Status = lead.StatusDisqualified
	}
	l.Record(StageScore, "ok: score=%d qualified=%t", l.Qualification.Score, l.Qualification.Qualified)
	o.logf("score url=%s score=%d qualified=%t", l.Company.Website, l.Qualification.Score, l.Qualification.Qualified)
}

// copyStage generates outreach copy for qualified leads. Failure degrades the
// lead; the scored record still reaches the export.
func (o *Orchestrator) copyStage(ctx context.Context, l *lead.Lead) {
	if !l.Qualification.Qualified {
		l.Record(StageCopy, "skipped: not qualified")
		return
	}
	if o.Writer == nil {
		l.Record(StageCopy, "skipped: no copywriter configured")
		return
	}
	if ctx.Err() != nil {
		l.Record(StageCopy, "skipped: run canceled")
		return
	}
	copyOut, err := o.Writer.Generate(ctx, l)
	if err != nil {
		l.Record(StageCopy, "degraded: %v", err)
		o.logf("copy url=%s err=%v", l.Company.Website, err)
		return
	}
	l.Outreach = &copyOut
	l.Record(StageCopy, "ok")
}

// skipIfDone short-circuits an enrichment stage when the run is canceled or
// the enricher is missing or dead. The lead still proceeds to scoring.
func (o *Orchestrator) skipIfDone(ctx context.Context, l *lead.Lead, stage string) bool {
	if ctx.Err() != nil {
		l.Record(stage, "skipped: run canceled")
		return true
	}
	if o.Enricher == nil {
		l.Record(stage, "skipped: no enrichment provider configured")
		return true
	}
	if o.Enricher.Disabled() {
		l.Record(stage, "skipped: %v",
			provider.Errorf(o.Enricher.Name(), stage, provider.KindAuthFailed, "provider disabled after earlier auth failure"))
		return true
	}
	return false
}
