// Package app wires configuration into pipeline components and drives the
// command-level runs.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gohub-dev/leadflow/internal/config"
	"github.com/gohub-dev/leadflow/internal/discovery"
	"github.com/gohub-dev/leadflow/internal/enrich"
	"github.com/gohub-dev/leadflow/internal/enrich/hunterio"
	"github.com/gohub-dev/leadflow/internal/export"
	"github.com/gohub-dev/leadflow/internal/lead"
	"github.com/gohub-dev/leadflow/internal/outreach"
	outreachgemini "github.com/gohub-dev/leadflow/internal/outreach/gemini"
	"github.com/gohub-dev/leadflow/internal/pipeline"
	"github.com/gohub-dev/leadflow/internal/provider"
	"github.com/gohub-dev/leadflow/internal/screen"
	"github.com/gohub-dev/leadflow/internal/verify"
)

// Options collects everything a run needs beyond the config file.
type Options struct {
	Config  config.Config
	Segment lead.Segment

	// Offline swaps every external provider for its deterministic stub.
	Offline bool

	// SkipExport suppresses the end-of-run export. The summary is still
	// logged; nothing lands on disk.
	SkipExport bool

	HunterAPIKey string
	GeminiAPIKey string
	GeminiModel  string
	SerpAPIKey   string
	SerpActor    string

	Logger *log.Logger
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.New(os.Stdout, "", log.LstdFlags)
}

// newLogf returns a logger function that prefixes every line with the run id.
func newLogf(logger *log.Logger, runID string) func(format string, args ...any) {
	return func(format string, args ...any) {
		prefix := make([]any, 0, len(args)+1)
		prefix = append(prefix, runID)
		prefix = append(prefix, args...)
		logger.Printf("run=%s "+format, prefix...)
	}
}

func (o Options) policy() provider.Policy {
	p := provider.DefaultPolicy()
	if o.Config.Pipeline.MaxRetries > 0 {
		p.MaxAttempts = o.Config.Pipeline.MaxRetries
	}
	return p
}

func (o Options) enricher(logf func(string, ...any)) (pipeline.Enricher, error) {
	if o.Offline || o.HunterAPIKey == "" {
		logf("enrichment provider: stub (offline or no key)")
		return enrich.NewGateway(
			tracedProvider{next: enrich.Stub{}, logf: logf},
			o.policy(),
			o.Config.Enrichment.RateLimitRPS,
		), nil
	}
	client, err := hunterio.New(hunterio.Config{
		APIKey:  o.HunterAPIKey,
		BaseURL: o.Config.Enrichment.BaseURL,
		Timeout: o.Config.Pipeline.RequestTimeout.Std(),
	})
	if err != nil {
		return nil, err
	}
	logf("enrichment provider: %s", client.Name())
	return enrich.NewGateway(
		tracedProvider{next: client, logf: logf},
		o.policy(),
		o.Config.Enrichment.RateLimitRPS,
	), nil
}

func (o Options) writer(ctx context.Context, logf func(string, ...any)) (outreach.Writer, error) {
	guard := func(w outreach.Writer) outreach.Writer {
		return outreach.NewGuard(w, o.policy(),
			o.Config.Copywriter.RateLimitRPS, o.Config.Pipeline.RequestTimeout.Std())
	}
	if o.Offline || o.GeminiAPIKey == "" {
		logf("copywriter: stub (offline or no key)")
		return guard(outreach.Stub{}), nil
	}
	model := o.GeminiModel
	if model == "" {
		model = "gemini-2.5-flash"
	}
	w, err := outreachgemini.New(ctx, outreachgemini.Config{
		APIKey:  o.GeminiAPIKey,
		Model:   model,
		BaseURL: o.Config.Copywriter.BaseURL,
		Timeout: o.Config.Pipeline.RequestTimeout.Std(),
	})
	if err != nil {
		return nil, err
	}
	logf("copywriter: gemini")
	return guard(w), nil
}

func (o Options) finder(logf func(string, ...any)) (discovery.Finder, error) {
	if o.Offline || o.SerpAPIKey == "" {
		return nil, fmt.Errorf("search requires a SERP API key")
	}
	c, err := discovery.New(discovery.ClientConfig{
		Token:   o.SerpAPIKey,
		Actor:   o.SerpActor,
		BaseURL: o.Config.Discovery.BaseURL,
		Timeout: o.Config.Pipeline.RequestTimeout.Std(),
	})
	if err != nil {
		return nil, err
	}
	logf("discovery provider: serp")
	return c, nil
}

func (o Options) orchestrator(ctx context.Context, logf func(string, ...any)) (*pipeline.Orchestrator, error) {
	engine, err := o.Config.Engine()
	if err != nil {
		return nil, err
	}
	enricher, err := o.enricher(logf)
	if err != nil {
		return nil, err
	}
	writer, err := o.writer(ctx, logf)
	if err != nil {
		return nil, err
	}
	return &pipeline.Orchestrator{
		Verifier:   verify.New(verify.Options{Timeout: o.Config.Pipeline.RequestTimeout.Std()}),
		Enricher:   enricher,
		Engine:     engine,
		Writer:     writer,
		Exclusions: screen.NewExclusions(o.Config.Exclusions),
		Dedup:      screen.NewDedupSet(),
		Logf:       logf,
	}, nil
}

// Verify classifies candidate URLs without enrichment or scoring and prints
// one line per candidate. Returns the number of candidates that could not be
// fetched at all.
func Verify(ctx context.Context, opts Options, urls []string) (int, error) {
	logger := opts.logger()
	runID := "run-" + uuid.NewString()[:8]
	logf := newLogf(logger, runID)

	v := verify.New(verify.Options{Timeout: opts.Config.Pipeline.RequestTimeout.Std()})
	start := time.Now()
	failures := 0
	for _, u := range urls {
		res := v.Verify(ctx, u)
		if res.Err != nil {
			failures++
			logf("verify url=%s platform=%s err=%v", u, res.Platform, res.Err)
		} else {
			logf("verify url=%s platform=%s confidence=%s method=%s store=%q",
				u, res.Platform, res.Confidence, res.Method, res.StoreName)
		}
		if err := ctx.Err(); err != nil {
			return failures, err
		}
	}
	logf("verify complete: candidates=%d failures=%d duration=%s",
		len(urls), failures, time.Since(start).Round(time.Millisecond))
	return failures, nil
}

// Process runs the full pipeline over the candidate URLs and exports the
// results unless SkipExport is set. The export is best effort: any failure
// to persist is logged, never returned.
func Process(ctx context.Context, opts Options, urls []string) (pipeline.Summary, error) {
	logger := opts.logger()
	runID := "run-" + uuid.NewString()[:8]
	logf := newLogf(logger, runID)
	start := time.Now()

	o, err := opts.orchestrator(ctx, logf)
	if err != nil {
		return pipeline.Summary{}, err
	}

	logf("process start: candidates=%d workers=%d segment=%s",
		len(urls), opts.Config.Pipeline.Workers, opts.Segment)

	leads, summary := o.Run(ctx, urls, pipeline.BatchOptions{
		Workers: opts.Config.Pipeline.Workers,
		Segment: opts.Segment,
		Source:  "manual",
	})

	logf("process complete: total=%d qualified=%d disqualified=%d excluded=%d failed=%d duplicates=%d degraded=%d canceled=%t duration=%s",
		summary.Total, summary.Qualified, summary.Disqualified, summary.Excluded,
		summary.Failed, summary.Duplicates, summary.Degraded, summary.Canceled,
		time.Since(start).Round(time.Millisecond))

	if opts.SkipExport {
		logf("export skipped")
	} else {
		exportLeads(logf, opts.Config.ExportDir, leads)
	}
	if summary.ProviderDisabled {
		return summary, fmt.Errorf("enrichment provider disabled after auth failure; results are partial")
	}
	if summary.Failed > 0 {
		return summary, fmt.Errorf("%d candidate(s) failed on invalid input", summary.Failed)
	}
	return summary, nil
}

// Search discovers candidate storefront URLs for a segment's keyword set.
func Search(ctx context.Context, opts Options, segment string, maxResults int) ([]string, error) {
	logger := opts.logger()
	runID := "run-" + uuid.NewString()[:8]
	logf := newLogf(logger, runID)

	keywords, ok := opts.Config.Keywords[segment]
	if !ok || len(keywords) == 0 {
		return nil, fmt.Errorf("no keywords configured for segment %q", segment)
	}
	finder, err := opts.finder(logf)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	urls, err := finder.Search(ctx, keywords, opts.Config.TargetCountries, maxResults)
	if err != nil {
		return nil, err
	}
	logf("search complete: segment=%s keywords=%d results=%d duration=%s",
		segment, len(keywords), len(urls), time.Since(start).Round(time.Millisecond))
	return urls, nil
}

// Pilot processes the configured sample candidates end to end.
func Pilot(ctx context.Context, opts Options) (pipeline.Summary, error) {
	if len(opts.Config.Samples) == 0 {
		return pipeline.Summary{}, fmt.Errorf("no samples configured")
	}
	urls := make([]string, 0, len(opts.Config.Samples))
	for _, s := range opts.Config.Samples {
		urls = append(urls, s.URL)
	}
	return Process(ctx, opts, urls)
}

// exportLeads is best effort end to end: a broken sink, or even an
// unwritable export dir, never fails a run whose leads are already scored.
func exportLeads(logf func(string, ...any), dir string, leads []*lead.Lead) {
	if dir == "" {
		dir = "out"
	}

	jsonPath := filepath.Join(dir, "leads.json")
	if err := export.WriteJSON(jsonPath, leads); err != nil {
		logf("save leads failed: %v", err)
	} else {
		logf("saved %d leads to %s", len(leads), jsonPath)
	}

	sink := export.CSVDir{Dir: dir}
	if err := sink.Append(context.Background(), export.Partition(leads)); err != nil {
		logf("export failed (leads preserved in %s): %v", jsonPath, err)
		return
	}
	logf("exported %d sheets to %s", len(export.SheetNames()), dir)
}

// tracedProvider logs every provider request and response with timings.
type tracedProvider struct {
	next enrich.Provider
	logf func(format string, args ...any)
}

func (t tracedProvider) Name() string { return t.next.Name() }

func (t tracedProvider) CompanyProfile(ctx context.Context, domain string) (enrich.CompanyProfile, error) {
	start := time.Now()
	out, err := t.next.CompanyProfile(ctx, domain)
	t.trace("company-profile", domain, start, err)
	return out, err
}

func (t tracedProvider) DecisionMakers(ctx context.Context, domain string, titleFilter []string) ([]enrich.Person, error) {
	start := time.Now()
	out, err := t.next.DecisionMakers(ctx, domain, titleFilter)
	t.trace("decision-makers", domain, start, err)
	return out, err
}

func (t tracedProvider) FindEmail(ctx context.Context, person enrich.Person, companyDomain string) (enrich.EmailResult, error) {
	start := time.Now()
	out, err := t.next.FindEmail(ctx, person, companyDomain)
	t.trace("find-email", companyDomain, start, err)
	return out, err
}

func (t tracedProvider) trace(op, domain string, start time.Time, err error) {
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		kind := "unknown"
		if k, ok := provider.KindOf(err); ok {
			kind = strings.ToLower(k.String())
		}
		t.logf("%s %s: domain=%s duration=%s status=error kind=%s error=%q",
			t.next.Name(), op, domain, elapsed, kind, err.Error())
		return
	}
	t.logf("%s %s: domain=%s duration=%s status=ok", t.next.Name(), op, domain, elapsed)
}
