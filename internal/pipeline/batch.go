package pipeline

import (
	"context"
	"sync"

	"github.com/gohub-dev/leadflow/internal/lead"
)

// BatchOptions holds the batch-processing knobs.
type BatchOptions struct {
	Workers int
	Segment lead.Segment
	Source  string
}

func (o BatchOptions) withDefaults() BatchOptions {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.Source == "" {
		o.Source = "batch"
	}
	return o
}

// Summary aggregates one batch run.
type Summary struct {
	Total            int
	Duplicates       int
	Excluded         int
	Failed           int
	Qualified        int
	Disqualified     int
	Degraded         int
	ProviderDisabled bool
	Canceled         bool
}

// Run processes a batch of candidate URLs concurrently. Cancellation stops
// dispatching new candidates; in-flight candidates finish, short-circuiting
// their remaining enrichment, and their leads are still returned. Output
// order follows input order with duplicates dropped.
func (o *Orchestrator) Run(ctx context.Context, urls []string, opts BatchOptions) ([]*lead.Lead, Summary) {
	opts = opts.withDefaults()

	type job struct {
		idx int
		url string
	}
	type completion struct {
		idx int
		l   *lead.Lead
	}

	jobs := make(chan job)
	done := make(chan completion, opts.Workers)

	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				done <- completion{idx: j.idx, l: o.Process(ctx, j.url, opts.Segment, opts.Source)}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, u := range urls {
			select {
			case jobs <- job{idx: i, url: u}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	slots := make([]*lead.Lead, len(urls))
	completed := 0
	for c := range done {
		slots[c.idx] = c.l
		completed++
	}

	summary := Summary{Canceled: ctx.Err() != nil}
	if o.Enricher != nil {
		summary.ProviderDisabled = o.Enricher.Disabled()
	}

	var out []*lead.Lead
	for _, l := range slots {
		if l == nil {
			continue
		}
		out = append(out, l)
		summary.Total++
		switch l.Status {
		case lead.StatusExcluded:
			summary.Excluded++
		case lead.StatusFailed:
			summary.Failed++
		case lead.StatusQualified:
			summary.Qualified++
		case lead.StatusDisqualified:
			summary.Disqualified++
		}
		if len(l.Degraded()) > 0 {
			summary.Degraded++
		}
	}
	summary.Duplicates = completed - summary.Total

	return out, summary
}
