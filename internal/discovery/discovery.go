// Package discovery is the boundary to the storefront discovery backend.
// The backend guarantees neither completeness nor absence of duplicates;
// dedup is the pipeline's job.
package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gohub-dev/leadflow/internal/provider"
)

// Finder searches for candidate storefront URLs.
type Finder interface {
	Search(ctx context.Context, keywords []string, geo []string, maxResults int) ([]string, error)
}

// Static serves a fixed candidate list; used for pilot runs.
type Static struct {
	URLs []string
}

func (s Static) Search(_ context.Context, _ []string, _ []string, maxResults int) ([]string, error) {
	out := s.URLs
	if maxResults > 0 && len(out) > maxResults {
		out = out[:maxResults]
	}
	return append([]string(nil), out...), nil
}

const providerName = "serp"

// Client queries an Apify-style search actor: one synchronous POST that runs
// the actor and returns its dataset items.
type Client struct {
	baseURL *url.URL
	token   string
	actor   string
	http    *http.Client
}

type ClientConfig struct {
	Token   string
	BaseURL string
	// Actor is the search actor identifier, e.g. "apify/google-search-scraper".
	Actor   string
	Timeout time.Duration
}

func New(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("discovery token is required")
	}
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		raw = "https://api.apify.com"
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base URL must include a host (got %q)", cfg.BaseURL)
	}
	actor := strings.TrimSpace(cfg.Actor)
	if actor == "" {
		actor = "apify/google-search-scraper"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL: u,
		token:   strings.TrimSpace(cfg.Token),
		actor:   actor,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

type runInput struct {
	Queries        string `json:"queries"`
	MaxPages       int    `json:"maxPagesPerQuery"`
	ResultsPerPage int    `json:"resultsPerPage"`
}

type datasetItem struct {
	OrganicResults []struct {
		URL string `json:"url"`
	} `json:"organicResults"`
}

// Search runs platform-scoped queries and returns candidate URLs in result
// order, capped at maxResults. Duplicate URLs may appear.
func (c *Client) Search(ctx context.Context, keywords []string, geo []string, maxResults int) ([]string, error) {
	const op = "actor-run"

	if len(keywords) == 0 {
		return nil, fmt.Errorf("at least one keyword is required")
	}
	if maxResults <= 0 {
		maxResults = 20
	}

	queries := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		queries = append(queries, kw+" site:myshopify.com")
	}

	body, err := json.Marshal(runInput{
		Queries:        strings.Join(queries, "\n"),
		MaxPages:       1,
		ResultsPerPage: maxResults,
	})
	if err != nil {
		return nil, err
	}

	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") +
		fmt.Sprintf("/v2/acts/%s/run-sync-get-dataset-items", url.PathEscape(strings.ReplaceAll(c.actor, "/", "~")))
	q := url.Values{}
	q.Set("token", c.token)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &provider.Error{Provider: providerName, Op: op, Kind: provider.KindUnavailable, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	rb, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, &provider.Error{Provider: providerName, Op: op, Kind: provider.KindUnavailable, Err: err}
	}
	if resp.StatusCode/100 != 2 {
		kind := provider.KindUnavailable
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			kind = provider.KindRateLimited
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = provider.KindAuthFailed
		}
		return nil, provider.Errorf(providerName, op, kind, "status %s", resp.Status)
	}

	var items []datasetItem
	if err := json.Unmarshal(rb, &items); err != nil {
		return nil, provider.Errorf(providerName, op, provider.KindUnavailable, "parse dataset: %v", err)
	}

	var out []string
	for _, item := range items {
		for _, r := range item.OrganicResults {
			u := strings.TrimSpace(r.URL)
			if u == "" {
				continue
			}
			out = append(out, u)
			if len(out) >= maxResults {
				return out, nil
			}
		}
	}
	return out, nil
}
