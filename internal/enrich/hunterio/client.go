// Package hunterio implements the enrichment provider contract against a
// Hunter.io-style v2 API.
package hunterio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gohub-dev/leadflow/internal/enrich"
	"github.com/gohub-dev/leadflow/internal/lead"
	"github.com/gohub-dev/leadflow/internal/provider"
)

const providerName = "hunter"

// confidenceFloor is the minimum finder score treated as a verified address.
const confidenceFloor = 80

type Config struct {
	APIKey string

	// BaseURL overrides the API base URL. Useful for proxies/testing.
	BaseURL string

	Timeout time.Duration
}

// Client is a minimal HTTP client for the three endpoints this module uses.
type Client struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
}

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("HUNTER_API_KEY is required")
	}
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		raw = "https://api.hunter.io"
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
	u.Path = strings.TrimRight(u.Path, "/")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: u,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) Name() string { return providerName }

type domainSearchResponse struct {
	Data struct {
		Organization string `json:"organization"`
		Industry     string `json:"industry"`
		Country      string `json:"country"`
		Description  string `json:"description"`
		Headcount    string `json:"headcount"`
		Emails       []struct {
			Value      string `json:"value"`
			FirstName  string `json:"first_name"`
			LastName   string `json:"last_name"`
			Position   string `json:"position"`
			Seniority  string `json:"seniority"`
			LinkedIn   string `json:"linkedin"`
			Confidence int    `json:"confidence"`
			PhoneNum   string `json:"phone_number"`
		} `json:"emails"`
	} `json:"data"`
}

func (c *Client) CompanyProfile(ctx context.Context, domain string) (enrich.CompanyProfile, error) {
	const op = "domain-search"

	q := url.Values{}
	q.Set("domain", domain)
	q.Set("limit", "10")

	var out domainSearchResponse
	if err := c.get(ctx, op, "/v2/domain-search", q, &out); err != nil {
		return enrich.CompanyProfile{}, err
	}
	if strings.TrimSpace(out.Data.Organization) == "" && len(out.Data.Emails) == 0 {
		return enrich.CompanyProfile{}, provider.Errorf(providerName, op, provider.KindNotFound, "no data for domain %s", domain)
	}

	return enrich.CompanyProfile{
		Name:          strings.TrimSpace(out.Data.Organization),
		Industry:      strings.TrimSpace(out.Data.Industry),
		Country:       strings.ToUpper(strings.TrimSpace(out.Data.Country)),
		Description:   strings.TrimSpace(out.Data.Description),
		EmployeeCount: headcountEstimate(out.Data.Headcount),
	}, nil
}

func (c *Client) DecisionMakers(ctx context.Context, domain string, titleFilter []string) ([]enrich.Person, error) {
	const op = "decision-makers"

	q := url.Values{}
	q.Set("domain", domain)
	q.Set("limit", "10")
	q.Set("seniority", "executive,senior")

	var out domainSearchResponse
	if err := c.get(ctx, op, "/v2/domain-search", q, &out); err != nil {
		return nil, err
	}

	var people []enrich.Person
	for _, e := range out.Data.Emails {
		name := strings.TrimSpace(strings.TrimSpace(e.FirstName) + " " + strings.TrimSpace(e.LastName))
		if name == "" {
			continue
		}
		people = append(people, enrich.Person{
			Name:       name,
			Title:      strings.TrimSpace(e.Position),
			ProfileURL: strings.TrimSpace(e.LinkedIn),
			Email:      strings.TrimSpace(e.Value),
		})
	}
	if len(people) == 0 {
		return nil, provider.Errorf(providerName, op, provider.KindNotFound, "no people for domain %s", domain)
	}
	if picked, ok := enrich.PickDecisionMaker(people, titleFilter); ok {
		// Provider order is preserved behind the priority pick.
		rest := make([]enrich.Person, 0, len(people)-1)
		for _, p := range people {
			if p != picked {
				rest = append(rest, p)
			}
		}
		people = append([]enrich.Person{picked}, rest...)
	}
	return people, nil
}

type emailFinderResponse struct {
	Data struct {
		Email       string `json:"email"`
		Score       int    `json:"score"`
		PhoneNumber string `json:"phone_number"`
	} `json:"data"`
}

type emailVerifierResponse struct {
	Data struct {
		Status string `json:"status"`
		Score  int    `json:"score"`
	} `json:"data"`
}

func (c *Client) FindEmail(ctx context.Context, person enrich.Person, companyDomain string) (enrich.EmailResult, error) {
	const op = "email-finder"

	email := strings.TrimSpace(person.Email)
	if email == "" {
		first, last := splitName(person.Name)
		if first == "" {
			return enrich.EmailResult{}, provider.Errorf(providerName, op, provider.KindNotFound, "person has no usable name")
		}
		q := url.Values{}
		q.Set("domain", companyDomain)
		q.Set("first_name", first)
		q.Set("last_name", last)

		var out emailFinderResponse
		if err := c.get(ctx, op, "/v2/email-finder", q, &out); err != nil {
			return enrich.EmailResult{}, err
		}
		email = strings.TrimSpace(out.Data.Email)
		if email == "" {
			return enrich.EmailResult{}, provider.Errorf(providerName, op, provider.KindNotFound, "no email for %s at %s", person.Name, companyDomain)
		}
		if out.Data.Score >= confidenceFloor {
			return enrich.EmailResult{Email: email, Status: lead.EmailValid, Phone: out.Data.PhoneNumber}, nil
		}
	}

	status, err := c.verifyEmail(ctx, email)
	if err != nil {
		// The address exists even if verification failed; report it unverified.
		return enrich.EmailResult{Email: email, Status: lead.EmailUnverified}, nil
	}
	return enrich.EmailResult{Email: email, Status: status}, nil
}

func (c *Client) verifyEmail(ctx context.Context, email string) (lead.EmailStatus, error) {
	q := url.Values{}
	q.Set("email", email)

	var out emailVerifierResponse
	if err := c.get(ctx, "email-verifier", "/v2/email-verifier", q, &out); err != nil {
		return lead.EmailUnknown, err
	}
	switch strings.ToLower(out.Data.Status) {
	case "valid", "deliverable":
		return lead.EmailValid, nil
	case "invalid", "undeliverable":
		return lead.EmailInvalid, nil
	default: // accept_all, webmail, unknown
		return lead.EmailUnknown, nil
	}
}

func (c *Client) get(ctx context.Context, op, path string, q url.Values, out any) error {
	u := *c.baseURL
	u.Path = u.Path + path
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return provider.Errorf(providerName, op, provider.KindUnavailable, "build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransport(op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return provider.Errorf(providerName, op, provider.KindUnavailable, "read response: %v", err)
	}
	if resp.StatusCode/100 != 2 {
		return classifyStatus(op, resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return provider.Errorf(providerName, op, provider.KindUnavailable, "parse response: %v", err)
	}
	return nil
}

func classifyStatus(op string, status int, body []byte) error {
	kind := provider.KindUnavailable
	switch {
	case status == http.StatusTooManyRequests:
		kind = provider.KindRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = provider.KindAuthFailed
	case status == http.StatusNotFound:
		kind = provider.KindNotFound
	case status/100 == 4:
		// Other 4xx are bad requests on our side; retrying cannot help.
		return provider.Errorf(providerName, op, provider.KindNotFound, "status %d: %s", status, errHint(body))
	}
	return provider.Errorf(providerName, op, kind, "status %d: %s", status, errHint(body))
}

func classifyTransport(op string, err error) error {
	if err == nil {
		return nil
	}
	return &provider.Error{Provider: providerName, Op: op, Kind: provider.KindUnavailable, Err: err}
}

// errHint extracts a short sanitized message from an error envelope.
// Raw bodies are never propagated: they can echo the request URL with its key.
func errHint(body []byte) string {
	var env struct {
		Errors []struct {
			Details string `json:"details"`
			ID      string `json:"id"`
		} `json:"errors"`
	}
	if json.Unmarshal(body, &env) == nil && len(env.Errors) > 0 {
		hint := env.Errors[0].Details
		if hint == "" {
			hint = env.Errors[0].ID
		}
		if len(hint) > 120 {
			hint = hint[:120] + "..."
		}
		return hint
	}
	return "no error detail"
}

// headcountEstimate parses provider headcount ranges like "11-50" or "51-200"
// into a representative employee count (the range midpoint).
func headcountEstimate(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var lo, hi int
	if n, err := fmt.Sscanf(s, "%d-%d", &lo, &hi); err == nil && n == 2 && hi >= lo {
		mid := (lo + hi) / 2
		return &mid
	}
	if n, err := fmt.Sscanf(s, "%d+", &lo); err == nil && n == 1 {
		return &lo
	}
	return nil
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(strings.TrimSpace(full))
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
