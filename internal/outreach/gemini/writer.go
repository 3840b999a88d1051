// Package gemini generates outreach copy with the Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/gohub-dev/leadflow/internal/lead"
	"github.com/gohub-dev/leadflow/internal/outreach"
	"github.com/gohub-dev/leadflow/internal/provider"
)

const providerName = "gemini"

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string

	// Timeout bounds each API request. Zero leaves requests bounded only by
	// the caller's context.
	Timeout time.Duration
}

type Writer struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, cfg Config) (*Writer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("GEMINI_MODEL is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}
	if cfg.Timeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Writer{
		client: client,
		model:  strings.TrimSpace(cfg.Model),
	}, nil
}

type responseSchema struct {
	ConnectionRequest string `json:"connection_request"`
	Followup          string `json:"followup"`
	EmailSubject      string `json:"email_subject"`
	EmailBody         string `json:"email_body"`
}

var outputSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"connection_request": {Type: genai.TypeString},
		"followup":           {Type: genai.TypeString},
		"email_subject":      {Type: genai.TypeString},
		"email_body":         {Type: genai.TypeString},
	},
	Required: []string{
		"connection_request",
		"followup",
		"email_subject",
		"email_body",
	},
}

func (w *Writer) Generate(ctx context.Context, l *lead.Lead) (lead.OutreachCopy, error) {
	resp, err := w.client.Models.GenerateContent(
		ctx,
		w.model,
		genai.Text(buildPrompt(l)),
		&genai.GenerateContentConfig{
			CandidateCount:   1,
			ResponseMIMEType: "application/json",
			ResponseSchema:   outputSchema,
		},
	)
	if err != nil {
		return lead.OutreachCopy{}, classifyErr(err)
	}

	var parsed responseSchema
	if err := json.Unmarshal([]byte(resp.Text()), &parsed); err != nil {
		return lead.OutreachCopy{}, fmt.Errorf("gemini: parse structured json: %w", err)
	}

	out := lead.OutreachCopy{
		ConnectionRequest: strings.TrimSpace(parsed.ConnectionRequest),
		Followup:          strings.TrimSpace(parsed.Followup),
		EmailSubject:      strings.TrimSpace(parsed.EmailSubject),
		EmailBody:         strings.TrimSpace(parsed.EmailBody),
	}
	if len(out.ConnectionRequest) > outreach.MaxConnectionRequestLen {
		out.ConnectionRequest = strings.TrimSpace(out.ConnectionRequest[:outreach.MaxConnectionRequestLen])
	}
	return out, nil
}

func buildPrompt(l *lead.Lead) string {
	var b strings.Builder
	b.WriteString(`You write concise B2B outreach for a plug-and-play prescription-eyewear
platform that lets online stores add prescription lenses to their existing
catalog without inventory, lab partnerships or regulatory work.

Write for the company below. Return ONLY a single JSON object with these keys:
- connection_request (string; max 280 characters, no links)
- followup (string; 2-3 sentences)
- email_subject (string)
- email_body (string; under 150 words, professional but approachable)

Rules:
- Reference the company's segment and market, never invent facts.
- Focus on business value, not technical features.

`)
	c := l.Company
	fmt.Fprintf(&b, "Company: %s\nWebsite: %s\n", c.Name, c.Website)
	if c.Segment != "" {
		fmt.Fprintf(&b, "Segment: %s\n", c.Segment)
	}
	if c.Country != "" {
		fmt.Fprintf(&b, "Country: %s\n", c.Country)
	}
	if c.Description != "" {
		fmt.Fprintf(&b, "About: %s\n", c.Description)
	}
	if dm := l.DecisionMaker; dm != nil {
		fmt.Fprintf(&b, "Recipient: %s", dm.Name)
		if dm.Title != "" {
			fmt.Fprintf(&b, " (%s)", dm.Title)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func classifyErr(err error) error {
	// Normalize transient failures so the shared retry policy applies.
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429:
			return &provider.Error{Provider: providerName, Op: "generate", Kind: provider.KindRateLimited, Err: err}
		case apiErr.Code/100 == 5:
			return &provider.Error{Provider: providerName, Op: "generate", Kind: provider.KindUnavailable, Err: err}
		case apiErr.Code == 401 || apiErr.Code == 403:
			return &provider.Error{Provider: providerName, Op: "generate", Kind: provider.KindAuthFailed, Err: err}
		}
		return err
	}
	var ne net.Error
	if errors.As(err, &ne) && (ne.Timeout() || ne.Temporary()) {
		return &provider.Error{Provider: providerName, Op: "generate", Kind: provider.KindUnavailable, Err: err}
	}
	return err
}
