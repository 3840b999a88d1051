// Package verify classifies which e-commerce platform a candidate site runs on.
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/gohub-dev/leadflow/internal/lead"
)

// Confidence grades the evidence behind a platform classification.
type Confidence string

const (
	// ConfidenceStrong means the machine-readable catalog endpoint answered.
	ConfidenceStrong Confidence = "strong"
	// ConfidenceLikely means only asset-host or markup signatures matched.
	ConfidenceLikely Confidence = "likely"
	ConfidenceNone   Confidence = "none"
)

// Result is the outcome of a verification attempt. Err is informational:
// verification failure is never fatal to the pipeline.
type Result struct {
	Platform   lead.Platform
	Confidence Confidence
	Method     string
	StoreURL   string

	// Store metadata scraped opportunistically from the page.
	StoreName   string
	Description string
	CountryHint string

	Err error
}

// assetSignatures are substrings whose presence in the page source marks a
// Shopify-family storefront.
var assetSignatures = []string{
	"cdn.shopify.com",
	"shopify.com/s/",
	"shopify.theme",
	"shopify-section",
	`name="shopify-`,
	"window.shopify",
}

var currencyRe = regexp.MustCompile(`Shopify\.currency\s*=\s*\{?\s*"?(?:active"?\s*:\s*)?"([A-Z]{3})"`)

// currencyCountry maps storefront currency codes to a country hint. EUR is
// ambiguous and intentionally absent.
var currencyCountry = map[string]string{
	"USD": "US", "GBP": "GB", "CAD": "CA", "AUD": "AU", "CHF": "CH",
	"SEK": "SE", "NOK": "NO", "DKK": "DK", "JPY": "JP", "NZD": "NZ",
}

// tldCountry maps country-code TLDs to ISO country codes.
var tldCountry = map[string]string{
	".co.uk": "GB", ".uk": "GB", ".de": "DE", ".fr": "FR", ".es": "ES",
	".it": "IT", ".nl": "NL", ".be": "BE", ".at": "AT", ".ch": "CH",
	".se": "SE", ".no": "NO", ".dk": "DK", ".fi": "FI", ".pt": "PT",
	".ie": "IE", ".ca": "CA", ".au": "AU", ".nz": "NZ",
}

type Options struct {
	Timeout   time.Duration
	UserAgent string
}

// Verifier checks candidate sites read-only. Idempotent: no side effects
// beyond the network calls.
type Verifier struct {
	http      *http.Client
	userAgent string
}

func New(opts Options) *Verifier {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}
	return &Verifier{
		http: &http.Client{
			Timeout: opts.Timeout,
		},
		userAgent: opts.UserAgent,
	}
}

// Verify classifies the platform of a candidate URL. Attempts, in priority
// order: the product-catalog endpoint (strong evidence), then page-source
// signatures (likely). Network failure or a non-2xx answer classifies as
// UNKNOWN with the error recorded.
func (v *Verifier) Verify(ctx context.Context, rawURL string) Result {
	storeURL, err := canonicalURL(rawURL)
	if err != nil {
		return Result{
			Platform:   lead.PlatformUnknown,
			Confidence: ConfidenceNone,
			StoreURL:   rawURL,
			Err:        err,
		}
	}

	res := Result{
		Platform:    lead.PlatformUnknown,
		Confidence:  ConfidenceNone,
		StoreURL:    storeURL,
		CountryHint: countryFromTLD(storeURL),
	}

	if ok, err := v.checkCatalog(ctx, storeURL); ok {
		res.Platform = lead.PlatformShopifyLike
		res.Confidence = ConfidenceStrong
		res.Method = "catalog:products.json"
	} else if err != nil {
		res.Err = err
	}

	// Fetch the page even on a strong match: it carries the store name,
	// description and country hints used downstream.
	page, pageErr := v.fetchPage(ctx, storeURL)
	if pageErr != nil {
		if res.Err == nil {
			res.Err = pageErr
		}
		return res
	}

	res.StoreName = page.name
	res.Description = page.description
	if page.countryHint != "" {
		res.CountryHint = page.countryHint
	}

	if res.Confidence == ConfidenceStrong {
		return res
	}

	if page.signature != "" {
		res.Platform = lead.PlatformShopifyLike
		res.Confidence = ConfidenceLikely
		res.Method = "source:" + page.signature
		res.Err = nil
		return res
	}

	// The page answered but carries no platform signature.
	res.Platform = lead.PlatformCustom
	res.Err = nil
	return res
}

func (v *Verifier) checkCatalog(ctx context.Context, storeURL string) (bool, error) {
	base, err := url.Parse(storeURL)
	if err != nil {
		return false, err
	}
	// The catalog endpoint lives at the store root even when the candidate
	// URL points into a collection.
	base.Path = "/products.json"
	base.RawQuery = ""
	body, err := v.get(ctx, base.String(), "application/json")
	if err != nil {
		return false, err
	}

	var catalog struct {
		Products []json.RawMessage `json:"products"`
	}
	if err := json.Unmarshal(body, &catalog); err != nil {
		return false, nil // 200 but not a catalog: weak, not an error
	}
	return catalog.Products != nil, nil
}

type pageInfo struct {
	signature   string
	name        string
	description string
	countryHint string
}

func (v *Verifier) fetchPage(ctx context.Context, storeURL string) (pageInfo, error) {
	body, err := v.get(ctx, storeURL, "text/html")
	if err != nil {
		return pageInfo{}, err
	}

	var info pageInfo
	html := string(body)
	lower := strings.ToLower(html)
	for _, sig := range assetSignatures {
		if strings.Contains(lower, sig) {
			info.signature = sig
			break
		}
	}

	if m := currencyRe.FindStringSubmatch(html); m != nil {
		info.countryHint = currencyCountry[m[1]]
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return info, nil // signatures already extracted; markup parse is best effort
	}
	if info.signature == "" {
		doc.Find("script[src], link[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			src, _ := s.Attr("src")
			if src == "" {
				src, _ = s.Attr("href")
			}
			if strings.Contains(strings.ToLower(src), "cdn.shopify.com") {
				info.signature = "asset:cdn.shopify.com"
				return false
			}
			return true
		})
	}
	if info.signature == "" {
		if gen, ok := doc.Find(`meta[name="generator"]`).Attr("content"); ok &&
			strings.Contains(strings.ToLower(gen), "shopify") {
			info.signature = "meta:generator"
		}
	}

	info.name = strings.TrimSpace(doc.Find("title").First().Text())
	if og, ok := doc.Find(`meta[property="og:site_name"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		info.name = strings.TrimSpace(og)
	}
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		info.description = strings.TrimSpace(desc)
	}
	return info, nil
}

func (v *Verifier) get(ctx context.Context, u, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", v.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := v.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode/100 != 2 {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, fmt.Errorf("GET %s: status %s", u, resp.Status)
	}
	const maxBody = 4 << 20
	return io.ReadAll(io.LimitReader(resp.Body, maxBody))
}

func canonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}
	return u.String(), nil
}

func countryFromTLD(storeURL string) string {
	host := lead.Domain(storeURL)
	// Longest suffix first so .co.uk beats .uk.
	best := ""
	bestLen := 0
	for tld, cc := range tldCountry {
		if strings.HasSuffix(host, tld) && len(tld) > bestLen {
			best = cc
			bestLen = len(tld)
		}
	}
	return best
}
