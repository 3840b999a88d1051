// Package mockhunter implements a minimal Hunter-style enrichment API for
// local harness runs and tests. Responses are deterministic per domain, and
// fault injection is driven by substrings in the queried domain:
//
//	"ratelimited"  429 on every request
//	"authfail"     401 on every request
//	"down"         500 on every request
//	"empty"        well-formed response with no data
package mockhunter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// Call records a request made to the mock service.
type Call struct {
	Method string
	Path   string
	Domain string
}

// Server implements the three endpoints the enrichment client uses.
type Server struct {
	mu             sync.Mutex
	calls          []Call
	expectedAPIKey string
}

func New() *Server {
	return &Server{}
}

// RequireAPIKey enforces that requests carry a matching api_key query
// parameter. An empty key disables enforcement.
func (s *Server) RequireAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expectedAPIKey = strings.TrimSpace(key)
}

// Handler returns an http.Handler that serves the mock API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/domain-search", s.handleDomainSearch)
	mux.HandleFunc("/v2/email-finder", s.handleEmailFinder)
	mux.HandleFunc("/v2/email-verifier", s.handleEmailVerifier)
	return mux
}

// Calls returns a snapshot of calls made to the server.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *Server) recordCall(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{
		Method: r.Method,
		Path:   r.URL.Path,
		Domain: r.URL.Query().Get("domain"),
	})
}

func (s *Server) authorize(w http.ResponseWriter, r *http.Request) bool {
	s.mu.Lock()
	expected := s.expectedAPIKey
	s.mu.Unlock()

	if expected == "" {
		return true
	}
	if r.URL.Query().Get("api_key") != expected {
		writeError(w, http.StatusUnauthorized, "authentication_failed", "invalid API key")
		return false
	}
	return true
}

// injectFault answers a canned failure when the domain asks for one.
func injectFault(w http.ResponseWriter, domain string) bool {
	switch {
	case strings.Contains(domain, "ratelimited"):
		writeError(w, http.StatusTooManyRequests, "too_many_requests", "rate limit exceeded")
		return true
	case strings.Contains(domain, "authfail"):
		writeError(w, http.StatusUnauthorized, "authentication_failed", "invalid API key")
		return true
	case strings.Contains(domain, "down"):
		writeError(w, http.StatusInternalServerError, "internal_error", "temporary upstream failure")
		return true
	}
	return false
}

func (s *Server) handleDomainSearch(w http.ResponseWriter, r *http.Request) {
	s.recordCall(r)
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorize(w, r) {
		return
	}
	domain := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("domain")))
	if domain == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "domain is required")
		return
	}
	if injectFault(w, domain) {
		return
	}

	data := map[string]any{}
	if !strings.Contains(domain, "empty") {
		data = map[string]any{
			"organization": orgName(domain),
			"industry":     "Retail",
			"country":      "de",
			"description":  "Direct to consumer storefront",
			"headcount":    "11-50",
			"emails": []map[string]any{
				{
					"value":      "alex@" + domain,
					"first_name": "Alex",
					"last_name":  "Beispiel",
					"position":   "CEO",
					"seniority":  "executive",
					"linkedin":   "https://linkedin.com/in/alex-beispiel",
					"confidence": 94,
				},
				{
					"value":      "sam@" + domain,
					"first_name": "Sam",
					"last_name":  "Muster",
					"position":   "E-Commerce Manager",
					"seniority":  "senior",
					"confidence": 81,
				},
			},
		}
	}
	writeJSON(w, map[string]any{"data": data})
}

func (s *Server) handleEmailFinder(w http.ResponseWriter, r *http.Request) {
	s.recordCall(r)
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorize(w, r) {
		return
	}
	q := r.URL.Query()
	domain := strings.ToLower(strings.TrimSpace(q.Get("domain")))
	first := strings.ToLower(strings.TrimSpace(q.Get("first_name")))
	if domain == "" || first == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "domain and first_name are required")
		return
	}
	if injectFault(w, domain) {
		return
	}
	if strings.Contains(domain, "empty") {
		writeJSON(w, map[string]any{"data": map[string]any{}})
		return
	}
	writeJSON(w, map[string]any{"data": map[string]any{
		"email": first + "@" + domain,
		"score": 91,
	}})
}

func (s *Server) handleEmailVerifier(w http.ResponseWriter, r *http.Request) {
	s.recordCall(r)
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorize(w, r) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email")))
	if email == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "email is required")
		return
	}
	if injectFault(w, email) {
		return
	}

	status := "valid"
	switch {
	case strings.Contains(email, "bounce"):
		status = "invalid"
	case strings.Contains(email, "catchall"):
		status = "accept_all"
	}
	writeJSON(w, map[string]any{"data": map[string]any{
		"status": status,
		"score":  88,
	}})
}

func orgName(domain string) string {
	base := strings.SplitN(domain, ".", 2)[0]
	if base == "" {
		return "Example Store"
	}
	return strings.ToUpper(base[:1]) + base[1:]
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, id, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `{"errors":[{"id":%q,"details":%q}]}`, id, details)
}
