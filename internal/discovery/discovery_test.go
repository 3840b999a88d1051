package discovery_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gohub-dev/leadflow/internal/discovery"
	"github.com/gohub-dev/leadflow/internal/provider"
)

func TestStatic_Search(t *testing.T) {
	t.Parallel()

	f := discovery.Static{URLs: []string{"a.com", "b.com", "c.com"}}
	got, err := f.Search(context.Background(), nil, nil, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "a.com" {
		t.Fatalf("unexpected results: %v", got)
	}
}

func TestClient_Search(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "run-sync-get-dataset-items") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("token") != "tok" {
			t.Error("token not forwarded")
		}
		body, _ := io.ReadAll(r.Body)
		var in map[string]any
		if err := json.Unmarshal(body, &in); err != nil {
			t.Errorf("bad run input: %v", err)
		}
		if q, _ := in["queries"].(string); !strings.Contains(q, "site:myshopify.com") {
			t.Errorf("queries not platform-scoped: %q", q)
		}
		w.Write([]byte(`[
			{"organicResults":[{"url":"https://shadesco.myshopify.com"},{"url":"https://shadesco.myshopify.com"}]},
			{"organicResults":[{"url":"https://lenscraft.myshopify.com"},{"url":"https://frameworks.myshopify.com"}]}
		]`)) //nolint:errcheck
	}))
	defer srv.Close()

	c, err := discovery.New(discovery.ClientConfig{Token: "tok", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := c.Search(context.Background(), []string{"sunglasses shop"}, nil, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Duplicates pass through: dedup belongs to the pipeline, not here.
	if len(got) != 3 || got[0] != got[1] {
		t.Fatalf("unexpected results: %v", got)
	}
}

func TestClient_AuthRejection(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := discovery.New(discovery.ClientConfig{Token: "bad", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Search(context.Background(), []string{"pharmacy"}, nil, 5)
	if !provider.IsAuthFailed(err) {
		t.Fatalf("expected auth failure, got %v", err)
	}
}
