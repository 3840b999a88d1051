package verify_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gohub-dev/leadflow/internal/lead"
	"github.com/gohub-dev/leadflow/internal/verify"
)

func newVerifier() *verify.Verifier {
	return verify.New(verify.Options{Timeout: 2 * time.Second})
}

func TestVerify_CatalogEndpointIsStrongEvidence(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products.json":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"products":[{"id":1,"title":"Aviator"}]}`)) //nolint:errcheck
		default:
			w.Write([]byte(`<html><head><title>Aviator Shop</title><meta name="description" content="Sunglasses for pilots"></head><body></body></html>`)) //nolint:errcheck
		}
	}))
	defer srv.Close()

	res := newVerifier().Verify(context.Background(), srv.URL)
	if res.Platform != lead.PlatformShopifyLike || res.Confidence != verify.ConfidenceStrong {
		t.Fatalf("expected strong shopify_like, got %+v", res)
	}
	if res.Method != "catalog:products.json" {
		t.Fatalf("unexpected method: %q", res.Method)
	}
	if res.StoreName != "Aviator Shop" || res.Description != "Sunglasses for pilots" {
		t.Fatalf("store metadata not extracted: %+v", res)
	}
}

func TestVerify_SignatureMatchIsLikely(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/products.json" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<html><head><script src="https://cdn.shopify.com/s/files/theme.js"></script></head><body></body></html>`)) //nolint:errcheck
	}))
	defer srv.Close()

	res := newVerifier().Verify(context.Background(), srv.URL)
	if res.Platform != lead.PlatformShopifyLike || res.Confidence != verify.ConfidenceLikely {
		t.Fatalf("expected likely shopify_like, got %+v", res)
	}
}

func TestVerify_GeneratorMetaIsLikely(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/products.json" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<html><head><meta name="generator" content="Shopify"></head><body></body></html>`)) //nolint:errcheck
	}))
	defer srv.Close()

	res := newVerifier().Verify(context.Background(), srv.URL)
	if res.Platform != lead.PlatformShopifyLike || res.Method != "meta:generator" {
		t.Fatalf("expected generator-meta match, got %+v", res)
	}
}

func TestVerify_PlainSiteIsCustom(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/products.json" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<html><head><title>Plain Store</title></head><body>hello</body></html>`)) //nolint:errcheck
	}))
	defer srv.Close()

	res := newVerifier().Verify(context.Background(), srv.URL)
	if res.Platform != lead.PlatformCustom {
		t.Fatalf("expected custom platform, got %+v", res)
	}
	if res.Err != nil {
		t.Fatalf("healthy custom site must not carry an error: %v", res.Err)
	}
}

func TestVerify_ServerErrorIsUnknownNotFatal(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	res := newVerifier().Verify(context.Background(), srv.URL)
	if res.Platform != lead.PlatformUnknown {
		t.Fatalf("expected unknown on 5xx, got %+v", res)
	}
	if res.Err == nil {
		t.Fatal("expected the failure to be recorded")
	}
}

func TestVerify_UnreachableHostIsUnknown(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	res := newVerifier().Verify(context.Background(), srv.URL)
	if res.Platform != lead.PlatformUnknown || res.Err == nil {
		t.Fatalf("expected unknown with recorded error, got %+v", res)
	}
}

func TestVerify_MalformedURL(t *testing.T) {
	t.Parallel()

	res := newVerifier().Verify(context.Background(), "http://%zz")
	if res.Platform != lead.PlatformUnknown || res.Err == nil {
		t.Fatalf("expected unknown with parse error, got %+v", res)
	}
}

func TestVerify_CatalogCheckedAtStoreRoot(t *testing.T) {
	t.Parallel()

	var catalogPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/products.json" {
			catalogPath = r.URL.Path
			w.Write([]byte(`{"products":[]}`)) //nolint:errcheck
			return
		}
		w.Write([]byte(`<html></html>`)) //nolint:errcheck
	}))
	defer srv.Close()

	res := newVerifier().Verify(context.Background(), srv.URL+"/collections/sunglasses")
	if catalogPath != "/products.json" {
		t.Fatalf("catalog probed at %q, want store root", catalogPath)
	}
	if res.Platform != lead.PlatformShopifyLike {
		t.Fatalf("expected shopify_like, got %+v", res)
	}
}
