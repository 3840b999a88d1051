package mockhunter_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gohub-dev/leadflow/internal/enrich"
	"github.com/gohub-dev/leadflow/internal/enrich/hunterio"
	"github.com/gohub-dev/leadflow/internal/lead"
	"github.com/gohub-dev/leadflow/internal/mockhunter"
	"github.com/gohub-dev/leadflow/internal/provider"
)

func newClient(t *testing.T, ts *httptest.Server) *hunterio.Client {
	t.Helper()
	c, err := hunterio.New(hunterio.Config{APIKey: "test-key", BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return c
}

func TestServer_FullEnrichmentFlow(t *testing.T) {
	srv := mockhunter.New()
	srv.RequireAPIKey("test-key")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c := newClient(t, ts)
	ctx := context.Background()

	profile, err := c.CompanyProfile(ctx, "shadesonline.de")
	if err != nil {
		t.Fatalf("CompanyProfile: %v", err)
	}
	if profile.Name != "Shadesonline" || profile.Country != "DE" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if profile.EmployeeCount == nil || *profile.EmployeeCount != 30 {
		t.Fatalf("employee count = %v, want 30", profile.EmployeeCount)
	}

	people, err := c.DecisionMakers(ctx, "shadesonline.de", enrich.DefaultTitleFilter)
	if err != nil {
		t.Fatalf("DecisionMakers: %v", err)
	}
	if len(people) != 2 || people[0].Title != "CEO" {
		t.Fatalf("unexpected people: %+v", people)
	}

	res, err := c.FindEmail(ctx, people[0], "shadesonline.de")
	if err != nil {
		t.Fatalf("FindEmail: %v", err)
	}
	if res.Email != "alex@shadesonline.de" || res.Status != lead.EmailValid {
		t.Fatalf("unexpected email result: %+v", res)
	}

	if got := len(srv.Calls()); got < 3 {
		t.Fatalf("calls = %d, want at least 3", got)
	}
}

func TestServer_RejectsWrongKey(t *testing.T) {
	srv := mockhunter.New()
	srv.RequireAPIKey("right-key")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c, err := hunterio.New(hunterio.Config{APIKey: "wrong-key", BaseURL: ts.URL})
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.CompanyProfile(context.Background(), "shadesonline.de")
	if !provider.IsAuthFailed(err) {
		t.Fatalf("err = %v, want auth failure", err)
	}
}

func TestServer_FaultInjection(t *testing.T) {
	srv := mockhunter.New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c := newClient(t, ts)
	ctx := context.Background()

	_, err := c.CompanyProfile(ctx, "ratelimited.example")
	if kind, ok := provider.KindOf(err); !ok || kind != provider.KindRateLimited {
		t.Fatalf("err = %v, want rate limited", err)
	}

	_, err = c.CompanyProfile(ctx, "authfail.example")
	if !provider.IsAuthFailed(err) {
		t.Fatalf("err = %v, want auth failure", err)
	}

	_, err = c.CompanyProfile(ctx, "down.example")
	if kind, ok := provider.KindOf(err); !ok || kind != provider.KindUnavailable {
		t.Fatalf("err = %v, want unavailable", err)
	}

	_, err = c.CompanyProfile(ctx, "empty.example")
	if !provider.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
}
