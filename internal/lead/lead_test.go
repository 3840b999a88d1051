package lead_test

import (
	"testing"

	"github.com/gohub-dev/leadflow/internal/lead"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"https://Example.com/", "example.com"},
		{"example.com", "example.com"},
		{"http://www.Example.com", "example.com"},
		{"  https://shop.example.de/collections/sunglasses/  ", "shop.example.de/collections/sunglasses"},
		{"ashford.com/collections/sunglasses", "ashford.com/collections/sunglasses"},
	}
	for _, tc := range cases {
		if got := lead.NormalizeURL(tc.in); got != tc.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeURL_SameIdentity(t *testing.T) {
	t.Parallel()

	if lead.NormalizeURL("https://Example.com/") != lead.NormalizeURL("example.com") {
		t.Fatal("expected https://Example.com/ and example.com to share an identity")
	}
}

func TestDomain(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"https://www.ashford.com/collections/sunglasses", "ashford.com"},
		{"iron.paris", "iron.paris"},
		{"https://doktorabc.com/de", "doktorabc.com"},
		{"example.com?utm=x", "example.com"},
	}
	for _, tc := range cases {
		if got := lead.Domain(tc.in); got != tc.want {
			t.Errorf("Domain(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLead_RecordAndDegraded(t *testing.T) {
	t.Parallel()

	l := lead.New("https://example.com", "manual")
	if l.ID == "" || len(l.ID) != 8 {
		t.Fatalf("expected 8-char lead id, got %q", l.ID)
	}
	if l.Key() != "example.com" {
		t.Fatalf("unexpected key: %q", l.Key())
	}

	l.Record("verify", "ok")
	l.Record("company", "degraded: provider unavailable")
	l.Record("people", "skipped: provider disabled")
	l.Record("score", "ok")

	got := l.Degraded()
	if len(got) != 2 || got[0] != "company" || got[1] != "people" {
		t.Fatalf("unexpected degraded stages: %v", got)
	}
}
