package util_test

import (
	"strings"
	"testing"

	"github.com/gohub-dev/leadflow/internal/util"
)

func TestRedactSecrets(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		deny string
	}{
		{"bearer", `Get "https://x": 401 Bearer eyJhbGciOiJIUzI1NiJ9.abc`, "eyJhbGci"},
		{"hunter api key", `https://api.hunter.io/v2/domain-search?domain=x&api_key=sk_live_1234`, "sk_live_1234"},
		{"kv form", `config error: gemini_api_key=AIzaSyDeadBeef`, "AIzaSyDeadBeef"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			out := util.RedactSecrets(tc.in)
			if strings.Contains(out, tc.deny) {
				t.Fatalf("secret leaked: %q", out)
			}
		})
	}

	if out := util.RedactSecrets("plain error with no secrets"); out != "plain error with no secrets" {
		t.Fatalf("harmless string mangled: %q", out)
	}
}
