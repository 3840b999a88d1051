// Command mockprovider serves a Hunter-style enrichment API with canned
// deterministic responses, for local pipeline runs without real credentials.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gohub-dev/leadflow/internal/mockhunter"
)

func main() {
	fs := flag.NewFlagSet("mockprovider", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	addr := fs.String("addr", "127.0.0.1:8787", "Listen address")
	apiKey := fs.String("api-key", "", "Require this api_key query parameter (empty disables auth)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	srv := mockhunter.New()
	srv.RequireAPIKey(*apiKey)

	logger := log.New(os.Stdout, "", log.LstdFlags)
	logger.Printf("mockprovider listening on %s (auth=%t)", *addr, strings.TrimSpace(*apiKey) != "")
	logger.Printf("fault injection: domains containing ratelimited/authfail/down/empty")

	if err := http.ListenAndServe(*addr, srv.Handler()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "mockprovider failed: %v\n", err)
		os.Exit(1)
	}
}
