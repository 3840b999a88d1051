package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gohub-dev/leadflow/internal/app"
	"github.com/gohub-dev/leadflow/internal/config"
	"github.com/gohub-dev/leadflow/internal/lead"
	"github.com/gohub-dev/leadflow/internal/util"
	"github.com/gohub-dev/leadflow/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	case "version":
		fmt.Println(version.Current)
		return
	case "verify":
		os.Exit(runVerify(ctx, os.Args[2:]))
	case "process":
		os.Exit(runProcess(ctx, os.Args[2:]))
	case "search":
		os.Exit(runSearch(ctx, os.Args[2:]))
	case "pilot":
		os.Exit(runPilot(ctx, os.Args[2:]))
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
}

// commonFlags registers the flags every subcommand shares and returns the
// loader that builds run options after parsing.
func commonFlags(fs *flag.FlagSet) func() (app.Options, error) {
	configPath := fs.String("config", "", "YAML config file path (defaults apply when empty)")
	segment := fs.String("segment", string(lead.SegmentSunglasses), "Target segment: sunglasses, eyewear or e-pharmacy")
	offline := fs.Bool("offline", false, "Use deterministic offline stubs instead of live providers")
	exportDir := fs.String("export-dir", "", "Directory for CSV/JSON output (overrides config)")
	return func() (app.Options, error) {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return app.Options{}, err
		}
		if *exportDir != "" {
			cfg.ExportDir = *exportDir
		}
		workers, err := config.EnvInt("WORKERS", cfg.Pipeline.Workers)
		if err != nil {
			return app.Options{}, err
		}
		cfg.Pipeline.Workers = workers
		timeout, err := config.EnvDuration("REQUEST_TIMEOUT", cfg.Pipeline.RequestTimeout.Std())
		if err != nil {
			return app.Options{}, err
		}
		cfg.Pipeline.RequestTimeout = config.Duration(timeout)
		rps, err := config.EnvFloat("RATE_LIMIT_RPS", cfg.Enrichment.RateLimitRPS)
		if err != nil {
			return app.Options{}, err
		}
		cfg.Enrichment.RateLimitRPS = rps

		return app.Options{
			Config:       cfg,
			Segment:      lead.Segment(*segment),
			Offline:      *offline,
			HunterAPIKey: strings.TrimSpace(os.Getenv("HUNTER_API_KEY")),
			GeminiAPIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			GeminiModel:  strings.TrimSpace(os.Getenv("GEMINI_MODEL")),
			SerpAPIKey:   strings.TrimSpace(os.Getenv("SERP_API_TOKEN")),
			SerpActor:    strings.TrimSpace(os.Getenv("SERP_ACTOR")),
		}, nil
	}
}

func runVerify(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	load := commonFlags(fs)
	urlsFile := fs.String("urls", "", "File with one candidate URL per line")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	opts, err := load()
	if err != nil {
		return configError(err)
	}
	urls, err := candidateURLs(*urlsFile, fs.Args())
	if err != nil {
		return configError(err)
	}

	failures, err := app.Verify(ctx, opts, urls)
	if err != nil {
		return runError("verify", err)
	}
	if failures == len(urls) && len(urls) > 0 {
		_, _ = fmt.Fprintln(os.Stderr, "verify: no candidate could be fetched")
		return 1
	}
	return 0
}

func runProcess(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	load := commonFlags(fs)
	urlsFile := fs.String("urls", "", "File with one candidate URL per line")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	opts, err := load()
	if err != nil {
		return configError(err)
	}
	urls, err := candidateURLs(*urlsFile, fs.Args())
	if err != nil {
		return configError(err)
	}

	if _, err := app.Process(ctx, opts, urls); err != nil {
		return runError("process", err)
	}
	return 0
}

func runSearch(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	load := commonFlags(fs)
	maxResults := fs.Int("max-results", 50, "Maximum number of candidate URLs to return")
	process := fs.Bool("process", false, "Run the full pipeline over the discovered candidates")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	opts, err := load()
	if err != nil {
		return configError(err)
	}

	urls, err := app.Search(ctx, opts, string(opts.Segment), *maxResults)
	if err != nil {
		return runError("search", err)
	}
	if !*process {
		for _, u := range urls {
			fmt.Println(u)
		}
		return 0
	}
	if _, err := app.Process(ctx, opts, urls); err != nil {
		return runError("search", err)
	}
	return 0
}

func runPilot(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("pilot", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	load := commonFlags(fs)
	doExport := fs.Bool("export", false, "export the pilot results like a full process run")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	opts, err := load()
	if err != nil {
		return configError(err)
	}
	opts.SkipExport = !*doExport
	if _, err := app.Pilot(ctx, opts); err != nil {
		return runError("pilot", err)
	}
	return 0
}

// candidateURLs merges a urls file with positional URL arguments.
func candidateURLs(path string, args []string) ([]string, error) {
	urls := append([]string(nil), args...)
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open urls file: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			urls = append(urls, line)
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read urls file: %w", err)
		}
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no candidate URLs given (use --urls or positional arguments)")
	}
	return urls, nil
}

func configError(err error) int {
	_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", util.RedactSecrets(err.Error()))
	return 2
}

func runError(cmd string, err error) int {
	_, _ = fmt.Fprintf(os.Stderr, "%s run failed: %s\n", cmd, util.RedactSecrets(err.Error()))
	return 1
}

func usage(w *os.File) {
	_, _ = fmt.Fprintf(w, `leadflow: storefront lead discovery and qualification pipeline

Usage:
  leadflow <command> [flags] [url ...]

Commands:
  verify   Classify the platform of candidate URLs, nothing else
  search   Discover candidate storefront URLs for a segment
  process  Run candidates through verify, enrich, score, copy and export
  pilot    Process the sample candidates from the config file (--export to persist)
  version  Print the release version

Examples:
  leadflow verify https://shadesonline.example
  leadflow process --config config.yaml --urls candidates.txt
  leadflow search --segment sunglasses --max-results 25 --process

Environment:
  HUNTER_API_KEY   Enrichment provider key (stub is used when empty)
  GEMINI_API_KEY   Copywriter key (stub is used when empty)
  GEMINI_MODEL     Copywriter model name (optional)
  SERP_API_TOKEN   Discovery actor token (required for search)
  SERP_ACTOR       Discovery actor id (optional)
  WORKERS          Concurrent pipeline workers (overrides config)
  REQUEST_TIMEOUT  Per-request timeout, e.g. 30s (overrides config)
  RATE_LIMIT_RPS   Shared provider rate limit, 0 disables (overrides config)

`)
}
