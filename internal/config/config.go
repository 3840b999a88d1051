// Package config loads the persisted run configuration. Scoring weights,
// size bands, target countries, exclusions and thresholds are supplied here,
// never hard-coded in the engine.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gohub-dev/leadflow/internal/score"
)

// Duration decodes YAML scalars like "30s" into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		out, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, perr)
		}
		*d = Duration(out)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	*d = Duration(time.Duration(n))
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Pipeline holds the batch-processing knobs.
type Pipeline struct {
	Workers        int      `yaml:"workers"`
	MaxRetries     int      `yaml:"max_retries"`
	RequestTimeout Duration `yaml:"request_timeout"`
}

// Provider holds per-provider connection settings. RateLimitRPS is a shared
// ceiling across all workers, not per worker.
type Provider struct {
	BaseURL      string  `yaml:"base_url"`
	RateLimitRPS float64 `yaml:"rate_limit_rps"`
}

// Scoring is the injected qualification configuration.
type Scoring struct {
	Weights   score.Weights    `yaml:"weights"`
	SizeBands []score.SizeBand `yaml:"size_bands"`
	Threshold int              `yaml:"threshold"`
}

// Sample is one pilot candidate URL.
type Sample struct {
	URL     string `yaml:"url"`
	Segment string `yaml:"segment"`
}

// Config is the full run configuration.
type Config struct {
	TargetCountries []string            `yaml:"target_countries"`
	Exclusions      []string            `yaml:"exclusions"`
	Scoring         Scoring             `yaml:"scoring"`
	Keywords        map[string][]string `yaml:"keywords"`
	Samples         []Sample            `yaml:"samples"`
	Pipeline        Pipeline            `yaml:"pipeline"`
	Enrichment      Provider            `yaml:"enrichment"`
	Copywriter      Provider            `yaml:"copywriter"`
	Discovery       Provider            `yaml:"discovery"`
	ExportDir       string              `yaml:"export_dir"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		TargetCountries: []string{
			"US", "GB", "IE", "DE", "AT", "CH", "FR", "NL", "BE",
			"ES", "IT", "PT", "FI", "SE", "DK", "NO", "CA", "AU",
		},
		Scoring: Scoring{
			Weights: score.Weights{
				PlatformMatch:      20,
				TargetGeography:    15,
				EcommercePresence:  10,
				NoCompetingProduct: 15,
				DecisionMakerFound: 10,
				EmailVerified:      5,
			},
			SizeBands: []score.SizeBand{
				{Name: "sweet_spot", Min: 20, Max: 50, Points: 15},
				{Name: "good", Min: 51, Max: 200, Points: 10},
			},
			Threshold: 60,
		},
		Pipeline: Pipeline{
			Workers:        4,
			MaxRetries:     3,
			RequestTimeout: Duration(30 * time.Second),
		},
		ExportDir: "out",
	}
}

// Load reads a YAML config file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, cfg.Validate()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(strings.NewReader(string(b)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the invariants the scoring engine depends on.
func (c Config) Validate() error {
	if c.Pipeline.Workers < 0 {
		return fmt.Errorf("pipeline.workers must be >= 0")
	}
	if c.Pipeline.MaxRetries < 0 {
		return fmt.Errorf("pipeline.max_retries must be >= 0")
	}
	eng, err := score.NewEngine(c.Scoring.Weights, c.Scoring.SizeBands, c.TargetCountries, c.Scoring.Threshold)
	if err != nil {
		return fmt.Errorf("scoring config: %w", err)
	}
	// A score above 100 is only reachable through misconfigured weights.
	if max := eng.MaxScore(); max > 100 {
		return fmt.Errorf("scoring weights sum to %d, must not exceed 100", max)
	}
	if c.Scoring.Threshold > eng.MaxScore() {
		return fmt.Errorf("threshold %d is unreachable (max score %d)", c.Scoring.Threshold, eng.MaxScore())
	}
	return nil
}

// Engine builds the scoring engine from a validated configuration.
func (c Config) Engine() (*score.Engine, error) {
	return score.NewEngine(c.Scoring.Weights, c.Scoring.SizeBands, c.TargetCountries, c.Scoring.Threshold)
}

// Env helpers for per-invocation overrides.

func EnvInt(varName string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func EnvFloat(varName string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func EnvDuration(varName string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func EnvBool(varName string) (bool, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return false, nil
	}
	out, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}
