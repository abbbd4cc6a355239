// Package config provides engine configuration loading and validation,
// vendor model metadata, and encrypted secret storage.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names for vendor API keys.
const (
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvGoogleKey    = "GEMINI_API_KEY"
)

// DefaultOllamaHost is the local Ollama endpoint used when none is configured.
const DefaultOllamaHost = "http://localhost:11434"

// Transport holds vendor credentials and endpoints for the model-call
// boundary. Keys left empty are resolved from secrets or environment at
// validation time.
type Transport struct {
	AnthropicAPIKey string        `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string        `yaml:"openai_api_key"`
	GoogleAPIKey    string        `yaml:"google_api_key"`
	OllamaHost      string        `yaml:"ollama_host"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`

	// ollamaDefaulted records that OllamaHost was filled by Normalize rather
	// than configured, so Validate can tell a real local setup from none.
	ollamaDefaulted bool
}

// Config is the engine configuration. A zero value plus Normalize() yields a
// working setup as long as at least one vendor key is available.
type Config struct {
	// DefaultModel answers every call that routing could not place.
	DefaultModel string `yaml:"default_model"`
	// TriageModel runs the classification step.
	TriageModel string `yaml:"triage_model"`
	// JudgeModel answers the convergence question.
	JudgeModel string `yaml:"judge_model"`
	// Observability retains transcript and plan in results, and enables
	// transcript archival. It never changes execution decisions.
	Observability bool `yaml:"observability"`
	// ArchivePath is the SQLite file for transcript archival ("" disables).
	ArchivePath string `yaml:"archive_path"`
	// PrometheusURL is the endpoint usage reports query ("" disables them).
	PrometheusURL string `yaml:"prometheus_url"`

	Transport Transport `yaml:"transport"`

	// Routing selects the strategy by name and carries its knobs.
	Routing RoutingConfig `yaml:"routing"`

	// Limits caps per-vendor usage. Zero values disable enforcement.
	Limits LimitsConfig `yaml:"limits"`
}

// LimitsConfig caps vendor API usage. Applied per vendor, not globally.
type LimitsConfig struct {
	// TokensPerMinute bounds estimated token throughput per vendor.
	TokensPerMinute int `yaml:"tokens_per_minute"`
	// DailyBudgetUSD bounds estimated spend per vendor per calendar day.
	DailyBudgetUSD float64 `yaml:"daily_budget_usd"`
}

// RoutingConfig selects and parameterizes the routing strategy.
type RoutingConfig struct {
	// Strategy: auto (default model only), pool, diversity, role, specialized,
	// tiered, or cost.
	Strategy string `yaml:"strategy"`
	// Pool is the flat candidate pool for pool/diversity strategies.
	Pool []string `yaml:"pool"`
	// RolePools maps role names to ordered candidate lists.
	RolePools map[string][]string `yaml:"role_pools"`
	// TierPools maps tier names (T0..T3) to ordered candidate lists.
	TierPools map[string][]string `yaml:"tier_pools"`
	// MaxPerVendor caps selections per vendor per round (diversity variants).
	MaxPerVendor int `yaml:"max_per_vendor"`
	// PremiumModel / BudgetModel parameterize the tiered strategy.
	PremiumModel string `yaml:"premium_model"`
	BudgetModel  string `yaml:"budget_model"`
	// QualityThreshold is reserved for cost-aware tier escalation. The
	// current selection logic never reads it.
	QualityThreshold float64 `yaml:"quality_threshold"`
}

// Load reads a YAML config file and normalizes it. A missing path yields the
// normalized defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	cfg.Normalize()
	return cfg, nil
}

// Normalize fills unset fields with defaults and resolves credentials from
// the secrets store / environment.
func (c *Config) Normalize() {
	if c.DefaultModel == "" {
		c.DefaultModel = DefaultModel
	}
	if c.TriageModel == "" {
		c.TriageModel = DefaultTriageModel
	}
	if c.JudgeModel == "" {
		c.JudgeModel = DefaultJudgeModel
	}
	if c.Transport.OllamaHost == "" {
		c.Transport.OllamaHost = DefaultOllamaHost
		c.Transport.ollamaDefaulted = true
	}
	if c.Transport.RequestTimeout <= 0 {
		c.Transport.RequestTimeout = 120 * time.Second
	}
	if c.Routing.Strategy == "" {
		c.Routing.Strategy = "auto"
	}
	if c.Routing.MaxPerVendor <= 0 {
		c.Routing.MaxPerVendor = 2
	}

	if c.Transport.AnthropicAPIKey == "" {
		c.Transport.AnthropicAPIKey, _ = GetSecret(EnvAnthropicKey)
	}
	if c.Transport.OpenAIAPIKey == "" {
		c.Transport.OpenAIAPIKey, _ = GetSecret(EnvOpenAIKey)
	}
	if c.Transport.GoogleAPIKey == "" {
		c.Transport.GoogleAPIKey, _ = GetSecret(EnvGoogleKey)
	}
}

// Validate checks that the configuration can actually run a deliberation.
func (c *Config) Validate() error {
	if err := ValidateModelID(c.DefaultModel); err != nil {
		return fmt.Errorf("default_model: %w", err)
	}
	if err := ValidateModelID(c.TriageModel); err != nil {
		return fmt.Errorf("triage_model: %w", err)
	}
	if err := ValidateModelID(c.JudgeModel); err != nil {
		return fmt.Errorf("judge_model: %w", err)
	}

	t := &c.Transport
	if t.AnthropicAPIKey == "" && t.OpenAIAPIKey == "" && t.GoogleAPIKey == "" &&
		(t.OllamaHost == "" || t.ollamaDefaulted) {
		return fmt.Errorf("no vendor credentials configured: set at least one of %s, %s, %s or an ollama host",
			EnvAnthropicKey, EnvOpenAIKey, EnvGoogleKey)
	}

	switch c.Routing.Strategy {
	case "auto", "pool", "diversity", "role", "specialized", "tiered", "cost":
	default:
		return fmt.Errorf("unknown routing strategy %q", c.Routing.Strategy)
	}

	return nil
}
