// Package config loads attune configuration from YAML with environment
// overrides. Durations are written as strings ("90s", "15m") and parsed on
// access so a config file stays human-editable.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all attune configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	LLM          LLMConfig          `yaml:"llm"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Consult      ConsultConfig      `yaml:"consult"`
	Repair       RepairConfig       `yaml:"repair"`
	Cache        CacheConfig        `yaml:"cache"`
	Training     TrainingConfig     `yaml:"training"`
	Memory       MemoryConfig       `yaml:"memory"`
	Rupture      RuptureConfig      `yaml:"rupture"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// LLMConfig configures the advisory/persona LLM backend.
type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini, stub
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	Timeout  string `yaml:"timeout"`
}

// OrchestratorConfig configures the request pipeline.
type OrchestratorConfig struct {
	SafetyGateEnabled bool `yaml:"safety_gate_enabled"`
	TypologyEnabled   bool `yaml:"typology_enabled"`
	// MaxDeferralHops caps agent-to-agent handoffs per request.
	MaxDeferralHops int `yaml:"max_deferral_hops"`
}

// ConsultConfig configures the external advisory round-trip.
type ConsultConfig struct {
	Enabled bool   `yaml:"enabled"`
	Timeout string `yaml:"timeout"`
	// ContextTurns is how many recent turns accompany a consultation.
	ContextTurns int `yaml:"context_turns"`
}

// RepairConfig configures the enhanced-repair gate policy.
type RepairConfig struct {
	// MinConfidence is the acceptance threshold for an advisory verdict.
	MinConfidence float64 `yaml:"min_confidence"`
}

// CacheConfig configures the shared TTL/LRU cache. Category TTLs are fixed
// at construction; there is no per-call override.
type CacheConfig struct {
	Capacity      int               `yaml:"capacity"`
	SweepInterval string            `yaml:"sweep_interval"`
	CategoryTTLs  map[string]string `yaml:"category_ttls"`
}

// TrainingConfig configures the rupture-repair training corpus sink.
type TrainingConfig struct {
	Dir string `yaml:"dir"`
}

// MemoryConfig configures the passive-witness store.
type MemoryConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// RuptureConfig configures the rupture classifier.
type RuptureConfig struct {
	// LexiconPath optionally overrides the built-in cue lists with a YAML
	// lexicon file, hot-reloaded on change.
	LexiconPath string `yaml:"lexicon_path"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Name:    "attune",
		Version: "0.3.0",
		LLM: LLMConfig{
			Provider: "stub",
			Model:    "gemini-2.0-flash",
			Timeout:  "90s",
		},
		Orchestrator: OrchestratorConfig{
			SafetyGateEnabled: true,
			TypologyEnabled:   true,
			MaxDeferralHops:   1,
		},
		Consult: ConsultConfig{
			Enabled:      true,
			Timeout:      "30s",
			ContextTurns: 6,
		},
		Repair: RepairConfig{
			MinConfidence: 0.7,
		},
		Cache: CacheConfig{
			Capacity:      1000,
			SweepInterval: "5m",
			CategoryTTLs: map[string]string{
				"typology":  "6h",
				"persona":   "1h",
				"userQuota": "15m",
			},
		},
		Training: TrainingConfig{Dir: ".attune/training"},
		Memory:   MemoryConfig{DatabasePath: ".attune/memory.db"},
		Logging:  LoggingConfig{Level: "info"},
	}
}

// Load reads the config file at path, merging over defaults. A missing file
// is not an error; env overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides lets deploy environments override secrets and the
// provider without touching the config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ATTUNE_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("ATTUNE_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("ATTUNE_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("ATTUNE_TRAINING_DIR"); v != "" {
		cfg.Training.Dir = v
	}
}

// ParseDuration parses a duration string, falling back when empty or
// malformed. Malformed values degrade rather than fail startup.
func ParseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// ResolveTTLs parses the configured category TTL strings. Categories with
// malformed TTLs fall back to the supplied default.
func (c CacheConfig) ResolveTTLs(fallback time.Duration) map[string]time.Duration {
	out := make(map[string]time.Duration, len(c.CategoryTTLs))
	for cat, s := range c.CategoryTTLs {
		out[cat] = ParseDuration(s, fallback)
	}
	return out
}
