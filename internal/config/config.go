// YAML config loader with CUE validation and environment overlay
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Rules holds the tunable constants of one stress-test run.
type Rules struct {
	DurationSeconds    int     `yaml:"duration_seconds"`
	MaxActive          int     `yaml:"max_active"`
	SpawnThreshold     float64 `yaml:"spawn_threshold"`
	JitterThreshold    float64 `yaml:"jitter_threshold"`
	Jitter             float64 `yaml:"jitter"`
	SuccessProbability float64 `yaml:"success_probability"`
	WaitPenalty        float64 `yaml:"wait_penalty"`
	FailurePenalty     float64 `yaml:"failure_penalty"`
	RecoveryBonus      float64 `yaml:"recovery_bonus"`
	LogLimit           int     `yaml:"log_limit"`
}

// Config is the root configuration for a stress-test session.
type Config struct {
	Track        string        `yaml:"track" env:"LNOPS_TRACK"`
	CatalogPath  string        `yaml:"catalog" env:"LNOPS_CATALOG"`
	TickInterval time.Duration `yaml:"tick_interval" env:"LNOPS_TICK_INTERVAL"`
	Seed         int64         `yaml:"seed" env:"LNOPS_SEED"`
	TraceFile    string        `yaml:"trace_file" env:"LNOPS_TRACE_FILE"`
	AdminAddr    string        `yaml:"admin_addr" env:"LNOPS_ADMIN_ADDR"`
	Rules        Rules         `yaml:"rules"`
}

// DefaultRules returns the standard exam rules.
func DefaultRules() Rules {
	return Rules{
		DurationSeconds:    60,
		MaxActive:          4,
		SpawnThreshold:     0.7,
		JitterThreshold:    0.5,
		Jitter:             0.1,
		SuccessProbability: 0.8,
		WaitPenalty:        10,
		FailurePenalty:     5,
		RecoveryBonus:      5,
		LogLimit:           20,
	}
}

// Default returns a config with the standard rules and a one second tick.
func Default() *Config {
	return &Config{
		Track:        "lightning-operator",
		TickInterval: time.Second,
		Rules:        DefaultRules(),
	}
}

// Load builds a config from defaults, an optional YAML file and the environment.
// Non-empty files are validated against the CUE schema at schemaPath, or the
// embedded schema when schemaPath is empty.
func Load(configPath, schemaPath string) (*Config, error) {
	cfg := Default()
	if configPath != "" {
		if err := ValidateWithCue(configPath, schemaPath); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that the schema cannot express on its own.
func (c *Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	r := c.Rules
	if r.DurationSeconds <= 0 {
		return fmt.Errorf("duration_seconds must be positive, got %d", r.DurationSeconds)
	}
	if r.MaxActive <= 0 {
		return fmt.Errorf("max_active must be positive, got %d", r.MaxActive)
	}
	for name, p := range map[string]float64{
		"spawn_threshold":     r.SpawnThreshold,
		"jitter_threshold":    r.JitterThreshold,
		"success_probability": r.SuccessProbability,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", name, p)
		}
	}
	if r.Jitter < 0 || r.WaitPenalty < 0 || r.FailurePenalty < 0 || r.RecoveryBonus < 0 {
		return fmt.Errorf("jitter, penalties and recovery bonus must not be negative")
	}
	if r.LogLimit <= 0 {
		return fmt.Errorf("log_limit must be positive, got %d", r.LogLimit)
	}
	return nil
}
