// Package config loads and validates the agent configuration from a YAML
// file with environment variable overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"agentloop/pkg/restclient"
)

// Supported model providers.
const (
	ProviderOllama       = "ollama"
	ProviderOpenAICompat = "openai-compat"
	ProviderAnthropic    = "anthropic"
)

// Defaults applied by Normalize.
const (
	DefaultHost          = "http://localhost:11434"
	DefaultModel         = "llama3.2"
	DefaultTemperature   = 0.2
	DefaultMaxIterations = 5
	DefaultHistoryPath   = "agentloop.db"
	DefaultWarmupReps    = 3
)

// ModelConfig selects the model backend.
type ModelConfig struct {
	Provider    string  `yaml:"provider"`
	Host        string  `yaml:"host"`
	Name        string  `yaml:"name"`
	APIKey      string  `yaml:"api_key"`
	Temperature float32 `yaml:"temperature"`
}

// LoopConfig bounds the reasoning loop.
type LoopConfig struct {
	MaxIterations int `yaml:"max_iterations"`
}

// WarmupConfig drives the warm-up binary defaults.
type WarmupConfig struct {
	Reps        int           `yaml:"reps"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Config is the root configuration.
type Config struct {
	Model       ModelConfig       `yaml:"model"`
	Retry       restclient.Policy `yaml:"retry"`
	Loop        LoopConfig        `yaml:"loop"`
	Warmup      WarmupConfig      `yaml:"warmup"`
	HistoryPath string            `yaml:"history_path"`
	MetricsAddr string            `yaml:"metrics_addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	cfg := Config{}
	cfg.Normalize()
	return cfg
}

// Load reads a YAML config file, applies env overrides, and validates.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Normalize fills unset fields with defaults and applies env overrides.
// API keys come from the environment so they never live in config files.
func (c *Config) Normalize() {
	if c.Model.Provider == "" {
		c.Model.Provider = ProviderOllama
	}
	if c.Model.Host == "" {
		c.Model.Host = DefaultHost
	}
	if c.Model.Name == "" {
		c.Model.Name = DefaultModel
	}
	if c.Model.Temperature <= 0 {
		c.Model.Temperature = DefaultTemperature
	}
	if c.Loop.MaxIterations <= 0 {
		c.Loop.MaxIterations = DefaultMaxIterations
	}
	if c.Warmup.Reps <= 0 {
		c.Warmup.Reps = DefaultWarmupReps
	}
	if c.Warmup.Concurrency <= 0 {
		c.Warmup.Concurrency = restclient.DefaultWarmupConcurrency
	}
	if c.Warmup.Timeout <= 0 {
		c.Warmup.Timeout = 120 * time.Second
	}
	if c.HistoryPath == "" {
		c.HistoryPath = DefaultHistoryPath
	}
	c.Retry = c.Retry.Normalize()

	switch c.Model.Provider {
	case ProviderAnthropic:
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			c.Model.APIKey = key
		}
	case ProviderOpenAICompat:
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			c.Model.APIKey = key
		}
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	switch c.Model.Provider {
	case ProviderOllama, ProviderOpenAICompat, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown model provider %q (want %s, %s, or %s)",
			c.Model.Provider, ProviderOllama, ProviderOpenAICompat, ProviderAnthropic)
	}

	if c.Model.Provider == ProviderAnthropic && c.Model.APIKey == "" {
		return fmt.Errorf("provider %s requires an API key (set ANTHROPIC_API_KEY)", ProviderAnthropic)
	}

	if c.Model.Temperature < 0 || c.Model.Temperature > 2.0 {
		return fmt.Errorf("temperature must be between 0.0 and 2.0, got %v", c.Model.Temperature)
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry max_attempts must be positive, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.BackoffBase < 1.0 {
		return fmt.Errorf("retry backoff_base must be >= 1.0, got %v", c.Retry.BackoffBase)
	}
	return nil
}
