package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config holds all assistant configuration.
type Config struct {
	Listen    string          `yaml:"listen"`
	DBPath    string          `yaml:"db_path"`
	Provider  ProviderConfig  `yaml:"provider"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Usage     UsageConfig     `yaml:"usage"`
}

// ProviderConfig defines the OpenAI-compatible generative provider.
// An empty APIKey leaves the provider absent and every request degrades.
type ProviderConfig struct {
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	Model             string        `yaml:"model"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	MaxAttempts       int           `yaml:"max_attempts"`
	RateLimitDelay    time.Duration `yaml:"rate_limit_delay"`
	BackoffStep       time.Duration `yaml:"backoff_step"`
}

// CacheConfig controls the suggestion cache.
type CacheConfig struct {
	Backend        string        `yaml:"backend"`
	TTL            time.Duration `yaml:"ttl"`
	MaxItems       int           `yaml:"max_items"`
	CacheFallbacks bool          `yaml:"cache_fallbacks"`
}

// RateLimitConfig controls the per-user quota.
type RateLimitConfig struct {
	Backend string        `yaml:"backend"`
	Max     int           `yaml:"max"`
	Window  time.Duration `yaml:"window"`
}

// UsageConfig controls usage accounting.
type UsageConfig struct {
	Enabled bool `yaml:"enabled"`
	Buffer  int  `yaml:"buffer"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		DBPath: "assistant.db",
		Provider: ProviderConfig{
			Model:          "gpt-4o-mini",
			Timeout:        30 * time.Second,
			MaxAttempts:    3,
			RateLimitDelay: 5 * time.Second,
			BackoffStep:    time.Second,
		},
		Cache: CacheConfig{
			Backend:        BackendMemory,
			TTL:            24 * time.Hour,
			MaxItems:       10000,
			CacheFallbacks: true,
		},
		RateLimit: RateLimitConfig{
			Backend: BackendMemory,
			Max:     50,
			Window:  24 * time.Hour,
		},
		Usage: UsageConfig{
			Enabled: true,
			Buffer:  256,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to Default otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// ApplyEnv overlays well-known environment variables onto cfg.
func ApplyEnv(cfg *Config) *Config {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.Provider.Model = v
	}
	if v := os.Getenv("ASSISTANT_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("ASSISTANT_LISTEN"); v != "" {
		cfg.Listen = v
	}
	return cfg
}

// Validate checks backend names and limits.
func (c *Config) Validate() error {
	for name, backend := range map[string]string{"cache": c.Cache.Backend, "rate_limit": c.RateLimit.Backend} {
		if backend != BackendMemory && backend != BackendSQLite {
			return fmt.Errorf("%s.backend: unknown backend %q", name, backend)
		}
	}
	if c.RateLimit.Max < 0 {
		return fmt.Errorf("rate_limit.max: must not be negative")
	}
	if c.Provider.MaxAttempts < 0 {
		return fmt.Errorf("provider.max_attempts: must not be negative")
	}
	return nil
}
