package provider

import (
	"net/http"
	"time"
)

// DefaultModel is used when no model is configured
const DefaultModel = "gpt-4o-mini"

// Config contains provider configuration
type Config struct {
	// Name is the provider name used in logs and metrics
	Name string

	// BaseURL is the base URL of an OpenAI-compatible API (optional)
	BaseURL string

	// APIKey is the authentication key. An empty key means the provider is absent.
	APIKey string

	// Model is the chat model to request
	Model string

	// HTTPClient is the HTTP client to use (optional)
	HTTPClient *http.Client

	// Timeout is the per-attempt request timeout (optional, default: 30s)
	Timeout time.Duration

	// RequestsPerSecond paces outbound attempts; 0 disables pacing
	RequestsPerSecond float64

	// ConnectionPool settings
	MaxIdleConns        int           // Maximum idle connections (default: 100)
	MaxConnsPerHost     int           // Maximum connections per host (default: 10)
	IdleConnTimeout     time.Duration // Idle connection timeout (default: 90s)
	MaxIdleConnsPerHost int           // Maximum idle connections per host (default: 10)

	// Retry configuration
	RetryConfig *RetryConfig
}

// DefaultConfig returns a default provider configuration
func DefaultConfig() *Config {
	return NewConfig("openai")
}

// NewConfig creates a new provider configuration with the given name
func NewConfig(name string) *Config {
	return &Config{
		Name:                name,
		Model:               DefaultModel,
		Timeout:             30 * time.Second,
		MaxIdleConns:        100,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 10,
		RetryConfig:         DefaultRetryConfig(),
	}
}

// WithBaseURL sets the base URL
func (c *Config) WithBaseURL(baseURL string) *Config {
	c.BaseURL = baseURL
	return c
}

// WithAPIKey sets the API key
func (c *Config) WithAPIKey(apiKey string) *Config {
	c.APIKey = apiKey
	return c
}

// WithModel sets the chat model
func (c *Config) WithModel(model string) *Config {
	c.Model = model
	return c
}

// WithTimeout sets the timeout
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithRequestsPerSecond sets outbound pacing
func (c *Config) WithRequestsPerSecond(rps float64) *Config {
	c.RequestsPerSecond = rps
	return c
}

// WithRetryConfig sets the retry configuration
func (c *Config) WithRetryConfig(retryConfig *RetryConfig) *Config {
	c.RetryConfig = retryConfig
	return c
}

// WithHTTPClient sets the HTTP client
func (c *Config) WithHTTPClient(client *http.Client) *Config {
	c.HTTPClient = client
	return c
}

// Configured reports whether a credential is present
func (c *Config) Configured() bool {
	return c != nil && c.APIKey != ""
}

// GetHTTPClient returns the HTTP client, creating a default one if not set
func (c *Config) GetHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}

	transport := &http.Transport{
		MaxIdleConns:        c.MaxIdleConns,
		MaxConnsPerHost:     c.MaxConnsPerHost,
		MaxIdleConnsPerHost: c.MaxIdleConnsPerHost,
		IdleConnTimeout:     c.IdleConnTimeout,
	}

	return &http.Client{
		Timeout:   c.Timeout,
		Transport: transport,
	}
}
