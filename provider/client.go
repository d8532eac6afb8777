package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	assistant "github.com/deeplooplabs/ai-assistant"
)

var (
	// ErrNotConfigured is returned when no provider credential is present
	ErrNotConfigured = errors.New("provider not configured")

	// ErrEmptyCompletion is returned when the provider returned no content
	ErrEmptyCompletion = errors.New("provider returned no content")
)

// ChatCompleter is the subset of the go-openai client used by Client
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client sends prompts to an OpenAI-compatible provider with retry and backoff
type Client struct {
	config    *Config
	completer ChatCompleter
	limiter   *rate.Limiter
	metrics   *Metrics
	logger    *slog.Logger
	sleep     SleepFunc
}

// Option configures the Client
type Option func(*Client)

// WithCompleter replaces the go-openai client, mainly for tests
func WithCompleter(completer ChatCompleter) Option {
	return func(c *Client) {
		c.completer = completer
	}
}

// WithMetrics sets the Prometheus metrics
func WithMetrics(metrics *Metrics) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSleep replaces the backoff sleeper
func WithSleep(sleep SleepFunc) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// NewClient creates a new provider client. Without an API key and without
// WithCompleter the client is absent and every Send fails fast with
// ErrNotConfigured.
func NewClient(config *Config, opts ...Option) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.RetryConfig == nil {
		config.RetryConfig = DefaultRetryConfig()
	}

	c := &Client{
		config: config,
		logger: slog.Default(),
		sleep:  sleepContext,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.completer == nil {
		if client := NewOpenAIClient(config); client != nil {
			c.completer = client
		}
	}

	if config.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}

	return c
}

// Name returns the provider name
func (c *Client) Name() string {
	if c.config.Name != "" {
		return c.config.Name
	}
	return "openai"
}

// Available reports whether the client can reach a provider
func (c *Client) Available() bool {
	return c.completer != nil
}

// Send implements Provider. Rate-limited attempts wait the provider-specified
// delay; server errors wait attempt*BackoffStep; anything else stops at once.
// Every wait consumes one attempt of the RetryConfig budget.
func (c *Client) Send(ctx context.Context, messages []Message, opts Options) (*Completion, error) {
	if c.completer == nil {
		return nil, &assistant.Error{
			Kind:    assistant.KindConfigurationAbsent,
			Message: "no provider credential configured",
			Err:     ErrNotConfigured,
		}
	}

	req := openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    toOpenAIMessages(messages),
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}

	bo := c.config.RetryConfig.newBackOff()

	for attempt := 1; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, assistant.NewProviderError("wait for outbound pacing", err)
			}
		}

		hint := &retryHint{}
		start := time.Now()
		resp, err := c.completer.CreateChatCompletion(withRetryHint(ctx, hint), req)
		c.observe(start)

		if err == nil {
			completion, cerr := completionFrom(resp)
			if cerr != nil {
				c.count("empty")
				return nil, cerr
			}
			c.count("success")
			return completion, nil
		}

		classified := c.classify(err, hint)
		c.count(classified.Kind.String())

		if !classified.Kind.Retryable() {
			c.logger.WarnContext(ctx, "provider request failed",
				"provider", c.Name(),
				"attempt", attempt,
				"kind", classified.Kind.String(),
				"error", err,
			)
			return nil, classified
		}

		next := bo.NextBackOff()
		if next == backoff.Stop {
			c.logger.WarnContext(ctx, "provider retries exhausted",
				"provider", c.Name(),
				"attempts", attempt,
				"kind", classified.Kind.String(),
			)
			return nil, classified
		}

		delay := next
		if classified.Kind == assistant.KindRateLimited {
			delay = classified.RetryAfter
		}

		c.logger.InfoContext(ctx, "retrying provider request",
			"provider", c.Name(),
			"attempt", attempt,
			"kind", classified.Kind.String(),
			"delay", delay,
		)

		if err := c.sleep(ctx, delay); err != nil {
			return nil, assistant.NewProviderError("backoff interrupted", err)
		}
	}
}

// classify maps a go-openai error onto the pipeline error taxonomy
func (c *Client) classify(err error, hint *retryHint) *assistant.Error {
	status := 0

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusTooManyRequests:
		delay := hint.delay
		if delay <= 0 {
			delay = c.config.RetryConfig.RateLimitDelay
		}
		if delay <= 0 {
			delay = DefaultRetryConfig().RateLimitDelay
		}
		return assistant.NewRateLimitError("provider rate limited", delay, err)
	case status >= 500:
		return assistant.NewServerError(fmt.Sprintf("provider status %d", status), err)
	default:
		return assistant.NewProviderError("provider request failed", err)
	}
}

func (c *Client) count(outcome string) {
	if c.metrics == nil {
		return
	}
	c.metrics.AttemptsTotal.WithLabelValues(c.Name(), outcome).Inc()
}

func (c *Client) observe(start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.AttemptDuration.WithLabelValues(c.Name()).Observe(time.Since(start).Seconds())
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

func completionFrom(resp openai.ChatCompletionResponse) (*Completion, error) {
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, assistant.NewProviderError("empty completion", ErrEmptyCompletion)
	}
	return &Completion{
		Text:        resp.Choices[0].Message.Content,
		TotalTokens: resp.Usage.TotalTokens,
	}, nil
}

var _ Provider = (*Client)(nil)
