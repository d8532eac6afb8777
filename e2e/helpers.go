package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deeplooplabs/ai-assistant/content"
	"github.com/deeplooplabs/ai-assistant/provider"
	"github.com/deeplooplabs/ai-assistant/ratelimit"
	"github.com/deeplooplabs/ai-assistant/server"
	"github.com/deeplooplabs/ai-assistant/suggest"
	"github.com/deeplooplabs/ai-assistant/usage"
)

// TestEnvironment wires the HTTP server, the suggestion service and the
// real provider client against a mock LLM endpoint
type TestEnvironment struct {
	Server  *httptest.Server
	LLM     *MockLLM
	Service *suggest.Service
	Content *content.MemoryRepository
	Ledger  *usage.MemoryLedger
	T       *testing.T

	mu     sync.Mutex
	delays []time.Duration
}

// EnvOption customizes a test environment
type EnvOption func(*envConfig)

type envConfig struct {
	maxRequests int
	configured  bool
}

// WithMaxRequests sets the per-user quota
func WithMaxRequests(n int) EnvOption {
	return func(c *envConfig) {
		c.maxRequests = n
	}
}

// WithoutCredential starts the environment with no provider API key
func WithoutCredential() EnvOption {
	return func(c *envConfig) {
		c.configured = false
	}
}

// NewTestEnvironment creates a new test environment with all necessary components
func NewTestEnvironment(t *testing.T, reply string, opts ...EnvOption) *TestEnvironment {
	t.Helper()

	cfg := &envConfig{maxRequests: 50, configured: true}
	for _, opt := range opts {
		opt(cfg)
	}

	llm := NewMockLLM(reply)

	repo := content.NewMemoryRepository()
	repo.PutContact("u1", content.ContactDetails{
		ID:   "c1",
		Name: "Ada",
		Relationship: content.Relationship{
			Tier: content.TierInnerCircle,
			Type: "friend",
		},
		Interests: []string{"chess", "hiking"},
	})

	env := &TestEnvironment{LLM: llm, Content: repo, Ledger: usage.NewMemoryLedger(), T: t}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	pc := provider.NewConfig("e2e").
		WithBaseURL(llm.BaseURL()).
		WithTimeout(5 * time.Second)
	if cfg.configured {
		pc.WithAPIKey("test-api-key")
	}
	client := provider.NewClient(pc,
		provider.WithLogger(logger),
		provider.WithSleep(env.sleep),
	)

	env.Service = suggest.New(
		suggest.WithProvider(client),
		suggest.WithContent(repo),
		suggest.WithLimiter(ratelimit.NewFixedWindow(ratelimit.DefaultConfig().WithMax(cfg.maxRequests))),
		suggest.WithTracker(usage.NewTracker(env.Ledger, usage.DefaultConfig(), logger)),
		suggest.WithLogger(logger),
	)

	env.Server = httptest.NewServer(server.New(env.Service, server.WithLogger(logger)))

	t.Cleanup(func() {
		env.Server.Close()
		llm.Close()
	})

	return env
}

// sleep records backoff delays instead of waiting
func (e *TestEnvironment) sleep(ctx context.Context, d time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.delays = append(e.delays, d)
	return ctx.Err()
}

// Delays returns the backoff delays the provider client asked for
func (e *TestEnvironment) Delays() []time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]time.Duration(nil), e.delays...)
}

// Envelope is the response shape of every suggestion endpoint
type Envelope struct {
	Value     json.RawMessage `json:"value"`
	Source    string          `json:"source"`
	Degraded  bool            `json:"degraded"`
	Reason    string          `json:"reason"`
	RequestID string          `json:"request_id"`
}

// Do sends a request as userID and returns the response
func (e *TestEnvironment) Do(method, path, userID string, body any) *http.Response {
	e.T.Helper()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.Server.URL+path, r)
	require.NoError(e.T, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(server.UserHeader, userID)
	}

	resp, err := e.Server.Client().Do(req)
	require.NoError(e.T, err)
	e.T.Cleanup(func() { resp.Body.Close() })
	return resp
}

// Suggest calls a suggestion endpoint and decodes the envelope
func (e *TestEnvironment) Suggest(method, path, userID string, body any) Envelope {
	e.T.Helper()

	resp := e.Do(method, path, userID, body)
	require.Equal(e.T, http.StatusOK, resp.StatusCode)

	var env Envelope
	require.NoError(e.T, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

// DecodeValue unmarshals the envelope value into v
func DecodeValue(t *testing.T, env Envelope, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Value, v))
}
