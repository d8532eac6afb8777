package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deeplooplabs/ai-assistant/content"
	"github.com/deeplooplabs/ai-assistant/provider"
	"github.com/deeplooplabs/ai-assistant/suggest"
)

// stubProvider always answers with text
type stubProvider struct {
	text string
}

func (p *stubProvider) Send(ctx context.Context, messages []provider.Message, opts provider.Options) (*provider.Completion, error) {
	return &provider.Completion{Text: p.text}, nil
}

func newTestServer(t *testing.T, text string, opts ...Option) *Server {
	t.Helper()
	repo := content.NewMemoryRepository()
	repo.PutContact("u1", content.ContactDetails{ID: "c1", Name: "Ada", Interests: []string{"chess"}})

	var svcOpts []suggest.Option
	svcOpts = append(svcOpts, suggest.WithContent(repo))
	if text != "" {
		svcOpts = append(svcOpts, suggest.WithProvider(&stubProvider{text: text}))
	}
	return New(suggest.New(svcOpts...), opts...)
}

func do(s *Server, method, path, userID, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID != "" {
		req.Header.Set(UserHeader, userID)
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Value     json.RawMessage `json:"value"`
	Source    string          `json:"source"`
	Degraded  bool            `json:"degraded"`
	Reason    string          `json:"reason"`
	RequestID string          `json:"request_id"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid response body %q: %v", w.Body.String(), err)
	}
	return env
}

func TestServer_Messages(t *testing.T) {
	s := newTestServer(t, `{"suggestions":[{"tone":"warm","message":"Hi Ada!"}]}`)

	w := do(s, http.MethodPost, "/v1/suggestions/messages", "u1", `{"contact_id":"c1","context":"birthday"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if env.Source != "live" || env.Degraded {
		t.Errorf("expected live result, got %+v", env)
	}
	if !strings.Contains(string(env.Value), "Hi Ada!") {
		t.Errorf("unexpected value: %s", env.Value)
	}
}

func TestServer_DegradedIsStillOK(t *testing.T) {
	s := newTestServer(t, "")

	w := do(s, http.MethodPost, "/v1/suggestions/conversation-starters", "u1", `{"contact_id":"nobody"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	env := decodeEnvelope(t, w)
	if env.Source != "fallback" || !env.Degraded || env.Reason != "not_found" {
		t.Errorf("expected not_found fallback, got %+v", env)
	}
}

func TestServer_EventsAndTip(t *testing.T) {
	s := newTestServer(t, "")

	w := do(s, http.MethodPost, "/v1/suggestions/events", "u1", `{"budget":"low","group_size":3,"interests":["music"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("events: expected 200, got %d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Reason != "configuration_absent" {
		t.Errorf("events: expected configuration_absent, got %q", env.Reason)
	}

	w = do(s, http.MethodGet, "/v1/suggestions/tip", "u1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("tip: expected 200, got %d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Source != "fallback" {
		t.Errorf("tip: expected fallback, got %q", env.Source)
	}
}

func TestServer_Validation(t *testing.T) {
	s := newTestServer(t, "")

	tests := []struct {
		name   string
		method string
		path   string
		user   string
		body   string
	}{
		{"missing user", http.MethodGet, "/v1/suggestions/tip", "", ""},
		{"invalid body", http.MethodPost, "/v1/suggestions/messages", "u1", `{not json`},
		{"missing contact", http.MethodPost, "/v1/suggestions/messages", "u1", `{"context":"hi"}`},
		{"missing starter contact", http.MethodPost, "/v1/suggestions/conversation-starters", "u1", `{}`},
		{"negative group", http.MethodPost, "/v1/suggestions/events", "u1", `{"group_size":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(s, tt.method, tt.path, tt.user, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestServer_UsageAndCache(t *testing.T) {
	s := newTestServer(t, `{"title":"Call Ada","tip":"Pick up the phone."}`)

	do(s, http.MethodGet, "/v1/suggestions/tip", "u1", "")
	do(s, http.MethodGet, "/v1/suggestions/tip", "u1", "")

	w := do(s, http.MethodGet, "/v1/usage", "u1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("usage: expected 200, got %d", w.Code)
	}
	var usage struct {
		RequestsToday     int `json:"requests_today"`
		RequestsRemaining int `json:"requests_remaining"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &usage); err != nil {
		t.Fatal(err)
	}
	if usage.RequestsToday != 2 || usage.RequestsRemaining != 48 {
		t.Errorf("unexpected usage: %+v", usage)
	}

	w = do(s, http.MethodGet, "/v1/cache/stats", "", "")
	var stats struct {
		Items int      `json:"items"`
		Hits  int      `json:"hits"`
		Keys  []string `json:"keys"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Items != 1 || stats.Hits != 1 || len(stats.Keys) != 1 || !strings.HasPrefix(stats.Keys[0], "tip:") {
		t.Errorf("unexpected cache stats: %+v", stats)
	}

	w = do(s, http.MethodDelete, "/v1/cache", "", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("clear: expected 204, got %d", w.Code)
	}

	w = do(s, http.MethodGet, "/v1/cache/stats", "", "")
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Items != 0 {
		t.Errorf("expected empty cache after clear, got %d items", stats.Items)
	}
}

func TestServer_HealthAndNotFound(t *testing.T) {
	s := newTestServer(t, "")

	if w := do(s, http.MethodGet, "/health", "", ""); w.Code != http.StatusOK {
		t.Errorf("health: expected 200, got %d", w.Code)
	}
	if w := do(s, http.MethodGet, "/invalid/path", "", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if w := do(s, http.MethodGet, "/metrics", "", ""); w.Code != http.StatusNotFound {
		t.Errorf("metrics disabled: expected 404, got %d", w.Code)
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, "")

	w := do(s, http.MethodGet, "/v1/suggestions/messages", "u1", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
	if allow := w.Header().Get("Allow"); allow != http.MethodPost {
		t.Errorf("expected Allow %q, got %q", http.MethodPost, allow)
	}

	if w := do(s, http.MethodPost, "/v1/cache", "", ""); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("cache: expected 405, got %d", w.Code)
	}
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := suggest.NewMetrics("test", reg)
	s := New(suggest.New(suggest.WithMetrics(metrics)), WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	do(s, http.MethodGet, "/v1/suggestions/tip", "u1", "")

	w := do(s, http.MethodGet, "/metrics", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "test_suggestion_fallbacks_total") {
		t.Errorf("expected fallback counter in metrics output")
	}
}

func TestServer_CORS(t *testing.T) {
	s := newTestServer(t, "", WithCORS(DefaultCORSConfig()))

	req := httptest.NewRequest(http.MethodOptions, "/v1/suggestions/messages", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, UserHeader) {
		t.Errorf("expected %s in allowed headers, got %q", UserHeader, got)
	}
	if got := w.Header().Get("Access-Control-Max-Age"); got != "43200" {
		t.Errorf("expected max age 43200, got %q", got)
	}
}
