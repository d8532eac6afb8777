package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// MockLLM is an OpenAI-compatible chat completions endpoint for E2E tests
type MockLLM struct {
	Server *httptest.Server

	mu sync.Mutex

	// Reply content returned for successful completions
	reply string

	// Error simulation: the next failures calls answer with status
	failures   int
	status     int
	retryAfter string

	requests []openai.ChatCompletionRequest
}

// NewMockLLM starts a mock endpoint that replies with reply
func NewMockLLM(reply string) *MockLLM {
	m := &MockLLM{reply: reply}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", m.handleChatCompletion)
	m.Server = httptest.NewServer(mux)

	return m
}

// Close shuts the endpoint down
func (m *MockLLM) Close() {
	m.Server.Close()
}

// BaseURL returns the URL to configure the provider with
func (m *MockLLM) BaseURL() string {
	return m.Server.URL + "/v1"
}

// SetReply changes the completion content
func (m *MockLLM) SetReply(reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reply = reply
}

// FailNext makes the next n calls answer with status
func (m *MockLLM) FailNext(n, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = n
	m.status = status
}

// SetRetryAfter sets the Retry-After header sent with 429 responses
func (m *MockLLM) SetRetryAfter(v string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retryAfter = v
}

// Calls returns the number of completion requests received
func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastRequest returns the most recent completion request
func (m *MockLLM) LastRequest() openai.ChatCompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return openai.ChatCompletionRequest{}
	}
	return m.requests[len(m.requests)-1]
}

func (m *MockLLM) handleChatCompletion(w http.ResponseWriter, r *http.Request) {
	var req openai.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.requests = append(m.requests, req)
	failing := m.failures > 0
	status, retryAfter, reply := m.status, m.retryAfter, m.reply
	if failing {
		m.failures--
	}
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if failing {
		if status == http.StatusTooManyRequests && retryAfter != "" {
			w.Header().Set("Retry-After", retryAfter)
		}
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"error":{"message":"simulated failure","type":"server_error","code":%d}}`, status)
		return
	}

	resp := openai.ChatCompletionResponse{
		ID:      fmt.Sprintf("chatcmpl-e2e%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []openai.ChatCompletionChoice{
			{
				Index: 0,
				Message: openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleAssistant,
					Content: reply,
				},
				FinishReason: openai.FinishReasonStop,
			},
		},
		Usage: openai.Usage{
			PromptTokens:     len(req.Messages) * 10,
			CompletionTokens: len(reply) / 4,
			TotalTokens:      len(req.Messages)*10 + len(reply)/4,
		},
	}
	_ = json.NewEncoder(w).Encode(resp)
}
