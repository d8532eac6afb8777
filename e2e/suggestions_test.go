package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeplooplabs/ai-assistant/model"
	"github.com/deeplooplabs/ai-assistant/ratelimit"
)

const (
	messagesReply = `{"suggestions":[{"tone":"warm","message":"Thinking of you, Ada!"},{"tone":"playful","message":"Rematch at chess?"}]}`
	tipReply      = `{"title":"Reach out","tip":"Send Ada a note this week.","actionItems":["Text Ada"],"category":"consistency"}`
)

// ========================================
// Live generation
// ========================================

func TestE2E_MessageSuggestions_Live(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	env := NewTestEnvironment(t, messagesReply)

	res := env.Suggest(http.MethodPost, "/v1/suggestions/messages", "u1",
		map[string]string{"contact_id": "c1", "context": "birthday"})

	assert.Equal(t, "live", res.Source)
	assert.False(t, res.Degraded)
	assert.Empty(t, res.Reason)
	assert.NotEmpty(t, res.RequestID)

	var value model.MessageSuggestions
	DecodeValue(t, res, &value)
	require.Len(t, value.Suggestions, 2)
	assert.Equal(t, "warm", value.Suggestions[0].Tone)

	// The provider saw the configured profile and the contact in the prompt
	req := env.LLM.LastRequest()
	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.Equal(t, 500, req.MaxTokens)
	assert.InDelta(t, 0.8, req.Temperature, 0.001)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[1].Content, "Ada")
	assert.Contains(t, req.Messages[1].Content, "birthday")
}

func TestE2E_MessageSuggestions_CachedOnRepeat(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	env := NewTestEnvironment(t, messagesReply)
	body := map[string]string{"contact_id": "c1", "context": "birthday"}

	first := env.Suggest(http.MethodPost, "/v1/suggestions/messages", "u1", body)
	second := env.Suggest(http.MethodPost, "/v1/suggestions/messages", "u1", body)

	assert.Equal(t, "live", first.Source)
	assert.Equal(t, "cached", second.Source)
	assert.JSONEq(t, string(first.Value), string(second.Value))
	assert.Equal(t, 1, env.LLM.Calls())
}

func TestE2E_EventIdeas_FencedReply(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	env := NewTestEnvironment(t, "Here you go:\n```json\n"+
		`[{"title":"Chess cafe","description":"Play a few rounds over coffee","estimatedCost":"low"}]`+
		"\n```")

	res := env.Suggest(http.MethodPost, "/v1/suggestions/events", "u1", map[string]any{
		"contact_id": "c1",
		"budget":     "Low",
		"group_size": 2,
	})

	assert.Equal(t, "live", res.Source)

	var ideas model.EventIdeaList
	DecodeValue(t, res, &ideas)
	require.Len(t, ideas, 1)
	assert.Equal(t, "Chess cafe", ideas[0].Title)

	// Contact interests are merged into the prompt
	prompt := env.LLM.LastRequest().Messages[1].Content
	assert.Contains(t, prompt, "chess")
	assert.Contains(t, prompt, "hiking")
	assert.Equal(t, 1000, env.LLM.LastRequest().MaxTokens)
}

func TestE2E_ConversationStarters(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	env := NewTestEnvironment(t, `[{"topic":"hiking","starter":"Been on any good trails lately?"}]`)

	res := env.Suggest(http.MethodPost, "/v1/suggestions/conversation-starters", "u1",
		map[string]string{"contact_id": "c1", "topic": "hiking"})

	assert.Equal(t, "live", res.Source)

	var starters model.ConversationStarterList
	DecodeValue(t, res, &starters)
	require.Len(t, starters, 1)
	assert.Equal(t, "hiking", starters[0].Topic)
}

func TestE2E_RelationshipTip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	env := NewTestEnvironment(t, tipReply)

	res := env.Suggest(http.MethodGet, "/v1/suggestions/tip", "u1", nil)

	assert.Equal(t, "live", res.Source)

	var tip model.RelationshipTip
	DecodeValue(t, res, &tip)
	assert.Equal(t, "Reach out", tip.Title)
	assert.Contains(t, env.LLM.LastRequest().Messages[1].Content, "Contacts: 1")
}

// ========================================
// Provider failures
// ========================================

func TestE2E_ServerErrors_ExhaustRetries(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	env := NewTestEnvironment(t, messagesReply)
	env.LLM.FailNext(10, http.StatusInternalServerError)

	res := env.Suggest(http.MethodPost, "/v1/suggestions/messages", "u1",
		map[string]string{"contact_id": "c1"})

	assert.Equal(t, "fallback", res.Source)
	assert.True(t, res.Degraded)
	assert.Equal(t, "provider_server_error", res.Reason)
	assert.Equal(t, 3, env.LLM.Calls())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, env.Delays())

	var value model.MessageSuggestions
	DecodeValue(t, res, &value)
	assert.NotEmpty(t, value.Suggestions)
}

func TestE2E_ServerError_RecoversOnRetry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	env := NewTestEnvironment(t, messagesReply)
	env.LLM.FailNext(1, http.StatusBadGateway)

	res := env.Suggest(http.MethodPost, "/v1/suggestions/messages", "u1",
		map[string]string{"contact_id": "c1"})

	assert.Equal(t, "live", res.Source)
	assert.Equal(t, 2, env.LLM.Calls())
	assert.Equal(t, []time.Duration{time.Second}, env.Delays())
}

func TestE2E_RateLimited_HonorsRetryAfter(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	env := NewTestEnvironment(t, tipReply)
	env.LLM.SetRetryAfter("7")
	env.LLM.FailNext(1, http.StatusTooManyRequests)

	res := env.Suggest(http.MethodGet, "/v1/suggestions/tip", "u1", nil)

	assert.Equal(t, "live", res.Source)
	assert.Equal(t, 2, env.LLM.Calls())
	assert.Equal(t, []time.Duration{7 * time.Second}, env.Delays())
}

func TestE2E_ClientError_NotRetried(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	env := NewTestEnvironment(t, tipReply)
	env.LLM.FailNext(1, http.StatusUnauthorized)

	res := env.Suggest(http.MethodGet, "/v1/suggestions/tip", "u1", nil)

	assert.Equal(t, "fallback", res.Source)
	assert.Equal(t, "provider_other_error", res.Reason)
	assert.Equal(t, 1, env.LLM.Calls())
	assert.Empty(t, env.Delays())
}

func TestE2E_MalformedReply(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	env := NewTestEnvironment(t, "I'd rather not answer in JSON today.")

	res := env.Suggest(http.MethodGet, "/v1/suggestions/tip", "u1", nil)

	assert.Equal(t, "fallback", res.Source)
	assert.Equal(t, "malformed_response", res.Reason)

	var tip model.RelationshipTip
	DecodeValue(t, res, &tip)
	assert.NotEmpty(t, tip.Title)
	assert.NotEmpty(t, tip.Tip)
}

func TestE2E_NoCredential(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	env := NewTestEnvironment(t, tipReply, WithoutCredential())

	res := env.Suggest(http.MethodGet, "/v1/suggestions/tip", "u1", nil)

	assert.Equal(t, "fallback", res.Source)
	assert.Equal(t, "configuration_absent", res.Reason)
	assert.Equal(t, 0, env.LLM.Calls())
}

// ========================================
// Quota, content and accounting
// ========================================

func TestE2E_QuotaExceeded(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	env := NewTestEnvironment(t, tipReply, WithMaxRequests(2))

	assert.Equal(t, "live", env.Suggest(http.MethodGet, "/v1/suggestions/tip", "u1", nil).Source)
	assert.Equal(t, "cached", env.Suggest(http.MethodGet, "/v1/suggestions/tip", "u1", nil).Source)

	res := env.Suggest(http.MethodGet, "/v1/suggestions/tip", "u1", nil)
	assert.Equal(t, "fallback", res.Source)
	assert.Equal(t, "quota_exceeded", res.Reason)
	assert.Equal(t, 1, env.LLM.Calls())

	// Another user keeps an independent window
	assert.Equal(t, "live", env.Suggest(http.MethodGet, "/v1/suggestions/tip", "u2", nil).Source)

	resp := env.Do(http.MethodGet, "/v1/usage", "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats ratelimit.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 2, stats.RequestsToday)
	assert.Equal(t, 0, stats.RequestsRemaining)
}

func TestE2E_UnknownContact(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	env := NewTestEnvironment(t, messagesReply)

	res := env.Suggest(http.MethodPost, "/v1/suggestions/conversation-starters", "u2",
		map[string]string{"contact_id": "c1"})

	assert.Equal(t, "fallback", res.Source)
	assert.Equal(t, "not_found", res.Reason)
	assert.Equal(t, 0, env.LLM.Calls())
}

func TestE2E_UsageLedger(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	env := NewTestEnvironment(t, messagesReply)

	env.Suggest(http.MethodPost, "/v1/suggestions/messages", "u1", map[string]string{"contact_id": "c1"})
	env.Suggest(http.MethodPost, "/v1/suggestions/messages", "u1", map[string]string{"contact_id": "c1"})
	require.NoError(t, env.Service.Close(context.Background()))

	// Only the live generation is recorded
	records := env.Ledger.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "u1", records[0].UserID)
	assert.Equal(t, string(model.FeatureMessageSuggestions), records[0].Feature)
	assert.Positive(t, records[0].TokensEstimate)
}

func TestE2E_CacheAdmin(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	env := NewTestEnvironment(t, tipReply)
	env.Suggest(http.MethodGet, "/v1/suggestions/tip", "u1", nil)

	resp := env.Do(http.MethodDelete, "/v1/cache", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	res := env.Suggest(http.MethodGet, "/v1/suggestions/tip", "u1", nil)
	assert.Equal(t, "live", res.Source)
	assert.Equal(t, 2, env.LLM.Calls())
}

func TestE2E_MissingUserHeader(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	env := NewTestEnvironment(t, tipReply)

	resp := env.Do(http.MethodGet, "/v1/suggestions/tip", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, env.LLM.Calls())
}
