package provider

import (
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// retryAfterDoer wraps the HTTP client handed to go-openai so the Retry-After
// header of a 429 response reaches the retry loop; go-openai's error types
// do not carry response headers.
type retryAfterDoer struct {
	next openai.HTTPDoer
	now  func() time.Time
}

// Do implements openai.HTTPDoer
func (d *retryAfterDoer) Do(req *http.Request) (*http.Response, error) {
	resp, err := d.next.Do(req)
	if err != nil || resp.StatusCode != http.StatusTooManyRequests {
		return resp, err
	}

	if hint, ok := req.Context().Value(retryHintKey{}).(*retryHint); ok {
		hint.delay = parseRetryAfter(resp.Header, d.now())
	}
	return resp, nil
}

// NewOpenAIClient builds a go-openai client for config, or nil when no
// credential is configured.
func NewOpenAIClient(config *Config) *openai.Client {
	if !config.Configured() {
		return nil
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = &retryAfterDoer{
		next: config.GetHTTPClient(),
		now:  time.Now,
	}

	return openai.NewClientWithConfig(clientConfig)
}
