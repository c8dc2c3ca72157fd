package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 0,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "finish_reason": "stop",
    "message": {"role": "assistant", "content": "YIELD"}}]
}`

func TestCompleteSendsSingleRequest(t *testing.T) {
	var (
		calls   int
		payload map[string]any
		path    string
		auth    string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &payload)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody)
	}))
	defer srv.Close()

	c, err := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), "gpt-4o-mini", 0.3, "pick one")
	require.NoError(t, err)
	assert.Equal(t, "YIELD", out)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "/v1/chat/completions", path)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "gpt-4o-mini", payload["model"])
	assert.InDelta(t, 0.3, payload["temperature"], 1e-9)
}

func TestCompleteDoesNotRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"boom","type":"server_error"}}`)
	}))
	defer srv.Close()

	c, err := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "m", 0.7, "x")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "http://localhost"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"OPENAI_API_KEY", "OPENROUTER_API_KEY", "OPENAI_API_BASE", "OPENAI_BASE_URL",
		"OPENROUTER_API_BASE", "OPENROUTER_BASE_URL", "LLM_PROVIDER", "OPENAI_API_KEY_HEADER",
		"OPENROUTER_API_KEY_HEADER", "OPENAI_API_KEY_PREFIX", "OPENROUTER_API_KEY_PREFIX",
		"OPENAI_ORG", "OPENROUTER_SITE_URL", "OPENROUTER_TITLE",
	} {
		t.Setenv(k, "")
	}
}

func TestConfigFromEnvMissingKey(t *testing.T) {
	clearEnv(t)
	_, err := ConfigFromEnv("gpt-4o-mini")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestConfigFromEnvOpenAIDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-a")
	cfg, err := ConfigFromEnv("gpt-4o-mini")
	require.NoError(t, err)
	assert.Equal(t, providerOpenAI, cfg.Kind)
	assert.Equal(t, "https://api.openai.com/v1", cfg.BaseURL)
	assert.Equal(t, "sk-a", cfg.APIKey)
	assert.Equal(t, "Authorization", cfg.HeaderName)
	assert.Equal(t, "Bearer ", cfg.HeaderPrefix)
}

func TestConfigFromEnvOpenRouter(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("OPENROUTER_TITLE", "chicken")
	cfg, err := ConfigFromEnv("openrouter/meta-llama")
	require.NoError(t, err)
	assert.Equal(t, providerOpenRouter, cfg.Kind)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.BaseURL)
	assert.Equal(t, "or-key", cfg.APIKey)
	assert.Equal(t, "chicken", cfg.ExtraHeaders["X-Title"])
}

func TestNormalizeModel(t *testing.T) {
	assert.Equal(t, "meta-llama/llama-3", normalizeModel(" openrouter/meta-llama/llama-3 "))
	assert.Equal(t, "gpt-4o-mini", normalizeModel("gpt-4o-mini"))
}
