package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/intake-assistant/internal/config"
	"github.com/spec-kit/intake-assistant/internal/observability"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, model string) Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.OpenAIConfig{
		BaseURL:        server.URL,
		APIKey:         "test-key",
		Model:          model,
		TimeoutSeconds: 5,
		Enabled:        true,
	}, zap.NewNop(), observability.NewMetrics())
}

func chatReply(content string) []byte {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	raw, _ := json.Marshal(payload)
	return raw
}

func TestCompleteFailsClosedWithoutKey(t *testing.T) {
	client := NewClient(config.OpenAIConfig{Enabled: true}, zap.NewNop(), observability.NewMetrics())
	result := client.Complete(context.Background(), "hello", Options{})
	assert.False(t, result.Success)
	assert.False(t, client.Enabled())

	client = NewClient(config.OpenAIConfig{APIKey: "key", Enabled: false}, zap.NewNop(), observability.NewMetrics())
	assert.False(t, client.Complete(context.Background(), "hello", Options{}).Success)
}

func TestCompleteSuccessTrimsContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Write(chatReply("  QUESTION \n"))
	}, "gpt-3.5-turbo")

	result := client.Complete(context.Background(), "classify this", Options{MaxTokens: 50})
	require.True(t, result.Success)
	assert.Equal(t, "QUESTION", result.Content)
}

func TestCompleteShapesRequestPerModel(t *testing.T) {
	var captured map[string]any
	handler := func(w http.ResponseWriter, r *http.Request) {
		captured = map[string]any{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write(chatReply("ok"))
	}

	client := newTestClient(t, handler, "gpt-5-nano-2025-08-07")
	require.True(t, client.Complete(context.Background(), "hi", Options{MaxTokens: 100}).Success)
	assert.Equal(t, float64(1), captured["temperature"])
	assert.Equal(t, float64(100), captured["max_completion_tokens"])
	assert.NotContains(t, captured, "max_tokens")

	client = newTestClient(t, handler, "gpt-3.5-turbo")
	require.True(t, client.Complete(context.Background(), "hi", Options{MaxTokens: 100}).Success)
	assert.Equal(t, 0.3, captured["temperature"])
	assert.Equal(t, float64(100), captured["max_tokens"])
	assert.NotContains(t, captured, "max_completion_tokens")

	client = newTestClient(t, handler, "gpt-4o-mini")
	require.True(t, client.Complete(context.Background(), "hi", Options{}).Success)
	assert.Equal(t, 0.3, captured["temperature"])
	assert.Equal(t, float64(200), captured["max_completion_tokens"])
}

func TestCompleteAppendsAttachmentHint(t *testing.T) {
	var prompt string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		prompt = body.Messages[0].Content
		w.Write(chatReply("ok"))
	}, "gpt-3.5-turbo")

	client.Complete(context.Background(), "my screen is black", Options{AttachmentCount: 2})
	assert.Contains(t, prompt, "attached 2 screenshot(s)")
}

func TestCompleteAPIErrorMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}, "gpt-3.5-turbo")

	result := client.Complete(context.Background(), "hi", Options{})
	assert.False(t, result.Success)
	assert.Equal(t, "rate limited", result.Err)
}

func TestCompleteNonJSONErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream gone"))
	}, "gpt-3.5-turbo")

	result := client.Complete(context.Background(), "hi", Options{})
	assert.False(t, result.Success)
	assert.Equal(t, "HTTP 502", result.Err)
}
