package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distillabs/distill/internal/common"
)

func TestOpenAIGenerate(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "gpt-4o-2024-08-06",
			"choices": [{"message": {"role": "assistant", "content": "{\"name\": \"Acme\"}"}, "finish_reason": "stop", "index": 0}],
			"usage": {"prompt_tokens": 42, "completion_tokens": 7, "total_tokens": 49}
		}`))
	}))
	defer server.Close()

	client := newOpenAIClient("test-key")
	client.baseURL = server.URL

	resp, err := client.generate(context.Background(), Request{
		Prompt:      "extract",
		Model:       "gpt-4o",
		Temperature: 0.2,
		MaxTokens:   256,
		TopP:        0.9,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"name": "Acme"}`, resp.Content)
	assert.Equal(t, "gpt-4o-2024-08-06", resp.Model)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 42, resp.Usage.PromptTokens)
	assert.Equal(t, 7, resp.Usage.CompletionTokens)
	assert.Equal(t, 49, resp.Usage.TotalTokens)

	assert.Equal(t, "gpt-4o", captured["model"])
	assert.Equal(t, 0.9, captured["top_p"])
	assert.NotContains(t, captured, "frequency_penalty")
	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
}

func TestOpenAIGenerateHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limit exceeded"}}`))
	}))
	defer server.Close()

	client := newOpenAIClient("test-key")
	client.baseURL = server.URL

	_, err := client.generate(context.Background(), Request{Prompt: "extract", Model: "gpt-4o"})
	require.Error(t, err)

	var providerErr *common.ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, "openai", providerErr.Provider)
	assert.Equal(t, http.StatusTooManyRequests, providerErr.StatusCode)
	assert.True(t, common.IsRetryable(err))
}

func TestOpenAIGenerateNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id": "chatcmpl-1", "model": "gpt-4o", "choices": []}`))
	}))
	defer server.Close()

	client := newOpenAIClient("test-key")
	client.baseURL = server.URL

	_, err := client.generate(context.Background(), Request{Prompt: "extract", Model: "gpt-4o"})
	require.Error(t, err)

	var providerErr *common.ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Contains(t, providerErr.Err.Error(), "no completion choices")
}

func TestOpenAIGenerateConnectionRefused(t *testing.T) {
	client := newOpenAIClient("test-key")
	client.baseURL = "http://127.0.0.1:1"

	_, err := client.generate(context.Background(), Request{Prompt: "extract", Model: "gpt-4o"})
	require.Error(t, err)

	var providerErr *common.ProviderError
	assert.ErrorAs(t, err, &providerErr)
}
