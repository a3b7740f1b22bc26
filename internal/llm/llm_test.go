package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Acid-base/researcher/internal/llm"
	"github.com/Acid-base/researcher/internal/llm/llmtest"
)

var helloReq = llm.Prompt("be brief", "hello")

func TestPrompt(t *testing.T) {
	assert.Equal(t, []llm.Message{
		{Role: llm.RoleSystem, Content: "be brief"},
		{Role: llm.RoleUser, Content: "hello"},
	}, helloReq.Messages)

	assert.Len(t, llm.Prompt("", "only user").Messages, 1)
}

func TestFactoryMissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")

	for _, p := range []string{llm.ProviderOpenAI, llm.ProviderGoogle, llm.ProviderOpenRouter} {
		_, err := llm.NewProvider(llm.Options{Provider: p, Model: "m"})
		assert.ErrorIs(t, err, llm.ErrNoAPIKey, p)
	}
}

func TestFactory(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "g-key")
	p, err := llm.NewProvider(llm.Options{Provider: llm.ProviderGoogle, Model: "gemini-2.0-flash"})
	require.NoError(t, err)
	assert.Equal(t, "google", p.Name())

	t.Setenv("OPENROUTER_API_KEY", "or-key")
	p, err = llm.NewProvider(llm.Options{Provider: llm.ProviderOpenRouter, Model: "x"})
	require.NoError(t, err)
	assert.Equal(t, "openrouter", p.Name())

	t.Setenv("OPENAI_API_KEY", "")
	p, err = llm.NewProvider(llm.Options{Provider: llm.ProviderOpenAI, BaseURL: "http://localhost:1234/v1"})
	require.NoError(t, err, "local compatible servers need no key")
	assert.Equal(t, "openai", p.Name())

	p, err = llm.NewProvider(llm.Options{Provider: llm.ProviderOllama, Model: "llama3", RequestsPerMinute: 30})
	require.NoError(t, err)
	assert.IsType(t, &llm.RateLimitedProvider{}, p)
	assert.Equal(t, "ollama", p.Name())

	_, err = llm.NewProvider(llm.Options{Provider: "unknown"})
	assert.Error(t, err)
}

func TestAPIKeyEnvVar(t *testing.T) {
	assert.Equal(t, "GEMINI_API_KEY", llm.APIKeyEnvVar(llm.ProviderGoogle))
	assert.Equal(t, "OPENAI_API_KEY", llm.APIKeyEnvVar(llm.ProviderOpenAI))
	assert.Empty(t, llm.APIKeyEnvVar(llm.ProviderOllama))
}

func TestOpenAIProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])
		assert.EqualValues(t, 4096, body["max_tokens"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"hi there"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":5,"completion_tokens":2,"total_tokens":7}}`))
	}))
	defer srv.Close()

	p := llm.NewOpenAIProvider("k", "gpt-4o-mini", srv.URL)
	resp, err := p.Complete(context.Background(), helloReq)
	require.NoError(t, err)
	assert.Equal(t, "hi there", resp.Content)
	assert.Equal(t, 5, resp.InputTokens)
	assert.Equal(t, 2, resp.OutputTokens)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestGoogleProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.URL.Query().Get("key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "systemInstruction")
		cfg := body["generationConfig"].(map[string]any)
		assert.InDelta(t, 0.3, cfg["temperature"], 1e-9)

		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Report "},{"text":"body"}]},"finishReason":"STOP"}],
			"usageMetadata":{"promptTokenCount":12,"candidatesTokenCount":3,"totalTokenCount":15}}`))
	}))
	defer srv.Close()

	req := helloReq
	req.Temperature = 0.3
	resp, err := llm.NewGoogleProvider("g-key", "gemini-2.0-flash", srv.URL).Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Report body", resp.Content)
	assert.Equal(t, 12, resp.InputTokens)
	assert.Equal(t, "STOP", resp.FinishReason)
}

func TestGoogleProviderAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	_, err := llm.NewGoogleProvider("bad", "gemini-2.0-flash", srv.URL).Complete(context.Background(), helloReq)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestOllamaProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"local answer"},"done":true,"done_reason":"stop","prompt_eval_count":7,"eval_count":4}`))
	}))
	defer srv.Close()

	resp, err := llm.NewOllamaProvider(srv.URL+"/", "llama3").Complete(context.Background(), helloReq)
	require.NoError(t, err)
	assert.Equal(t, "local answer", resp.Content)
	assert.Equal(t, 4, resp.OutputTokens)
}

func TestRateLimiterPassesThrough(t *testing.T) {
	mock := llmtest.New("test", "mock response")
	rl := llm.NewRateLimitedProvider(mock, 60)

	resp, err := rl.Complete(context.Background(), helloReq)
	require.NoError(t, err)
	assert.Equal(t, "mock response", resp.Content)
	assert.Equal(t, "test", rl.Name())
	assert.Equal(t, 1, mock.CallCount())
}

func TestRateLimiterLimitsRequests(t *testing.T) {
	mock := llmtest.New("test", "ok")
	rl := llm.NewRateLimitedProvider(mock, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	for i := 0; i < 2; i++ {
		_, err := rl.Complete(ctx, helloReq)
		require.NoError(t, err, "request %d", i)
	}

	_, err := rl.Complete(ctx, helloReq)
	assert.Error(t, err)
	assert.Equal(t, 2, mock.CallCount())
}

func TestEstimateCost(t *testing.T) {
	assert.InDelta(t, 12.5, llm.EstimateCost("gpt-4o", 1_000_000, 1_000_000), 0.001)
	assert.Greater(t, llm.EstimateCost("gemini-2.0-flash", 1000, 500), 0.0)
	assert.Zero(t, llm.EstimateCost("llama3", 1000, 500))
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"hi", 1},
		{"hello world!!", 3},
		{"a longer piece of text that has more characters", 11},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, llm.EstimateTokens(tt.text), tt.text)
	}
}
