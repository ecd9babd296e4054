package llms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labourlens/labourlens/pkg/config"
)

func TestCreateFromConfigRejectsUnknownType(t *testing.T) {
	r := NewRegistry()
	_, err := r.CreateFromConfig("main", &config.LLMProviderConfig{Type: "mystery", APIKey: "k"})
	assert.Error(t, err)
}

func TestCreateFromConfigRegistersProvider(t *testing.T) {
	r := NewRegistry()
	provider, err := r.CreateFromConfig("main", &config.LLMProviderConfig{Type: "ollama", Model: "llama3.2"})
	require.NoError(t, err)
	assert.Equal(t, "llama3.2", provider.ModelName())

	got, err := r.GetProvider("main")
	require.NoError(t, err)
	assert.Equal(t, provider, got)

	_, err = r.GetProvider("missing")
	assert.Error(t, err)
}

func TestOpenAIGenerate(t *testing.T) {
	var gotReq openAIRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := openAIResponse{Usage: Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}}
		resp.Choices = append(resp.Choices, struct {
			Message      openAIMessage `json:"message"`
			FinishReason string        `json:"finish_reason"`
		}{Message: openAIMessage{Role: "assistant", Content: "answer text"}})
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewOpenAIProviderFromConfig(&config.LLMProviderConfig{
		Type:   "openai",
		Model:  "gpt-4o",
		APIKey: "test-key",
		Host:   server.URL,
	})
	require.NoError(t, err)

	text, usage, err := provider.Generate(context.Background(), "system here", "user here", GenerateParams{
		Temperature: config.Float64Ptr(0.1),
		MaxTokens:   64,
	})
	require.NoError(t, err)

	assert.Equal(t, "answer text", text)
	assert.Equal(t, 15, usage.TotalTokens)
	assert.Equal(t, 0.1, gotReq.Temperature)
	assert.Equal(t, 64, gotReq.MaxTokens)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
}

func TestOpenAIGenerateTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	provider, err := NewOpenAIProviderFromConfig(&config.LLMProviderConfig{
		Type:   "openai",
		Model:  "gpt-4o",
		APIKey: "test-key",
		Host:   server.URL,
	})
	require.NoError(t, err)

	_, _, err = provider.Generate(context.Background(), "", "q", GenerateParams{Timeout: 20 * time.Millisecond})
	assert.Error(t, err)
}

func TestAnthropicGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		w.Write([]byte(`{"content":[{"type":"text","text":"claude says hi"}],"usage":{"input_tokens":7,"output_tokens":3}}`))
	}))
	defer server.Close()

	provider, err := NewAnthropicProviderFromConfig(&config.LLMProviderConfig{
		Type:   "anthropic",
		Model:  "claude-sonnet-4-20250514",
		APIKey: "test-key",
		Host:   server.URL,
	})
	require.NoError(t, err)

	text, usage, err := provider.Generate(context.Background(), "sys", "hello", GenerateParams{})
	require.NoError(t, err)
	assert.Equal(t, "claude says hi", text)
	assert.Equal(t, 10, usage.TotalTokens)
}

func TestOllamaGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		w.Write([]byte(`{"message":{"role":"assistant","content":"local answer"},"done":true,"prompt_eval_count":4,"eval_count":2}`))
	}))
	defer server.Close()

	provider, err := NewOllamaProviderFromConfig(&config.LLMProviderConfig{
		Type:  "ollama",
		Model: "llama3.2",
		Host:  server.URL,
	})
	require.NoError(t, err)

	text, usage, err := provider.Generate(context.Background(), "", "hello", GenerateParams{})
	require.NoError(t, err)
	assert.Equal(t, "local answer", text)
	assert.Equal(t, 6, usage.TotalTokens)
}
