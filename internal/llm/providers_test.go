package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
)

type captured struct {
	path string
	auth string
	body map[string]interface{}
}

func newServer(t *testing.T, status int, payload string) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.path = r.URL.Path
		c.auth = r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &c.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

const openAIChatResponse = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "test-model",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "Paris is the capital [1]."}, "finish_reason": "stop"}],
  "usage": {"prompt_tokens": 10, "completion_tokens": 7, "total_tokens": 17}
}`

func TestGroqModel_Invoke(t *testing.T) {
	srv, req := newServer(t, http.StatusOK, openAIChatResponse)
	m, err := NewGroqModel(Options{BaseURL: srv.URL + "/openai/v1/", Model: "llama", APIKey: "gsk", Temperature: 0.7, MaxTokens: 64})
	require.NoError(t, err)

	text, err := m.Invoke(context.Background(), "What is the capital of France?")
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital [1].", text)
	assert.Equal(t, "/openai/v1/chat/completions", req.path)
	assert.Equal(t, "Bearer gsk", req.auth)
	assert.Equal(t, "llama", req.body["model"])
	assert.EqualValues(t, 64, req.body["max_tokens"])
	msgs := req.body["messages"].([]interface{})
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].(map[string]interface{})["role"])
	assert.Equal(t, "groq:llama", m.Name())
}

func TestGroqModel_errorKinds(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   Kind
	}{
		{http.StatusUnauthorized, `{"error":{"message":"Invalid API Key"}}`, KindAuth},
		{http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached"}}`, KindRateLimit},
		{http.StatusPaymentRequired, `{"error":{"message":"payment required"}}`, KindQuota},
		{http.StatusBadGateway, `upstream error`, KindOther},
	}
	for _, tt := range tests {
		srv, _ := newServer(t, tt.status, tt.body)
		m, err := NewGroqModel(Options{BaseURL: srv.URL, Model: "llama", APIKey: "gsk"})
		require.NoError(t, err)

		_, err = m.Invoke(context.Background(), "hi")
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrCompletionFailed))
		var ce *CompletionError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, tt.want, ce.Kind, "status %d", tt.status)
		assert.Equal(t, tt.status, ce.StatusCode)
	}
}

func TestGroqModel_timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	m, err := NewGroqModel(Options{BaseURL: srv.URL, Model: "llama", APIKey: "gsk", Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = m.Invoke(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, KindOther, KindOf(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestHuggingFaceModel_responseShapes(t *testing.T) {
	prompt := "Question: why?\nAnswer:"
	tests := []struct {
		name string
		body string
		want string
	}{
		{"list", `[{"generated_text": "Because."}]`, "Because."},
		{"list with echo", `[{"generated_text": "Question: why?\nAnswer: Because."}]`, " Because."},
		{"object", `{"generated_text": "Because."}`, "Because."},
		{"string", `"Because."`, "Because."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, req := newServer(t, http.StatusOK, tt.body)
			m, err := NewHuggingFaceModel(Options{BaseURL: srv.URL, Model: "mistralai/Mistral-7B-Instruct-v0.2", MaxTokens: 128})
			require.NoError(t, err)

			text, err := m.Invoke(context.Background(), prompt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
			assert.Equal(t, "/mistralai/Mistral-7B-Instruct-v0.2", req.path)
			assert.Equal(t, prompt, req.body["inputs"])
			assert.Empty(t, req.auth)
		})
	}
}

func TestHuggingFaceModel_errorBody(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"error": "Rate limit reached. Please log in."}`)
	m, err := NewHuggingFaceModel(Options{BaseURL: srv.URL, Model: "m"})
	require.NoError(t, err)

	_, err = m.Invoke(context.Background(), "hi")
	assert.Equal(t, KindRateLimit, KindOf(err))
}

func TestOpenAIModel_Invoke(t *testing.T) {
	srv, req := newServer(t, http.StatusOK, openAIChatResponse)
	m, err := NewOpenAIModel("together", Options{BaseURL: srv.URL + "/v1", Model: "test-model", APIKey: "tok", Temperature: 0.2, MaxTokens: 100})
	require.NoError(t, err)

	text, err := m.Invoke(context.Background(), "What is the capital of France?")
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital [1].", text)
	assert.True(t, strings.HasSuffix(req.path, "/chat/completions"), req.path)
	assert.Equal(t, "Bearer tok", req.auth)
	assert.Equal(t, "test-model", req.body["model"])
	assert.Equal(t, "together:test-model", m.Name())
}

func TestOpenAIModel_rateLimited(t *testing.T) {
	srv, _ := newServer(t, http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached for gpt-3.5-turbo","type":"requests","code":"rate_limit_exceeded"}}`)
	m, err := NewOpenAIModel("openai", Options{BaseURL: srv.URL, Model: "gpt-3.5-turbo", APIKey: "tok"})
	require.NoError(t, err)

	_, err = m.Invoke(context.Background(), "hi")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrCompletionFailed))
	assert.Equal(t, KindRateLimit, KindOf(err))
}

func TestGeminiModel_Invoke(t *testing.T) {
	srv, req := newServer(t, http.StatusOK, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Paris"},{"text":" is the capital."}]}}]}`)
	m, err := NewGeminiModel(context.Background(), Options{BaseURL: srv.URL, Model: "gemini-2.5-flash", APIKey: "g-key", MaxTokens: 32})
	require.NoError(t, err)

	text, err := m.Invoke(context.Background(), "What is the capital of France?")
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital.", text)
	assert.Contains(t, req.path, "gemini-2.5-flash:generateContent")
	assert.Equal(t, "gemini:gemini-2.5-flash", m.Name())
}

func TestGeminiModel_rateLimited(t *testing.T) {
	srv, _ := newServer(t, http.StatusTooManyRequests, `{"error":{"code":429,"message":"rate limit exceeded","status":"RESOURCE_EXHAUSTED"}}`)
	m, err := NewGeminiModel(context.Background(), Options{BaseURL: srv.URL, Model: "gemini-2.5-flash", APIKey: "g-key"})
	require.NoError(t, err)

	_, err = m.Invoke(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, KindRateLimit, KindOf(err))
}

func TestNew(t *testing.T) {
	t.Setenv("KOTAE_TEST_GROQ_KEY", "gsk")
	m, err := New(context.Background(), config.LLMConfig{
		Provider:  "groq",
		Model:     "llama",
		BaseURL:   "http://127.0.0.1:1",
		APIKeyEnv: "KOTAE_TEST_GROQ_KEY",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "groq:llama", m.Name())

	_, err = New(context.Background(), config.LLMConfig{Provider: "openai", Model: "gpt", APIKeyEnv: "KOTAE_TEST_UNSET_KEY"}, nil)
	assert.ErrorContains(t, err, "KOTAE_TEST_UNSET_KEY")

	m, err = New(context.Background(), config.LLMConfig{Provider: "huggingface", Model: "m", BaseURL: "http://127.0.0.1:1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "huggingface:m", m.Name())

	_, err = New(context.Background(), config.LLMConfig{Provider: "oracle", APIKeyEnv: "KOTAE_TEST_GROQ_KEY"}, nil)
	assert.Error(t, err)
}
