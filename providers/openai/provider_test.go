package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paperpilot/paperpilot/llm"
	"github.com/paperpilot/paperpilot/providers"
	"github.com/paperpilot/paperpilot/types"
)

func newTestProvider(baseURL string) *Provider {
	return New(providers.OpenAIConfig{
		Vendor:  "siliconflow",
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "deepseek-ai/DeepSeek-V3",
	}, zap.NewNop())
}

func TestProvider_Name(t *testing.T) {
	assert.Equal(t, "siliconflow", newTestProvider("").Name())
	assert.Equal(t, "openai", New(providers.OpenAIConfig{APIKey: "k"}, zap.NewNop()).Name())
}

func TestProvider_Completion(t *testing.T) {
	var gotReq openAIRequest
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(openAIResponse{
			ID:    "cmpl-1",
			Model: gotReq.Model,
			Choices: []openAIChoice{{
				Index:        0,
				FinishReason: "stop",
				Message:      openAIMessage{Role: "assistant", Content: "# Draft\n\nBody."},
			}},
			Usage: &openAIUsage{PromptTokens: 12, CompletionTokens: 34, TotalTokens: 46},
		})
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "You write academic papers."},
			{Role: llm.RoleUser, Content: "Write about graph databases."},
		},
		MaxTokens: 2048,
	})

	require.NoError(t, err)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "deepseek-ai/DeepSeek-V3", gotReq.Model, "config model fills in when the request has none")
	assert.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "# Draft\n\nBody.", resp.Text())
	assert.Equal(t, "siliconflow", resp.Provider)
	assert.Equal(t, 46, resp.Usage.TotalTokens)
}

func TestProvider_Completion_RequestModelWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openAIRequest
		json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "Qwen/Qwen2.5-72B-Instruct", req.Model)
		json.NewEncoder(w).Encode(openAIResponse{Choices: []openAIChoice{{Message: openAIMessage{Content: "ok"}}}})
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Model:    "Qwen/Qwen2.5-72B-Instruct",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
}

func TestProvider_Completion_ErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCode  types.ErrorCode
		retryable bool
	}{
		{"unauthorized", 401, `{"error":{"message":"bad key"}}`, types.ErrUnauthorized, false},
		{"forbidden", 403, `{"error":{"message":"no access"}}`, types.ErrForbidden, false},
		{"rate limited", 429, `{"error":{"message":"slow down"}}`, types.ErrRateLimited, true},
		{"quota", 400, `{"error":{"message":"insufficient quota"}}`, types.ErrQuotaExceeded, false},
		{"bad request", 400, `{"error":{"message":"model missing"}}`, types.ErrInvalidInput, false},
		{"unavailable", 503, `{"error":{"message":"down"}}`, types.ErrUpstreamError, true},
		{"overloaded", 529, `{"error":{"message":"overloaded"}}`, types.ErrModelOverloaded, true},
		{"server error", 500, `{"error":{"message":"boom"}}`, types.ErrUpstreamError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := newTestProvider(srv.URL)
			_, err := p.Completion(context.Background(), &llm.ChatRequest{
				Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
			})

			require.Error(t, err)
			assert.Equal(t, tt.wantCode, types.GetErrorCode(err))
			assert.Equal(t, tt.retryable, types.IsRetryable(err))
		})
	}
}

func TestProvider_HealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	status, err := p.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Greater(t, status.Latency, time.Duration(0))
}

func TestReadErrMsg_PlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(502)
		w.Write([]byte("bad gateway"))
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad gateway")
}
