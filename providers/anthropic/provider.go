// Package anthropic implements the Anthropic messages API adapter.
// It differs from the OpenAI-compatible wire format in three ways:
// auth uses the x-api-key header, the system prompt travels in its own
// field, and responses carry a content-block array instead of choices.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/paperpilot/paperpilot/internal/tlsutil"
	"github.com/paperpilot/paperpilot/llm"
	"github.com/paperpilot/paperpilot/providers"
	"github.com/paperpilot/paperpilot/types"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 4096
	apiVersion       = "2023-06-01"
)

// Provider implements llm.Provider against the Anthropic messages API.
type Provider struct {
	cfg    providers.AnthropicConfig
	client *http.Client
	logger *zap.Logger
}

// New creates an Anthropic provider.
func New(cfg providers.AnthropicConfig, logger *zap.Logger) *Provider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(timeout),
		logger: logger.With(zap.String("component", "provider"), zap.String("vendor", "anthropic")),
	}
}

func (p *Provider) Name() string { return "anthropic" }

func (p *Provider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	start := time.Now()
	endpoint := fmt.Sprintf("%s/v1/models", strings.TrimRight(p.cfg.BaseURL, "/"))
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	p.buildHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return &llm.HealthStatus{Healthy: false, Latency: latency}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := readErrMsg(resp.Body)
		return &llm.HealthStatus{Healthy: false, Latency: latency},
			fmt.Errorf("anthropic health check failed: status=%d msg=%s", resp.StatusCode, msg)
	}
	return &llm.HealthStatus{Healthy: true, Latency: latency}, nil
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float32            `json:"temperature,omitempty"`
	TopP        float32            `json:"top_p,omitempty"`
	StopSeq     []string           `json:"stop_sequences,omitempty"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicResponse struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Role       string             `json:"role"`
	Content    []anthropicContent `json:"content"`
	Model      string             `json:"model"`
	StopReason string             `json:"stop_reason"`
	Usage      *anthropicUsage    `json:"usage,omitempty"`
}

type anthropicErrorResp struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *Provider) buildHeaders(req *http.Request) {
	req.Header.Set("x-api-key", p.cfg.APIKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// convertMessages splits the system prompt out and wraps the rest as
// content-block messages, the shape the messages API expects.
func convertMessages(msgs []llm.Message) (string, []anthropicMessage) {
	var system string
	out := make([]anthropicMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == llm.RoleSystem {
			system = m.Content
			continue
		}
		if m.Content == "" {
			continue
		}
		out = append(out, anthropicMessage{
			Role:    string(m.Role),
			Content: []anthropicContent{{Type: "text", Text: m.Content}},
		})
	}
	return system, out
}

func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	system, messages := convertMessages(req.Messages)

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		// max_tokens is mandatory on this API.
		maxTokens = defaultMaxTokens
	}

	body := anthropicRequest{
		Model:       providers.ChooseModel(req, p.cfg.Model, defaultModel),
		Messages:    messages,
		System:      system,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		StopSeq:     req.Stop,
	}
	payload, _ := json.Marshal(body)

	endpoint := fmt.Sprintf("%s/v1/messages", strings.TrimRight(p.cfg.BaseURL, "/"))
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	p.buildHeaders(httpReq)

	p.logger.Debug("completion request",
		zap.String("model", body.Model),
		zap.Int("messages", len(body.Messages)),
		zap.String("trace_id", req.TraceID),
	)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, types.NewError(types.ErrUpstreamTimeout, err.Error()).
				WithHTTPStatus(http.StatusGatewayTimeout).WithRetryable(true).WithProvider(p.Name())
		}
		return nil, types.NewError(types.ErrUpstreamError, err.Error()).
			WithHTTPStatus(http.StatusBadGateway).WithRetryable(true).WithProvider(p.Name())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := readErrMsg(resp.Body)
		return nil, mapError(resp.StatusCode, msg, p.Name())
	}

	var aResp anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&aResp); err != nil {
		return nil, types.NewError(types.ErrUpstreamError, err.Error()).
			WithHTTPStatus(http.StatusBadGateway).WithRetryable(true).WithProvider(p.Name())
	}

	return toChatResponse(aResp, p.Name()), nil
}

func toChatResponse(ar anthropicResponse, provider string) *llm.ChatResponse {
	var text strings.Builder
	for _, content := range ar.Content {
		if content.Type == "text" {
			text.WriteString(content.Text)
		}
	}

	resp := &llm.ChatResponse{
		ID:       ar.ID,
		Provider: provider,
		Model:    ar.Model,
		Choices: []llm.ChatChoice{{
			Index:        0,
			FinishReason: ar.StopReason,
			Message:      llm.Message{Role: llm.RoleAssistant, Content: text.String()},
		}},
	}
	if ar.Usage != nil {
		resp.Usage = llm.ChatUsage{
			PromptTokens:     ar.Usage.InputTokens,
			CompletionTokens: ar.Usage.OutputTokens,
			TotalTokens:      ar.Usage.InputTokens + ar.Usage.OutputTokens,
		}
	}
	return resp
}

func readErrMsg(body io.Reader) string {
	data, _ := io.ReadAll(body)
	var errResp anthropicErrorResp
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return fmt.Sprintf("%s (type: %s)", errResp.Error.Message, errResp.Error.Type)
	}
	return string(data)
}

func mapError(status int, msg string, provider string) *types.Error {
	switch status {
	case http.StatusUnauthorized:
		return &types.Error{Code: types.ErrUnauthorized, Message: msg, HTTPStatus: status, Provider: provider}
	case http.StatusForbidden:
		return &types.Error{Code: types.ErrForbidden, Message: msg, HTTPStatus: status, Provider: provider}
	case http.StatusTooManyRequests:
		return &types.Error{Code: types.ErrRateLimited, Message: msg, HTTPStatus: status, Retryable: true, Provider: provider}
	case http.StatusBadRequest:
		if strings.Contains(msg, "credit") || strings.Contains(msg, "quota") {
			return &types.Error{Code: types.ErrQuotaExceeded, Message: msg, HTTPStatus: status, Provider: provider}
		}
		return &types.Error{Code: types.ErrInvalidInput, Message: msg, HTTPStatus: status, Provider: provider}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &types.Error{Code: types.ErrUpstreamError, Message: msg, HTTPStatus: status, Retryable: true, Provider: provider}
	case 529:
		return &types.Error{Code: types.ErrModelOverloaded, Message: msg, HTTPStatus: status, Retryable: true, Provider: provider}
	default:
		return &types.Error{Code: types.ErrUpstreamError, Message: msg, HTTPStatus: status, Retryable: status >= 500, Provider: provider}
	}
}
