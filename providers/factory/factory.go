// Package factory maps a per-request model configuration to a concrete
// provider. It imports the provider sub-packages, breaking the import cycle
// that would occur if this logic lived in the providers package directly.
package factory

import (
	"go.uber.org/zap"

	"github.com/paperpilot/paperpilot/llm"
	"github.com/paperpilot/paperpilot/providers"
	"github.com/paperpilot/paperpilot/providers/anthropic"
	"github.com/paperpilot/paperpilot/providers/openai"
	"github.com/paperpilot/paperpilot/types"
)

const (
	siliconFlowBaseURL = "https://api.siliconflow.cn/v1"
	siliconFlowModel   = "deepseek-ai/DeepSeek-V3"
)

// FromModelConfig builds a provider for the given model configuration.
// SiliconFlow and custom gateways reuse the OpenAI-compatible adapter with
// their own base URL; Anthropic gets its native adapter.
func FromModelConfig(cfg types.ModelConfig, logger *zap.Logger) (llm.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case types.ModelOpenAI:
		return openai.New(providers.OpenAIConfig{
			Vendor:  "openai",
			APIKey:  cfg.APIKey,
			BaseURL: cfg.Endpoint,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}, logger), nil

	case types.ModelSiliconFlow:
		baseURL := cfg.Endpoint
		if baseURL == "" {
			baseURL = siliconFlowBaseURL
		}
		model := cfg.Model
		if model == "" {
			model = siliconFlowModel
		}
		return openai.New(providers.OpenAIConfig{
			Vendor:  "siliconflow",
			APIKey:  cfg.APIKey,
			BaseURL: baseURL,
			Model:   model,
			Timeout: cfg.Timeout,
		}, logger), nil

	case types.ModelCustom:
		return openai.New(providers.OpenAIConfig{
			Vendor:  "custom",
			APIKey:  cfg.APIKey,
			BaseURL: cfg.Endpoint,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}, logger), nil

	case types.ModelAnthropic:
		return anthropic.New(providers.AnthropicConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.Endpoint,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}, logger), nil

	default:
		// Validate covers this; kept for exhaustiveness.
		return nil, types.NewErrorf(types.ErrConfiguration, "unknown model backend %q", cfg.Type)
	}
}
