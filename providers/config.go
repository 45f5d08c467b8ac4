// Package providers hosts the model-backend adapters and the factory that
// selects one from a per-request model configuration.
package providers

import "time"

// OpenAIConfig configures the OpenAI-compatible provider. The same adapter
// serves OpenAI itself, SiliconFlow, and any custom OpenAI-style gateway;
// Vendor distinguishes them in logs and error metadata.
type OpenAIConfig struct {
	Vendor  string        `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Model   string        `json:"model,omitempty" yaml:"model,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// AnthropicConfig configures the Anthropic provider.
type AnthropicConfig struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Model   string        `json:"model,omitempty" yaml:"model,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}
