package types

import "time"

// ModelType identifies a model backend family.
type ModelType string

const (
	ModelSiliconFlow ModelType = "siliconflow"
	ModelOpenAI      ModelType = "openai"
	ModelAnthropic   ModelType = "anthropic"
	ModelCustom      ModelType = "custom"
)

// ModelConfig carries everything a generation call needs to reach a model
// backend. It travels with each request; there is no ambient process-wide
// model selection.
type ModelConfig struct {
	Type        ModelType     `json:"type" yaml:"type"`
	APIKey      string        `json:"api_key,omitempty" yaml:"api_key"`
	Endpoint    string        `json:"endpoint,omitempty" yaml:"endpoint"`
	Model       string        `json:"model,omitempty" yaml:"model"`
	Temperature float32       `json:"temperature,omitempty" yaml:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty" yaml:"max_tokens"`
	Timeout     time.Duration `json:"timeout,omitempty" yaml:"timeout"`
}

// Validate checks that the config can actually reach a backend.
func (c ModelConfig) Validate() error {
	switch c.Type {
	case ModelSiliconFlow, ModelOpenAI, ModelAnthropic:
		if c.APIKey == "" {
			return NewErrorf(ErrConfiguration, "missing API key for model backend %q", c.Type)
		}
	case ModelCustom:
		if c.Endpoint == "" {
			return NewError(ErrConfiguration, "custom model backend requires an endpoint")
		}
	case "":
		return NewError(ErrConfiguration, "model backend not selected")
	default:
		return NewErrorf(ErrConfiguration, "unknown model backend %q", c.Type)
	}
	return nil
}

// Language is the output language of generated documents.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageChinese Language = "zh"
)

// Directive returns the prompt directive for the language.
func (l Language) Directive() string {
	switch l {
	case LanguageChinese:
		return "Write the paper in Chinese (Simplified)."
	default:
		return "Write the paper in English."
	}
}
