package agents

import (
	"go.uber.org/zap"

	"github.com/paperpilot/paperpilot/llm"
	"github.com/paperpilot/paperpilot/types"
)

// ProviderFactory builds a model backend from a per-request configuration.
// Production wires providers/factory.FromModelConfig; tests inject stubs.
type ProviderFactory func(cfg types.ModelConfig, logger *zap.Logger) (llm.Provider, error)
