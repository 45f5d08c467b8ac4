package providers

import "github.com/paperpilot/paperpilot/llm"

// ChooseModel selects the model name by priority: the request's model, then
// the provider config's model, then the provider default.
func ChooseModel(req *llm.ChatRequest, configModel string, defaultModel string) string {
	if req != nil && req.Model != "" {
		return req.Model
	}
	if configModel != "" {
		return configModel
	}
	return defaultModel
}
