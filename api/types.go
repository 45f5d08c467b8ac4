// Package api defines the request and response types of the HTTP API.
package api

import (
	"github.com/paperpilot/paperpilot/types"
)

// CreateProjectRequest creates a new paper project.
type CreateProjectRequest struct {
	// Topic is the research topic of the paper.
	Topic string `json:"topic"`
	// Model selects and configures the generation backend. It is stored
	// with the project and travels with every backend call.
	Model types.ModelConfig `json:"model"`
	// Sources restricts the research stage to the named sources. Empty
	// means all configured sources.
	Sources []string `json:"sources,omitempty"`
	// PaperType selects the document structure, default "regular".
	PaperType string `json:"paper_type,omitempty"`
	// Language is the output language, default English.
	Language types.Language `json:"language,omitempty"`
	// MaxResults caps references per source.
	MaxResults int `json:"max_results,omitempty"`
}

// StageStartResponse acknowledges an accepted stage run.
type StageStartResponse struct {
	ProjectID   string       `json:"project_id"`
	Stage       types.Stage  `json:"stage"`
	Status      types.Status `json:"status"`
	ExecutionID string       `json:"execution_id"`
}

// ProgressResponse is the polling view of a project's pipeline state.
type ProgressResponse struct {
	ProjectID string         `json:"project_id"`
	Status    types.Status   `json:"status"`
	Progress  types.Progress `json:"progress"`
	LastError string         `json:"last_error,omitempty"`
}

// ProjectListResponse wraps the project collection.
type ProjectListResponse struct {
	Projects []*types.Project `json:"projects"`
	Total    int              `json:"total"`
}
