package handlers

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/paperpilot/paperpilot/api"
	"github.com/paperpilot/paperpilot/pipeline"
	"github.com/paperpilot/paperpilot/types"
)

// ProjectService is the slice of the supervisor the handlers need.
type ProjectService interface {
	CreateProject(ctx context.Context, topic string, cfg types.ProjectConfig) (*types.Project, error)
	GetProject(ctx context.Context, id string) (*types.Project, error)
	ListProjects(ctx context.Context) ([]*types.Project, error)
	DeleteProject(ctx context.Context, id string) error
	StartStage(ctx context.Context, id string, stage types.Stage) (*pipeline.StageExecution, error)
	GetProgress(ctx context.Context, id string) (types.Status, types.Progress, error)
}

// ProjectHandler serves the project CRUD endpoints.
type ProjectHandler struct {
	service ProjectService
	logger  *zap.Logger
}

// NewProjectHandler creates a project handler.
func NewProjectHandler(service ProjectService, logger *zap.Logger) *ProjectHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectHandler{
		service: service,
		logger:  logger.With(zap.String("component", "project_handler")),
	}
}

// RegisterRoutes registers the project endpoints on the mux.
func (h *ProjectHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/projects", h.handleCreate)
	mux.HandleFunc("GET /api/v1/projects", h.handleList)
	mux.HandleFunc("GET /api/v1/projects/{id}", h.handleGet)
	mux.HandleFunc("DELETE /api/v1/projects/{id}", h.handleDelete)
}

func (h *ProjectHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req api.CreateProjectRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	if strings.TrimSpace(req.Topic) == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidInput, "topic is required", h.logger)
		return
	}

	project, err := h.service.CreateProject(r.Context(), req.Topic, types.ProjectConfig{
		Model:      req.Model,
		Sources:    req.Sources,
		PaperType:  req.PaperType,
		Language:   req.Language,
		MaxResults: req.MaxResults,
	})
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	h.logger.Info("project created via API", zap.String("project_id", project.ID))
	WriteJSON(w, http.StatusCreated, Response{
		Success:   true,
		Data:      project,
		Timestamp: project.CreatedAt,
	})
}

func (h *ProjectHandler) handleList(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListProjects(r.Context())
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	WriteSuccess(w, api.ProjectListResponse{
		Projects: projects,
		Total:    len(projects),
	})
}

func (h *ProjectHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	project, err := h.service.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}
	WriteSuccess(w, project)
}

func (h *ProjectHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.service.DeleteProject(r.Context(), id); err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	h.logger.Info("project deleted via API", zap.String("project_id", id))
	w.WriteHeader(http.StatusNoContent)
}
