package handlers

import (
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/paperpilot/paperpilot/api"
	"github.com/paperpilot/paperpilot/types"
)

// progressPollInterval paces the websocket progress push.
const progressPollInterval = time.Second

// StageHandler serves stage control and progress endpoints.
type StageHandler struct {
	service ProjectService
	logger  *zap.Logger
}

// NewStageHandler creates a stage handler.
func NewStageHandler(service ProjectService, logger *zap.Logger) *StageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StageHandler{
		service: service,
		logger:  logger.With(zap.String("component", "stage_handler")),
	}
}

// RegisterRoutes registers the stage endpoints on the mux.
func (h *StageHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/projects/{id}/stages/{stage}", h.handleStart)
	mux.HandleFunc("GET /api/v1/projects/{id}/progress", h.handleProgress)
	mux.HandleFunc("GET /api/v1/projects/{id}/progress/ws", h.handleProgressWS)
}

// handleStart begins a stage run and returns 202 immediately. Precondition
// failures map to 404/409; everything inside the stage body is reported
// through progress polling instead.
func (h *StageHandler) handleStart(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	stage, err := types.ParseStage(r.PathValue("stage"))
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	execution, err := h.service.StartStage(r.Context(), id, stage)
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	h.logger.Info("stage accepted",
		zap.String("project_id", id),
		zap.String("stage", string(stage)),
		zap.String("execution_id", execution.ID),
	)

	status, _, err := h.service.GetProgress(r.Context(), id)
	if err != nil {
		// The stage is already running; fall back to the expected status.
		status = ""
	}

	WriteAccepted(w, api.StageStartResponse{
		ProjectID:   id,
		Stage:       stage,
		Status:      status,
		ExecutionID: execution.ID,
	})
}

func (h *StageHandler) handleProgress(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	status, progress, err := h.service.GetProgress(r.Context(), id)
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	resp := api.ProgressResponse{
		ProjectID: id,
		Status:    status,
		Progress:  progress,
	}
	if project, err := h.service.GetProject(r.Context(), id); err == nil {
		resp.LastError = project.LastError
	}

	WriteSuccess(w, resp)
}

// handleProgressWS upgrades to a websocket and pushes progress snapshots
// until the project leaves its in-progress state or the client goes away.
func (h *StageHandler) handleProgressWS(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, _, err := h.service.GetProgress(r.Context(), id); err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closed")

	ctx := r.Context()
	ticker := time.NewTicker(progressPollInterval)
	defer ticker.Stop()

	for {
		status, progress, err := h.service.GetProgress(ctx, id)
		if err != nil {
			conn.Close(websocket.StatusNormalClosure, "project gone")
			return
		}

		resp := api.ProgressResponse{
			ProjectID: id,
			Status:    status,
			Progress:  progress,
		}
		if project, perr := h.service.GetProject(ctx, id); perr == nil {
			resp.LastError = project.LastError
		}

		if err := wsjson.Write(ctx, conn, resp); err != nil {
			h.logger.Debug("websocket write failed", zap.Error(err))
			return
		}

		if !status.InProgress() {
			conn.Close(websocket.StatusNormalClosure, "stage finished")
			return
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			conn.Close(websocket.StatusGoingAway, "client gone")
			return
		}
	}
}
