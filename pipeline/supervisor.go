package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/paperpilot/paperpilot/agents"
	"github.com/paperpilot/paperpilot/internal/ctxkeys"
	"github.com/paperpilot/paperpilot/internal/metrics"
	"github.com/paperpilot/paperpilot/store"
	"github.com/paperpilot/paperpilot/types"
)

// Supervisor owns the project lifecycle. It is the only writer of project
// records while a stage runs, so stage bodies never race on the store.
type Supervisor struct {
	store     store.ProjectStore
	collector *agents.Collector
	composer  *agents.Composer
	reviewer  *agents.Reviewer
	logger    *zap.Logger
	metrics   *metrics.Collector

	mu         sync.Mutex
	executions map[string]*StageExecution // project ID -> latest run
}

// NewSupervisor wires the three stage agents over a project store.
func NewSupervisor(ps store.ProjectStore, collector *agents.Collector, composer *agents.Composer, reviewer *agents.Reviewer, logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{
		store:      ps,
		collector:  collector,
		composer:   composer,
		reviewer:   reviewer,
		logger:     logger.With(zap.String("component", "supervisor")),
		executions: make(map[string]*StageExecution),
	}
}

// WithMetrics attaches a metrics collector. Stage outcomes are then
// recorded as Prometheus series.
func (s *Supervisor) WithMetrics(m *metrics.Collector) *Supervisor {
	s.metrics = m
	return s
}

// CreateProject validates the configuration and persists a new project in
// the created state.
func (s *Supervisor) CreateProject(ctx context.Context, topic string, cfg types.ProjectConfig) (*types.Project, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, types.NewError(types.ErrInvalidInput, "project topic is required")
	}
	if err := cfg.Model.Validate(); err != nil {
		return nil, err
	}
	if _, err := agents.GetPaperType(cfg.PaperType); err != nil {
		return nil, err
	}
	known := make(map[string]bool)
	for _, name := range s.collector.SourceNames() {
		known[name] = true
	}
	for _, name := range cfg.Sources {
		if !known[name] {
			return nil, types.NewErrorf(types.ErrConfiguration, "unknown research source %q", name)
		}
	}

	now := time.Now().UTC()
	project := &types.Project{
		ID:        uuid.NewString(),
		Topic:     topic,
		Config:    cfg,
		Status:    types.StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("project created",
		zap.String("project_id", project.ID),
		zap.String("paper_type", cfg.PaperType),
		zap.String("model", string(cfg.Model.Type)),
	)
	return project, nil
}

// GetProject loads a project by ID.
func (s *Supervisor) GetProject(ctx context.Context, id string) (*types.Project, error) {
	return s.store.Get(ctx, id)
}

// ListProjects returns all projects, newest first.
func (s *Supervisor) ListProjects(ctx context.Context) ([]*types.Project, error) {
	return s.store.List(ctx)
}

// DeleteProject removes a project. A project with a running stage cannot be
// deleted.
func (s *Supervisor) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	if exec, ok := s.executions[id]; ok && exec.Status() == ExecutionStatusRunning {
		s.mu.Unlock()
		return types.NewErrorf(types.ErrInvalidState, "project %q has a running stage", id)
	}
	delete(s.executions, id)
	s.mu.Unlock()

	return s.store.Delete(ctx, id)
}

// StartStage begins an asynchronous stage run. Precondition failures, a
// missing project or a state the stage cannot start from, are returned
// synchronously; everything that goes wrong inside the stage body is
// recorded on the project as a failed status instead.
func (s *Supervisor) StartStage(ctx context.Context, id string, stage types.Stage) (*StageExecution, error) {
	project, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanStart(stage, project.Status); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if exec, ok := s.executions[id]; ok && exec.Status() == ExecutionStatusRunning {
		s.mu.Unlock()
		return nil, types.NewErrorf(types.ErrInvalidState, "project %q already has a running stage", id)
	}
	execution := newStageExecution(id, stage)
	s.executions[id] = execution
	s.mu.Unlock()

	project.Status = runningStatus(stage)
	project.LastError = ""
	s.resetStageProgress(project, stage)
	if err := s.persist(ctx, project); err != nil {
		s.mu.Lock()
		delete(s.executions, id)
		s.mu.Unlock()
		return nil, err
	}

	s.logger.Info("stage started",
		zap.String("project_id", id),
		zap.String("stage", string(stage)),
		zap.String("execution_id", execution.ID),
	)

	// Stage bodies outlive the request that started them.
	go s.runStage(ctxkeys.WithProjectID(context.Background(), project.ID), execution, project)

	return execution, nil
}

// GetProgress returns the project's current status and per-stage progress.
// The view is eventually consistent with a running stage body.
func (s *Supervisor) GetProgress(ctx context.Context, id string) (types.Status, types.Progress, error) {
	project, err := s.store.Get(ctx, id)
	if err != nil {
		return "", types.Progress{}, err
	}
	return project.Status, project.Progress, nil
}

// Execution returns the latest stage run handle for a project, if any.
func (s *Supervisor) Execution(id string) (*StageExecution, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exec, ok := s.executions[id]
	return exec, ok
}

func (s *Supervisor) runStage(ctx context.Context, execution *StageExecution, project *types.Project) {
	ctx, span := otel.Tracer("paperpilot/pipeline").Start(ctx, "stage."+string(execution.Stage),
		trace.WithAttributes(
			attribute.String("project.id", project.ID),
			attribute.String("execution.id", execution.ID),
		),
	)
	defer span.End()

	var err error
	switch execution.Stage {
	case types.StageResearch:
		err = s.runResearch(ctx, project)
	case types.StageWriting:
		err = s.runWriting(ctx, project)
	default:
		err = s.runReview(ctx, project)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		project.Status = failedStatus(execution.Stage)
		project.LastError = err.Error()
		if perr := s.persist(ctx, project); perr != nil {
			s.logger.Error("failed to persist stage failure",
				zap.String("project_id", project.ID),
				zap.Error(perr),
			)
		}
		s.logger.Warn("stage failed",
			zap.String("project_id", project.ID),
			zap.String("stage", string(execution.Stage)),
			zap.Error(err),
		)
		execution.setFailed(err)
		if s.metrics != nil {
			s.metrics.RecordStageExecution(string(execution.Stage), "failed", time.Since(execution.StartTime))
		}
		return
	}

	project.Status = completeStatus(execution.Stage)
	project.LastError = ""
	s.setStageProgress(project, execution.Stage, 100)
	if perr := s.persist(ctx, project); perr != nil {
		s.logger.Error("failed to persist stage completion",
			zap.String("project_id", project.ID),
			zap.Error(perr),
		)
		execution.setFailed(perr)
		return
	}

	s.logger.Info("stage completed",
		zap.String("project_id", project.ID),
		zap.String("stage", string(execution.Stage)),
		zap.Duration("elapsed", time.Since(execution.StartTime)),
	)
	execution.setCompleted()
	if s.metrics != nil {
		s.metrics.RecordStageExecution(string(execution.Stage), "completed", time.Since(execution.StartTime))
	}
}

func (s *Supervisor) runResearch(ctx context.Context, project *types.Project) error {
	s.advance(ctx, project, types.StageResearch, 10)

	maxResults := project.Config.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}
	refs, err := s.collector.Collect(ctx, project.Topic, project.Config.Sources, maxResults)
	if err != nil {
		return err
	}
	s.advance(ctx, project, types.StageResearch, 80)

	// Zero references is a valid research outcome; writing proceeds
	// from the topic alone.
	project.References = refs
	return nil
}

func (s *Supervisor) runWriting(ctx context.Context, project *types.Project) error {
	s.advance(ctx, project, types.StageWriting, 10)

	draft, err := s.composer.Compose(ctx, agents.ComposeRequest{
		Topic:      project.Topic,
		PaperType:  project.Config.PaperType,
		Language:   project.Config.Language,
		References: project.References,
		Model:      project.Config.Model,
	})
	if err != nil {
		return err
	}
	s.advance(ctx, project, types.StageWriting, 90)

	project.Draft = draft
	project.ReviewedDraft = ""
	return nil
}

func (s *Supervisor) runReview(ctx context.Context, project *types.Project) error {
	s.advance(ctx, project, types.StageReview, 10)

	reviewed, err := s.reviewer.Review(ctx, agents.ReviewRequest{
		Topic:     project.Topic,
		Draft:     project.Draft,
		PaperType: project.Config.PaperType,
		Language:  project.Config.Language,
		Model:     project.Config.Model,
	})
	if err != nil {
		return err
	}
	s.advance(ctx, project, types.StageReview, 90)

	project.ReviewedDraft = reviewed
	return nil
}

// advance moves a stage's progress counter forward and persists it. A
// persistence failure here only delays what observers see; the stage keeps
// running.
func (s *Supervisor) advance(ctx context.Context, project *types.Project, stage types.Stage, pct int) {
	s.setStageProgress(project, stage, pct)
	if err := s.persist(ctx, project); err != nil {
		s.logger.Warn("failed to persist progress",
			zap.String("project_id", project.ID),
			zap.Error(err),
		)
	}
}

func (s *Supervisor) setStageProgress(project *types.Project, stage types.Stage, pct int) {
	switch stage {
	case types.StageResearch:
		if pct > project.Progress.Research {
			project.Progress.Research = pct
		}
	case types.StageWriting:
		if pct > project.Progress.Writing {
			project.Progress.Writing = pct
		}
	default:
		if pct > project.Progress.Review {
			project.Progress.Review = pct
		}
	}
}

func (s *Supervisor) resetStageProgress(project *types.Project, stage types.Stage) {
	switch stage {
	case types.StageResearch:
		project.Progress.Research = 0
	case types.StageWriting:
		project.Progress.Writing = 0
	default:
		project.Progress.Review = 0
	}
}

func (s *Supervisor) persist(ctx context.Context, project *types.Project) error {
	project.UpdatedAt = time.Now().UTC()
	return s.store.Update(ctx, project)
}
