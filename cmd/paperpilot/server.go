package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/paperpilot/paperpilot/agents"
	"github.com/paperpilot/paperpilot/api/handlers"
	"github.com/paperpilot/paperpilot/config"
	"github.com/paperpilot/paperpilot/internal/database"
	"github.com/paperpilot/paperpilot/internal/metrics"
	"github.com/paperpilot/paperpilot/internal/server"
	"github.com/paperpilot/paperpilot/internal/telemetry"
	"github.com/paperpilot/paperpilot/llm/retry"
	"github.com/paperpilot/paperpilot/pipeline"
	"github.com/paperpilot/paperpilot/providers/factory"
	"github.com/paperpilot/paperpilot/sources"
	"github.com/paperpilot/paperpilot/store"
	"github.com/paperpilot/paperpilot/types"
)

// Server wires the whole service together: storage, sources, agents, the
// pipeline supervisor, HTTP handlers, and the metrics endpoint.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	httpManager    *server.Manager
	metricsManager *server.Manager

	projectStore store.ProjectStore
	redisClient  *redis.Client
	supervisor   *pipeline.Supervisor

	healthHandler  *handlers.HealthHandler
	projectHandler *handlers.ProjectHandler
	stageHandler   *handlers.StageHandler

	metricsCollector *metrics.Collector
	otelProviders    *telemetry.Providers

	rateLimiterCancel context.CancelFunc
}

// NewServer creates a server instance. Nothing is started yet.
func NewServer(cfg *config.Config, logger *zap.Logger, otelProviders *telemetry.Providers) *Server {
	return &Server{
		cfg:           cfg,
		logger:        logger,
		otelProviders: otelProviders,
	}
}

// Start brings up storage, the pipeline, and both HTTP listeners.
func (s *Server) Start() error {
	s.metricsCollector = metrics.NewCollector("paperpilot", s.logger)

	if err := s.initStore(); err != nil {
		return fmt.Errorf("failed to init store: %w", err)
	}

	if err := s.initPipeline(); err != nil {
		return fmt.Errorf("failed to init pipeline: %w", err)
	}

	s.initHandlers()

	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.String("store_backend", s.cfg.Store.Backend),
	)

	return nil
}

func (s *Server) initStore() error {
	switch s.cfg.Store.Backend {
	case "mongo":
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Mongo.Timeout)
		defer cancel()

		ms, err := store.NewMongoStore(ctx, store.MongoConfig{
			URI:        s.cfg.Mongo.URI,
			Database:   s.cfg.Mongo.Database,
			Collection: s.cfg.Mongo.Collection,
			Timeout:    s.cfg.Mongo.Timeout,
		}, s.logger)
		if err != nil {
			return err
		}
		s.projectStore = ms

	default: // "sql"
		gs, err := store.NewGormStore(store.GormConfig{
			Driver: s.cfg.Database.Driver,
			DSN:    s.cfg.Database.DSN(),
			Pool: database.PoolConfig{
				MaxOpenConns:    s.cfg.Database.MaxOpenConns,
				MaxIdleConns:    s.cfg.Database.MaxIdleConns,
				ConnMaxLifetime: s.cfg.Database.ConnMaxLifetime,
			},
		}, s.logger)
		if err != nil {
			return err
		}
		s.projectStore = gs
	}

	if s.cfg.Redis.Addr != "" {
		s.redisClient = redis.NewClient(&redis.Options{
			Addr:         s.cfg.Redis.Addr,
			Password:     s.cfg.Redis.Password,
			DB:           s.cfg.Redis.DB,
			PoolSize:     s.cfg.Redis.PoolSize,
			MinIdleConns: s.cfg.Redis.MinIdleConns,
		})
		s.logger.Info("Redis search cache enabled", zap.String("addr", s.cfg.Redis.Addr))
	}

	return nil
}

func (s *Server) initPipeline() error {
	srcs := s.buildSources()
	if len(srcs) == 0 {
		return fmt.Errorf("no research sources enabled")
	}

	collector := agents.NewCollector(srcs, s.logger)

	policy := retry.DefaultPolicy()
	policy.Classifier = types.IsRetryable
	retryer := retry.NewBackoffRetryer(policy, s.logger)

	composer := agents.NewComposer(factory.FromModelConfig, retryer, s.logger)
	reviewer := agents.NewReviewer(factory.FromModelConfig, retryer, s.logger)

	s.supervisor = pipeline.NewSupervisor(s.projectStore, collector, composer, reviewer, s.logger).
		WithMetrics(s.metricsCollector)
	return nil
}

// buildSources assembles the enabled search backends, each wrapped with a
// rate limiter and, when Redis is configured, a read-through cache.
func (s *Server) buildSources() []sources.Source {
	var srcs []sources.Source

	wrap := func(src sources.Source, rps float64) sources.Source {
		if rps > 0 {
			burst := int(rps)
			if burst < 1 {
				burst = 1
			}
			src = sources.NewRateLimited(src, rps, burst)
		}
		if s.redisClient != nil {
			src = sources.NewCached(src, s.redisClient, sources.CacheConfig{
				TTL: s.cfg.Redis.CacheTTL,
			}, s.logger)
		}
		return src
	}

	if s.cfg.Sources.ArXiv.Enabled {
		arxivCfg := sources.DefaultArxivConfig()
		if s.cfg.Sources.ArXiv.BaseURL != "" {
			arxivCfg.BaseURL = s.cfg.Sources.ArXiv.BaseURL
		}
		if s.cfg.Sources.ArXiv.MaxResults > 0 {
			arxivCfg.MaxResults = s.cfg.Sources.ArXiv.MaxResults
		}
		srcs = append(srcs, wrap(sources.NewArxivSource(arxivCfg, s.logger), s.cfg.Sources.ArXiv.RateRPS))
	}

	if s.cfg.Sources.PubMed.Enabled {
		pubmedCfg := sources.DefaultPubMedConfig()
		if s.cfg.Sources.PubMed.BaseURL != "" {
			pubmedCfg.BaseURL = s.cfg.Sources.PubMed.BaseURL
		}
		pubmedCfg.APIKey = s.cfg.Sources.PubMed.APIKey
		srcs = append(srcs, wrap(sources.NewPubMedSource(pubmedCfg, s.logger), s.cfg.Sources.PubMed.RateRPS))
	}

	if s.cfg.Sources.Scholar.Enabled {
		scholarCfg := sources.DefaultScholarConfig()
		scholarCfg.APIKey = s.cfg.Sources.Scholar.APIKey
		srcs = append(srcs, wrap(sources.NewScholarSource(scholarCfg, s.logger), s.cfg.Sources.Scholar.RateRPS))
	}

	return srcs
}

func (s *Server) initHandlers() {
	s.healthHandler = handlers.NewHealthHandler(s.logger)

	if pinger, ok := s.projectStore.(interface {
		Ping(ctx context.Context) error
	}); ok {
		s.healthHandler.RegisterCheck(handlers.NewPingHealthCheck("store", pinger.Ping))
	}

	if s.redisClient != nil {
		s.healthHandler.RegisterCheck(handlers.NewPingHealthCheck("redis", func(ctx context.Context) error {
			return s.redisClient.Ping(ctx).Err()
		}))
	}

	s.projectHandler = handlers.NewProjectHandler(s.supervisor, s.logger)
	s.stageHandler = handlers.NewStageHandler(s.supervisor, s.logger)

	s.logger.Info("Handlers initialized")
}

func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	s.healthHandler.RegisterRoutes(mux)
	mux.HandleFunc("GET /version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	s.projectHandler.RegisterRoutes(mux)
	s.stageHandler.RegisterRoutes(mux)

	skipAuthPaths := []string{"/health", "/healthz", "/ready", "/version", "/metrics"}
	rateLimiterCtx, rateLimiterCancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = rateLimiterCancel

	middlewares := []Middleware{
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
	}
	if s.cfg.Telemetry.Enabled {
		middlewares = append(middlewares, OTelTracing())
	}
	middlewares = append(middlewares,
		MetricsMiddleware(s.metricsCollector),
		CORS(s.cfg.Server.AllowedOrigin),
		RateLimiter(rateLimiterCtx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger),
		APIKeyAuth(s.cfg.Server.APIKeys, skipAuthPaths, s.logger),
	)

	handler := Chain(mux, middlewares...)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)

	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)

	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("Metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// WaitForShutdown blocks until a termination signal arrives, then shuts
// everything down.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}
	s.Shutdown()
}

// Shutdown stops the listeners and releases storage connections.
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx := context.Background()

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Redis shutdown error", zap.Error(err))
		}
	}

	if s.projectStore != nil {
		if err := s.projectStore.Close(); err != nil {
			s.logger.Error("Store shutdown error", zap.Error(err))
		}
	}

	if s.otelProviders != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := s.otelProviders.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Telemetry shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("Graceful shutdown completed")
}
