package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/junedali-patel/codemind1/backend/internal/api/http"
	"github.com/junedali-patel/codemind1/backend/internal/api/middleware"
	"github.com/junedali-patel/codemind1/backend/internal/api/stream"
	"github.com/junedali-patel/codemind1/backend/internal/api/ws"
	"github.com/junedali-patel/codemind1/backend/internal/domain/terminal"
	"github.com/junedali-patel/codemind1/backend/internal/domain/workspace"
	"github.com/junedali-patel/codemind1/backend/internal/infrastructure/config"
	"github.com/junedali-patel/codemind1/backend/internal/infrastructure/logging"
	"github.com/junedali-patel/codemind1/backend/internal/infrastructure/monitoring"
	"github.com/junedali-patel/codemind1/backend/internal/infrastructure/tracing"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	terminals  *terminal.Manager
	workspaces *workspace.Registry
	tracer     *tracing.Tracer
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)
	return New(cfg, logger)
}

// New creates a server that logs through logger
func New(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info("Initializing CodeMind Server",
		zap.String("addr", cfg.Server.Address()),
		zap.Bool("terminal_enabled", cfg.Terminal.Enabled),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()

	tracer := tracing.New("backend", logger.Component("tracing"))

	// Workspace registry, optionally seeded from a file
	workspaces := workspace.NewRegistry()
	if cfg.Workspace.File != "" {
		n, err := workspaces.LoadFile(cfg.Workspace.File)
		if err != nil {
			tracer.Close()
			return nil, fmt.Errorf("failed to load workspaces: %w", err)
		}
		logger.Info("Loaded workspaces", zap.String("file", cfg.Workspace.File), zap.Int("count", n))
	}

	terminals := terminal.NewManager(terminal.Config{
		Enabled:      cfg.Terminal.Enabled,
		DefaultShell: cfg.Terminal.Shell,
		BufferSize:   cfg.Terminal.BufferSize,
		ReplaySize:   cfg.Terminal.ReplaySize,
		KillGrace:    cfg.Terminal.KillGrace,
		ReapAfter:    cfg.Terminal.ReapAfter,

		SpawnFailureThreshold: cfg.Terminal.SpawnThreshold,
		SpawnCooldown:         cfg.Terminal.SpawnCooldown,
	}, workspaces, logger.Component("terminal"), terminal.WithMetrics(metrics))

	streams := stream.NewEndpoint(terminals, stream.Config{
		Heartbeat: cfg.Terminal.Heartbeat,
		QueueSize: cfg.Terminal.SubscriberQueue,
	}, logger.Component("stream"), metrics)

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(logging.RequestLogger(logger.Component("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.CORSForOrigins(cfg.CORS.Origins)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
			zap.Bool("global", cfg.RateLimit.Global),
		)
		limits := middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}
		if cfg.RateLimit.Global {
			router.Use(middleware.GlobalRateLimit(limits))
		} else {
			router.Use(middleware.RateLimit(limits))
		}
	}

	// Register routes
	handlers := apihttp.NewHandlers(terminals, workspaces, streams, metrics, logger.Component("api"))
	apihttp.RegisterRoutes(router, handlers)

	wsHandler := ws.NewHandler(terminals, streams, cfg.CORS.Origins, logger.Component("ws"))
	router.GET("/api/terminal/sessions/:id/ws", wsHandler.HandleConnection)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:              cfg.Server.Address(),
			Handler:           router,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		terminals:  terminals,
		workspaces: workspaces,
		tracer:     tracer,
		logger:     logger,
		config:     cfg,
		metrics:    metrics,
	}, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Terminals returns the terminal manager
func (s *Server) Terminals() *terminal.Manager {
	return s.terminals
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops every terminal (which ends open streams) and then drains
// the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	s.terminals.Shutdown()

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		s.logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	s.tracer.Close()

	// Sync logger before exit
	_ = s.logger.Sync()

	return err
}

// Close shuts down with the default timeout
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}
