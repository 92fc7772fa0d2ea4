package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/junedali-patel/codemind1/backend/internal/api/stream"
	"github.com/junedali-patel/codemind1/backend/internal/domain/terminal"
	"github.com/junedali-patel/codemind1/backend/internal/domain/workspace"
	"github.com/junedali-patel/codemind1/backend/internal/infrastructure/monitoring"
)

const (
	serviceName    = "CodeMind Backend (Go)"
	serviceVersion = "0.3.0"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	terminals  *terminal.Manager
	workspaces *workspace.Registry
	streams    *stream.Endpoint
	metrics    *monitoring.Metrics
	tracked    *HandlerMetrics
	logger     *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(
	terminals *terminal.Manager,
	workspaces *workspace.Registry,
	streams *stream.Endpoint,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		terminals:  terminals,
		workspaces: workspaces,
		streams:    streams,
		metrics:    metrics,
		tracked:    NewHandlerMetrics(metrics),
		logger:     logger,
	}
}

// RegisterRoutes mounts every handler on r
func RegisterRoutes(r gin.IRouter, h *Handlers) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	api := r.Group("/api")

	terminals := api.Group("/terminal/sessions")
	terminals.POST("", h.CreateTerminal)
	terminals.GET("", h.ListTerminals)
	terminals.GET("/:id", h.GetTerminal)
	terminals.PATCH("/:id", h.RenameTerminal)
	terminals.DELETE("/:id", h.CloseTerminal)
	terminals.POST("/:id/input", h.WriteInput)
	terminals.POST("/:id/resize", h.ResizeTerminal)
	terminals.GET("/:id/stream", h.StreamTerminal)

	api.GET("/workspaces", h.ListWorkspaces)
	api.POST("/workspaces", h.RegisterWorkspace)
}

// Root handles the liveness check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"terminal": gin.H{
			"enabled":  h.terminals.Enabled(),
			"sessions": h.terminals.Count(),
		},
		"workspaces": len(h.workspaces.List()),
		"metrics":    h.metrics.Snapshot(),
	})
}
