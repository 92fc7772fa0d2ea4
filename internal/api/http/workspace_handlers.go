package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterWorkspaceRequest is the body of POST /api/workspaces
type RegisterWorkspaceRequest struct {
	ID       string `json:"id"`
	RootPath string `json:"rootPath"`
}

// ListWorkspaces lists registered workspaces
func (h *Handlers) ListWorkspaces(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"workspaces": h.workspaces.List(),
	})
}

// RegisterWorkspace binds a workspace id to a root directory
func (h *Handlers) RegisterWorkspace(c *gin.Context) {
	var req RegisterWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	done := h.tracked.TrackWorkspaceOperation("register")
	ws, err := h.workspaces.Register(req.ID, req.RootPath)
	done(err)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ws)
}
