package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/junedali-patel/codemind1/backend/internal/api/stream"
)

// CreateTerminalRequest is the body of POST /api/terminal/sessions
type CreateTerminalRequest struct {
	WorkspaceSessionID string `json:"workspaceSessionId"`
	Name               string `json:"name"`
}

// CreateTerminalResponse describes a newly started terminal
type CreateTerminalResponse struct {
	TerminalID         string `json:"terminalId"`
	Name               string `json:"name"`
	WorkspaceSessionID string `json:"workspaceSessionId"`
	Cwd                string `json:"cwd"`
	Shell              string `json:"shell"`
}

// InputRequest is the body of POST /api/terminal/sessions/:id/input
type InputRequest struct {
	Text string `json:"text"`
}

// ResizeRequest is the body of POST /api/terminal/sessions/:id/resize
type ResizeRequest struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

// RenameRequest is the body of PATCH /api/terminal/sessions/:id
type RenameRequest struct {
	Name string `json:"name"`
}

// CreateTerminal starts a shell in a workspace
func (h *Handlers) CreateTerminal(c *gin.Context) {
	var req CreateTerminalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	done := h.tracked.TrackTerminalOperation("create")
	session, err := h.terminals.Create(req.WorkspaceSessionID, req.Name)
	done(err)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateTerminalResponse{
		TerminalID:         session.ID,
		Name:               session.Name(),
		WorkspaceSessionID: session.WorkspaceSessionID,
		Cwd:                session.Cwd,
		Shell:              session.Shell,
	})
}

// ListTerminals lists a workspace's terminals
func (h *Handlers) ListTerminals(c *gin.Context) {
	summaries, err := h.terminals.ListByWorkspace(c.Query("workspaceSessionId"))
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": summaries,
	})
}

// GetTerminal returns one terminal's summary
func (h *Handlers) GetTerminal(c *gin.Context) {
	session, err := h.terminals.Get(c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session.Summary())
}

// WriteInput sends text to a terminal's shell
func (h *Handlers) WriteInput(c *gin.Context) {
	var req InputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	done := h.tracked.TrackTerminalOperation("write_input")
	err := h.terminals.WriteInput(c.Param("id"), req.Text)
	done(err)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ResizeTerminal records new terminal dimensions
func (h *Handlers) ResizeTerminal(c *gin.Context) {
	var req ResizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.terminals.Resize(c.Param("id"), req.Cols, req.Rows); err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"cols":    req.Cols,
		"rows":    req.Rows,
	})
}

// RenameTerminal changes a terminal's display name
func (h *Handlers) RenameTerminal(c *gin.Context) {
	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	terminalID := c.Param("id")
	name, err := h.terminals.Rename(terminalID, req.Name)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"terminalId": terminalID,
		"name":       name,
	})
}

// CloseTerminal stops a terminal's shell and forgets the session
func (h *Handlers) CloseTerminal(c *gin.Context) {
	done := h.tracked.TrackTerminalOperation("close")
	err := h.terminals.Close(c.Param("id"))
	done(err)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// StreamTerminal serves a terminal's events as Server-Sent Events
func (h *Handlers) StreamTerminal(c *gin.Context) {
	sub, err := h.streams.Open(c.Param("id"), "sse")
	if err != nil {
		RespondError(c, err)
		return
	}

	err = sub.Run(c.Request.Context(), stream.NewSSEEmitter(c.Writer))
	if err != nil && !errors.Is(err, stream.ErrOverflow) {
		h.logger.Debug("SSE stream ended with error",
			zap.String("terminal_id", sub.Session.ID),
			zap.Error(err),
		)
	}
}
