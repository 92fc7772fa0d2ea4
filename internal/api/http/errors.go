package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/junedali-patel/codemind1/backend/internal/domain/terminal"
	"github.com/junedali-patel/codemind1/backend/internal/domain/workspace"
)

// Error categories
const (
	CategoryDisabled      = "configuration_disabled"
	CategoryValidation    = "validation_error"
	CategoryNotFound      = "not_found"
	CategoryClosedSession = "closed_session"
	CategorySpawnFailure  = "process_spawn_failure"
	CategoryInternal      = "internal_error"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// Classify maps a domain error to a status code and category
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, terminal.ErrDisabled):
		return http.StatusServiceUnavailable, CategoryDisabled
	case errors.Is(err, terminal.ErrValidation), errors.Is(err, workspace.ErrInvalid):
		return http.StatusBadRequest, CategoryValidation
	case errors.Is(err, terminal.ErrNotFound):
		return http.StatusNotFound, CategoryNotFound
	case errors.Is(err, terminal.ErrSessionClosed):
		return http.StatusConflict, CategoryClosedSession
	case errors.Is(err, terminal.ErrSpawn):
		return http.StatusInternalServerError, CategorySpawnFailure
	default:
		return http.StatusInternalServerError, CategoryInternal
	}
}

// RespondError writes the structured error body for err
func RespondError(c *gin.Context, err error) {
	status, category := Classify(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   category,
		Details: err.Error(),
	})
}

// respondBindError reports a malformed request body
func respondBindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error:   CategoryValidation,
		Details: "invalid request body: " + err.Error(),
	})
}
