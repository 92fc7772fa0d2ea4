// Package http provides HTTP handlers and routing for the CodeMind REST API.
//
// This package implements the interactive terminal endpoints using the Gin
// framework, including the Server-Sent Events stream, plus the workspace
// registry and health checks.
//
// Endpoints:
//   - Health: / and /health
//   - Terminals: /api/terminal/sessions, /api/terminal/sessions/:id
//   - Terminal I/O: /api/terminal/sessions/:id/input, /resize, /stream
//   - Workspaces: /api/workspaces
//
// Errors are always JSON of the form {"error": category, "details": message}
// where category is one of configuration_disabled, validation_error,
// not_found, closed_session, process_spawn_failure or internal_error.
//
// Example Usage:
//
//	handlers := http.NewHandlers(terminals, workspaces, streams, metrics, logger)
//	http.RegisterRoutes(router, handlers)
package http
