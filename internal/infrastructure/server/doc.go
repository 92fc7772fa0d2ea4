// Package server assembles the backend: configuration, logging, metrics,
// tracing, the workspace registry, the terminal manager and the HTTP and
// WebSocket routes.
//
// Shutdown closes every terminal first so open streams end cleanly, then
// drains the HTTP server.
package server
