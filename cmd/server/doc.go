// Package main is the entry point for the CodeMind backend server.
//
// The server hosts interactive terminal sessions bound to workspace
// sessions. Each terminal runs a shell in the workspace root and its output
// is streamed to clients over Server-Sent Events or WebSocket.
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Terminals enabled, workspaces loaded from a file
//	./server -port 8000 -terminal -workspaces workspaces.yaml
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: close every terminal, then shut down HTTP
package main
