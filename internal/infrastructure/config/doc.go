// Package config provides 12-factor configuration management for the CodeMind backend.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - CORS: Allowed origins
//   - Terminal: Interactive terminal feature flag, buffers and timings
//   - Workspace: Optional file of workspaces to register at startup
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s\n", cfg.Server.Address())
//
// Environment Variables:
//   - PORT, HOST
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - CORS_ORIGINS
//   - TERMINAL_ENABLED, TERMINAL_SHELL, TERMINAL_BUFFER_SIZE, TERMINAL_REPLAY_SIZE
//   - TERMINAL_HEARTBEAT, TERMINAL_SUBSCRIBER_QUEUE, TERMINAL_KILL_GRACE, TERMINAL_REAP_AFTER
//   - WORKSPACES_FILE
package config
