// Package logging builds the zap loggers used across the backend.
//
// LOG_DEV switches between JSON lines at LOG_LEVEL and the colored console
// encoder at debug. Components take a named child via Component so every
// line carries its origin ("terminal", "stream", "ws").
//
// RequestLogger is a Gin middleware that writes one line per request and
// carries the X-Trace-ID set by the tracing middleware.
//
//	logger := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)
//	terminals := terminal.NewManager(termCfg, registry, logger.Component("terminal"))
package logging
