// Package middleware provides HTTP middleware for the CodeMind backend.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing with configurable origins
//   - RateLimit: Per-IP token bucket rate limiting
//
// CORS Configuration:
//   - AllowOrigins: Permitted origin domains (CORS_ORIGINS)
//   - AllowMethods: HTTP methods, including PATCH for terminal renames
//   - AllowHeaders: Request headers, including Last-Event-ID for stream reconnects
//   - ExposeHeaders: Trace headers readable by the browser
//   - MaxAge: Preflight cache duration
//
// Rate Limiting:
//   - Per-IP tracking with idle client eviction
//   - Token bucket algorithm
//   - Configurable RPS and burst capacity
//   - Global rate limiting option
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.CORSForOrigins(cfg.CORS.Origins)))
//	router.Use(middleware.RateLimit(middleware.RateLimitConfig{RequestsPerSecond: 100, Burst: 200}))
package middleware
