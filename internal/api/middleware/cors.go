package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/junedali-patel/codemind1/backend/internal/infrastructure/tracing"
)

// terminalHeaders are the request headers the IDE sends: JSON bodies,
// Last-Event-ID on stream reconnects and a propagated trace id.
var terminalHeaders = []string{
	"Accept",
	"Authorization",
	"Cache-Control",
	"Content-Length",
	"Content-Type",
	"Last-Event-ID",
	"Origin",
	"X-Requested-With",
	tracing.HeaderTraceID,
	tracing.HeaderSpanID,
}

// CORSForOrigins returns the cross-origin policy for the terminal API.
// An empty origin list allows any origin.
func CORSForOrigins(origins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     terminalHeaders,
		ExposeHeaders:    []string{tracing.HeaderTraceID, tracing.HeaderSpanID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) > 0 {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// CORS builds the middleware for cfg
func CORS(cfg cors.Config) gin.HandlerFunc {
	return cors.New(cfg)
}
