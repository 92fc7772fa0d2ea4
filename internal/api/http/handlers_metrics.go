package http

import (
	"github.com/junedali-patel/codemind1/backend/internal/infrastructure/monitoring"
)

// HandlerMetrics wraps handlers with metrics tracking
type HandlerMetrics struct {
	metrics *monitoring.Metrics
}

// NewHandlerMetrics creates a metrics wrapper
func NewHandlerMetrics(metrics *monitoring.Metrics) *HandlerMetrics {
	return &HandlerMetrics{metrics: metrics}
}

// TrackTerminalOperation tracks terminal manager operations.
// The returned func records the outcome.
func (hm *HandlerMetrics) TrackTerminalOperation(operation string) func(err error) {
	return hm.track("terminal_manager", operation)
}

// TrackWorkspaceOperation tracks workspace registry operations
func (hm *HandlerMetrics) TrackWorkspaceOperation(operation string) func(err error) {
	return hm.track("workspace_registry", operation)
}

func (hm *HandlerMetrics) track(service, operation string) func(err error) {
	done := hm.metrics.TimeServiceCall(service, operation)
	return func(err error) {
		if err != nil {
			done("error")
			return
		}
		done("success")
	}
}
