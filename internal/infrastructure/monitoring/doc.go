/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the backend
service, tracking HTTP requests, terminal session lifecycle and stream
fan-out. Every Metrics value owns its registry, so independent servers (and
tests) never collide on metric registration.

# Usage

	metrics := monitoring.NewMetrics()

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	metrics.IncTerminalSessionsCreated()
	metrics.RecordTerminalEvent("stdout")

HTTP requests are labelled by route template (/api/terminal/sessions/:id),
never by raw path, so label cardinality stays bounded by the route table.

A nil *Metrics is accepted everywhere and records nothing.
*/
package monitoring
