/*
Package monitoring provides Prometheus metrics for the shell.

# Overview

Each Metrics value owns its own registry, so tests and multiple shells in one
process never collide on metric names. A nil *Metrics is accepted everywhere
and records nothing.

# Tracked

- HTTP request metrics (latency, status, response size)
- Asset lookups (hit/miss by MIME type)
- Navigation decisions (internal/external)
- Permission prompts and outcomes per capability
- Upload results by kind (none/single/multiple)
- Export outcomes (written/invalid/denied/failed)
- Host link attachment and message counts

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
