/*
Package monitoring provides metrics collection for vizy.

# Overview

Metrics are registered on a private Prometheus registry owned by each
Metrics value. The server records HTTP requests, task runs and output
streams; the submit command records submission cycles and log polls.

# Usage

	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Expose the registry
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Record submission cycles
	ctrl := controller.New(client, log, controller.Options{Recorder: metrics})
*/
package monitoring
