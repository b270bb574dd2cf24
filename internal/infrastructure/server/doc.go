// Package server assembles vizy's HTTP server: gin routes for the page, the
// code endpoints, the output stream, health and metrics, wrapped in gzip
// compression, with graceful shutdown driven by a context.
package server
