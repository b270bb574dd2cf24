// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON lines on stderr
//   - Development: colored console output
//
// The CLI writes DisplayLog entries to stdout, so logs default to stderr to
// keep the two streams apart.
//
// Example Usage:
//
//	logger := logging.NewFromLevel("debug", true)
//	logger.Info("Cycle started", zap.String("cycle", id.String()))
package logging
