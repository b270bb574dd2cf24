// Package config provides 12-factor configuration management for vizy.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags override environment variables.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, project directory)
//   - Client: server URL and request timeout for `vizy submit`
//   - Poll: log polling retry policy
//   - Job: task timeout and pty usage
//   - Logging: log level and output format
//   - RateLimit: per-IP limit on the run endpoint
//
// Environment Variables:
//   - PORT, HOST, VIZY_PROJECT_DIR
//   - VIZY_SERVER_URL, VIZY_REQUEST_TIMEOUT, VIZY_CAPTURE_RETRIES
//   - VIZY_POLL_INTERVAL, VIZY_POLL_BACKOFF, VIZY_POLL_MAX_INTERVAL, VIZY_POLL_MAX_ATTEMPTS
//   - VIZY_JOB_TIMEOUT, VIZY_JOB_PTY
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
