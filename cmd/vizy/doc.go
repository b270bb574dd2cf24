// Command vizy serves a script as a parameterized web page and submits runs
// to such a page from the terminal.
//
// Usage:
//
//	# Serve the project in the current directory
//	vizy serve .
//
//	# Run once with the page defaults, overriding one field
//	vizy submit --server http://127.0.0.1:8000 --set who=world
//
// Configuration comes from the environment (PORT, HOST, VIZY_*, LOG_LEVEL,
// LOG_DEV, RATE_LIMIT_*). Flags override it.
//
// Exit codes:
//   - 0: success
//   - 1: the submitted run did not complete
//   - 251: no project file found
//   - 252: the project defines no task
//   - 253: invalid project file
//   - 254: interrupted
//   - 255: any other error
//
// Signals:
//   - SIGINT, SIGTERM: graceful shutdown
package main
