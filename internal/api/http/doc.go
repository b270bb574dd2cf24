// Package http implements vizy's HTTP handlers: the project page, the three
// code endpoints the submission client drives, and the health check.
//
//	POST /code/run  start the task with the submitted fields
//	GET  /code/log  425 while the task runs, then its output as text
//	GET  /code/res  the final result as JSON, or 500 with the failure text
//
// Error replies are plain text so a client can show them verbatim.
package http
