// Package job runs the project task for a submission.
//
// Only one job exists at a time. Starting a new one kills the previous
// process if it is still running. Output is read from a pseudo-terminal
// (creack/pty) so tasks that check isatty keep their line buffering and
// colors; pipes are used instead when the pty is disabled. The last
// BufferSize bytes are kept and live chunks are fanned out to subscribers.
package job
