// Package controller drives one submission at a time through the server's
// code endpoints and mirrors every visible response into a display.Log.
//
// A submission cycle runs on its own goroutine:
//
//	clear log -> run -> poll log until ready -> fetch result
//
// The run response, the log and the result (or their error text) are
// appended in that order. Failed log polls are never shown; the poller
// waits the resilience.Policy delay and asks again.
//
// Submitting again supersedes the active cycle: its context is cancelled
// and anything it still tries to append is dropped.
package controller
