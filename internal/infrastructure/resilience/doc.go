/*
Package resilience provides retry policies for operations that are expected
to fail until the remote side is ready.

# Overview

The log endpoint answers "not ready" until a job has produced its output.
A Policy turns a failed attempt number into the wait before the next try,
and optionally into a terminal "give up".

# Usage

	policy := resilience.Constant(500 * time.Millisecond)

	for attempt := 1; ; attempt++ {
		if err := fetch(); err == nil {
			break
		}
		delay, ok := policy.Next(attempt)
		if !ok {
			return ErrGaveUp
		}
		time.Sleep(delay)
	}

# Shapes

	Constant:    500ms, 500ms, 500ms, ...            (never gives up)
	Backoff:     100ms, 200ms, 400ms, ... <= max     (Multiplier 2, gives up after MaxAttempts)
*/
package resilience
