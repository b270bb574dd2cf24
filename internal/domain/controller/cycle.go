package controller

import (
	"context"
	"sync"
	"time"

	"github.com/GriffinCanCode/vizy/internal/shared/id"
)

// Cycle is the handle of one submission. Only the controller's active
// cycle may append to the display log.
type Cycle struct {
	id      id.CycleID
	started time.Time
	cancel  context.CancelFunc
	done    chan struct{}

	mu       sync.RWMutex
	state    State
	attempts int
}

func newCycle(cancel context.CancelFunc) *Cycle {
	return &Cycle{
		id:      id.NewCycleID(),
		started: time.Now(),
		cancel:  cancel,
		done:    make(chan struct{}),
		state:   Submitting,
	}
}

// ID returns the cycle identifier.
func (c *Cycle) ID() id.CycleID {
	return c.id
}

// State returns the current state.
func (c *Cycle) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Attempts returns how many log fetches the cycle has made.
func (c *Cycle) Attempts() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.attempts
}

// Started returns when the cycle was submitted.
func (c *Cycle) Started() time.Time {
	return c.started
}

// Done is closed once the cycle reaches a terminal state.
func (c *Cycle) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the cycle ends or ctx is done, and returns the state
// at that point.
func (c *Cycle) Wait(ctx context.Context) (State, error) {
	select {
	case <-c.done:
		return c.State(), nil
	case <-ctx.Done():
		return c.State(), ctx.Err()
	}
}

func (c *Cycle) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

func (c *Cycle) setAttempts(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts = n
}

func (c *Cycle) finish(s State) {
	c.setState(s)
	close(c.done)
}
