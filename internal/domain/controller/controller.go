package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/GriffinCanCode/vizy/internal/client"
	"github.com/GriffinCanCode/vizy/internal/domain/display"
	"github.com/GriffinCanCode/vizy/internal/domain/form"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/logging"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/tracing"
	"go.uber.org/zap"
)

// Transport performs the three code requests. *client.Client implements it.
type Transport interface {
	Run(ctx context.Context, payload form.Payload) (*client.Response, error)
	FetchLog(ctx context.Context) (*client.Response, error)
	FetchResult(ctx context.Context) (*client.Response, error)
}

// Recorder receives cycle metrics.
type Recorder interface {
	CycleStarted()
	CycleFinished(state string, elapsed time.Duration)
	LogAttempt(ready bool)
}

type nopRecorder struct{}

func (nopRecorder) CycleStarted() {}
func (nopRecorder) CycleFinished(string, time.Duration) {}
func (nopRecorder) LogAttempt(bool) {}

// Options configures a Controller. Zero values select the defaults.
type Options struct {
	Policy   resilience.Policy
	Wait     WaitFunc
	Logger   *logging.Logger
	Recorder Recorder
}

// Controller owns the display log and the active submission cycle.
type Controller struct {
	transport Transport
	display   *display.Log
	policy    resilience.Policy
	wait      WaitFunc
	logger    *logging.Logger
	recorder  Recorder

	mu     sync.Mutex
	active *Cycle
	wg     sync.WaitGroup
}

// New creates a controller that renders into log.
func New(transport Transport, log *display.Log, opts Options) *Controller {
	if opts.Policy == (resilience.Policy{}) {
		opts.Policy = resilience.Constant(resilience.DefaultInterval)
	}
	if opts.Wait == nil {
		opts.Wait = Sleep
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	return &Controller{
		transport: transport,
		display:   log,
		policy:    opts.Policy,
		wait:      opts.Wait,
		logger:    opts.Logger.Named("controller"),
		recorder:  opts.Recorder,
	}
}

// Log returns the display log the controller writes to.
func (c *Controller) Log() *display.Log {
	return c.display
}

// Active returns the current cycle, or nil before the first submission.
func (c *Controller) Active() *Cycle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Submit starts a new cycle for the captured form fields and returns at
// once. The display log is empty when Submit returns. A cycle that was
// still running is cancelled and can no longer append.
func (c *Controller) Submit(ctx context.Context, fields form.Submission) *Cycle {
	payload := fields.Merge()
	cctx, cancel := context.WithCancel(ctx)
	cycle := newCycle(cancel)
	cctx = tracing.WithTraceID(cctx, tracing.TraceID(cycle.ID().String()))

	c.mu.Lock()
	if prev := c.active; prev != nil {
		prev.cancel()
	}
	c.active = cycle
	c.display.Clear()
	c.wg.Add(1)
	c.mu.Unlock()

	c.logger.Info("Cycle submitted",
		zap.String("cycle", cycle.ID().String()),
		zap.Strings("fields", payload.Keys()))

	go c.run(cctx, cycle, payload)
	return cycle
}

// Shutdown cancels the active cycle and waits for every cycle goroutine to
// return, or for ctx to end.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if c.active != nil {
		c.active.cancel()
	}
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) run(ctx context.Context, cycle *Cycle, payload form.Payload) {
	defer c.wg.Done()
	defer cycle.cancel()

	c.recorder.CycleStarted()
	state := c.execute(ctx, cycle, payload)
	cycle.finish(state)

	elapsed := time.Since(cycle.Started())
	c.recorder.CycleFinished(state.String(), elapsed)
	c.logger.Info("Cycle finished",
		zap.String("cycle", cycle.ID().String()),
		zap.String("state", state.String()),
		zap.Int("log_attempts", cycle.Attempts()),
		zap.Duration("elapsed", elapsed))
}

func (c *Controller) execute(ctx context.Context, cycle *Cycle, payload form.Payload) State {
	resp, err := c.transport.Run(ctx, payload)
	if err != nil {
		if ctx.Err() != nil {
			return c.interrupted(cycle)
		}
		if !c.appendFor(cycle, err) {
			return Superseded
		}
		return RunFailed
	}
	if !c.appendFor(cycle, resp.Data()) {
		return Superseded
	}

	cycle.setState(Polling)
	poller := &LogPoller{
		Fetch:  c.transport.FetchLog,
		Policy: c.policy,
		Wait:   c.wait,
		Logger: c.logger.With(zap.String("cycle", cycle.ID().String())),
		OnAttempt: func(attempt int, err error) {
			cycle.setAttempts(attempt)
			c.recorder.LogAttempt(err == nil)
		},
	}
	logResp, _, err := poller.Poll(ctx)
	switch {
	case errors.Is(err, ErrGaveUp):
		return GaveUp
	case err != nil:
		return c.interrupted(cycle)
	}
	if !c.appendFor(cycle, logResp.Data()) {
		return Superseded
	}

	cycle.setState(FetchingResult)
	res, err := c.transport.FetchResult(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return c.interrupted(cycle)
		}
		if !c.appendFor(cycle, err) {
			return Superseded
		}
		return ResultFailed
	}
	if !c.appendFor(cycle, res.Data()) {
		return Superseded
	}
	return Completed
}

// appendFor appends data only while cycle is still the active one.
func (c *Controller) appendFor(cycle *Cycle, data any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != cycle {
		c.logger.Debug("Dropping output of stale cycle",
			zap.String("cycle", cycle.ID().String()))
		return false
	}
	c.display.Append(data)
	return true
}

// interrupted classifies a cancelled cycle.
func (c *Controller) interrupted(cycle *Cycle) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != cycle {
		return Superseded
	}
	return Canceled
}
