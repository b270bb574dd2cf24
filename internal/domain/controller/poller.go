package controller

import (
	"context"
	"errors"
	"time"

	"github.com/GriffinCanCode/vizy/internal/client"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/logging"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/resilience"
	"go.uber.org/zap"
)

// ErrGaveUp is returned by LogPoller.Poll when a bounded policy runs out of
// attempts before the log became available.
var ErrGaveUp = errors.New("log not available: retry budget exhausted")

// WaitFunc blocks for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default WaitFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// LogPoller repeats an idempotent log fetch until it succeeds.
type LogPoller struct {
	Fetch  func(ctx context.Context) (*client.Response, error)
	Policy resilience.Policy
	Wait   WaitFunc
	Logger *logging.Logger

	// OnAttempt, when set, is called after every fetch with its outcome.
	OnAttempt func(attempt int, err error)
}

// Poll fetches until the log is ready. Each failed attempt is followed by
// exactly one wait, except the last one of a bounded policy, which returns
// ErrGaveUp. Failures are never returned to the caller otherwise.
func (p *LogPoller) Poll(ctx context.Context) (*client.Response, int, error) {
	wait := p.Wait
	if wait == nil {
		wait = Sleep
	}
	log := p.Logger
	if log == nil {
		log = logging.NewNop()
	}

	for attempt := 1; ; attempt++ {
		resp, err := p.Fetch(ctx)
		if p.OnAttempt != nil {
			p.OnAttempt(attempt, err)
		}
		if err == nil {
			return resp, attempt, nil
		}
		if ctx.Err() != nil {
			return nil, attempt, ctx.Err()
		}

		delay, ok := p.Policy.Next(attempt)
		if !ok {
			log.Warn("Giving up on log",
				zap.Int("attempts", attempt),
				zap.Error(err))
			return nil, attempt, ErrGaveUp
		}

		msg := "Log fetch failed"
		var status *client.StatusError
		if errors.As(err, &status) && status.TooEarly() {
			msg = "Log not ready"
		}
		log.Debug(msg,
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", delay),
			zap.String("reason", err.Error()))

		if err := wait(ctx, delay); err != nil {
			return nil, attempt, err
		}
	}
}
