package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/vizy/internal/client"
	"github.com/GriffinCanCode/vizy/internal/domain/controller"
	"github.com/GriffinCanCode/vizy/internal/domain/display"
	"github.com/GriffinCanCode/vizy/internal/domain/form"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/resilience"
)

type submitOptions struct {
	server      string
	selector    string
	set         []string
	interval    time.Duration
	backoff     float64
	maxAttempts int
}

func newSubmitCmd(a *app) *cobra.Command {
	var opts submitOptions

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit the page form once and print the run log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("server") {
				cfg.Client.ServerURL = opts.server
			}
			if cmd.Flags().Changed("interval") {
				cfg.Poll.Interval = opts.interval
			}
			if cmd.Flags().Changed("backoff") {
				cfg.Poll.Backoff = opts.backoff
			}
			if cmd.Flags().Changed("max-attempts") {
				cfg.Poll.MaxAttempts = opts.maxAttempts
			}

			c := client.New(client.Options{
				BaseURL:     cfg.Client.ServerURL,
				Timeout:     cfg.Client.RequestTimeout,
				PageRetries: cfg.Client.CaptureRetries,
				Logger:      a.logger,
			})
			return a.submit(cmd.Context(), c, cfg.Poll.Policy(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.server, "server", "s", "", "server URL (default $VIZY_SERVER_URL)")
	cmd.Flags().StringVar(&opts.selector, "selector", form.DefaultSelector, "CSS selector of the form to capture")
	cmd.Flags().StringArrayVar(&opts.set, "set", nil, "override a field as name=value (repeatable)")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "log poll interval (default $VIZY_POLL_INTERVAL)")
	cmd.Flags().Float64Var(&opts.backoff, "backoff", 1, "log poll backoff multiplier")
	cmd.Flags().IntVar(&opts.maxAttempts, "max-attempts", 0, "give up after this many log polls (0 polls forever)")
	return cmd
}

// submit captures the form, applies overrides and runs one cycle, printing
// each log entry as it is appended.
func (a *app) submit(ctx context.Context, c *client.Client, policy resilience.Policy, opts submitOptions, out io.Writer) error {
	page, err := c.FetchPage(ctx)
	if err != nil {
		return fmt.Errorf("fetch page: %w", err)
	}
	fields, err := form.Capture(bytes.NewReader(page), opts.selector)
	if err != nil {
		return err
	}
	overrides, err := form.ParseAssignments(opts.set)
	if err != nil {
		return err
	}
	fields = fields.Override(overrides)

	log := display.New(display.WithListener(func(ev display.Event) {
		if ev.Kind == display.Appended {
			fmt.Fprintln(out, strings.TrimSuffix(ev.Entry, "\n"))
		}
	}))
	metrics := monitoring.NewMetrics()
	ctrl := controller.New(c, log, controller.Options{
		Policy:   policy,
		Logger:   a.logger,
		Recorder: metrics,
	})

	cycle := ctrl.Submit(ctx, fields)
	state, err := cycle.Wait(context.WithoutCancel(ctx))
	if err != nil {
		return err
	}
	if err := ctrl.Shutdown(context.WithoutCancel(ctx)); err != nil {
		return err
	}

	a.logger.Debug("Cycle finished",
		zap.String("cycle", cycle.ID().String()),
		zap.Stringer("state", state),
		zap.Int("attempts", cycle.Attempts()),
	)
	if values, err := metrics.Values("vizy_client_"); err == nil {
		a.logger.Debug("Cycle metrics", zap.Any("metrics", values))
	}

	switch state {
	case controller.Completed:
		return nil
	case controller.Canceled:
		return context.Canceled
	default:
		return &exitError{code: ExitFailed, err: fmt.Errorf("run ended in state %s", state)}
	}
}
