package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/vizy/internal/domain/project"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/config"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/logging"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitFailed      = 1
	ExitNoProject   = 251
	ExitNoTask      = 252
	ExitInvalid     = 253
	ExitInterrupted = 254
	ExitUnknown     = 255
)

// exitError carries an explicit exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	var exit *exitError
	var invalid *project.InvalidProjectError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &exit):
		return exit.code
	case errors.Is(err, project.ErrNoProject):
		return ExitNoProject
	case errors.Is(err, project.ErrNoTask):
		return ExitNoTask
	case errors.As(err, &invalid):
		return ExitInvalid
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	default:
		return ExitUnknown
	}
}

// app holds what every subcommand shares.
type app struct {
	cfg    *config.Config
	logger *logging.Logger

	logLevel string
	dev      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "vizy:", err)
	}
	os.Exit(exitCode(err))
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "vizy",
		Short:         "Turn a script into a parameterized web page",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&a.dev, "dev", false, "development logging")

	root.AddCommand(newServeCmd(a), newSubmitCmd(a), newVersionCmd())
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if cmd.Flags().Changed("dev") {
		cfg.Logging.Development = a.dev
	}

	a.cfg = cfg
	a.logger = logging.NewFromLevel(cfg.Logging.Level, cfg.Logging.Development)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			info, ok := debug.ReadBuildInfo()
			if !ok {
				fmt.Fprintln(out, "vizy: version info not available")
				return
			}
			fmt.Fprintf(out, "vizy: %s\n", info.Main.Version)
			fmt.Fprintf(out, "go:   %s\n", info.GoVersion)
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" {
					fmt.Fprintf(out, "commit: %s\n", s.Value)
				}
			}
		},
	}
}
