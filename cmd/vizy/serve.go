package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/vizy/internal/domain/project"
	"github.com/GriffinCanCode/vizy/internal/infrastructure/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		host  string
		port  string
		noPTY bool
	)

	cmd := &cobra.Command{
		Use:   "serve [dir]",
		Short: "Serve the project in dir as a web page",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if len(args) == 1 {
				cfg.Server.ProjectDir = args[0]
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if noPTY {
				cfg.Job.PTY = false
			}

			p, err := project.Load(cfg.Server.ProjectDir)
			if err != nil {
				return err
			}

			srv, err := server.NewServer(cfg, p, a.logger)
			if err != nil {
				return err
			}

			a.logger.Info("Serving project",
				zap.String("project", p.Name),
				zap.String("url", "http://"+cfg.Server.Addr()),
			)
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (default $HOST or 127.0.0.1)")
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (default $PORT or 8000)")
	cmd.Flags().BoolVar(&noPTY, "no-pty", false, "capture task output through pipes instead of a pseudo-terminal")
	return cmd
}
