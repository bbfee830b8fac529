package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pitchperfect/pitchperfect/internal/projectconfig"
	"github.com/pitchperfect/pitchperfect/internal/webserver"
)

func newServeCommand() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the evaluation API server",
		Long: `Start the HTTP API server for pitch evaluation.

Endpoints:
  POST /api/evaluate/start          Submit a pitch (multipart: deck, media, transcript)
  GET  /api/evaluate/status/{jobId} Poll job status; terminal jobs include the report
  GET  /api/health                  Health check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := projectconfig.Load(".")
			if err != nil {
				return err
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if port != 0 {
				cfg.Server.Port = port
			}

			p, err := buildPipeline(cfg)
			if err != nil {
				return err
			}

			srv, err := webserver.New(webserver.Config{
				Host:           cfg.Server.Host,
				Port:           cfg.Server.Port,
				AllowedOrigins: cfg.Server.AllowedOrigins,
				Store:          p.store,
				Runner:         p.scheduler,
			})
			if err != nil {
				return fmt.Errorf("starting server: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Bind address (overrides project config)")
	cmd.Flags().IntVar(&port, "port", 0, "Port (overrides project config)")

	return cmd
}
