package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/deeplooplabs/ai-assistant/server"
)

func newServeCmd(configPath *string) *cobra.Command {
	var listen string
	var cors bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the suggestion HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			a, err := newApp(cfg, prometheus.DefaultRegisterer)
			if err != nil {
				return err
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				a.close(ctx)
			}()

			opts := []server.Option{
				server.WithLogger(a.logger),
				server.WithMetricsHandler(server.DefaultMetricsHandler()),
			}
			if cors {
				opts = append(opts, server.WithCORS(server.DefaultCORSConfig()))
			}
			srv := server.New(a.service, opts...)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a.logger.Info("starting assistant server", "config", *configPath, "listen", cfg.Listen)
			if err := srv.ListenAndServe(ctx, cfg.Listen); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config)")
	cmd.Flags().BoolVar(&cors, "cors", false, "allow cross-origin browser requests")
	return cmd
}
