package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"rupl/internal/bootstrap"
	"rupl/internal/observability"
	"rupl/internal/server"

	"github.com/spf13/cobra"
)

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}
}

func (c *cli) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg := c.cfg

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "rupl-api",
		ServiceVersion: version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   1,
	})
	if err != nil {
		return err
	}

	app, err := bootstrap.New(parent, cfg, c.bootOpts...)
	if err != nil {
		return err
	}
	srv := server.NewServer(app)
	fiberApp := srv.NewApp()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checkpointDone := make(chan struct{})
	go func() {
		defer close(checkpointDone)
		app.Checkpointer.Run(ctx)
	}()

	listenErr := make(chan error, 1)
	go func() {
		observability.Logger.Info("Server starting",
			slog.String("port", cfg.Port),
			slog.String("storage", app.Storage.Backend()),
		)
		listenErr <- fiberApp.Listen(":" + cfg.Port)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		observability.Logger.Info("Shutting down server...")
	case runErr = <-listenErr:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := fiberApp.ShutdownWithContext(shutdownCtx); err != nil {
		observability.Logger.Error("Server shutdown error", slog.String("error", err.Error()))
	}
	// Run performs the final save once its context is done.
	<-checkpointDone

	return errors.Join(runErr, app.Close(shutdownCtx), shutdownTracing(shutdownCtx))
}
