package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
)

func newServeCmd(cc *cliContext) *cobra.Command {
	var migrateOnStart bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server, the generation job runner and the daily sweep",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cc, migrateOnStart)
		},
	}
	cmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply pending migrations before serving")
	return cmd
}

// runServe runs until ctx is cancelled, then drains the HTTP server, the
// trigger and the runner in that order.
func runServe(ctx context.Context, cc *cliContext, migrateOnStart bool) error {
	app, err := newApplication(ctx, cc.cfg, cc.logger)
	if err != nil {
		return err
	}
	defer app.close()

	if migrateOnStart {
		m, err := app.migrator()
		if err != nil {
			return err
		}
		if err := m.Up(ctx); err != nil {
			return err
		}
	}

	if err := app.runner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}
	defer app.runner.Stop()

	if cc.cfg.Scheduler.Enabled {
		app.trigger.Start()
		defer app.trigger.Stop()
	} else {
		cc.logger.Info("daily sweep disabled")
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cc.cfg.Server.Port),
		Handler:           app.router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cc.logger.Info("starting server", "port", cc.cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		cc.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err = g.Wait()
	cc.logger.Info("server stopped")
	return err
}
