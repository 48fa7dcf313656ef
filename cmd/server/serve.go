package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/captainbotgit/mission-control/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard and API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := loadConfig()
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c, err := wire(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer c.Close()

		if c.syncer != nil && cfg.SyncInterval > 0 {
			go c.syncer.Start(ctx)
		}

		srv := server.New(cfg, c.storage(), log)
		srv.RegisterRoutes(c.routeDeps())

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Info("shutting down")
		done := make(chan error, 1)
		go func() { done <- srv.Shutdown() }()
		select {
		case err := <-done:
			return err
		case <-time.After(shutdownTimeout):
			log.Warn("shutdown timed out", zap.Duration("timeout", shutdownTimeout))
			return context.DeadlineExceeded
		}
	},
}
