package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy agent workspaces and gateway cron jobs into the database once",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := loadConfig()
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		c, err := wire(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer c.Close()

		if c.syncer == nil {
			return errors.New("sync needs DATABASE_URL")
		}
		report, err := c.syncer.Sync(cmd.Context())
		if err != nil {
			return err
		}
		log.Info("sync complete",
			zap.Int("agents", report.Agents),
			zap.Int("tasks", report.Tasks),
			zap.Int("activities", report.Activities),
			zap.Int("cron_jobs", report.CronJobs),
			zap.Bool("cron_skipped", report.CronSkipped),
		)
		return nil
	},
}
