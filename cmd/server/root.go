package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/captainbotgit/mission-control/internal/config"
)

var (
	// addr overrides SERVER_ADDR.
	addr string

	// configFile overrides CONFIG_FILE.
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "mission-control",
	Short: "Mission Control dashboard for an agent fleet",
	Long: `Mission Control serves a dashboard and JSON API for a fleet of
autonomous agents: their status, activity, tasks, scheduled jobs, the
review queue and deliverable approvals.

Configuration comes from environment variables. See the README for the list.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configFile, "config", "",
		"Path to the YAML roster file (default: $CONFIG_FILE or config.yaml)",
	)
	serveCmd.Flags().StringVar(
		&addr, "addr", "",
		"Listen address (default: $SERVER_ADDR or :3000)",
	)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(migrateCmd)
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig() *config.Config {
	cfg := config.Load()
	if addr != "" {
		cfg.ServerAddr = addr
	}
	if configFile != "" {
		cfg.ConfigFile = configFile
	}
	return cfg
}

// newLogger builds a development logger in dev and a JSON production
// logger elsewhere, both at LOG_LEVEL.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}

	zcfg := zap.NewProductionConfig()
	if cfg.IsDev() {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level
	return zcfg.Build()
}
