package main

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/storage/redis/v3"
	"go.uber.org/zap"

	"github.com/captainbotgit/mission-control/internal/config"
	"github.com/captainbotgit/mission-control/internal/db"
	"github.com/captainbotgit/mission-control/internal/deliverables"
	"github.com/captainbotgit/mission-control/internal/gateway"
	"github.com/captainbotgit/mission-control/internal/jobs"
	"github.com/captainbotgit/mission-control/internal/metrics"
	"github.com/captainbotgit/mission-control/internal/notify"
	"github.com/captainbotgit/mission-control/internal/review"
	"github.com/captainbotgit/mission-control/internal/server"
	"github.com/captainbotgit/mission-control/internal/sources"
	"github.com/captainbotgit/mission-control/internal/validation"
	"github.com/captainbotgit/mission-control/internal/wallet"
	"github.com/captainbotgit/mission-control/internal/webhook"
	"github.com/captainbotgit/mission-control/internal/workspace"
)

// components holds everything the commands need, built from one config.
type components struct {
	db           *db.DB
	redis        *redis.Storage
	reviews      *review.Service
	hub          *sources.Hub
	deliverables *deliverables.Service
	// syncer is nil without a database.
	syncer *jobs.Syncer
}

// Close releases the database pool and Redis connection.
func (c *components) Close() {
	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		_ = c.redis.Close()
	}
}

// storage returns the Redis storage as a fiber.Storage, or nil.
func (c *components) storage() fiber.Storage {
	if c.redis == nil {
		return nil
	}
	return c.redis
}

// wire connects the optional backends and builds every service. Missing or
// unreachable backends are logged and left out; reads fall back past them.
func wire(ctx context.Context, cfg *config.Config, log *zap.Logger) (*components, error) {
	roster, err := config.LoadYAMLConfig(cfg.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", cfg.ConfigFile, err)
	}

	c := &components{}

	if cfg.DatabaseURL != "" {
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Warn("database unavailable, using filesystem and mock tiers", zap.Error(err))
		} else if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			database.Close()
			log.Warn("migrations failed, database tier disabled", zap.Error(err))
		} else {
			log.Info("database connected")
			c.db = database
		}
	}

	if cfg.RedisURL != "" {
		store, err := server.OpenRedis(cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, using file slot and in-memory limiter", zap.Error(err))
		} else {
			log.Info("redis connected")
			c.redis = store
		}
	}

	// Review tiers: database, then the JSON file, then process memory.
	var tiers []review.Store
	auditors := []review.Auditor{review.NewLogAuditor(log)}
	if c.db != nil {
		tiers = append(tiers, review.NewTableStore(c.db))
		auditors = append(auditors, review.NewDBAuditor(c.db))
	}
	fileStore := review.NewFileStore(cfg.ReviewsDir)
	tiers = append(tiers, fileStore, review.NewMemoryStore())

	var slot notify.Slot = notify.NewFileSlot(cfg.ReviewsDir)
	if c.redis != nil {
		slot = notify.NewKVSlot(c.redis, "")
	}

	c.reviews = review.NewService(review.Config{
		Tiers:    tiers,
		Slot:     slot,
		Prober:   validation.NewHTTPProber(cfg.ProbeTimeout, cfg.AllowPrivateURLs),
		Auditors: auditors,
		Reviewer: cfg.ReviewerName,
		Logger:   log,
	})
	metrics.Init(c.reviews, log)

	scanner := workspace.NewScanner(cfg.AgentsDir, roster, log)
	log.Info("filesystem tiers",
		zap.String("reviews_file", fileStore.Path()),
		zap.String("agents_dir", scanner.Root()),
	)
	gw := gateway.NewClient(cfg.GatewayURL, cfg.GatewayToken, cfg.GatewayTimeout)
	walletClient := wallet.NewClient(cfg.WalletAddress, cfg.WalletRPCURL, cfg.WalletPriceURL, roster.Wallet, log)

	hubCfg := sources.Config{
		Workspace:     scanner,
		Gateway:       gw,
		Wallet:        walletClient,
		WalletAddress: cfg.WalletAddress,
		Logger:        log,
	}
	var deliverableStore deliverables.Store
	if c.db != nil {
		hubCfg.Table = c.db
		deliverableStore = c.db
	}
	c.hub = sources.NewHub(hubCfg)

	notifier := webhook.NewNotifier(cfg.ApprovalWebhookURL, log)
	c.deliverables = deliverables.NewService(deliverableStore, notifier, cfg.ReviewerName, log)

	if c.db != nil {
		var source jobs.CronSource
		if cfg.GatewayEnabled() {
			source = gw
		}
		c.syncer = jobs.NewSyncer(c.db, scanner, source, cfg.SyncInterval, log)
	}

	return c, nil
}

// routeDeps adapts the components to the server's route dependencies.
func (c *components) routeDeps() server.Deps {
	return server.Deps{
		DB:           c.db,
		Reviews:      c.reviews,
		Hub:          c.hub,
		Deliverables: c.deliverables,
	}
}
