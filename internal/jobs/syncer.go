package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/captainbotgit/mission-control/internal/models"
	"github.com/captainbotgit/mission-control/internal/workspace"
)

// Store receives synced data. *db.DB implements it.
type Store interface {
	UpsertAgents(ctx context.Context, agents []models.Agent) error
	UpsertTasks(ctx context.Context, tasks []models.Task) error
	UpsertActivities(ctx context.Context, activities []models.Activity) error
	ReplaceCronJobs(ctx context.Context, jobs []models.CronJob) error
}

// Scanner reads agent workspaces. *workspace.Scanner implements it.
type Scanner interface {
	Scan(ctx context.Context) (*workspace.Snapshot, error)
}

// CronSource lists live cron jobs. *gateway.Client implements it.
type CronSource interface {
	Enabled() bool
	ListCronJobs(ctx context.Context) ([]models.CronJob, error)
}

// Report summarizes one sync pass.
type Report struct {
	Agents     int
	Tasks      int
	Activities int
	CronJobs   int
	// CronSkipped is set when the gateway isn't configured or failed.
	CronSkipped bool
}

// Syncer copies workspace data and the gateway's cron list into the
// database so the dashboard can serve them without filesystem access.
type Syncer struct {
	store    Store
	scanner  Scanner
	gateway  CronSource
	interval time.Duration
	log      *zap.Logger
}

// NewSyncer creates a syncer. gateway may be nil.
func NewSyncer(store Store, scanner Scanner, gateway CronSource, interval time.Duration, log *zap.Logger) *Syncer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Syncer{
		store:    store,
		scanner:  scanner,
		gateway:  gateway,
		interval: interval,
		log:      log.Named("syncer"),
	}
}

// Start runs a sync immediately and then on every tick until ctx is done.
func (s *Syncer) Start(ctx context.Context) {
	s.log.Info("syncer started", zap.Duration("interval", s.interval))

	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("syncer stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Syncer) runOnce(ctx context.Context) {
	report, err := s.Sync(ctx)
	if err != nil {
		s.log.Error("sync failed", zap.Error(err))
		return
	}
	s.log.Info("sync complete",
		zap.Int("agents", report.Agents),
		zap.Int("tasks", report.Tasks),
		zap.Int("activities", report.Activities),
		zap.Int("cron_jobs", report.CronJobs),
		zap.Bool("cron_skipped", report.CronSkipped),
	)
}

// Sync performs one pass. Workspace failures are returned; gateway
// failures only mark the cron step skipped so the cached snapshot survives.
func (s *Syncer) Sync(ctx context.Context) (*Report, error) {
	snap, err := s.scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan workspaces: %w", err)
	}

	if err := s.store.UpsertAgents(ctx, snap.Agents); err != nil {
		return nil, fmt.Errorf("upsert agents: %w", err)
	}
	if err := s.store.UpsertTasks(ctx, snap.Tasks); err != nil {
		return nil, fmt.Errorf("upsert tasks: %w", err)
	}
	if err := s.store.UpsertActivities(ctx, snap.Activities); err != nil {
		return nil, fmt.Errorf("upsert activities: %w", err)
	}

	report := &Report{
		Agents:      len(snap.Agents),
		Tasks:       len(snap.Tasks),
		Activities:  len(snap.Activities),
		CronSkipped: true,
	}

	if s.gateway == nil || !s.gateway.Enabled() {
		return report, nil
	}
	jobs, err := s.gateway.ListCronJobs(ctx)
	if err != nil {
		s.log.Warn("gateway unavailable, keeping cached cron jobs", zap.Error(err))
		return report, nil
	}
	if err := s.store.ReplaceCronJobs(ctx, jobs); err != nil {
		return nil, fmt.Errorf("replace cron jobs: %w", err)
	}
	report.CronJobs = len(jobs)
	report.CronSkipped = false
	return report, nil
}
