package sources

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/captainbotgit/mission-control/internal/models"
	"github.com/captainbotgit/mission-control/internal/workspace"
)

// DefaultActivityLimit is used when a caller asks for no limit.
const DefaultActivityLimit = 30

// Table is the database tier. *db.DB implements it.
type Table interface {
	ListAgents(ctx context.Context) ([]models.Agent, error)
	ListActivities(ctx context.Context, limit int) ([]models.Activity, error)
	ListTasks(ctx context.Context, status string) ([]models.Task, error)
	ListCronJobs(ctx context.Context) ([]models.CronJob, error)
}

// Workspace is the filesystem tier. *workspace.Scanner implements it.
type Workspace interface {
	Scan(ctx context.Context) (*workspace.Snapshot, error)
}

// CronGateway lists live cron jobs. *gateway.Client implements it.
type CronGateway interface {
	Enabled() bool
	ListCronJobs(ctx context.Context) ([]models.CronJob, error)
}

// WalletReader reads the wallet. *wallet.Client implements it.
type WalletReader interface {
	Enabled() bool
	Snapshot(ctx context.Context) (*models.WalletSnapshot, error)
}

// Config wires a Hub. Every field except Logger is optional; a missing
// tier is skipped.
type Config struct {
	Table         Table
	Workspace     Workspace
	Gateway       CronGateway
	Wallet        WalletReader
	WalletAddress string
	Logger        *zap.Logger
}

// Hub resolves every dashboard resource through its provider chain.
type Hub struct {
	table     Table
	workspace Workspace
	gateway   CronGateway
	wallet    WalletReader
	address   string
	log       *zap.Logger
	now       func() time.Time
}

// NewHub creates a Hub from cfg.
func NewHub(cfg Config) *Hub {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		table:     cfg.Table,
		workspace: cfg.Workspace,
		gateway:   cfg.Gateway,
		wallet:    cfg.Wallet,
		address:   cfg.WalletAddress,
		log:       log.Named("sources"),
		now:       time.Now,
	}
}

// Agents returns the fleet, active agents first.
func (h *Hub) Agents(ctx context.Context) (Result[[]models.Agent], error) {
	res, err := Resolve(ctx, h.log, "agents",
		Func(SourceDatabase, func(ctx context.Context) ([]models.Agent, error) {
			if h.table == nil {
				return nil, ErrDisabled
			}
			return nonEmpty(h.table.ListAgents(ctx))
		}),
		Func(SourceFilesystem, func(ctx context.Context) ([]models.Agent, error) {
			snap, err := h.scan(ctx)
			if err != nil {
				return nil, err
			}
			return nonEmpty(snap.Agents, nil)
		}),
		Func(SourceMock, func(context.Context) ([]models.Agent, error) {
			return mockAgents(h.now()), nil
		}),
	)
	slices.SortStableFunc(res.Data, func(a, b models.Agent) int {
		return cmp.Compare(models.AgentStatusRank(a.Status), models.AgentStatusRank(b.Status))
	})
	return res, err
}

// Activity returns the newest limit activities.
func (h *Hub) Activity(ctx context.Context, limit int) (Result[[]models.Activity], error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	res, err := Resolve(ctx, h.log, "activity",
		Func(SourceDatabase, func(ctx context.Context) ([]models.Activity, error) {
			if h.table == nil {
				return nil, ErrDisabled
			}
			return nonEmpty(h.table.ListActivities(ctx, limit))
		}),
		Func(SourceFilesystem, func(ctx context.Context) ([]models.Activity, error) {
			snap, err := h.scan(ctx)
			if err != nil {
				return nil, err
			}
			return nonEmpty(snap.Activities, nil)
		}),
		Func(SourceMock, func(context.Context) ([]models.Activity, error) {
			return mockActivities(h.now()), nil
		}),
	)
	slices.SortStableFunc(res.Data, func(a, b models.Activity) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if len(res.Data) > limit {
		res.Data = res.Data[:limit]
	}
	return res, err
}

// Tasks returns tasks, high priority first, optionally filtered by status.
func (h *Hub) Tasks(ctx context.Context, status string) (Result[[]models.Task], error) {
	res, err := Resolve(ctx, h.log, "tasks",
		Func(SourceDatabase, func(ctx context.Context) ([]models.Task, error) {
			if h.table == nil {
				return nil, ErrDisabled
			}
			tasks, err := h.table.ListTasks(ctx, status)
			if err != nil || status == "" {
				return nonEmpty(tasks, err)
			}
			// A filtered answer from a reachable table stands even when empty.
			if tasks == nil {
				tasks = []models.Task{}
			}
			return tasks, nil
		}),
		Func(SourceFilesystem, func(ctx context.Context) ([]models.Task, error) {
			snap, err := h.scan(ctx)
			if err != nil {
				return nil, err
			}
			if len(snap.Tasks) == 0 {
				return nil, ErrEmpty
			}
			return filterTasks(snap.Tasks, status), nil
		}),
		Func(SourceMock, func(context.Context) ([]models.Task, error) {
			return filterTasks(mockTasks(), status), nil
		}),
	)
	slices.SortStableFunc(res.Data, func(a, b models.Task) int {
		return cmp.Compare(models.PriorityRank(a.Priority), models.PriorityRank(b.Priority))
	})
	return res, err
}

// Cron returns scheduled jobs with nextRun filled in where it can be
// computed.
func (h *Hub) Cron(ctx context.Context) (Result[[]models.CronJob], error) {
	res, err := Resolve(ctx, h.log, "cron",
		Func(SourceGateway, func(ctx context.Context) ([]models.CronJob, error) {
			if h.gateway == nil || !h.gateway.Enabled() {
				return nil, ErrDisabled
			}
			return h.gateway.ListCronJobs(ctx)
		}),
		Func(SourceDatabase, func(ctx context.Context) ([]models.CronJob, error) {
			if h.table == nil {
				return nil, ErrDisabled
			}
			return nonEmpty(h.table.ListCronJobs(ctx))
		}),
		Func(SourceMock, func(context.Context) ([]models.CronJob, error) {
			return mockCronJobs(h.now()), nil
		}),
	)
	now := h.now()
	for i := range res.Data {
		FillNextRun(&res.Data[i], now)
	}
	return res, err
}

// Wallet returns the wallet snapshot.
func (h *Hub) Wallet(ctx context.Context) (Result[*models.WalletSnapshot], error) {
	return Resolve(ctx, h.log, "wallet",
		Func(SourceRPC, func(ctx context.Context) (*models.WalletSnapshot, error) {
			if h.wallet == nil || !h.wallet.Enabled() {
				return nil, ErrDisabled
			}
			return h.wallet.Snapshot(ctx)
		}),
		Func(SourceMock, func(context.Context) (*models.WalletSnapshot, error) {
			return mockWallet(h.address, h.now()), nil
		}),
	)
}

func (h *Hub) scan(ctx context.Context) (*workspace.Snapshot, error) {
	if h.workspace == nil {
		return nil, ErrDisabled
	}
	return h.workspace.Scan(ctx)
}

// FillNextRun computes job.NextRun from its schedule when the source left it
// empty. Disabled jobs and unparseable schedules are left alone.
func FillNextRun(job *models.CronJob, now time.Time) {
	if job.NextRun != nil || !job.Enabled {
		return
	}

	var next time.Time
	switch job.Schedule.Kind {
	case models.ScheduleCron:
		sched, err := cron.ParseStandard(job.Schedule.Expr)
		if err != nil {
			return
		}
		next = sched.Next(now)
	case models.ScheduleEvery:
		if job.LastRun == nil || job.Schedule.EveryMs <= 0 {
			return
		}
		next = job.LastRun.Add(time.Duration(job.Schedule.EveryMs) * time.Millisecond)
	case models.ScheduleAt:
		at, err := time.Parse(time.RFC3339, job.Schedule.At)
		if err != nil || at.Before(now) {
			return
		}
		next = at
	default:
		return
	}
	next = next.UTC()
	job.NextRun = &next
}

func filterTasks(tasks []models.Task, status string) []models.Task {
	if status == "" {
		return tasks
	}
	out := []models.Task{}
	for _, t := range tasks {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

func nonEmpty[T any](items []T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmpty
	}
	return items, nil
}
