package workspace

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/captainbotgit/mission-control/internal/config"
	"github.com/captainbotgit/mission-control/internal/models"
	"github.com/captainbotgit/mission-control/internal/validation"
)

const (
	heartbeatFile = "HEARTBEAT.md"
	memoryDir     = "memory"
	taskSource    = "HEARTBEAT.md"

	defaultEmoji = "🤖"
	defaultRole  = "Agent"

	// activityDays is how many daily logs, counting today, are read per agent.
	activityDays   = 7
	maxDetailsLen  = 300
	hashIDLen      = 12
	activeWithin   = 24 * time.Hour
	idleWithin     = 72 * time.Hour
	endOfDayOffset = 24*time.Hour - time.Second
)

var memoryFileRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\.md$`)

// Snapshot is everything read from the agents directory in one pass.
type Snapshot struct {
	Agents     []models.Agent
	Tasks      []models.Task
	Activities []models.Activity
}

// Scanner reads <root>/<agentId>/workspace for every agent directory.
type Scanner struct {
	root      string
	roster    *config.YAMLConfig
	heartbeat Parser[TaskEntry]
	logs      Parser[LogEntry]
	log       *zap.Logger
	now       func() time.Time
}

// NewScanner creates a scanner over root. Names, emoji and roles come from roster.
func NewScanner(root string, roster *config.YAMLConfig, log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{
		root:      root,
		roster:    roster,
		heartbeat: HeartbeatParser{},
		logs:      DailyLogParser{},
		log:       log.Named("workspace"),
		now:       time.Now,
	}
}

// Root returns the agents directory.
func (s *Scanner) Root() string { return s.root }

// Scan reads every agent workspace. It fails only when the root itself
// cannot be listed; unreadable files inside a workspace are skipped.
func (s *Scanner) Scan(ctx context.Context) (*Snapshot, error) {
	dirs, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read agents dir: %w", err)
	}

	now := s.now().UTC()
	snap := &Snapshot{}
	for _, d := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			continue
		}
		if !validation.ValidateIdentifier(d.Name()) {
			s.log.Debug("skipping directory with invalid agent id", zap.String("dir", d.Name()))
			continue
		}

		agent, tasks, activities := s.scanAgent(d.Name(), now)
		snap.Agents = append(snap.Agents, agent)
		snap.Tasks = append(snap.Tasks, tasks...)
		snap.Activities = append(snap.Activities, activities...)
	}

	snap.Tasks = dedupe(snap.Tasks, func(t models.Task) string { return t.ID })
	snap.Activities = dedupe(snap.Activities, func(a models.Activity) string { return a.ID })
	return snap, nil
}

func (s *Scanner) scanAgent(id string, now time.Time) (models.Agent, []models.Task, []models.Activity) {
	workspace := filepath.Join(s.root, id, "workspace")
	memDir := filepath.Join(workspace, memoryDir)

	agent := models.Agent{
		ID:            id,
		Name:          id,
		Emoji:         defaultEmoji,
		Role:          defaultRole,
		Status:        models.AgentOffline,
		WorkspacePath: workspace,
	}
	if r := s.roster.GetAgent(id); r != nil {
		agent.Name = r.Name
		if r.Emoji != "" {
			agent.Emoji = r.Emoji
		}
		if r.Role != "" {
			agent.Role = r.Role
		}
	}

	dates := memoryDates(memDir)
	agent.MemoryFiles = len(dates)
	if len(dates) > 0 {
		last := dates[len(dates)-1]
		agent.LastActivity = &last
		agent.Status = statusFor(last, now)
	}

	var tasks []models.Task
	if src, err := os.ReadFile(filepath.Join(workspace, heartbeatFile)); err == nil {
		tasks = s.tasks(agent, src)
	} else if !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("failed to read heartbeat", zap.String("agent", id), zap.Error(err))
	}

	var activities []models.Activity
	for i := range activityDays {
		date := now.AddDate(0, 0, -i).Format(time.DateOnly)
		src, err := os.ReadFile(filepath.Join(memDir, date+".md"))
		if err != nil {
			continue
		}
		activities = append(activities, s.activities(agent, date, src)...)
	}

	s.log.Debug("scanned agent",
		zap.String("agent", id),
		zap.String("status", agent.Status),
		zap.Int("tasks", len(tasks)),
		zap.Int("activities", len(activities)),
	)
	return agent, tasks, activities
}

// memoryDates returns the sorted dates of the daily logs in dir.
func memoryDates(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var dates []string
	for _, e := range entries {
		if !e.IsDir() && memoryFileRe.MatchString(e.Name()) {
			dates = append(dates, strings.TrimSuffix(e.Name(), ".md"))
		}
	}
	slices.Sort(dates)
	return dates
}

// statusFor measures from the end of the last logged day.
func statusFor(lastDate string, now time.Time) string {
	day, err := time.Parse(time.DateOnly, lastDate)
	if err != nil {
		return models.AgentOffline
	}
	since := now.Sub(day.Add(endOfDayOffset))
	switch {
	case since <= activeWithin:
		return models.AgentActive
	case since <= idleWithin:
		return models.AgentIdle
	default:
		return models.AgentOffline
	}
}

func (s *Scanner) tasks(agent models.Agent, src []byte) []models.Task {
	entries := s.heartbeat.Parse(src)
	tasks := make([]models.Task, 0, len(entries))
	for _, e := range entries {
		t := models.Task{
			AgentID:  agent.ID,
			Title:    e.Title,
			Status:   models.TaskInProgress,
			Priority: e.Priority,
			Assignee: agent.Name,
			Source:   taskSource,
		}
		switch {
		case e.Done:
			t.Status = models.TaskDone
			t.ID = "task-" + hashID(agent.ID+"-done-"+truncate(e.Title, 50))
		case e.Code != "":
			t.ID = "task-" + agent.ID + "-" + strings.ToLower(e.Code)
		default:
			t.ID = "task-" + hashID(agent.ID+"-"+e.Title)
		}
		tasks = append(tasks, t)
	}
	return tasks
}

func (s *Scanner) activities(agent models.Agent, date string, src []byte) []models.Activity {
	entries := s.logs.Parse(src)
	out := make([]models.Activity, 0, len(entries))
	for _, e := range entries {
		ts, err := time.Parse(time.DateOnly+"T15:04", date+"T"+e.Time)
		if e.Time == "" || err != nil {
			ts, _ = time.Parse(time.DateOnly, date)
			ts = ts.Add(12 * time.Hour)
		}

		action := truncate(e.Text, maxTitleLen)
		details := strings.TrimPrefix(e.Text, action)

		out = append(out, models.Activity{
			ID:         "act-" + hashID(agent.ID+"-"+date+"-"+truncate(e.Text, 100)),
			AgentID:    agent.ID,
			Agent:      agent.Name,
			AgentEmoji: agent.Emoji,
			Action:     action,
			Details:    truncate(details, maxDetailsLen),
			Timestamp:  ts.UTC(),
			Type:       e.Type,
		})
	}
	return out
}

// hashID returns a short stable id derived from s.
func hashID(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:hashIDLen]
}

// dedupe keeps the first position of each key and the last value written to it.
func dedupe[T any](items []T, key func(T) string) []T {
	index := make(map[string]int, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if i, ok := index[k]; ok {
			out[i] = item
			continue
		}
		index[k] = len(out)
		out = append(out, item)
	}
	return out
}
