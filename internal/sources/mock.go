package sources

import (
	"time"

	"github.com/captainbotgit/mission-control/internal/models"
)

// Mock data shown when no real source answers.

func mockAgents(now time.Time) []models.Agent {
	today := now.UTC().Format(time.DateOnly)
	return []models.Agent{
		{ID: "main", Name: "Captain", Emoji: "🎖️", Status: models.AgentActive, Role: "Fleet Commander", LastActivity: &today, MemoryFiles: 8, WorkspacePath: "/mock/captain"},
		{ID: "devops", Name: "Forge", Emoji: "⚙️", Status: models.AgentActive, Role: "CTO / DevOps", LastActivity: &today, MemoryFiles: 12, WorkspacePath: "/mock/forge"},
	}
}

func mockActivities(now time.Time) []models.Activity {
	return []models.Activity{
		{ID: "mock-1", Agent: "Forge", AgentEmoji: "⚙️", Action: "Fixed voice assistant TTS", Details: "Speech output now plays on the kitchen speaker", Timestamp: now.Add(-30 * time.Minute), Type: models.ActivityDeploy},
		{ID: "mock-2", Agent: "Forge", AgentEmoji: "⚙️", Action: "Created dashboard schema", Details: "Tables for agents, activities, tasks", Timestamp: now.Add(-45 * time.Minute), Type: models.ActivityCommit},
		{ID: "mock-3", Agent: "Captain", AgentEmoji: "🎖️", Action: "Set Wednesday deadline", Details: "3 deliverables: dashboard, voice, build decision", Timestamp: now.Add(-2 * time.Hour), Type: models.ActivityMessage},
	}
}

func mockTasks() []models.Task {
	return []models.Task{
		{ID: "task-1", Title: "Dashboard phantom data fix", Status: models.TaskInProgress, Priority: models.PriorityHigh, Assignee: "Forge", Source: "HEARTBEAT.md"},
		{ID: "task-2", Title: "Voice assistant end-to-end", Status: models.TaskInProgress, Priority: models.PriorityHigh, Assignee: "Forge", Source: "HEARTBEAT.md"},
		{ID: "task-3", Title: "Build-vs-rebuild decision", Status: models.TaskTodo, Priority: models.PriorityHigh, Assignee: "Forge", Source: "HEARTBEAT.md"},
		{ID: "task-4", Title: "Review portal persistence", Status: models.TaskDone, Priority: models.PriorityHigh, Assignee: "Forge", Source: "HEARTBEAT.md"},
	}
}

func mockCronJobs(now time.Time) []models.CronJob {
	last := now.Add(-15 * time.Minute).UTC()
	next := now.Add(15 * time.Minute).UTC()
	return []models.CronJob{
		{
			ID:            "heartbeat-main",
			Name:          "Main Session Heartbeat",
			Schedule:      models.Schedule{Kind: models.ScheduleEvery, EveryMs: (30 * time.Minute).Milliseconds()},
			SessionTarget: "main",
			Enabled:       true,
			LastRun:       &last,
			NextRun:       &next,
		},
		{
			ID:            "daily-digest",
			Name:          "Daily Digest",
			Schedule:      models.Schedule{Kind: models.ScheduleCron, Expr: "0 9 * * *"},
			SessionTarget: "isolated",
			Enabled:       true,
		},
	}
}

func mockWallet(address string, now time.Time) *models.WalletSnapshot {
	return &models.WalletSnapshot{
		Address:   address,
		Tokens:    []models.TokenBalance{},
		Timestamp: now.UTC(),
	}
}
