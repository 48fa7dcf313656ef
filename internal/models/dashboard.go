package models

import "time"

// Agent status constants
const (
	AgentActive  = "active"
	AgentIdle    = "idle"
	AgentOffline = "offline"
)

// AgentStatusRank orders agents active first.
func AgentStatusRank(status string) int {
	switch status {
	case AgentActive:
		return 0
	case AgentIdle:
		return 1
	default:
		return 2
	}
}

// Agent is one member of the fleet.
type Agent struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Emoji         string  `json:"emoji"`
	Status        string  `json:"status"`
	Role          string  `json:"role,omitempty"`
	LastActivity  *string `json:"lastActivity"` // YYYY-MM-DD
	MemoryFiles   int     `json:"memoryFiles"`
	WorkspacePath string  `json:"workspacePath"`
}

// Activity type constants
const (
	ActivityTask    = "task"
	ActivityCommit  = "commit"
	ActivityMessage = "message"
	ActivityAlert   = "alert"
	ActivityDeploy  = "deploy"
)

// Activity is one entry in the fleet activity feed.
type Activity struct {
	ID         string    `json:"id"`
	AgentID    string    `json:"agentId,omitempty"`
	Agent      string    `json:"agent"`
	AgentEmoji string    `json:"agentEmoji"`
	Action     string    `json:"action"`
	Details    string    `json:"details"`
	Timestamp  time.Time `json:"timestamp"`
	Type       string    `json:"type"`
}

// Task status constants
const (
	TaskTodo       = "todo"
	TaskInProgress = "in-progress"
	TaskDone       = "done"
	TaskBlocked    = "blocked"
)

// Task is a unit of work tracked for an agent.
type Task struct {
	ID       string `json:"id"`
	AgentID  string `json:"agentId,omitempty"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Assignee string `json:"assignee,omitempty"`
	Deadline string `json:"deadline,omitempty"`
	Source   string `json:"source"`
}

// Schedule kinds
const (
	ScheduleAt    = "at"
	ScheduleEvery = "every"
	ScheduleCron  = "cron"
)

// Schedule describes when a cron job fires.
type Schedule struct {
	Kind    string `json:"kind"`
	Expr    string `json:"expr,omitempty"`
	At      string `json:"at,omitempty"`
	EveryMs int64  `json:"everyMs,omitempty"`
}

// CronJob is a scheduled job known to the orchestration gateway.
type CronJob struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Schedule      Schedule   `json:"schedule"`
	SessionTarget string     `json:"sessionTarget"`
	Enabled       bool       `json:"enabled"`
	LastRun       *time.Time `json:"lastRun,omitempty"`
	NextRun       *time.Time `json:"nextRun,omitempty"`
}

// TokenBalance is one holding in a wallet snapshot.
type TokenBalance struct {
	Symbol   string  `json:"symbol"`
	Balance  float64 `json:"balance"`
	USDValue float64 `json:"usdValue"`
}

// WalletSnapshot is a point-in-time view of the fleet wallet.
type WalletSnapshot struct {
	Address    string         `json:"address"`
	TotalValue float64        `json:"totalValue"`
	Tokens     []TokenBalance `json:"tokens"`
	Timestamp  time.Time      `json:"timestamp"`
}

// AuditEntry records a submission or decision for the approval log and
// activity feed.
type AuditEntry struct {
	SubjectID    string    `json:"subjectId"`
	SubjectTitle string    `json:"subjectTitle"`
	Action       string    `json:"action"`
	Actor        string    `json:"actor"`
	Notes        string    `json:"notes,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
