package models

import (
	"time"

	"github.com/google/uuid"
)

// Deliverable status constants
const (
	DeliverablePending           = "pending"
	DeliverableApproved          = "approved"
	DeliverableRejected          = "rejected"
	DeliverableRevisionRequested = "revision_requested"
	DefaultDeliverableType       = "feature"
)

// Deliverable is a piece of finished agent work awaiting sign-off.
type Deliverable struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Description    *string    `json:"description"`
	AgentID        string     `json:"agentId"`
	AgentName      string     `json:"agentName"`
	TaskID         *string    `json:"taskId"`
	Type           string     `json:"type"`
	PRURL          *string    `json:"prUrl"`
	DeployURL      *string    `json:"deployUrl"`
	ScreenshotURL  *string    `json:"screenshotUrl"`
	Branch         *string    `json:"branch"`
	FilesChanged   []string   `json:"filesChanged"`
	Status         string     `json:"status"`
	ApprovedBy     *string    `json:"approvedBy"`
	ApprovalNotes  *string    `json:"approvalNotes"`
	ApprovedAt     *time.Time `json:"approvedAt"`
	WebhookFired   bool       `json:"webhookFired"`
	WebhookFiredAt *time.Time `json:"webhookFiredAt"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// IsDeliverableStatus reports whether s is a status a reviewer can set.
func IsDeliverableStatus(s string) bool {
	switch s {
	case DeliverableApproved, DeliverableRejected, DeliverableRevisionRequested:
		return true
	}
	return false
}
