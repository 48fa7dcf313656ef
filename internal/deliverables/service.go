// Package deliverables runs the sign-off flow for finished agent work:
// submission, approval decisions, the approval log and the outbound webhook.
package deliverables

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/captainbotgit/mission-control/internal/db"
	"github.com/captainbotgit/mission-control/internal/models"
	"github.com/captainbotgit/mission-control/internal/validation"
	"github.com/captainbotgit/mission-control/internal/webhook"
)

const defaultListLimit = 50

var (
	// ErrInvalid wraps every request validation failure.
	ErrInvalid = errors.New("invalid request")
	// ErrNotFound is returned for an unknown deliverable id.
	ErrNotFound = errors.New("deliverable not found")
	// ErrUnavailable is returned when no database is configured.
	ErrUnavailable = errors.New("deliverables require a database")
)

// Store is the persistence the flow needs. *db.DB implements it.
type Store interface {
	ListDeliverables(ctx context.Context, status, agentID string, limit int) ([]models.Deliverable, error)
	GetDeliverable(ctx context.Context, id uuid.UUID) (*models.Deliverable, error)
	CreateDeliverable(ctx context.Context, item *models.Deliverable) error
	DecideDeliverable(ctx context.Context, id uuid.UUID, status, approver, notes string) (*models.Deliverable, error)
	MarkWebhookFired(ctx context.Context, id uuid.UUID) error
	RecordApproval(ctx context.Context, e models.AuditEntry) error
	InsertActivity(ctx context.Context, a models.Activity) error
}

// Sender delivers approval payloads. *webhook.Notifier implements it.
type Sender interface {
	Configured() bool
	Send(ctx context.Context, payload webhook.ApprovalPayload) error
}

// Service runs the deliverable flow.
type Service struct {
	store    Store
	sender   Sender
	approver string
	log      *zap.Logger
	now      func() time.Time
}

// NewService creates a Service. A nil store makes every call return
// ErrUnavailable; approver is recorded when a request names none.
func NewService(store Store, sender Sender, approver string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:    store,
		sender:   sender,
		approver: approver,
		log:      log.Named("deliverables"),
		now:      time.Now,
	}
}

// Available reports whether a store is configured.
func (s *Service) Available() bool {
	return s.store != nil
}

// WebhookConfigured reports whether approvals will be forwarded.
func (s *Service) WebhookConfigured() bool {
	return s.sender != nil && s.sender.Configured()
}

// List returns deliverables newest first, optionally filtered.
func (s *Service) List(ctx context.Context, status, agentID string, limit int) ([]models.Deliverable, error) {
	if !s.Available() {
		return nil, ErrUnavailable
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	items, err := s.store.ListDeliverables(ctx, status, agentID, limit)
	if err != nil {
		return nil, fmt.Errorf("list deliverables: %w", err)
	}
	if items == nil {
		items = []models.Deliverable{}
	}
	return items, nil
}

// Submit validates and stores a new pending deliverable, then records the
// submission in the approval log and activity feed.
func (s *Service) Submit(ctx context.Context, item *models.Deliverable) error {
	if !s.Available() {
		return ErrUnavailable
	}
	if err := validateSubmission(item); err != nil {
		return err
	}
	if err := s.store.CreateDeliverable(ctx, item); err != nil {
		return fmt.Errorf("create deliverable: %w", err)
	}

	now := s.now().UTC()
	s.record(ctx, models.AuditEntry{
		SubjectID:    item.ID.String(),
		SubjectTitle: item.Title,
		Action:       "submitted",
		Actor:        item.AgentName,
		Notes:        "Submitted: " + item.Title,
		Timestamp:    now,
	}, models.Activity{
		ID:         "submit-" + item.ID.String(),
		AgentID:    item.AgentID,
		Agent:      item.AgentName,
		AgentEmoji: "🔨",
		Action:     "Submitted for review: " + item.Title,
		Details:    firstNonEmpty(item.PRURL, item.Description),
		Timestamp:  now,
		Type:       models.ActivityTask,
	})
	return nil
}

// ApprovalRequest is a reviewer's decision on a deliverable.
type ApprovalRequest struct {
	DeliverableID string `json:"deliverableId"`
	Status        string `json:"status"`
	Notes         string `json:"notes,omitempty"`
	ApprovedBy    string `json:"approvedBy,omitempty"`
}

// ApprovalResult reports what Approve did.
type ApprovalResult struct {
	DeliverableID string    `json:"deliverableId"`
	Status        string    `json:"status"`
	ApprovedBy    string    `json:"approvedBy"`
	Notes         *string   `json:"notes"`
	Webhook       string    `json:"webhook"` // "fired" or "skipped"
	WebhookError  string    `json:"webhookError,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Approve records a decision. Approval log, activity feed and webhook
// failures are logged and never undo the decision.
func (s *Service) Approve(ctx context.Context, req ApprovalRequest) (*ApprovalResult, error) {
	if !s.Available() {
		return nil, ErrUnavailable
	}

	id, err := validateApproval(&req)
	if err != nil {
		return nil, err
	}
	if req.ApprovedBy == "" {
		req.ApprovedBy = s.approver
	}

	updated, err := s.store.DecideDeliverable(ctx, id, req.Status, req.ApprovedBy, req.Notes)
	if errors.Is(err, db.ErrDeliverableNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, req.DeliverableID)
	}
	if err != nil {
		return nil, fmt.Errorf("update deliverable: %w", err)
	}

	now := s.now().UTC()
	s.record(ctx, models.AuditEntry{
		SubjectID:    req.DeliverableID,
		SubjectTitle: updated.Title,
		Action:       req.Status,
		Actor:        req.ApprovedBy,
		Notes:        req.Notes,
		Timestamp:    now,
	}, models.Activity{
		ID:         fmt.Sprintf("approval-%s-%d", req.DeliverableID, now.UnixMilli()),
		Agent:      req.ApprovedBy,
		AgentEmoji: "👤",
		Action:     approvalAction(req.Status, updated.Title),
		Details:    req.Notes,
		Timestamp:  now,
		Type:       models.ActivityTask,
	})

	result := &ApprovalResult{
		DeliverableID: req.DeliverableID,
		Status:        req.Status,
		ApprovedBy:    req.ApprovedBy,
		Webhook:       "skipped",
		Timestamp:     now,
	}
	if req.Notes != "" {
		result.Notes = &req.Notes
	}

	if s.sender == nil {
		result.WebhookError = webhook.ErrNotConfigured.Error()
		return result, nil
	}
	err = s.sender.Send(ctx, webhook.ApprovalPayload{
		DeliverableID: req.DeliverableID,
		Status:        req.Status,
		Notes:         req.Notes,
		ApprovedBy:    req.ApprovedBy,
		Deliverable:   updated,
		Timestamp:     now,
	})
	if err != nil {
		result.WebhookError = err.Error()
		return result, nil
	}

	result.Webhook = "fired"
	if err := s.store.MarkWebhookFired(ctx, id); err != nil {
		s.log.Warn("failed to mark webhook fired", zap.String("deliverable_id", req.DeliverableID), zap.Error(err))
	}
	return result, nil
}

func (s *Service) record(ctx context.Context, entry models.AuditEntry, activity models.Activity) {
	if err := s.store.RecordApproval(ctx, entry); err != nil {
		s.log.Warn("approval log failed", zap.String("subject_id", entry.SubjectID), zap.Error(err))
	}
	if err := s.store.InsertActivity(ctx, activity); err != nil {
		s.log.Warn("activity log failed", zap.String("subject_id", entry.SubjectID), zap.Error(err))
	}
}

func validateSubmission(item *models.Deliverable) error {
	item.Title = strings.TrimSpace(item.Title)
	item.AgentID = strings.TrimSpace(item.AgentID)
	if item.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if item.AgentID == "" {
		return fmt.Errorf("%w: agentId is required", ErrInvalid)
	}
	if item.AgentName == "" {
		item.AgentName = item.AgentID
	}

	urls := []struct {
		field string
		value *string
	}{
		{"prUrl", item.PRURL},
		{"deployUrl", item.DeployURL},
		{"screenshotUrl", item.ScreenshotURL},
	}
	for _, u := range urls {
		if u.value == nil {
			continue
		}
		if ok, msg := validation.ValidateOptionalURL(*u.value); !ok {
			return fmt.Errorf("%w: %s: %s", ErrInvalid, u.field, msg)
		}
	}
	return nil
}

func validateApproval(req *ApprovalRequest) (uuid.UUID, error) {
	if req.DeliverableID == "" {
		return uuid.Nil, fmt.Errorf("%w: deliverableId is required", ErrInvalid)
	}
	id, err := uuid.Parse(req.DeliverableID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: deliverableId must be a UUID", ErrInvalid)
	}
	if !models.IsDeliverableStatus(req.Status) {
		return uuid.Nil, fmt.Errorf("%w: status must be one of: %s, %s, %s", ErrInvalid,
			models.DeliverableApproved, models.DeliverableRejected, models.DeliverableRevisionRequested)
	}
	req.Notes = strings.TrimSpace(req.Notes)
	req.ApprovedBy = strings.TrimSpace(req.ApprovedBy)
	return id, nil
}

func approvalAction(status, title string) string {
	switch status {
	case models.DeliverableApproved:
		return "Approved: " + title
	case models.DeliverableRejected:
		return "Rejected: " + title
	default:
		return "Requested revision: " + title
	}
}

func firstNonEmpty(values ...*string) string {
	for _, v := range values {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}
