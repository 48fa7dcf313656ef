package review

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"

	"github.com/captainbotgit/mission-control/internal/db"
	"github.com/captainbotgit/mission-control/internal/models"
)

// Auditor records submissions and decisions. Failures are logged by the
// Service and never undo the recorded change.
type Auditor interface {
	Audit(ctx context.Context, e models.AuditEntry) error
}

// LogAuditor writes audit entries to a zap logger.
type LogAuditor struct {
	log *zap.Logger
}

// NewLogAuditor returns an auditor writing to log.
func NewLogAuditor(log *zap.Logger) *LogAuditor {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogAuditor{log: log}
}

func (a *LogAuditor) Audit(_ context.Context, e models.AuditEntry) error {
	a.log.Info("review audit",
		zap.String("subject_id", e.SubjectID),
		zap.String("title", e.SubjectTitle),
		zap.String("action", e.Action),
		zap.String("actor", e.Actor),
		zap.String("notes", e.Notes),
	)
	return nil
}

// DBAuditor writes audit entries to the approval log and mirrors them into
// the activity feed.
type DBAuditor struct {
	db *db.DB
}

// NewDBAuditor returns an auditor backed by database.
func NewDBAuditor(database *db.DB) *DBAuditor {
	return &DBAuditor{db: database}
}

func (a *DBAuditor) Audit(ctx context.Context, e models.AuditEntry) error {
	if err := a.db.RecordApproval(ctx, e); err != nil {
		return fmt.Errorf("approval log: %w", err)
	}
	if err := a.db.InsertActivity(ctx, AuditActivity(e)); err != nil {
		return fmt.Errorf("activity: %w", err)
	}
	return nil
}

// AuditActivity renders an audit entry as an activity feed item.
func AuditActivity(e models.AuditEntry) models.Activity {
	sum := md5.Sum([]byte(e.SubjectID + e.Action + e.Timestamp.String()))

	activityType := models.ActivityTask
	if e.Action == string(models.StatusRejected) {
		activityType = models.ActivityAlert
	}

	return models.Activity{
		ID:        "audit_" + hex.EncodeToString(sum[:])[:12],
		Agent:     e.Actor,
		Action:    fmt.Sprintf("%s %s", e.Action, e.SubjectTitle),
		Details:   e.Notes,
		Timestamp: e.Timestamp,
		Type:      activityType,
	}
}
