package db

import (
	"context"

	"github.com/captainbotgit/mission-control/internal/models"
)

// ApprovalLogEntry is one row of the approval log.
type ApprovalLogEntry struct {
	ID        int64
	SubjectID string
	Action    string
	Actor     string
	Notes     *string
}

// RecordApproval appends an entry to the approval log.
func (d *DB) RecordApproval(ctx context.Context, e models.AuditEntry) error {
	var notes *string
	if e.Notes != "" {
		notes = &e.Notes
	}
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO approval_log (subject_id, action, actor, notes, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, e.SubjectID, e.Action, e.Actor, notes, e.Timestamp)
	return err
}

// ListApprovals returns the approval log for a subject, oldest first.
func (d *DB) ListApprovals(ctx context.Context, subjectID string) ([]ApprovalLogEntry, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT id, subject_id, action, actor, notes
		FROM approval_log WHERE subject_id = $1 ORDER BY id
	`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ApprovalLogEntry
	for rows.Next() {
		var e ApprovalLogEntry
		if err := rows.Scan(&e.ID, &e.SubjectID, &e.Action, &e.Actor, &e.Notes); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
