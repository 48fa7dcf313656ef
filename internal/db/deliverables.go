package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/captainbotgit/mission-control/internal/models"
)

const deliverableColumns = `id, title, description, agent_id, agent_name, task_id, type, pr_url,
	deploy_url, screenshot_url, branch, files_changed, status, approved_by, approval_notes,
	approved_at, webhook_fired, webhook_fired_at, created_at, updated_at`

func scanDeliverable(row pgx.Row) (*models.Deliverable, error) {
	var d models.Deliverable
	err := row.Scan(
		&d.ID,
		&d.Title,
		&d.Description,
		&d.AgentID,
		&d.AgentName,
		&d.TaskID,
		&d.Type,
		&d.PRURL,
		&d.DeployURL,
		&d.ScreenshotURL,
		&d.Branch,
		&d.FilesChanged,
		&d.Status,
		&d.ApprovedBy,
		&d.ApprovalNotes,
		&d.ApprovedAt,
		&d.WebhookFired,
		&d.WebhookFiredAt,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDeliverableNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDeliverables returns deliverables newest first, optionally filtered by
// status and agent.
func (d *DB) ListDeliverables(ctx context.Context, status, agentID string, limit int) ([]models.Deliverable, error) {
	query := `SELECT ` + deliverableColumns + ` FROM deliverables
		WHERE ($1 = '' OR status = $1) AND ($2 = '' OR agent_id = $2)
		ORDER BY created_at DESC LIMIT $3`

	rows, err := d.Pool.Query(ctx, query, status, agentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Deliverable
	for rows.Next() {
		item, err := scanDeliverable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

// GetDeliverable retrieves a deliverable by ID.
func (d *DB) GetDeliverable(ctx context.Context, id uuid.UUID) (*models.Deliverable, error) {
	return scanDeliverable(d.Pool.QueryRow(ctx,
		`SELECT `+deliverableColumns+` FROM deliverables WHERE id = $1`, id))
}

// CreateDeliverable inserts a pending deliverable and fills in its generated fields.
func (d *DB) CreateDeliverable(ctx context.Context, item *models.Deliverable) error {
	if item.Type == "" {
		item.Type = models.DefaultDeliverableType
	}

	query := `
		INSERT INTO deliverables (title, description, agent_id, agent_name, task_id, type, pr_url,
			deploy_url, screenshot_url, branch, files_changed, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + deliverableColumns

	created, err := scanDeliverable(d.Pool.QueryRow(ctx, query,
		item.Title,
		item.Description,
		item.AgentID,
		item.AgentName,
		item.TaskID,
		item.Type,
		item.PRURL,
		item.DeployURL,
		item.ScreenshotURL,
		item.Branch,
		item.FilesChanged,
		models.DeliverablePending,
	))
	if err != nil {
		return err
	}
	*item = *created
	return nil
}

// DecideDeliverable records a reviewer's decision and returns the updated row.
// approved_at is only stamped on approval.
func (d *DB) DecideDeliverable(ctx context.Context, id uuid.UUID, status, approver, notes string) (*models.Deliverable, error) {
	var notesArg *string
	if notes != "" {
		notesArg = &notes
	}

	query := `
		UPDATE deliverables
		SET status = $1, approved_by = $2, approval_notes = $3,
			approved_at = CASE WHEN $1 = 'approved' THEN NOW() ELSE approved_at END,
			updated_at = NOW()
		WHERE id = $4
		RETURNING ` + deliverableColumns
	return scanDeliverable(d.Pool.QueryRow(ctx, query, status, approver, notesArg, id))
}

// MarkWebhookFired flags a deliverable's approval webhook as delivered.
func (d *DB) MarkWebhookFired(ctx context.Context, id uuid.UUID) error {
	result, err := d.Pool.Exec(ctx,
		`UPDATE deliverables SET webhook_fired = TRUE, webhook_fired_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrDeliverableNotFound
	}
	return nil
}
