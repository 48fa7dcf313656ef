package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/captainbotgit/mission-control/internal/models"
)

const taskColumns = `id, agent_id, title, status, priority, assignee, deadline, source`

// ListTasks returns tasks, optionally filtered by status, newest first.
func (d *DB) ListTasks(ctx context.Context, status string) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := d.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.AgentID, &t.Title, &t.Status, &t.Priority, &t.Assignee, &t.Deadline, &t.Source); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpsertTasks inserts or refreshes tasks in one batch.
func (d *DB) UpsertTasks(ctx context.Context, tasks []models.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	query := `
		INSERT INTO tasks (id, agent_id, title, status, priority, assignee, deadline, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			agent_id = EXCLUDED.agent_id,
			title = EXCLUDED.title,
			status = EXCLUDED.status,
			priority = EXCLUDED.priority,
			assignee = EXCLUDED.assignee,
			deadline = EXCLUDED.deadline,
			source = EXCLUDED.source,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, t := range tasks {
		batch.Queue(query, t.ID, t.AgentID, t.Title, t.Status, t.Priority, t.Assignee, t.Deadline, t.Source)
	}
	return d.Pool.SendBatch(ctx, batch).Close()
}
