package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/captainbotgit/mission-control/internal/models"
)

const agentColumns = `id, name, emoji, status, role, last_activity, memory_files, workspace_path`

// ListAgents returns every agent ordered by name.
func (d *DB) ListAgents(ctx context.Context) ([]models.Agent, error) {
	rows, err := d.Pool.Query(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []models.Agent
	for rows.Next() {
		var (
			a    models.Agent
			last *time.Time
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Emoji, &a.Status, &a.Role, &last, &a.MemoryFiles, &a.WorkspacePath); err != nil {
			return nil, err
		}
		if last != nil {
			day := last.UTC().Format(time.DateOnly)
			a.LastActivity = &day
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// UpsertAgents inserts or refreshes agents in one batch.
func (d *DB) UpsertAgents(ctx context.Context, agents []models.Agent) error {
	if len(agents) == 0 {
		return nil
	}

	query := `
		INSERT INTO agents (id, name, emoji, status, role, last_activity, memory_files, workspace_path, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			emoji = EXCLUDED.emoji,
			status = EXCLUDED.status,
			role = EXCLUDED.role,
			last_activity = EXCLUDED.last_activity,
			memory_files = EXCLUDED.memory_files,
			workspace_path = EXCLUDED.workspace_path,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, a := range agents {
		var last *time.Time
		if a.LastActivity != nil {
			if t, err := time.Parse(time.DateOnly, *a.LastActivity); err == nil {
				last = &t
			}
		}
		batch.Queue(query, a.ID, a.Name, a.Emoji, a.Status, a.Role, last, a.MemoryFiles, a.WorkspacePath)
	}
	return d.Pool.SendBatch(ctx, batch).Close()
}
