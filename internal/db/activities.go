package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/captainbotgit/mission-control/internal/models"
)

// activityChunkSize bounds the number of statements sent per batch.
const activityChunkSize = 500

const activityColumns = `id, agent_id, agent_name, agent_emoji, action, details, type, timestamp`

// ListActivities returns the most recent activities, newest first.
func (d *DB) ListActivities(ctx context.Context, limit int) ([]models.Activity, error) {
	rows, err := d.Pool.Query(ctx,
		`SELECT `+activityColumns+` FROM activities ORDER BY timestamp DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.AgentID, &a.Agent, &a.AgentEmoji, &a.Action, &a.Details, &a.Type, &a.Timestamp); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// InsertActivity records a single activity.
func (d *DB) InsertActivity(ctx context.Context, a models.Activity) error {
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO activities (id, agent_id, agent_name, agent_emoji, action, details, type, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, a.ID, a.AgentID, a.Agent, a.AgentEmoji, a.Action, a.Details, a.Type, a.Timestamp)
	return err
}

// UpsertActivities inserts or refreshes activities in chunks.
func (d *DB) UpsertActivities(ctx context.Context, activities []models.Activity) error {
	query := `
		INSERT INTO activities (id, agent_id, agent_name, agent_emoji, action, details, type, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			agent_name = EXCLUDED.agent_name,
			agent_emoji = EXCLUDED.agent_emoji,
			action = EXCLUDED.action,
			details = EXCLUDED.details,
			type = EXCLUDED.type,
			timestamp = EXCLUDED.timestamp
	`

	for start := 0; start < len(activities); start += activityChunkSize {
		end := min(start+activityChunkSize, len(activities))

		batch := &pgx.Batch{}
		for _, a := range activities[start:end] {
			batch.Queue(query, a.ID, a.AgentID, a.Agent, a.AgentEmoji, a.Action, a.Details, a.Type, a.Timestamp)
		}
		if err := d.Pool.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}
	return nil
}
