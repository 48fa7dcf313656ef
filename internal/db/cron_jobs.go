package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/captainbotgit/mission-control/internal/models"
)

const cronJobColumns = `id, name, schedule_kind, schedule_expr, schedule_at, schedule_every_ms,
	session_target, enabled, last_run, next_run`

// ListCronJobs returns the cached cron job snapshot.
func (d *DB) ListCronJobs(ctx context.Context) ([]models.CronJob, error) {
	rows, err := d.Pool.Query(ctx, `SELECT `+cronJobColumns+` FROM cron_jobs_cache ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []models.CronJob
	for rows.Next() {
		var j models.CronJob
		if err := rows.Scan(
			&j.ID,
			&j.Name,
			&j.Schedule.Kind,
			&j.Schedule.Expr,
			&j.Schedule.At,
			&j.Schedule.EveryMs,
			&j.SessionTarget,
			&j.Enabled,
			&j.LastRun,
			&j.NextRun,
		); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// ReplaceCronJobs swaps the cached snapshot for jobs in one transaction.
func (d *DB) ReplaceCronJobs(ctx context.Context, jobs []models.CronJob) error {
	return pgx.BeginFunc(ctx, d.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM cron_jobs_cache`); err != nil {
			return err
		}
		if len(jobs) == 0 {
			return nil
		}

		query := `
			INSERT INTO cron_jobs_cache (id, name, schedule_kind, schedule_expr, schedule_at,
				schedule_every_ms, session_target, enabled, last_run, next_run)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`
		batch := &pgx.Batch{}
		for _, j := range jobs {
			batch.Queue(query, j.ID, j.Name, j.Schedule.Kind, j.Schedule.Expr, j.Schedule.At,
				j.Schedule.EveryMs, j.SessionTarget, j.Enabled, j.LastRun, j.NextRun)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}
