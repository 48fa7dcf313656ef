package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/captainbotgit/mission-control/internal/models"
)

// reviewColumns is the standard column list for review queries.
const reviewColumns = `id, title, description, type, content, content_url, image_url, video_url,
	preview_url, file_path, submitted_by, submitted_at, priority, tags, recommendation,
	recommendation_notes, status, decision, history`

// scanReview scans a row into a ReviewItem.
func scanReview(row pgx.Row) (*models.ReviewItem, error) {
	var (
		r        models.ReviewItem
		decision []byte
		history  []byte
	)
	err := row.Scan(
		&r.ID,
		&r.Title,
		&r.Description,
		&r.Type,
		&r.Content,
		&r.ContentURL,
		&r.ImageURL,
		&r.VideoURL,
		&r.PreviewURL,
		&r.FilePath,
		&r.SubmittedBy,
		&r.SubmittedAt,
		&r.Priority,
		&r.Tags,
		&r.Recommendation,
		&r.RecommendationNotes,
		&r.Status,
		&decision,
		&history,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}

	if len(decision) > 0 {
		if err := json.Unmarshal(decision, &r.Decision); err != nil {
			return nil, fmt.Errorf("decode decision for %s: %w", r.ID, err)
		}
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &r.History); err != nil {
			return nil, fmt.Errorf("decode history for %s: %w", r.ID, err)
		}
	}
	if len(r.History) == 0 {
		r.History = nil
	}
	if len(r.Tags) == 0 {
		r.Tags = nil
	}
	return &r, nil
}

// scanReviews scans multiple rows into a slice of ReviewItems.
func scanReviews(rows pgx.Rows) ([]models.ReviewItem, error) {
	defer rows.Close()

	var reviews []models.ReviewItem
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *r)
	}

	return reviews, rows.Err()
}

// encodeDecision returns the JSONB parameters for a review's decision and history.
func encodeDecision(r *models.ReviewItem) (any, []byte, error) {
	var decision any
	if r.Decision != nil {
		b, err := json.Marshal(r.Decision)
		if err != nil {
			return nil, nil, err
		}
		decision = b
	}

	history := r.History
	if history == nil {
		history = []models.Decision{}
	}
	h, err := json.Marshal(history)
	if err != nil {
		return nil, nil, err
	}
	return decision, h, nil
}

// ListReviews returns reviews, most recently submitted first. An empty status
// returns every review.
func (d *DB) ListReviews(ctx context.Context, status models.ReviewStatus) ([]models.ReviewItem, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY submitted_at DESC`

	rows, err := d.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanReviews(rows)
}

// GetReview retrieves a review by its ID.
func (d *DB) GetReview(ctx context.Context, id string) (*models.ReviewItem, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`
	return scanReview(d.Pool.QueryRow(ctx, query, id))
}

// InsertReview stores a fully formed review.
func (d *DB) InsertReview(ctx context.Context, r *models.ReviewItem) error {
	decision, history, err := encodeDecision(r)
	if err != nil {
		return err
	}

	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}

	query := `
		INSERT INTO reviews (id, title, description, type, content, content_url, image_url, video_url,
			preview_url, file_path, submitted_by, submitted_at, priority, tags, recommendation,
			recommendation_notes, status, decision, history)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err = d.Pool.Exec(ctx, query,
		r.ID,
		r.Title,
		r.Description,
		r.Type,
		r.Content,
		r.ContentURL,
		r.ImageURL,
		r.VideoURL,
		r.PreviewURL,
		r.FilePath,
		r.SubmittedBy,
		r.SubmittedAt,
		r.Priority,
		tags,
		r.Recommendation,
		r.RecommendationNotes,
		r.Status,
		decision,
		history,
	)
	return err
}

// ReviewTx is a view of the reviews table inside a transaction. Rows read
// through Lock stay locked until the transaction ends.
type ReviewTx struct {
	tx pgx.Tx
}

// Lock reads a review and locks its row for update.
func (r ReviewTx) Lock(ctx context.Context, id string) (*models.ReviewItem, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1 FOR UPDATE`
	return scanReview(r.tx.QueryRow(ctx, query, id))
}

// SaveDecision writes a review's status, decision and history.
func (r ReviewTx) SaveDecision(ctx context.Context, item *models.ReviewItem) error {
	decision, history, err := encodeDecision(item)
	if err != nil {
		return err
	}

	query := `UPDATE reviews SET status = $1, decision = $2, history = $3 WHERE id = $4`
	result, err := r.tx.Exec(ctx, query, item.Status, decision, history, item.ID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// InReviewTx runs fn in a transaction, committing if it returns nil.
func (d *DB) InReviewTx(ctx context.Context, fn func(ReviewTx) error) error {
	return pgx.BeginFunc(ctx, d.Pool, func(tx pgx.Tx) error {
		return fn(ReviewTx{tx: tx})
	})
}
