package review

import (
	"context"
	"errors"

	"github.com/captainbotgit/mission-control/internal/db"
	"github.com/captainbotgit/mission-control/internal/models"
)

// TableStore keeps reviews in the PostgreSQL reviews table. Decisions lock
// the row for the duration of the read-modify-write.
type TableStore struct {
	db *db.DB
}

// NewTableStore returns a store backed by database.
func NewTableStore(database *db.DB) *TableStore {
	return &TableStore{db: database}
}

func (s *TableStore) Name() string { return "database" }

func mapNotFound(err error) error {
	if errors.Is(err, db.ErrReviewNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *TableStore) List(ctx context.Context, f Filter) ([]models.ReviewItem, error) {
	items, err := s.db.ListReviews(ctx, f.Status)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.ReviewItem{}
	}
	return items, nil
}

func (s *TableStore) Get(ctx context.Context, id string) (*models.ReviewItem, error) {
	item, err := s.db.GetReview(ctx, id)
	return item, mapNotFound(err)
}

func (s *TableStore) Create(ctx context.Context, item models.ReviewItem) error {
	return s.db.InsertReview(ctx, &item)
}

func (s *TableStore) Decide(ctx context.Context, id string, d models.Decision) (*models.ReviewItem, error) {
	var out *models.ReviewItem
	err := s.db.InReviewTx(ctx, func(tx db.ReviewTx) error {
		item, err := tx.Lock(ctx, id)
		if err != nil {
			return err
		}
		item.ApplyDecision(d)
		if err := tx.SaveDecision(ctx, item); err != nil {
			return err
		}
		out = item
		return nil
	})
	if err != nil {
		return nil, mapNotFound(err)
	}
	return out, nil
}

func (s *TableStore) BatchDecide(ctx context.Context, entries []Entry) ([]models.ReviewItem, error) {
	var updated []models.ReviewItem
	err := s.db.InReviewTx(ctx, func(tx db.ReviewTx) error {
		updated = updated[:0]
		for _, e := range entries {
			item, err := tx.Lock(ctx, e.ID)
			if errors.Is(err, db.ErrReviewNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			item.ApplyDecision(e.Decision)
			if err := tx.SaveDecision(ctx, item); err != nil {
				return err
			}
			updated = append(updated, item.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
