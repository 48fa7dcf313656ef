// Package review implements the review ledger and the decision workflow on
// top of interchangeable storage tiers.
package review

import (
	"context"
	"errors"
	"slices"

	"github.com/captainbotgit/mission-control/internal/models"
)

// Sentinel errors returned by stores and the Service.
var (
	ErrNotFound    = errors.New("review not found")
	ErrUnavailable = errors.New("no review store available")
)

// Filter narrows a List call. The zero value lists everything.
type Filter struct {
	Status models.ReviewStatus
}

// Match reports whether item passes the filter.
func (f Filter) Match(item models.ReviewItem) bool {
	return f.Status == "" || item.Status == f.Status
}

// Entry is one decision in a batch.
type Entry struct {
	ID       string
	Decision models.Decision
}

// Store persists review items. Implementations return ErrNotFound for
// unknown ids and never return items the caller can mutate in place.
type Store interface {
	// Name identifies the tier in logs and source tags.
	Name() string
	// List returns matching items, most recently submitted first.
	List(ctx context.Context, f Filter) ([]models.ReviewItem, error)
	Get(ctx context.Context, id string) (*models.ReviewItem, error)
	Create(ctx context.Context, item models.ReviewItem) error
	// Decide records d as the item's current decision and returns the result.
	Decide(ctx context.Context, id string, d models.Decision) (*models.ReviewItem, error)
	// BatchDecide applies entries in order and returns one snapshot per
	// applied entry. Unknown ids are skipped.
	BatchDecide(ctx context.Context, entries []Entry) ([]models.ReviewItem, error)
}

// sortNewest orders items by submission time, newest first.
func sortNewest(items []models.ReviewItem) {
	slices.SortStableFunc(items, func(a, b models.ReviewItem) int {
		return b.SubmittedAt.Compare(a.SubmittedAt)
	})
}

// decideInSlice applies entries to items in place and returns snapshots of
// each applied entry.
func decideInSlice(items []models.ReviewItem, entries []Entry) []models.ReviewItem {
	updated := make([]models.ReviewItem, 0, len(entries))
	for _, e := range entries {
		i := slices.IndexFunc(items, func(r models.ReviewItem) bool { return r.ID == e.ID })
		if i < 0 {
			continue
		}
		items[i].ApplyDecision(e.Decision)
		updated = append(updated, items[i].Clone())
	}
	return updated
}
