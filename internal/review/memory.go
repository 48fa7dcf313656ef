package review

import (
	"context"
	"slices"
	"sync"

	"github.com/captainbotgit/mission-control/internal/models"
)

// MemoryStore keeps reviews in process memory. It serves as the last-resort
// tier and as a fixture in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	items []models.ReviewItem
}

// NewMemoryStore returns a store holding copies of items.
func NewMemoryStore(items ...models.ReviewItem) *MemoryStore {
	s := &MemoryStore{}
	for _, item := range items {
		s.items = append(s.items, item.Clone())
	}
	sortNewest(s.items)
	return s
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) List(_ context.Context, f Filter) ([]models.ReviewItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ReviewItem, 0, len(s.items))
	for _, item := range s.items {
		if f.Match(item) {
			out = append(out, item.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.ReviewItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := slices.IndexFunc(s.items, func(r models.ReviewItem) bool { return r.ID == id })
	if i < 0 {
		return nil, ErrNotFound
	}
	item := s.items[i].Clone()
	return &item, nil
}

func (s *MemoryStore) Create(_ context.Context, item models.ReviewItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = slices.Insert(s.items, 0, item.Clone())
	return nil
}

func (s *MemoryStore) Decide(_ context.Context, id string, d models.Decision) (*models.ReviewItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := decideInSlice(s.items, []Entry{{ID: id, Decision: d}})
	if len(updated) == 0 {
		return nil, ErrNotFound
	}
	return &updated[0], nil
}

func (s *MemoryStore) BatchDecide(_ context.Context, entries []Entry) ([]models.ReviewItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return decideInSlice(s.items, entries), nil
}
