package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/captainbotgit/mission-control/internal/models"
)

// FileName is the review document inside the reviews directory.
const FileName = "reviews.json"

// documentVersion is written to every saved document.
const documentVersion = 1

// FileStore keeps every review in one JSON document, rewritten whole on each
// change. Writes within a process are serialized; the file is replaced
// atomically so readers never see a partial document.
type FileStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewFileStore returns a store backed by dir/reviews.json.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, FileName), now: time.Now}
}

// Path returns the document location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Name() string { return "file" }

// load reads the document. A missing file is an empty document.
func (s *FileStore) load() (*models.ReviewDocument, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &models.ReviewDocument{Version: documentVersion}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var doc models.ReviewDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return &doc, nil
}

// save writes doc to a temp file in the same directory and renames it over
// the document.
func (s *FileStore) save(doc *models.ReviewDocument) error {
	doc.LastUpdated = s.now().UTC()
	doc.Version = documentVersion

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create reviews dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".reviews-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStore) List(_ context.Context, f Filter) ([]models.ReviewItem, error) {
	s.mu.Lock()
	doc, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]models.ReviewItem, 0, len(doc.Reviews))
	for _, item := range doc.Reviews {
		if f.Match(item) {
			out = append(out, item)
		}
	}
	sortNewest(out)
	return out, nil
}

func (s *FileStore) Get(_ context.Context, id string) (*models.ReviewItem, error) {
	s.mu.Lock()
	doc, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	i := slices.IndexFunc(doc.Reviews, func(r models.ReviewItem) bool { return r.ID == id })
	if i < 0 {
		return nil, ErrNotFound
	}
	return &doc.Reviews[i], nil
}

func (s *FileStore) Create(_ context.Context, item models.ReviewItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.Reviews = slices.Insert(doc.Reviews, 0, item.Clone())
	return s.save(doc)
}

func (s *FileStore) Decide(ctx context.Context, id string, d models.Decision) (*models.ReviewItem, error) {
	updated, err := s.BatchDecide(ctx, []Entry{{ID: id, Decision: d}})
	if err != nil {
		return nil, err
	}
	if len(updated) == 0 {
		return nil, ErrNotFound
	}
	return &updated[0], nil
}

func (s *FileStore) BatchDecide(_ context.Context, entries []Entry) ([]models.ReviewItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	updated := decideInSlice(doc.Reviews, entries)
	if len(updated) == 0 {
		return updated, nil
	}
	if err := s.save(doc); err != nil {
		return nil, err
	}
	return updated, nil
}
