// Package notify holds the single pending notification a poller picks up
// after reviewers submit decisions.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/captainbotgit/mission-control/internal/models"
)

// FileName is the notification file written beside the review store.
const FileName = "pending-notification.json"

// Slot is a single-record mailbox. Write overwrites, Read clears unless peek.
type Slot interface {
	Write(ctx context.Context, n models.Notification) error
	// Read returns nil when the slot is empty.
	Read(ctx context.Context, peek bool) (*models.Notification, error)
}

// FileSlot keeps the notification in a JSON file.
type FileSlot struct {
	path string
	mu   sync.Mutex
}

// NewFileSlot returns a slot stored at dir/pending-notification.json.
func NewFileSlot(dir string) *FileSlot {
	return &FileSlot{path: filepath.Join(dir, FileName)}
}

// Write replaces the stored notification.
func (s *FileSlot) Write(_ context.Context, n models.Notification) error {
	data, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create notification dir: %w", err)
	}
	return os.WriteFile(s.path, data, 0o644)
}

// Read returns the stored notification, removing it unless peek is set.
func (s *FileSlot) Read(_ context.Context, peek bool) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var n models.Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("decode notification: %w", err)
	}

	if !peek {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	return &n, nil
}

// KV is the subset of a fiber storage backend the slot needs.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte, exp time.Duration) error
	Delete(key string) error
}

// DefaultKey is the storage key used by KVSlot.
const DefaultKey = "missioncontrol:pending-notification"

// KVSlot keeps the notification under one key of a key/value store such as Redis.
type KVSlot struct {
	store KV
	key   string
	mu    sync.Mutex
}

// NewKVSlot returns a slot stored under key. An empty key uses DefaultKey.
func NewKVSlot(store KV, key string) *KVSlot {
	if key == "" {
		key = DefaultKey
	}
	return &KVSlot{store: store, key: key}
}

// Write replaces the stored notification.
func (s *KVSlot) Write(_ context.Context, n models.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Set(s.key, data, 0)
}

// Read returns the stored notification, deleting it unless peek is set.
func (s *KVSlot) Read(_ context.Context, peek bool) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.store.Get(s.key)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var n models.Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("decode notification: %w", err)
	}

	if !peek {
		if err := s.store.Delete(s.key); err != nil {
			return nil, err
		}
	}
	return &n, nil
}

// Summarize builds the notification for a set of decided reviews.
func Summarize(message string, items []models.ReviewItem, at time.Time) models.Notification {
	n := models.Notification{
		Message:   message,
		Decisions: make([]models.NotificationDecision, 0, len(items)),
		Timestamp: at,
	}
	for _, item := range items {
		d := models.NotificationDecision{ID: item.ID, Title: item.Title, Status: item.Status}
		if item.Decision != nil {
			d.Comment = item.Decision.Comment
		}
		n.Decisions = append(n.Decisions, d)
	}
	return n
}
