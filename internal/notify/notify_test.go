package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/captainbotgit/mission-control/internal/models"
)

type mapKV struct {
	mu   sync.Mutex
	data map[string][]byte
	// afterGet runs once Get has released the map lock.
	afterGet func()
}

func (m *mapKV) Get(key string) ([]byte, error) {
	m.mu.Lock()
	val := m.data[key]
	m.mu.Unlock()
	if m.afterGet != nil {
		m.afterGet()
	}
	return val, nil
}

func (m *mapKV) Set(key string, val []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = val
	return nil
}

func (m *mapKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func TestSlots(t *testing.T) {
	slots := map[string]func(t *testing.T) Slot{
		"file": func(t *testing.T) Slot { return NewFileSlot(t.TempDir()) },
		"kv":   func(t *testing.T) Slot { return NewKVSlot(&mapKV{data: map[string][]byte{}}, "") },
	}

	for name, newSlot := range slots {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			slot := newSlot(t)

			got, err := slot.Read(ctx, false)
			require.NoError(t, err)
			assert.Nil(t, got, "empty slot")

			first := models.Notification{Message: "first", Timestamp: time.Unix(100, 0).UTC()}
			second := models.Notification{
				Message:   "second",
				Decisions: []models.NotificationDecision{{ID: "rev_1", Title: "Copy", Status: models.StatusApproved}},
				Timestamp: time.Unix(200, 0).UTC(),
			}
			require.NoError(t, slot.Write(ctx, first))
			require.NoError(t, slot.Write(ctx, second))

			peek1, err := slot.Read(ctx, true)
			require.NoError(t, err)
			peek2, err := slot.Read(ctx, true)
			require.NoError(t, err)
			require.NotNil(t, peek1)
			assert.Equal(t, peek1, peek2, "peek is idempotent")
			assert.Equal(t, "second", peek1.Message, "write overwrites")

			consumed, err := slot.Read(ctx, false)
			require.NoError(t, err)
			assert.Equal(t, second, *consumed)

			after, err := slot.Read(ctx, false)
			require.NoError(t, err)
			assert.Nil(t, after, "read clears")
		})
	}
}

func TestKVSlotWriteDuringConsume(t *testing.T) {
	ctx := context.Background()
	kv := &mapKV{data: map[string][]byte{}}
	slot := NewKVSlot(kv, "")
	require.NoError(t, slot.Write(ctx, models.Notification{Message: "older"}))

	written := make(chan error, 1)
	kv.afterGet = func() {
		kv.afterGet = nil
		go func() { written <- slot.Write(ctx, models.Notification{Message: "newer"}) }()
		// Give the writer a chance to reach the store before Read deletes.
		time.Sleep(20 * time.Millisecond)
	}

	consumed, err := slot.Read(ctx, false)
	require.NoError(t, err)
	require.NotNil(t, consumed)
	assert.Equal(t, "older", consumed.Message)
	require.NoError(t, <-written)

	latest, err := slot.Read(ctx, true)
	require.NoError(t, err)
	require.NotNil(t, latest, "the newer notification was deleted")
	assert.Equal(t, "newer", latest.Message)
}

func TestSummarize(t *testing.T) {
	at := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	items := []models.ReviewItem{
		{ID: "a", Title: "A", Status: models.StatusApproved, Decision: &models.Decision{Status: models.StatusApproved, Comment: "ship it"}},
		{ID: "b", Title: "B", Status: models.StatusRejected},
	}

	n := Summarize("reviewer submitted 2 review decisions", items, at)
	assert.Equal(t, at, n.Timestamp)
	require.Len(t, n.Decisions, 2)
	assert.Equal(t, "ship it", n.Decisions[0].Comment)
	assert.Empty(t, n.Decisions[1].Comment)
}
