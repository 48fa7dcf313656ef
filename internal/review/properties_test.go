package review

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/captainbotgit/mission-control/internal/models"
)

var statusGen = rapid.SampledFrom(models.ReviewStatuses)

// TestDecisionHistoryProperty checks that after N decisions an item holds
// N-1 history entries in the order they were applied.
func TestDecisionHistoryProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		svc := NewService(Config{Tiers: []Store{NewMemoryStore()}})
		ctx := context.Background()

		item, err := svc.Create(ctx, copyDraft("Property"))
		require.NoError(t, err)
		require.Equal(t, models.StatusPending, item.Status)
		require.Nil(t, item.Decision)

		statuses := rapid.SliceOfN(statusGen, 1, 20).Draw(t, "statuses")
		for _, status := range statuses {
			_, err := svc.Decide(ctx, item.ID, status, "", "")
			require.NoError(t, err)
		}

		got, err := svc.Get(ctx, item.ID)
		require.NoError(t, err)
		require.Len(t, got.History, len(statuses)-1)
		for i, h := range got.History {
			require.Equal(t, statuses[i], h.Status)
		}
		require.Equal(t, statuses[len(statuses)-1], got.Status)
		require.Equal(t, got.Status, got.Decision.Status)
	})
}

// TestPendingFilterProperty checks that a pending filter never yields a
// decided item, whatever decisions were applied.
func TestPendingFilterProperty(t *testing.T) {
	outer := t
	rapid.Check(t, func(t *rapid.T) {
		stores := map[string]Store{
			"memory": NewMemoryStore(),
			"file":   NewFileStore(outer.TempDir()),
		}
		ctx := context.Background()
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

		n := rapid.IntRange(1, 8).Draw(t, "items")
		decisions := rapid.SliceOfN(rapid.Custom(func(t *rapid.T) Entry {
			return Entry{
				ID:       fixtureID(rapid.IntRange(0, n-1).Draw(t, "target")),
				Decision: models.Decision{Status: statusGen.Draw(t, "status"), DecidedAt: base},
			}
		}), 0, 16).Draw(t, "decisions")

		for name, s := range stores {
			for i := range n {
				require.NoError(t, s.Create(ctx, fixture(fixtureID(i), base.Add(time.Duration(i)*time.Minute))))
			}
			_, err := s.BatchDecide(ctx, decisions)
			require.NoError(t, err)

			pending, err := s.List(ctx, Filter{Status: models.StatusPending})
			require.NoError(t, err)
			for _, item := range pending {
				require.Equal(t, models.StatusPending, item.Status, "%s store returned %s", name, item.ID)
			}
		}
	})
}

func fixtureID(i int) string {
	return "rev_" + string(rune('a'+i))
}
