package review

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/captainbotgit/mission-control/internal/models"
	"github.com/captainbotgit/mission-control/internal/notify"
)

// failingStore errors on every call.
type failingStore struct{ name string }

var errBackend = errors.New("backend down")

func (f failingStore) Name() string { return f.name }
func (f failingStore) List(context.Context, Filter) ([]models.ReviewItem, error) {
	return nil, errBackend
}
func (f failingStore) Get(context.Context, string) (*models.ReviewItem, error) {
	return nil, errBackend
}
func (f failingStore) Create(context.Context, models.ReviewItem) error { return errBackend }
func (f failingStore) Decide(context.Context, string, models.Decision) (*models.ReviewItem, error) {
	return nil, errBackend
}
func (f failingStore) BatchDecide(context.Context, []Entry) ([]models.ReviewItem, error) {
	return nil, errBackend
}

type stubProber struct{ err error }

func (p stubProber) Probe(context.Context, string) error { return p.err }

type recordingAuditor struct {
	mu      sync.Mutex
	entries []models.AuditEntry
	err     error
}

func (a *recordingAuditor) Audit(_ context.Context, e models.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return a.err
}

type testEnv struct {
	svc     *Service
	store   *MemoryStore
	slot    *notify.FileSlot
	auditor *recordingAuditor
}

func newTestEnv(t *testing.T, tiers ...Store) *testEnv {
	t.Helper()

	store := NewMemoryStore()
	slot := notify.NewFileSlot(t.TempDir())
	auditor := &recordingAuditor{}

	svc := NewService(Config{
		Tiers:    append(tiers, store),
		Slot:     slot,
		Prober:   stubProber{},
		Auditors: []Auditor{auditor},
		Reviewer: "boss",
	})

	clock := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	seq := 0
	svc.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("rev_%03d", seq)
	}

	return &testEnv{svc: svc, store: store, slot: slot, auditor: auditor}
}

func copyDraft(title string) models.ReviewDraft {
	return models.ReviewDraft{Title: title, Type: models.TypeCopy, Content: "text", SubmittedBy: "writer"}
}

func TestCreateStartsPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	item, err := env.svc.Create(ctx, copyDraft("Tagline"))
	require.NoError(t, err)
	assert.Equal(t, "rev_001", item.ID)
	assert.Equal(t, models.StatusPending, item.Status)
	assert.Nil(t, item.Decision)
	assert.Equal(t, models.PriorityMedium, item.Priority, "default priority")

	stored, err := env.svc.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, *item, *stored)

	require.Len(t, env.auditor.entries, 1)
	assert.Equal(t, "submitted", env.auditor.entries[0].Action)
	assert.Equal(t, "writer", env.auditor.entries[0].Actor)
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *models.ReviewDraft)
		field  string
	}{
		{"missing title", func(d *models.ReviewDraft) { d.Title = "  " }, ""},
		{"missing submitter", func(d *models.ReviewDraft) { d.SubmittedBy = "" }, ""},
		{"unknown type", func(d *models.ReviewDraft) { d.Type = "podcast" }, "type"},
		{"unknown priority", func(d *models.ReviewDraft) { d.Priority = "urgent" }, "priority"},
		{"pending recommendation", func(d *models.ReviewDraft) { d.Recommendation = models.StatusPending }, "recommendation"},
		{"bad image url", func(d *models.ReviewDraft) { d.ImageURL = "javascript:alert(1)" }, "imageUrl"},
		{"website without preview", func(d *models.ReviewDraft) { d.Type = models.TypeWebsite }, "previewUrl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			draft := copyDraft("Landing page")
			tt.mutate(&draft)

			_, err := env.svc.Create(context.Background(), draft)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.NotEmpty(t, verr.Message)

			all := env.svc.List(context.Background(), Filter{})
			assert.Empty(t, all.Reviews, "nothing persisted")
		})
	}
}

func TestCreateUnreachablePreview(t *testing.T) {
	env := newTestEnv(t)
	env.svc.prober = stubProber{err: errors.New("connection refused")}

	draft := copyDraft("Demo site")
	draft.Type = models.TypeWebsite
	draft.PreviewURL = "https://unreachable.example.com"

	_, err := env.svc.Create(context.Background(), draft)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "previewUrl", verr.Field)
	assert.Contains(t, verr.Message, "not reachable")

	assert.Empty(t, env.svc.List(context.Background(), Filter{}).Reviews)
	assert.Empty(t, env.auditor.entries)
}

func TestDecideHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	item, err := env.svc.Create(ctx, copyDraft("Email copy"))
	require.NoError(t, err)

	_, err = env.svc.Decide(ctx, item.ID, models.StatusChangesRequested, "shorter", "")
	require.NoError(t, err)
	_, err = env.svc.Decide(ctx, item.ID, models.StatusPending, "", "alice")
	require.NoError(t, err)
	got, err := env.svc.Decide(ctx, item.ID, models.StatusApproved, "good", "")
	require.NoError(t, err)

	assert.Equal(t, models.StatusApproved, got.Status)
	assert.Equal(t, "boss", got.Decision.DecidedBy, "default actor")
	require.Len(t, got.History, 2)
	assert.Equal(t, models.StatusChangesRequested, got.History[0].Status)
	assert.Equal(t, "shorter", got.History[0].Comment)
	assert.Equal(t, "alice", got.History[1].DecidedBy)
	assert.True(t, got.History[0].DecidedAt.Before(got.History[1].DecidedAt))

	n, err := env.slot.Read(ctx, true)
	require.NoError(t, err)
	require.NotNil(t, n)
	require.Len(t, n.Decisions, 1)
	assert.Equal(t, models.StatusApproved, n.Decisions[0].Status)
}

func TestDecideUnknownID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, copyDraft("Existing"))
	require.NoError(t, err)
	before := env.svc.List(ctx, Filter{}).Reviews

	_, err = env.svc.Decide(ctx, "rev_missing", models.StatusApproved, "", "")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, before, env.svc.List(ctx, Filter{}).Reviews, "no mutation")
	n, err := env.slot.Read(ctx, true)
	require.NoError(t, err)
	assert.Nil(t, n, "no notification written")
}

func TestDecideInvalidStatus(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Decide(context.Background(), "rev_001", "maybe", "", "")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestBatchDecide(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a, err := env.svc.Create(ctx, copyDraft("A"))
	require.NoError(t, err)
	b, err := env.svc.Create(ctx, copyDraft("B"))
	require.NoError(t, err)

	res, err := env.svc.BatchDecide(ctx, []BatchDecision{
		{ID: a.ID, Status: models.StatusApproved},
		{ID: b.ID, Status: models.StatusRejected, Comment: "off brand"},
		{ID: "rev_ghost", Status: models.StatusApproved},
		{ID: a.ID, Status: models.StatusChangesRequested},
	}, "")
	require.NoError(t, err)

	require.Len(t, res.Updated, 3, "unknown ids are skipped")
	assert.Equal(t, Summary{Total: 3, Approved: 1, Rejected: 1, ChangesRequested: 1}, res.Summary)

	finalA, err := env.svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusChangesRequested, finalA.Status)
	require.Len(t, finalA.History, 1)
	assert.Equal(t, models.StatusApproved, finalA.History[0].Status)

	finalB, err := env.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, finalB.Status)

	n, err := env.slot.Read(ctx, false)
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "boss submitted 3 review decisions", n.Message)
	assert.Len(t, n.Decisions, 3)

	// submitted x2 + three decisions
	assert.Len(t, env.auditor.entries, 5)
}

func TestBatchDecideRejectsWholeBatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a, err := env.svc.Create(ctx, copyDraft("A"))
	require.NoError(t, err)

	_, err = env.svc.BatchDecide(ctx, []BatchDecision{
		{ID: a.ID, Status: models.StatusApproved},
		{ID: a.ID, Status: models.StatusPending},
	}, "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	got, err := env.svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestTierFallback(t *testing.T) {
	env := newTestEnv(t, failingStore{name: "database"})
	ctx := context.Background()

	item, err := env.svc.Create(ctx, copyDraft("Fallback"))
	require.NoError(t, err)

	res := env.svc.List(ctx, Filter{})
	assert.Equal(t, "memory", res.Source)
	require.Len(t, res.Reviews, 1)

	_, err = env.svc.Decide(ctx, item.ID, models.StatusApproved, "", "")
	require.NoError(t, err)
}

func TestNotFoundStopsIteration(t *testing.T) {
	first := NewMemoryStore()
	second := NewMemoryStore(fixture("rev_x", time.Now()))
	svc := NewService(Config{Tiers: []Store{first, second}})

	_, err := svc.Get(context.Background(), "rev_x")
	assert.ErrorIs(t, err, ErrNotFound, "the first tier's answer wins")
}

func TestAllTiersFail(t *testing.T) {
	svc := NewService(Config{Tiers: []Store{failingStore{name: "database"}, failingStore{name: "file"}}})
	ctx := context.Background()

	res := svc.List(ctx, Filter{})
	assert.Equal(t, SourceNone, res.Source)
	assert.NotNil(t, res.Reviews)
	assert.Empty(t, res.Reviews)

	_, err := svc.Get(ctx, "rev_1")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = svc.CountByStatus(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAuditFailureIsNonFatal(t *testing.T) {
	env := newTestEnv(t)
	env.auditor.err = errors.New("log table missing")

	item, err := env.svc.Create(context.Background(), copyDraft("Audit"))
	require.NoError(t, err)
	_, err = env.svc.Decide(context.Background(), item.ID, models.StatusApproved, "", "")
	require.NoError(t, err)
}

func TestHistoryAndPoll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var ids []string
	for i := range 12 {
		d := copyDraft(fmt.Sprintf("Post %d", i))
		if i == 3 {
			d.Tags = []string{"Launch"}
		}
		item, err := env.svc.Create(ctx, d)
		require.NoError(t, err)
		ids = append(ids, item.ID)
	}
	for i, id := range ids[:11] {
		status := models.StatusApproved
		if i%2 == 1 {
			status = models.StatusRejected
		}
		_, err := env.svc.Decide(ctx, id, status, "", "")
		require.NoError(t, err)
	}

	h := env.svc.History(ctx, 5, "")
	require.Len(t, h.History, 5)
	assert.Equal(t, ids[10], h.History[0].ID, "most recently decided first")
	assert.Equal(t, 5, h.Stats.Total)

	found := env.svc.History(ctx, 50, "launch")
	require.Len(t, found.History, 1)
	assert.Equal(t, ids[3], found.History[0].ID)

	all := env.svc.History(ctx, 0, "")
	assert.Equal(t, Summary{Total: 11, Approved: 6, Rejected: 5}, all.Stats)

	peek, err := env.svc.Poll(ctx, true)
	require.NoError(t, err)
	assert.True(t, peek.HasNotification)
	assert.Len(t, peek.RecentDecisions, 10)
	require.NotNil(t, peek.RecentDecisions[0].DecidedAt)

	consumed, err := env.svc.Poll(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, peek.Notification, consumed.Notification)

	empty, err := env.svc.Poll(ctx, false)
	require.NoError(t, err)
	assert.False(t, empty.HasNotification)
	assert.Nil(t, empty.Notification)
}

func TestSeed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(SampleDrafts), res.Created)
	assert.Len(t, res.IDs, len(SampleDrafts))

	_, err = env.svc.Seed(ctx)
	assert.ErrorIs(t, err, ErrPendingExist)

	counts, err := env.svc.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(SampleDrafts), counts["pending"])
	assert.Equal(t, 0, counts["approved"])
}

func TestDedupeTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, dedupeTags([]string{"a", " b ", "a", ""}))
	assert.Nil(t, dedupeTags(nil))
}
