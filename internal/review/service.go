package review

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/captainbotgit/mission-control/internal/metrics"
	"github.com/captainbotgit/mission-control/internal/models"
	"github.com/captainbotgit/mission-control/internal/notify"
)

// SourceNone tags a List answered by no tier.
const SourceNone = "none"

// recentDecisionCount is how many decisions Poll returns for context.
const recentDecisionCount = 10

// ErrPendingExist is returned by Seed when pending reviews already exist.
var ErrPendingExist = errors.New("pending reviews already exist")

// Config wires a Service.
type Config struct {
	// Tiers are tried in order; the first that answers wins.
	Tiers []Store
	// Slot receives the summary notification after decisions. Optional.
	Slot notify.Slot
	// Prober checks previewUrl reachability on Create. Nil skips the check.
	Prober   Prober
	Auditors []Auditor
	// Reviewer is the actor recorded when a decision names none.
	Reviewer string
	Logger   *zap.Logger
}

// Service runs the review workflow over an ordered list of store tiers.
type Service struct {
	tiers    []Store
	slot     notify.Slot
	prober   Prober
	auditors []Auditor
	reviewer string
	log      *zap.Logger
	now      func() time.Time
	newID    func() string
}

// NewService creates a Service from cfg.
func NewService(cfg Config) *Service {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	reviewer := cfg.Reviewer
	if reviewer == "" {
		reviewer = "reviewer"
	}
	return &Service{
		tiers:    cfg.Tiers,
		slot:     cfg.Slot,
		prober:   cfg.Prober,
		auditors: cfg.Auditors,
		reviewer: reviewer,
		log:      log.Named("review"),
		now:      time.Now,
		newID:    func() string { return "rev_" + uuid.NewString() },
	}
}

// ListResult is a List answer tagged with the tier that produced it.
type ListResult struct {
	Reviews []models.ReviewItem `json:"reviews"`
	Source  string              `json:"source"`
}

// List returns reviews matching f from the first tier that answers. It never
// fails: when every tier errors the result is empty with source "none".
func (s *Service) List(ctx context.Context, f Filter) ListResult {
	for _, tier := range s.tiers {
		items, err := tier.List(ctx, f)
		if err != nil {
			s.skip(tier, "list", err)
			continue
		}
		metrics.RecordSourceFetch("reviews", tier.Name())
		return ListResult{Reviews: items, Source: tier.Name()}
	}
	return ListResult{Reviews: []models.ReviewItem{}, Source: SourceNone}
}

// Get returns the review with id.
func (s *Service) Get(ctx context.Context, id string) (*models.ReviewItem, error) {
	var found *models.ReviewItem
	err := s.each("get", func(tier Store) error {
		item, err := tier.Get(ctx, id)
		found = item
		return err
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Create validates draft, stores it as a new pending review and returns it.
func (s *Service) Create(ctx context.Context, draft models.ReviewDraft) (*models.ReviewItem, error) {
	normalizeDraft(&draft)
	if err := validateDraft(draft); err != nil {
		return nil, err
	}
	if draft.PreviewURL != "" && s.prober != nil {
		if err := s.prober.Probe(ctx, draft.PreviewURL); err != nil {
			return nil, invalid("previewUrl", "preview URL is not reachable: %v", err)
		}
	}
	return s.insert(ctx, draft)
}

// insert stores a validated draft.
func (s *Service) insert(ctx context.Context, draft models.ReviewDraft) (*models.ReviewItem, error) {
	item := models.ReviewItem{
		ID:                  s.newID(),
		Title:               draft.Title,
		Description:         draft.Description,
		Type:                draft.Type,
		Content:             draft.Content,
		ContentURL:          draft.ContentURL,
		ImageURL:            draft.ImageURL,
		VideoURL:            draft.VideoURL,
		PreviewURL:          draft.PreviewURL,
		FilePath:            draft.FilePath,
		SubmittedBy:         draft.SubmittedBy,
		SubmittedAt:         s.now().UTC(),
		Priority:            draft.Priority,
		Tags:                dedupeTags(draft.Tags),
		Recommendation:      draft.Recommendation,
		RecommendationNotes: draft.RecommendationNotes,
		Status:              models.StatusPending,
	}

	if err := s.each("create", func(tier Store) error {
		return tier.Create(ctx, item)
	}); err != nil {
		return nil, err
	}

	s.audit(ctx, models.AuditEntry{
		SubjectID:    item.ID,
		SubjectTitle: item.Title,
		Action:       "submitted",
		Actor:        item.SubmittedBy,
		Timestamp:    item.SubmittedAt,
	})
	return &item, nil
}

// Decide records a decision on one review. An empty actor records the
// configured reviewer.
func (s *Service) Decide(ctx context.Context, id string, status models.ReviewStatus, comment, actor string) (*models.ReviewItem, error) {
	if err := validateDecision(status, false); err != nil {
		return nil, err
	}

	d := s.decision(status, comment, actor)
	var updated *models.ReviewItem
	err := s.each("decide", func(tier Store) error {
		item, err := tier.Decide(ctx, id, d)
		updated = item
		return err
	})
	if err != nil {
		return nil, err
	}

	s.recorded(ctx, *updated)
	s.notify(ctx, fmt.Sprintf("%s decided on %q: %s", d.DecidedBy, updated.Title, status), []models.ReviewItem{*updated})
	return updated, nil
}

// BatchDecision is one caller-supplied decision in a batch.
type BatchDecision struct {
	ID      string              `json:"id"`
	Status  models.ReviewStatus `json:"status"`
	Comment string              `json:"comment,omitempty"`
}

// Summary counts decided reviews by status.
type Summary struct {
	Total            int `json:"total"`
	Approved         int `json:"approved"`
	Rejected         int `json:"rejected"`
	ChangesRequested int `json:"changesRequested"`
}

func summarize(items []models.ReviewItem) Summary {
	sum := Summary{Total: len(items)}
	for _, item := range items {
		switch item.Status {
		case models.StatusApproved:
			sum.Approved++
		case models.StatusRejected:
			sum.Rejected++
		case models.StatusChangesRequested:
			sum.ChangesRequested++
		}
	}
	return sum
}

// BatchResult reports the outcome of BatchDecide.
type BatchResult struct {
	Updated []models.ReviewItem `json:"updated"`
	Summary Summary             `json:"summary"`
}

// BatchDecide applies decisions in order. Every decision is validated before
// any is applied; unknown ids are skipped. One notification summarizes the batch.
func (s *Service) BatchDecide(ctx context.Context, decisions []BatchDecision, actor string) (*BatchResult, error) {
	for i, bd := range decisions {
		if bd.ID == "" || bd.Status == "" {
			return nil, invalid("decisions", "decision %d must have id and status", i)
		}
		if err := validateDecision(bd.Status, true); err != nil {
			return nil, err
		}
	}

	entries := make([]Entry, 0, len(decisions))
	for _, bd := range decisions {
		entries = append(entries, Entry{ID: bd.ID, Decision: s.decision(bd.Status, bd.Comment, actor)})
	}

	var updated []models.ReviewItem
	err := s.each("batch decide", func(tier Store) error {
		items, err := tier.BatchDecide(ctx, entries)
		updated = items
		return err
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		updated = []models.ReviewItem{}
	}

	for _, item := range updated {
		s.recorded(ctx, item)
	}
	s.notify(ctx, fmt.Sprintf("%s submitted %d review decisions", s.actor(actor), len(updated)), updated)

	return &BatchResult{Updated: updated, Summary: summarize(updated)}, nil
}

// HistoryResult holds decided reviews and their counts.
type HistoryResult struct {
	History []models.ReviewItem `json:"history"`
	Stats   Summary             `json:"stats"`
}

// History returns decided reviews, most recently decided first. A non-empty
// search matches title, description, submitter and tags case-insensitively.
func (s *Service) History(ctx context.Context, limit int, search string) HistoryResult {
	history := s.decided(ctx)

	if search = strings.ToLower(strings.TrimSpace(search)); search != "" {
		history = slices.DeleteFunc(history, func(r models.ReviewItem) bool {
			return !matches(r, search)
		})
	}
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return HistoryResult{History: history, Stats: summarize(history)}
}

// RecentDecision is the compact form of a decided review returned by Poll.
type RecentDecision struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Type        models.ReviewType   `json:"type"`
	Status      models.ReviewStatus `json:"status"`
	SubmittedBy string              `json:"submittedBy"`
	DecidedAt   *time.Time          `json:"decidedAt,omitempty"`
	Comment     string              `json:"comment,omitempty"`
}

// PollResult is the answer to a poller checking for new decisions.
type PollResult struct {
	HasNotification bool                 `json:"hasNotification"`
	Notification    *models.Notification `json:"notification"`
	RecentDecisions []RecentDecision     `json:"recentDecisions"`
}

// Poll returns the pending notification, clearing it unless peek, along with
// the most recent decisions.
func (s *Service) Poll(ctx context.Context, peek bool) (*PollResult, error) {
	var n *models.Notification
	if s.slot != nil {
		var err error
		n, err = s.slot.Read(ctx, peek)
		if err != nil {
			return nil, fmt.Errorf("read notification: %w", err)
		}
	}

	decided := s.decided(ctx)
	if len(decided) > recentDecisionCount {
		decided = decided[:recentDecisionCount]
	}

	recent := make([]RecentDecision, 0, len(decided))
	for _, item := range decided {
		rd := RecentDecision{
			ID:          item.ID,
			Title:       item.Title,
			Type:        item.Type,
			Status:      item.Status,
			SubmittedBy: item.SubmittedBy,
		}
		if item.Decision != nil {
			at := item.Decision.DecidedAt
			rd.DecidedAt = &at
			rd.Comment = item.Decision.Comment
		}
		recent = append(recent, rd)
	}

	return &PollResult{HasNotification: n != nil, Notification: n, RecentDecisions: recent}, nil
}

// CountByStatus counts reviews in each status.
func (s *Service) CountByStatus(ctx context.Context) (map[string]int, error) {
	res := s.List(ctx, Filter{})
	if res.Source == SourceNone {
		return nil, ErrUnavailable
	}
	counts := make(map[string]int, len(models.ReviewStatuses))
	for _, status := range models.ReviewStatuses {
		counts[string(status)] = 0
	}
	for _, item := range res.Reviews {
		counts[string(item.Status)]++
	}
	return counts, nil
}

// decided lists non-pending reviews ordered by decision time, newest first.
func (s *Service) decided(ctx context.Context) []models.ReviewItem {
	items := s.List(ctx, Filter{}).Reviews
	items = slices.DeleteFunc(items, func(r models.ReviewItem) bool {
		return r.Status == models.StatusPending
	})
	slices.SortStableFunc(items, func(a, b models.ReviewItem) int {
		return b.DecidedAt().Compare(a.DecidedAt())
	})
	return items
}

func matches(r models.ReviewItem, search string) bool {
	if strings.Contains(strings.ToLower(r.Title), search) ||
		strings.Contains(strings.ToLower(r.Description), search) ||
		strings.Contains(strings.ToLower(r.SubmittedBy), search) {
		return true
	}
	return slices.ContainsFunc(r.Tags, func(t string) bool {
		return strings.Contains(strings.ToLower(t), search)
	})
}

func (s *Service) actor(actor string) string {
	if actor = strings.TrimSpace(actor); actor != "" {
		return actor
	}
	return s.reviewer
}

func (s *Service) decision(status models.ReviewStatus, comment, actor string) models.Decision {
	return models.Decision{
		Status:    status,
		Comment:   comment,
		DecidedBy: s.actor(actor),
		DecidedAt: s.now().UTC(),
	}
}

// each runs fn against tiers in order until one succeeds. ErrNotFound is an
// answer and stops the iteration; other errors fall through to the next tier.
func (s *Service) each(op string, fn func(Store) error) error {
	for _, tier := range s.tiers {
		err := fn(tier)
		if err == nil || errors.Is(err, ErrNotFound) {
			return err
		}
		s.skip(tier, op, err)
	}
	return ErrUnavailable
}

func (s *Service) skip(tier Store, op string, err error) {
	s.log.Warn("review tier failed, trying next",
		zap.String("tier", tier.Name()),
		zap.String("op", op),
		zap.Error(err),
	)
	metrics.RecordTierFallback("reviews", tier.Name())
}

// recorded counts and audits an applied decision.
func (s *Service) recorded(ctx context.Context, item models.ReviewItem) {
	if item.Decision == nil {
		return
	}
	metrics.RecordDecision(string(item.Status))
	s.audit(ctx, models.AuditEntry{
		SubjectID:    item.ID,
		SubjectTitle: item.Title,
		Action:       string(item.Status),
		Actor:        item.Decision.DecidedBy,
		Notes:        item.Decision.Comment,
		Timestamp:    item.Decision.DecidedAt,
	})
}

func (s *Service) audit(ctx context.Context, e models.AuditEntry) {
	for _, a := range s.auditors {
		if err := a.Audit(ctx, e); err != nil {
			s.log.Error("audit failed",
				zap.String("subject_id", e.SubjectID),
				zap.String("action", e.Action),
				zap.Error(err),
			)
		}
	}
}

func (s *Service) notify(ctx context.Context, message string, items []models.ReviewItem) {
	if s.slot == nil {
		return
	}
	if err := s.slot.Write(ctx, notify.Summarize(message, items, s.now().UTC())); err != nil {
		s.log.Error("failed to write notification", zap.Error(err))
	}
}

// dedupeTags drops empty and repeated tags, keeping first occurrences.
func dedupeTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}
