package models

import (
	"testing"
	"time"
)

func TestReviewStatus_Valid(t *testing.T) {
	tests := []struct {
		name    string
		status  ReviewStatus
		valid   bool
		decided bool
	}{
		{"pending", StatusPending, true, false},
		{"approved", StatusApproved, true, true},
		{"rejected", StatusRejected, true, true},
		{"changes requested", StatusChangesRequested, true, true},
		{"empty", "", false, false},
		{"unknown", "revision_requested", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := tt.status.Decided(); got != tt.decided {
				t.Errorf("Decided() = %v, want %v", got, tt.decided)
			}
		})
	}
}

func TestReviewItem_ApplyDecision(t *testing.T) {
	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	item := ReviewItem{ID: "rev_1", Status: StatusPending, SubmittedAt: base}

	item.ApplyDecision(Decision{Status: StatusApproved, Comment: "ship it", DecidedBy: "a", DecidedAt: base.Add(time.Hour)})
	if item.Status != StatusApproved {
		t.Fatalf("Status = %q, want %q", item.Status, StatusApproved)
	}
	if len(item.History) != 0 {
		t.Fatalf("History length = %d, want 0 after first decision", len(item.History))
	}

	item.ApplyDecision(Decision{Status: StatusRejected, DecidedBy: "b", DecidedAt: base.Add(2 * time.Hour)})
	if item.Status != StatusRejected {
		t.Errorf("Status = %q, want %q", item.Status, StatusRejected)
	}
	if len(item.History) != 1 {
		t.Fatalf("History length = %d, want 1", len(item.History))
	}
	if item.History[0].Comment != "ship it" || item.History[0].DecidedBy != "a" {
		t.Errorf("History[0] = %+v, want the superseded approval", item.History[0])
	}
	if !item.DecidedAt().Equal(base.Add(2 * time.Hour)) {
		t.Errorf("DecidedAt() = %v, want latest decision time", item.DecidedAt())
	}
}

func TestReviewItem_Clone(t *testing.T) {
	item := ReviewItem{
		Tags:     []string{"a"},
		Decision: &Decision{Status: StatusApproved},
		History:  []Decision{{Status: StatusRejected}},
	}

	clone := item.Clone()
	clone.Tags[0] = "b"
	clone.Decision.Status = StatusRejected
	clone.History[0].Status = StatusApproved

	if item.Tags[0] != "a" {
		t.Error("Clone() shares Tags with the original")
	}
	if item.Decision.Status != StatusApproved {
		t.Error("Clone() shares Decision with the original")
	}
	if item.History[0].Status != StatusRejected {
		t.Error("Clone() shares History with the original")
	}
}

func TestPriorityRank(t *testing.T) {
	if !(PriorityRank(PriorityHigh) < PriorityRank(PriorityMedium) &&
		PriorityRank(PriorityMedium) < PriorityRank(PriorityLow) &&
		PriorityRank(PriorityLow) < PriorityRank("whatever")) {
		t.Error("PriorityRank() does not order high < medium < low < unknown")
	}
}
