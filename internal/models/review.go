package models

import (
	"slices"
	"time"
)

// ReviewStatus is the decision state of a review item.
type ReviewStatus string

// Review status constants
const (
	StatusPending          ReviewStatus = "pending"
	StatusApproved         ReviewStatus = "approved"
	StatusRejected         ReviewStatus = "rejected"
	StatusChangesRequested ReviewStatus = "changes_requested"
)

// ReviewStatuses lists every status a review can hold.
var ReviewStatuses = []ReviewStatus{StatusPending, StatusApproved, StatusRejected, StatusChangesRequested}

// DecidedStatuses lists the statuses a reviewer can decide on.
var DecidedStatuses = []ReviewStatus{StatusApproved, StatusRejected, StatusChangesRequested}

// Valid reports whether s is a known status.
func (s ReviewStatus) Valid() bool {
	return slices.Contains(ReviewStatuses, s)
}

// Decided reports whether s is a verdict rather than pending.
func (s ReviewStatus) Decided() bool {
	return slices.Contains(DecidedStatuses, s)
}

// ReviewType selects which content field of a review is populated.
type ReviewType string

// Review type constants
const (
	TypeDocument ReviewType = "document"
	TypeCopy     ReviewType = "copy"
	TypeImage    ReviewType = "image"
	TypeWebsite  ReviewType = "website"
	TypeVideo    ReviewType = "video"
	TypeCode     ReviewType = "code"
	TypeOther    ReviewType = "other"
)

// ReviewTypes lists every accepted review type.
var ReviewTypes = []ReviewType{TypeDocument, TypeCopy, TypeImage, TypeWebsite, TypeVideo, TypeCode, TypeOther}

// Valid reports whether t is a known review type.
func (t ReviewType) Valid() bool {
	return slices.Contains(ReviewTypes, t)
}

// Priority constants shared by reviews and tasks.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// PriorityRank orders priorities high first. Unknown priorities sort last.
func PriorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Decision is one verdict on a review item. Superseded decisions are kept
// in ReviewItem.History in the order they were made.
type Decision struct {
	Status    ReviewStatus `json:"status"`
	Comment   string       `json:"comment,omitempty"`
	DecidedBy string       `json:"decidedBy,omitempty"`
	DecidedAt time.Time    `json:"decidedAt"`
}

// ReviewItem is an artifact submitted for human approval.
type ReviewItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Type        ReviewType `json:"type"`

	// Content, one of these depending on Type.
	Content    string `json:"content,omitempty"`
	ContentURL string `json:"contentUrl,omitempty"`
	ImageURL   string `json:"imageUrl,omitempty"`
	VideoURL   string `json:"videoUrl,omitempty"`
	PreviewURL string `json:"previewUrl,omitempty"`
	FilePath   string `json:"filePath,omitempty"`

	SubmittedBy string    `json:"submittedBy"`
	SubmittedAt time.Time `json:"submittedAt"`
	Priority    string    `json:"priority"`
	Tags        []string  `json:"tags,omitempty"`

	// Advisory pre-review from an intermediate reviewer; never enforced.
	Recommendation      ReviewStatus `json:"recommendation,omitempty"`
	RecommendationNotes string       `json:"recommendationNotes,omitempty"`

	Status   ReviewStatus `json:"status"`
	Decision *Decision    `json:"decision,omitempty"`
	History  []Decision   `json:"history,omitempty"`
}

// ApplyDecision records d as the current decision. Any previous decision is
// appended to History first, so History stays in the order decisions were made.
func (r *ReviewItem) ApplyDecision(d Decision) {
	if r.Decision != nil {
		r.History = append(r.History, *r.Decision)
	}
	r.Status = d.Status
	r.Decision = &d
}

// DecidedAt returns the time of the current decision, or the submission time
// for undecided items.
func (r *ReviewItem) DecidedAt() time.Time {
	if r.Decision != nil {
		return r.Decision.DecidedAt
	}
	return r.SubmittedAt
}

// Clone returns a deep copy so callers can't mutate stored state.
func (r ReviewItem) Clone() ReviewItem {
	out := r
	out.Tags = slices.Clone(r.Tags)
	out.History = slices.Clone(r.History)
	if r.Decision != nil {
		d := *r.Decision
		out.Decision = &d
	}
	return out
}

// ReviewDraft carries the submitter-provided fields of a new review.
type ReviewDraft struct {
	Title               string       `json:"title"`
	Description         string       `json:"description,omitempty"`
	Type                ReviewType   `json:"type"`
	Content             string       `json:"content,omitempty"`
	ContentURL          string       `json:"contentUrl,omitempty"`
	ImageURL            string       `json:"imageUrl,omitempty"`
	VideoURL            string       `json:"videoUrl,omitempty"`
	PreviewURL          string       `json:"previewUrl,omitempty"`
	FilePath            string       `json:"filePath,omitempty"`
	SubmittedBy         string       `json:"submittedBy"`
	Priority            string       `json:"priority,omitempty"`
	Tags                []string     `json:"tags,omitempty"`
	Recommendation      ReviewStatus `json:"recommendation,omitempty"`
	RecommendationNotes string       `json:"recommendationNotes,omitempty"`
}

// ReviewDocument is the on-disk layout of the file-backed review store.
type ReviewDocument struct {
	Reviews     []ReviewItem `json:"reviews"`
	LastUpdated time.Time    `json:"lastUpdated"`
	Version     int          `json:"version"`
}

// NotificationDecision summarizes one decision inside a Notification.
type NotificationDecision struct {
	ID      string       `json:"id"`
	Title   string       `json:"title"`
	Status  ReviewStatus `json:"status"`
	Comment string       `json:"comment,omitempty"`
}

// Notification is the single pending summary record a poller consumes.
type Notification struct {
	Message   string                 `json:"message"`
	Decisions []NotificationDecision `json:"decisions"`
	Timestamp time.Time              `json:"timestamp"`
}
