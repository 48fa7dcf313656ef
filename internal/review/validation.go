package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/captainbotgit/mission-control/internal/models"
	"github.com/captainbotgit/mission-control/internal/validation"
)

// ValidationError reports a rejected draft or decision.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Prober checks that a URL answers.
type Prober interface {
	Probe(ctx context.Context, url string) error
}

// normalizeDraft trims the draft and fills defaults.
func normalizeDraft(d *models.ReviewDraft) {
	d.Title = strings.TrimSpace(d.Title)
	d.SubmittedBy = strings.TrimSpace(d.SubmittedBy)
	d.PreviewURL = strings.TrimSpace(d.PreviewURL)
	if d.Priority == "" {
		d.Priority = models.PriorityMedium
	}
}

// validateDraft checks the draft's fields without touching the network.
func validateDraft(d models.ReviewDraft) error {
	var missing []string
	if d.Title == "" {
		missing = append(missing, "title")
	}
	if d.Type == "" {
		missing = append(missing, "type")
	}
	if d.SubmittedBy == "" {
		missing = append(missing, "submittedBy")
	}
	if len(missing) > 0 {
		return invalid("", "missing required fields: %s", strings.Join(missing, ", "))
	}

	if !d.Type.Valid() {
		return invalid("type", "invalid type %q", d.Type)
	}
	if models.PriorityRank(d.Priority) > 2 {
		return invalid("priority", "invalid priority %q", d.Priority)
	}
	if d.Recommendation != "" && !d.Recommendation.Decided() {
		return invalid("recommendation", "invalid recommendation %q", d.Recommendation)
	}

	urls := []struct {
		field, value string
	}{
		{"contentUrl", d.ContentURL},
		{"imageUrl", d.ImageURL},
		{"videoUrl", d.VideoURL},
		{"previewUrl", d.PreviewURL},
	}
	for _, u := range urls {
		if valid, msg := validation.ValidateOptionalURL(u.value); !valid {
			return invalid(u.field, "%s", msg)
		}
	}

	if d.Type == models.TypeWebsite && d.PreviewURL == "" {
		return invalid("previewUrl", "website reviews require a previewUrl")
	}
	return nil
}

// validateDecision checks a status for a single or batch decision.
func validateDecision(status models.ReviewStatus, batch bool) error {
	if batch {
		if !status.Decided() {
			return invalid("status", "invalid status %q: must be one of approved, rejected, changes_requested", status)
		}
		return nil
	}
	if !status.Valid() {
		return invalid("status", "invalid status %q", status)
	}
	return nil
}
