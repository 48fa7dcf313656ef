package db

import "errors"

// Domain-level database error sentinels.
var (
	// Review errors
	ErrReviewNotFound = errors.New("review not found")

	// Deliverable errors
	ErrDeliverableNotFound = errors.New("deliverable not found")
)
