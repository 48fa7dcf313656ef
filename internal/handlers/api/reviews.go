package api

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/captainbotgit/mission-control/internal/models"
	"github.com/captainbotgit/mission-control/internal/review"
)

const (
	defaultReviewLimit  = 100
	defaultHistoryLimit = 50
)

// ReviewHandler exposes the review workflow as a JSON API.
type ReviewHandler struct {
	svc *review.Service
}

// NewReviewHandler creates a new review API handler.
func NewReviewHandler(svc *review.Service) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

// List returns reviews, optionally only pending ones or one status.
// Query: status, pending=true, limit.
func (h *ReviewHandler) List(c fiber.Ctx) error {
	status := models.ReviewStatus(c.Query("status"))
	if c.Query("pending") == "true" {
		status = models.StatusPending
	}
	if status != "" && !status.Valid() {
		return jsonError(c, fiber.StatusBadRequest, "invalid status")
	}

	res := h.svc.List(c.Context(), review.Filter{Status: status})
	count := len(res.Reviews)
	if limit := queryInt(c, "limit", defaultReviewLimit); len(res.Reviews) > limit {
		res.Reviews = res.Reviews[:limit]
	}

	return jsonSuccess(c, fiber.Map{
		"reviews": res.Reviews,
		"count":   count,
		"source":  res.Source,
	})
}

// Create submits a new review.
func (h *ReviewHandler) Create(c fiber.Ctx) error {
	var draft models.ReviewDraft
	if err := json.Unmarshal(c.Body(), &draft); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	item, err := h.svc.Create(c.Context(), draft)
	if err != nil {
		return reviewError(c, err, "failed to submit review")
	}
	return jsonCreated(c, item)
}

// Get returns a single review.
func (h *ReviewHandler) Get(c fiber.Ctx) error {
	item, err := h.svc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return reviewError(c, err, "failed to fetch review")
	}
	return jsonSuccess(c, item)
}

// Update records a decision on one review.
func (h *ReviewHandler) Update(c fiber.Ctx) error {
	var body struct {
		Status    models.ReviewStatus `json:"status"`
		Comment   string              `json:"comment"`
		DecidedBy string              `json:"decidedBy"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	item, err := h.svc.Decide(c.Context(), c.Params("id"), body.Status, body.Comment, body.DecidedBy)
	if err != nil {
		return reviewError(c, err, "failed to update review")
	}
	return jsonSuccess(c, item)
}

// Submit applies a batch of decisions.
func (h *ReviewHandler) Submit(c fiber.Ctx) error {
	var body struct {
		Decisions []review.BatchDecision `json:"decisions"`
		DecidedBy string                 `json:"decidedBy"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if body.Decisions == nil {
		return jsonError(c, fiber.StatusBadRequest, "missing decisions array")
	}

	res, err := h.svc.BatchDecide(c.Context(), body.Decisions, body.DecidedBy)
	if err != nil {
		return reviewError(c, err, "failed to submit reviews")
	}
	return jsonSuccess(c, res)
}

// Pending returns the pending notification for a poller, clearing it unless
// peek=true.
func (h *ReviewHandler) Pending(c fiber.Ctx) error {
	res, err := h.svc.Poll(c.Context(), c.Query("peek") == "true")
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to check pending")
	}
	return jsonSuccess(c, res)
}

// Seed inserts sample reviews when none are pending.
func (h *ReviewHandler) Seed(c fiber.Ctx) error {
	res, err := h.svc.Seed(c.Context())
	if err != nil {
		return reviewError(c, err, "failed to seed reviews")
	}
	return jsonCreated(c, res)
}

// History returns decided reviews. Query: limit, search.
func (h *ReviewHandler) History(c fiber.Ctx) error {
	res := h.svc.History(c.Context(), queryInt(c, "limit", defaultHistoryLimit), c.Query("search"))
	return jsonSuccess(c, res)
}

// queryInt reads a positive integer query parameter.
func queryInt(c fiber.Ctx, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
