package api

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/captainbotgit/mission-control/internal/deliverables"
	"github.com/captainbotgit/mission-control/internal/models"
)

// DeliverableHandler handles deliverable submission and approval.
type DeliverableHandler struct {
	svc *deliverables.Service
}

// NewDeliverableHandler creates a new deliverable API handler.
func NewDeliverableHandler(svc *deliverables.Service) *DeliverableHandler {
	return &DeliverableHandler{svc: svc}
}

// List returns deliverables. Query: status, agentId, limit.
func (h *DeliverableHandler) List(c fiber.Ctx) error {
	items, err := h.svc.List(c.Context(), c.Query("status"), c.Query("agentId"), queryInt(c, "limit", 50))
	if err != nil {
		return deliverableError(c, err, "failed to fetch deliverables")
	}
	return jsonSuccess(c, fiber.Map{"deliverables": items, "count": len(items)})
}

// Create submits a deliverable for review.
func (h *DeliverableHandler) Create(c fiber.Ctx) error {
	var item models.Deliverable
	if err := json.Unmarshal(c.Body(), &item); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.svc.Submit(c.Context(), &item); err != nil {
		return deliverableError(c, err, "failed to create deliverable")
	}
	return jsonCreated(c, item)
}

// Approve records a decision on a deliverable and fires the approval webhook.
func (h *DeliverableHandler) Approve(c fiber.Ctx) error {
	var req deliverables.ApprovalRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	res, err := h.svc.Approve(c.Context(), req)
	if err != nil {
		return deliverableError(c, err, "failed to update deliverable")
	}
	return jsonSuccess(c, res)
}

// DescribeApprove documents the approval endpoint.
func (h *DeliverableHandler) DescribeApprove(c fiber.Ctx) error {
	return jsonSuccess(c, fiber.Map{
		"endpoint":          "/api/webhooks/approve",
		"method":            fiber.MethodPost,
		"webhookConfigured": h.svc.WebhookConfigured(),
		"requiredFields": fiber.Map{
			"deliverableId": "string (UUID)",
			"status":        "approved | rejected | revision_requested",
			"notes":         "string (optional)",
			"approvedBy":    "string (optional, defaults to the configured reviewer)",
		},
		"auth": "Bearer token required when DASHBOARD_TOKEN is set",
	})
}

func deliverableError(c fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, deliverables.ErrInvalid):
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, deliverables.ErrNotFound):
		return jsonError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, deliverables.ErrUnavailable):
		return jsonError(c, fiber.StatusServiceUnavailable, err.Error())
	default:
		return jsonError(c, fiber.StatusInternalServerError, fallback)
	}
}
