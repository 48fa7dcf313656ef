package api

import (
	"github.com/gofiber/fiber/v3"

	"github.com/captainbotgit/mission-control/internal/models"
	"github.com/captainbotgit/mission-control/internal/sources"
)

// DashboardHandler serves the fleet resources. Every answer carries the
// source that produced it.
type DashboardHandler struct {
	hub *sources.Hub
}

// NewDashboardHandler creates a new dashboard API handler.
func NewDashboardHandler(hub *sources.Hub) *DashboardHandler {
	return &DashboardHandler{hub: hub}
}

// Agents returns the fleet.
func (h *DashboardHandler) Agents(c fiber.Ctx) error {
	res, err := h.hub.Agents(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "no agent source available")
	}
	return jsonSuccess(c, fiber.Map{"agents": res.Data, "count": len(res.Data), "source": res.Source})
}

// Activity returns recent activity. Query: limit.
func (h *DashboardHandler) Activity(c fiber.Ctx) error {
	res, err := h.hub.Activity(c.Context(), queryInt(c, "limit", sources.DefaultActivityLimit))
	if err != nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "no activity source available")
	}
	return jsonSuccess(c, fiber.Map{"activities": res.Data, "total": len(res.Data), "source": res.Source})
}

// Tasks returns tasks. Query: status.
func (h *DashboardHandler) Tasks(c fiber.Ctx) error {
	status := c.Query("status")
	switch status {
	case "", models.TaskTodo, models.TaskInProgress, models.TaskDone, models.TaskBlocked:
	default:
		return jsonError(c, fiber.StatusBadRequest, "invalid status")
	}

	res, err := h.hub.Tasks(c.Context(), status)
	if err != nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "no task source available")
	}
	return jsonSuccess(c, fiber.Map{"tasks": res.Data, "total": len(res.Data), "source": res.Source})
}

// Cron returns scheduled jobs.
func (h *DashboardHandler) Cron(c fiber.Ctx) error {
	res, err := h.hub.Cron(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "no cron source available")
	}
	return jsonSuccess(c, fiber.Map{"jobs": res.Data, "source": res.Source})
}

// Wallet returns the wallet snapshot.
func (h *DashboardHandler) Wallet(c fiber.Ctx) error {
	res, err := h.hub.Wallet(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "failed to fetch wallet data")
	}
	return jsonSuccess(c, fiber.Map{"wallet": res.Data, "source": res.Source})
}
