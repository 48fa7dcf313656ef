package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
)

// Pinger is a dependency the health check can probe. *db.DB implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service liveness and the state of its dependencies.
type HealthHandler struct {
	db      Pinger
	started time.Time
}

// NewHealthHandler creates a new health handler. database may be nil.
func NewHealthHandler(database Pinger) *HealthHandler {
	return &HealthHandler{db: database, started: time.Now()}
}

// Check answers 200 while the process is up. A failing database is
// reported but doesn't fail the check, since every read has a fallback.
func (h *HealthHandler) Check(c fiber.Ctx) error {
	database := "disabled"
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()
		database = "ok"
		if err := h.db.Ping(ctx); err != nil {
			database = "unreachable"
		}
	}

	return jsonSuccess(c, fiber.Map{
		"database": database,
		"uptime":   time.Since(h.started).Round(time.Second).String(),
	})
}
