// Package handlers renders the server-side pages.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/template/html/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/captainbotgit/mission-control/internal/models"
	"github.com/captainbotgit/mission-control/internal/review"
	"github.com/captainbotgit/mission-control/internal/sources"
	"github.com/captainbotgit/mission-control/internal/views"
)

// SiteTitle is shown in every page header.
const SiteTitle = "Mission Control"

// NewEngine returns the template engine over the embedded views.
func NewEngine(reload bool) *html.Engine {
	engine := html.NewFileSystem(http.FS(views.FS), ".html")
	engine.Reload(reload)
	return engine
}

// PageHandler renders the login and overview pages.
type PageHandler struct {
	hub     *sources.Hub
	reviews *review.Service
	log     *zap.Logger
}

// NewPageHandler creates a new page handler.
func NewPageHandler(hub *sources.Hub, reviews *review.Service, log *zap.Logger) *PageHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PageHandler{hub: hub, reviews: reviews, log: log.Named("pages")}
}

// Login renders the token prompt.
func (h *PageHandler) Login(c fiber.Ctx) error {
	redirect := c.Query("redirect", "/")
	if !strings.HasPrefix(redirect, "/") || strings.HasPrefix(redirect, "//") {
		redirect = "/"
	}
	return c.Render("login", fiber.Map{
		"Title":     "Sign in",
		"SiteTitle": SiteTitle,
		"Redirect":  redirect,
	})
}

// Overview renders every dashboard panel. Sources are fetched concurrently;
// a panel whose chain fails is rendered empty.
func (h *PageHandler) Overview(c fiber.Ctx) error {
	data := fiber.Map{
		"Title":     "Overview",
		"SiteTitle": SiteTitle,
	}

	var (
		agents     sources.Result[[]models.Agent]
		tasks      sources.Result[[]models.Task]
		activities sources.Result[[]models.Activity]
		cronJobs   sources.Result[[]models.CronJob]
		wallet     sources.Result[*models.WalletSnapshot]
		pending    review.ListResult
	)

	g, ctx := errgroup.WithContext(c.Context())
	g.Go(h.fetch(ctx, "agents", func(ctx context.Context) (err error) {
		agents, err = h.hub.Agents(ctx)
		return err
	}))
	g.Go(h.fetch(ctx, "tasks", func(ctx context.Context) (err error) {
		tasks, err = h.hub.Tasks(ctx, "")
		return err
	}))
	g.Go(h.fetch(ctx, "activity", func(ctx context.Context) (err error) {
		activities, err = h.hub.Activity(ctx, sources.DefaultActivityLimit)
		return err
	}))
	g.Go(h.fetch(ctx, "cron", func(ctx context.Context) (err error) {
		cronJobs, err = h.hub.Cron(ctx)
		return err
	}))
	g.Go(h.fetch(ctx, "wallet", func(ctx context.Context) (err error) {
		wallet, err = h.hub.Wallet(ctx)
		return err
	}))
	g.Go(func() error {
		pending = h.reviews.List(ctx, review.Filter{Status: models.StatusPending})
		return nil
	})
	_ = g.Wait()

	data["Agents"], data["AgentsSource"] = agents.Data, agents.Source
	data["Tasks"], data["TasksSource"] = tasks.Data, tasks.Source
	data["Activities"], data["ActivitySource"] = activities.Data, activities.Source
	data["CronJobs"], data["CronSource"] = cronJobs.Data, cronJobs.Source
	data["Wallet"], data["WalletSource"] = wallet.Data, wallet.Source
	data["Reviews"], data["ReviewsSource"] = pending.Reviews, pending.Source

	return c.Render("overview", data)
}

// fetch logs a panel failure instead of cancelling the other panels.
func (h *PageHandler) fetch(ctx context.Context, panel string, fn func(context.Context) error) func() error {
	return func() error {
		if err := fn(ctx); err != nil {
			h.log.Warn("panel unavailable", zap.String("panel", panel), zap.Error(err))
		}
		return nil
	}
}

// ErrorHandler renders errors as a page, or as JSON under /api.
func ErrorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	if strings.HasPrefix(c.Path(), "/api/") {
		return c.Status(code).JSON(fiber.Map{
			"status": "error",
			"error":  message,
		})
	}

	return c.Status(code).Render("error", fiber.Map{
		"Title":     "Error",
		"Message":   message,
		"SiteTitle": SiteTitle,
	})
}
