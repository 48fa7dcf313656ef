package server

import (
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/captainbotgit/mission-control/internal/db"
	"github.com/captainbotgit/mission-control/internal/deliverables"
	"github.com/captainbotgit/mission-control/internal/handlers"
	"github.com/captainbotgit/mission-control/internal/handlers/api"
	"github.com/captainbotgit/mission-control/internal/middleware"
	"github.com/captainbotgit/mission-control/internal/review"
	"github.com/captainbotgit/mission-control/internal/sources"
)

// Deps are the services the routes dispatch to.
type Deps struct {
	// DB is optional; it is only pinged by the health check.
	DB           *db.DB
	Reviews      *review.Service
	Hub          *sources.Hub
	Deliverables *deliverables.Service
}

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(d Deps) {
	authMiddleware := middleware.NewAuthMiddleware(s.Cfg.DashboardToken)
	if !authMiddleware.Enabled() {
		s.log.Warn("DASHBOARD_TOKEN is not set, dashboard is open to anyone who can reach it")
	}

	var pinger api.Pinger
	if d.DB != nil {
		pinger = d.DB
	}

	pageHandler := handlers.NewPageHandler(d.Hub, d.Reviews, s.log)
	reviewHandler := api.NewReviewHandler(d.Reviews)
	dashboardHandler := api.NewDashboardHandler(d.Hub)
	deliverableHandler := api.NewDeliverableHandler(d.Deliverables)
	authHandler := api.NewAuthHandler(authMiddleware, s.Cfg.TLSEnabled() || !s.Cfg.IsDev())
	healthHandler := api.NewHealthHandler(pinger)

	s.App.Use(authMiddleware.RequireAuth)

	// Public
	s.App.Get("/healthz", healthHandler.Check)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	s.App.Get("/login", pageHandler.Login)

	// Pages
	s.App.Get("/", pageHandler.Overview)

	apiGroup := s.App.Group("/api")

	apiGroup.Post("/auth", authHandler.Login)
	apiGroup.Delete("/auth", authHandler.Logout)

	// Fixed review paths must be registered ahead of /reviews/:id.
	apiGroup.Get("/reviews", reviewHandler.List)
	apiGroup.Post("/reviews", reviewHandler.Create)
	apiGroup.Get("/reviews/pending", reviewHandler.Pending)
	apiGroup.Post("/reviews/submit", reviewHandler.Submit)
	apiGroup.Post("/reviews/seed", reviewHandler.Seed)
	apiGroup.Get("/reviews/history", reviewHandler.History)
	apiGroup.Get("/reviews/:id", reviewHandler.Get)
	apiGroup.Patch("/reviews/:id", reviewHandler.Update)

	apiGroup.Get("/agents", dashboardHandler.Agents)
	apiGroup.Get("/activity", dashboardHandler.Activity)
	apiGroup.Get("/tasks", dashboardHandler.Tasks)
	apiGroup.Get("/cron", dashboardHandler.Cron)
	apiGroup.Get("/wallet", dashboardHandler.Wallet)

	apiGroup.Get("/deliverables", deliverableHandler.List)
	apiGroup.Post("/deliverables", deliverableHandler.Create)
	apiGroup.Get("/webhooks/approve", deliverableHandler.DescribeApprove)
	apiGroup.Post("/webhooks/approve", deliverableHandler.Approve)
}
