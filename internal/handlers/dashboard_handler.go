package handlers

import (
	"member-admin-api/internal/services"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler serves the read-only analytics under /api/dashboard.
type DashboardHandler struct {
	analytics   services.AnalyticsService
	recentLimit int
}

// NewDashboardHandler creates a new DashboardHandler. recentLimit is the default size of /recent.
func NewDashboardHandler(analytics services.AnalyticsService, recentLimit int) *DashboardHandler {
	if recentLimit <= 0 {
		recentLimit = 10
	}
	return &DashboardHandler{analytics: analytics, recentLimit: recentLimit}
}

func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.analytics.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err, "Failed to fetch member stats")
	}
	return c.JSON(stats)
}

func (h *DashboardHandler) Recent(c *fiber.Ctx) error {
	rows, err := h.analytics.Recent(c.UserContext(), c.QueryInt("limit", h.recentLimit))
	if err != nil {
		return respondError(c, err, "Failed to fetch activity logs")
	}
	return c.JSON(rows)
}

func (h *DashboardHandler) Roles(c *fiber.Ctx) error {
	dist, err := h.analytics.Distribution(c.UserContext())
	if err != nil {
		return respondError(c, err, "Failed to fetch role distribution")
	}
	return c.JSON(dist)
}

func (h *DashboardHandler) ActivityCounts(c *fiber.Ctx) error {
	counts, err := h.analytics.ActivityCounts(c.UserContext())
	if err != nil {
		return respondError(c, err, "Failed to fetch recent activity counts")
	}
	return c.JSON(counts)
}

func (h *DashboardHandler) Overview(c *fiber.Ctx) error {
	overview, err := h.analytics.Overview(c.UserContext(), c.QueryInt("limit", h.recentLimit))
	if err != nil {
		return respondError(c, err, "Failed to fetch dashboard overview")
	}
	return c.JSON(overview)
}

// SetupDashboardRoutes registers the dashboard routes. Pass a gate to require authentication.
func (h *DashboardHandler) SetupDashboardRoutes(router fiber.Router, gate ...fiber.Handler) {
	dash := router.Group("/dashboard", gate...)
	dash.Get("/stats", h.Stats)
	dash.Get("/recent", h.Recent)
	dash.Get("/roles", h.Roles)
	dash.Get("/recent-activity-counts", h.ActivityCounts)
	dash.Get("/overview", h.Overview)
}
