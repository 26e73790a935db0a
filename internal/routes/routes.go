package routes

import (
	"context"
	"database/sql"
	"time"

	"member-admin-api/internal/bootstrap"
	"member-admin-api/internal/config"
	"member-admin-api/internal/logging"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupRoutes configures the application routes.
func SetupRoutes(
	app *fiber.App,
	cfg *config.Config,
	logger *zap.Logger,
	components *bootstrap.AppComponents,
	store *gorm.DB,
	logDB *sql.DB, // may be nil when SQLite logging is disabled
) {
	logger.Info("Setting up application routes...")

	// --- Public Routes ---
	app.Get("/health", healthHandler(store, logDB, components))

	if cfg.MetricsEnabled && components.Metrics != nil {
		app.Get("/metrics", components.Metrics.Handler())
	}

	if cfg.UploadDir != "" {
		app.Static("/uploads", cfg.UploadDir, fiber.Static{
			ByteRange: true,
		})
		logger.Info("Serving static files", zap.String("path", "/uploads"), zap.String("directory", cfg.UploadDir))
	} else {
		logger.Warn("Upload directory not configured, skipping static file route setup.")
	}

	api := app.Group("/api")

	// Registration and login stay outside the auth gate.
	components.AuthHandler.SetupAuthRoutes(api)

	gate := components.AuthGate
	components.ProfileHandler.SetupProfileRoutes(api, gate)
	components.MemberHandler.SetupMemberRoutes(api, gate)
	components.RoleHandler.SetupRoleRoutes(api, gate)
	components.ActivityHandler.SetupActivityRoutes(api, gate)

	if cfg.DashboardRequireAuth {
		components.DashboardHandler.SetupDashboardRoutes(api, gate)
	} else {
		logger.Warn("Dashboard routes are public (DASHBOARD_REQUIRE_AUTH=false)")
		components.DashboardHandler.SetupDashboardRoutes(api)
	}
}

func healthHandler(store *gorm.DB, logDB *sql.DB, components *bootstrap.AppComponents) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lg := logging.GetFileLogger()
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		status := "healthy"
		deps := fiber.Map{}

		if err := pingStore(ctx, store); err == nil {
			deps["store"] = "connected"
		} else {
			deps["store"] = "disconnected"
			status = "degraded"
			lg.Warn("Health check: store ping failed", zap.Error(err))
		}

		if logDB == nil {
			deps["log_db"] = "disabled"
		} else if err := logDB.PingContext(ctx); err == nil {
			deps["log_db"] = "connected"
		} else {
			deps["log_db"] = "disconnected"
			lg.Warn("Health check: SQLite log DB ping failed", zap.Error(err))
		}

		if components.LogProcessor == nil {
			deps["log_archive"] = "disabled"
		} else {
			deps["log_archive"] = "enabled"
		}

		code := fiber.StatusOK
		if status != "healthy" {
			code = fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status":       status,
			"timestamp":    time.Now().UTC(),
			"dependencies": deps,
		})
	}
}

func pingStore(ctx context.Context, store *gorm.DB) error {
	sqlDB, err := store.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
