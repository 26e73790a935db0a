package app

import (
	"database/sql"
	"errors"
	"strings"

	"member-admin-api/internal/bootstrap"
	"member-admin-api/internal/config"
	"member-admin-api/internal/middleware"
	"member-admin-api/internal/routes"

	"github.com/gofiber/contrib/fiberzap/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewFiberApp builds the HTTP application: error handler, middleware chain and routes.
func NewFiberApp(
	cfg *config.Config,
	fileLogger, sqliteLogger *zap.Logger,
	components *bootstrap.AppComponents,
	store *gorm.DB,
	logDB *sql.DB,
) *fiber.App {
	fileLogger.Info("Initializing Fiber application...")
	appFiber := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		Prefork:      cfg.Prefork,
		BodyLimit:    int(cfg.UploadMaxBytes) + 1<<20, // room for the other multipart fields
		ErrorHandler: errorHandler(cfg),
	})

	appFiber.Use(recover.New(recover.Config{
		EnableStackTrace: strings.ToLower(cfg.LogLevel) == "debug",
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			middleware.GetRequestFileLogger(c).Error("Panic recovered", zap.Any("panic_value", e))
		},
	}))
	fileLogger.Info("Configuring CORS", zap.String("origins", cfg.CORSAllowOrigins), zap.String("methods", cfg.CORSAllowMethods), zap.String("headers", cfg.CORSAllowHeaders))
	appFiber.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowMethods: cfg.CORSAllowMethods,
		AllowHeaders: cfg.CORSAllowHeaders,
	}))
	appFiber.Use(middleware.RequestLoggers(fileLogger, sqliteLogger))
	if strings.ToLower(cfg.LogLevel) == "debug" {
		appFiber.Use(middleware.RequestDebugLogger())
	}
	appFiber.Use(fiberzap.New(fiberzap.Config{
		Logger: fileLogger,
		Fields: []string{"status", "method", "url", "ip", "latency", "error"},
		FieldsFunc: func(c *fiber.Ctx) []zap.Field {
			fields := []zap.Field{zap.String("log_type", "access")}
			if reqID := middleware.GetRequestID(c); reqID != "" {
				fields = append(fields, zap.String("request_id", reqID))
			}
			return fields
		},
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health" || c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/uploads")
		},
	}))
	if components.Metrics != nil {
		appFiber.Use(components.Metrics.Middleware())
	}

	routes.SetupRoutes(appFiber, cfg, fileLogger, components, store, logDB)
	return appFiber
}

// errorHandler answers errors that escaped a handler, including unmatched routes.
func errorHandler(cfg *config.Config) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		lg := middleware.GetRequestFileLogger(c)
		code := fiber.StatusInternalServerError
		message := "Internal server error"
		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			message = e.Message
		}
		fields := []zap.Field{
			zap.Int("status", code),
			zap.String("path", c.Path()),
			zap.String("method", c.Method()),
			zap.String("ip", c.IP()),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		}
		if code < fiber.StatusInternalServerError {
			lg.Warn("Request failed", fields...)
		} else {
			lg.Error("Unhandled error", fields...)
		}
		resp := fiber.Map{"message": message}
		if cfg.AppEnv != "production" && code >= fiber.StatusInternalServerError {
			resp["detail"] = err.Error()
		}
		return c.Status(code).JSON(resp)
	}
}
