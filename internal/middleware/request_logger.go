package middleware

import (
	"member-admin-api/internal/logging"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestLoggers tags every request with an id and stores request-scoped copies of both
// loggers in Locals. An incoming X-Request-ID is reused only when it parses as a UUID.
func RequestLoggers(fileLogger, sqliteLogger *zap.Logger) fiber.Handler {
	if fileLogger == nil {
		fileLogger = zap.NewNop()
	}
	if sqliteLogger == nil {
		sqliteLogger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDHeader, requestID)
		c.Locals(requestIDKey, requestID)

		tag := zap.String("request_id", requestID)
		c.Locals(fileLoggerKey, fileLogger.With(tag))
		c.Locals(sqliteLoggerKey, sqliteLogger.With(tag))
		return c.Next()
	}
}

// bindUser adds user_id to the request-scoped loggers once the auth gate has resolved the caller,
// so every later line of the request names who made it.
func bindUser(c *fiber.Ctx, userID uint) {
	field := zap.Uint("user_id", userID)
	c.Locals(fileLoggerKey, GetRequestFileLogger(c).With(field))
	c.Locals(sqliteLoggerKey, GetRequestSQLiteLogger(c).With(field))
}

// GetRequestFileLogger returns the request-scoped file logger, or the global one outside RequestLoggers.
func GetRequestFileLogger(c *fiber.Ctx) *zap.Logger {
	if logger, ok := c.Locals(fileLoggerKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return logging.GetFileLogger()
}

// GetRequestSQLiteLogger returns the request-scoped SQLite logger, or the global one (possibly a no-op).
func GetRequestSQLiteLogger(c *fiber.Ctx) *zap.Logger {
	if logger, ok := c.Locals(sqliteLoggerKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return logging.GetSQLiteLogger()
}

// GetRequestID returns the id assigned by RequestLoggers, or "".
func GetRequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}
