package middleware

import (
	"errors"
	"strings"

	"member-admin-api/internal/metrics"
	"member-admin-api/internal/repositories"
	"member-admin-api/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Protected returns the auth gate: it requires "Authorization: Bearer <token>", verifies the token,
// checks that the user still exists and stores the user id in Locals under UserIDKey.
// Missing credentials and expired tokens are 401; malformed or forged tokens are 400.
func Protected(tokens *utils.TokenManager, users repositories.UserRepository, m *metrics.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logger := GetRequestFileLogger(c)
		audit := GetRequestSQLiteLogger(c)

		reject := func(status int, reason, message string, fields ...zap.Field) error {
			m.AuthFailure(reason)
			fields = append(fields,
				zap.String("reason", reason),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			logger.Warn("Request rejected by auth gate", fields...)
			audit.Warn("Auth gate rejection", fields...)
			return c.Status(status).JSON(fiber.Map{"message": message})
		}

		authHeader := c.Get(AuthorizationHeader)
		if authHeader == "" {
			return reject(fiber.StatusUnauthorized, "missing_header", "Authentication required")
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			return reject(fiber.StatusUnauthorized, "bad_scheme", "Invalid authorization format (Bearer token required)")
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
		if tokenString == "" {
			return reject(fiber.StatusUnauthorized, "empty_token", "Authentication required")
		}

		userID, err := tokens.Verify(tokenString)
		switch {
		case errors.Is(err, utils.ErrExpiredToken):
			return reject(fiber.StatusUnauthorized, "expired", "Token expired")
		case err != nil:
			return reject(fiber.StatusBadRequest, "invalid", "Invalid token", zap.Error(err))
		}

		user, err := users.FindByID(c.UserContext(), userID)
		if err != nil {
			logger.Error("Auth gate failed to resolve user", zap.Uint("userID", userID), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
		}
		if user == nil {
			return reject(fiber.StatusUnauthorized, "unknown_user", "Invalid token", zap.Uint("userID", userID))
		}

		c.Locals(UserIDKey, userID)
		bindUser(c, userID)
		logger.Debug("JWT validated successfully", zap.Uint("userID", userID))
		return c.Next()
	}
}

// CurrentUserID returns the id stored by Protected.
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(UserIDKey).(uint)
	return id, ok && id != 0
}
