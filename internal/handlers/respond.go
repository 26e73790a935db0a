package handlers

import (
	"errors"
	"strconv"
	"strings"

	mw "member-admin-api/internal/middleware"
	"member-admin-api/internal/models"
	"member-admin-api/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// errorMessages holds the client-facing text for each service sentinel.
var errorMessages = map[error]string{
	services.ErrUserNotFound:       "User not found",
	services.ErrRoleNotFound:       "Role not found",
	services.ErrMemberNotFound:     "Member not found",
	services.ErrDuplicateEmail:     "Email already in use",
	services.ErrUsernameExists:     "Username already exists",
	services.ErrInvalidCredentials: "Invalid credentials",
	services.ErrUnauthenticated:    "Authentication required",
}

func messageFor(err error) string {
	for sentinel, msg := range errorMessages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return err.Error()
}

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"message": message})
}

// respondError maps a service error onto a status code. Unknown errors are logged
// and answered with fallback so no internal detail reaches the client.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return errorJSON(c, fiber.StatusBadRequest, strings.TrimPrefix(err.Error(), services.ErrValidation.Error()+": "))
	case services.IsNotFound(err):
		return errorJSON(c, fiber.StatusNotFound, messageFor(err))
	case services.IsConflict(err), errors.Is(err, services.ErrInvalidCredentials):
		return errorJSON(c, fiber.StatusBadRequest, messageFor(err))
	case errors.Is(err, services.ErrUnauthenticated):
		return errorJSON(c, fiber.StatusUnauthorized, messageFor(err))
	default:
		mw.GetRequestFileLogger(c).Error(fallback,
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return errorJSON(c, fiber.StatusInternalServerError, fallback)
	}
}

// actingUser returns the authenticated user id set by the auth gate.
func actingUser(c *fiber.Ctx) (uint, bool) {
	id, ok := mw.CurrentUserID(c)
	if !ok {
		mw.GetRequestFileLogger(c).Error("User ID not found in locals after auth gate", zap.Any("value", c.Locals(mw.UserIDKey)))
	}
	return id, ok
}

func unauthenticated(c *fiber.Ctx) error {
	return errorJSON(c, fiber.StatusUnauthorized, "Authentication required")
}

// pageParams reads ?page= and ?limit=; bad or missing values fall back to defaults.
func pageParams(c *fiber.Ctx) (int, int) {
	return models.NormalizePage(c.QueryInt("page", 1), c.QueryInt("limit", models.DefaultPageSize))
}

func includeDeleted(c *fiber.Ctx) bool {
	return c.QueryBool("include_deleted", false)
}

// idParam parses the :id route parameter as a positive integer.
func idParam(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func pageJSON[T any](c *fiber.Ctx, key string, page *models.Page[T]) error {
	return c.JSON(fiber.Map{
		"currentPage":  page.CurrentPage,
		"totalPages":   page.TotalPages,
		"totalRecords": page.TotalRecords,
		key:            page.Items,
	})
}
