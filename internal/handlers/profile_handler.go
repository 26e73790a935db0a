package handlers

import (
	"member-admin-api/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProfileHandler handles profile related HTTP requests
type ProfileHandler struct {
	profileService services.ProfileService
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profileService services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// GetProfile handles GET /api/profile requests
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := actingUser(c)
	if !ok {
		return unauthenticated(c)
	}
	profile, err := h.profileService.GetProfile(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "Failed to retrieve profile")
	}
	// PasswordHash is excluded by the json:"-" tag on the model.
	return c.Status(fiber.StatusOK).JSON(profile)
}

// SetupProfileRoutes registers profile routes behind gate.
func (h *ProfileHandler) SetupProfileRoutes(router fiber.Router, gate ...fiber.Handler) {
	router.Get("/profile", append(gate, h.GetProfile)...)
}
