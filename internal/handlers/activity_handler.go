package handlers

import (
	"member-admin-api/internal/models"
	"member-admin-api/internal/repositories"
	"member-admin-api/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ActivityHandler serves the audit history at /api/activity.
type ActivityHandler struct {
	activity services.ActivityService
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(activity services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

// List handles GET /api/activity?subject_type=&subject_id=&user_id=&page=&limit=
func (h *ActivityHandler) List(c *fiber.Ctx) error {
	filter := repositories.ActivityFilter{
		SubjectType: models.SubjectType(c.Query("subject_type")),
		SubjectID:   uint(max(c.QueryInt("subject_id", 0), 0)),
		UserID:      uint(max(c.QueryInt("user_id", 0), 0)),
	}
	switch filter.SubjectType {
	case "", models.SubjectMember, models.SubjectRole:
	default:
		return errorJSON(c, fiber.StatusBadRequest, "subject_type must be member or role")
	}

	page, limit := pageParams(c)
	result, err := h.activity.List(c.UserContext(), filter, page, limit)
	if err != nil {
		return respondError(c, err, "Failed to fetch activity logs")
	}
	return pageJSON(c, "activity", result)
}

// SetupActivityRoutes registers the activity route behind gate.
func (h *ActivityHandler) SetupActivityRoutes(router fiber.Router, gate ...fiber.Handler) {
	router.Get("/activity", append(gate, h.List)...)
}
