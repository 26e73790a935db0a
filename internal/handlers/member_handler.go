package handlers

import (
	mw "member-admin-api/internal/middleware"
	"member-admin-api/internal/pkg/validation"
	"member-admin-api/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MemberHandler serves /api/members. Create and update accept JSON or multipart bodies.
type MemberHandler struct {
	members services.MemberService
	images  *ImageStore
}

// NewMemberHandler creates a new MemberHandler
func NewMemberHandler(members services.MemberService, images *ImageStore) *MemberHandler {
	return &MemberHandler{members: members, images: images}
}

// CreateMemberRequest is the body of POST /api/members.
type CreateMemberRequest struct {
	Name        string `json:"name" form:"name" validate:"required,max=255"`
	Email       string `json:"email" form:"email" validate:"required,email,max=255"`
	DateOfBirth string `json:"date_of_birth" form:"date_of_birth" validate:"required,datetime=2006-01-02"`
	RoleID      uint   `json:"role_id" form:"role_id" validate:"required,gt=0"`
}

// UpdateMemberRequest is the body of PUT /api/members/:id. Empty fields keep their value.
type UpdateMemberRequest struct {
	Name        string `json:"name" form:"name" validate:"omitempty,max=255"`
	Email       string `json:"email" form:"email" validate:"omitempty,email,max=255"`
	DateOfBirth string `json:"date_of_birth" form:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	RoleID      uint   `json:"role_id" form:"role_id"`
}

// Create handles POST /api/members
func (h *MemberHandler) Create(c *fiber.Ctx) error {
	userID, ok := actingUser(c)
	if !ok {
		return unauthenticated(c)
	}
	var req CreateMemberRequest
	if !validation.ParseAndValidate(c, &req) {
		return nil
	}

	picture, err := h.images.SaveFromRequest(c)
	if err != nil {
		return respondError(c, err, "Error saving profile picture")
	}

	member, err := h.members.Create(c.UserContext(), services.MemberInput{
		Name:           req.Name,
		Email:          req.Email,
		DateOfBirth:    req.DateOfBirth,
		RoleID:         req.RoleID,
		ProfilePicture: picture,
	}, userID)
	if err != nil {
		h.discard(c, picture)
		return respondError(c, err, "Error creating member")
	}
	return c.Status(fiber.StatusCreated).JSON(member)
}

// List handles GET /api/members
func (h *MemberHandler) List(c *fiber.Ctx) error {
	page, limit := pageParams(c)
	result, err := h.members.List(c.UserContext(), page, limit, includeDeleted(c))
	if err != nil {
		return respondError(c, err, "Error fetching members")
	}
	return pageJSON(c, "members", result)
}

// Get handles GET /api/members/:id
func (h *MemberHandler) Get(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "Member not found")
	}
	member, err := h.members.Get(c.UserContext(), id, includeDeleted(c))
	if err != nil {
		return respondError(c, err, "Error fetching member")
	}
	return c.JSON(member)
}

// Update handles PUT /api/members/:id
func (h *MemberHandler) Update(c *fiber.Ctx) error {
	userID, ok := actingUser(c)
	if !ok {
		return unauthenticated(c)
	}
	id, ok := idParam(c)
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "Member not found")
	}
	var req UpdateMemberRequest
	if !validation.ParseAndValidate(c, &req) {
		return nil
	}

	picture, err := h.images.SaveFromRequest(c)
	if err != nil {
		return respondError(c, err, "Error saving profile picture")
	}

	member, err := h.members.Update(c.UserContext(), id, services.MemberInput{
		Name:           req.Name,
		Email:          req.Email,
		DateOfBirth:    req.DateOfBirth,
		RoleID:         req.RoleID,
		ProfilePicture: picture,
	}, userID)
	if err != nil {
		h.discard(c, picture)
		return respondError(c, err, "Error updating member")
	}
	return c.JSON(member)
}

// Delete handles DELETE /api/members/:id
func (h *MemberHandler) Delete(c *fiber.Ctx) error {
	userID, ok := actingUser(c)
	if !ok {
		return unauthenticated(c)
	}
	id, ok := idParam(c)
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "Member not found")
	}
	if err := h.members.Delete(c.UserContext(), id, userID); err != nil {
		return respondError(c, err, "Error deleting member")
	}
	return c.JSON(fiber.Map{"message": "Member deleted successfully"})
}

// discard removes a picture saved for a request whose write failed.
func (h *MemberHandler) discard(c *fiber.Ctx, picture string) {
	if err := h.images.Remove(picture); err != nil {
		mw.GetRequestFileLogger(c).Warn("Failed to remove orphaned upload", zap.String("path", picture), zap.Error(err))
	}
}

// SetupMemberRoutes registers member routes behind gate.
func (h *MemberHandler) SetupMemberRoutes(router fiber.Router, gate ...fiber.Handler) {
	members := router.Group("/members", gate...)
	members.Get("/", h.List)
	members.Post("/", h.Create)
	members.Get("/:id", h.Get)
	members.Put("/:id", h.Update)
	members.Delete("/:id", h.Delete)
}
