package handlers

import (
	"member-admin-api/internal/pkg/validation"
	"member-admin-api/internal/services"

	"github.com/gofiber/fiber/v2"
)

// RoleHandler serves /api/roles.
type RoleHandler struct {
	roles services.RoleService
}

// NewRoleHandler creates a new RoleHandler
func NewRoleHandler(roles services.RoleService) *RoleHandler {
	return &RoleHandler{roles: roles}
}

// RoleRequest is the body of role create and update. On update, empty fields keep their value.
type RoleRequest struct {
	Name        string `json:"name" form:"name" validate:"max=100"`
	Description string `json:"description" form:"description" validate:"max=1000"`
}

func (h *RoleHandler) Create(c *fiber.Ctx) error {
	userID, ok := actingUser(c)
	if !ok {
		return unauthenticated(c)
	}
	var req RoleRequest
	if !validation.ParseAndValidate(c, &req) {
		return nil
	}
	role, err := h.roles.Create(c.UserContext(), services.RoleInput{Name: req.Name, Description: req.Description}, userID)
	if err != nil {
		return respondError(c, err, "Error creating role")
	}
	return c.Status(fiber.StatusCreated).JSON(role)
}

func (h *RoleHandler) List(c *fiber.Ctx) error {
	page, limit := pageParams(c)
	result, err := h.roles.List(c.UserContext(), page, limit, includeDeleted(c))
	if err != nil {
		return respondError(c, err, "Error fetching roles")
	}
	return pageJSON(c, "roles", result)
}

func (h *RoleHandler) Get(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "Role not found")
	}
	role, err := h.roles.Get(c.UserContext(), id, includeDeleted(c))
	if err != nil {
		return respondError(c, err, "Error fetching role")
	}
	return c.JSON(role)
}

func (h *RoleHandler) Update(c *fiber.Ctx) error {
	userID, ok := actingUser(c)
	if !ok {
		return unauthenticated(c)
	}
	id, ok := idParam(c)
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "Role not found")
	}
	var req RoleRequest
	if !validation.ParseAndValidate(c, &req) {
		return nil
	}
	role, err := h.roles.Update(c.UserContext(), id, services.RoleInput{Name: req.Name, Description: req.Description}, userID)
	if err != nil {
		return respondError(c, err, "Error updating role")
	}
	return c.JSON(role)
}

func (h *RoleHandler) Delete(c *fiber.Ctx) error {
	userID, ok := actingUser(c)
	if !ok {
		return unauthenticated(c)
	}
	id, ok := idParam(c)
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "Role not found")
	}
	if err := h.roles.Delete(c.UserContext(), id, userID); err != nil {
		return respondError(c, err, "Error deleting role")
	}
	return c.JSON(fiber.Map{"message": "Role deleted successfully"})
}

// SetupRoleRoutes registers role routes behind gate.
func (h *RoleHandler) SetupRoleRoutes(router fiber.Router, gate ...fiber.Handler) {
	roles := router.Group("/roles", gate...)
	roles.Get("/", h.List)
	roles.Post("/", h.Create)
	roles.Get("/:id", h.Get)
	roles.Put("/:id", h.Update)
	roles.Delete("/:id", h.Delete)
}
