package handlers

import (
	"errors"

	"member-admin-api/internal/metrics"
	mw "member-admin-api/internal/middleware"
	"member-admin-api/internal/pkg/validation"
	"member-admin-api/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHandler handles authentication related HTTP requests
type AuthHandler struct {
	authService services.AuthService
	metrics     *metrics.Registry
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService services.AuthService, m *metrics.Registry) *AuthHandler {
	return &AuthHandler{authService: authService, metrics: m}
}

// LoginRequest defines the expected body for login requests
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// RegisterRequest defines the expected body for registration requests
type RegisterRequest struct {
	Username string `json:"username" form:"username" validate:"required,min=3,max=50,alphanum"`
	Email    string `json:"email" form:"email" validate:"required,email,max=255"`
	Password string `json:"password" form:"password" validate:"required,min=6,max=72"`
	RoleID   *uint  `json:"role_id" form:"role_id" validate:"omitempty,gt=0"`
}

// Login handles POST /api/auth/login requests
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	fileLogger := mw.GetRequestFileLogger(c)
	sqliteLogger := mw.GetRequestSQLiteLogger(c)

	if !validation.ParseAndValidate(c, &req) {
		fileLogger.Warn("Login request validation failed or bad request body")
		return nil
	}

	token, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		switch {
		case services.IsNotFound(err):
			// An unknown email is a 400 on this endpoint, not a 404.
			h.metrics.AuthFailure("login_unknown_user")
			sqliteLogger.Warn("Login failed", zap.String("reason", "unknown_user"), zap.String("ip", c.IP()))
			return errorJSON(c, fiber.StatusBadRequest, messageFor(err))
		case errors.Is(err, services.ErrInvalidCredentials):
			h.metrics.AuthFailure("login_bad_password")
			sqliteLogger.Warn("Login failed", zap.String("reason", "bad_password"), zap.String("ip", c.IP()))
		}
		return respondError(c, err, "Login failed due to an internal error")
	}

	sqliteLogger.Info("Login successful", zap.String("ip", c.IP()))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"token": token})
}

// Register handles POST /api/auth/register requests
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	fileLogger := mw.GetRequestFileLogger(c)
	sqliteLogger := mw.GetRequestSQLiteLogger(c)

	if !validation.ParseAndValidate(c, &req) {
		fileLogger.Warn("Register request validation failed or bad request body")
		return nil
	}

	user, token, err := h.authService.Register(c.UserContext(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		RoleID:   req.RoleID,
	})
	if err != nil {
		if services.IsConflict(err) {
			sqliteLogger.Warn("Registration rejected", zap.String("username", req.Username), zap.Error(err))
		}
		return respondError(c, err, "Registration failed due to an internal error")
	}

	sqliteLogger.Info("User registered", zap.Uint("userID", user.ID), zap.String("username", user.Username))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":  user,
		"token": token,
	})
}

// SetupAuthRoutes registers authentication routes with the Fiber app
func (h *AuthHandler) SetupAuthRoutes(router fiber.Router) {
	authGroup := router.Group("/auth")
	authGroup.Post("/login", h.Login)
	authGroup.Post("/register", h.Register)
}
