package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"member-admin-api/internal/models"
	"member-admin-api/internal/repositories"
	"member-admin-api/internal/utils"

	"go.uber.org/zap"
)

// AuthService defines the interface for authentication related operations
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (string, error) // Returns JWT token
}

// RegisterInput carries the registration fields. RoleID is optional.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	RoleID   *uint
}

type authServiceImpl struct {
	userRepo   repositories.UserRepository
	roleRepo   repositories.RoleRepository
	tokens     *utils.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repositories.UserRepository, roleRepo repositories.RoleRepository, tokens *utils.TokenManager, bcryptCost int, logger *zap.Logger) AuthService {
	return &authServiceImpl{
		userRepo:   userRepo,
		roleRepo:   roleRepo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register creates a user with a bcrypt-hashed password and returns it with a fresh token.
// The unique index on email decides races between concurrent registrations.
func (s *authServiceImpl) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, "", fmt.Errorf("%w: username, email and password are required", ErrValidation)
	}
	s.logger.Info("Attempting to register user", zap.String("username", in.Username))

	existing, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		s.logger.Warn("Registration attempt failed: email already registered", zap.String("username", in.Username))
		return nil, "", ErrDuplicateEmail
	}
	existing, err = s.userRepo.FindByUsername(ctx, in.Username)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		s.logger.Warn("Registration attempt failed: username already exists", zap.String("username", in.Username))
		return nil, "", ErrUsernameExists
	}

	if in.RoleID != nil {
		role, err := s.roleRepo.FindByID(ctx, *in.RoleID, false)
		if err != nil {
			return nil, "", fmt.Errorf("failed to check role: %w", err)
		}
		if role == nil {
			return nil, "", ErrRoleNotFound
		}
	}

	hashedPassword, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		s.logger.Error("Failed to hash password during registration", zap.String("username", in.Username), zap.Error(err))
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hashedPassword,
		RoleID:       in.RoleID,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUniqueViolation) {
			// Lost a race with a concurrent registration; the checks above are advisory only.
			return nil, "", ErrDuplicateEmail
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.Error("Failed to issue token after registration", zap.Uint("userID", user.ID), zap.Error(err))
		return nil, "", err
	}
	s.logger.Info("User registered successfully", zap.String("username", user.Username), zap.Uint("userID", user.ID))
	return user, token, nil
}

// Login verifies the email/password pair and issues a token.
func (s *authServiceImpl) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		s.logger.Warn("Login attempt failed: user not found")
		return "", ErrUserNotFound
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		s.logger.Warn("Login attempt failed: invalid password", zap.Uint("userID", user.ID))
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.Error("Failed to generate JWT token during login", zap.Uint("userID", user.ID), zap.Error(err))
		return "", err
	}

	s.logger.Info("User logged in successfully", zap.String("username", user.Username), zap.Uint("userID", user.ID))
	return token, nil
}
