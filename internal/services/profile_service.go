package services

import (
	"context"
	"fmt"

	"member-admin-api/internal/models"
	"member-admin-api/internal/repositories"

	"go.uber.org/zap"
)

// ProfileService defines the interface for user profile operations
type ProfileService interface {
	GetProfile(ctx context.Context, userID uint) (*models.User, error)
}

type profileServiceImpl struct {
	userRepo   repositories.UserRepository
	fileLogger *zap.Logger
}

// NewProfileService creates a new ProfileService
func NewProfileService(userRepo repositories.UserRepository, fileLogger *zap.Logger) ProfileService {
	return &profileServiceImpl{
		userRepo:   userRepo,
		fileLogger: fileLogger,
	}
}

// GetProfile retrieves the profile for the given user ID
func (s *profileServiceImpl) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	s.fileLogger.Debug("Fetching profile for user", zap.Uint("userID", userID))

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("could not retrieve profile: %w", err)
	}
	if user == nil {
		s.fileLogger.Warn("Profile requested for non-existent user ID", zap.Uint("userID", userID))
		return nil, ErrUserNotFound
	}
	return user, nil
}
