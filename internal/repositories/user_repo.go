package repositories

import (
	"context"
	"errors"
	"fmt"

	"member-admin-api/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
}

type gormUserRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewUserRepository creates a new UserRepository backed by gorm
func NewUserRepository(db *gorm.DB, logger *zap.Logger) UserRepository {
	return &gormUserRepository{db: db, logger: logger}
}

// FindByEmail returns nil, nil when no user has the email.
func (r *gormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

// FindByUsername returns nil, nil when no user has the username.
func (r *gormUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

// FindByID returns nil, nil when the user does not exist.
func (r *gormUserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *gormUserRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, arg).Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Return nil, nil to indicate not found cleanly
		}
		r.logger.Error("Error querying user", zap.String("where", query), zap.Error(err))
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	return &user, nil
}

// CreateUser inserts user and sets its ID.
func (r *gormUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		err = translateWriteError(err)
		if !errors.Is(err, ErrUniqueViolation) {
			r.logger.Error("Error creating user", zap.String("username", user.Username), zap.Error(err))
		}
		return fmt.Errorf("error creating user %s: %w", user.Username, err)
	}
	r.logger.Debug("User created", zap.String("username", user.Username), zap.Uint("id", user.ID))
	return nil
}
