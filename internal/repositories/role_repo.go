package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"member-admin-api/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RoleRepository defines the interface for role data operations
type RoleRepository interface {
	Create(ctx context.Context, role *models.Role) error
	FindByID(ctx context.Context, id uint, includeDeleted bool) (*models.Role, error)
	List(ctx context.Context, offset, limit int, includeDeleted bool) ([]models.Role, int64, error)
	Save(ctx context.Context, role *models.Role) error
	SoftDelete(ctx context.Context, id uint, at time.Time) error
}

type gormRoleRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewRoleRepository creates a new RoleRepository backed by gorm
func NewRoleRepository(db *gorm.DB, logger *zap.Logger) RoleRepository {
	return &gormRoleRepository{db: db, logger: logger}
}

func (r *gormRoleRepository) Create(ctx context.Context, role *models.Role) error {
	if err := r.db.WithContext(ctx).Create(role).Error; err != nil {
		r.logger.Error("Error creating role", zap.String("name", role.Name), zap.Error(err))
		return fmt.Errorf("error creating role: %w", translateWriteError(err))
	}
	return nil
}

// FindByID returns nil, nil when the role does not exist (or is deleted and includeDeleted is false).
func (r *gormRoleRepository) FindByID(ctx context.Context, id uint, includeDeleted bool) (*models.Role, error) {
	var role models.Role
	err := r.db.WithContext(ctx).
		Scopes(notDeleted("roles", includeDeleted)).
		Where("roles.id = ?", id).
		Take(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Error querying role by ID", zap.Uint("id", id), zap.Error(err))
		return nil, fmt.Errorf("error finding role %d: %w", id, err)
	}
	return &role, nil
}

// List returns one page of roles in insertion order plus the total matching count.
func (r *gormRoleRepository) List(ctx context.Context, offset, limit int, includeDeleted bool) ([]models.Role, int64, error) {
	var (
		roles []models.Role
		total int64
	)
	query := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.Role{}).Scopes(notDeleted("roles", includeDeleted))
	}
	if err := query().Count(&total).Error; err != nil {
		r.logger.Error("Error counting roles", zap.Error(err))
		return nil, 0, fmt.Errorf("error counting roles: %w", err)
	}
	if err := query().Order("roles.id ASC").Offset(offset).Limit(limit).Find(&roles).Error; err != nil {
		r.logger.Error("Error listing roles", zap.Error(err))
		return nil, 0, fmt.Errorf("error listing roles: %w", err)
	}
	return roles, total, nil
}

// Save writes every column of role (last write wins).
func (r *gormRoleRepository) Save(ctx context.Context, role *models.Role) error {
	if err := r.db.WithContext(ctx).Save(role).Error; err != nil {
		r.logger.Error("Error saving role", zap.Uint("id", role.ID), zap.Error(err))
		return fmt.Errorf("error saving role %d: %w", role.ID, translateWriteError(err))
	}
	return nil
}

// SoftDelete stamps deleted_at on a live role. It reports ErrNotFound when nothing was updated.
func (r *gormRoleRepository) SoftDelete(ctx context.Context, id uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Role{}).
		Where("id = ? AND deleted_at IS NULL", id).
		UpdateColumn("deleted_at", at)
	if res.Error != nil {
		r.logger.Error("Error soft-deleting role", zap.Uint("id", id), zap.Error(res.Error))
		return fmt.Errorf("error deleting role %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
