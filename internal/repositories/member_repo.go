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

// MemberRepository defines the interface for member data operations
type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) error
	FindByID(ctx context.Context, id uint, includeDeleted bool) (*models.Member, error)
	FindByEmail(ctx context.Context, email string) (*models.Member, error)
	List(ctx context.Context, offset, limit int, includeDeleted bool) ([]models.Member, int64, error)
	Save(ctx context.Context, member *models.Member) error
	SoftDelete(ctx context.Context, id uint, at time.Time) error
}

type gormMemberRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewMemberRepository creates a new MemberRepository backed by gorm
func NewMemberRepository(db *gorm.DB, logger *zap.Logger) MemberRepository {
	return &gormMemberRepository{db: db, logger: logger}
}

// withRelations loads the role (deleted or not) and the creator's public fields.
func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Role").
		Preload("Creator", func(tx *gorm.DB) *gorm.DB {
			return tx.Select("id", "username", "email", "role_id", "created_at", "updated_at")
		})
}

func (r *gormMemberRepository) Create(ctx context.Context, member *models.Member) error {
	if err := r.db.WithContext(ctx).Omit("Role", "Creator").Create(member).Error; err != nil {
		err = translateWriteError(err)
		if !errors.Is(err, ErrUniqueViolation) {
			r.logger.Error("Error creating member", zap.String("email", member.Email), zap.Error(err))
		}
		return fmt.Errorf("error creating member: %w", err)
	}
	return nil
}

// FindByID returns nil, nil when the member does not exist (or is deleted and includeDeleted is false).
func (r *gormMemberRepository) FindByID(ctx context.Context, id uint, includeDeleted bool) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).
		Scopes(notDeleted("members", includeDeleted), withRelations).
		Where("members.id = ?", id).
		Take(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Error querying member by ID", zap.Uint("id", id), zap.Error(err))
		return nil, fmt.Errorf("error finding member %d: %w", id, err)
	}
	return &member, nil
}

// FindByEmail looks across deleted rows too, since the email column stays unique after soft-delete.
func (r *gormMemberRepository) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).Where("email = ?", email).Take(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Error querying member by email", zap.Error(err))
		return nil, fmt.Errorf("error finding member by email: %w", err)
	}
	return &member, nil
}

// List returns one page of members in insertion order plus the total matching count.
func (r *gormMemberRepository) List(ctx context.Context, offset, limit int, includeDeleted bool) ([]models.Member, int64, error) {
	var (
		members []models.Member
		total   int64
	)
	query := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.Member{}).Scopes(notDeleted("members", includeDeleted))
	}
	if err := query().Count(&total).Error; err != nil {
		r.logger.Error("Error counting members", zap.Error(err))
		return nil, 0, fmt.Errorf("error counting members: %w", err)
	}
	if err := query().Scopes(withRelations).Order("members.id ASC").Offset(offset).Limit(limit).Find(&members).Error; err != nil {
		r.logger.Error("Error listing members", zap.Error(err))
		return nil, 0, fmt.Errorf("error listing members: %w", err)
	}
	return members, total, nil
}

// Save writes every column of member (last write wins).
func (r *gormMemberRepository) Save(ctx context.Context, member *models.Member) error {
	if err := r.db.WithContext(ctx).Omit("Role", "Creator").Save(member).Error; err != nil {
		err = translateWriteError(err)
		if !errors.Is(err, ErrUniqueViolation) {
			r.logger.Error("Error saving member", zap.Uint("id", member.ID), zap.Error(err))
		}
		return fmt.Errorf("error saving member %d: %w", member.ID, err)
	}
	return nil
}

// SoftDelete stamps deleted_at on a live member. It reports ErrNotFound when nothing was updated.
func (r *gormMemberRepository) SoftDelete(ctx context.Context, id uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Member{}).
		Where("id = ? AND deleted_at IS NULL", id).
		UpdateColumn("deleted_at", at)
	if res.Error != nil {
		r.logger.Error("Error soft-deleting member", zap.Uint("id", id), zap.Error(res.Error))
		return fmt.Errorf("error deleting member %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
