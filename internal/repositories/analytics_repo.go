package repositories

import (
	"context"
	"fmt"
	"time"

	"member-admin-api/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AnalyticsRepository runs read-only aggregate queries over members and roles.
type AnalyticsRepository interface {
	CountMembers(ctx context.Context) (int64, error)
	RoleDistribution(ctx context.Context) ([]models.RoleCount, error)
	CountMembersCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
	CountMembersUpdatedBetween(ctx context.Context, from, to time.Time) (int64, error)
	CountMembersDeletedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

type gormAnalyticsRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewAnalyticsRepository creates a new AnalyticsRepository backed by gorm
func NewAnalyticsRepository(db *gorm.DB, logger *zap.Logger) AnalyticsRepository {
	return &gormAnalyticsRepository{db: db, logger: logger}
}

func (r *gormAnalyticsRepository) members(ctx context.Context, includeDeleted bool) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Member{}).Scopes(notDeleted("members", includeDeleted))
}

func (r *gormAnalyticsRepository) CountMembers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.members(ctx, false).Count(&n).Error; err != nil {
		r.logger.Error("Error counting members", zap.Error(err))
		return 0, fmt.Errorf("error counting members: %w", err)
	}
	return n, nil
}

// RoleDistribution counts live members per role. The role name is joined
// regardless of the role's own deleted state.
func (r *gormAnalyticsRepository) RoleDistribution(ctx context.Context) ([]models.RoleCount, error) {
	rows := make([]models.RoleCount, 0)
	err := r.members(ctx, false).
		Select("members.role_id AS role_id, COALESCE(roles.name, '') AS role, COUNT(members.id) AS count").
		Joins("LEFT JOIN roles ON roles.id = members.role_id").
		Group("members.role_id, roles.name").
		Order("members.role_id ASC").
		Scan(&rows).Error
	if err != nil {
		r.logger.Error("Error computing role distribution", zap.Error(err))
		return nil, fmt.Errorf("error computing role distribution: %w", err)
	}
	return rows, nil
}

// The three window counters use inclusive bounds: from <= column <= to.

func (r *gormAnalyticsRepository) CountMembersCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return r.countBetween(ctx, "created_at", from, to, false)
}

func (r *gormAnalyticsRepository) CountMembersUpdatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return r.countBetween(ctx, "updated_at", from, to, false)
}

func (r *gormAnalyticsRepository) CountMembersDeletedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return r.countBetween(ctx, "deleted_at", from, to, true)
}

func (r *gormAnalyticsRepository) countBetween(ctx context.Context, column string, from, to time.Time, includeDeleted bool) (int64, error) {
	var n int64
	err := r.members(ctx, includeDeleted).
		Where("members."+column+" BETWEEN ? AND ?", from, to).
		Count(&n).Error
	if err != nil {
		r.logger.Error("Error counting members in window", zap.String("column", column), zap.Error(err))
		return 0, fmt.Errorf("error counting members by %s: %w", column, err)
	}
	return n, nil
}
