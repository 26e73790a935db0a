package repositories

import (
	"context"
	"fmt"

	"member-admin-api/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ActivityFilter narrows an activity listing. Zero values match everything.
type ActivityFilter struct {
	SubjectType models.SubjectType
	SubjectID   uint
	UserID      uint
}

// ActivityRepository is the append-only audit store.
type ActivityRepository interface {
	Append(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, filter ActivityFilter, offset, limit int) ([]models.ActivityView, int64, error)
	Recent(ctx context.Context, limit int) ([]models.ActivityView, error)
}

type gormActivityRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewActivityRepository creates a new ActivityRepository backed by gorm
func NewActivityRepository(db *gorm.DB, logger *zap.Logger) ActivityRepository {
	return &gormActivityRepository{db: db, logger: logger}
}

// Append inserts entry. There is deliberately no update or delete counterpart.
func (r *gormActivityRepository) Append(ctx context.Context, entry *models.ActivityLog) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(entry).Error; err != nil {
		return fmt.Errorf("error appending activity %q: %w", entry.Action, err)
	}
	return nil
}

const activityViewColumns = "activity_logs.id, activity_logs.timestamp, activity_logs.action, " +
	"activity_logs.subject_type, activity_logs.subject_id, activity_logs.user_id, " +
	"COALESCE(users.username, '') AS performed_by"

func (r *gormActivityRepository) view(ctx context.Context, filter ActivityFilter) *gorm.DB {
	q := r.db.WithContext(ctx).
		Table("activity_logs").
		Joins("LEFT JOIN users ON users.id = activity_logs.user_id")
	if filter.SubjectType != "" {
		q = q.Where("activity_logs.subject_type = ?", filter.SubjectType)
	}
	if filter.SubjectID != 0 {
		q = q.Where("activity_logs.subject_id = ?", filter.SubjectID)
	}
	if filter.UserID != 0 {
		q = q.Where("activity_logs.user_id = ?", filter.UserID)
	}
	return q
}

// List returns entries newest first, joined with the acting username.
func (r *gormActivityRepository) List(ctx context.Context, filter ActivityFilter, offset, limit int) ([]models.ActivityView, int64, error) {
	var total int64
	if err := r.view(ctx, filter).Count(&total).Error; err != nil {
		r.logger.Error("Error counting activity", zap.Error(err))
		return nil, 0, fmt.Errorf("error counting activity: %w", err)
	}
	rows := make([]models.ActivityView, 0)
	err := r.view(ctx, filter).
		Select(activityViewColumns).
		Order("activity_logs.timestamp DESC, activity_logs.id DESC").
		Offset(offset).Limit(limit).
		Scan(&rows).Error
	if err != nil {
		r.logger.Error("Error listing activity", zap.Error(err))
		return nil, 0, fmt.Errorf("error listing activity: %w", err)
	}
	return rows, total, nil
}

// Recent returns the latest limit entries, newest first.
func (r *gormActivityRepository) Recent(ctx context.Context, limit int) ([]models.ActivityView, error) {
	rows := make([]models.ActivityView, 0, limit)
	err := r.view(ctx, ActivityFilter{}).
		Select(activityViewColumns).
		Order("activity_logs.timestamp DESC, activity_logs.id DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		r.logger.Error("Error fetching recent activity", zap.Error(err))
		return nil, fmt.Errorf("error fetching recent activity: %w", err)
	}
	return rows, nil
}
