package services

import (
	"context"
	"time"

	"member-admin-api/internal/logging"
	"member-admin-api/internal/metrics"
	"member-admin-api/internal/models"
	"member-admin-api/internal/repositories"

	"go.uber.org/zap"
)

// auditTrail appends activity entries after a successful write.
// A failed append is logged and counted; it never fails the write that caused it.
type auditTrail struct {
	repo    repositories.ActivityRepository
	logger  *zap.Logger
	metrics *metrics.Registry
	now     func() time.Time
}

func newAuditTrail(repo repositories.ActivityRepository, logger *zap.Logger, m *metrics.Registry) *auditTrail {
	return &auditTrail{
		repo:    repo,
		logger:  logger,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (a *auditTrail) record(ctx context.Context, userID uint, subject models.SubjectType, subjectID uint, action models.Action) {
	entry := &models.ActivityLog{
		UserID:      userID,
		SubjectType: subject,
		SubjectID:   subjectID,
		Action:      action,
		Timestamp:   a.now(),
	}
	err := a.repo.Append(ctx, entry)
	a.metrics.AuditAppend(string(action), err)
	if err == nil {
		return
	}
	fields := []zap.Field{
		zap.String("action", string(action)),
		zap.String("subject_type", string(subject)),
		zap.Uint("subject_id", subjectID),
		zap.Uint("user_id", userID),
		zap.Error(err),
	}
	a.logger.Error("Failed to append audit entry", fields...)
	logging.GetSQLiteLogger().Error("Audit append failed", fields...)
}
