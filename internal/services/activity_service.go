package services

import (
	"context"

	"member-admin-api/internal/models"
	"member-admin-api/internal/repositories"
)

// ActivityService reads the audit history. Entries for deleted subjects stay visible.
type ActivityService interface {
	List(ctx context.Context, filter repositories.ActivityFilter, page, limit int) (*models.Page[models.ActivityView], error)
}

type activityServiceImpl struct {
	activity repositories.ActivityRepository
}

// NewActivityService creates a new ActivityService
func NewActivityService(activity repositories.ActivityRepository) ActivityService {
	return &activityServiceImpl{activity: activity}
}

func (s *activityServiceImpl) List(ctx context.Context, filter repositories.ActivityFilter, page, limit int) (*models.Page[models.ActivityView], error) {
	page, limit = models.NormalizePage(page, limit)
	items, total, err := s.activity.List(ctx, filter, models.Offset(page, limit), limit)
	if err != nil {
		return nil, err
	}
	return &models.Page[models.ActivityView]{
		Items:        items,
		TotalRecords: total,
		CurrentPage:  page,
		TotalPages:   models.TotalPages(total, limit),
	}, nil
}
