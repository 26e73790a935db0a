package services

import (
	"context"
	"time"

	"member-admin-api/internal/models"
	"member-admin-api/internal/repositories"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ActivityWindow is the trailing window used by ActivityCounts.
const ActivityWindow = 24 * time.Hour

// AnalyticsService computes the dashboard aggregates. Queries run without a shared snapshot.
type AnalyticsService interface {
	Stats(ctx context.Context) (*models.MemberStats, error)
	Recent(ctx context.Context, limit int) ([]models.RecentActivity, error)
	Distribution(ctx context.Context) ([]models.RoleCount, error)
	ActivityCounts(ctx context.Context) (*models.ActivityCounts, error)
	Overview(ctx context.Context, recentLimit int) (*models.DashboardOverview, error)
}

type analyticsServiceImpl struct {
	analytics repositories.AnalyticsRepository
	activity  repositories.ActivityRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(analytics repositories.AnalyticsRepository, activity repositories.ActivityRepository, logger *zap.Logger) AnalyticsService {
	return &analyticsServiceImpl{
		analytics: analytics,
		activity:  activity,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *analyticsServiceImpl) Stats(ctx context.Context) (*models.MemberStats, error) {
	var stats models.MemberStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.analytics.CountMembers(gctx)
		stats.TotalMembers = n
		return err
	})
	g.Go(func() error {
		roles, err := s.analytics.RoleDistribution(gctx)
		stats.Roles = roles
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *analyticsServiceImpl) Recent(ctx context.Context, limit int) ([]models.RecentActivity, error) {
	if limit < 1 {
		limit = models.DefaultPageSize
	}
	if limit > models.MaxPageSize {
		limit = models.MaxPageSize
	}
	rows, err := s.activity.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.RecentActivity, len(rows))
	for i, row := range rows {
		out[i] = models.RecentActivity{Timestamp: row.Timestamp, Action: row.Action, PerformedBy: row.PerformedBy}
	}
	return out, nil
}

func (s *analyticsServiceImpl) Distribution(ctx context.Context) ([]models.RoleCount, error) {
	return s.analytics.RoleDistribution(ctx)
}

// ActivityCounts counts member creations, updates and deletions in [now-24h, now].
func (s *analyticsServiceImpl) ActivityCounts(ctx context.Context) (*models.ActivityCounts, error) {
	to := s.now()
	from := to.Add(-ActivityWindow)

	var counts models.ActivityCounts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		counts.Added, err = s.analytics.CountMembersCreatedBetween(gctx, from, to)
		return err
	})
	g.Go(func() (err error) {
		counts.Updated, err = s.analytics.CountMembersUpdatedBetween(gctx, from, to)
		return err
	})
	g.Go(func() (err error) {
		counts.Deleted, err = s.analytics.CountMembersDeletedBetween(gctx, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &counts, nil
}

// Overview runs the four dashboard aggregates concurrently.
func (s *analyticsServiceImpl) Overview(ctx context.Context, recentLimit int) (*models.DashboardOverview, error) {
	var out models.DashboardOverview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.Stats(gctx)
		if err == nil {
			out.Stats = *stats
		}
		return err
	})
	g.Go(func() (err error) {
		out.Recent, err = s.Recent(gctx, recentLimit)
		return err
	})
	g.Go(func() (err error) {
		out.Distribution, err = s.Distribution(gctx)
		return err
	})
	g.Go(func() error {
		counts, err := s.ActivityCounts(gctx)
		if err == nil {
			out.ActivityCounts = *counts
		}
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to compute dashboard overview", zap.Error(err))
		return nil, err
	}
	return &out, nil
}
