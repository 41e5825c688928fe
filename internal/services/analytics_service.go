package services

import (
	"context"
	"time"

	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/anonto42/nano-press/backend/internal/repositories"
	"github.com/sirupsen/logrus"
)

// AnalyticsService records page views and reader interactions and builds
// the dashboard reports.
type AnalyticsService struct {
	analytics repositories.AnalyticsRepository
	posts     repositories.PostRepository
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewAnalyticsService(analytics repositories.AnalyticsRepository, posts repositories.PostRepository, log logrus.FieldLogger) *AnalyticsService {
	return &AnalyticsService{
		analytics: analytics,
		posts:     posts,
		log:       log.WithField("component", "analytics"),
		now:       time.Now,
	}
}

// RecordPageView stores view. A view naming a post must name an existing one.
func (s *AnalyticsService) RecordPageView(ctx context.Context, view *models.PageView) error {
	if view.PostID != nil {
		if _, err := s.posts.GetPostByID(ctx, *view.PostID); err != nil {
			return err
		}
	}
	view.CreatedAt = s.now().UTC()
	return s.analytics.RecordPageView(ctx, view)
}

func (s *AnalyticsService) RecordEngagement(ctx context.Context, e *models.UserEngagement) error {
	if _, err := s.posts.GetPostByID(ctx, e.PostID); err != nil {
		return err
	}
	e.CreatedAt = s.now().UTC()
	return s.analytics.RecordEngagement(ctx, e)
}

// PageViews returns daily view counts for the most recent days with traffic.
func (s *AnalyticsService) PageViews(ctx context.Context) ([]models.DailyPageViews, error) {
	return s.analytics.DailyPageViews(ctx, models.PageViewDays)
}

func (s *AnalyticsService) Engagement(ctx context.Context) (models.EngagementSummary, error) {
	counts, err := s.analytics.EngagementByType(ctx)
	if err != nil {
		return models.EngagementSummary{}, err
	}
	totals, err := s.analytics.Totals(ctx)
	if err != nil {
		return models.EngagementSummary{}, err
	}

	summary := models.EngagementSummary{Engagement: counts}
	if totals.TotalUsers > 0 {
		var total int64
		for _, c := range counts {
			total += c.Count
		}
		summary.EngagementRate = float64(total) / float64(totals.TotalUsers) * 100
	}
	return summary, nil
}

func (s *AnalyticsService) Stats(ctx context.Context) (models.DashboardStats, error) {
	stats, err := s.analytics.Totals(ctx)
	if err != nil {
		return stats, err
	}
	_, posts, err := s.posts.ListPosts(ctx, models.PostFilter{}, models.NewPagination(1, 1, 1))
	if err != nil {
		return stats, err
	}
	stats.TotalPosts = posts
	return stats, nil
}
