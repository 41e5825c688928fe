package repositories

import (
	"context"

	"github.com/anonto42/nano-press/backend/internal/models"
	"gorm.io/gorm"
)

// AnalyticsRepository stores page views and engagement events and reports
// on them.
type AnalyticsRepository interface {
	RecordPageView(ctx context.Context, view *models.PageView) error
	RecordEngagement(ctx context.Context, e *models.UserEngagement) error
	// DailyPageViews returns the most recent days buckets, oldest first.
	DailyPageViews(ctx context.Context, days int) ([]models.DailyPageViews, error)
	EngagementByType(ctx context.Context) ([]models.EngagementCount, error)
	// Totals counts users, comments and page views. Posts live in the
	// document store and are left zero.
	Totals(ctx context.Context) (models.DashboardStats, error)
}

// PostgresAnalyticsRepository implements AnalyticsRepository for PostgreSQL
type PostgresAnalyticsRepository struct {
	db *gorm.DB
}

// NewPostgresAnalyticsRepository creates a new PostgresAnalyticsRepository
func NewPostgresAnalyticsRepository(db *gorm.DB) *PostgresAnalyticsRepository {
	return &PostgresAnalyticsRepository{db: db}
}

func (r *PostgresAnalyticsRepository) RecordPageView(ctx context.Context, view *models.PageView) error {
	return translate(r.db.WithContext(ctx).Create(view).Error, "page view")
}

func (r *PostgresAnalyticsRepository) RecordEngagement(ctx context.Context, e *models.UserEngagement) error {
	return translate(r.db.WithContext(ctx).Create(e).Error, "engagement")
}

func (r *PostgresAnalyticsRepository) DailyPageViews(ctx context.Context, days int) ([]models.DailyPageViews, error) {
	var rows []models.DailyPageViews
	err := r.db.WithContext(ctx).Model(&models.PageView{}).
		Select("DATE(created_at) AS date, COUNT(*) AS count").
		Group("DATE(created_at)").
		Order("date DESC").
		Limit(days).
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err, "page view")
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	if rows == nil {
		rows = []models.DailyPageViews{}
	}
	return rows, nil
}

func (r *PostgresAnalyticsRepository) EngagementByType(ctx context.Context) ([]models.EngagementCount, error) {
	rows := []models.EngagementCount{}
	err := r.db.WithContext(ctx).Model(&models.UserEngagement{}).
		Select("type, COUNT(*) AS count").
		Group("type").
		Order("type").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err, "engagement")
	}
	return rows, nil
}

func (r *PostgresAnalyticsRepository) Totals(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return stats, translate(err, "user")
	}
	if err := db.Model(&models.Comment{}).Count(&stats.TotalComments).Error; err != nil {
		return stats, translate(err, "comment")
	}
	if err := db.Model(&models.PageView{}).Count(&stats.TotalPageViews).Error; err != nil {
		return stats, translate(err, "page view")
	}
	return stats, nil
}
