package memory

import (
	"context"
	"sort"
	"time"

	"github.com/anonto42/nano-press/backend/internal/models"
)

func (s *Store) RecordPageView(_ context.Context, view *models.PageView) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	view.ID = s.nextID()
	if view.CreatedAt.IsZero() {
		view.CreatedAt = s.now().UTC()
	}
	s.pageViews = append(s.pageViews, *view)
	return nil
}

func (s *Store) RecordEngagement(_ context.Context, e *models.UserEngagement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = s.nextID()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	s.engagements = append(s.engagements, *e)
	return nil
}

func (s *Store) DailyPageViews(_ context.Context, days int) ([]models.DailyPageViews, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[time.Time]int64)
	for _, v := range s.pageViews {
		counts[v.CreatedAt.UTC().Truncate(24*time.Hour)]++
	}
	out := make([]models.DailyPageViews, 0, len(counts))
	for day, n := range counts {
		out = append(out, models.DailyPageViews{Date: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	if len(out) > days {
		out = out[len(out)-days:]
	}
	return out, nil
}

func (s *Store) EngagementByType(_ context.Context) ([]models.EngagementCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.EngagementType]int64)
	for _, e := range s.engagements {
		counts[e.Type]++
	}
	out := make([]models.EngagementCount, 0, len(counts))
	for typ, n := range counts {
		out = append(out, models.EngagementCount{Type: typ, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func (s *Store) Totals(_ context.Context) (models.DashboardStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := models.DashboardStats{
		TotalComments:  int64(len(s.comments)),
		TotalPageViews: int64(len(s.pageViews)),
	}
	for id := range s.users {
		if _, ok := s.liveUser(id); ok {
			stats.TotalUsers++
		}
	}
	return stats, nil
}
