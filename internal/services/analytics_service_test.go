package services

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/nano-press/backend/internal/apperrors"
	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/anonto42/nano-press/backend/internal/repositories/memory"
	"github.com/anonto42/nano-press/backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnalytics(t *testing.T) (*AnalyticsService, *memory.Store, *clock) {
	t.Helper()
	store := memory.New()
	clk := &clock{now: t0}
	svc := NewAnalyticsService(store, store, logger.Discard())
	svc.now = clk.Now
	return svc, store, clk
}

func TestPageViewsAreBucketedByDay(t *testing.T) {
	svc, _, clk := newAnalytics(t)
	ctx := context.Background()

	for day := 0; day < models.PageViewDays+2; day++ {
		for i := 0; i <= day%3; i++ {
			require.NoError(t, svc.RecordPageView(ctx, &models.PageView{URL: "/", SessionID: "s"}))
		}
		clk.Advance(24 * time.Hour)
	}

	days, err := svc.PageViews(ctx)
	require.NoError(t, err)
	require.Len(t, days, models.PageViewDays)
	assert.Equal(t, t0.Truncate(24*time.Hour).Add(2*24*time.Hour), days[0].Date, "oldest days are dropped")
	assert.EqualValues(t, 3, days[0].Count)
	assert.True(t, days[0].Date.Before(days[len(days)-1].Date))
}

func TestRecordRequiresExistingPost(t *testing.T) {
	svc, _, _ := newAnalytics(t)
	ctx := context.Background()
	missing := "65f0c0ffee0000000000beef"

	err := svc.RecordPageView(ctx, &models.PageView{URL: "/p", SessionID: "s", PostID: &missing})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	err = svc.RecordEngagement(ctx, &models.UserEngagement{PostID: missing, Type: models.EngagementLike})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestEngagementRateAndStats(t *testing.T) {
	svc, store, _ := newAnalytics(t)
	ctx := context.Background()

	summary, err := svc.Engagement(ctx)
	require.NoError(t, err)
	assert.Empty(t, summary.Engagement)
	assert.Zero(t, summary.EngagementRate)

	for _, name := range []string{"ann", "bob"} {
		require.NoError(t, store.CreateUser(ctx, &models.User{Username: name, Email: name + "@example.com"}))
	}
	post := &models.Post{AuthorID: 1, Title: "t", Content: "c", Published: true}
	require.NoError(t, store.CreatePost(ctx, post))
	postID := post.ID.Hex()

	for _, typ := range []models.EngagementType{models.EngagementLike, models.EngagementLike, models.EngagementShare} {
		require.NoError(t, svc.RecordEngagement(ctx, &models.UserEngagement{PostID: postID, Type: typ}))
	}
	require.NoError(t, svc.RecordPageView(ctx, &models.PageView{URL: "/p", SessionID: "s", PostID: &postID}))

	summary, err = svc.Engagement(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.EngagementCount{
		{Type: models.EngagementLike, Count: 2},
		{Type: models.EngagementShare, Count: 1},
	}, summary.Engagement)
	assert.InDelta(t, 150.0, summary.EngagementRate, 0.001)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DashboardStats{TotalUsers: 2, TotalPosts: 1, TotalComments: 0, TotalPageViews: 1}, stats)
}
