package services

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/anonto42/nano-press/backend/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedUsers(t, "author", "reader")
	free := &models.Post{AuthorID: ids[0]}
	premium := &models.Post{AuthorID: ids[0], Premium: true}

	tests := []struct {
		name   string
		viewer Viewer
		post   *models.Post
		want   bool
	}{
		{"free post anonymous", Viewer{}, free, true},
		{"premium anonymous", Viewer{}, premium, false},
		{"premium author", Viewer{UserID: ids[0], Role: models.RoleAuthor}, premium, true},
		{"premium admin", Viewer{UserID: 42, Role: models.RoleAdmin}, premium, true},
		{"premium editor", Viewer{UserID: 43, Role: models.RoleEditor}, premium, true},
		{"premium without subscription", Viewer{UserID: ids[1], Role: models.RoleAuthor}, premium, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.gate.HasAccess(ctx, tt.viewer, tt.post)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAccessFollowsSubscriptionLifetime(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedUsers(t, "author", "reader")
	post := &models.Post{AuthorID: ids[0], Premium: true}
	viewer := Viewer{UserID: ids[1]}

	ok, err := env.gate.HasAccess(ctx, viewer, post)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "0", mustGet(t, env, "access:2:1"))

	_, _, err = env.subs.Subscribe(ctx, ids[1], ids[0], 1)
	require.NoError(t, err)
	assert.False(t, env.redis.Exists("access:2:1"), "subscribing drops the cached denial")

	ok, err = env.gate.HasAccess(ctx, viewer, post)
	require.NoError(t, err)
	assert.True(t, ok)

	env.clock.Advance(models.SubscriptionPeriod)
	ok, err = env.gate.HasAccess(ctx, viewer, post)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.AccessChecks.WithLabelValues("granted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.AccessChecks.WithLabelValues("denied")))
}

func TestAccessCacheTTLNeverOutlivesSubscription(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedUsers(t, "author", "reader")

	_, _, err := env.subs.Subscribe(ctx, ids[1], ids[0], 1)
	require.NoError(t, err)
	env.clock.Advance(models.SubscriptionPeriod - time.Minute)

	ok, err := env.gate.HasAccess(ctx, Viewer{UserID: ids[1]}, &models.Post{AuthorID: ids[0], Premium: true})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Minute, env.redis.TTL("access:2:1"))
}

func TestAccessFallsBackToLedgerWithoutCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedUsers(t, "author", "reader")
	_, _, err := env.subs.Subscribe(ctx, ids[1], ids[0], 1)
	require.NoError(t, err)

	gate := NewAccessGate(env.store, nil, time.Minute, nil, logger.Discard())
	gate.now = env.clock.Now
	ok, err := gate.HasAccess(ctx, Viewer{UserID: ids[1]}, &models.Post{AuthorID: ids[0], Premium: true})
	require.NoError(t, err)
	assert.True(t, ok)

	env.redis.SetError("LOADING Redis is loading the dataset in memory")
	ok, err = env.gate.HasAccess(ctx, Viewer{UserID: ids[1]}, &models.Post{AuthorID: ids[0], Premium: true})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedactHidesLockedBodies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedUsers(t, "author", "reader")
	posts := []models.Post{
		{AuthorID: ids[0], Title: "free", Content: "open body"},
		{AuthorID: ids[0], Title: "paid", Content: "secret body", Premium: true},
	}

	require.NoError(t, env.gate.Redact(ctx, Viewer{UserID: ids[1]}, posts))
	assert.Equal(t, "open body", posts[0].Content)
	assert.False(t, posts[0].Locked)
	assert.Empty(t, posts[1].Content)
	assert.True(t, posts[1].Locked)
	assert.Equal(t, "paid", posts[1].Title)
}

func mustGet(t *testing.T, env *testEnv, key string) string {
	t.Helper()
	val, err := env.redis.Get(key)
	require.NoError(t, err)
	return val
}
