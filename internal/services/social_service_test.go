package services

import (
	"context"
	"testing"

	"github.com/anonto42/nano-press/backend/internal/apperrors"
	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRejectsSelfAndUnknownUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedUsers(t, "ann")

	_, err := env.social.Follow(ctx, ids[0], ids[0])
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))

	_, err = env.social.Follow(ctx, ids[0], 999)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestFollowTwiceConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedUsers(t, "ann", "bob")

	followed, err := env.social.Follow(ctx, ids[0], ids[1])
	require.NoError(t, err)
	assert.Equal(t, "bob", followed.Username)

	_, err = env.social.Follow(ctx, ids[0], ids[1])
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.LedgerConflicts.WithLabelValues("follow")))

	notifications, total, err := env.store.GetByRecipientID(ctx, ids[1], models.NewPagination(1, 20, 20))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, models.NotificationFollow, notifications[0].Type)
	assert.Equal(t, ids[0], notifications[0].ActorID)
}

func TestFollowersArePaged(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedUsers(t, "ann", "bob", "cid", "dee")
	for _, follower := range ids[1:] {
		_, err := env.social.Follow(ctx, follower, ids[0])
		require.NoError(t, err)
	}

	page, err := env.social.Followers(ctx, ids[0], models.NewPagination(1, 2, models.DefaultPageSize))
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 2, page.Pages)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Len(t, page.Items, 2)

	page, err = env.social.Followers(ctx, ids[0], models.NewPagination(2, 2, models.DefaultPageSize))
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	following, err := env.social.Following(ctx, ids[1], models.NewPagination(1, 0, models.DefaultPageSize))
	require.NoError(t, err)
	require.Len(t, following.Items, 1)
	assert.Equal(t, ids[0], following.Items[0].ID)

	_, err = env.social.Followers(ctx, 999, models.NewPagination(1, 0, models.DefaultPageSize))
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestUnfollow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedUsers(t, "ann", "bob")

	err := env.social.Unfollow(ctx, ids[0], ids[1])
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	_, err = env.social.Follow(ctx, ids[0], ids[1])
	require.NoError(t, err)
	require.NoError(t, env.social.Unfollow(ctx, ids[0], ids[1]))

	following, err := env.social.IsFollowing(ctx, ids[0], ids[1])
	require.NoError(t, err)
	assert.False(t, following)
}

func TestProfileCounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedUsers(t, "ann", "bob", "cid")
	_, err := env.social.Follow(ctx, ids[1], ids[0])
	require.NoError(t, err)
	_, err = env.social.Follow(ctx, ids[2], ids[0])
	require.NoError(t, err)
	_, err = env.social.Follow(ctx, ids[0], ids[2])
	require.NoError(t, err)

	profile, err := env.social.Profile(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "ann", profile.Username)
	assert.EqualValues(t, 2, profile.FollowersCount)
	assert.EqualValues(t, 1, profile.FollowingCount)
}
