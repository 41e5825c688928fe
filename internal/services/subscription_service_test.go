package services

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/nano-press/backend/internal/apperrors"
	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeValidatesInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedUsers(t, "ann", "bob")

	_, _, err := env.subs.Subscribe(ctx, ids[0], ids[0], 1)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))

	_, _, err = env.subs.Subscribe(ctx, ids[0], ids[1], 37)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))

	_, _, err = env.subs.Subscribe(ctx, ids[0], ids[1], -1)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))

	_, _, err = env.subs.Subscribe(ctx, ids[0], 999, 1)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestSubscribeRenewalExtendsFromExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedUsers(t, "ann", "bob")

	sub, created, err := env.subs.Subscribe(ctx, ids[0], ids[1], 0)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, t0.Add(models.SubscriptionPeriod), sub.ExpiresAt)

	env.clock.Advance(10 * 24 * time.Hour)
	renewed, created, err := env.subs.Subscribe(ctx, ids[0], ids[1], 2)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, sub.ID, renewed.ID)
	assert.Equal(t, t0.Add(3*models.SubscriptionPeriod), renewed.ExpiresAt)

	_, total, err := env.store.GetByRecipientID(ctx, ids[1], models.NewPagination(1, 20, 20))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total, "only a new subscription notifies the creator")
}

func TestSubscribeAfterExpiryStartsNewPeriod(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedUsers(t, "ann", "bob")

	first, _, err := env.subs.Subscribe(ctx, ids[0], ids[1], 1)
	require.NoError(t, err)

	env.clock.Advance(models.SubscriptionPeriod + time.Hour)
	second, created, err := env.subs.Subscribe(ctx, ids[0], ids[1], 1)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, env.clock.Now().Add(models.SubscriptionPeriod), second.ExpiresAt)
}

func TestSubscriptionListings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedUsers(t, "ann", "bob", "cid")

	_, _, err := env.subs.Subscribe(ctx, ids[0], ids[1], 1)
	require.NoError(t, err)
	_, _, err = env.subs.Subscribe(ctx, ids[0], ids[2], 3)
	require.NoError(t, err)
	_, _, err = env.subs.Subscribe(ctx, ids[2], ids[1], 1)
	require.NoError(t, err)

	mine, err := env.subs.MySubscriptions(ctx, ids[0], models.NewPagination(1, 0, models.DefaultPageSize))
	require.NoError(t, err)
	assert.EqualValues(t, 2, mine.Total)

	subscribers, err := env.subs.MySubscribers(ctx, ids[1], models.NewPagination(1, 0, models.DefaultPageSize))
	require.NoError(t, err)
	assert.EqualValues(t, 2, subscribers.Total)

	env.clock.Advance(models.SubscriptionPeriod + time.Minute)
	mine, err = env.subs.MySubscriptions(ctx, ids[0], models.NewPagination(1, 0, models.DefaultPageSize))
	require.NoError(t, err)
	require.EqualValues(t, 1, mine.Total)
	assert.Equal(t, ids[2], mine.Items[0].User.ID)
}

func TestGetAndCancelAreRestrictedToSubscriber(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedUsers(t, "ann", "bob", "eve")

	sub, _, err := env.subs.Subscribe(ctx, ids[0], ids[1], 1)
	require.NoError(t, err)

	_, err = env.subs.Get(ctx, ids[2], sub.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))
	_, err = env.subs.Get(ctx, ids[1], sub.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))
	got, err := env.subs.Get(ctx, ids[0], sub.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, got.ID)

	_, err = env.subs.Cancel(ctx, ids[1], sub.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))
	_, err = env.subs.Get(ctx, ids[0], 999)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestCancelKeepsAccessUntilExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedUsers(t, "ann", "bob")
	post := &models.Post{AuthorID: ids[1], Premium: true}

	sub, _, err := env.subs.Subscribe(ctx, ids[0], ids[1], 1)
	require.NoError(t, err)

	canceled, err := env.subs.Cancel(ctx, ids[0], sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionCanceled, canceled.Status)

	ok, err := env.gate.HasAccess(ctx, Viewer{UserID: ids[0]}, post)
	require.NoError(t, err)
	assert.True(t, ok)

	env.clock.Advance(models.SubscriptionPeriod)
	ok, err = env.gate.HasAccess(ctx, Viewer{UserID: ids[0]}, post)
	require.NoError(t, err)
	assert.False(t, ok)

	again, err := env.subs.Cancel(ctx, ids[0], sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionCanceled, again.Status)
}

func TestCancelProcessorBilledSubscription(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedUsers(t, "ann", "bob")

	outcome, err := env.reconciler.Reconcile(ctx, subscriptionEvent(t, "customer.subscription.created", "sub_9", "active", ids[0], ids[1], t0))
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, outcome)

	_, _, err = env.subs.Subscribe(ctx, ids[0], ids[1], 1)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))

	page, err := env.subs.MySubscriptions(ctx, ids[0], models.NewPagination(1, 0, models.DefaultPageSize))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	_, err = env.subs.Cancel(ctx, ids[0], page.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"sub_9"}, env.gateway.canceled)

	env.gateway.err = errProcessorDown
	stored, err := env.store.GetSubscriptionByID(ctx, page.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, stored.Status, "the ledger follows the processor webhook")
	_, err = env.subs.Cancel(ctx, ids[0], stored.ID)
	assert.True(t, apperrors.IsRetryable(err))
}
