package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/anonto42/nano-press/backend/internal/apperrors"
	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/anonto42/nano-press/backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutCreatesCustomerOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedUsers(t, "ann", "bob", "cid")

	result, err := env.billing.Checkout(ctx, ids[0], ids[1])
	require.NoError(t, err)
	assert.Equal(t, "sub_1", result.ID)
	_, err = env.billing.Checkout(ctx, ids[0], ids[2])
	require.NoError(t, err)

	assert.Equal(t, 1, env.gateway.customers)
	require.Len(t, env.gateway.subscriptions, 2)
	assert.Equal(t, map[string]string{
		MetadataUserID:    fmt.Sprint(ids[0]),
		MetadataCreatorID: fmt.Sprint(ids[1]),
	}, env.gateway.subscriptions[0])

	user, err := env.store.GetUserByID(ctx, ids[0])
	require.NoError(t, err)
	require.NotNil(t, user.StripeCustomerID)
	assert.Equal(t, fmt.Sprintf("cus_%d", ids[0]), *user.StripeCustomerID)
}

func TestCheckoutValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedUsers(t, "ann")

	_, err := env.billing.Checkout(ctx, ids[0], ids[0])
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))
	_, err = env.billing.Checkout(ctx, ids[0], 999)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestTipCarriesMetadata(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedUsers(t, "ann", "bob")

	result, err := env.billing.Tip(ctx, ids[0], ids[1], 500)
	require.NoError(t, err)
	assert.Equal(t, "secret", result.ClientSecret)

	require.Len(t, env.gateway.intents, 1)
	intent := env.gateway.intents[0]
	assert.EqualValues(t, 500, intent.Amount)
	assert.Equal(t, "usd", intent.Currency)
	assert.Equal(t, fmt.Sprintf("cus_%d", ids[0]), intent.CustomerID)
	assert.Equal(t, "tip", intent.Metadata[MetadataType])
	assert.Equal(t, fmt.Sprint(ids[1]), intent.Metadata[MetadataCreatorID])

	_, err = env.billing.Tip(ctx, ids[0], ids[0], 500)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))
}

func TestProcessorFailuresAreUpstream(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ids := env.seedUsers(t, "ann", "bob")

	env.gateway.err = errProcessorDown
	_, err := env.billing.Tip(ctx, ids[0], ids[1], 500)
	assert.True(t, apperrors.IsRetryable(err))
	assert.ErrorIs(t, err, errProcessorDown)

	unconfigured := NewBillingService(env.store, env.store, nil, "usd", logger.Discard())
	_, err = unconfigured.Checkout(ctx, ids[0], ids[1])
	assert.True(t, apperrors.Is(err, apperrors.KindUpstreamFailure))
	_, err = unconfigured.Tip(ctx, ids[0], ids[1], 500)
	assert.True(t, apperrors.Is(err, apperrors.KindUpstreamFailure))

	page, err := unconfigured.Transactions(ctx, ids[0], models.NewPagination(1, 0, models.DefaultPageSize))
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.NotNil(t, page.Items)
}
