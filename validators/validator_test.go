package validators

import (
	"testing"

	"github.com/anonto42/nano-press/backend/internal/apperrors"
	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestValidateSubscriptionRequest(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Validate(&models.CreateSubscriptionRequest{CreatorID: 2, Months: 3}))
	assert.NoError(t, v.Validate(&models.CreateSubscriptionRequest{CreatorID: 2}))

	err := v.Validate(&models.CreateSubscriptionRequest{CreatorID: 2, Months: 37})
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOperation))
	assert.Contains(t, err.Error(), "Months must be at most 36")

	err = v.Validate(&models.CreateSubscriptionRequest{})
	assert.Contains(t, err.Error(), "CreatorID is required")
}

func TestValidateTipBounds(t *testing.T) {
	v := NewValidator()
	assert.Error(t, v.Validate(&models.TipRequest{CreatorID: 1, Amount: 99}))
	assert.Error(t, v.Validate(&models.TipRequest{CreatorID: 1, Amount: 100001}))
	assert.NoError(t, v.Validate(&models.TipRequest{CreatorID: 1, Amount: 100}))
}
