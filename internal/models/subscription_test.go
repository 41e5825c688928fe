package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestExtendKeepsRemainingTime(t *testing.T) {
	sub := NewSubscription(1, 2, SubscriptionPeriod, baseTime)
	original := sub.ExpiresAt

	sub.Extend(SubscriptionPeriod)

	assert.Equal(t, original.Add(SubscriptionPeriod), sub.ExpiresAt)
	assert.Equal(t, SubscriptionActive, sub.Status)
}

func TestApplyExternalPastDueKeepsPeriodEnd(t *testing.T) {
	end := baseTime.Add(SubscriptionPeriod)
	sub := &Subscription{Status: SubscriptionActive, ExpiresAt: end}

	sub.ApplyExternal(ExternalSubscription{
		Status:    SubscriptionPastDue,
		PeriodEnd: end,
		EventAt:   baseTime,
	}, baseTime)

	assert.Equal(t, SubscriptionPastDue, sub.Status)
	assert.Equal(t, end, sub.ExpiresAt)
	require.NotNil(t, sub.LastEventAt)
}

func TestApplyExternalUnpaidNeverExtends(t *testing.T) {
	sub := &Subscription{}
	sub.ApplyExternal(ExternalSubscription{
		Status:    SubscriptionIncomplete,
		Unpaid:    true,
		PeriodEnd: baseTime.Add(SubscriptionPeriod),
		EventAt:   baseTime,
	}, baseTime)

	assert.Equal(t, baseTime, sub.ExpiresAt)
	assert.False(t, sub.IsActiveAt(baseTime))
}

func TestAdoptExternalKeepsLaterExpiry(t *testing.T) {
	local := baseTime.Add(50 * 24 * time.Hour)
	sub := &Subscription{Status: SubscriptionActive, ExpiresAt: local}

	sub.AdoptExternal(ExternalSubscription{
		ExternalID: "sub_123",
		CustomerID: "cus_9",
		Status:     SubscriptionActive,
		PeriodEnd:  baseTime.Add(SubscriptionPeriod),
		EventAt:    baseTime,
	}, baseTime)

	assert.Equal(t, local, sub.ExpiresAt)
	require.NotNil(t, sub.StripeSubscriptionID)
	assert.Equal(t, "sub_123", *sub.StripeSubscriptionID)
	assert.Equal(t, "cus_9", *sub.StripeCustomerID)
}

func TestIsStale(t *testing.T) {
	last := baseTime
	sub := &Subscription{LastEventAt: &last}

	assert.True(t, sub.IsStale(ExternalSubscription{EventAt: baseTime.Add(-time.Second)}))
	assert.False(t, sub.IsStale(ExternalSubscription{EventAt: baseTime}))
	assert.False(t, (&Subscription{}).IsStale(ExternalSubscription{EventAt: baseTime}))
}

func TestNewExternalSubscription(t *testing.T) {
	sub := NewExternalSubscription(ExternalSubscription{
		ExternalID:   "sub_new",
		SubscriberID: 3,
		CreatorID:    4,
		Status:       SubscriptionActive,
		PeriodEnd:    baseTime.Add(SubscriptionPeriod),
		EventAt:      baseTime,
	}, baseTime)

	assert.Equal(t, baseTime.Add(SubscriptionPeriod), sub.ExpiresAt)
	assert.EqualValues(t, 3, sub.SubscriberID)
	assert.EqualValues(t, 4, sub.CreatorID)
	assert.Equal(t, "sub_new", *sub.StripeSubscriptionID)
}

func TestCloseAndAbsorbPaidTime(t *testing.T) {
	old := &Subscription{Status: SubscriptionActive, ExpiresAt: baseTime.Add(10 * 24 * time.Hour)}
	replacement := &Subscription{Status: SubscriptionActive, ExpiresAt: baseTime.Add(5 * 24 * time.Hour)}

	replacement.AbsorbPaidTime(old.ExpiresAt)
	old.Close(baseTime)

	assert.Equal(t, baseTime.Add(10*24*time.Hour), replacement.ExpiresAt)
	assert.Equal(t, SubscriptionCanceled, old.Status)
	assert.Equal(t, baseTime, old.ExpiresAt)
	assert.False(t, old.IsActiveAt(baseTime))
}
