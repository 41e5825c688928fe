package payments

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

func eventJSON(eventType, object string) []byte {
	return []byte(fmt.Sprintf(`{"id":"evt_1","object":"event","type":%q,"created":1767225600,"data":{"object":%s}}`, eventType, object))
}

func TestVerifierAcceptsSignedPayload(t *testing.T) {
	payload := eventJSON(EventPaymentSucceeded, `{"id":"pi_1","object":"payment_intent","amount":500,"amount_received":500,"currency":"usd","metadata":{"userId":"3"}}`)
	header := SignPayload(payload, testSecret, time.Now())

	event, err := NewWebhookVerifier(testSecret).ConstructEvent(payload, header)
	require.NoError(t, err)
	assert.Equal(t, EventPaymentSucceeded, string(event.Type))

	pi, err := DecodePaymentIntent(event)
	require.NoError(t, err)
	assert.Equal(t, "pi_1", pi.ID)
	assert.EqualValues(t, 500, pi.AmountReceived)
	assert.Equal(t, "usd", pi.Currency)
	assert.Equal(t, "3", pi.Metadata["userId"])
}

func TestVerifierRejectsBadSignature(t *testing.T) {
	payload := eventJSON(EventPaymentSucceeded, `{"id":"pi_1"}`)

	_, err := NewWebhookVerifier(testSecret).ConstructEvent(payload, SignPayload(payload, "whsec_other", time.Now()))
	assert.Error(t, err)

	_, err = NewWebhookVerifier(testSecret).ConstructEvent(payload, "")
	assert.Error(t, err)
}

func TestVerifierRejectsExpiredSignature(t *testing.T) {
	payload := eventJSON(EventPaymentSucceeded, `{"id":"pi_1"}`)
	header := SignPayload(payload, testSecret, time.Now().Add(-2*WebhookTolerance))

	_, err := NewWebhookVerifier(testSecret).ConstructEvent(payload, header)
	assert.Error(t, err)
}

func TestDecodeSubscriptionTopLevelPeriod(t *testing.T) {
	payload := eventJSON(EventSubscriptionUpdated, `{
		"id":"sub_1","object":"subscription","customer":"cus_1","status":"past_due",
		"current_period_start":1767225600,"current_period_end":1769817600,
		"metadata":{"userId":"1","creatorId":"2","planId":"monthly"}}`)
	event, err := NewWebhookVerifier(testSecret).ConstructEvent(payload, SignPayload(payload, testSecret, time.Now()))
	require.NoError(t, err)

	sub, err := DecodeSubscription(event)
	require.NoError(t, err)
	assert.Equal(t, "sub_1", sub.ID)
	assert.Equal(t, "cus_1", sub.CustomerID)
	assert.Equal(t, "past_due", sub.Status)
	assert.Equal(t, time.Unix(1767225600, 0).UTC(), sub.PeriodStart)
	assert.Equal(t, time.Unix(1769817600, 0).UTC(), sub.PeriodEnd)
	assert.Equal(t, "2", sub.Metadata["creatorId"])
	assert.Equal(t, time.Unix(1767225600, 0).UTC(), EventTime(event))
}

func TestDecodeSubscriptionItemPeriodAndExpandedCustomer(t *testing.T) {
	payload := eventJSON(EventSubscriptionCreated, `{
		"id":"sub_2","object":"subscription","customer":{"id":"cus_9","object":"customer"},"status":"active",
		"items":{"object":"list","data":[{"id":"si_1","current_period_start":100,"current_period_end":200,"price":{"id":"price_1"}}]}}`)
	event, err := NewWebhookVerifier(testSecret).ConstructEvent(payload, SignPayload(payload, testSecret, time.Now()))
	require.NoError(t, err)

	sub, err := DecodeSubscription(event)
	require.NoError(t, err)
	assert.Equal(t, "cus_9", sub.CustomerID)
	assert.Equal(t, "price_1", sub.PriceID)
	assert.Equal(t, time.Unix(100, 0).UTC(), sub.PeriodStart)
	assert.Equal(t, time.Unix(200, 0).UTC(), sub.PeriodEnd)
}

func TestEventTypeClassification(t *testing.T) {
	assert.True(t, IsSubscriptionEvent("subscription.updated"))
	assert.True(t, IsSubscriptionEvent(EventSubscriptionDeleted))
	assert.False(t, IsSubscriptionEvent(EventPaymentSucceeded))
	assert.True(t, IsPaymentIntentEvent(EventPaymentFailed))
	assert.False(t, IsPaymentIntentEvent("invoice.paid"))
}
