package payments

import (
	"encoding/json"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
)

// Event types the reconciler acts on.
const (
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventPaymentSucceeded    = "payment_intent.succeeded"
	EventPaymentFailed       = "payment_intent.payment_failed"
	eventSubscriptionCreated = "subscription.created"
	eventSubscriptionUpdated = "subscription.updated"
)

// IsSubscriptionEvent reports whether the event carries a subscription object.
// The bare "subscription.*" names are accepted as aliases.
func IsSubscriptionEvent(eventType string) bool {
	switch eventType {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted,
		eventSubscriptionCreated, eventSubscriptionUpdated:
		return true
	}
	return false
}

// IsPaymentIntentEvent reports whether the event carries a payment intent.
func IsPaymentIntentEvent(eventType string) bool {
	return eventType == EventPaymentSucceeded || eventType == EventPaymentFailed
}

// SubscriptionObject is the part of a Stripe subscription the ledger needs.
// Period bounds moved from the subscription to its items in recent API
// versions; both layouts are read.
type SubscriptionObject struct {
	ID          string
	CustomerID  string
	Status      string
	PriceID     string
	Metadata    map[string]string
	PeriodStart time.Time
	PeriodEnd   time.Time
}

type rawSubscription struct {
	ID                 string            `json:"id"`
	Customer           expandableID      `json:"customer"`
	Status             string            `json:"status"`
	Metadata           map[string]string `json:"metadata"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	Items              struct {
		Data []struct {
			CurrentPeriodStart int64 `json:"current_period_start"`
			CurrentPeriodEnd   int64 `json:"current_period_end"`
			Price              struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// expandableID decodes either an id string or an expanded object with an id.
type expandableID string

func (e *expandableID) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*e = expandableID(id)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*e = expandableID(obj.ID)
	return nil
}

// DecodeSubscription reads the subscription object of a subscription event.
func DecodeSubscription(event stripe.Event) (*SubscriptionObject, error) {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, fmt.Errorf("payments: event %s has no data object", event.ID)
	}
	var raw rawSubscription
	if err := json.Unmarshal(event.Data.Raw, &raw); err != nil {
		return nil, fmt.Errorf("payments: parse subscription: %w", err)
	}
	if raw.ID == "" {
		return nil, fmt.Errorf("payments: subscription object without id")
	}

	start, end := raw.CurrentPeriodStart, raw.CurrentPeriodEnd
	obj := &SubscriptionObject{
		ID:         raw.ID,
		CustomerID: string(raw.Customer),
		Status:     raw.Status,
		Metadata:   raw.Metadata,
	}
	if len(raw.Items.Data) > 0 {
		item := raw.Items.Data[0]
		obj.PriceID = item.Price.ID
		if start == 0 {
			start = item.CurrentPeriodStart
		}
		if end == 0 {
			end = item.CurrentPeriodEnd
		}
	}
	obj.PeriodStart = unixOrZero(start)
	obj.PeriodEnd = unixOrZero(end)
	return obj, nil
}

// PaymentIntentObject is the part of a Stripe payment intent the ledger needs.
type PaymentIntentObject struct {
	ID             string
	Amount         int64
	AmountReceived int64
	Currency       string
	Metadata       map[string]string
}

// DecodePaymentIntent reads the payment intent of a payment_intent event.
func DecodePaymentIntent(event stripe.Event) (*PaymentIntentObject, error) {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, fmt.Errorf("payments: event %s has no data object", event.ID)
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("payments: parse payment intent: %w", err)
	}
	if pi.ID == "" {
		return nil, fmt.Errorf("payments: payment intent without id")
	}
	return &PaymentIntentObject{
		ID:             pi.ID,
		Amount:         pi.Amount,
		AmountReceived: pi.AmountReceived,
		Currency:       string(pi.Currency),
		Metadata:       pi.Metadata,
	}, nil
}

// EventTime is the creation time of the event, used to order deliveries.
func EventTime(event stripe.Event) time.Time {
	return unixOrZero(event.Created)
}

func unixOrZero(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
