// Package payments wraps the Stripe API: webhook verification, event
// decoding and the calls made on behalf of users (customers, subscriptions,
// payment intents).
package payments

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"
)

// WebhookTolerance bounds the age of a signed webhook payload.
const WebhookTolerance = 5 * time.Minute

// Gateway is the subset of the payment processor the services call.
type Gateway interface {
	CreateCustomer(ctx context.Context, userID uint, email, name string) (string, error)
	CreateSubscription(ctx context.Context, customerID string, metadata map[string]string) (*SubscriptionResult, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntentResult, error)
}

type SubscriptionResult struct {
	ID     string
	Status string
}

type PaymentIntentRequest struct {
	Amount     int64
	Currency   string
	CustomerID string
	Metadata   map[string]string
}

type PaymentIntentResult struct {
	ID           string
	ClientSecret string
}

// StripeConfig holds the processor settings.
type StripeConfig struct {
	SecretKey string
	PriceID   string
	Timeout   time.Duration
}

// StripeProvider implements Gateway using the Stripe API.
type StripeProvider struct {
	priceID string
}

// NewStripeProvider configures the Stripe client. API calls are bounded by
// cfg.Timeout so a slow processor surfaces as an error, never a hang.
func NewStripeProvider(cfg StripeConfig) *StripeProvider {
	stripe.Key = cfg.SecretKey
	if cfg.Timeout > 0 {
		stripe.SetBackend(stripe.APIBackend, stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			HTTPClient:        &http.Client{Timeout: cfg.Timeout},
			MaxNetworkRetries: stripe.Int64(1),
		}))
	}
	return &StripeProvider{priceID: cfg.PriceID}
}

// CreateCustomer creates a new Stripe customer for the given user.
func (p *StripeProvider) CreateCustomer(ctx context.Context, userID uint, email, name string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
		Metadata: map[string]string{
			"userId": strconv.FormatUint(uint64(userID), 10),
		},
	}
	params.Context = ctx
	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("payments: create stripe customer: %w", err)
	}
	return c.ID, nil
}

// CreateSubscription starts a subscription on the configured price. Payment
// is collected asynchronously; state reaches the ledger through the webhook.
func (p *StripeProvider) CreateSubscription(ctx context.Context, customerID string, metadata map[string]string) (*SubscriptionResult, error) {
	if p.priceID == "" {
		return nil, fmt.Errorf("payments: no stripe price ID configured")
	}
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(p.priceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
		Metadata:        metadata,
	}
	params.Context = ctx
	sub, err := subscription.New(params)
	if err != nil {
		return nil, fmt.Errorf("payments: create stripe subscription: %w", err)
	}
	return &SubscriptionResult{ID: sub.ID, Status: string(sub.Status)}, nil
}

// CancelSubscription cancels a Stripe subscription immediately.
func (p *StripeProvider) CancelSubscription(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	if _, err := subscription.Cancel(subscriptionID, params); err != nil {
		return fmt.Errorf("payments: cancel stripe subscription: %w", err)
	}
	return nil
}

// CreatePaymentIntent creates a one-off payment, used for tips.
func (p *StripeProvider) CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntentResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
		Metadata: req.Metadata,
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	}
	params.Context = ctx
	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("payments: create payment intent: %w", err)
	}
	return &PaymentIntentResult{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// Verifier authenticates inbound webhook payloads.
type Verifier interface {
	ConstructEvent(payload []byte, signatureHeader string) (stripe.Event, error)
}

// WebhookVerifier checks Stripe-Signature headers against a signing secret.
type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// ConstructEvent verifies the signature and parses the event. Events sent
// with a different API version are accepted; objects are decoded tolerantly.
func (v *WebhookVerifier) ConstructEvent(payload []byte, signatureHeader string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		Tolerance:                WebhookTolerance,
		IgnoreAPIVersionMismatch: true,
	})
}

var (
	_ Gateway  = (*StripeProvider)(nil)
	_ Verifier = (*WebhookVerifier)(nil)
)
