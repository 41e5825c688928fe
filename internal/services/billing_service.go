package services

import (
	"context"
	"strconv"

	"github.com/anonto42/nano-press/backend/internal/apperrors"
	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/anonto42/nano-press/backend/internal/repositories"
	"github.com/anonto42/nano-press/backend/pkg/payments"
	"github.com/sirupsen/logrus"
)

// Metadata keys attached to processor objects and read back from webhooks.
const (
	MetadataUserID    = "userId"
	MetadataCreatorID = "creatorId"
	MetadataPlanID    = "planId"
	MetadataType      = "type"
)

// BillingService starts processor-backed payments: subscription checkouts and
// one-off tips. Their outcome reaches the ledgers through webhooks.
type BillingService struct {
	users    repositories.UserRepository
	txs      repositories.TransactionRepository
	gateway  payments.Gateway
	currency string
	log      logrus.FieldLogger
}

// NewBillingService builds the service. gateway may be nil, in which case
// every processor call fails with UPSTREAM_FAILURE.
func NewBillingService(users repositories.UserRepository, txs repositories.TransactionRepository, gateway payments.Gateway, currency string, log logrus.FieldLogger) *BillingService {
	return &BillingService{
		users:    users,
		txs:      txs,
		gateway:  gateway,
		currency: currency,
		log:      log.WithField("component", "billing"),
	}
}

func (b *BillingService) requireGateway() error {
	if b.gateway == nil {
		return apperrors.Upstream(nil, "payment processor is not configured")
	}
	return nil
}

// Checkout starts a recurring processor subscription of userID to creatorID.
func (b *BillingService) Checkout(ctx context.Context, userID, creatorID uint) (*payments.SubscriptionResult, error) {
	if userID == creatorID {
		return nil, apperrors.InvalidOperation("you cannot subscribe to yourself")
	}
	if err := b.requireGateway(); err != nil {
		return nil, err
	}
	if _, err := b.users.GetUserByID(ctx, creatorID); err != nil {
		return nil, err
	}
	customerID, err := b.ensureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	result, err := b.gateway.CreateSubscription(ctx, customerID, map[string]string{
		MetadataUserID:    strconv.FormatUint(uint64(userID), 10),
		MetadataCreatorID: strconv.FormatUint(uint64(creatorID), 10),
	})
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to start subscription checkout")
	}
	b.log.WithFields(logrus.Fields{
		"user_id":                userID,
		"creator_id":             creatorID,
		"stripe_subscription_id": result.ID,
	}).Info("subscription checkout started")
	return result, nil
}

// Tip starts a one-off payment of amount minor units from userID to creatorID.
func (b *BillingService) Tip(ctx context.Context, userID, creatorID uint, amount int64) (*payments.PaymentIntentResult, error) {
	if userID == creatorID {
		return nil, apperrors.InvalidOperation("you cannot tip yourself")
	}
	if amount <= 0 {
		return nil, apperrors.InvalidOperation("amount must be positive")
	}
	if err := b.requireGateway(); err != nil {
		return nil, err
	}
	if _, err := b.users.GetUserByID(ctx, creatorID); err != nil {
		return nil, err
	}
	customerID, err := b.ensureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	result, err := b.gateway.CreatePaymentIntent(ctx, payments.PaymentIntentRequest{
		Amount:     amount,
		Currency:   b.currency,
		CustomerID: customerID,
		Metadata: map[string]string{
			MetadataUserID:    strconv.FormatUint(uint64(userID), 10),
			MetadataCreatorID: strconv.FormatUint(uint64(creatorID), 10),
			MetadataType:      string(models.TransactionTip),
		},
	})
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to create tip payment")
	}
	b.log.WithFields(logrus.Fields{
		"user_id":           userID,
		"creator_id":        creatorID,
		"amount":            amount,
		"payment_intent_id": result.ID,
	}).Info("tip payment created")
	return result, nil
}

// Transactions pages the caller's payment history, newest first.
func (b *BillingService) Transactions(ctx context.Context, userID uint, p models.Pagination) (models.Page[models.Transaction], error) {
	txs, total, err := b.txs.ListByUser(ctx, userID, p)
	if err != nil {
		return models.Page[models.Transaction]{}, err
	}
	return models.NewPage(txs, total, p), nil
}

// ensureCustomer returns the user's processor customer id, creating and
// storing one on first use.
func (b *BillingService) ensureCustomer(ctx context.Context, userID uint) (string, error) {
	user, err := b.users.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		return *user.StripeCustomerID, nil
	}
	customerID, err := b.gateway.CreateCustomer(ctx, user.ID, user.Email, user.Name)
	if err != nil {
		return "", apperrors.Upstream(err, "failed to create payment customer")
	}
	if err := b.users.SetStripeCustomerID(ctx, user.ID, customerID); err != nil {
		return "", err
	}
	return customerID, nil
}
