package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/anonto42/nano-press/backend/internal/apperrors"
	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/anonto42/nano-press/backend/internal/repositories"
	"github.com/anonto42/nano-press/backend/pkg/metrics"
	"github.com/anonto42/nano-press/backend/pkg/payments"
	"github.com/sirupsen/logrus"
	stripe "github.com/stripe/stripe-go/v82"
)

// Outcome is how a verified webhook event was handled.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeStale     Outcome = "stale"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeMalformed Outcome = "malformed"
	OutcomeFailed    Outcome = "failed"
)

// PaymentReconciler applies payment processor events to the subscription and
// transaction ledgers. Every event may be delivered more than once and out of
// order; applying it again has no further effect.
type PaymentReconciler struct {
	subs    repositories.SubscriptionRepository
	txs     repositories.TransactionRepository
	gate    *AccessGate
	metrics *metrics.Collector
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewPaymentReconciler(subs repositories.SubscriptionRepository, txs repositories.TransactionRepository, gate *AccessGate, m *metrics.Collector, log logrus.FieldLogger) *PaymentReconciler {
	return &PaymentReconciler{
		subs:    subs,
		txs:     txs,
		gate:    gate,
		metrics: m,
		log:     log.WithField("component", "reconciler"),
		now:     time.Now,
	}
}

// Reconcile applies event. Only failures worth a redelivery are returned as
// errors; malformed or unknown events are acknowledged with an outcome.
func (r *PaymentReconciler) Reconcile(ctx context.Context, event stripe.Event) (Outcome, error) {
	eventType := string(event.Type)
	log := r.log.WithFields(logrus.Fields{"event_id": event.ID, "event_type": eventType})

	var (
		outcome Outcome
		err     error
	)
	switch {
	case payments.IsSubscriptionEvent(eventType):
		outcome, err = r.reconcileSubscription(ctx, event)
	case payments.IsPaymentIntentEvent(eventType):
		outcome, err = r.reconcilePayment(ctx, event)
	default:
		outcome = OutcomeIgnored
		eventType = "other"
	}

	if err != nil {
		if apperrors.IsRetryable(err) {
			log.WithError(err).Error("failed to apply payment event")
			r.metrics.WebhookEvent(eventType, string(OutcomeFailed))
			return OutcomeFailed, err
		}
		log.WithError(err).Warn("rejected payment event")
		outcome = OutcomeMalformed
	} else {
		log.WithField("outcome", outcome).Info("payment event handled")
	}
	r.metrics.WebhookEvent(eventType, string(outcome))
	return outcome, nil
}

func (r *PaymentReconciler) reconcileSubscription(ctx context.Context, event stripe.Event) (Outcome, error) {
	obj, err := payments.DecodeSubscription(event)
	if err != nil {
		return "", apperrors.InvalidOperation(err.Error())
	}
	status, unpaid, ok := mapSubscriptionStatus(obj.Status)
	if !ok {
		return "", apperrors.InvalidOperation(fmt.Sprintf("unknown subscription status %q", obj.Status))
	}
	subscriberID, err := metadataID(obj.Metadata, MetadataUserID)
	if err != nil {
		return "", err
	}
	creatorID, err := metadataID(obj.Metadata, MetadataCreatorID)
	if err != nil {
		return "", err
	}
	planID := obj.Metadata[MetadataPlanID]
	if planID == "" {
		planID = obj.PriceID
	}

	now := r.now()
	eventAt := payments.EventTime(event)
	if eventAt.IsZero() {
		eventAt = now
	}
	sub, result, err := r.subs.UpsertExternal(ctx, models.ExternalSubscription{
		ExternalID:   obj.ID,
		CustomerID:   obj.CustomerID,
		SubscriberID: subscriberID,
		CreatorID:    creatorID,
		PlanID:       planID,
		Status:       status,
		Unpaid:       unpaid,
		PeriodStart:  obj.PeriodStart,
		PeriodEnd:    obj.PeriodEnd,
		EventAt:      eventAt,
	}, now)
	if err != nil {
		return "", err
	}
	if result == models.UpsertStale {
		return OutcomeStale, nil
	}
	r.gate.Invalidate(ctx, sub.SubscriberID, sub.CreatorID)
	r.log.WithFields(logrus.Fields{
		"subscription_id":        sub.ID,
		"stripe_subscription_id": obj.ID,
		"status":                 sub.Status,
		"expires_at":             sub.ExpiresAt,
		"result":                 result,
	}).Debug("subscription upserted")
	return OutcomeApplied, nil
}

func (r *PaymentReconciler) reconcilePayment(ctx context.Context, event stripe.Event) (Outcome, error) {
	pi, err := payments.DecodePaymentIntent(event)
	if err != nil {
		return "", apperrors.InvalidOperation(err.Error())
	}
	userID, err := metadataID(pi.Metadata, MetadataUserID)
	if err != nil {
		return "", err
	}
	if userID == 0 {
		return "", apperrors.InvalidOperation("payment intent without a user")
	}

	tx := &models.Transaction{
		UserID:          userID,
		Currency:        pi.Currency,
		Type:            models.TransactionSubscription,
		StripePaymentID: pi.ID,
	}
	switch t := models.TransactionType(pi.Metadata[MetadataType]); t {
	case "":
	case models.TransactionSubscription, models.TransactionTip:
		tx.Type = t
	default:
		return "", apperrors.InvalidOperation(fmt.Sprintf("unknown transaction type %q", t))
	}
	if string(event.Type) == payments.EventPaymentSucceeded {
		tx.Status = models.TransactionSuccess
		tx.Amount = pi.AmountReceived
	} else {
		tx.Status = models.TransactionFailed
		tx.Amount = pi.Amount
	}
	if tx.Currency == "" {
		tx.Currency = "usd"
	}
	creatorID, err := metadataID(pi.Metadata, MetadataCreatorID)
	if err != nil {
		return "", err
	}
	if creatorID != 0 {
		tx.CreatorID = &creatorID
	}

	inserted, err := r.txs.AppendTransaction(ctx, tx)
	if err != nil {
		return "", err
	}
	if !inserted {
		return OutcomeDuplicate, nil
	}
	return OutcomeApplied, nil
}

// mapSubscriptionStatus folds processor states into the ledger's. unpaid
// marks states that never collected a payment and so grant no access.
func mapSubscriptionStatus(status string) (mapped models.SubscriptionStatus, unpaid bool, ok bool) {
	switch stripe.SubscriptionStatus(status) {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return models.SubscriptionActive, false, true
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid, stripe.SubscriptionStatusPaused:
		return models.SubscriptionPastDue, false, true
	case stripe.SubscriptionStatusCanceled:
		return models.SubscriptionCanceled, false, true
	case stripe.SubscriptionStatusIncompleteExpired:
		return models.SubscriptionCanceled, true, true
	case stripe.SubscriptionStatusIncomplete:
		return models.SubscriptionIncomplete, true, true
	}
	return "", false, false
}

// metadataID parses an optional numeric id. A missing key yields 0.
func metadataID(metadata map[string]string, key string) (uint, error) {
	raw, ok := metadata[key]
	if !ok || raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.InvalidOperation(fmt.Sprintf("metadata %s is not a valid id", key))
	}
	return uint(id), nil
}
