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
)

const (
	defaultMonths = 1
	maxMonths     = 36
)

// SubscriptionService is the subscription ledger: time-boxed access of a
// subscriber to a creator's premium content.
type SubscriptionService struct {
	users    repositories.UserRepository
	subs     repositories.SubscriptionRepository
	gateway  payments.Gateway
	gate     *AccessGate
	notifier *Notifier
	metrics  *metrics.Collector
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewSubscriptionService builds the service. gateway may be nil when the
// payment processor is not configured.
func NewSubscriptionService(users repositories.UserRepository, subs repositories.SubscriptionRepository, gateway payments.Gateway, gate *AccessGate, notifier *Notifier, m *metrics.Collector, log logrus.FieldLogger) *SubscriptionService {
	return &SubscriptionService{
		users:    users,
		subs:     subs,
		gateway:  gateway,
		gate:     gate,
		notifier: notifier,
		metrics:  m,
		log:      log.WithField("component", "subscriptions"),
		now:      time.Now,
	}
}

// Subscribe buys months of access to creatorID. An active subscription is
// extended from its current expiry; otherwise a new one starts now. created
// reports which happened.
func (s *SubscriptionService) Subscribe(ctx context.Context, subscriberID, creatorID uint, months int) (*models.Subscription, bool, error) {
	if months == 0 {
		months = defaultMonths
	}
	if months < 1 || months > maxMonths {
		return nil, false, apperrors.InvalidOperation(fmt.Sprintf("months must be between 1 and %d", maxMonths))
	}
	if subscriberID == creatorID {
		return nil, false, apperrors.InvalidOperation("you cannot subscribe to yourself")
	}
	if _, err := s.users.GetUserByID(ctx, creatorID); err != nil {
		return nil, false, err
	}

	period := time.Duration(months) * models.SubscriptionPeriod
	sub, created, err := s.subs.CreateOrExtend(ctx, subscriberID, creatorID, period, s.now())
	if err != nil {
		if apperrors.Is(err, apperrors.KindConflict) {
			s.metrics.LedgerConflict("subscription")
		}
		return nil, false, err
	}
	s.gate.Invalidate(ctx, subscriberID, creatorID)

	s.log.WithFields(logrus.Fields{
		"subscription_id": sub.ID,
		"subscriber_id":   subscriberID,
		"creator_id":      creatorID,
		"created":         created,
		"expires_at":      sub.ExpiresAt,
	}).Info("subscription recorded")
	if created {
		s.notifier.Notify(ctx, models.NotificationSubscribe, subscriberID, creatorID,
			strconv.FormatUint(uint64(sub.ID), 10), "subscribed to you")
	}
	return sub, created, nil
}

// MySubscriptions pages the creators userID is actively subscribed to.
func (s *SubscriptionService) MySubscriptions(ctx context.Context, userID uint, p models.Pagination) (models.Page[models.SubscriptionView], error) {
	views, total, err := s.subs.ListActiveBySubscriber(ctx, userID, s.now(), p)
	if err != nil {
		return models.Page[models.SubscriptionView]{}, err
	}
	return models.NewPage(views, total, p), nil
}

// MySubscribers pages the users actively subscribed to userID.
func (s *SubscriptionService) MySubscribers(ctx context.Context, userID uint, p models.Pagination) (models.Page[models.SubscriptionView], error) {
	views, total, err := s.subs.ListActiveByCreator(ctx, userID, s.now(), p)
	if err != nil {
		return models.Page[models.SubscriptionView]{}, err
	}
	return models.NewPage(views, total, p), nil
}

// Get returns one of the caller's own subscriptions.
func (s *SubscriptionService) Get(ctx context.Context, callerID, id uint) (*models.Subscription, error) {
	sub, err := s.subs.GetSubscriptionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.SubscriberID != callerID {
		return nil, apperrors.Forbidden("you can only view your own subscriptions")
	}
	return sub, nil
}

// Cancel stops renewal of the caller's subscription. Access is kept until the
// paid period ends. Processor-billed subscriptions are canceled at the
// processor and the ledger follows its webhook.
func (s *SubscriptionService) Cancel(ctx context.Context, callerID, id uint) (*models.Subscription, error) {
	sub, err := s.subs.GetSubscriptionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.SubscriberID != callerID {
		return nil, apperrors.Forbidden("only the subscriber can cancel a subscription")
	}
	if sub.Status == models.SubscriptionCanceled {
		return sub, nil
	}

	if sub.StripeSubscriptionID != nil {
		if s.gateway == nil {
			return nil, apperrors.Upstream(nil, "payment processor is not configured")
		}
		if err := s.gateway.CancelSubscription(ctx, *sub.StripeSubscriptionID); err != nil {
			return nil, apperrors.Upstream(err, "failed to cancel subscription with the payment processor")
		}
	} else if err := s.subs.UpdateStatus(ctx, sub.ID, models.SubscriptionCanceled); err != nil {
		return nil, err
	}
	sub.Status = models.SubscriptionCanceled
	s.gate.Invalidate(ctx, sub.SubscriberID, sub.CreatorID)

	s.log.WithFields(logrus.Fields{
		"subscription_id": sub.ID,
		"subscriber_id":   sub.SubscriberID,
		"creator_id":      sub.CreatorID,
	}).Info("subscription canceled")
	return sub, nil
}
