package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/nano-press/backend/internal/apperrors"
	"github.com/anonto42/nano-press/backend/internal/models"
)

// SubscriptionStore is a transactional view of the subscriptions table. The
// ledger operations below assume the caller holds the lock for the
// (subscriber, creator) pair they touch, so reads and writes are atomic.
type SubscriptionStore interface {
	// FindByExternalID returns nil, nil when no row carries the id.
	FindByExternalID(ctx context.Context, externalID string) (*models.Subscription, error)
	// ActiveForPair returns the pair's rows with expires_at > now, latest expiry first.
	ActiveForPair(ctx context.Context, subscriberID, creatorID uint, now time.Time) ([]models.Subscription, error)
	Insert(ctx context.Context, sub *models.Subscription) error
	Save(ctx context.Context, sub *models.Subscription) error
}

// pairLockKey names the advisory lock serialising writers of one pair.
func pairLockKey(subscriberID, creatorID uint) string {
	return fmt.Sprintf("sub:%d:%d", subscriberID, creatorID)
}

// CreateOrExtendSubscription extends the pair's active row by period, or
// creates one expiring at now+period. created reports which happened.
func CreateOrExtendSubscription(ctx context.Context, store SubscriptionStore, subscriberID, creatorID uint, period time.Duration, now time.Time) (sub *models.Subscription, created bool, err error) {
	active, err := store.ActiveForPair(ctx, subscriberID, creatorID, now)
	if err != nil {
		return nil, false, err
	}
	if len(active) > 0 {
		sub = &active[0]
		if sub.StripeSubscriptionID != nil {
			return nil, false, apperrors.Conflict("subscription is billed through the payment processor")
		}
		sub.Extend(period)
		sub.Status = models.SubscriptionActive
		if err := store.Save(ctx, sub); err != nil {
			return nil, false, err
		}
		return sub, false, nil
	}

	sub = models.NewSubscription(subscriberID, creatorID, period, now)
	if err := store.Insert(ctx, sub); err != nil {
		return nil, false, err
	}
	return sub, true, nil
}

// UpsertExternalSubscription applies processor state keyed by the external
// subscription id. Replaying an event is a no-op in effect; older events are
// reported stale and not applied. When the resulting row grants access, any
// other active row of the pair is closed and its paid time carried over, so
// the pair never has two active rows.
func UpsertExternalSubscription(ctx context.Context, store SubscriptionStore, ext models.ExternalSubscription, subscriberID, creatorID uint, now time.Time) (*models.Subscription, models.UpsertResult, error) {
	sub, err := store.FindByExternalID(ctx, ext.ExternalID)
	if err != nil {
		return nil, "", err
	}
	if sub != nil && sub.IsStale(ext) {
		return sub, models.UpsertStale, nil
	}

	active, err := store.ActiveForPair(ctx, subscriberID, creatorID, now)
	if err != nil {
		return nil, "", err
	}

	var result models.UpsertResult
	switch {
	case sub != nil:
		sub.ApplyExternal(ext, now)
		result = models.UpsertUpdated
	case !ext.Unpaid && localRow(active) != nil:
		sub = localRow(active)
		sub.AdoptExternal(ext, now)
		result = models.UpsertAdopted
	default:
		ext.SubscriberID, ext.CreatorID = subscriberID, creatorID
		sub = models.NewExternalSubscription(ext, now)
		result = models.UpsertCreated
	}

	if sub.IsActiveAt(now) {
		for i := range active {
			other := &active[i]
			if other.ID == sub.ID {
				continue
			}
			sub.AbsorbPaidTime(other.ExpiresAt)
			other.Close(now)
			if err := store.Save(ctx, other); err != nil {
				return nil, "", err
			}
			if result == models.UpsertCreated {
				result = models.UpsertSuperseded
			}
		}
	}

	if sub.ID == 0 {
		err = store.Insert(ctx, sub)
	} else {
		err = store.Save(ctx, sub)
	}
	if err != nil {
		return nil, "", err
	}
	return sub, result, nil
}

// localRow returns the first active row not yet linked to the processor.
func localRow(active []models.Subscription) *models.Subscription {
	for i := range active {
		if active[i].StripeSubscriptionID == nil {
			return &active[i]
		}
	}
	return nil
}
