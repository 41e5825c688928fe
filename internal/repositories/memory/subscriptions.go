package memory

import (
	"context"
	"sort"
	"time"

	"github.com/anonto42/nano-press/backend/internal/apperrors"
	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/anonto42/nano-press/backend/internal/repositories"
)

// The store mutex stands in for the per-pair advisory lock.

func (s *Store) CreateOrExtend(ctx context.Context, subscriberID, creatorID uint, period time.Duration, now time.Time) (*models.Subscription, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return repositories.CreateOrExtendSubscription(ctx, subscriptionTable{s}, subscriberID, creatorID, period, now)
}

func (s *Store) UpsertExternal(ctx context.Context, ext models.ExternalSubscription, now time.Time) (*models.Subscription, models.UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table := subscriptionTable{s}
	subscriberID, creatorID := ext.SubscriberID, ext.CreatorID
	if existing, _ := table.FindByExternalID(ctx, ext.ExternalID); existing != nil {
		subscriberID, creatorID = existing.SubscriberID, existing.CreatorID
	}
	if subscriberID == 0 || creatorID == 0 {
		return nil, "", apperrors.InvalidOperation("subscription metadata is missing userId or creatorId")
	}
	return repositories.UpsertExternalSubscription(ctx, table, ext, subscriberID, creatorID, now)
}

func (s *Store) FindActive(ctx context.Context, subscriberID, creatorID uint, now time.Time) (*models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active, _ := subscriptionTable{s}.ActiveForPair(ctx, subscriberID, creatorID, now)
	if len(active) == 0 {
		return nil, notFound("active subscription")
	}
	return &active[0], nil
}

func (s *Store) GetSubscriptionByID(_ context.Context, id uint) (*models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subscriptions[id]
	if !ok {
		return nil, notFound("subscription")
	}
	out := *sub
	return &out, nil
}

func (s *Store) ListActiveBySubscriber(_ context.Context, subscriberID uint, now time.Time, p models.Pagination) ([]models.SubscriptionView, int64, error) {
	return s.listActive(now, p, func(sub *models.Subscription) (uint, uint) { return sub.SubscriberID, sub.CreatorID }, subscriberID)
}

func (s *Store) ListActiveByCreator(_ context.Context, creatorID uint, now time.Time, p models.Pagination) ([]models.SubscriptionView, int64, error) {
	return s.listActive(now, p, func(sub *models.Subscription) (uint, uint) { return sub.CreatorID, sub.SubscriberID }, creatorID)
}

func (s *Store) listActive(now time.Time, p models.Pagination, ends func(*models.Subscription) (uint, uint), userID uint) ([]models.SubscriptionView, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var views []models.SubscriptionView
	var created []time.Time
	for _, sub := range s.subscriptions {
		near, far := ends(sub)
		if near != userID || !sub.IsActiveAt(now) {
			continue
		}
		u, ok := s.liveUser(far)
		if !ok {
			continue
		}
		views = append(views, models.SubscriptionView{
			ID:        sub.ID,
			User:      u.ToCompact(),
			Status:    sub.Status,
			ExpiresAt: sub.ExpiresAt,
		})
		created = append(created, sub.CreatedAt)
	}
	sort.Sort(byCreatedDesc{views, created})
	return paginate(views, p), int64(len(views)), nil
}

type byCreatedDesc struct {
	views   []models.SubscriptionView
	created []time.Time
}

func (b byCreatedDesc) Len() int { return len(b.views) }
func (b byCreatedDesc) Less(i, j int) bool {
	if !b.created[i].Equal(b.created[j]) {
		return b.created[i].After(b.created[j])
	}
	return b.views[i].ID > b.views[j].ID
}
func (b byCreatedDesc) Swap(i, j int) {
	b.views[i], b.views[j] = b.views[j], b.views[i]
	b.created[i], b.created[j] = b.created[j], b.created[i]
}

func (s *Store) UpdateStatus(_ context.Context, id uint, status models.SubscriptionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subscriptions[id]
	if !ok {
		return notFound("subscription")
	}
	sub.Status = status
	sub.UpdatedAt = s.now()
	return nil
}

// subscriptionTable implements repositories.SubscriptionStore on a Store
// whose mutex is already held.
type subscriptionTable struct {
	s *Store
}

func (t subscriptionTable) FindByExternalID(_ context.Context, externalID string) (*models.Subscription, error) {
	for _, sub := range t.s.subscriptions {
		if sub.StripeSubscriptionID != nil && *sub.StripeSubscriptionID == externalID {
			out := *sub
			return &out, nil
		}
	}
	return nil, nil
}

func (t subscriptionTable) ActiveForPair(_ context.Context, subscriberID, creatorID uint, now time.Time) ([]models.Subscription, error) {
	var active []models.Subscription
	for _, sub := range t.s.subscriptions {
		if sub.SubscriberID == subscriberID && sub.CreatorID == creatorID && sub.IsActiveAt(now) {
			active = append(active, *sub)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ExpiresAt.After(active[j].ExpiresAt) })
	return active, nil
}

func (t subscriptionTable) Insert(ctx context.Context, sub *models.Subscription) error {
	if sub.StripeSubscriptionID != nil {
		if existing, _ := t.FindByExternalID(ctx, *sub.StripeSubscriptionID); existing != nil {
			sub.ID = existing.ID
			sub.CreatedAt = existing.CreatedAt
			return t.Save(ctx, sub)
		}
	}
	sub.ID = t.s.nextID()
	now := t.s.now()
	sub.CreatedAt, sub.UpdatedAt = now, now
	stored := *sub
	t.s.subscriptions[sub.ID] = &stored
	return nil
}

func (t subscriptionTable) Save(_ context.Context, sub *models.Subscription) error {
	if _, ok := t.s.subscriptions[sub.ID]; !ok {
		return notFound("subscription")
	}
	sub.UpdatedAt = t.s.now()
	stored := *sub
	t.s.subscriptions[sub.ID] = &stored
	return nil
}
