package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/nano-press/backend/internal/apperrors"
	"github.com/anonto42/nano-press/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionRepository is the subscription ledger. Writers of a
// (subscriber, creator) pair are serialised, so at most one row per pair is
// active at any time.
type SubscriptionRepository interface {
	CreateOrExtend(ctx context.Context, subscriberID, creatorID uint, period time.Duration, now time.Time) (*models.Subscription, bool, error)
	UpsertExternal(ctx context.Context, ext models.ExternalSubscription, now time.Time) (*models.Subscription, models.UpsertResult, error)
	FindActive(ctx context.Context, subscriberID, creatorID uint, now time.Time) (*models.Subscription, error)
	GetSubscriptionByID(ctx context.Context, id uint) (*models.Subscription, error)
	ListActiveBySubscriber(ctx context.Context, subscriberID uint, now time.Time, p models.Pagination) ([]models.SubscriptionView, int64, error)
	ListActiveByCreator(ctx context.Context, creatorID uint, now time.Time, p models.Pagination) ([]models.SubscriptionView, int64, error)
	UpdateStatus(ctx context.Context, id uint, status models.SubscriptionStatus) error
}

// PostgresSubscriptionRepository implements SubscriptionRepository for PostgreSQL
type PostgresSubscriptionRepository struct {
	db *gorm.DB
}

// NewPostgresSubscriptionRepository creates a new PostgresSubscriptionRepository
func NewPostgresSubscriptionRepository(db *gorm.DB) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{db: db}
}

// lockPair takes a transaction-scoped advisory lock for the pair.
func lockPair(tx *gorm.DB, subscriberID, creatorID uint) error {
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", pairLockKey(subscriberID, creatorID)).Error
}

func (r *PostgresSubscriptionRepository) CreateOrExtend(ctx context.Context, subscriberID, creatorID uint, period time.Duration, now time.Time) (*models.Subscription, bool, error) {
	var sub *models.Subscription
	var created bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPair(tx, subscriberID, creatorID); err != nil {
			return err
		}
		var err error
		sub, created, err = CreateOrExtendSubscription(ctx, &postgresSubscriptionStore{tx: tx}, subscriberID, creatorID, period, now)
		return err
	})
	if err != nil {
		return nil, false, translate(err, "subscription")
	}
	return sub, created, nil
}

func (r *PostgresSubscriptionRepository) UpsertExternal(ctx context.Context, ext models.ExternalSubscription, now time.Time) (*models.Subscription, models.UpsertResult, error) {
	var sub *models.Subscription
	var result models.UpsertResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := &postgresSubscriptionStore{tx: tx}
		subscriberID, creatorID := ext.SubscriberID, ext.CreatorID
		// The pair is read without a row lock: every writer takes the pair
		// lock first and row locks after it.
		pair, err := externalPair(tx, ext.ExternalID)
		if err != nil {
			return err
		}
		if pair != nil {
			subscriberID, creatorID = pair.SubscriberID, pair.CreatorID
		}
		if subscriberID == 0 || creatorID == 0 {
			return apperrors.InvalidOperation("subscription metadata is missing userId or creatorId")
		}
		if err := lockPair(tx, subscriberID, creatorID); err != nil {
			return err
		}
		sub, result, err = UpsertExternalSubscription(ctx, store, ext, subscriberID, creatorID, now)
		return err
	})
	if err != nil {
		return nil, "", translate(err, "subscription")
	}
	return sub, result, nil
}

// FindActive returns the pair's active row, or NOT_FOUND.
func (r *PostgresSubscriptionRepository) FindActive(ctx context.Context, subscriberID, creatorID uint, now time.Time) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("subscriber_id = ? AND creator_id = ? AND expires_at > ?", subscriberID, creatorID, now).
		Order("expires_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, translate(err, "active subscription")
	}
	return &sub, nil
}

func (r *PostgresSubscriptionRepository) GetSubscriptionByID(ctx context.Context, id uint) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).First(&sub, id).Error; err != nil {
		return nil, translate(err, "subscription")
	}
	return &sub, nil
}

// ListActiveBySubscriber lists the creators subscriberID currently pays for
func (r *PostgresSubscriptionRepository) ListActiveBySubscriber(ctx context.Context, subscriberID uint, now time.Time, p models.Pagination) ([]models.SubscriptionView, int64, error) {
	return r.listActive(ctx, "creator_id", "subscriber_id", subscriberID, now, p)
}

// ListActiveByCreator lists the users currently subscribed to creatorID
func (r *PostgresSubscriptionRepository) ListActiveByCreator(ctx context.Context, creatorID uint, now time.Time, p models.Pagination) ([]models.SubscriptionView, int64, error) {
	return r.listActive(ctx, "subscriber_id", "creator_id", creatorID, now, p)
}

type subscriptionViewRow struct {
	ID        uint
	Status    models.SubscriptionStatus
	ExpiresAt time.Time
	UserID    uint
	Username  string
	Name      string
	Avatar    string
}

func (r *PostgresSubscriptionRepository) listActive(ctx context.Context, joinColumn, filterColumn string, userID uint, now time.Time, p models.Pagination) ([]models.SubscriptionView, int64, error) {
	var rows []subscriptionViewRow
	var total int64

	q := r.db.WithContext(ctx).Table("subscriptions").
		Joins("JOIN users ON users.id = subscriptions."+joinColumn+" AND users.deleted_at IS NULL").
		Where("subscriptions."+filterColumn+" = ? AND subscriptions.expires_at > ?", userID, now).
		Session(&gorm.Session{})

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "subscription")
	}
	err := q.Select("subscriptions.id, subscriptions.status, subscriptions.expires_at, " +
		"users.id AS user_id, users.username, users.name, users.avatar").
		Order("subscriptions.created_at DESC, subscriptions.id DESC").
		Offset(p.Offset()).Limit(p.Limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, translate(err, "subscription")
	}

	views := make([]models.SubscriptionView, 0, len(rows))
	for _, row := range rows {
		views = append(views, models.SubscriptionView{
			ID:        row.ID,
			User:      models.UserCompact{ID: row.UserID, Username: row.Username, Name: row.Name, Avatar: row.Avatar},
			Status:    row.Status,
			ExpiresAt: row.ExpiresAt,
		})
	}
	return views, total, nil
}

// UpdateStatus changes the status of a locally managed row. expires_at is
// left alone, so a canceled row keeps its paid period.
func (r *PostgresSubscriptionRepository) UpdateStatus(ctx context.Context, id uint, status models.SubscriptionStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Subscription{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return translate(res.Error, "subscription")
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("subscription not found")
	}
	return nil
}

type subscriptionPair struct {
	SubscriberID uint
	CreatorID    uint
}

// externalPair returns the pair of the row carrying externalID, or nil. A
// row's pair never changes, so the unlocked read stays valid.
func externalPair(tx *gorm.DB, externalID string) (*subscriptionPair, error) {
	var pair subscriptionPair
	err := tx.Table("subscriptions").
		Select("subscriber_id", "creator_id").
		Where("stripe_subscription_id = ?", externalID).
		Take(&pair).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// postgresSubscriptionStore runs ledger operations inside one transaction.
type postgresSubscriptionStore struct {
	tx *gorm.DB
}

func (s *postgresSubscriptionStore) FindByExternalID(ctx context.Context, externalID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("stripe_subscription_id = ?", externalID).
		Take(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *postgresSubscriptionStore) ActiveForPair(ctx context.Context, subscriberID, creatorID uint, now time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := s.tx.Where("subscriber_id = ? AND creator_id = ? AND expires_at > ?", subscriberID, creatorID, now).
		Order("expires_at DESC").
		Find(&subs).Error
	return subs, err
}

// Insert creates the row. Processor-backed rows upsert on the external id, so
// a concurrent first delivery of the same subscription cannot duplicate it.
func (s *postgresSubscriptionStore) Insert(ctx context.Context, sub *models.Subscription) error {
	if sub.StripeSubscriptionID == nil {
		return s.tx.Create(sub).Error
	}
	return s.tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_subscription_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "plan_id", "current_period_start", "expires_at", "stripe_customer_id", "last_event_at", "updated_at",
		}),
	}).Create(sub).Error
}

func (s *postgresSubscriptionStore) Save(ctx context.Context, sub *models.Subscription) error {
	return s.tx.Save(sub).Error
}
