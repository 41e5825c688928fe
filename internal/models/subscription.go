package models

import "time"

// SubscriptionStatus mirrors the payment processor's subscription states.
type SubscriptionStatus string

const (
	SubscriptionActive     SubscriptionStatus = "active"
	SubscriptionPastDue    SubscriptionStatus = "past_due"
	SubscriptionCanceled   SubscriptionStatus = "canceled"
	SubscriptionIncomplete SubscriptionStatus = "incomplete"
)

// SubscriptionPeriod is the length of one paid month.
const SubscriptionPeriod = 30 * 24 * time.Hour

// Subscription is a time-boxed subscriber -> creator relation. A row is
// active while ExpiresAt is in the future; renewals extend the active row.
type Subscription struct {
	ID                   uint               `json:"id" gorm:"primaryKey"`
	SubscriberID         uint               `json:"subscriber_id" gorm:"not null;index:idx_subscriptions_pair,priority:1"`
	CreatorID            uint               `json:"creator_id" gorm:"not null;index:idx_subscriptions_pair,priority:2;index"`
	PlanID               string             `json:"plan_id,omitempty" gorm:"size:100"`
	Status               SubscriptionStatus `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	CurrentPeriodStart   *time.Time         `json:"current_period_start,omitempty"`
	ExpiresAt            time.Time          `json:"expires_at" gorm:"not null;index:idx_subscriptions_pair,priority:3"`
	StripeSubscriptionID *string            `json:"stripe_subscription_id,omitempty" gorm:"uniqueIndex"`
	StripeCustomerID     *string            `json:"-"`
	LastEventAt          *time.Time         `json:"-"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// IsActiveAt reports whether the subscription grants access at t.
func (s *Subscription) IsActiveAt(t time.Time) bool {
	return s.ExpiresAt.After(t)
}

// NewSubscription builds a fresh active row paid through now+period.
func NewSubscription(subscriberID, creatorID uint, period time.Duration, now time.Time) *Subscription {
	return &Subscription{
		SubscriberID: subscriberID,
		CreatorID:    creatorID,
		Status:       SubscriptionActive,
		ExpiresAt:    now.Add(period),
	}
}

// Extend adds period to the current expiry, so remaining paid time is kept.
func (s *Subscription) Extend(period time.Duration) {
	s.ExpiresAt = s.ExpiresAt.Add(period)
}

// ExternalSubscription is a processor-side subscription state, decoded from a
// webhook event, used as the input of the idempotent upsert.
type ExternalSubscription struct {
	ExternalID   string
	CustomerID   string
	SubscriberID uint
	CreatorID    uint
	PlanID       string
	Status       SubscriptionStatus
	// Unpaid is set for processor states that never collected a payment.
	Unpaid      bool
	PeriodStart time.Time
	PeriodEnd   time.Time
	EventAt     time.Time
}

// IsStale reports whether ext is older than the last event applied to s.
func (s *Subscription) IsStale(ext ExternalSubscription) bool {
	return s.LastEventAt != nil && ext.EventAt.Before(*s.LastEventAt)
}

// ApplyExternal copies processor state onto s. ExpiresAt tracks the
// paid-through time and never grows for unpaid states.
func (s *Subscription) ApplyExternal(ext ExternalSubscription, now time.Time) {
	s.Status = ext.Status
	if !ext.PeriodStart.IsZero() {
		start := ext.PeriodStart
		s.CurrentPeriodStart = &start
	}
	if ext.Unpaid {
		if s.ExpiresAt.IsZero() || s.ExpiresAt.After(now) {
			s.ExpiresAt = now
		}
	} else if !ext.PeriodEnd.IsZero() {
		s.ExpiresAt = ext.PeriodEnd
	}
	if ext.PlanID != "" {
		s.PlanID = ext.PlanID
	}
	eventAt := ext.EventAt
	s.LastEventAt = &eventAt
}

// AdoptExternal links a locally created row to a processor subscription,
// keeping whichever expiry is later.
func (s *Subscription) AdoptExternal(ext ExternalSubscription, now time.Time) {
	paidThrough := s.ExpiresAt
	s.ApplyExternal(ext, now)
	if paidThrough.After(s.ExpiresAt) {
		s.ExpiresAt = paidThrough
	}
	s.linkExternal(ext)
}

// NewExternalSubscription builds a row for a processor subscription seen for
// the first time.
func NewExternalSubscription(ext ExternalSubscription, now time.Time) *Subscription {
	s := &Subscription{SubscriberID: ext.SubscriberID, CreatorID: ext.CreatorID}
	s.ApplyExternal(ext, now)
	s.linkExternal(ext)
	return s
}

// Close ends the row's paid period at now.
func (s *Subscription) Close(now time.Time) {
	s.Status = SubscriptionCanceled
	if s.ExpiresAt.After(now) {
		s.ExpiresAt = now
	}
}

// AbsorbPaidTime moves the expiry forward to until when that is later.
func (s *Subscription) AbsorbPaidTime(until time.Time) {
	if until.After(s.ExpiresAt) {
		s.ExpiresAt = until
	}
}

func (s *Subscription) linkExternal(ext ExternalSubscription) {
	externalID := ext.ExternalID
	s.StripeSubscriptionID = &externalID
	if ext.CustomerID != "" {
		customerID := ext.CustomerID
		s.StripeCustomerID = &customerID
	}
}

// UpsertResult describes what the idempotent upsert did.
type UpsertResult string

const (
	UpsertCreated    UpsertResult = "created"
	UpsertUpdated    UpsertResult = "updated"
	UpsertAdopted    UpsertResult = "adopted"
	UpsertSuperseded UpsertResult = "superseded"
	UpsertStale      UpsertResult = "stale"
)

// SubscriptionView is a subscription joined with the counterpart's profile.
type SubscriptionView struct {
	ID        uint               `json:"id"`
	User      UserCompact        `json:"user"`
	Status    SubscriptionStatus `json:"status"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

// CreateSubscriptionRequest is the body of POST /subscriptions.
type CreateSubscriptionRequest struct {
	CreatorID uint `json:"creatorId" validate:"required,gt=0"`
	Months    int  `json:"months" validate:"omitempty,min=1,max=36"`
}

// CheckoutRequest is the body of POST /subscriptions/checkout.
type CheckoutRequest struct {
	CreatorID uint `json:"creatorId" validate:"required,gt=0"`
}
