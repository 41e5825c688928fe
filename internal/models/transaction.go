package models

import "time"

type TransactionType string

const (
	TransactionSubscription TransactionType = "subscription"
	TransactionTip          TransactionType = "tip"
)

type TransactionStatus string

const (
	TransactionSuccess TransactionStatus = "success"
	TransactionFailed  TransactionStatus = "failed"
)

// Transaction is an append-only payment record. (StripePaymentID, Status) is
// the idempotency key for redelivered processor events.
type Transaction struct {
	ID              uint              `json:"id" gorm:"primaryKey"`
	UserID          uint              `json:"userId" gorm:"not null;index"`
	CreatorID       *uint             `json:"creatorId,omitempty" gorm:"index"`
	Amount          int64             `json:"amount" gorm:"not null"`
	Currency        string            `json:"currency" gorm:"size:3;not null;default:'usd'"`
	Type            TransactionType   `json:"type" gorm:"type:varchar(20);not null"`
	Status          TransactionStatus `json:"status" gorm:"type:varchar(20);not null;uniqueIndex:idx_transactions_payment_status,priority:2"`
	StripePaymentID string            `json:"stripePaymentId" gorm:"not null;uniqueIndex:idx_transactions_payment_status,priority:1"`
	CreatedAt       time.Time         `json:"createdAt" gorm:"index"`
}

// TipRequest is the body of POST /payments/tips. Amount is in minor units.
type TipRequest struct {
	CreatorID uint  `json:"creatorId" validate:"required,gt=0"`
	Amount    int64 `json:"amount" validate:"required,min=100,max=100000"`
}
