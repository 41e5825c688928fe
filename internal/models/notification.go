package models

import "time"

type NotificationType string

const (
	NotificationFollow    NotificationType = "follow"
	NotificationSubscribe NotificationType = "subscribe"
	NotificationComment   NotificationType = "comment"
)

// Notification represents a user notification (PostgreSQL)
type Notification struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	Type        NotificationType `json:"type" gorm:"type:varchar(20);index"`
	ActorID     uint             `json:"actorId" gorm:"index"`
	RecipientID uint             `json:"recipientId" gorm:"index:idx_notifications_recipient_read,priority:1"`
	TargetID    string           `json:"targetId,omitempty"` // post ID, user ID, ...
	Message     string           `json:"message"`
	IsRead      bool             `json:"isRead" gorm:"default:false;index:idx_notifications_recipient_read,priority:2"`
	CreatedAt   time.Time        `json:"createdAt" gorm:"index"`
}
