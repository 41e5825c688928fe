package services

import (
	"context"

	"github.com/anonto42/nano-press/backend/internal/models"
	"github.com/anonto42/nano-press/backend/internal/repositories"
	"github.com/sirupsen/logrus"
)

// Notifier records in-app notifications. Delivery is best effort: a failure
// is logged and never fails the action that triggered it.
type Notifier struct {
	repo repositories.NotificationRepository
	log  logrus.FieldLogger
}

func NewNotifier(repo repositories.NotificationRepository, log logrus.FieldLogger) *Notifier {
	return &Notifier{repo: repo, log: log.WithField("component", "notifier")}
}

func (n *Notifier) Notify(ctx context.Context, typ models.NotificationType, actorID, recipientID uint, targetID, message string) {
	if n == nil || actorID == recipientID {
		return
	}
	err := n.repo.CreateNotification(ctx, &models.Notification{
		Type:        typ,
		ActorID:     actorID,
		RecipientID: recipientID,
		TargetID:    targetID,
		Message:     message,
	})
	if err != nil {
		n.log.WithError(err).WithFields(logrus.Fields{
			"type":         typ,
			"recipient_id": recipientID,
		}).Warn("failed to record notification")
	}
}
