package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/squadup/squadup"
	"github.com/squadup/squadup/internal/domain"
)

// notificationListLimit bounds the recent-notification feed.
const notificationListLimit = 30

type NotificationUsecase struct {
	notifications NotificationRepository
	publisher     Publisher
}

func NewNotificationUsecase(notifications NotificationRepository, publisher Publisher) *NotificationUsecase {
	return &NotificationUsecase{
		notifications: notifications,
		publisher:     publisher,
	}
}

// Notify persists a notification and pushes it to the recipient's private
// channel. The push is best-effort; the stored row is the source of truth.
func (uc *NotificationUsecase) Notify(ctx context.Context, recipientID, kind, message string) error {
	n := domain.Notification{
		ID:          uuid.New().String(),
		RecipientID: recipientID,
		Kind:        kind,
		Message:     message,
		CreatedAt:   time.Now().UTC(),
	}
	if err := uc.notifications.Append(ctx, n); err != nil {
		return err
	}

	event, err := squadup.NewEvent(squadup.EventNotification, squadup.IdentityChannel(recipientID), squadup.NotificationPayload{
		ID:        n.ID,
		Kind:      n.Kind,
		Message:   n.Message,
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		return nil
	}
	if err := uc.publisher.Publish(ctx, event.Channel, event); err != nil {
		slog.Warn("failed to publish notification",
			slog.String("error", err.Error()),
			slog.String("module", "notification"),
		)
	}
	return nil
}

func (uc *NotificationUsecase) List(ctx context.Context, recipientID string) ([]domain.Notification, error) {
	return uc.notifications.ListRecent(ctx, recipientID, notificationListLimit)
}

func (uc *NotificationUsecase) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	return uc.notifications.UnreadCount(ctx, recipientID)
}

func (uc *NotificationUsecase) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	return uc.notifications.MarkRead(ctx, recipientID, notificationID)
}

func (uc *NotificationUsecase) MarkAllRead(ctx context.Context, recipientID string) error {
	return uc.notifications.MarkAllRead(ctx, recipientID)
}
