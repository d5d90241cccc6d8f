package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/squadup/squadup/internal/domain"
	"github.com/squadup/squadup/internal/infra/database/models"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Append(ctx context.Context, n domain.Notification) error {
	return r.db.WithContext(ctx).Create(&models.Notification{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Kind:        n.Kind,
		Message:     n.Message,
	}).Error
}

func (r *NotificationRepository) ListRecent(ctx context.Context, recipientID string, limit int) ([]domain.Notification, error) {
	var rows []models.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("c_date DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	notifications := make([]domain.Notification, 0, len(rows))
	for _, row := range rows {
		notifications = append(notifications, domain.Notification{
			ID:          row.ID,
			RecipientID: row.RecipientID,
			Kind:        row.Kind,
			Message:     row.Message,
			Read:        row.Read,
			CreatedAt:   row.CDate,
		})
	}
	return notifications, nil
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND read = false", recipientID).
		Count(&count).Error
	return count, err
}

// MarkRead is scoped to the recipient so one identity cannot flip another's
// read flags.
func (r *NotificationRepository) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	return r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Update("read", true).Error
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string) error {
	return r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND read = false", recipientID).
		Update("read", true).Error
}
