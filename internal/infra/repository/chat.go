package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bradfitz/gomemcache/memcache"
	"gorm.io/gorm"

	"github.com/squadup/squadup/internal/domain"
	"github.com/squadup/squadup/internal/infra/database/models"
)

type ChatRepository struct {
	db *gorm.DB
	mc *memcache.Client
}

func NewChatRepository(db *gorm.DB, mc *memcache.Client) *ChatRepository {
	return &ChatRepository{db: db, mc: mc}
}

const historyCacheExpiration = 60 // seconds

func historyCacheKey(sessionID string) string {
	return "chat-history:" + sessionID
}

// Append stores the message and invalidates the session's cached replay
// window.
func (r *ChatRepository) Append(ctx context.Context, message domain.ChatMessage) error {
	err := r.db.WithContext(ctx).Create(&models.ChatMessage{
		ID:        message.ID,
		SessionID: message.SessionID,
		AuthorID:  message.AuthorID,
		Content:   message.Content,
		Toxic:     message.Toxic,
	}).Error
	if err != nil {
		return err
	}

	if r.mc != nil {
		// Best effort; a stale window only persists until expiration.
		_ = r.mc.Delete(historyCacheKey(message.SessionID))
	}
	return nil
}

// Recent returns the most recent limit messages in chronological order,
// served from memcached when the window is warm.
func (r *ChatRepository) Recent(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	if r.mc != nil {
		if item, err := r.mc.Get(historyCacheKey(sessionID)); err == nil {
			var cached []domain.ChatMessage
			if err := json.Unmarshal(item.Value, &cached); err == nil {
				if len(cached) > limit {
					cached = cached[len(cached)-limit:]
				}
				return cached, nil
			}
		}
	}

	var rows []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("c_date DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	// Rows arrive newest first; replay wants chronological order.
	messages := make([]domain.ChatMessage, len(rows))
	for i, row := range rows {
		messages[len(rows)-1-i] = chatToDomain(row)
	}

	if r.mc != nil {
		if raw, err := json.Marshal(messages); err == nil {
			_ = r.mc.Set(&memcache.Item{
				Key:        historyCacheKey(sessionID),
				Value:      raw,
				Expiration: historyCacheExpiration,
			})
		}
	}
	return messages, nil
}

// Context returns the flagged message plus the five preceding messages of
// the same session in chronological order, for moderator review.
func (r *ChatRepository) Context(ctx context.Context, messageID string) ([]domain.ChatMessage, error) {
	var target models.ChatMessage
	err := r.db.WithContext(ctx).Where("id = ?", messageID).Take(&target).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError{Resource: "message"}
		}
		return nil, err
	}

	var rows []models.ChatMessage
	err = r.db.WithContext(ctx).
		Where("session_id = ? AND c_date <= ?", target.SessionID, target.CDate).
		Order("c_date DESC").
		Limit(6).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	messages := make([]domain.ChatMessage, len(rows))
	for i, row := range rows {
		messages[len(rows)-1-i] = chatToDomain(row)
	}
	return messages, nil
}

func chatToDomain(m models.ChatMessage) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        m.ID,
		SessionID: m.SessionID,
		AuthorID:  m.AuthorID,
		Content:   m.Content,
		Toxic:     m.Toxic,
		CreatedAt: m.CDate,
	}
}
