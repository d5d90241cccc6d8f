package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/squadup/squadup/internal/domain"
	"github.com/squadup/squadup/internal/infra/database/models"
)

// AuditRepository is the append-only record sink for staff activity.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, entry domain.AuditEntry) error {
	return r.db.WithContext(ctx).Create(&models.AuditEntry{
		ID:       entry.ID,
		ActorID:  entry.ActorID,
		Action:   entry.Action,
		TargetID: entry.TargetID,
		Details:  entry.Details,
	}).Error
}

func (r *AuditRepository) Recent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	var rows []models.AuditEntry
	err := r.db.WithContext(ctx).
		Order("c_date DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]domain.AuditEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, domain.AuditEntry{
			ID:       row.ID,
			ActorID:  row.ActorID,
			Action:   row.Action,
			TargetID: row.TargetID,
			Details:  row.Details,
			At:       row.CDate,
		})
	}
	return entries, nil
}
