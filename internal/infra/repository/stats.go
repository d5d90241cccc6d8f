package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/squadup/squadup/internal/domain"
	"github.com/squadup/squadup/internal/infra/database/models"
)

type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) Snapshot(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Identity{}).Count(&stats.TotalIdentities).Error; err != nil {
		return domain.Stats{}, err
	}
	if err := db.Model(&models.Identity{}).
		Where("toxicity_flags > 0").
		Count(&stats.FlaggedIdentities).Error; err != nil {
		return domain.Stats{}, err
	}

	var sum *int64
	if err := db.Model(&models.Identity{}).
		Select("SUM(toxicity_flags)").
		Scan(&sum).Error; err != nil {
		return domain.Stats{}, err
	}
	if sum != nil {
		stats.ToxicityFlagSum = *sum
	}

	if err := db.Model(&models.DisciplinaryAction{}).
		Where("active = true").
		Count(&stats.ActiveActions).Error; err != nil {
		return domain.Stats{}, err
	}
	if err := db.Model(&models.Session{}).
		Where("status = ?", string(domain.SessionOpen)).
		Count(&stats.OpenSessions).Error; err != nil {
		return domain.Stats{}, err
	}
	if err := db.Model(&models.TrustEdge{}).Count(&stats.TrustEdges).Error; err != nil {
		return domain.Stats{}, err
	}

	return stats, nil
}
