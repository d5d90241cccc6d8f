package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/squadup/squadup/internal/domain"
	"github.com/squadup/squadup/internal/infra/database/models"
)

// CatalogRepository serves static game metadata.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) List(ctx context.Context) ([]domain.Game, error) {
	var rows []models.Game
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	games := make([]domain.Game, 0, len(rows))
	for _, row := range rows {
		games = append(games, domain.Game{ID: row.ID, Name: row.Name, Genre: row.Genre})
	}
	return games, nil
}

// Seed upserts the given games by name.
func (r *CatalogRepository) Seed(ctx context.Context, games []domain.Game) error {
	for _, game := range games {
		err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&models.Game{ID: game.ID, Name: game.Name, Genre: game.Genre}).Error
		if err != nil {
			return err
		}
	}
	return nil
}
