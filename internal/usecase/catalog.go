package usecase

import (
	"context"

	"github.com/squadup/squadup/internal/domain"
)

type CatalogUsecase struct {
	catalog CatalogRepository
}

func NewCatalogUsecase(catalog CatalogRepository) *CatalogUsecase {
	return &CatalogUsecase{catalog: catalog}
}

func (uc *CatalogUsecase) List(ctx context.Context) ([]domain.Game, error) {
	return uc.catalog.List(ctx)
}
