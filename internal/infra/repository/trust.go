package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/squadup/squadup/internal/domain"
	"github.com/squadup/squadup/internal/infra/database/models"
)

type TrustRepository struct {
	db *gorm.DB
}

func NewTrustRepository(db *gorm.DB) *TrustRepository {
	return &TrustRepository{db: db}
}

// Upsert creates the edge at the initial weight or ratchets an existing one
// up to the reinforced weight. GREATEST keeps the weight monotonic even if
// it was already above the reinforcement floor.
func (r *TrustRepository) Upsert(ctx context.Context, sourceID, targetID string) (domain.TrustEdge, error) {
	edge := models.TrustEdge{
		SourceID:   sourceID,
		TargetID:   targetID,
		Weight:     domain.EdgeInitialWeight,
		Provenance: domain.ProvenanceEndorsement,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source_id"}, {Name: "target_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"weight": gorm.Expr("GREATEST(trust_edges.weight, ?)", domain.EdgeReinforcedWeight),
			"m_date": gorm.Expr("clock_timestamp()"),
		}),
	}).Create(&edge).Error
	if err != nil {
		return domain.TrustEdge{}, err
	}

	var stored models.TrustEdge
	err = r.db.WithContext(ctx).
		Where("source_id = ? AND target_id = ?", sourceID, targetID).
		Take(&stored).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.TrustEdge{}, domain.NotFoundError{Resource: "trust edge"}
		}
		return domain.TrustEdge{}, err
	}
	return edgeToDomain(stored), nil
}

// Incoming lists edges pointing at target, heaviest first.
func (r *TrustRepository) Incoming(ctx context.Context, targetID string, limit int) ([]domain.TrustEdge, error) {
	var rows []models.TrustEdge
	err := r.db.WithContext(ctx).
		Where("target_id = ?", targetID).
		Order("weight DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return edgesToDomain(rows), nil
}

func (r *TrustRepository) Outgoing(ctx context.Context, sourceID string, limit int) ([]domain.TrustEdge, error) {
	var rows []models.TrustEdge
	err := r.db.WithContext(ctx).
		Where("source_id = ?", sourceID).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return edgesToDomain(rows), nil
}

func (r *TrustRepository) Counts(ctx context.Context, identityID string) (incoming int64, outgoing int64, err error) {
	err = r.db.WithContext(ctx).Model(&models.TrustEdge{}).
		Where("target_id = ?", identityID).
		Count(&incoming).Error
	if err != nil {
		return 0, 0, err
	}
	err = r.db.WithContext(ctx).Model(&models.TrustEdge{}).
		Where("source_id = ?", identityID).
		Count(&outgoing).Error
	return incoming, outgoing, err
}

func edgesToDomain(rows []models.TrustEdge) []domain.TrustEdge {
	edges := make([]domain.TrustEdge, 0, len(rows))
	for _, row := range rows {
		edges = append(edges, edgeToDomain(row))
	}
	return edges
}

func edgeToDomain(m models.TrustEdge) domain.TrustEdge {
	return domain.TrustEdge{
		SourceID:   m.SourceID,
		TargetID:   m.TargetID,
		Weight:     m.Weight,
		Provenance: m.Provenance,
		CreatedAt:  m.CDate,
		UpdatedAt:  m.MDate,
	}
}
