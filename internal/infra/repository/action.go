package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/squadup/squadup/internal/domain"
	"github.com/squadup/squadup/internal/infra/database/models"
)

type ActionRepository struct {
	db *gorm.DB
}

func NewActionRepository(db *gorm.DB) *ActionRepository {
	return &ActionRepository{db: db}
}

// Issue deactivates any active action of the same kind for the identity and
// inserts the new one in a single transaction, preserving the
// one-active-per-kind invariant without stacking.
func (r *ActionRepository) Issue(ctx context.Context, action domain.DisciplinaryAction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.DisciplinaryAction{}).
			Where("identity_id = ? AND kind = ? AND active = true", action.IdentityID, string(action.Kind)).
			Update("active", false).Error
		if err != nil {
			return err
		}

		return tx.Create(&models.DisciplinaryAction{
			ID:         action.ID,
			IdentityID: action.IdentityID,
			Kind:       string(action.Kind),
			IssuerID:   action.IssuerID,
			Reason:     action.Reason,
			ExpiresAt:  action.ExpiresAt,
			Active:     true,
		}).Error
	})
}

// Active returns the active action of the given kind, or nil when none
// exists. Expired actions are still returned; expiry is the caller's lazy
// concern.
func (r *ActionRepository) Active(ctx context.Context, identityID string, kind domain.ActionKind) (*domain.DisciplinaryAction, error) {
	var row models.DisciplinaryAction
	err := r.db.WithContext(ctx).
		Where("identity_id = ? AND kind = ? AND active = true", identityID, string(kind)).
		Order("c_date DESC").
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	action := actionToDomain(row)
	return &action, nil
}

// ActiveFor lists all active actions against an identity.
func (r *ActionRepository) ActiveFor(ctx context.Context, identityID string) ([]domain.DisciplinaryAction, error) {
	var rows []models.DisciplinaryAction
	err := r.db.WithContext(ctx).
		Where("identity_id = ? AND active = true", identityID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	actions := make([]domain.DisciplinaryAction, 0, len(rows))
	for _, row := range rows {
		actions = append(actions, actionToDomain(row))
	}
	return actions, nil
}

// Deactivate sets active=false unconditionally; deactivating an inactive or
// missing action is a no-op.
func (r *ActionRepository) Deactivate(ctx context.Context, actionID string) error {
	return r.db.WithContext(ctx).Model(&models.DisciplinaryAction{}).
		Where("id = ?", actionID).
		Update("active", false).Error
}

func (r *ActionRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.DisciplinaryAction{}).
		Where("active = true").
		Count(&count).Error
	return count, err
}

func actionToDomain(m models.DisciplinaryAction) domain.DisciplinaryAction {
	return domain.DisciplinaryAction{
		ID:         m.ID,
		IdentityID: m.IdentityID,
		Kind:       domain.ActionKind(m.Kind),
		IssuerID:   m.IssuerID,
		Reason:     m.Reason,
		ExpiresAt:  m.ExpiresAt,
		Active:     m.Active,
		CreatedAt:  m.CDate,
	}
}
