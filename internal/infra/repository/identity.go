package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/squadup/squadup/internal/domain"
	"github.com/squadup/squadup/internal/infra/database/models"
)

type IdentityRepository struct {
	db *gorm.DB
}

func NewIdentityRepository(db *gorm.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

func (r *IdentityRepository) Get(ctx context.Context, id string) (domain.Identity, error) {
	var identity models.Identity
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&identity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Identity{}, domain.NotFoundError{Resource: "identity"}
		}
		return domain.Identity{}, err
	}
	return identityToDomain(identity), nil
}

// Upsert registers or refreshes an identity record. Credential issuance is
// the collaborator's concern; this only mirrors its keyed record.
func (r *IdentityRepository) Upsert(ctx context.Context, identity domain.Identity) error {
	m := models.Identity{
		ID:         identity.ID,
		Username:   identity.Username,
		Role:       string(identity.Role),
		Reputation: identity.Reputation,
		TrustScore: identity.TrustScore,
	}
	if identity.Vector != nil {
		applyVector(&m, *identity.Vector)
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "role"}),
	}).Create(&m).Error
}

// ApplyReputation clamps the new score into [0,100] and increments the
// toxicity flag counter iff toxic, in one atomic update. The row lock makes
// the read-modify-write invisible to concurrent readers.
func (r *IdentityRepository) ApplyReputation(ctx context.Context, id string, delta int, toxic bool) (int, error) {
	var newScore int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var identity models.Identity
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			Take(&identity).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundError{Resource: "identity"}
			}
			return err
		}

		newScore = identity.Reputation + delta
		if newScore > domain.ReputationMax {
			newScore = domain.ReputationMax
		}
		if newScore < domain.ReputationMin {
			newScore = domain.ReputationMin
		}

		updates := map[string]any{"reputation": newScore}
		if toxic {
			updates["toxicity_flags"] = identity.ToxicityFlags + 1
		}

		return tx.Model(&models.Identity{}).Where("id = ?", id).Updates(updates).Error
	})
	return newScore, err
}

// NudgeTrust is an intentionally unsynchronized approximate write; lost
// updates under high concurrency are tolerable for this score.
func (r *IdentityRepository) NudgeTrust(ctx context.Context, id string, amount float64) error {
	return r.db.WithContext(ctx).Model(&models.Identity{}).
		Where("id = ?", id).
		Update("trust_score", gorm.Expr("LEAST(trust_score + ?, ?)", amount, domain.TrustCeiling)).Error
}

func (r *IdentityRepository) IncrementEndorsement(ctx context.Context, id string, category domain.EndorsementCategory) (domain.EndorsementCounts, error) {
	var column string
	switch category {
	case domain.EndorseTeamPlayer:
		column = "endorse_team_player"
	case domain.EndorsePositive:
		column = "endorse_positive"
	case domain.EndorseSkilled:
		column = "endorse_skilled"
	case domain.EndorseShotcaller:
		column = "endorse_shotcaller"
	default:
		return domain.EndorsementCounts{}, domain.InvalidStateError{Reason: "invalid endorsement category"}
	}

	res := r.db.WithContext(ctx).Model(&models.Identity{}).
		Where("id = ?", id).
		Update(column, gorm.Expr(column+" + 1"))
	if res.Error != nil {
		return domain.EndorsementCounts{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.EndorsementCounts{}, domain.NotFoundError{Resource: "identity"}
	}

	var identity models.Identity
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&identity).Error; err != nil {
		return domain.EndorsementCounts{}, err
	}
	return endorsementsOf(identity), nil
}

func (r *IdentityRepository) UpdateVector(ctx context.Context, id string, v domain.BehavioralVector) error {
	res := r.db.WithContext(ctx).Model(&models.Identity{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"has_vector":            true,
			"communication_density": v.CommunicationDensity,
			"competitive_intensity": v.CompetitiveIntensity,
			"schedule_reliability":  v.ScheduleReliability,
			"toxicity_tolerance":    v.ToxicityTolerance,
			"mentorship_propensity": v.MentorshipPropensity,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "identity"}
	}
	return nil
}

// Flagged lists non-staff identities with at least one toxicity flag, most
// flagged first.
func (r *IdentityRepository) Flagged(ctx context.Context) ([]domain.Identity, error) {
	var rows []models.Identity
	err := r.db.WithContext(ctx).
		Where("role = ? AND toxicity_flags > 0", string(domain.RoleUser)).
		Order("toxicity_flags DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	identities := make([]domain.Identity, 0, len(rows))
	for _, row := range rows {
		identities = append(identities, identityToDomain(row))
	}
	return identities, nil
}

func identityToDomain(m models.Identity) domain.Identity {
	identity := domain.Identity{
		ID:            m.ID,
		Username:      m.Username,
		Role:          domain.Role(m.Role),
		Reputation:    m.Reputation,
		ToxicityFlags: m.ToxicityFlags,
		TrustScore:    m.TrustScore,
		Endorsements:  endorsementsOf(m),
	}
	if m.HasVector {
		identity.Vector = &domain.BehavioralVector{
			CommunicationDensity: m.CommunicationDensity,
			CompetitiveIntensity: m.CompetitiveIntensity,
			ScheduleReliability:  m.ScheduleReliability,
			ToxicityTolerance:    m.ToxicityTolerance,
			MentorshipPropensity: m.MentorshipPropensity,
		}
	}
	return identity
}

func endorsementsOf(m models.Identity) domain.EndorsementCounts {
	return domain.EndorsementCounts{
		TeamPlayer: m.EndorseTeamPlayer,
		Positive:   m.EndorsePositive,
		Skilled:    m.EndorseSkilled,
		Shotcaller: m.EndorseShotcaller,
	}
}

func applyVector(m *models.Identity, v domain.BehavioralVector) {
	m.HasVector = true
	m.CommunicationDensity = v.CommunicationDensity
	m.CompetitiveIntensity = v.CompetitiveIntensity
	m.ScheduleReliability = v.ScheduleReliability
	m.ToxicityTolerance = v.ToxicityTolerance
	m.MentorshipPropensity = v.MentorshipPropensity
}
