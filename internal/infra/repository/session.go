package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/squadup/squadup/internal/domain"
	"github.com/squadup/squadup/internal/infra/database/models"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts the session together with the host's implicit membership.
func (r *SessionRepository) Create(ctx context.Context, session domain.Session) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Session{
			ID:               session.ID,
			HostID:           session.HostID,
			GameID:           session.GameID,
			Title:            session.Title,
			Description:      session.Description,
			Region:           session.Region,
			MicRequired:      session.MicRequired,
			Capacity:         session.Capacity,
			Occupancy:        1,
			Status:           string(domain.SessionOpen),
			MinCompatibility: session.MinCompatibility,
			MinTrust:         session.MinTrust,
		}).Error; err != nil {
			return err
		}
		return tx.Create(&models.Membership{
			SessionID:  session.ID,
			IdentityID: session.HostID,
		}).Error
	})
}

func (r *SessionRepository) Get(ctx context.Context, id string) (domain.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Session{}, domain.NotFoundError{Resource: "session"}
		}
		return domain.Session{}, err
	}
	return sessionToDomain(session), nil
}

func (r *SessionRepository) ListOpen(ctx context.Context, gameID, region string) ([]domain.Session, error) {
	query := r.db.WithContext(ctx).Where("status = ?", string(domain.SessionOpen))
	if gameID != "" {
		query = query.Where("game_id = ?", gameID)
	}
	if region != "" {
		query = query.Where("region = ?", region)
	}

	var rows []models.Session
	if err := query.Order("c_date DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	sessions := make([]domain.Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, sessionToDomain(row))
	}
	return sessions, nil
}

// Join is the single global admission decision for a session. The row lock
// serializes concurrent joins so occupancy can never pass capacity and the
// FULL flip happens in the same atomic step as the membership insert.
func (r *SessionRepository) Join(ctx context.Context, sessionID, identityID string) (domain.Session, error) {
	var joined domain.Session
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.Session
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", sessionID).
			Take(&session).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundError{Resource: "session"}
			}
			return err
		}

		if session.Status == string(domain.SessionClosed) {
			return domain.ErrNotOpen
		}
		if session.Status == string(domain.SessionFull) || session.Occupancy >= session.Capacity {
			return domain.ErrFull
		}

		var count int64
		err = tx.Model(&models.Membership{}).
			Where("session_id = ? AND identity_id = ?", sessionID, identityID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrAlreadyMember
		}

		if err := tx.Create(&models.Membership{
			SessionID:  sessionID,
			IdentityID: identityID,
		}).Error; err != nil {
			return err
		}

		session.Occupancy++
		if session.Occupancy >= session.Capacity {
			session.Status = string(domain.SessionFull)
		}
		err = tx.Model(&models.Session{}).Where("id = ?", sessionID).
			Updates(map[string]any{
				"occupancy": session.Occupancy,
				"status":    session.Status,
			}).Error
		if err != nil {
			return err
		}

		joined = sessionToDomain(session)
		return nil
	})
	return joined, err
}

// Leave removes the membership and decrements occupancy atomically. Host
// departure or an emptied roster closes the session in the same step; the
// remaining memberships are removed with it.
func (r *SessionRepository) Leave(ctx context.Context, sessionID, identityID string) (domain.LeaveResult, error) {
	var result domain.LeaveResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.Session
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", sessionID).
			Take(&session).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundError{Resource: "session"}
			}
			return err
		}

		res := tx.Where("session_id = ? AND identity_id = ?", sessionID, identityID).
			Delete(&models.Membership{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotMember
		}

		session.Occupancy--

		closed := false
		reason := ""
		if identityID == session.HostID {
			closed = true
			reason = "host_left"
		} else if session.Occupancy <= 0 {
			closed = true
			reason = "empty"
		}

		if closed {
			if err := tx.Where("session_id = ?", sessionID).
				Delete(&models.Membership{}).Error; err != nil {
				return err
			}
			session.Status = string(domain.SessionClosed)
			session.Occupancy = 0
		} else if session.Status == string(domain.SessionFull) {
			session.Status = string(domain.SessionOpen)
		}

		err = tx.Model(&models.Session{}).Where("id = ?", sessionID).
			Updates(map[string]any{
				"occupancy": session.Occupancy,
				"status":    session.Status,
			}).Error
		if err != nil {
			return err
		}

		result = domain.LeaveResult{Session: sessionToDomain(session), Closed: closed, Reason: reason}
		return nil
	})
	return result, err
}

// Close transitions a non-closed session directly to CLOSED and clears the
// roster. Closing an already-closed session fails with ErrNotOpen.
func (r *SessionRepository) Close(ctx context.Context, sessionID string) ([]string, error) {
	var members []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.Session
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", sessionID).
			Take(&session).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundError{Resource: "session"}
			}
			return err
		}
		if session.Status == string(domain.SessionClosed) {
			return domain.ErrNotOpen
		}

		members, err = memberIDs(tx, sessionID)
		if err != nil {
			return err
		}

		if err := tx.Where("session_id = ?", sessionID).
			Delete(&models.Membership{}).Error; err != nil {
			return err
		}

		return tx.Model(&models.Session{}).Where("id = ?", sessionID).
			Updates(map[string]any{"occupancy": 0, "status": string(domain.SessionClosed)}).Error
	})
	return members, err
}

// DeleteCascade removes chat messages, memberships and the session record
// as one logical transaction, so no partially-deleted session survives a
// crash boundary. Returns the member ids that held a membership.
func (r *SessionRepository) DeleteCascade(ctx context.Context, sessionID string) ([]string, error) {
	var members []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.Session
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", sessionID).
			Take(&session).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundError{Resource: "session"}
			}
			return err
		}

		members, err = memberIDs(tx, sessionID)
		if err != nil {
			return err
		}

		if err := tx.Where("session_id = ?", sessionID).
			Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", sessionID).
			Delete(&models.Membership{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", sessionID).Delete(&models.Session{}).Error
	})
	return members, err
}

func (r *SessionRepository) Members(ctx context.Context, sessionID string) ([]string, error) {
	return memberIDs(r.db.WithContext(ctx), sessionID)
}

func (r *SessionRepository) IsMember(ctx context.Context, sessionID, identityID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Membership{}).
		Where("session_id = ? AND identity_id = ?", sessionID, identityID).
		Count(&count).Error
	return count > 0, err
}

func memberIDs(db *gorm.DB, sessionID string) ([]string, error) {
	var ids []string
	err := db.Model(&models.Membership{}).
		Where("session_id = ?", sessionID).
		Pluck("identity_id", &ids).Error
	return ids, err
}

func sessionToDomain(m models.Session) domain.Session {
	return domain.Session{
		ID:               m.ID,
		HostID:           m.HostID,
		GameID:           m.GameID,
		Title:            m.Title,
		Description:      m.Description,
		Region:           m.Region,
		MicRequired:      m.MicRequired,
		Capacity:         m.Capacity,
		Occupancy:        m.Occupancy,
		Status:           domain.SessionStatus(m.Status),
		MinCompatibility: m.MinCompatibility,
		MinTrust:         m.MinTrust,
		CreatedAt:        m.CDate,
	}
}
