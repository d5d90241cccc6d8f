package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/squadup/squadup"
	"github.com/squadup/squadup/internal/domain"
)

const statsCacheKey = "stats"

// FlaggedIdentity pairs an identity from the review queue with its active
// disciplinary actions.
type FlaggedIdentity struct {
	Identity domain.Identity             `json:"identity"`
	Actions  []domain.DisciplinaryAction `json:"actions"`
}

// ModerationUsecase backs the staff surface: disciplinary actions, the
// review queue, manual ledger adjustments, and the operational stats feed.
type ModerationUsecase struct {
	actions       ActionRepository
	identity      IdentityRepository
	chat          ChatRepository
	audit         AuditRepository
	stats         StatsRepository
	notifications *NotificationUsecase
	reputation    *ReputationUsecase
	publisher     Publisher
	statsCache    *gocache.Cache
}

func NewModerationUsecase(
	actions ActionRepository,
	identity IdentityRepository,
	chat ChatRepository,
	audit AuditRepository,
	stats StatsRepository,
	notifications *NotificationUsecase,
	reputation *ReputationUsecase,
	publisher Publisher,
) *ModerationUsecase {
	return &ModerationUsecase{
		actions:       actions,
		identity:      identity,
		chat:          chat,
		audit:         audit,
		stats:         stats,
		notifications: notifications,
		reputation:    reputation,
		publisher:     publisher,
		statsCache:    gocache.New(15*time.Second, 1*time.Minute),
	}
}

// IssueMute places a timed mute on the target. Issuing over an existing
// active mute replaces it.
func (uc *ModerationUsecase) IssueMute(ctx context.Context, issuerID, targetID string, minutes int, reason string) (domain.DisciplinaryAction, error) {
	if minutes <= 0 {
		return domain.DisciplinaryAction{}, domain.InvalidStateError{Reason: "mute duration must be positive"}
	}
	if err := uc.checkTarget(ctx, targetID); err != nil {
		return domain.DisciplinaryAction{}, err
	}

	expiry := time.Now().UTC().Add(time.Duration(minutes) * time.Minute)
	action := domain.DisciplinaryAction{
		ID:         uuid.New().String(),
		IdentityID: targetID,
		Kind:       domain.ActionMute,
		IssuerID:   issuerID,
		Reason:     reason,
		ExpiresAt:  &expiry,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}
	if err := uc.actions.Issue(ctx, action); err != nil {
		return domain.DisciplinaryAction{}, err
	}

	uc.record(ctx, issuerID, "mute_issued", targetID, fmt.Sprintf("%d minutes: %s", minutes, reason))
	if err := uc.notifications.Notify(ctx, targetID, "mute", fmt.Sprintf("You have been muted for %d minutes: %s", minutes, reason)); err != nil {
		slog.Warn("failed to notify mute target",
			slog.String("error", err.Error()),
			slog.String("module", "moderation"),
		)
	}
	return action, nil
}

// IssueShadowBan places an indefinite shadow ban. The target is deliberately
// not notified; the ban only manifests as silently discarded joins.
func (uc *ModerationUsecase) IssueShadowBan(ctx context.Context, issuerID, targetID, reason string) (domain.DisciplinaryAction, error) {
	if err := uc.checkTarget(ctx, targetID); err != nil {
		return domain.DisciplinaryAction{}, err
	}

	action := domain.DisciplinaryAction{
		ID:         uuid.New().String(),
		IdentityID: targetID,
		Kind:       domain.ActionShadowBan,
		IssuerID:   issuerID,
		Reason:     reason,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}
	if err := uc.actions.Issue(ctx, action); err != nil {
		return domain.DisciplinaryAction{}, err
	}

	uc.record(ctx, issuerID, "shadow_ban_issued", targetID, reason)
	return action, nil
}

// MuteGate blocks the caller while an active mute has not expired. Expiry is
// evaluated lazily here; an expired mute is deactivated on first contact.
func (uc *ModerationUsecase) MuteGate(ctx context.Context, identityID string) error {
	action, err := uc.actions.Active(ctx, identityID, domain.ActionMute)
	if err != nil {
		return err
	}
	if action == nil {
		return nil
	}

	now := time.Now().UTC()
	if action.Expired(now) {
		if err := uc.actions.Deactivate(ctx, action.ID); err != nil {
			return err
		}
		return nil
	}

	remaining := 1
	if action.ExpiresAt != nil {
		remaining = int(math.Ceil(action.ExpiresAt.Sub(now).Minutes()))
		if remaining < 1 {
			remaining = 1
		}
	}
	return domain.RateBlockedError{RemainingMinutes: remaining}
}

// ShadowBanned reports whether the identity carries an active shadow ban.
func (uc *ModerationUsecase) ShadowBanned(ctx context.Context, identityID string) (bool, error) {
	action, err := uc.actions.Active(ctx, identityID, domain.ActionShadowBan)
	if err != nil {
		return false, err
	}
	if action == nil {
		return false, nil
	}
	if action.Expired(time.Now().UTC()) {
		if err := uc.actions.Deactivate(ctx, action.ID); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// Lift deactivates the target's active action of the given kind. Lifting
// when no action is active is a no-op.
func (uc *ModerationUsecase) Lift(ctx context.Context, actorID, targetID string, kind domain.ActionKind) error {
	action, err := uc.actions.Active(ctx, targetID, kind)
	if err != nil {
		return err
	}
	if action == nil {
		return nil
	}
	if err := uc.actions.Deactivate(ctx, action.ID); err != nil {
		return err
	}

	uc.record(ctx, actorID, string(kind)+"_lifted", targetID, "")
	if kind == domain.ActionMute {
		if err := uc.notifications.Notify(ctx, targetID, "mute_lifted", "Your mute has been lifted."); err != nil {
			slog.Warn("failed to notify lift target",
				slog.String("error", err.Error()),
				slog.String("module", "moderation"),
			)
		}
	}
	return nil
}

// Warn records a formal warning and delivers it to the target.
func (uc *ModerationUsecase) Warn(ctx context.Context, actorID, targetID, message string) error {
	if err := uc.checkTarget(ctx, targetID); err != nil {
		return err
	}
	uc.record(ctx, actorID, "warning_issued", targetID, message)
	return uc.notifications.Notify(ctx, targetID, "warning", message)
}

// Flagged returns the review queue: non-staff identities with at least one
// toxicity flag, most flagged first, with their active actions attached.
func (uc *ModerationUsecase) Flagged(ctx context.Context) ([]FlaggedIdentity, error) {
	identities, err := uc.identity.Flagged(ctx)
	if err != nil {
		return nil, err
	}

	flagged := make([]FlaggedIdentity, 0, len(identities))
	for _, id := range identities {
		actions, err := uc.actions.ActiveFor(ctx, id.ID)
		if err != nil {
			return nil, err
		}
		flagged = append(flagged, FlaggedIdentity{Identity: id, Actions: actions})
	}
	return flagged, nil
}

// MessageContext returns the flagged message with the five messages that
// preceded it in its session, in chronological order.
func (uc *ModerationUsecase) MessageContext(ctx context.Context, messageID string) ([]domain.ChatMessage, error) {
	return uc.chat.Context(ctx, messageID)
}

// ActionsFor lists the target's currently active actions.
func (uc *ModerationUsecase) ActionsFor(ctx context.Context, targetID string) ([]domain.DisciplinaryAction, error) {
	return uc.actions.ActiveFor(ctx, targetID)
}

// AdjustReputation applies a manual ledger correction. The adjustment goes
// through the same clamped write path as scored chat.
func (uc *ModerationUsecase) AdjustReputation(ctx context.Context, actorID, targetID string, delta int, reason string) (int, error) {
	if err := uc.checkTarget(ctx, targetID); err != nil {
		return 0, err
	}
	newScore, err := uc.reputation.Apply(ctx, targetID, delta, false, "staff adjustment")
	if err != nil {
		return 0, err
	}
	uc.record(ctx, actorID, "reputation_adjusted", targetID, fmt.Sprintf("%+d: %s", delta, reason))
	return newScore, nil
}

// AuditLog returns the most recent audit entries.
func (uc *ModerationUsecase) AuditLog(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	return uc.audit.Recent(ctx, limit)
}

// Stats returns the operational snapshot, cached briefly to keep the staff
// dashboard from hammering the aggregate queries.
func (uc *ModerationUsecase) Stats(ctx context.Context) (domain.Stats, error) {
	if cached, ok := uc.statsCache.Get(statsCacheKey); ok {
		return cached.(domain.Stats), nil
	}
	stats, err := uc.stats.Snapshot(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	uc.statsCache.Set(statsCacheKey, stats, gocache.DefaultExpiration)
	return stats, nil
}

// checkTarget rejects actions against unknown or staff identities.
func (uc *ModerationUsecase) checkTarget(ctx context.Context, targetID string) error {
	target, err := uc.identity.Get(ctx, targetID)
	if err != nil {
		return err
	}
	if target.Role.Staff() {
		return domain.InvalidStateError{Reason: "cannot target a staff identity"}
	}
	return nil
}

// record appends to the audit sink and mirrors the entry onto the staff
// activity feed. Neither failure aborts the action that triggered it.
func (uc *ModerationUsecase) record(ctx context.Context, actorID, action, targetID, details string) {
	entry := domain.AuditEntry{
		ID:       uuid.New().String(),
		ActorID:  actorID,
		Action:   action,
		TargetID: targetID,
		Details:  details,
		At:       time.Now().UTC(),
	}
	if err := uc.audit.Append(ctx, entry); err != nil {
		slog.Error("failed to append audit entry",
			slog.String("error", err.Error()),
			slog.String("module", "moderation"),
		)
	}

	event, err := squadup.NewEvent(squadup.EventStaffActivity, squadup.StaffChannel, squadup.StaffActivityPayload{
		ActorID:  entry.ActorID,
		Action:   entry.Action,
		TargetID: entry.TargetID,
		Details:  entry.Details,
		At:       entry.At,
	})
	if err != nil {
		return
	}
	if err := uc.publisher.Publish(ctx, event.Channel, event); err != nil {
		slog.Warn("failed to publish staff activity",
			slog.String("error", err.Error()),
			slog.String("module", "moderation"),
		)
	}
}
