package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/squadup/squadup"
	"github.com/squadup/squadup/internal/domain"
)

const (
	minSessionCapacity = 2
	maxSessionCapacity = 16

	// listRankingCutoff hides candidates a ranked listing scored below this;
	// unranked listings are never filtered.
	listRankingCutoff = 0.4
)

// JoinOutcome discriminates the three terminal states of a join attempt.
type JoinOutcome string

const (
	// Joined means the membership was committed.
	Joined JoinOutcome = "joined"
	// SilentlyBlocked means a shadow ban discarded the join. The rendered
	// response must be indistinguishable from Joined.
	SilentlyBlocked JoinOutcome = "silently_blocked"
	// Rejected means an admission threshold turned the requester away.
	Rejected JoinOutcome = "rejected"
)

// JoinResult is the outcome of a join attempt plus the session state to
// render.
type JoinResult struct {
	Outcome JoinOutcome
	Session domain.Session
	Reason  string
}

// CreateSessionInput is the validated input for opening a session.
type CreateSessionInput struct {
	HostID           string
	GameID           string
	Title            string
	Description      string
	Region           string
	MicRequired      bool
	Capacity         int
	MinCompatibility *float64
	MinTrust         *float64
}

// SessionListing pairs a session with the requester's compatibility against
// its host, when ranking was requested.
type SessionListing struct {
	Session       domain.Session              `json:"session"`
	Compatibility *domain.CompatibilityResult `json:"compatibility,omitempty"`
}

// SessionUsecase owns the session lifecycle: open, admit, depart, close.
type SessionUsecase struct {
	sessions      SessionRepository
	identity      IdentityRepository
	moderation    *ModerationUsecase
	notifications *NotificationUsecase
	audit         AuditRepository
	publisher     Publisher
}

func NewSessionUsecase(
	sessions SessionRepository,
	identity IdentityRepository,
	moderation *ModerationUsecase,
	notifications *NotificationUsecase,
	audit AuditRepository,
	publisher Publisher,
) *SessionUsecase {
	return &SessionUsecase{
		sessions:      sessions,
		identity:      identity,
		moderation:    moderation,
		notifications: notifications,
		audit:         audit,
		publisher:     publisher,
	}
}

// Create opens a session with the host as its first member.
func (uc *SessionUsecase) Create(ctx context.Context, input CreateSessionInput) (domain.Session, error) {
	if input.Title == "" {
		return domain.Session{}, domain.InvalidStateError{Reason: "title is required"}
	}
	if input.Capacity < minSessionCapacity || input.Capacity > maxSessionCapacity {
		return domain.Session{}, domain.InvalidStateError{
			Reason: fmt.Sprintf("capacity must be between %d and %d", minSessionCapacity, maxSessionCapacity),
		}
	}
	if err := validThreshold(input.MinCompatibility); err != nil {
		return domain.Session{}, err
	}
	if err := validThreshold(input.MinTrust); err != nil {
		return domain.Session{}, err
	}
	if _, err := uc.identity.Get(ctx, input.HostID); err != nil {
		return domain.Session{}, err
	}

	session := domain.Session{
		ID:               uuid.New().String(),
		HostID:           input.HostID,
		GameID:           input.GameID,
		Title:            input.Title,
		Description:      input.Description,
		Region:           input.Region,
		MicRequired:      input.MicRequired,
		Capacity:         input.Capacity,
		Occupancy:        1,
		Status:           domain.SessionOpen,
		MinCompatibility: input.MinCompatibility,
		MinTrust:         input.MinTrust,
		CreatedAt:        time.Now().UTC(),
	}
	if err := uc.sessions.Create(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// Join runs the admission sequence. Shadow bans short-circuit before any
// threshold or capacity check so a banned identity never learns it was
// treated differently; thresholds reject openly; the final membership
// decision is a single atomic step in storage.
func (uc *SessionUsecase) Join(ctx context.Context, sessionID, identityID string) (JoinResult, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return JoinResult{}, err
	}

	banned, err := uc.moderation.ShadowBanned(ctx, identityID)
	if err != nil {
		return JoinResult{}, err
	}
	if banned {
		return JoinResult{Outcome: SilentlyBlocked, Session: session}, nil
	}

	if session.MinTrust != nil || session.MinCompatibility != nil {
		requester, err := uc.identity.Get(ctx, identityID)
		if err != nil {
			return JoinResult{}, err
		}
		if session.MinTrust != nil && requester.TrustScore < *session.MinTrust {
			return JoinResult{Outcome: Rejected, Session: session, Reason: "trust below session threshold"}, nil
		}
		if session.MinCompatibility != nil {
			host, err := uc.identity.Get(ctx, session.HostID)
			if err != nil {
				return JoinResult{}, err
			}
			result := domain.SessionCompatibility(requester.Vector, host.Vector, requester.TrustScore, host.TrustScore)
			if result.Score < *session.MinCompatibility {
				return JoinResult{Outcome: Rejected, Session: session, Reason: "compatibility below session threshold"}, nil
			}
		}
	}

	joined, err := uc.sessions.Join(ctx, sessionID, identityID)
	if err != nil {
		return JoinResult{}, err
	}

	uc.publishState(ctx, joined, "")
	return JoinResult{Outcome: Joined, Session: joined}, nil
}

// Leave removes the requester's membership. A departing host or an emptied
// roster closes the session; the closure broadcast evicts the room.
func (uc *SessionUsecase) Leave(ctx context.Context, sessionID, identityID string) (domain.LeaveResult, error) {
	result, err := uc.sessions.Leave(ctx, sessionID, identityID)
	if err != nil {
		return domain.LeaveResult{}, err
	}
	uc.publishState(ctx, result.Session, result.Reason)
	return result, nil
}

// Close shuts the session down. Only the host or staff may close.
func (uc *SessionUsecase) Close(ctx context.Context, sessionID, requesterID string, staff bool) error {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.HostID != requesterID && !staff {
		return domain.ErrUnauthorized
	}

	if _, err := uc.sessions.Close(ctx, sessionID); err != nil {
		return err
	}
	session.Status = domain.SessionClosed
	session.Occupancy = 0
	uc.publishState(ctx, session, "closed")
	return nil
}

// Delete removes the session with its memberships and chat log. Members
// other than the requester are told where their session went, and the
// deletion lands in the audit trail. Returns the notified member count.
func (uc *SessionUsecase) Delete(ctx context.Context, sessionID, requesterID string, staff bool) (int, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if session.HostID != requesterID && !staff {
		return 0, domain.ErrUnauthorized
	}

	members, err := uc.sessions.DeleteCascade(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	session.Status = domain.SessionClosed
	session.Occupancy = 0
	uc.publishState(ctx, session, "deleted")

	notified := 0
	for _, member := range members {
		if member == requesterID {
			continue
		}
		uc.notify(ctx, member, "session_deleted", fmt.Sprintf("Session %q was deleted.", session.Title))
		notified++
	}

	uc.record(ctx, requesterID, "session_deleted", sessionID, session.Title)
	return notified, nil
}

// Terminate is the staff kill switch. Every member is notified and the
// termination is always audited. Returns the notified member count.
func (uc *SessionUsecase) Terminate(ctx context.Context, actorID, sessionID, reason string) (int, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	members, err := uc.sessions.DeleteCascade(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	session.Status = domain.SessionClosed
	session.Occupancy = 0
	uc.publishState(ctx, session, "terminated")

	for _, member := range members {
		uc.notify(ctx, member, "session_terminated",
			fmt.Sprintf("Session %q was terminated by staff: %s", session.Title, reason))
	}

	uc.staffRecord(ctx, actorID, "session_terminated", sessionID, reason)
	return len(members), nil
}

// List returns joinable sessions, newest first. When ranked is set and the
// requester has a behavioral profile, sessions are scored against their
// hosts, sorted best first, and poor matches are dropped.
func (uc *SessionUsecase) List(ctx context.Context, gameID, region, requesterID string, ranked bool) ([]SessionListing, error) {
	sessions, err := uc.sessions.ListOpen(ctx, gameID, region)
	if err != nil {
		return nil, err
	}

	listings := make([]SessionListing, 0, len(sessions))
	if !ranked {
		for _, s := range sessions {
			listings = append(listings, SessionListing{Session: s})
		}
		return listings, nil
	}

	requester, err := uc.identity.Get(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	for _, s := range sessions {
		host, err := uc.identity.Get(ctx, s.HostID)
		if err != nil {
			return nil, err
		}
		result := domain.SessionCompatibility(requester.Vector, host.Vector, requester.TrustScore, host.TrustScore)
		if !result.NeedsAssessment && result.Score < listRankingCutoff {
			continue
		}
		listings = append(listings, SessionListing{Session: s, Compatibility: &result})
	}

	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].Compatibility.Score > listings[j].Compatibility.Score
	})
	return listings, nil
}

// Get returns the session with its current roster.
func (uc *SessionUsecase) Get(ctx context.Context, sessionID string) (domain.Session, []string, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.Session{}, nil, err
	}
	members, err := uc.sessions.Members(ctx, sessionID)
	if err != nil {
		return domain.Session{}, nil, err
	}
	return session, members, nil
}

func (uc *SessionUsecase) publishState(ctx context.Context, session domain.Session, reason string) {
	event, err := squadup.NewEvent(squadup.EventSessionState, squadup.SessionChannel(session.ID), squadup.SessionStatePayload{
		SessionID: session.ID,
		Status:    string(session.Status),
		Occupancy: session.Occupancy,
		Reason:    reason,
	})
	if err != nil {
		return
	}
	if err := uc.publisher.Publish(ctx, event.Channel, event); err != nil {
		slog.Warn("failed to publish session state",
			slog.String("error", err.Error()),
			slog.String("session", session.ID),
			slog.String("module", "session"),
		)
	}
}

func (uc *SessionUsecase) notify(ctx context.Context, recipientID, kind, message string) {
	if err := uc.notifications.Notify(ctx, recipientID, kind, message); err != nil {
		slog.Warn("failed to notify member",
			slog.String("error", err.Error()),
			slog.String("module", "session"),
		)
	}
}

func (uc *SessionUsecase) record(ctx context.Context, actorID, action, targetID, details string) domain.AuditEntry {
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
			slog.String("module", "session"),
		)
	}
	return entry
}

func (uc *SessionUsecase) staffRecord(ctx context.Context, actorID, action, targetID, details string) {
	entry := uc.record(ctx, actorID, action, targetID, details)

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
			slog.String("module", "session"),
		)
	}
}

func validThreshold(v *float64) error {
	if v == nil {
		return nil
	}
	if *v < 0 || *v > 1 {
		return domain.InvalidStateError{Reason: "threshold must be within [0, 1]"}
	}
	return nil
}
