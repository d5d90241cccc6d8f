package usecase

import (
	"context"

	"github.com/squadup/squadup"
	"github.com/squadup/squadup/internal/domain"
)

// IdentityRepository defines persistence for identities, their reputation
// ledger, and their behavioral profile.
type IdentityRepository interface {
	Get(ctx context.Context, id string) (domain.Identity, error)
	Upsert(ctx context.Context, identity domain.Identity) error
	ApplyReputation(ctx context.Context, id string, delta int, toxic bool) (int, error)
	NudgeTrust(ctx context.Context, id string, amount float64) error
	IncrementEndorsement(ctx context.Context, id string, category domain.EndorsementCategory) (domain.EndorsementCounts, error)
	UpdateVector(ctx context.Context, id string, v domain.BehavioralVector) error
	Flagged(ctx context.Context) ([]domain.Identity, error)
}

// SessionRepository defines persistence for sessions and memberships. Join,
// Leave and Close are the only mutators of occupancy and status, and each
// runs as a single atomic decision.
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, id string) (domain.Session, error)
	ListOpen(ctx context.Context, gameID, region string) ([]domain.Session, error)
	Join(ctx context.Context, sessionID, identityID string) (domain.Session, error)
	Leave(ctx context.Context, sessionID, identityID string) (domain.LeaveResult, error)
	Close(ctx context.Context, sessionID string) ([]string, error)
	DeleteCascade(ctx context.Context, sessionID string) ([]string, error)
	Members(ctx context.Context, sessionID string) ([]string, error)
	IsMember(ctx context.Context, sessionID, identityID string) (bool, error)
}

// TrustRepository defines persistence for the directed trust graph.
type TrustRepository interface {
	Upsert(ctx context.Context, sourceID, targetID string) (domain.TrustEdge, error)
	Incoming(ctx context.Context, targetID string, limit int) ([]domain.TrustEdge, error)
	Outgoing(ctx context.Context, sourceID string, limit int) ([]domain.TrustEdge, error)
	Counts(ctx context.Context, identityID string) (incoming int64, outgoing int64, err error)
}

// ActionRepository defines persistence for disciplinary actions.
type ActionRepository interface {
	Issue(ctx context.Context, action domain.DisciplinaryAction) error
	Active(ctx context.Context, identityID string, kind domain.ActionKind) (*domain.DisciplinaryAction, error)
	ActiveFor(ctx context.Context, identityID string) ([]domain.DisciplinaryAction, error)
	Deactivate(ctx context.Context, actionID string) error
}

// ChatRepository defines the append-only chat log.
type ChatRepository interface {
	Append(ctx context.Context, message domain.ChatMessage) error
	Recent(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error)
	Context(ctx context.Context, messageID string) ([]domain.ChatMessage, error)
}

// NotificationRepository defines persistence for notifications.
type NotificationRepository interface {
	Append(ctx context.Context, n domain.Notification) error
	ListRecent(ctx context.Context, recipientID string, limit int) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
	MarkRead(ctx context.Context, recipientID, notificationID string) error
	MarkAllRead(ctx context.Context, recipientID string) error
}

// AuditRepository defines the append-only staff audit sink.
type AuditRepository interface {
	Append(ctx context.Context, entry domain.AuditEntry) error
	Recent(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}

// CatalogRepository defines lookup for the game catalog.
type CatalogRepository interface {
	List(ctx context.Context) ([]domain.Game, error)
}

// StatsRepository defines the aggregate snapshot query.
type StatsRepository interface {
	Snapshot(ctx context.Context) (domain.Stats, error)
}

// Publisher fans events out to realtime consumers. Publishing is fire-and-
// forget relative to storage: a failed publish never rolls back a commit.
type Publisher interface {
	Publish(ctx context.Context, channel string, event squadup.Event) error
}
