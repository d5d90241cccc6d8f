package squadup

import (
	"encoding/json"
	"time"
)

// Event kinds carried on the realtime feed.
const (
	EventMessage         = "message"
	EventReputationDelta = "reputation_delta"
	EventSessionState    = "session_state"
	EventNotification    = "notification"
	EventStaffActivity   = "staff_activity"
	EventStatsSnapshot   = "stats_snapshot"
)

// Event is the envelope delivered to every realtime consumer. Channel is the
// room the event belongs to; Payload is one of the *Payload types below,
// discriminated by Kind.
type Event struct {
	Kind    string          `json:"kind"`
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload"`
	SentAt  time.Time       `json:"sentAt"`
}

// NewEvent wraps payload into an Event envelope.
func NewEvent(kind, channel string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Kind:    kind,
		Channel: channel,
		Payload: raw,
		SentAt:  time.Now().UTC(),
	}, nil
}

type MessagePayload struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	AuthorID  string    `json:"authorId"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Toxic     bool      `json:"toxic"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReputationDeltaPayload is delivered privately to the message author after
// the ledger write committed. Known is false when scoring failed and the
// reputation effect is unknown.
type ReputationDeltaPayload struct {
	IdentityID string `json:"identityId"`
	Delta      int    `json:"delta"`
	NewScore   int    `json:"newScore"`
	Label      string `json:"label"`
	Known      bool   `json:"known"`
}

type SessionStatePayload struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
	Occupancy int    `json:"occupancy"`
	Reason    string `json:"reason,omitempty"`
}

type NotificationPayload struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type StaffActivityPayload struct {
	ActorID  string    `json:"actorId"`
	Action   string    `json:"action"`
	TargetID string    `json:"targetId,omitempty"`
	Details  string    `json:"details,omitempty"`
	At       time.Time `json:"at"`
}

type StatsSnapshotPayload struct {
	TotalIdentities   int64     `json:"totalIdentities"`
	FlaggedIdentities int64     `json:"flaggedIdentities"`
	ActiveActions     int64     `json:"activeActions"`
	OpenSessions      int64     `json:"openSessions"`
	TrustEdges        int64     `json:"trustEdges"`
	At                time.Time `json:"at"`
}
