package domain

import "time"

type SessionStatus string

const (
	SessionOpen   SessionStatus = "OPEN"
	SessionFull   SessionStatus = "FULL"
	SessionClosed SessionStatus = "CLOSED"
)

// Session is an ad-hoc group-play lobby. Occupancy and status are mutated
// only by the session lifecycle manager; CLOSED is terminal.
type Session struct {
	ID          string        `json:"id"`
	HostID      string        `json:"hostId"`
	GameID      string        `json:"gameId"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Region      string        `json:"region"`
	MicRequired bool          `json:"micRequired"`
	Capacity    int           `json:"capacity"`
	Occupancy   int           `json:"occupancy"`
	Status      SessionStatus `json:"status"`

	// Optional behavioral admission thresholds.
	MinCompatibility *float64 `json:"minCompatibility,omitempty"`
	MinTrust         *float64 `json:"minTrust,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Joinable reports whether the session accepts join attempts at all.
func (s Session) Joinable() bool {
	return s.Status == SessionOpen
}

// LeaveResult reports the post-leave state the caller needs to render and
// broadcast.
type LeaveResult struct {
	Session Session
	Closed  bool
	Reason  string
}

// Membership is the join relation between an identity and a session.
// Its existence contributes exactly one to the session's occupancy.
type Membership struct {
	SessionID  string    `json:"sessionId"`
	IdentityID string    `json:"identityId"`
	JoinedAt   time.Time `json:"joinedAt"`
}

// Game is static catalog metadata referenced by sessions.
type Game struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Genre string `json:"genre"`
}
