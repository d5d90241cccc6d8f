package domain

import "time"

type ActionKind string

const (
	ActionMute      ActionKind = "mute"
	ActionShadowBan ActionKind = "shadow_ban"
)

// DisciplinaryAction restricts an identity. At most one action per
// (identity, kind) may be active at a time.
type DisciplinaryAction struct {
	ID         string     `json:"id"`
	IdentityID string     `json:"identityId"`
	Kind       ActionKind `json:"kind"`
	IssuerID   string     `json:"issuerId"`
	Reason     string     `json:"reason"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Expired reports whether a time-bound action has passed its expiry.
// Expiry is checked lazily at the next gated action; an expired action can
// remain active in storage until then.
func (a DisciplinaryAction) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && a.ExpiresAt.Before(now)
}
