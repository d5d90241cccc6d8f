package domain

import "time"

type EndorsementCategory string

const (
	EndorseTeamPlayer EndorsementCategory = "team_player"
	EndorsePositive   EndorsementCategory = "positive"
	EndorseSkilled    EndorsementCategory = "skilled"
	EndorseShotcaller EndorsementCategory = "shotcaller"
)

// ParseEndorsementCategory validates the fixed 4-way category enum.
func ParseEndorsementCategory(s string) (EndorsementCategory, error) {
	switch EndorsementCategory(s) {
	case EndorseTeamPlayer, EndorsePositive, EndorseSkilled, EndorseShotcaller:
		return EndorsementCategory(s), nil
	}
	return "", InvalidStateError{Reason: "invalid endorsement category: " + s}
}

// ProvenanceEndorsement tags trust edges created by endorsement events.
const ProvenanceEndorsement = "endorsement"

// TrustEdge is a directed weighted endorsement relation, unique per ordered
// (source, target) pair. Weight lives in (0,1] and never decreases.
type TrustEdge struct {
	SourceID   string    `json:"sourceId"`
	TargetID   string    `json:"targetId"`
	Weight     float64   `json:"weight"`
	Provenance string    `json:"provenance"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
