package domain

const (
	RequesterIdCtxKey   = "sq-requesterId"
	RequesterRoleCtxKey = "sq-requesterRole"
)

const (
	ReputationMin = 0
	ReputationMax = 100
)

// DefaultTrustScore is the nominal baseline for identities with no trust
// history.
const DefaultTrustScore = 0.5

const (
	// EdgeInitialWeight is the trust edge weight on first endorsement.
	EdgeInitialWeight = 0.8
	// EdgeReinforcedWeight is the floor weight after any re-endorsement.
	// The edge weight only ever ratchets upward.
	EdgeReinforcedWeight = 0.9
	// TrustNudge is the cheap per-endorsement trust score boost applied in
	// place of a full trust propagation pass.
	TrustNudge = 0.01
	// TrustCeiling caps the aggregate trust score.
	TrustCeiling = 1.0
)
