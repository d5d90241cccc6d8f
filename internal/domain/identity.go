package domain

type Role string

const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

// Staff reports whether the role carries moderation powers.
func (r Role) Staff() bool {
	return r == RoleModerator || r == RoleAdmin
}

// BehavioralVector is a fixed-dimension profile with every scalar in [0,1].
// Unknown keys are rejected at the boundary; there is deliberately no
// map-typed representation of this.
type BehavioralVector struct {
	CommunicationDensity float64 `json:"communicationDensity"`
	CompetitiveIntensity float64 `json:"competitiveIntensity"`
	ScheduleReliability  float64 `json:"scheduleReliability"`
	ToxicityTolerance    float64 `json:"toxicityTolerance"`
	MentorshipPropensity float64 `json:"mentorshipPropensity"`
}

// EndorsementCounts tracks received endorsements per category.
type EndorsementCounts struct {
	TeamPlayer int `json:"teamPlayer"`
	Positive   int `json:"positive"`
	Skilled    int `json:"skilled"`
	Shotcaller int `json:"shotcaller"`
}

func (c EndorsementCounts) Total() int {
	return c.TeamPlayer + c.Positive + c.Skilled + c.Shotcaller
}

// Identity is a registered participant tracked by the engine. Identities are
// never deleted, only updated.
type Identity struct {
	ID            string            `json:"id"`
	Username      string            `json:"username"`
	Role          Role              `json:"role"`
	Reputation    int               `json:"reputation"`
	ToxicityFlags int               `json:"toxicityFlags"`
	TrustScore    float64           `json:"trustScore"`
	Vector        *BehavioralVector `json:"vector,omitempty"`
	Endorsements  EndorsementCounts `json:"endorsements"`
}
