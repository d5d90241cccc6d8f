package domain

// Stats is the aggregate snapshot behind the staff operational feed.
type Stats struct {
	TotalIdentities   int64
	FlaggedIdentities int64
	ToxicityFlagSum   int64
	ActiveActions     int64
	OpenSessions      int64
	TrustEdges        int64
}
