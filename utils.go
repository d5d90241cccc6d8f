package squadup

import "strings"

// StaffChannel is the staff-only operational feed.
const StaffChannel = "staff"

const (
	sessionChannelPrefix  = "session:"
	identityChannelPrefix = "identity:"
)

func SessionChannel(sessionID string) string {
	return sessionChannelPrefix + sessionID
}

func IdentityChannel(identityID string) string {
	return identityChannelPrefix + identityID
}

// ParseSessionChannel returns the session id and true when ch is a session
// room channel.
func ParseSessionChannel(ch string) (string, bool) {
	if !strings.HasPrefix(ch, sessionChannelPrefix) {
		return "", false
	}
	return strings.TrimPrefix(ch, sessionChannelPrefix), true
}

// ParseIdentityChannel returns the identity id and true when ch is a private
// identity channel.
func ParseIdentityChannel(ch string) (string, bool) {
	if !strings.HasPrefix(ch, identityChannelPrefix) {
		return "", false
	}
	return strings.TrimPrefix(ch, identityChannelPrefix), true
}
