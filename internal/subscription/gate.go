// Package subscription decides whether a user may use the bot based on
// membership of the required channels.
package subscription

import (
	"context"

	"github.com/rs/zerolog"
)

// Membership statuses that grant access.  "owner" is accepted alongside
// "creator" for platforms that report it that way.
var authorizedStatuses = map[string]bool{
	"member":        true,
	"administrator": true,
	"creator":       true,
	"owner":         true,
}

// MembershipChecker reports a user's status in a channel.
type MembershipChecker interface {
	MembershipStatus(ctx context.Context, channel string, userID int64) (string, error)
}

// AdminChecker identifies users that bypass the gate.
type AdminChecker interface {
	IsAdmin(userID int64) bool
}

// Gate checks required channel membership.  Results are never cached;
// every gated interaction queries the gateway again.
type Gate struct {
	checker  MembershipChecker
	admins   AdminChecker
	channels []string
	log      zerolog.Logger
}

func NewGate(checker MembershipChecker, admins AdminChecker, channels []string, log zerolog.Logger) *Gate {
	cp := make([]string, len(channels))
	copy(cp, channels)
	return &Gate{checker: checker, admins: admins, channels: cp, log: log}
}

// Channels returns the configured channel identifiers.
func (g *Gate) Channels() []string {
	out := make([]string, len(g.channels))
	copy(out, g.channels)
	return out
}

// IsAuthorized returns true when userID is an admin, when no channels are
// configured, or when the user is a member of every channel.  It stops at
// the first channel that fails.  Gateway errors deny access.
func (g *Gate) IsAuthorized(ctx context.Context, userID int64) bool {
	if g.admins != nil && g.admins.IsAdmin(userID) {
		return true
	}
	for _, ch := range g.channels {
		status, err := g.checker.MembershipStatus(ctx, ch, userID)
		if err != nil {
			g.log.Debug().Err(err).Str("channel", ch).Int64("user_id", userID).
				Msg("membership check failed, denying")
			return false
		}
		if !authorizedStatuses[status] {
			g.log.Debug().Str("channel", ch).Str("status", status).Int64("user_id", userID).
				Msg("not subscribed")
			return false
		}
	}
	return true
}
