// Package providers defines the capability interfaces the decision engine
// consumes from collaborating systems. Each provider is optional; a nil
// provider means the capability is not configured, which the engine treats as
// "no opinion" rather than an error.
package providers

import (
	"context"
	"time"
)

// FriendsProvider answers whether two identities are friends.
type FriendsProvider interface {
	AreFriends(ctx context.Context, actorID, ownerID string) (bool, error)
}

// ClanProvider resolves the clan an identity belongs to. An empty string
// means the identity is not in a clan.
type ClanProvider interface {
	ClanOf(ctx context.Context, actorID string) (string, error)
}

// TeamProvider answers whether two identities are on the same team.
type TeamProvider interface {
	SameTeam(ctx context.Context, actorID, ownerID string) (bool, error)
}

// ZoneProvider resolves the zone identifiers an identity currently occupies.
type ZoneProvider interface {
	ZonesOf(ctx context.Context, actorID string) ([]string, error)
}

// GameClock reports the current in-game time. The game clock can run many
// times faster than wall time, so callers poll it rather than derive it.
type GameClock interface {
	Now(ctx context.Context) (time.Time, error)
}

// OverrideFunc lets a collaborating system grant a blanket allow for an
// interaction before the engine evaluates its own rules. A nil result means
// the system has no opinion and evaluation proceeds.
type OverrideFunc func(ctx context.Context, resourceType, actorID, ownerID string) *bool
