package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/charlesng35/lootguard/internal/providers"
	"github.com/charlesng35/lootguard/pkg/logger"
	"github.com/charlesng35/lootguard/pkg/metrics"
)

// RelationshipConfig selects which relationship sources participate in the
// bypass check.
type RelationshipConfig struct {
	// Honor gates the whole check; when false no relationship ever bypasses
	// protection, whatever the providers say.
	Honor      bool
	UseFriends bool
	UseClans   bool
	UseTeams   bool
}

// RelationshipService resolves whether two identities are related through
// friends, clan or team membership. Providers are optional and fail open: an
// absent, erroring or timed-out provider counts as "not related" for its
// source only.
type RelationshipService struct {
	cfg     RelationshipConfig
	friends providers.FriendsProvider
	clans   providers.ClanProvider
	teams   providers.TeamProvider
	log     *zap.Logger
}

// NewRelationshipService constructs a relationship service. Any provider may
// be nil, meaning the source is not configured.
func NewRelationshipService(
	cfg RelationshipConfig,
	friends providers.FriendsProvider,
	clans providers.ClanProvider,
	teams providers.TeamProvider,
) *RelationshipService {
	return &RelationshipService{
		cfg:     cfg,
		friends: friends,
		clans:   clans,
		teams:   teams,
		log:     logger.WithModule("relationship"),
	}
}

// AreRelated reports whether actor and owner share a friendship, a non-empty
// clan, or a team.
func (s *RelationshipService) AreRelated(ctx context.Context, actorID, ownerID string) bool {
	if !s.cfg.Honor {
		return false
	}
	ctx = ensureContext(ctx)

	if s.cfg.UseFriends && s.friends != nil {
		related, err := s.friends.AreFriends(ctx, actorID, ownerID)
		if err != nil {
			s.providerFailed("friends", err)
		} else if related {
			return true
		}
	}

	if s.cfg.UseClans && s.clans != nil {
		actorClan, err := s.clans.ClanOf(ctx, actorID)
		if err != nil {
			s.providerFailed("clans", err)
		} else if actorClan != "" {
			ownerClan, err := s.clans.ClanOf(ctx, ownerID)
			if err != nil {
				s.providerFailed("clans", err)
			} else if actorClan == ownerClan {
				return true
			}
		}
	}

	if s.cfg.UseTeams && s.teams != nil {
		same, err := s.teams.SameTeam(ctx, actorID, ownerID)
		if err != nil {
			s.providerFailed("teams", err)
		} else if same {
			return true
		}
	}

	return false
}

func (s *RelationshipService) providerFailed(name string, err error) {
	metrics.ProviderFailures.WithLabelValues(name).Inc()
	s.log.Warn("relationship provider failed", zap.String("provider", name), zap.Error(err))
}
