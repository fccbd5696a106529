package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/charlesng35/lootguard/internal/providers"
	"github.com/charlesng35/lootguard/internal/rules"
	"github.com/charlesng35/lootguard/pkg/logger"
	"github.com/charlesng35/lootguard/pkg/metrics"
)

// Rule names recorded with every decision. They identify which step of the
// pipeline settled the outcome.
const (
	RuleDisabled          = "disabled"
	RuleUntypedResource   = "untyped_resource"
	RuleOverrideHook      = "override_hook"
	RuleOwnBackpack       = "own_backpack"
	RuleOfflineOwner      = "offline_owner"
	RuleUnprotectedOwner  = "unprotected_owner"
	RuleUnresolvableActor = "unresolvable_actor"
	RuleOutOfScope        = "out_of_scope"
	RuleSystemOwned       = "system_owned"
	RuleSelf              = "self"
	RuleRelated           = "related"
	RuleBypassPermission  = "bypass_permission"
	RuleTable             = "rule_table"
	RuleDefaultDeny       = "default_deny"
	RuleAdminBypass       = "admin_bypass"
	RuleShared            = "shared"
	RuleFriendsGrant      = "friends_grant"
)

const (
	outcomeAllow = "allow"
	outcomeDeny  = "deny"
)

// DecisionConfig carries the protection options the engine evaluates against.
type DecisionConfig struct {
	// RequirePermission protects only owners holding PermProtected.
	RequirePermission bool
	// ProtectedDays stops protecting owners who disconnected more than this
	// many days ago. Zero disables the day threshold.
	ProtectedDays float64
	// AllowLootingOfflineOwner permits access to sleeping owners when no day
	// threshold is configured.
	AllowLootingOfflineOwner bool
	// AdminBypass lets PermAdmin holders skip every check.
	AdminBypass bool
	// RespondToActivationHooks lets collaborating systems flip the enabled
	// flag through the activation endpoints.
	RespondToActivationHooks bool
}

// Decision is the outcome of an evaluation and the rule that produced it.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Rule    string `json:"rule"`
}

// DecisionDeps bundles the engine's collaborators.
type DecisionDeps struct {
	State         *EngineState
	Sharing       *SharingService
	Presence      *PresenceService
	Permissions   *PermissionService
	Relationships *RelationshipService
	Zones         *ZoneScopeService
	Rules         *rules.Table
	Audit         *AuditService
	// Override is the external blanket-allow hook; nil means no collaborator
	// is registered.
	Override providers.OverrideFunc
}

// DecisionService answers "may actor A access resource R owned by O". Every
// failure on the decision path resolves toward allow: the engine would rather
// under-protect briefly than lock legitimate owners out of their own
// belongings because a dependency hiccuped.
type DecisionService struct {
	cfg  DecisionConfig
	deps DecisionDeps
	log  *zap.Logger

	mu            sync.Mutex
	openBackpacks map[string]string
}

// NewDecisionService constructs the decision engine.
func NewDecisionService(cfg DecisionConfig, deps DecisionDeps) (*DecisionService, error) {
	switch {
	case deps.State == nil:
		return nil, errors.New("decision service: engine state is required")
	case deps.Sharing == nil:
		return nil, errors.New("decision service: sharing service is required")
	case deps.Presence == nil:
		return nil, errors.New("decision service: presence service is required")
	case deps.Permissions == nil:
		return nil, errors.New("decision service: permission service is required")
	case deps.Relationships == nil:
		return nil, errors.New("decision service: relationship service is required")
	case deps.Zones == nil:
		return nil, errors.New("decision service: zone scope is required")
	case deps.Rules == nil:
		return nil, errors.New("decision service: rule table is required")
	case deps.Audit == nil:
		return nil, errors.New("decision service: audit service is required")
	}
	return &DecisionService{
		cfg:           cfg,
		deps:          deps,
		log:           logger.WithModule("decision"),
		openBackpacks: make(map[string]string),
	}, nil
}

// Decide runs the full evaluation pipeline. The order is significant: each
// step either settles the outcome or falls through to the next, and the rule
// table only speaks once every bypass has failed.
func (s *DecisionService) Decide(ctx context.Context, resourceType, actorID, ownerID string) Decision {
	ctx = ensureContext(ctx)
	resourceType = strings.TrimSpace(resourceType)
	actorID = strings.TrimSpace(actorID)
	ownerID = strings.TrimSpace(ownerID)

	decision := s.decide(ctx, resourceType, actorID, ownerID)
	s.record(ctx, decision, resourceType, "", actorID, ownerID)
	return decision
}

func (s *DecisionService) decide(ctx context.Context, resourceType, actorID, ownerID string) Decision {
	if !s.deps.State.Enabled() {
		return Decision{Allowed: true, Rule: RuleDisabled}
	}
	if resourceType == "" {
		return Decision{Allowed: true, Rule: RuleUntypedResource}
	}

	if s.deps.Override != nil {
		if verdict := s.deps.Override(ctx, resourceType, actorID, ownerID); verdict != nil && *verdict {
			return Decision{Allowed: true, Rule: RuleOverrideHook}
		}
	}

	if s.hasOpenBackpack(actorID) {
		return Decision{Allowed: true, Rule: RuleOwnBackpack}
	}

	if s.cfg.AllowLootingOfflineOwner && s.cfg.ProtectedDays == 0 && isPlayerIdentity(ownerID) {
		sleeping, err := s.deps.Presence.IsSleeping(ctx, ownerID)
		if err != nil {
			s.stepFailed("presence", err)
		} else if sleeping {
			return Decision{Allowed: true, Rule: RuleOfflineOwner}
		}
	} else if s.cfg.ProtectedDays > 0 && isPlayerIdentity(ownerID) {
		days, ok, err := s.deps.Presence.DaysSinceDisconnect(ctx, ownerID)
		if err != nil {
			s.stepFailed("presence", err)
		} else if ok && days > s.cfg.ProtectedDays {
			return Decision{Allowed: true, Rule: RuleOfflineOwner}
		}
	}

	if s.cfg.RequirePermission && isPlayerIdentity(ownerID) {
		protected, err := s.deps.Permissions.Has(ctx, ownerID, PermProtected)
		if err != nil {
			s.stepFailed("permissions", err)
		} else if !protected {
			return Decision{Allowed: true, Rule: RuleUnprotectedOwner}
		}
	}

	online, err := s.deps.Presence.IsOnline(ctx, actorID)
	if err != nil {
		s.stepFailed("presence", err)
		online = false
	}
	if !online {
		// An actor without a live session cannot be evaluated; the engine
		// cannot protect against identities it cannot observe.
		return Decision{Allowed: true, Rule: RuleUnresolvableActor}
	}

	if !s.deps.Zones.InControlledZone(ctx, actorID) {
		return Decision{Allowed: true, Rule: RuleOutOfScope}
	}

	if !isPlayerIdentity(ownerID) {
		return Decision{Allowed: true, Rule: RuleSystemOwned}
	}
	if actorID == ownerID {
		return Decision{Allowed: true, Rule: RuleSelf}
	}
	if s.deps.Relationships.AreRelated(ctx, actorID, ownerID) {
		return Decision{Allowed: true, Rule: RuleRelated}
	}

	bypass, err := s.deps.Permissions.Has(ctx, actorID, PermBypassAll)
	if err != nil {
		s.stepFailed("permissions", err)
	} else if bypass {
		return Decision{Allowed: true, Rule: RuleBypassPermission}
	}

	block, found, err := s.deps.Rules.Lookup(ctx, resourceType)
	if err != nil {
		s.stepFailed("rules", err)
		return Decision{Allowed: true, Rule: RuleTable}
	}
	if found {
		return Decision{Allowed: !block, Rule: RuleTable}
	}
	return Decision{Allowed: false, Rule: RuleDefaultDeny}
}

// EvaluateInteraction is the full per-event check the host calls: admin
// bypass first, then the pipeline, then the resource-specific share check as
// a final chance to allow.
func (s *DecisionService) EvaluateInteraction(ctx context.Context, resourceType, resourceID, actorID, ownerID string) Decision {
	ctx = ensureContext(ctx)
	resourceType = strings.TrimSpace(resourceType)
	resourceID = strings.TrimSpace(resourceID)
	actorID = strings.TrimSpace(actorID)
	ownerID = strings.TrimSpace(ownerID)

	if s.cfg.AdminBypass {
		admin, err := s.deps.Permissions.Has(ctx, actorID, PermAdmin)
		if err != nil {
			s.stepFailed("permissions", err)
		} else if admin {
			decision := Decision{Allowed: true, Rule: RuleAdminBypass}
			s.record(ctx, decision, resourceType, resourceID, actorID, ownerID)
			return decision
		}
	}

	decision := s.decide(ctx, resourceType, actorID, ownerID)
	if !decision.Allowed && resourceID != "" {
		if shared, rule := s.checkShare(ctx, ownerID, resourceID, actorID); shared {
			decision = Decision{Allowed: true, Rule: rule}
		}
	}

	s.record(ctx, decision, resourceType, resourceID, actorID, ownerID)
	return decision
}

// CheckShare reports whether the owner's sharing registry or a relationship
// independently admits the actor to the resource.
func (s *DecisionService) CheckShare(ctx context.Context, ownerID, resourceID, actorID string) bool {
	shared, _ := s.checkShare(ensureContext(ctx), strings.TrimSpace(ownerID), strings.TrimSpace(resourceID), strings.TrimSpace(actorID))
	return shared
}

func (s *DecisionService) checkShare(ctx context.Context, ownerID, resourceID, actorID string) (bool, string) {
	shared, err := s.deps.Sharing.IsSharedWith(ctx, ownerID, resourceID, actorID)
	if err != nil {
		s.stepFailed("sharing", err)
	} else if shared {
		return true, RuleShared
	}

	if !s.deps.Relationships.AreRelated(ctx, actorID, ownerID) {
		return false, ""
	}

	friendsGrant, err := s.deps.Sharing.HasFriendsGrant(ctx, ownerID, resourceID)
	if err != nil {
		s.stepFailed("sharing", err)
		friendsGrant = false
	}
	if friendsGrant {
		return true, RuleFriendsGrant
	}
	return true, RuleRelated
}

// OpenBackpack records that the actor is looting a backpack-style container
// belonging to the given owner. While the context is open the actor takes the
// self-access fast path.
func (s *DecisionService) OpenBackpack(actorID, ownerID string) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, open := s.openBackpacks[actorID]; !open {
		s.openBackpacks[actorID] = strings.TrimSpace(ownerID)
	}
}

// CloseBackpack clears the actor's backpack context.
func (s *DecisionService) CloseBackpack(actorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.openBackpacks, strings.TrimSpace(actorID))
}

func (s *DecisionService) hasOpenBackpack(actorID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, open := s.openBackpacks[actorID]
	return open
}

// SetEnabled flips the protection flag.
func (s *DecisionService) SetEnabled(v bool) {
	s.deps.State.SetEnabled(v)
}

// Enabled reports the protection flag.
func (s *DecisionService) Enabled() bool {
	return s.deps.State.Enabled()
}

// ToggleLogging flips decision-path logging and returns the new value.
func (s *DecisionService) ToggleLogging() bool {
	return s.deps.State.ToggleLogging()
}

// HandleActivation processes an external enable/disable hook. It reports
// whether the hook was honored.
func (s *DecisionService) HandleActivation(enable bool) bool {
	if !s.cfg.RespondToActivationHooks {
		return false
	}
	s.deps.State.SetEnabled(enable)
	s.log.Info("activation hook honored", zap.Bool("enabled", enable))
	return true
}

func (s *DecisionService) record(ctx context.Context, decision Decision, resourceType, resourceID, actorID, ownerID string) {
	outcome := outcomeDeny
	if decision.Allowed {
		outcome = outcomeAllow
	}
	metrics.Decisions.WithLabelValues(outcome, decision.Rule).Inc()

	if s.deps.State.Logging() {
		s.log.Info("decision",
			zap.String("outcome", outcome),
			zap.String("rule", decision.Rule),
			zap.String("resource_type", resourceType),
			zap.String("actor_id", actorID),
			zap.String("owner_id", ownerID))
	}

	if actorID == "" {
		return
	}
	err := s.deps.Audit.Record(ctx, AuditEntry{
		ActorID:      actorID,
		OwnerID:      ownerID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Outcome:      outcome,
		Rule:         decision.Rule,
	})
	if err != nil {
		s.log.Warn("audit record failed", zap.Error(err))
	}
}

func (s *DecisionService) stepFailed(step string, err error) {
	s.log.Warn("decision step failed, continuing fail-open", zap.String("step", step), zap.Error(err))
}
