package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/lootguard/internal/database"
	"github.com/charlesng35/lootguard/internal/providers"
	apperrors "github.com/charlesng35/lootguard/pkg/errors"
	"github.com/charlesng35/lootguard/pkg/logger"
	"github.com/charlesng35/lootguard/pkg/metrics"
)

const disabledZonesSettingKey = "zones.disabled"

// ZoneScopeConfig configures the geofencing filter.
type ZoneScopeConfig struct {
	Enabled bool
	// AllowZones limits protection to actors inside at least one listed zone.
	AllowZones []string
	// DenyZones excludes actors inside any listed zone, overriding an
	// allow-list match.
	DenyZones []string
}

// ZoneScopeService decides whether an actor is inside the zones the engine
// controls. The deny list is runtime-mutable: collaborating systems push
// temporary exclusion zones in and out while the process runs, and the list
// is persisted so it survives a restart.
type ZoneScopeService struct {
	db      *gorm.DB
	enabled bool
	zones   providers.ZoneProvider
	log     *zap.Logger

	mu         sync.RWMutex
	allowZones []string
	denyZones  []string
}

// NewZoneScopeService constructs a zone scope service. A previously persisted
// deny list takes precedence over the configured one.
func NewZoneScopeService(db *gorm.DB, cfg ZoneScopeConfig, zones providers.ZoneProvider) (*ZoneScopeService, error) {
	if db == nil {
		return nil, errors.New("zone scope: db is required")
	}

	svc := &ZoneScopeService{
		db:         db,
		enabled:    cfg.Enabled,
		zones:      zones,
		log:        logger.WithModule("zones"),
		allowZones: dedupeZones(cfg.AllowZones),
		denyZones:  dedupeZones(cfg.DenyZones),
	}

	stored, err := database.GetSystemSetting(context.Background(), db, disabledZonesSettingKey)
	if err != nil {
		return nil, err
	}
	if stored != "" {
		svc.denyZones = dedupeZones(strings.Split(stored, ","))
	}

	return svc, nil
}

// InControlledZone reports whether the actor is inside the engine's
// controlled scope. Out-of-scope actors bypass protection entirely.
func (s *ZoneScopeService) InControlledZone(ctx context.Context, actorID string) bool {
	if !s.enabled {
		return true
	}

	s.mu.RLock()
	allow := s.allowZones
	deny := s.denyZones
	s.mu.RUnlock()

	// Scoping turned on with no zones listed protects everyone. This is an
	// operator-error safeguard, not an oversight.
	if len(allow) == 0 && len(deny) == 0 {
		return true
	}

	if s.zones == nil {
		return true
	}
	actorZones, err := s.zones.ZonesOf(ensureContext(ctx), actorID)
	if err != nil {
		metrics.ProviderFailures.WithLabelValues("zones").Inc()
		s.log.Warn("zone provider failed", zap.String("actor_id", actorID), zap.Error(err))
		return true
	}

	inzone := false
	if len(allow) > 0 && len(actorZones) > 0 {
		for _, z := range actorZones {
			if containsZone(allow, z) {
				inzone = true
				break
			}
		}
	}
	if len(deny) > 0 && len(actorZones) > 0 {
		// The deny list starts from in-scope and excludes on any match, so
		// it overrides an allow-list miss as well as a hit.
		inzone = true
		for _, z := range actorZones {
			if containsZone(deny, z) {
				inzone = false
				break
			}
		}
	}
	return inzone
}

// AddDenyZone appends a zone to the deny list. Returns false when the zone
// was already listed.
func (s *ZoneScopeService) AddDenyZone(ctx context.Context, zone string) (bool, error) {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		return false, apperrors.NewBadRequest("zone id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if containsZone(s.denyZones, zone) {
		return false, nil
	}
	updated := append(append([]string{}, s.denyZones...), zone)
	if err := s.persistDenyZones(ctx, updated); err != nil {
		return false, err
	}
	s.denyZones = updated
	return true, nil
}

// RemoveDenyZone removes a zone from the deny list. Removing an unlisted
// zone succeeds without effect.
func (s *ZoneScopeService) RemoveDenyZone(ctx context.Context, zone string) error {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		return apperrors.NewBadRequest("zone id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !containsZone(s.denyZones, zone) {
		return nil
	}
	updated := make([]string, 0, len(s.denyZones))
	for _, z := range s.denyZones {
		if z != zone {
			updated = append(updated, z)
		}
	}
	if err := s.persistDenyZones(ctx, updated); err != nil {
		return err
	}
	s.denyZones = updated
	return nil
}

// DenyZones returns a copy of the current deny list.
func (s *ZoneScopeService) DenyZones() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.denyZones...)
}

// AllowZones returns a copy of the configured allow list.
func (s *ZoneScopeService) AllowZones() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.allowZones...)
}

func (s *ZoneScopeService) persistDenyZones(ctx context.Context, zones []string) error {
	value := strings.Join(zones, ",")
	if err := database.UpsertSystemSetting(ensureContext(ctx), s.db, disabledZonesSettingKey, value); err != nil {
		return fmt.Errorf("zone scope: persist deny list: %w", err)
	}
	return nil
}

func containsZone(zones []string, zone string) bool {
	for _, z := range zones {
		if z == zone {
			return true
		}
	}
	return false
}

func dedupeZones(zones []string) []string {
	seen := make(map[string]bool, len(zones))
	out := make([]string, 0, len(zones))
	for _, z := range zones {
		z = strings.TrimSpace(z)
		if z == "" || seen[z] {
			continue
		}
		seen[z] = true
		out = append(out, z)
	}
	return out
}
