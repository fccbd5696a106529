package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/lootguard/internal/database/testutil"
	"github.com/charlesng35/lootguard/internal/services"
)

type fakeZones struct {
	zones map[string][]string
	err   error
}

func (f *fakeZones) ZonesOf(_ context.Context, actorID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.zones[actorID], nil
}

func newZoneScope(t *testing.T, cfg services.ZoneScopeConfig, zones *fakeZones) *services.ZoneScopeService {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := services.NewZoneScopeService(db, cfg, zones)
	require.NoError(t, err)
	return svc
}

func TestZoneScopeDisabledIncludesEveryone(t *testing.T) {
	svc := newZoneScope(t, services.ZoneScopeConfig{Enabled: false}, nil)
	require.True(t, svc.InControlledZone(context.Background(), "actor-1"))
}

func TestZoneScopeNoListsIncludesEveryone(t *testing.T) {
	zones := &fakeZones{zones: map[string][]string{"actor-1": {"zone-x"}}}
	svc := newZoneScope(t, services.ZoneScopeConfig{Enabled: true}, zones)
	require.True(t, svc.InControlledZone(context.Background(), "actor-1"))
}

func TestZoneScopeAllowList(t *testing.T) {
	zones := &fakeZones{zones: map[string][]string{
		"inside":  {"zone-a"},
		"outside": {"zone-z"},
		"nowhere": nil,
	}}
	svc := newZoneScope(t, services.ZoneScopeConfig{
		Enabled:    true,
		AllowZones: []string{"zone-a", "zone-b"},
	}, zones)

	ctx := context.Background()
	require.True(t, svc.InControlledZone(ctx, "inside"))
	require.False(t, svc.InControlledZone(ctx, "outside"))
	require.False(t, svc.InControlledZone(ctx, "nowhere"))
}

func TestZoneScopeDenyListOverridesAllowMatch(t *testing.T) {
	zones := &fakeZones{zones: map[string][]string{
		"both": {"zone-a", "zone-pvp"},
	}}
	svc := newZoneScope(t, services.ZoneScopeConfig{
		Enabled:    true,
		AllowZones: []string{"zone-a"},
		DenyZones:  []string{"zone-pvp"},
	}, zones)

	require.False(t, svc.InControlledZone(context.Background(), "both"))
}

func TestZoneScopeDenyListAloneIncludesUnlistedZones(t *testing.T) {
	zones := &fakeZones{zones: map[string][]string{
		"safe": {"zone-a"},
		"pvp":  {"zone-pvp"},
	}}
	svc := newZoneScope(t, services.ZoneScopeConfig{
		Enabled:   true,
		DenyZones: []string{"zone-pvp"},
	}, zones)

	ctx := context.Background()
	require.True(t, svc.InControlledZone(ctx, "safe"))
	require.False(t, svc.InControlledZone(ctx, "pvp"))
}

func TestZoneScopeProviderFailureFailsOpen(t *testing.T) {
	zones := &fakeZones{err: errors.New("zone service down")}
	svc := newZoneScope(t, services.ZoneScopeConfig{
		Enabled:    true,
		AllowZones: []string{"zone-a"},
	}, zones)

	require.True(t, svc.InControlledZone(context.Background(), "actor-1"))
}

func TestZoneScopeDenyZoneMutation(t *testing.T) {
	zones := &fakeZones{zones: map[string][]string{"actor-1": {"zone-pvp"}}}
	svc := newZoneScope(t, services.ZoneScopeConfig{
		Enabled:    true,
		AllowZones: []string{"zone-pvp"},
	}, zones)
	ctx := context.Background()

	require.True(t, svc.InControlledZone(ctx, "actor-1"))

	added, err := svc.AddDenyZone(ctx, "zone-pvp")
	require.NoError(t, err)
	require.True(t, added)

	added, err = svc.AddDenyZone(ctx, "zone-pvp")
	require.NoError(t, err)
	require.False(t, added, "duplicate add reports no change")

	require.False(t, svc.InControlledZone(ctx, "actor-1"))

	require.NoError(t, svc.RemoveDenyZone(ctx, "zone-pvp"))
	require.True(t, svc.InControlledZone(ctx, "actor-1"))
	require.NoError(t, svc.RemoveDenyZone(ctx, "zone-pvp"), "removing an unlisted zone succeeds")
}

func TestZoneScopeDenyListSurvivesRestart(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	zones := &fakeZones{zones: map[string][]string{"actor-1": {"zone-pvp"}}}
	cfg := services.ZoneScopeConfig{Enabled: true, AllowZones: []string{"zone-pvp"}}

	svc, err := services.NewZoneScopeService(db, cfg, zones)
	require.NoError(t, err)

	_, err = svc.AddDenyZone(context.Background(), "zone-pvp")
	require.NoError(t, err)

	reopened, err := services.NewZoneScopeService(db, cfg, zones)
	require.NoError(t, err)
	require.Equal(t, []string{"zone-pvp"}, reopened.DenyZones())
	require.False(t, reopened.InControlledZone(context.Background(), "actor-1"))
}
