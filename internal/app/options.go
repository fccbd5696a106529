package app

import (
	"github.com/charlesng35/lootguard/internal/handlers"
)

// StatusOptions enumerates the configuration toggles reported by the admin
// status endpoint. The list is built once at startup from the loaded config.
func StatusOptions(cfg *Config) []handlers.StatusOption {
	return []handlers.StatusOption{
		{Name: "require_permission", Value: cfg.Protection.RequirePermission},
		{Name: "protected_days", Value: cfg.Protection.ProtectedDays},
		{Name: "allow_looting_offline_owner", Value: cfg.Protection.AllowLootingOfflineOwner},
		{Name: "admin_bypass", Value: cfg.Protection.AdminBypass},
		{Name: "respond_to_activation_hooks", Value: cfg.Protection.RespondToActivationHooks},
		{Name: "honor_relationships", Value: cfg.Protection.HonorRelationships},
		{Name: "use_friends", Value: cfg.Protection.UseFriends},
		{Name: "use_clans", Value: cfg.Protection.UseClans},
		{Name: "use_teams", Value: cfg.Protection.UseTeams},
		{Name: "use_zone_manager", Value: cfg.Zones.Enabled},
		{Name: "use_schedule", Value: cfg.Schedule.Enabled},
		{Name: "use_real_time", Value: cfg.Schedule.UseRealTime},
	}
}
