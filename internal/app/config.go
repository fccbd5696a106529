package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	iauth "github.com/charlesng35/lootguard/internal/auth"
	"github.com/charlesng35/lootguard/internal/database"
	"github.com/charlesng35/lootguard/internal/schedule"
	"github.com/charlesng35/lootguard/internal/services"
)

// Config represents the runtime configuration for the LootGuard backend.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Protection  ProtectionConfig  `mapstructure:"protection"`
	Zones       ZonesConfig       `mapstructure:"zones"`
	Schedule    ScheduleConfig    `mapstructure:"schedule"`
	Providers   ProvidersConfig   `mapstructure:"providers"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// AuthConfig captures operator authentication settings.
type AuthConfig struct {
	JWTSecret            string        `mapstructure:"jwt_secret"`
	JWTIssuer            string        `mapstructure:"jwt_issuer"`
	AccessTokenTTL       time.Duration `mapstructure:"access_token_ttl"`
	OperatorName         string        `mapstructure:"operator_name"`
	OperatorPasswordHash string        `mapstructure:"operator_password_hash"`
}

// ProtectionConfig carries the decision engine options.
type ProtectionConfig struct {
	StartEnabled             bool    `mapstructure:"start_enabled"`
	StartLogging             bool    `mapstructure:"start_logging"`
	RequirePermission        bool    `mapstructure:"require_permission"`
	ProtectedDays            float64 `mapstructure:"protected_days"`
	AllowLootingOfflineOwner bool    `mapstructure:"allow_looting_offline_owner"`
	AdminBypass              bool    `mapstructure:"admin_bypass"`
	RespondToActivationHooks bool    `mapstructure:"respond_to_activation_hooks"`
	HonorRelationships       bool    `mapstructure:"honor_relationships"`
	UseFriends               bool    `mapstructure:"use_friends"`
	UseClans                 bool    `mapstructure:"use_clans"`
	UseTeams                 bool    `mapstructure:"use_teams"`
}

// ZonesConfig scopes protection to zones supplied by an external zone service.
type ZonesConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Allowed  []string `mapstructure:"allowed"`
	Disabled []string `mapstructure:"disabled"`
}

// ScheduleConfig drives time-windowed protection.
type ScheduleConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Spec        string `mapstructure:"spec"`
	UseRealTime bool   `mapstructure:"use_real_time"`
}

// ProvidersConfig holds the base URLs of the optional relationship, zone and
// clock services. An empty URL leaves that provider unconfigured.
type ProvidersConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	Friends   string        `mapstructure:"friends_url"`
	Clans     string        `mapstructure:"clans_url"`
	Teams     string        `mapstructure:"teams_url"`
	Zones     string        `mapstructure:"zones_url"`
	GameClock string        `mapstructure:"game_clock_url"`
}

// MaintenanceConfig controls background retention jobs. A zero value disables
// the corresponding job.
type MaintenanceConfig struct {
	AuditRetentionDays    int `mapstructure:"audit_retention_days"`
	PresenceRetentionDays int `mapstructure:"presence_retention_days"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("LOOTGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range", c.Server.Port)
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("config: auth.jwt_secret is required")
	}
	if strings.TrimSpace(c.Auth.OperatorName) == "" {
		return errors.New("config: auth.operator_name is required")
	}
	if strings.TrimSpace(c.Auth.OperatorPasswordHash) == "" {
		return errors.New("config: auth.operator_password_hash is required")
	}
	if c.Protection.ProtectedDays < 0 {
		return fmt.Errorf("config: protection.protected_days must not be negative")
	}
	if c.Providers.Timeout <= 0 {
		return errors.New("config: providers.timeout must be positive")
	}
	if c.Schedule.Enabled {
		if _, err := schedule.Parse(c.Schedule.Spec); err != nil {
			return fmt.Errorf("config: schedule.spec: %w", err)
		}
		if !c.Schedule.UseRealTime && strings.TrimSpace(c.Providers.GameClock) == "" {
			return errors.New("config: schedule uses game time but providers.game_clock_url is empty")
		}
	}
	return nil
}

// DatabaseConfig converts the database section into connection options.
func (c *Config) DatabaseConfig() database.Config {
	return database.Config{
		Driver:   c.Database.Driver,
		Path:     c.Database.Path,
		DSN:      c.Database.DSN,
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		Name:     c.Database.Name,
		User:     c.Database.User,
		Password: c.Database.Password,
	}
}

// JWTServiceConfig adapts the auth section for the token service.
func (a AuthConfig) JWTServiceConfig() iauth.JWTConfig {
	return iauth.JWTConfig{
		Secret:         a.JWTSecret,
		Issuer:         a.JWTIssuer,
		AccessTokenTTL: a.AccessTokenTTL,
	}
}

// OperatorConfig adapts the auth section for operator login checks.
func (a AuthConfig) OperatorConfig() iauth.OperatorConfig {
	return iauth.OperatorConfig{
		Name:         a.OperatorName,
		PasswordHash: a.OperatorPasswordHash,
	}
}

// DecisionConfig adapts the protection section for the decision engine.
func (p ProtectionConfig) DecisionConfig() services.DecisionConfig {
	return services.DecisionConfig{
		RequirePermission:        p.RequirePermission,
		ProtectedDays:            p.ProtectedDays,
		AllowLootingOfflineOwner: p.AllowLootingOfflineOwner,
		AdminBypass:              p.AdminBypass,
		RespondToActivationHooks: p.RespondToActivationHooks,
	}
}

// RelationshipConfig adapts the protection section for relationship checks.
func (p ProtectionConfig) RelationshipConfig() services.RelationshipConfig {
	return services.RelationshipConfig{
		Honor:      p.HonorRelationships,
		UseFriends: p.UseFriends,
		UseClans:   p.UseClans,
		UseTeams:   p.UseTeams,
	}
}

// ZoneScopeConfig adapts the zones section for zone scoping.
func (z ZonesConfig) ZoneScopeConfig() services.ZoneScopeConfig {
	return services.ZoneScopeConfig{
		Enabled:    z.Enabled,
		AllowZones: z.Allowed,
		DenyZones:  z.Disabled,
	}
}

// ServiceConfig adapts the schedule section for the schedule service.
func (s ScheduleConfig) ServiceConfig() services.ScheduleConfig {
	return services.ScheduleConfig{
		Spec:        s.Spec,
		UseRealTime: s.UseRealTime,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/lootguard.sqlite")

	v.SetDefault("auth.jwt_issuer", "lootguard")
	v.SetDefault("auth.access_token_ttl", "15m")

	v.SetDefault("protection.start_enabled", true)
	v.SetDefault("protection.start_logging", false)
	v.SetDefault("protection.require_permission", false)
	v.SetDefault("protection.protected_days", 0)
	v.SetDefault("protection.allow_looting_offline_owner", false)
	v.SetDefault("protection.admin_bypass", false)
	v.SetDefault("protection.respond_to_activation_hooks", false)
	v.SetDefault("protection.honor_relationships", true)
	v.SetDefault("protection.use_friends", false)
	v.SetDefault("protection.use_clans", false)
	v.SetDefault("protection.use_teams", false)

	v.SetDefault("zones.enabled", false)

	v.SetDefault("schedule.enabled", false)
	v.SetDefault("schedule.spec", "")
	v.SetDefault("schedule.use_real_time", true)

	v.SetDefault("providers.timeout", "150ms")

	v.SetDefault("maintenance.audit_retention_days", 90)
	v.SetDefault("maintenance.presence_retention_days", 0)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
