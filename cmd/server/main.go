package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/lootguard/internal/api"
	"github.com/charlesng35/lootguard/internal/app"
	"github.com/charlesng35/lootguard/internal/app/maintenance"
	iauth "github.com/charlesng35/lootguard/internal/auth"
	"github.com/charlesng35/lootguard/internal/database"
	"github.com/charlesng35/lootguard/internal/handlers"
	"github.com/charlesng35/lootguard/internal/providers"
	"github.com/charlesng35/lootguard/internal/rules"
	"github.com/charlesng35/lootguard/internal/services"
	"github.com/charlesng35/lootguard/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("lootguard-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	jwtService, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return fmt.Errorf("initialise jwt service: %w", err)
	}

	state := services.NewEngineState(cfg.Protection.StartEnabled, cfg.Protection.StartLogging)

	sharingSvc, err := services.NewSharingService(db)
	if err != nil {
		return fmt.Errorf("initialise sharing service: %w", err)
	}
	presenceSvc, err := services.NewPresenceService(db, sharingSvc)
	if err != nil {
		return fmt.Errorf("initialise presence service: %w", err)
	}
	permissionSvc, err := services.NewPermissionService(db)
	if err != nil {
		return fmt.Errorf("initialise permission service: %w", err)
	}
	auditSvc, err := services.NewAuditService(db)
	if err != nil {
		return fmt.Errorf("initialise audit service: %w", err)
	}

	ext, err := buildProviders(cfg)
	if err != nil {
		return err
	}

	relationshipSvc := services.NewRelationshipService(
		cfg.Protection.RelationshipConfig(), ext.friends, ext.clans, ext.teams)

	zoneSvc, err := services.NewZoneScopeService(db, cfg.Zones.ZoneScopeConfig(), ext.zones)
	if err != nil {
		return fmt.Errorf("initialise zone scope: %w", err)
	}

	ruleTable, err := rules.NewTable(db)
	if err != nil {
		return fmt.Errorf("initialise rule table: %w", err)
	}

	engine, err := services.NewDecisionService(cfg.Protection.DecisionConfig(), services.DecisionDeps{
		State:         state,
		Sharing:       sharingSvc,
		Presence:      presenceSvc,
		Permissions:   permissionSvc,
		Relationships: relationshipSvc,
		Zones:         zoneSvc,
		Rules:         ruleTable,
		Audit:         auditSvc,
	})
	if err != nil {
		return fmt.Errorf("initialise decision engine: %w", err)
	}

	if cfg.Schedule.Enabled {
		scheduleSvc, schedErr := services.NewScheduleService(cfg.Schedule.ServiceConfig(), state, ext.gameClock)
		if schedErr != nil {
			return fmt.Errorf("initialise schedule service: %w", schedErr)
		}
		if schedErr := scheduleSvc.Start(); schedErr != nil {
			return fmt.Errorf("start schedule service: %w", schedErr)
		}
		defer scheduleSvc.Stop()
	}

	cleaner := maintenance.NewCleaner(auditSvc, presenceSvc,
		maintenance.WithAuditRetentionDays(cfg.Maintenance.AuditRetentionDays),
		maintenance.WithPresenceRetentionDays(cfg.Maintenance.PresenceRetentionDays),
	)
	if err := cleaner.Start(); err != nil {
		return fmt.Errorf("start maintenance jobs: %w", err)
	}
	defer func() {
		stopCtx := cleaner.Stop()
		<-stopCtx.Done()
	}()

	router, err := api.NewRouter(api.Deps{
		JWT:      jwtService,
		Auth:     handlers.NewAuthHandler(jwtService, cfg.Auth.OperatorConfig()),
		Decision: handlers.NewDecisionHandler(engine),
		Events:   handlers.NewEventsHandler(presenceSvc, engine),
		Shares:   handlers.NewSharesHandler(sharingSvc),
		Admin:    handlers.NewAdminHandler(engine, zoneSvc, ruleTable, permissionSvc, app.StatusOptions(cfg)),
		Audit:    handlers.NewAuditHandler(auditSvc),
	})
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

// externalProviders holds the optional HTTP-backed integrations. A nil field
// means the corresponding service is not configured.
type externalProviders struct {
	friends   providers.FriendsProvider
	clans     providers.ClanProvider
	teams     providers.TeamProvider
	zones     providers.ZoneProvider
	gameClock providers.GameClock
}

func buildProviders(cfg *app.Config) (externalProviders, error) {
	var ext externalProviders

	opts := func(baseURL string) providers.HTTPOptions {
		return providers.HTTPOptions{BaseURL: baseURL, Timeout: cfg.Providers.Timeout}
	}

	if url := strings.TrimSpace(cfg.Providers.Friends); url != "" {
		p, err := providers.NewHTTPFriends(opts(url))
		if err != nil {
			return ext, fmt.Errorf("friends provider: %w", err)
		}
		ext.friends = p
	}
	if url := strings.TrimSpace(cfg.Providers.Clans); url != "" {
		p, err := providers.NewHTTPClans(opts(url))
		if err != nil {
			return ext, fmt.Errorf("clans provider: %w", err)
		}
		ext.clans = p
	}
	if url := strings.TrimSpace(cfg.Providers.Teams); url != "" {
		p, err := providers.NewHTTPTeams(opts(url))
		if err != nil {
			return ext, fmt.Errorf("teams provider: %w", err)
		}
		ext.teams = p
	}
	if url := strings.TrimSpace(cfg.Providers.Zones); url != "" {
		p, err := providers.NewHTTPZones(opts(url))
		if err != nil {
			return ext, fmt.Errorf("zones provider: %w", err)
		}
		ext.zones = p
	}
	if url := strings.TrimSpace(cfg.Providers.GameClock); url != "" {
		p, err := providers.NewHTTPGameClock(opts(url))
		if err != nil {
			return ext, fmt.Errorf("game clock provider: %w", err)
		}
		ext.gameClock = p
	}

	return ext, nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.DatabaseConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
