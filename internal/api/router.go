package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	iauth "github.com/charlesng35/lootguard/internal/auth"
	"github.com/charlesng35/lootguard/internal/handlers"
	"github.com/charlesng35/lootguard/internal/middleware"
)

// Deps bundles the handlers the router mounts.
type Deps struct {
	JWT      *iauth.JWTService
	Auth     *handlers.AuthHandler
	Decision *handlers.DecisionHandler
	Events   *handlers.EventsHandler
	Shares   *handlers.SharesHandler
	Admin    *handlers.AdminHandler
	Audit    *handlers.AuditHandler
}

// NewRouter builds the Gin engine, wires middleware and registers routes.
//
// The decision and event endpoints are deliberately unauthenticated: they sit
// on the host's per-interaction hot path behind a trusted network boundary.
// Everything that mutates configuration or reads the audit trail requires an
// operator token.
func NewRouter(deps Deps) (*gin.Engine, error) {
	switch {
	case deps.JWT == nil:
		return nil, fmt.Errorf("jwt service must be provided")
	case deps.Auth == nil:
		return nil, fmt.Errorf("auth handler must be provided")
	case deps.Decision == nil:
		return nil, fmt.Errorf("decision handler must be provided")
	case deps.Events == nil:
		return nil, fmt.Errorf("events handler must be provided")
	case deps.Shares == nil:
		return nil, fmt.Errorf("shares handler must be provided")
	case deps.Admin == nil:
		return nil, fmt.Errorf("admin handler must be provided")
	case deps.Audit == nil:
		return nil, fmt.Errorf("audit handler must be provided")
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	r.GET("/health", handlers.Health())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/api/auth/login", deps.Auth.Login)

	// Host-facing decision and lifecycle surface.
	r.POST("/api/decide", deps.Decision.Decide)
	r.POST("/api/share-check", deps.Decision.ShareCheck)

	events := r.Group("/api/events")
	{
		events.POST("/connect", deps.Events.Connect)
		events.POST("/disconnect", deps.Events.Disconnect)
		events.POST("/backpack/open", deps.Events.BackpackOpen)
		events.POST("/backpack/close", deps.Events.BackpackClose)
	}

	requireAuth := middleware.Auth(deps.JWT)

	shares := r.Group("/api/shares", requireAuth)
	{
		shares.POST("", deps.Shares.Create)
		shares.POST("/bulk", deps.Shares.BulkCreate)
		shares.DELETE("/bulk", deps.Shares.BulkDelete)
		shares.GET("/:ownerId", deps.Shares.List)
		shares.DELETE("/:ownerId/:resourceId", deps.Shares.Delete)
	}

	admin := r.Group("/api/admin", requireAuth)
	{
		admin.POST("/enable", deps.Admin.Enable)
		admin.POST("/disable", deps.Admin.Disable)
		admin.GET("/status", deps.Admin.Status)
		admin.POST("/logging/toggle", deps.Admin.ToggleLogging)
		admin.POST("/hooks/enable", deps.Admin.ActivationEnable)
		admin.POST("/hooks/disable", deps.Admin.ActivationDisable)
		admin.POST("/zones/disabled", deps.Admin.AddDenyZone)
		admin.DELETE("/zones/disabled/:zone", deps.Admin.RemoveDenyZone)
		admin.GET("/rules", deps.Admin.ListRules)
		admin.PUT("/rules", deps.Admin.SetRule)
		admin.POST("/permissions", deps.Admin.GrantPermission)
		admin.DELETE("/permissions", deps.Admin.RevokePermission)
	}

	r.GET("/api/audit", requireAuth, deps.Audit.List)

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
