package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/lootguard/internal/rules"
	"github.com/charlesng35/lootguard/internal/services"
	"github.com/charlesng35/lootguard/pkg/errors"
	"github.com/charlesng35/lootguard/pkg/response"
)

// StatusOption is one configuration toggle reported by the status endpoint.
// The list is enumerated explicitly at startup; nothing is reflected out of
// the config struct at request time.
type StatusOption struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// AdminHandler exposes the operator command surface.
type AdminHandler struct {
	engine  *services.DecisionService
	zones   *services.ZoneScopeService
	rules   *rules.Table
	perms   *services.PermissionService
	options []StatusOption
}

func NewAdminHandler(
	engine *services.DecisionService,
	zones *services.ZoneScopeService,
	table *rules.Table,
	perms *services.PermissionService,
	options []StatusOption,
) *AdminHandler {
	return &AdminHandler{
		engine:  engine,
		zones:   zones,
		rules:   table,
		perms:   perms,
		options: options,
	}
}

// POST /api/admin/enable
func (h *AdminHandler) Enable(c *gin.Context) {
	h.engine.SetEnabled(true)
	response.Success(c, http.StatusOK, gin.H{"enabled": true})
}

// POST /api/admin/disable
func (h *AdminHandler) Disable(c *gin.Context) {
	h.engine.SetEnabled(false)
	response.Success(c, http.StatusOK, gin.H{"enabled": false})
}

// GET /api/admin/status
func (h *AdminHandler) Status(c *gin.Context) {
	ruleEntries, err := h.rules.All(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"enabled":     h.engine.Enabled(),
		"options":     h.options,
		"allow_zones": h.zones.AllowZones(),
		"deny_zones":  h.zones.DenyZones(),
		"rules":       ruleEntries,
	})
}

// POST /api/admin/logging/toggle
func (h *AdminHandler) ToggleLogging(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"logging": h.engine.ToggleLogging()})
}

// POST /api/admin/hooks/enable
func (h *AdminHandler) ActivationEnable(c *gin.Context) {
	honored := h.engine.HandleActivation(true)
	response.Success(c, http.StatusOK, gin.H{"honored": honored, "enabled": h.engine.Enabled()})
}

// POST /api/admin/hooks/disable
func (h *AdminHandler) ActivationDisable(c *gin.Context) {
	honored := h.engine.HandleActivation(false)
	response.Success(c, http.StatusOK, gin.H{"honored": honored, "enabled": h.engine.Enabled()})
}

type denyZoneRequest struct {
	Zone string `json:"zone" validate:"required"`
}

// POST /api/admin/zones/disabled
func (h *AdminHandler) AddDenyZone(c *gin.Context) {
	var req denyZoneRequest
	if !bindAndValidate(c, &req) {
		return
	}

	added, err := h.zones.AddDenyZone(requestContext(c), req.Zone)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"added": added, "deny_zones": h.zones.DenyZones()})
}

// DELETE /api/admin/zones/disabled/:zone
func (h *AdminHandler) RemoveDenyZone(c *gin.Context) {
	zone := strings.TrimSpace(c.Param("zone"))
	if zone == "" {
		response.Error(c, errors.NewBadRequest("zone id is required"))
		return
	}

	if err := h.zones.RemoveDenyZone(requestContext(c), zone); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deny_zones": h.zones.DenyZones()})
}

// GET /api/admin/rules
func (h *AdminHandler) ListRules(c *gin.Context) {
	entries, err := h.rules.All(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, entries)
}

type setRuleRequest struct {
	Key   string `json:"key" validate:"required"`
	Block *bool  `json:"block" validate:"required"`
}

// PUT /api/admin/rules
func (h *AdminHandler) SetRule(c *gin.Context) {
	var req setRuleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.rules.Set(requestContext(c), req.Key, *req.Block); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"key": req.Key, "block": *req.Block})
}

type permissionRequest struct {
	ActorID    string `json:"actor_id" validate:"required"`
	Permission string `json:"permission" validate:"required"`
}

// POST /api/admin/permissions
func (h *AdminHandler) GrantPermission(c *gin.Context) {
	var req permissionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.perms.Grant(requestContext(c), req.ActorID, req.Permission); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"granted": true})
}

// DELETE /api/admin/permissions
func (h *AdminHandler) RevokePermission(c *gin.Context) {
	var req permissionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.perms.Revoke(requestContext(c), req.ActorID, req.Permission); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}
