package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/lootguard/internal/models"
	"github.com/charlesng35/lootguard/internal/services"
	"github.com/charlesng35/lootguard/pkg/errors"
	"github.com/charlesng35/lootguard/pkg/metrics"
	"github.com/charlesng35/lootguard/pkg/response"
)

// SharesHandler manages the per-owner grant lists. The bulk endpoints cover
// building-wide sharing: the host resolves which resource ids make up a
// building and sends the whole list in one call.
type SharesHandler struct {
	sharing *services.SharingService
}

func NewSharesHandler(sharing *services.SharingService) *SharesHandler {
	return &SharesHandler{sharing: sharing}
}

type createShareRequest struct {
	OwnerID      string `json:"owner_id" validate:"required"`
	ResourceID   string `json:"resource_id" validate:"required"`
	ResourceType string `json:"resource_type"`
	// ShareWith is empty for everyone, "friends" for the relationship
	// group, or a specific actor id.
	ShareWith string `json:"share_with"`
}

// GET /api/shares/:ownerId
func (h *SharesHandler) List(c *gin.Context) {
	ownerID := strings.TrimSpace(c.Param("ownerId"))
	if ownerID == "" {
		response.Error(c, errors.NewBadRequest("owner id is required"))
		return
	}

	grants, err := h.sharing.ListOwnerGrants(requestContext(c), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, grants)
}

// POST /api/shares
func (h *SharesHandler) Create(c *gin.Context) {
	var req createShareRequest
	if !bindAndValidate(c, &req) {
		return
	}

	grant, err := h.sharing.AddGrant(requestContext(c), services.AddGrantInput{
		OwnerID:      req.OwnerID,
		ResourceID:   req.ResourceID,
		ResourceType: req.ResourceType,
		ShareWith:    req.ShareWith,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, grant)
}

// DELETE /api/shares/:ownerId/:resourceId
func (h *SharesHandler) Delete(c *gin.Context) {
	ownerID := strings.TrimSpace(c.Param("ownerId"))
	resourceID := strings.TrimSpace(c.Param("resourceId"))
	if ownerID == "" || resourceID == "" {
		response.Error(c, errors.NewBadRequest("owner id and resource id are required"))
		return
	}

	removed, err := h.sharing.RemoveGrantsForResource(requestContext(c), ownerID, resourceID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": removed})
}

type bulkShareRequest struct {
	OwnerID     string   `json:"owner_id" validate:"required"`
	ResourceIDs []string `json:"resource_ids" validate:"required,min=1"`
	// ResourceTypes pairs with ResourceIDs positionally when present.
	ResourceTypes []string `json:"resource_types"`
	ShareWith     string   `json:"share_with"`
}

// POST /api/shares/bulk
func (h *SharesHandler) BulkCreate(c *gin.Context) {
	var req bulkShareRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if len(req.ResourceTypes) > 0 && len(req.ResourceTypes) != len(req.ResourceIDs) {
		response.Error(c, errors.NewBadRequest("resource_types must match resource_ids"))
		return
	}

	ctx := requestContext(c)
	created := make([]models.Grant, 0, len(req.ResourceIDs))
	for i, resourceID := range req.ResourceIDs {
		resourceType := ""
		if len(req.ResourceTypes) > 0 {
			resourceType = req.ResourceTypes[i]
		}
		grant, err := h.sharing.AddGrant(ctx, services.AddGrantInput{
			OwnerID:      req.OwnerID,
			ResourceID:   resourceID,
			ResourceType: resourceType,
			ShareWith:    req.ShareWith,
		})
		if err != nil {
			response.Error(c, err)
			return
		}
		created = append(created, *grant)
	}

	metrics.ShareMutations.WithLabelValues("bulk_grant").Inc()
	response.Success(c, http.StatusCreated, gin.H{"granted": len(created), "grants": created})
}

type bulkUnshareRequest struct {
	OwnerID     string   `json:"owner_id" validate:"required"`
	ResourceIDs []string `json:"resource_ids" validate:"required,min=1"`
}

// DELETE /api/shares/bulk
func (h *SharesHandler) BulkDelete(c *gin.Context) {
	var req bulkUnshareRequest
	if !bindAndValidate(c, &req) {
		return
	}

	targets := make(map[string]bool, len(req.ResourceIDs))
	for _, id := range req.ResourceIDs {
		targets[strings.TrimSpace(id)] = true
	}

	removed, err := h.sharing.RemoveGrants(requestContext(c), req.OwnerID, func(g models.Grant) bool {
		return targets[g.ResourceID]
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	metrics.ShareMutations.WithLabelValues("bulk_revoke").Inc()
	response.Success(c, http.StatusOK, gin.H{"removed": removed})
}
