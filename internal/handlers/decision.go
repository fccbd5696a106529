package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/lootguard/internal/services"
	"github.com/charlesng35/lootguard/pkg/response"
)

// DecisionHandler exposes the access-decision pipeline to the host.
type DecisionHandler struct {
	engine *services.DecisionService
}

func NewDecisionHandler(engine *services.DecisionService) *DecisionHandler {
	return &DecisionHandler{engine: engine}
}

type decideRequest struct {
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	ActorID      string `json:"actor_id" validate:"required"`
	OwnerID      string `json:"owner_id"`
}

// POST /api/decide
func (h *DecisionHandler) Decide(c *gin.Context) {
	var req decideRequest
	if !bindAndValidate(c, &req) {
		return
	}

	decision := h.engine.EvaluateInteraction(requestContext(c),
		req.ResourceType, req.ResourceID, req.ActorID, req.OwnerID)

	response.Success(c, http.StatusOK, decision)
}

type shareCheckRequest struct {
	OwnerID    string `json:"owner_id" validate:"required"`
	ResourceID string `json:"resource_id" validate:"required"`
	ActorID    string `json:"actor_id" validate:"required"`
}

// POST /api/share-check
func (h *DecisionHandler) ShareCheck(c *gin.Context) {
	var req shareCheckRequest
	if !bindAndValidate(c, &req) {
		return
	}

	shared := h.engine.CheckShare(requestContext(c), req.OwnerID, req.ResourceID, req.ActorID)
	response.Success(c, http.StatusOK, gin.H{"shared": shared})
}
