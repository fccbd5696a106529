package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/lootguard/internal/services"
	"github.com/charlesng35/lootguard/pkg/response"
)

// EventsHandler receives lifecycle events from the host: connects,
// disconnects and backpack container open/close notifications.
type EventsHandler struct {
	presence *services.PresenceService
	engine   *services.DecisionService
}

func NewEventsHandler(presence *services.PresenceService, engine *services.DecisionService) *EventsHandler {
	return &EventsHandler{presence: presence, engine: engine}
}

type actorEventRequest struct {
	ActorID string `json:"actor_id" validate:"required"`
}

// POST /api/events/connect
func (h *EventsHandler) Connect(c *gin.Context) {
	var req actorEventRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.presence.RecordConnect(requestContext(c), req.ActorID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"recorded": true})
}

// POST /api/events/disconnect
func (h *EventsHandler) Disconnect(c *gin.Context) {
	var req actorEventRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.presence.RecordDisconnect(requestContext(c), req.ActorID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"recorded": true})
}

type backpackEventRequest struct {
	ActorID string `json:"actor_id" validate:"required"`
	OwnerID string `json:"owner_id"`
}

// POST /api/events/backpack/open
func (h *EventsHandler) BackpackOpen(c *gin.Context) {
	var req backpackEventRequest
	if !bindAndValidate(c, &req) {
		return
	}

	h.engine.OpenBackpack(req.ActorID, req.OwnerID)
	response.Success(c, http.StatusOK, gin.H{"recorded": true})
}

// POST /api/events/backpack/close
func (h *EventsHandler) BackpackClose(c *gin.Context) {
	var req actorEventRequest
	if !bindAndValidate(c, &req) {
		return
	}

	h.engine.CloseBackpack(req.ActorID)
	response.Success(c, http.StatusOK, gin.H{"recorded": true})
}
