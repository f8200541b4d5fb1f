package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appConversation "github.com/edachat/backend/internal/application/conversation"
	"github.com/edachat/backend/internal/infrastructure/websocket"
	"github.com/edachat/backend/internal/interfaces/http/response"
)

// EventsHandler upgrades clients to the turn lifecycle stream of a session.
type EventsHandler struct {
	svc *appConversation.Service
	hub *websocket.Hub
}

// NewEventsHandler creates the events handler.
func NewEventsHandler(svc *appConversation.Service, hub *websocket.Hub) *EventsHandler {
	return &EventsHandler{svc: svc, hub: hub}
}

// Stream serves the websocket.
// @Summary Turn lifecycle stream
// @Description Websocket of Routing, Dispatching, Executing, Persisting and Idle events for one session.
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 101
// @Failure 404 {object} response.ErrorResponse
// @Router /sessions/{id}/events [get]
func (h *EventsHandler) Stream(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.svc.Get(id); err != nil {
		response.Error(c, http.StatusNotFound, CodeNotFound, err.Error())
		return
	}
	h.hub.ServeSession(c.Writer, c.Request, id)
}
