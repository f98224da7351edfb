package handlers

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/speechsmith/speechsmith-backend/internal/platform/ctxutil"
	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
	"github.com/speechsmith/speechsmith-backend/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.SSEHub

	mu      sync.Mutex
	clients map[uuid.UUID]*realtime.SSEClient // keyed by session id
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{
		log:     log,
		hub:     hub,
		clients: make(map[uuid.UUID]*realtime.SSEClient),
	}
}

// GET /api/events/stream
//
// Streams humanize and analysis progress events for the calling user.
// A reconnect on the same session replaces the previous stream so a
// browser refresh does not leak subscriptions.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	sessionID := rd.SessionID

	client := h.hub.NewSSEClient(userID)

	if sessionID != uuid.Nil {
		h.mu.Lock()
		if existing, ok := h.clients[sessionID]; ok {
			h.hub.CloseClient(existing)
		}
		h.clients[sessionID] = client
		h.mu.Unlock()
	}

	h.hub.AddChannel(client, realtime.UserChannel(userID))
	h.log.Info("SSE stream open",
		"user_id", userID.String(),
		"session_id", sessionID.String(),
		"client_id", client.ID.String())

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	if sessionID != uuid.Nil {
		h.mu.Lock()
		if h.clients[sessionID] == client {
			delete(h.clients, sessionID)
		}
		h.mu.Unlock()
	}
	h.hub.CloseClient(client)
}
