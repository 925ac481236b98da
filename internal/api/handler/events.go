package handler

import (
	"net/http"
	"time"

	"github.com/mcoot/competition-console/internal/api/middleware"
	"github.com/mcoot/competition-console/internal/model"
	"github.com/mcoot/competition-console/internal/sse"
)

// EventsHandler streams change events over SSE
type EventsHandler struct {
	hubManager *sse.HubManager
	keepalive  time.Duration
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hubManager *sse.HubManager, keepalive time.Duration) *EventsHandler {
	return &EventsHandler{
		hubManager: hubManager,
		keepalive:  keepalive,
	}
}

// Stream returns the handler for GET /api/v1/{topic}/events
func (h *EventsHandler) Stream(topic model.Topic) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := middleware.MustGetSession(r.Context())
		hub := h.hubManager.GetOrCreateHub(topic)
		sse.ServeSSE(w, r, hub, session.AdminID, h.keepalive)
	}
}
