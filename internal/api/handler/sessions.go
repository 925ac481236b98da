package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/competition-console/internal/api/request"
	"github.com/mcoot/competition-console/internal/api/response"
	"github.com/mcoot/competition-console/internal/model"
	"github.com/mcoot/competition-console/internal/services/timer"
)

// SessionHandler handles session timer endpoints
type SessionHandler struct {
	controller *timer.Controller
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(controller *timer.Controller) *SessionHandler {
	return &SessionHandler{controller: controller}
}

// Board handles GET /api/v1/sessions?day=N (day defaults to 1)
func (h *SessionHandler) Board(w http.ResponseWriter, r *http.Request) {
	day := 1
	if raw := r.URL.Query().Get("day"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			WriteError(w, model.ErrInvalidDay)
			return
		}
		day = parsed
	}

	rows, err := h.controller.Board(r.Context(), day)
	if err != nil {
		WriteError(w, err)
		return
	}
	active, err := h.controller.Active(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.BoardFromModel(day, h.controller.Config().Cap, rows, active))
}

// Active handles GET /api/v1/sessions/active
func (h *SessionHandler) Active(w http.ResponseWriter, r *http.Request) {
	active, err := h.controller.Active(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	var out response.ActiveSession
	if active != nil {
		s := response.SessionFromView(active)
		out.Active = &s
	}
	response.JSON(w, http.StatusOK, out)
}

// Get handles GET /api/v1/competitors/{id}/sessions/{day}/{module}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	day, err := strconv.Atoi(vars["day"])
	if err != nil {
		WriteError(w, model.ErrInvalidDay)
		return
	}
	req := request.SessionRequest{CompetitorID: vars["id"], Day: day, Module: vars["module"]}

	view, err := h.controller.Get(r.Context(), req.Key())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromView(view))
}

// Start handles POST /api/v1/sessions/start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.controller.Start)
}

// Stop handles POST /api/v1/sessions/stop
func (h *SessionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.controller.Stop)
}

func (h *SessionHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, key model.SessionKey) (*model.Session, error),
) {
	var req request.SessionRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.CompetitorID == "" {
		WriteError(w, NewInvalidRequestError("competitor_id is required"))
		return
	}

	session, err := apply(r.Context(), req.Key())
	if err != nil {
		WriteError(w, err)
		return
	}

	view := h.controller.View(session)
	response.JSON(w, http.StatusOK, response.SessionFromView(&view))
}
