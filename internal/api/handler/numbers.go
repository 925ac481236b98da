package handler

import (
	"net/http"

	"github.com/mcoot/competition-console/internal/api/request"
	"github.com/mcoot/competition-console/internal/api/response"
	"github.com/mcoot/competition-console/internal/services/numbers"
)

// NumbersHandler handles the competitor number draw
type NumbersHandler struct {
	engine *numbers.Engine
}

// NewNumbersHandler creates a new numbers handler
func NewNumbersHandler(engine *numbers.Engine) *NumbersHandler {
	return &NumbersHandler{engine: engine}
}

// Status handles GET /api/v1/numbers
func (h *NumbersHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.engine.Status(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.NumberStatusFromModel(status))
}

// Assign handles POST /api/v1/numbers/assign
func (h *NumbersHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req request.AssignNumbersRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, err)
			return
		}
	}

	assigned, err := h.engine.Randomize(r.Context(), req.Confirm)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AssignNumbersFromModel(assigned))
}
