package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/competition-console/internal/api/request"
	"github.com/mcoot/competition-console/internal/api/response"
	"github.com/mcoot/competition-console/internal/model"
	"github.com/mcoot/competition-console/internal/services/country"
	"github.com/mcoot/competition-console/internal/services/registry"
)

// CompetitorHandler handles competitor registry endpoints
type CompetitorHandler struct {
	registry  *registry.Service
	countries *country.Service
}

// NewCompetitorHandler creates a new competitor handler
func NewCompetitorHandler(registry *registry.Service, countries *country.Service) *CompetitorHandler {
	return &CompetitorHandler{
		registry:  registry,
		countries: countries,
	}
}

func (h *CompetitorHandler) toResponse(c *model.Competitor) response.Competitor {
	return response.CompetitorFromModel(c, h.countries.Name(c.Country))
}

// List handles GET /api/v1/competitors
//
// Query parameters: order=created|number (default created), language=english|french
func (h *CompetitorHandler) List(w http.ResponseWriter, r *http.Request) {
	competitors, err := h.registry.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	switch r.URL.Query().Get("order") {
	case "", "created":
	case "number":
		competitors = registry.SortByNumber(competitors)
	default:
		WriteError(w, NewInvalidRequestError("order must be created or number"))
		return
	}

	if lang := r.URL.Query().Get("language"); lang != "" {
		language := model.Language(lang)
		if !language.Valid() {
			WriteError(w, model.ErrInvalidLanguage)
			return
		}
		competitors = registry.ByLanguage(competitors)[language]
	}

	out := response.CompetitorList{Competitors: make([]response.Competitor, len(competitors))}
	for i, c := range competitors {
		out.Competitors[i] = h.toResponse(c)
	}
	response.JSON(w, http.StatusOK, out)
}

// Create handles POST /api/v1/competitors
func (h *CompetitorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CompetitorRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	competitor, err := h.registry.Create(r.Context(), req.Fields())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, h.toResponse(competitor))
}

// Get handles GET /api/v1/competitors/{id}
func (h *CompetitorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.CompetitorID(mux.Vars(r)["id"])

	competitor, err := h.registry.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, h.toResponse(competitor))
}

// Update handles PUT /api/v1/competitors/{id}
func (h *CompetitorHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := model.CompetitorID(mux.Vars(r)["id"])

	var req request.CompetitorRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	competitor, err := h.registry.Update(r.Context(), id, req.Fields())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, h.toResponse(competitor))
}

// Delete handles DELETE /api/v1/competitors/{id}
func (h *CompetitorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := model.CompetitorID(mux.Vars(r)["id"])

	if err := h.registry.Delete(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
