package handler

import (
	"net/http"

	"github.com/mcoot/competition-console/internal/api/response"
	"github.com/mcoot/competition-console/internal/services/country"
)

// CountriesHandler serves the country reference list
type CountriesHandler struct {
	countries *country.Service
}

// NewCountriesHandler creates a new countries handler
func NewCountriesHandler(countries *country.Service) *CountriesHandler {
	return &CountriesHandler{countries: countries}
}

// List handles GET /api/v1/countries
func (h *CountriesHandler) List(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string][]country.Country{"countries": h.countries.List()})
}
