package handler

import (
	"net/http"

	"github.com/mcoot/competition-console/internal/api/response"
	"github.com/mcoot/competition-console/internal/storage"
)

// HealthHandler reports liveness and storage reachability
type HealthHandler struct {
	storage     storage.Storage
	storageType string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(storage storage.Storage, storageType string) *HealthHandler {
	return &HealthHandler{storage: storage, storageType: storageType}
}

// Check handles GET /api/v1/health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if _, err := h.storage.GetActiveTimer(r.Context()); err != nil {
		response.JSON(w, http.StatusServiceUnavailable, response.Health{Status: "unavailable", Storage: h.storageType})
		return
	}
	response.JSON(w, http.StatusOK, response.Health{Status: "ok", Storage: h.storageType})
}
