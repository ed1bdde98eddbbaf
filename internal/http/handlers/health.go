package handlers

import (
	"net/http"

	"github.com/pribylovaa/go-business-finder/internal/models"
)

// Health — GET /health.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:  "OK",
		Message: "Business Finder API is running",
	})
}
