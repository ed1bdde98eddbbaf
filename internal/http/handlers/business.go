package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/go-business-finder/internal/errors"
	"github.com/pribylovaa/go-business-finder/internal/models"
)

var errEmptyID = errors.New("empty place id")

// SearchBusinesses — POST /api/business/search.
func (h *Handlers) SearchBusinesses(w http.ResponseWriter, r *http.Request) {
	var f models.SearchFilter
	if err := decodeStrict(w, r, &f); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	list, err := h.Service.Search(r.Context(), f)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.SearchResponse{
		Success: true,
		Count:   len(list),
		Data:    list,
	})
}

// GetBusiness — GET /api/business/{placeId}.
func (h *Handlers) GetBusiness(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "placeId")
	if id == "" {
		apierrors.WriteError(w, r, invalidArgument(errEmptyID))
		return
	}

	d, err := h.Service.Details(r.Context(), id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.DetailsResponse{Success: true, Data: d})
}
