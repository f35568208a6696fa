package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Rrens/movie-catalog/internal/api/response"
	"github.com/Rrens/movie-catalog/internal/service"
)

// MovieHandler handles catalog endpoints
type MovieHandler struct {
	catalogService *service.CatalogService
}

// NewMovieHandler creates a new movie handler
func NewMovieHandler(catalogService *service.CatalogService) *MovieHandler {
	return &MovieHandler{catalogService: catalogService}
}

// Get returns a single movie document
func (h *MovieHandler) Get(w http.ResponseWriter, r *http.Request) {
	movie, err := h.catalogService.Get(r.Context(), chi.URLParam(r, "movieID"))
	if err != nil {
		writeError(w, r, err, http.StatusInternalServerError, "")
		return
	}

	response.OK(w, movie)
}

// List returns one page of the catalog
func (h *MovieHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := h.catalogService.ParseQuery(q.Get("page"), q.Get("limit"), q.Get("genre"), q.Get("sortBy"))
	if err != nil {
		writeError(w, r, err, http.StatusBadRequest, "")
		return
	}

	result, err := h.catalogService.Query(r.Context(), req)
	if err != nil {
		writeError(w, r, err, http.StatusInternalServerError, "Error retrieving movies")
		return
	}

	response.OK(w, result)
}
