package paper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zuai/sample-paper-api/internal/models"
	"github.com/zuai/sample-paper-api/internal/schema"
	"github.com/zuai/sample-paper-api/internal/store"
)

const maxBodyBytes = 4 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Store defines the persistence operations the handlers need.
type Store interface {
	Insert(ctx context.Context, paper *models.Paper) (string, error)
	Get(ctx context.Context, id string) (*models.Paper, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) (matched, modified int64, err error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string) ([]models.PaperSummary, error)
}

// Cache defines the read-through cache operations.
type Cache interface {
	Get(ctx context.Context, id string) (*models.Paper, bool)
	Set(ctx context.Context, id string, paper *models.Paper)
	Invalidate(ctx context.Context, id string) error
}

// Handler holds the /papers HTTP handlers.
type Handler struct {
	store Store
	cache Cache
}

func NewHandler(store Store, cache Cache) *Handler {
	return &Handler{store: store, cache: cache}
}

// Create validates and stores a new sample paper.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "could not read request body"})
		return
	}

	paper, err := schema.Validate(body)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	id, err := h.store.Insert(r.Context(), paper)
	if err != nil {
		log.Printf("paper insert: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Database error"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"paper_id": id})
}

// Get returns a paper, serving from the cache when possible and
// populating it on a miss.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if paper, ok := h.cache.Get(r.Context(), id); ok {
		writeJSON(w, http.StatusOK, paper)
		return
	}

	paper, err := h.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Sample Paper not found"})
		return
	}
	if err != nil {
		log.Printf("paper get %s: %v", id, err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Database error"})
		return
	}

	h.cache.Set(r.Context(), id, paper)
	writeJSON(w, http.StatusOK, paper)
}

// Update applies a partial update. Provided fields overwrite, arrays are
// replaced wholesale, and the cache entry is invalidated rather than
// rewritten.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "could not read request body"})
		return
	}

	fields, err := schema.ValidateUpdate(body)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	_, modified, err := h.store.Update(r.Context(), id, fields)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Sample Paper not found"})
		return
	}
	if err != nil {
		log.Printf("paper update %s: %v", id, err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Database error"})
		return
	}
	if modified == 0 {
		writeJSON(w, http.StatusOK, map[string]string{"message": "No changes made"})
		return
	}

	if err := h.cache.Invalidate(r.Context(), id); err != nil {
		log.Printf("paper cache invalidate %s: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Sample paper updated successfully"})
}

// Delete removes a paper and its cache entry. Deleting twice yields 404
// the second time.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.store.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": fmt.Sprintf("Paper with Paper ID: %s not found", id),
		})
		return
	}
	if err != nil {
		log.Printf("paper delete %s: %v", id, err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Database error"})
		return
	}

	if err := h.cache.Invalidate(r.Context(), id); err != nil {
		log.Printf("paper cache invalidate %s: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Sample Paper with Paper ID: %s deleted successfully", id),
	})
}

// Search runs a text-relevance query over question and answer fields.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query parameter is required"})
		return
	}

	results, err := h.store.Search(r.Context(), query)
	if err != nil {
		log.Printf("paper search %q: %v", query, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error during search"})
		return
	}
	if len(results) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "No sample papers found for the given query"})
		return
	}

	writeJSON(w, http.StatusOK, models.SearchResponse{
		Message: fmt.Sprintf("%d papers found for query: '%s'", len(results), query),
		Results: results,
	})
}
