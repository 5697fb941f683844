package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/joeychilson/chat/internal/catalog"
	"github.com/joeychilson/chat/internal/generate"
	"github.com/joeychilson/chat/internal/history"
	"github.com/joeychilson/chat/internal/models"
	"github.com/joeychilson/chat/internal/storage"
	"github.com/joeychilson/chat/internal/store"
	"github.com/joeychilson/chat/internal/stream"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store        store.Store
	objects      storage.ObjectStore
	catalog      *catalog.Catalog
	orchestrator *generate.Orchestrator
	mutator      *history.Mutator
	streams      *stream.Manager
	redis        *redis.Client
	logger       zerolog.Logger
}

// NewHandler creates a new Handler with the given dependencies.
func NewHandler(st store.Store, objects storage.ObjectStore, cat *catalog.Catalog, orch *generate.Orchestrator, mut *history.Mutator, streams *stream.Manager, redisClient *redis.Client, logger zerolog.Logger) *Handler {
	return &Handler{
		store:        st,
		objects:      objects,
		catalog:      cat,
		orchestrator: orch,
		mutator:      mut,
		streams:      streams,
		redis:        redisClient,
		logger:       logger,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// defaultModality fills in a model selection's modality from the catalog
// when the client omitted it. A mismatched modality is still rejected by
// Resolve; only absence is defaulted.
func (h *Handler) defaultModality(m *models.Model) {
	if m.Type != "" {
		return
	}
	if e := h.catalog.Get(m.ID); e != nil {
		m.Type = e.Type
	}
}

// urlUUID parses the named chi URL parameter as a UUID.
func urlUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

// queryLimit parses limit/offset query parameters with bounds.
func queryLimit(r *http.Request, def, max int) (limit, offset int) {
	limit = def
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > max {
		limit = max
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
