package handlers

import (
	"net/http"

	"github.com/joeychilson/chat/internal/api/middleware"
	"github.com/joeychilson/chat/internal/models"
	"github.com/joeychilson/chat/internal/storage"
)

// CreationResponse pairs a gallery entry with the URL its file is served
// from.
type CreationResponse struct {
	Creation models.Creation `json:"creation"`
	URL      string          `json:"url,omitempty"`
}

// ListCreations handles listing the user's generated artifacts.
func (h *Handler) ListCreations(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	limit, offset := queryLimit(r, 50, 200)
	creations, err := h.store.ListCreations(r.Context(), user.ID, limit, offset)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to list creations")
		return
	}

	resp := make([]CreationResponse, 0, len(creations))
	for _, c := range creations {
		out := CreationResponse{Creation: c}
		if file, err := h.store.GetFile(r.Context(), c.FileID); err == nil && file != nil {
			out.URL = storage.FileURL(file.Path)
		}
		resp = append(resp, out)
	}
	h.JSON(w, http.StatusOK, map[string]any{"creations": resp})
}

// DeleteCreation handles deleting a gallery entry along with its file and
// stored object. A storage removal failure is logged, never surfaced: the
// database rows still go.
func (h *Handler) DeleteCreation(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	creationID, ok := urlUUID(r, "id")
	if !ok {
		h.Error(w, http.StatusBadRequest, "invalid creation ID")
		return
	}
	creation, err := h.store.GetCreation(r.Context(), creationID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if creation == nil || creation.UserID != user.ID {
		h.Error(w, http.StatusNotFound, "creation not found")
		return
	}

	if file, err := h.store.GetFile(r.Context(), creation.FileID); err == nil && file != nil {
		if err := h.objects.Remove(r.Context(), file.Path); err != nil {
			h.logger.Error().Err(err).Str("path", file.Path).Msg("failed to remove stored object")
		}
	}
	// Deleting the file cascades to the creation row.
	if err := h.store.DeleteFile(r.Context(), creation.FileID); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to delete creation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
