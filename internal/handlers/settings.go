package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/joeychilson/chat/internal/api/middleware"
	"github.com/joeychilson/chat/internal/models"
)

// GetSettings handles fetching the user's settings. A user who never saved
// settings gets an empty object, not an error.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	settings, err := h.store.GetSettings(r.Context(), user.ID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	if settings == nil {
		settings = &models.Settings{UserID: user.ID}
	}
	h.JSON(w, http.StatusOK, settings)
}

// UpdateSettings handles saving the user's settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var req models.Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.DefaultModel != nil {
		if h.catalog.Get(req.DefaultModel.ID) == nil {
			h.Error(w, http.StatusBadRequest, "unknown default model")
			return
		}
	}
	req.UserID = user.ID
	saved, err := h.store.UpsertSettings(r.Context(), &req)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	h.JSON(w, http.StatusOK, saved)
}
