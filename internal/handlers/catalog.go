package handlers

import (
	"net/http"

	"github.com/joeychilson/chat/internal/catalog"
)

// ModelResponse represents a catalog entry in API responses.
type ModelResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Provider  string   `json:"provider"`
	FileTypes []string `json:"fileTypes,omitempty"`
	Options   []string `json:"options,omitempty"`
}

// ListModels handles listing the model catalog.
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	entries := h.catalog.List()
	resp := make([]ModelResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, ModelResponse{
			ID:        e.ID,
			Name:      e.Name,
			Type:      string(e.Type),
			Provider:  e.Provider,
			FileTypes: e.FileTypes,
			Options:   optionKeys(e),
		})
	}
	h.JSON(w, http.StatusOK, map[string]any{"models": resp})
}

func optionKeys(e *catalog.Entry) []string {
	if len(e.Options) == 0 {
		return nil
	}
	keys := make([]string, 0, len(e.Options))
	for _, opt := range e.Options {
		keys = append(keys, opt.Key)
	}
	return keys
}
