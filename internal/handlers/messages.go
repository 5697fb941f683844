package handlers

import (
	"net/http"

	"github.com/joeychilson/chat/internal/api/middleware"
)

// DeleteMessage handles deleting a single message from a chat.
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	messageID, ok := urlUUID(r, "id")
	if !ok {
		h.Error(w, http.StatusBadRequest, "invalid message ID")
		return
	}
	msg, err := h.store.GetMessage(r.Context(), messageID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if msg == nil {
		h.Error(w, http.StatusNotFound, "message not found")
		return
	}
	chat, err := h.store.GetChat(r.Context(), msg.ChatID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if chat == nil || chat.UserID != user.ID {
		h.Error(w, http.StatusNotFound, "message not found")
		return
	}
	if err := h.store.DeleteMessage(r.Context(), messageID); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to delete message")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
