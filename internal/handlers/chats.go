package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/joeychilson/chat/internal/api/middleware"
	"github.com/joeychilson/chat/internal/models"
)

// ChatResponse represents a chat with its messages.
type ChatResponse struct {
	Chat     *models.Chat     `json:"chat"`
	Messages []models.Message `json:"messages"`
}

// ListChats handles listing the user's chats.
func (h *Handler) ListChats(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	limit, offset := queryLimit(r, 50, 200)
	chats, err := h.store.ListChats(r.Context(), user.ID, limit, offset)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to list chats")
		return
	}
	if chats == nil {
		chats = []models.Chat{}
	}
	h.JSON(w, http.StatusOK, map[string]any{"chats": chats})
}

// GetChat handles fetching a chat with its full message history.
func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	chatID, ok := urlUUID(r, "id")
	if !ok {
		h.Error(w, http.StatusBadRequest, "invalid chat ID")
		return
	}
	chat, err := h.store.GetChat(r.Context(), chatID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if chat == nil || chat.UserID != user.ID {
		h.Error(w, http.StatusNotFound, "chat not found")
		return
	}
	msgs, err := h.store.ListMessages(r.Context(), chatID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	h.JSON(w, http.StatusOK, ChatResponse{Chat: chat, Messages: msgs})
}

// UpdateChatRequest represents a partial chat update.
type UpdateChatRequest struct {
	Title  *string `json:"title,omitempty"`
	Pinned *bool   `json:"pinned,omitempty"`
}

// UpdateChat handles renaming or pinning a chat.
func (h *Handler) UpdateChat(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	chatID, ok := urlUUID(r, "id")
	if !ok {
		h.Error(w, http.StatusBadRequest, "invalid chat ID")
		return
	}
	var req UpdateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Title == nil && req.Pinned == nil {
		h.Error(w, http.StatusBadRequest, "nothing to update")
		return
	}
	if req.Title != nil && *req.Title == "" {
		h.Error(w, http.StatusBadRequest, "title cannot be empty")
		return
	}

	chat, err := h.store.GetChat(r.Context(), chatID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if chat == nil || chat.UserID != user.ID {
		h.Error(w, http.StatusNotFound, "chat not found")
		return
	}
	if err := h.store.UpdateChat(r.Context(), chatID, req.Title, req.Pinned); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to update chat")
		return
	}
	updated, err := h.store.GetChat(r.Context(), chatID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	h.JSON(w, http.StatusOK, updated)
}

// DeleteChat handles deleting a chat and its messages.
func (h *Handler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	chatID, ok := urlUUID(r, "id")
	if !ok {
		h.Error(w, http.StatusBadRequest, "invalid chat ID")
		return
	}
	chat, err := h.store.GetChat(r.Context(), chatID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if chat == nil || chat.UserID != user.ID {
		h.Error(w, http.StatusNotFound, "chat not found")
		return
	}
	if err := h.store.DeleteChat(r.Context(), chatID); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to delete chat")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchChats handles searching the user's chats by title and content.
func (h *Handler) SearchChats(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		h.Error(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, _ := queryLimit(r, 20, 100)
	chats, err := h.store.SearchChats(r.Context(), user.ID, query, limit)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "search failed")
		return
	}
	if chats == nil {
		chats = []models.Chat{}
	}
	h.JSON(w, http.StatusOK, map[string]any{"chats": chats})
}
