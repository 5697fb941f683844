package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/joeychilson/chat/internal/api/middleware"
	"github.com/joeychilson/chat/internal/catalog"
	"github.com/joeychilson/chat/internal/history"
	"github.com/joeychilson/chat/internal/metrics"
	"github.com/joeychilson/chat/internal/models"
)

// BranchRequest represents the branch request body.
type BranchRequest struct {
	MessageID uuid.UUID `json:"messageId"`
}

// RetryRequest represents the retry request body.
type RetryRequest struct {
	MessageID uuid.UUID    `json:"messageId"`
	Model     models.Model `json:"model"`
}

// DerivedChatResponse carries the id of a newly derived chat.
type DerivedChatResponse struct {
	ChatID string `json:"chatId"`
}

// Branch creates a new chat from the pivot message onward.
func (h *Handler) Branch(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var req BranchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.MessageID == uuid.Nil {
		h.Error(w, http.StatusBadRequest, "messageId is required")
		return
	}

	chat, err := h.mutator.Branch(r.Context(), user.ID, req.MessageID)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			h.Error(w, http.StatusNotFound, "message not found")
			return
		}
		h.logger.Error().Err(err).Str("message_id", req.MessageID.String()).Msg("branch failed")
		h.Error(w, http.StatusInternalServerError, "failed to branch chat")
		return
	}
	metrics.ChatsDerived.WithLabelValues("branch").Inc()
	h.JSON(w, http.StatusCreated, DerivedChatResponse{ChatID: chat.ID.String()})
}

// Retry creates a new chat replaying history up to the pivot with a new
// model.
func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var req RetryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.MessageID == uuid.Nil {
		h.Error(w, http.StatusBadRequest, "messageId is required")
		return
	}
	if req.Model.ID == "" {
		h.Error(w, http.StatusBadRequest, "model is required")
		return
	}
	h.defaultModality(&req.Model)
	if _, err := h.catalog.Resolve(req.Model); err != nil {
		if errors.Is(err, catalog.ErrUnknownModel) || errors.Is(err, catalog.ErrUnsupportedModality) || errors.Is(err, catalog.ErrUnsupportedProvider) {
			h.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.Error(w, http.StatusInternalServerError, "failed to resolve model")
		return
	}

	chat, err := h.mutator.Retry(r.Context(), user.ID, req.MessageID, req.Model)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			h.Error(w, http.StatusNotFound, "message not found")
			return
		}
		h.logger.Error().Err(err).Str("message_id", req.MessageID.String()).Msg("retry failed")
		h.Error(w, http.StatusInternalServerError, "failed to create retry chat")
		return
	}
	metrics.ChatsDerived.WithLabelValues("retry").Inc()
	h.JSON(w, http.StatusCreated, DerivedChatResponse{ChatID: chat.ID.String()})
}
