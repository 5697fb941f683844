package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/joeychilson/chat/internal/api/middleware"
	"github.com/joeychilson/chat/internal/catalog"
	"github.com/joeychilson/chat/internal/generate"
	"github.com/joeychilson/chat/internal/metrics"
	"github.com/joeychilson/chat/internal/models"
	"github.com/joeychilson/chat/internal/stream"
)

// GenerateRequest represents the generation request body. Messages are the
// client's authoritative view of the history.
type GenerateRequest struct {
	ChatID   uuid.UUID        `json:"chatId"`
	Model    models.Model     `json:"model"`
	Messages []models.Message `json:"messages"`
	Retry    bool             `json:"retry,omitempty"`
}

// Generate handles a generation request and streams events back over SSE.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ChatID == uuid.Nil {
		h.Error(w, http.StatusBadRequest, "chatId is required")
		return
	}
	if req.Model.ID == "" {
		h.Error(w, http.StatusBadRequest, "model is required")
		return
	}
	h.defaultModality(&req.Model)
	if len(req.Messages) == 0 {
		h.Error(w, http.StatusBadRequest, "messages are required")
		return
	}

	chat, err := h.store.GetChat(r.Context(), req.ChatID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if chat != nil && chat.UserID != user.ID {
		h.Error(w, http.StatusNotFound, "chat not found")
		return
	}

	created := false
	if chat == nil {
		chat, err = h.store.CreateChat(r.Context(), &models.Chat{ID: req.ChatID, UserID: user.ID})
		if err != nil {
			h.Error(w, http.StatusInternalServerError, "failed to create chat")
			return
		}
		created = true
	}

	// A retry replaces history: drop stored messages the client no longer
	// has, then override the stream slot the superseded generation may
	// still hold.
	if req.Retry {
		keep := make([]uuid.UUID, 0, len(req.Messages))
		for _, m := range req.Messages {
			if m.ID != uuid.Nil {
				keep = append(keep, m.ID)
			}
		}
		if err := h.store.DeleteMessagesExcept(r.Context(), chat.ID, keep); err != nil {
			h.Error(w, http.StatusInternalServerError, "failed to prune messages")
			return
		}
	}

	// Persist the user's newest message before generating so history
	// survives a mid-generation crash. Existing ids are no-ops.
	for i := range req.Messages {
		req.Messages[i].ChatID = chat.ID
	}
	if last := lastUserMessage(req.Messages); last != nil {
		if err := h.store.InsertMessage(r.Context(), last); err != nil {
			h.Error(w, http.StatusInternalServerError, "failed to save message")
			return
		}
	}

	if created || chat.Title == "Untitled Chat" {
		h.titleChatAsync(chat.ID, req.Messages)
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// SSE headers go out with the first event, so pre-stream failures can
	// still return a JSON status.
	streaming := false
	sink := func(ev stream.Event) error {
		if !streaming {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.Header().Set("X-Accel-Buffering", "no")
			w.WriteHeader(http.StatusOK)
			streaming = true
		}
		data, err := ev.EncodeSSE()
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	err = h.orchestrator.Generate(r.Context(), generate.Request{
		Chat:     chat,
		UserID:   user.ID,
		Model:    req.Model,
		Messages: req.Messages,
		Override: req.Retry,
	}, sink)
	if err == nil {
		return
	}
	if streaming {
		h.logger.Error().Err(err).Str("chat_id", chat.ID.String()).Msg("generation failed mid-stream")
		return
	}
	switch {
	case errors.Is(err, catalog.ErrUnknownModel),
		errors.Is(err, catalog.ErrUnsupportedModality),
		errors.Is(err, catalog.ErrUnsupportedProvider),
		errors.Is(err, generate.ErrNoUserText):
		h.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, stream.ErrGenerationInProgress):
		metrics.GenerationConflicts.Inc()
		h.Error(w, http.StatusConflict, "a generation is already in progress for this chat")
	default:
		h.logger.Error().Err(err).Str("chat_id", chat.ID.String()).Msg("generation failed")
		h.Error(w, http.StatusInternalServerError, "failed to start generation")
	}
}

// titleChatAsync names a fresh chat from its first user message without
// blocking the generation stream.
func (h *Handler) titleChatAsync(chatID uuid.UUID, msgs []models.Message) {
	last := lastUserMessage(msgs)
	if last == nil {
		return
	}
	content := last.TextContent()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		title := h.orchestrator.TitleChat(ctx, content)
		if title == "" {
			return
		}
		if err := h.store.UpdateChatTitleIf(ctx, chatID, title, "Untitled Chat"); err != nil {
			h.logger.Warn().Err(err).Str("chat_id", chatID.String()).Msg("failed to set generated title")
		}
	}()
}

func lastUserMessage(msgs []models.Message) *models.Message {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == models.RoleUser && msgs[i].HasText() {
			return &msgs[i]
		}
	}
	return nil
}
