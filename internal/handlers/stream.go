package handlers

import (
	"errors"
	"net/http"

	"github.com/joeychilson/chat/internal/api/middleware"
	"github.com/joeychilson/chat/internal/metrics"
	"github.com/joeychilson/chat/internal/stream"
)

// ResumeStream reattaches a client to a chat's in-flight generation. A chat
// with no active stream responds 204: nothing to resume is not an error.
func (h *Handler) ResumeStream(w http.ResponseWriter, r *http.Request) {
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
	if chat.StreamID == nil {
		metrics.StreamResumes.WithLabelValues("empty").Inc()
		w.WriteHeader(http.StatusNoContent)
		return
	}

	events, cancel, err := h.streams.Resume(r.Context(), *chat.StreamID)
	if err != nil {
		if errors.Is(err, stream.ErrNoStream) {
			// Token still set but the log expired; nothing to replay.
			metrics.StreamResumes.WithLabelValues("empty").Inc()
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.logger.Error().Err(err).Str("chat_id", chatID.String()).Msg("failed to open resumable stream")
		h.Error(w, http.StatusInternalServerError, "failed to resume stream")
		return
	}
	defer cancel()
	metrics.StreamResumes.WithLabelValues("resumed").Inc()

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for data := range events {
		if _, err := w.Write(data); err != nil {
			return
		}
		flusher.Flush()
	}
}
