package stream

import (
	"encoding/json"
	"fmt"

	"github.com/joeychilson/chat/internal/models"
)

// EventType tags a generation stream event.
type EventType string

const (
	EventStart          EventType = "start"
	EventStartStep      EventType = "start-step"
	EventTextDelta      EventType = "text-delta"
	EventReasoningDelta EventType = "reasoning-delta"
	EventFile           EventType = "file"
	EventFinishStep     EventType = "finish-step"
	EventFinish         EventType = "finish"
	EventError          EventType = "error"
)

// Event is one element of the generation stream protocol. The set of
// variants is closed; which fields are populated depends on Type. Both the
// live production path and the resumable replay path go through the same
// SSE encoding.
type Event struct {
	Type EventType `json:"type"`

	// start
	MessageID string `json:"messageId,omitempty"`

	// text-delta, reasoning-delta
	Delta string `json:"delta,omitempty"`

	// file
	MediaType string `json:"mediaType,omitempty"`
	URL       string `json:"url,omitempty"`

	// finish-step, finish
	Metadata *models.Metadata `json:"messageMetadata,omitempty"`

	// error: a user-safe message, never internal diagnostics
	Message string `json:"message,omitempty"`
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Type == EventFinish || e.Type == EventError
}

// EncodeSSE frames the event as a server-sent-events data record.
func (e Event) EncodeSSE() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("stream: encode event: %w", err)
	}
	out := make([]byte, 0, len(b)+8)
	out = append(out, "data: "...)
	out = append(out, b...)
	out = append(out, '\n', '\n')
	return out, nil
}
