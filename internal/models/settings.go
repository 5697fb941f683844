package models

import (
	"time"

	"github.com/google/uuid"
)

// Settings holds per-user preferences. All personalization fields are
// optional; empty fields are skipped when assembling a system prompt,
// never defaulted.
type Settings struct {
	ID                 uuid.UUID `json:"id"`
	UserID             uuid.UUID `json:"userId"`
	DefaultModel       *Model    `json:"defaultModel,omitempty"`
	DefaultSpeechVoice string    `json:"defaultSpeechVoice,omitempty"`
	DefaultSpeechSpeed string    `json:"defaultSpeechSpeed,omitempty"`
	PreferredName      string    `json:"preferredName,omitempty"`
	UserRole           string    `json:"userRole,omitempty"`
	AssistantTraits    []string  `json:"assistantTraits,omitempty"`
	AdditionalContext  string    `json:"additionalContext,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
