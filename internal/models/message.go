package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Part kinds stored in a message's parts list.
const (
	PartText      = "text"
	PartReasoning = "reasoning"
	PartFile      = "file"
)

// Part is one element of a message's ordered content list. The list is
// heterogeneous; which fields are set depends on Type.
type Part struct {
	Type string `json:"type"`

	// Text and reasoning parts.
	Text string `json:"text,omitempty"`

	// File parts.
	Filename  string `json:"filename,omitempty"`
	MediaType string `json:"mediaType,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Usage records provider token accounting for a generation.
type Usage struct {
	InputTokens     int64 `json:"inputTokens,omitempty"`
	OutputTokens    int64 `json:"outputTokens,omitempty"`
	ReasoningTokens int64 `json:"reasoningTokens,omitempty"`
	CachedTokens    int64 `json:"cachedTokens,omitempty"`
	TotalTokens     int64 `json:"totalTokens,omitempty"`
}

// Metadata is the free-form metadata stored alongside a message.
type Metadata struct {
	Model    *Model `json:"model,omitempty"`
	Duration int64  `json:"duration,omitempty"` // milliseconds
	Usage    *Usage `json:"usage,omitempty"`
}

// Message is a single turn in a chat. Messages within a chat are totally
// ordered by CreatedAt; role alternation is caller discipline, not enforced
// here.
type Message struct {
	ID        uuid.UUID `json:"id"`
	ChatID    uuid.UUID `json:"chatId"`
	Role      Role      `json:"role"`
	Parts     []Part    `json:"parts"`
	Metadata  Metadata  `json:"metadata"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TextContent concatenates the message's text parts.
func (m *Message) TextContent() string {
	var s string
	for _, p := range m.Parts {
		if p.Type == PartText {
			s += p.Text
		}
	}
	return s
}

// HasText reports whether the message carries at least one non-empty text part.
func (m *Message) HasText() bool {
	for _, p := range m.Parts {
		if p.Type == PartText && p.Text != "" {
			return true
		}
	}
	return false
}
