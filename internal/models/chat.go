package models

import (
	"time"

	"github.com/google/uuid"
)

// Chat is a thread of messages belonging to one user. It is the unit of
// generation exclusivity: a non-nil StreamID means a generation is in
// progress (or was interrupted before cleanup) and doubles as the lookup
// key for the resumable stream.
type Chat struct {
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"userId"`
	BranchedMessageID *uuid.UUID `json:"branchedMessageId,omitempty"`
	StreamID          *string    `json:"streamId,omitempty"`
	Title             string     `json:"title"`
	Pinned            bool       `json:"pinned"`
	LastModelUsed     *Model     `json:"lastModelUsed,omitempty"`
	LastMessageAt     time.Time  `json:"lastMessageAt"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}
