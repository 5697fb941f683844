package models

import (
	"time"

	"github.com/google/uuid"
)

// File is a stored binary asset. Path is the object-storage key; the
// database row and the stored object have separate failure domains.
type File struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Name      string    `json:"name"`
	MediaType string    `json:"mediaType"`
	Size      int64     `json:"size"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreationType is the kind of generated artifact in the gallery.
type CreationType string

const (
	CreationImage CreationType = "image"
	CreationAudio CreationType = "audio"
)

// Creation is a gallery entry for a generated artifact, pointing at the
// file that holds the bytes.
type Creation struct {
	ID        uuid.UUID    `json:"id"`
	UserID    uuid.UUID    `json:"userId"`
	FileID    uuid.UUID    `json:"fileId"`
	Type      CreationType `json:"type"`
	Title     string       `json:"title"`
	Metadata  Metadata     `json:"metadata"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}
