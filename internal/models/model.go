package models

// Modality is the kind of content a model produces.
type Modality string

const (
	ModalityText   Modality = "text"
	ModalityImage  Modality = "image"
	ModalitySpeech Modality = "speech"
)

// Model is the client's model selection: a catalog id, the modality it
// produces, and a free-form options bag. Options are interpreted by the
// catalog, never forwarded to providers as-is.
type Model struct {
	ID      string         `json:"id"`
	Type    Modality       `json:"type"`
	Options map[string]any `json:"options,omitempty"`
}
