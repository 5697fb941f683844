// Package provider wraps the upstream model APIs behind small interfaces so
// the generation pipeline stays independent of any one vendor SDK.
package provider

import (
	"context"
	"errors"

	"github.com/joeychilson/chat/internal/models"
)

// ErrUnavailable is returned when a provider has no API key configured.
var ErrUnavailable = errors.New("provider: not configured")

// FilePart is a binary attachment resolved to bytes before the call.
type FilePart struct {
	Name      string
	MediaType string
	Data      []byte
}

// TurnPart is one piece of a conversation turn, either text or a file.
type TurnPart struct {
	Text string
	File *FilePart
}

// Turn is one message of the upstream conversation.
type Turn struct {
	Role  models.Role
	Parts []TurnPart
}

// TextRequest describes a streaming chat completion.
type TextRequest struct {
	Model   string
	System  string
	Turns   []Turn
	Options map[string]any
}

// Delta is one streamed increment of a text generation.
type Delta struct {
	Text      string
	Reasoning string
}

// TextResult carries the final accounting of a completed stream.
type TextResult struct {
	Usage *models.Usage
}

// TextStreamer streams a chat completion, invoking emit for each delta.
// A non-nil error from emit aborts the stream and is returned as-is.
type TextStreamer interface {
	StreamText(ctx context.Context, req TextRequest, emit func(Delta) error) (*TextResult, error)
}

// ImageRequest describes a single-shot image generation.
type ImageRequest struct {
	Model   string
	Prompt  string
	Options map[string]any
}

// SpeechRequest describes a single-shot text-to-speech generation.
type SpeechRequest struct {
	Model string
	Input string
	Voice string
	Speed float64
}

// Artifact is the binary result of an image or speech generation.
type Artifact struct {
	Data      []byte
	MediaType string
}

// ImageGenerator produces an image from a prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*Artifact, error)
}

// SpeechGenerator synthesizes speech from text.
type SpeechGenerator interface {
	GenerateSpeech(ctx context.Context, req SpeechRequest) (*Artifact, error)
}

// Titler produces a short title for a piece of content.
type Titler interface {
	GenerateTitle(ctx context.Context, instructions, content string) (string, error)
}
