package provider

import (
	"context"
	"fmt"

	"github.com/joeychilson/chat/internal/catalog"
)

const xaiBaseURL = "https://api.x.ai/v1"

// Config holds the upstream API keys. Empty keys leave the provider
// unconfigured; requests routed to it fail with ErrUnavailable.
type Config struct {
	OpenAIKey string
	GoogleKey string
	XAIKey    string
}

// Registry resolves catalog provider names to configured clients.
type Registry struct {
	openai *OpenAI
	google *Google
	xai    *OpenAI
}

// NewRegistry builds clients for every provider with a key configured.
func NewRegistry(ctx context.Context, cfg Config) (*Registry, error) {
	r := &Registry{}
	if cfg.OpenAIKey != "" {
		r.openai = NewOpenAI(cfg.OpenAIKey, "")
	}
	if cfg.XAIKey != "" {
		r.xai = NewOpenAI(cfg.XAIKey, xaiBaseURL)
	}
	if cfg.GoogleKey != "" {
		google, err := NewGoogle(ctx, cfg.GoogleKey)
		if err != nil {
			return nil, err
		}
		r.google = google
	}
	return r, nil
}

// Text returns the text streamer for the named provider.
func (r *Registry) Text(name string) (TextStreamer, error) {
	switch name {
	case catalog.ProviderOpenAI:
		if r.openai != nil {
			return r.openai, nil
		}
	case catalog.ProviderGoogle:
		if r.google != nil {
			return r.google, nil
		}
	case catalog.ProviderXAI:
		if r.xai != nil {
			return r.xai, nil
		}
	default:
		return nil, fmt.Errorf("provider: unknown provider %q", name)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnavailable, name)
}

// Image returns the image generator for the named provider.
func (r *Registry) Image(name string) (ImageGenerator, error) {
	switch name {
	case catalog.ProviderOpenAI:
		if r.openai != nil {
			return r.openai, nil
		}
	case catalog.ProviderXAI:
		if r.xai != nil {
			return r.xai, nil
		}
	default:
		return nil, fmt.Errorf("provider: %s does not generate images", name)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnavailable, name)
}

// Speech returns the speech generator for the named provider.
func (r *Registry) Speech(name string) (SpeechGenerator, error) {
	if name != catalog.ProviderOpenAI {
		return nil, fmt.Errorf("provider: %s does not generate speech", name)
	}
	if r.openai == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, name)
	}
	return r.openai, nil
}

// Titler returns the best available title generator, or nil when none of
// the backing providers are configured.
func (r *Registry) Titler() Titler {
	if r.google != nil {
		return r.google
	}
	return nil
}
