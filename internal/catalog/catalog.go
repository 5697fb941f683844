// Package catalog maps abstract model selections to concrete provider
// invocations. The catalog of known models is embedded at build time and
// read-only for the life of the process.
package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"slices"

	"github.com/goccy/go-yaml"

	"github.com/joeychilson/chat/internal/models"

	_ "embed"
)

var (
	// ErrUnknownModel is returned when the requested id is not in the catalog.
	ErrUnknownModel = errors.New("catalog: unknown model")
	// ErrUnsupportedModality is returned when the requested modality does not
	// match the catalog entry.
	ErrUnsupportedModality = errors.New("catalog: unsupported modality")
	// ErrUnsupportedProvider is returned when no provider binding exists for
	// the entry's (provider, modality) pair.
	ErrUnsupportedProvider = errors.New("catalog: unsupported provider")
)

// Provider ids known to the catalog.
const (
	ProviderOpenAI = "openai"
	ProviderGoogle = "google"
	ProviderXAI    = "xai"
)

// bindings lists which (provider, modality) pairs have a live provider
// implementation. Mirrors the provider registry in internal/provider.
var bindings = map[string][]models.Modality{
	ProviderOpenAI: {models.ModalityText, models.ModalityImage, models.ModalitySpeech},
	ProviderGoogle: {models.ModalityText},
	ProviderXAI:    {models.ModalityText, models.ModalityImage},
}

//go:embed catalog.yaml
var catalogYAML []byte

// Option declares a model option's key and default value. Options set to
// their default are dropped during normalization.
type Option struct {
	Key     string `yaml:"key"`
	Default any    `yaml:"default"`
}

// Entry describes one model in the catalog.
type Entry struct {
	ID        string          `yaml:"id"`
	Name      string          `yaml:"name"`
	Type      models.Modality `yaml:"type"`
	Provider  string          `yaml:"provider"`
	FileTypes []string        `yaml:"fileTypes"`
	Options   []Option        `yaml:"options"`
}

// SupportsFile reports whether the model accepts the given media type as input.
func (e *Entry) SupportsFile(mediaType string) bool {
	return slices.Contains(e.FileTypes, mediaType)
}

// Invocation is the resolved result of a model selection: which provider to
// call, with which model id, and the provider-native option payload.
type Invocation struct {
	Entry    *Entry
	Provider string
	ModelID  string
	Options  map[string]any
}

// Catalog is the static set of known models.
type Catalog struct {
	entries map[string]*Entry
	order   []string
}

type catalogFile struct {
	Models []Entry `yaml:"models"`
}

// Load parses the embedded catalog. Called once at startup.
func Load() (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(catalogYAML, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	c := &Catalog{entries: make(map[string]*Entry, len(f.Models))}
	for i := range f.Models {
		e := &f.Models[i]
		if _, dup := c.entries[e.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate model id %q", e.ID)
		}
		c.entries[e.ID] = e
		c.order = append(c.order, e.ID)
	}
	return c, nil
}

// Get returns the catalog entry for the given id, or nil if unknown.
func (c *Catalog) Get(id string) *Entry {
	return c.entries[id]
}

// DisplayName returns the human-readable name for a model id, falling back
// to the id itself when the model is unknown.
func (c *Catalog) DisplayName(id string) string {
	if e := c.entries[id]; e != nil {
		return e.Name
	}
	return id
}

// List returns all entries in catalog order.
func (c *Catalog) List() []*Entry {
	out := make([]*Entry, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.entries[id])
	}
	return out
}

// Resolve maps a model selection to a provider invocation. The selection's
// options are filtered against the entry's declared options (unknown and
// default-valued keys dropped) and reshaped into the provider's native
// parameter set.
func (c *Catalog) Resolve(sel models.Model) (*Invocation, error) {
	e := c.entries[sel.ID]
	if e == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, sel.ID)
	}
	if sel.Type != e.Type {
		return nil, fmt.Errorf("%w: model %q is %s, requested %s", ErrUnsupportedModality, sel.ID, e.Type, sel.Type)
	}
	if !slices.Contains(bindings[e.Provider], e.Type) {
		return nil, fmt.Errorf("%w: no %s binding for %q", ErrUnsupportedProvider, e.Type, e.Provider)
	}
	return &Invocation{
		Entry:    e,
		Provider: e.Provider,
		ModelID:  e.ID,
		Options:  normalize(e, filterOptions(e, sel.Options)),
	}, nil
}

// filterOptions keeps only options the entry declares, and drops any whose
// value equals the declared default. Keeping provider payloads minimal keeps
// them stable for caching.
func filterOptions(e *Entry, opts map[string]any) map[string]any {
	if len(opts) == 0 {
		return nil
	}
	kept := make(map[string]any)
	for _, decl := range e.Options {
		v, ok := opts[decl.Key]
		if !ok || reflect.DeepEqual(v, decl.Default) {
			continue
		}
		kept[decl.Key] = v
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}
