package catalog

import (
	"errors"
	"testing"

	"github.com/joeychilson/chat/internal/models"
)

func loadCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestLoadEmbeddedCatalog(t *testing.T) {
	c := loadCatalog(t)
	if len(c.List()) == 0 {
		t.Fatal("expected a non-empty catalog")
	}
	if c.Get("gpt-4.1") == nil {
		t.Fatal("expected gpt-4.1 in the catalog")
	}
}

func TestResolveUnknownModel(t *testing.T) {
	c := loadCatalog(t)
	_, err := c.Resolve(models.Model{ID: "gpt-99", Type: models.ModalityText})
	if !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}

func TestResolveWrongModality(t *testing.T) {
	c := loadCatalog(t)
	_, err := c.Resolve(models.Model{ID: "gpt-4.1", Type: models.ModalityImage})
	if !errors.Is(err, ErrUnsupportedModality) {
		t.Fatalf("expected ErrUnsupportedModality, got %v", err)
	}
}

func TestResolveUnsupportedProvider(t *testing.T) {
	c := &Catalog{entries: map[string]*Entry{
		"some-speech": {ID: "some-speech", Type: models.ModalitySpeech, Provider: ProviderGoogle},
	}}
	_, err := c.Resolve(models.Model{ID: "some-speech", Type: models.ModalitySpeech})
	if !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestResolveDropsDefaultValuedOptions(t *testing.T) {
	c := loadCatalog(t)
	inv, err := c.Resolve(models.Model{
		ID:   "o4-mini",
		Type: models.ModalityText,
		Options: map[string]any{
			"reasoning":        "medium", // default, must be dropped
			"reasoningSummary": "detailed",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := inv.Options["reasoning_effort"]; ok {
		t.Fatal("default-valued reasoning option should have been dropped")
	}
	if got := inv.Options["reasoning_summary"]; got != "detailed" {
		t.Fatalf("expected reasoning_summary 'detailed', got %v", got)
	}
}

func TestResolveDropsUnknownOptions(t *testing.T) {
	c := loadCatalog(t)
	inv, err := c.Resolve(models.Model{
		ID:      "gpt-4.1",
		Type:    models.ModalityText,
		Options: map[string]any{"temperature": 0.7},
	})
	if err != nil {
		t.Fatal(err)
	}
	if inv.Options != nil {
		t.Fatalf("expected nil options, got %v", inv.Options)
	}
}

func TestResolveNormalizesGoogleOptions(t *testing.T) {
	c := loadCatalog(t)
	inv, err := c.Resolve(models.Model{
		ID:      "gemini-2.5-flash",
		Type:    models.ModalityText,
		Options: map[string]any{"thinking": true, "search": true},
	})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := inv.Options["thinkingConfig"].(map[string]any)
	if !ok {
		t.Fatalf("expected thinkingConfig object, got %v", inv.Options["thinkingConfig"])
	}
	if tc["thinkingBudget"] != 2048 {
		t.Fatalf("expected thinkingBudget 2048, got %v", tc["thinkingBudget"])
	}
	if inv.Options["useSearchGrounding"] != true {
		t.Fatal("expected useSearchGrounding to be set")
	}
}

func TestResolveNormalizesXAIReasoning(t *testing.T) {
	c := loadCatalog(t)
	inv, err := c.Resolve(models.Model{
		ID:      "grok-3-mini",
		Type:    models.ModalityText,
		Options: map[string]any{"reasoning": "high"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := inv.Options["reasoning_effort"]; got != "high" {
		t.Fatalf("expected reasoning_effort 'high', got %v", got)
	}
}

func TestSupportsFile(t *testing.T) {
	c := loadCatalog(t)
	e := c.Get("gpt-4.1")
	if !e.SupportsFile("image/png") {
		t.Fatal("gpt-4.1 should accept image/png")
	}
	if e.SupportsFile("audio/mpeg") {
		t.Fatal("gpt-4.1 should not accept audio/mpeg")
	}
}

func TestDisplayNameFallsBackToID(t *testing.T) {
	c := loadCatalog(t)
	if got := c.DisplayName("gpt-4.1"); got != "GPT-4.1" {
		t.Fatalf("expected 'GPT-4.1', got %q", got)
	}
	if got := c.DisplayName("nope"); got != "nope" {
		t.Fatalf("expected fallback to id, got %q", got)
	}
}
