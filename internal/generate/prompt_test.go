package generate

import (
	"strings"
	"testing"

	"github.com/joeychilson/chat/internal/models"
)

func TestSystemPromptNilSettings(t *testing.T) {
	got := systemPrompt(nil)
	if got != basePrompt {
		t.Fatalf("nil settings should produce the base prompt, got %q", got)
	}
}

func TestSystemPromptSkipsUnsetFields(t *testing.T) {
	got := systemPrompt(&models.Settings{PreferredName: "Sam"})
	if !strings.Contains(got, "Sam") {
		t.Fatal("preferred name should appear in the prompt")
	}
	if strings.Contains(got, "role") || strings.Contains(got, "personality") {
		t.Fatalf("unset fields should be skipped: %q", got)
	}
}

func TestSystemPromptAllFields(t *testing.T) {
	got := systemPrompt(&models.Settings{
		PreferredName:     "Sam",
		UserRole:          "backend engineer",
		AssistantTraits:   []string{"direct", "curious"},
		AdditionalContext: "Working on a Go codebase.",
	})
	for _, want := range []string{basePrompt, "Sam", "backend engineer", "direct, curious", "Working on a Go codebase."} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q:\n%s", want, got)
		}
	}
}
