package generate

import (
	"strings"

	"github.com/joeychilson/chat/internal/models"
)

const basePrompt = "You are a helpful assistant. Answer clearly and concisely, and use markdown formatting where it helps readability."

// systemPrompt assembles the system prompt from the user's settings. Unset
// fields are skipped, not defaulted.
func systemPrompt(set *models.Settings) string {
	var b strings.Builder
	b.WriteString(basePrompt)
	if set == nil {
		return b.String()
	}
	if set.PreferredName != "" {
		b.WriteString("\n\nThe user prefers to be called ")
		b.WriteString(set.PreferredName)
		b.WriteString(".")
	}
	if set.UserRole != "" {
		b.WriteString("\n\nThe user's role: ")
		b.WriteString(set.UserRole)
	}
	if len(set.AssistantTraits) > 0 {
		b.WriteString("\n\nYour personality traits: ")
		b.WriteString(strings.Join(set.AssistantTraits, ", "))
	}
	if set.AdditionalContext != "" {
		b.WriteString("\n\nAdditional context from the user:\n")
		b.WriteString(set.AdditionalContext)
	}
	return b.String()
}
