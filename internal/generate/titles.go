package generate

import (
	"context"
	"strings"
	"unicode"
)

const (
	chatTitleInstructions = "Generate a short title for a conversation that begins with the user message you are given. " +
		"At most six words, no quotes, no trailing punctuation."

	artifactTitleInstructions = "Generate a short descriptive title for content generated from the prompt you are given. " +
		"At most six words, no quotes, no trailing punctuation."
)

// TitleChat asks the title helper to name a new chat from its first user
// message. Returns empty when no helper is configured or the call fails;
// callers keep the default title in that case.
func (o *Orchestrator) TitleChat(ctx context.Context, content string) string {
	titler := o.providers.Titler()
	if titler == nil {
		return ""
	}
	title, err := titler.GenerateTitle(ctx, chatTitleInstructions, content)
	if err != nil {
		o.logger.Warn().Err(err).Msg("chat title generation failed")
		return ""
	}
	return strings.TrimSpace(title)
}

// artifactTitle names a generated artifact, falling back to a default when
// the helper is unavailable or fails.
func (o *Orchestrator) artifactTitle(ctx context.Context, promptText, fallback string) string {
	titler := o.providers.Titler()
	if titler == nil {
		return fallback
	}
	title, err := titler.GenerateTitle(ctx, artifactTitleInstructions, promptText)
	if err != nil {
		o.logger.Warn().Err(err).Msg("artifact title generation failed; using default")
		return fallback
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return fallback
	}
	return title
}

// slugify turns a title into a filesystem-friendly filename stem.
func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "untitled"
	}
	return out
}
