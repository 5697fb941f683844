package generate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joeychilson/chat/internal/catalog"
	"github.com/joeychilson/chat/internal/models"
	"github.com/joeychilson/chat/internal/provider"
	"github.com/joeychilson/chat/internal/stream"
)

func (o *Orchestrator) generateText(ctx context.Context, req Request, inv *catalog.Invocation, em *emitter, started time.Time) error {
	streamer, err := o.providers.Text(inv.Provider)
	if err != nil {
		return err
	}
	settings, err := o.store.GetSettings(ctx, req.UserID)
	if err != nil {
		o.logger.Warn().Err(err).Str("user_id", req.UserID.String()).Msg("failed to load settings; using defaults")
		settings = nil
	}
	turns := o.buildTurns(ctx, inv.Entry, req.Messages)
	if len(turns) == 0 {
		return errors.New("generate: empty history after filtering")
	}

	msgID := uuid.New()
	if err := em.send(ctx, stream.Event{Type: stream.EventStart, MessageID: msgID.String()}); err != nil {
		return err
	}
	if err := em.send(ctx, stream.Event{Type: stream.EventStartStep}); err != nil {
		return err
	}

	var text, reasoning strings.Builder
	result, err := streamer.StreamText(ctx, provider.TextRequest{
		Model:   inv.ModelID,
		System:  systemPrompt(settings),
		Turns:   turns,
		Options: inv.Options,
	}, func(d provider.Delta) error {
		if d.Reasoning != "" {
			reasoning.WriteString(d.Reasoning)
			return em.send(ctx, stream.Event{Type: stream.EventReasoningDelta, Delta: d.Reasoning})
		}
		text.WriteString(d.Text)
		return em.send(ctx, stream.Event{Type: stream.EventTextDelta, Delta: d.Text})
	})
	if err != nil {
		return err
	}

	var parts []models.Part
	if reasoning.Len() > 0 {
		parts = append(parts, models.Part{Type: models.PartReasoning, Text: reasoning.String()})
	}
	parts = append(parts, models.Part{Type: models.PartText, Text: text.String()})

	meta := models.Metadata{
		Model:    &req.Model,
		Duration: time.Since(started).Milliseconds(),
		Usage:    result.Usage,
	}
	msg := &models.Message{
		ID:     msgID,
		ChatID: req.Chat.ID,
		Role:   models.RoleAssistant,
		Parts:  parts,
	}
	return o.completeText(ctx, req, em, msg, meta)
}
