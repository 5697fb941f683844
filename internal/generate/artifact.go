package generate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/joeychilson/chat/internal/catalog"
	"github.com/joeychilson/chat/internal/models"
	"github.com/joeychilson/chat/internal/provider"
	"github.com/joeychilson/chat/internal/storage"
	"github.com/joeychilson/chat/internal/stream"
)

func (o *Orchestrator) generateImage(ctx context.Context, req Request, inv *catalog.Invocation, prompt *models.Message, em *emitter, started time.Time) error {
	gen, err := o.providers.Image(inv.Provider)
	if err != nil {
		return err
	}
	msgID := uuid.New()
	if err := em.send(ctx, stream.Event{Type: stream.EventStart, MessageID: msgID.String()}); err != nil {
		return err
	}
	if err := em.send(ctx, stream.Event{Type: stream.EventStartStep}); err != nil {
		return err
	}
	art, err := gen.GenerateImage(ctx, provider.ImageRequest{
		Model:   inv.ModelID,
		Prompt:  prompt.TextContent(),
		Options: inv.Options,
	})
	if err != nil {
		return err
	}
	return o.persistArtifact(ctx, req, em, msgID, art, models.CreationImage, prompt.TextContent(), "Generated Image", started)
}

func (o *Orchestrator) generateSpeech(ctx context.Context, req Request, inv *catalog.Invocation, prompt *models.Message, em *emitter, started time.Time) error {
	gen, err := o.providers.Speech(inv.Provider)
	if err != nil {
		return err
	}
	settings, err := o.store.GetSettings(ctx, req.UserID)
	if err != nil {
		o.logger.Warn().Err(err).Str("user_id", req.UserID.String()).Msg("failed to load settings; using defaults")
		settings = nil
	}

	voice := "alloy"
	speed := 1.0
	if settings != nil {
		if settings.DefaultSpeechVoice != "" {
			voice = settings.DefaultSpeechVoice
		}
		if v, err := strconv.ParseFloat(settings.DefaultSpeechSpeed, 64); err == nil && v > 0 {
			speed = v
		}
	}
	if v, ok := inv.Options["voice"].(string); ok && v != "" {
		voice = v
	}
	switch v := inv.Options["speed"].(type) {
	case float64:
		if v > 0 {
			speed = v
		}
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			speed = f
		}
	}

	msgID := uuid.New()
	if err := em.send(ctx, stream.Event{Type: stream.EventStart, MessageID: msgID.String()}); err != nil {
		return err
	}
	if err := em.send(ctx, stream.Event{Type: stream.EventStartStep}); err != nil {
		return err
	}
	art, err := gen.GenerateSpeech(ctx, provider.SpeechRequest{
		Model: inv.ModelID,
		Input: prompt.TextContent(),
		Voice: voice,
		Speed: speed,
	})
	if err != nil {
		return err
	}
	return o.persistArtifact(ctx, req, em, msgID, art, models.CreationAudio, prompt.TextContent(), "Generated Speech", started)
}

// persistArtifact uploads the artifact, names it, and commits the message,
// file, creation, and chat update together. Storage and the database are
// not globally atomic: an upload whose transaction later fails leaves an
// orphaned object, which is logged for out-of-band cleanup.
func (o *Orchestrator) persistArtifact(ctx context.Context, req Request, em *emitter, msgID uuid.UUID, art *provider.Artifact, ctype models.CreationType, promptText, defaultTitle string, started time.Time) error {
	ext := extensionFor(art.MediaType)
	path := fmt.Sprintf("generations/%s/%s%s", req.UserID, uuid.NewString(), ext)
	if err := o.objects.Put(ctx, path, art.Data, art.MediaType); err != nil {
		return fmt.Errorf("generate: store artifact: %w", err)
	}

	// Naming is a helper call; its failure never fails the generation.
	title := o.artifactTitle(ctx, promptText, defaultTitle)
	filename := slugify(title) + ext
	url := storage.FileURL(path)

	meta := models.Metadata{
		Model:    &req.Model,
		Duration: time.Since(started).Milliseconds(),
	}
	msg := &models.Message{
		ID:     msgID,
		ChatID: req.Chat.ID,
		Role:   models.RoleAssistant,
		Parts: []models.Part{
			{Type: models.PartFile, Filename: filename, MediaType: art.MediaType, URL: url},
		},
		Metadata: meta,
	}
	file := &models.File{
		UserID:    req.UserID,
		Name:      filename,
		MediaType: art.MediaType,
		Size:      int64(len(art.Data)),
		Path:      path,
	}
	creation := &models.Creation{
		UserID:   req.UserID,
		Type:     ctype,
		Title:    title,
		Metadata: meta,
	}

	matched, err := o.store.CompleteArtifactGeneration(ctx, em.lease.Token(), msg, file, creation, req.Model)
	if err != nil {
		o.logger.Error().Err(err).Str("path", path).Msg("artifact transaction failed; stored object orphaned")
		return err
	}
	if !matched {
		o.logger.Warn().
			Str("chat_id", req.Chat.ID.String()).
			Str("message_id", msgID.String()).
			Msg("generation superseded; artifact saved without chat update")
	}

	if err := em.send(ctx, stream.Event{Type: stream.EventFile, MediaType: art.MediaType, URL: url}); err != nil {
		return err
	}
	em.send(ctx, stream.Event{Type: stream.EventFinishStep, Metadata: &meta})
	em.send(ctx, stream.Event{Type: stream.EventFinish, Metadata: &meta})
	return nil
}

func extensionFor(mediaType string) string {
	switch mediaType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav":
		return ".wav"
	default:
		return ""
	}
}
