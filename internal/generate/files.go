package generate

import (
	"context"
	"io"
	"strings"

	"github.com/joeychilson/chat/internal/catalog"
	"github.com/joeychilson/chat/internal/models"
	"github.com/joeychilson/chat/internal/provider"
	"github.com/joeychilson/chat/internal/storage"
)

// buildTurns converts stored messages into provider turns, resolving file
// parts to bytes and enforcing the model's file support.
//
// Providers reject files in assistant messages, so assistant files the model
// could otherwise read are relocated onto the latest user turn. Files of a
// type the model cannot read are dropped entirely. Text parts pass through;
// reasoning parts never leave the server.
func (o *Orchestrator) buildTurns(ctx context.Context, entry *catalog.Entry, msgs []models.Message) []provider.Turn {
	var turns []provider.Turn
	var relocated []provider.TurnPart
	lastUser := -1

	for _, msg := range msgs {
		if msg.Role == models.RoleSystem {
			continue
		}
		var parts []provider.TurnPart
		for _, part := range msg.Parts {
			switch part.Type {
			case models.PartText:
				if part.Text != "" {
					parts = append(parts, provider.TurnPart{Text: part.Text})
				}
			case models.PartFile:
				if !entry.SupportsFile(part.MediaType) {
					continue
				}
				fp := o.loadFilePart(ctx, part)
				if fp == nil {
					continue
				}
				if msg.Role == models.RoleAssistant {
					relocated = append(relocated, provider.TurnPart{File: fp})
					continue
				}
				parts = append(parts, provider.TurnPart{File: fp})
			}
		}
		if len(parts) == 0 {
			continue
		}
		turns = append(turns, provider.Turn{Role: msg.Role, Parts: parts})
		if msg.Role == models.RoleUser {
			lastUser = len(turns) - 1
		}
	}

	if len(relocated) > 0 && lastUser >= 0 {
		turns[lastUser].Parts = append(turns[lastUser].Parts, relocated...)
	}
	return turns
}

// loadFilePart fetches a file part's bytes from object storage. A missing
// or unreadable object is logged and skipped rather than failing the
// generation.
func (o *Orchestrator) loadFilePart(ctx context.Context, part models.Part) *provider.FilePart {
	path := strings.TrimPrefix(part.URL, storage.FileURL(""))
	rc, contentType, err := o.objects.Get(ctx, path)
	if err != nil {
		o.logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable file part")
		return nil
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		o.logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable file part")
		return nil
	}
	mediaType := part.MediaType
	if mediaType == "" {
		mediaType = contentType
	}
	return &provider.FilePart{Name: part.Filename, MediaType: mediaType, Data: data}
}
