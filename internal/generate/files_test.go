package generate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"github.com/joeychilson/chat/internal/catalog"
	"github.com/joeychilson/chat/internal/models"
	"github.com/joeychilson/chat/internal/storage"
)

// fakeObjects is an in-memory ObjectStore.
type fakeObjects struct {
	files map[string][]byte
}

func (f *fakeObjects) Put(ctx context.Context, path string, data []byte, contentType string) error {
	if f.files == nil {
		f.files = make(map[string][]byte)
	}
	f.files[path] = data
	return nil
}

func (f *fakeObjects) Get(ctx context.Context, path string) (io.ReadCloser, string, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, "", fmt.Errorf("not found: %s", path)
	}
	return io.NopCloser(bytes.NewReader(data)), "application/octet-stream", nil
}

func (f *fakeObjects) Remove(ctx context.Context, path string) error {
	delete(f.files, path)
	return nil
}

func newTurnOrchestrator(objects storage.ObjectStore) *Orchestrator {
	return &Orchestrator{objects: objects, logger: zerolog.Nop()}
}

func filePart(path, mediaType string) models.Part {
	return models.Part{
		Type:      models.PartFile,
		Filename:  "f",
		MediaType: mediaType,
		URL:       storage.FileURL(path),
	}
}

func TestBuildTurnsTextAndFiles(t *testing.T) {
	objects := &fakeObjects{files: map[string][]byte{
		"uploads/u/pic.png": []byte("png-bytes"),
	}}
	o := newTurnOrchestrator(objects)
	entry := &catalog.Entry{FileTypes: []string{"image/png"}}

	msgs := []models.Message{
		{Role: models.RoleUser, Parts: []models.Part{
			{Type: models.PartText, Text: "look at this"},
			filePart("uploads/u/pic.png", "image/png"),
		}},
	}
	turns := o.buildTurns(context.Background(), entry, msgs)
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	if len(turns[0].Parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(turns[0].Parts))
	}
	fp := turns[0].Parts[1].File
	if fp == nil || string(fp.Data) != "png-bytes" {
		t.Fatal("file part should carry the object's bytes")
	}
}

func TestBuildTurnsDropsUnsupportedFiles(t *testing.T) {
	objects := &fakeObjects{files: map[string][]byte{
		"uploads/u/song.mp3": []byte("mp3"),
	}}
	o := newTurnOrchestrator(objects)
	entry := &catalog.Entry{FileTypes: []string{"image/png"}}

	msgs := []models.Message{
		{Role: models.RoleUser, Parts: []models.Part{
			{Type: models.PartText, Text: "listen"},
			filePart("uploads/u/song.mp3", "audio/mpeg"),
		}},
	}
	turns := o.buildTurns(context.Background(), entry, msgs)
	if len(turns) != 1 || len(turns[0].Parts) != 1 {
		t.Fatal("unsupported file type should be dropped")
	}
}

func TestBuildTurnsRelocatesAssistantFiles(t *testing.T) {
	objects := &fakeObjects{files: map[string][]byte{
		"generations/c/art.png": []byte("art"),
	}}
	o := newTurnOrchestrator(objects)
	entry := &catalog.Entry{FileTypes: []string{"image/png"}}

	msgs := []models.Message{
		{Role: models.RoleUser, Parts: []models.Part{{Type: models.PartText, Text: "draw a cat"}}},
		{Role: models.RoleAssistant, Parts: []models.Part{
			{Type: models.PartText, Text: "here you go"},
			filePart("generations/c/art.png", "image/png"),
		}},
		{Role: models.RoleUser, Parts: []models.Part{{Type: models.PartText, Text: "make it bigger"}}},
	}
	turns := o.buildTurns(context.Background(), entry, msgs)
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	if len(turns[1].Parts) != 1 {
		t.Fatal("assistant turn should keep only its text part")
	}
	last := turns[2]
	if last.Role != models.RoleUser || len(last.Parts) != 2 {
		t.Fatalf("assistant file should land on the last user turn, got %+v", last)
	}
	if last.Parts[1].File == nil || string(last.Parts[1].File.Data) != "art" {
		t.Fatal("relocated part should carry the artifact bytes")
	}
}

func TestBuildTurnsSkipsReasoningAndSystem(t *testing.T) {
	o := newTurnOrchestrator(&fakeObjects{})
	entry := &catalog.Entry{}

	msgs := []models.Message{
		{Role: models.RoleSystem, Parts: []models.Part{{Type: models.PartText, Text: "internal"}}},
		{Role: models.RoleAssistant, Parts: []models.Part{
			{Type: models.PartReasoning, Text: "thinking..."},
			{Type: models.PartText, Text: "answer"},
		}},
	}
	turns := o.buildTurns(context.Background(), entry, msgs)
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	if len(turns[0].Parts) != 1 || turns[0].Parts[0].Text != "answer" {
		t.Fatal("reasoning parts must never be sent to providers")
	}
}

func TestBuildTurnsSkipsMissingObjects(t *testing.T) {
	o := newTurnOrchestrator(&fakeObjects{})
	entry := &catalog.Entry{FileTypes: []string{"image/png"}}

	msgs := []models.Message{
		{Role: models.RoleUser, Parts: []models.Part{
			{Type: models.PartText, Text: "see file"},
			filePart("uploads/u/gone.png", "image/png"),
		}},
	}
	turns := o.buildTurns(context.Background(), entry, msgs)
	if len(turns) != 1 || len(turns[0].Parts) != 1 {
		t.Fatal("an unreadable object should be skipped, not fail the build")
	}
}
