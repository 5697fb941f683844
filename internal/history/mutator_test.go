package history

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/joeychilson/chat/internal/catalog"
	"github.com/joeychilson/chat/internal/models"
	"github.com/joeychilson/chat/internal/store"
)

// fakeStore backs the mutator with an in-memory chat. Unused Store methods
// panic through the embedded nil interface.
type fakeStore struct {
	store.Store
	chat     *models.Chat
	messages []models.Message
	created  *models.Chat
	seeded   []models.Message
}

func (s *fakeStore) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	for i := range s.messages {
		if s.messages[i].ID == id {
			return &s.messages[i], nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetChat(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	if s.chat != nil && s.chat.ID == id {
		return s.chat, nil
	}
	return nil, nil
}

func (s *fakeStore) ListMessages(ctx context.Context, chatID uuid.UUID) ([]models.Message, error) {
	return s.messages, nil
}

func (s *fakeStore) CreateChatWithMessages(ctx context.Context, chat *models.Chat, msgs []models.Message) (*models.Chat, error) {
	chat.ID = uuid.New()
	s.created = chat
	s.seeded = msgs
	return chat, nil
}

func newTestMutator(t *testing.T) (*Mutator, *fakeStore, uuid.UUID, []models.Message) {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatal(err)
	}

	userID := uuid.New()
	chatID := uuid.New()
	msgs := []models.Message{
		textMessage(chatID, models.RoleUser, "first question"),
		textMessage(chatID, models.RoleAssistant, "first answer"),
		textMessage(chatID, models.RoleUser, "second question"),
		textMessage(chatID, models.RoleAssistant, "second answer"),
	}
	fs := &fakeStore{
		chat:     &models.Chat{ID: chatID, UserID: userID, Title: "Original"},
		messages: msgs,
	}
	return NewMutator(fs, cat, zerolog.Nop()), fs, userID, msgs
}

func textMessage(chatID uuid.UUID, role models.Role, text string) models.Message {
	return models.Message{
		ID:     uuid.New(),
		ChatID: chatID,
		Role:   role,
		Parts:  []models.Part{{Type: models.PartText, Text: text}},
	}
}

func TestBranchIncludesPivotOnward(t *testing.T) {
	m, fs, userID, msgs := newTestMutator(t)

	created, err := m.Branch(context.Background(), userID, msgs[2].ID)
	if err != nil {
		t.Fatal(err)
	}

	if len(fs.seeded) != 2 {
		t.Fatalf("expected 2 seeded messages, got %d", len(fs.seeded))
	}
	if fs.seeded[0].ID != msgs[2].ID || fs.seeded[1].ID != msgs[3].ID {
		t.Fatal("branch seed should be the pivot and everything after it")
	}
	if created.Title != "Original" {
		t.Fatalf("branch should keep the original title, got %q", created.Title)
	}
	if created.BranchedMessageID == nil || *created.BranchedMessageID != msgs[2].ID {
		t.Fatal("branch should reference the pivot message")
	}
	if len(fs.messages) != 4 {
		t.Fatal("the original chat's messages must be untouched")
	}
}

func TestRetryAssistantPivotExcluded(t *testing.T) {
	m, fs, userID, msgs := newTestMutator(t)

	// Retrying the last assistant answer keeps everything before it.
	created, err := m.Retry(context.Background(), userID, msgs[3].ID, models.Model{ID: "gpt-4.1", Type: models.ModalityText})
	if err != nil {
		t.Fatal(err)
	}

	if len(fs.seeded) != 3 {
		t.Fatalf("expected 3 seeded messages, got %d", len(fs.seeded))
	}
	if fs.seeded[2].ID != msgs[2].ID {
		t.Fatal("the retried assistant message must not be seeded")
	}
	if created.Title != "Original with GPT-4.1" {
		t.Fatalf("unexpected title %q", created.Title)
	}
	if created.LastModelUsed == nil || created.LastModelUsed.ID != "gpt-4.1" {
		t.Fatal("retry should record the new model")
	}
}

func TestRetryUserPivotIncluded(t *testing.T) {
	m, fs, userID, msgs := newTestMutator(t)

	// Retrying from a user message keeps the message itself.
	_, err := m.Retry(context.Background(), userID, msgs[2].ID, models.Model{ID: "gpt-4.1", Type: models.ModalityText})
	if err != nil {
		t.Fatal(err)
	}

	if len(fs.seeded) != 3 {
		t.Fatalf("expected 3 seeded messages, got %d", len(fs.seeded))
	}
	if fs.seeded[2].ID != msgs[2].ID {
		t.Fatal("a user pivot must be seeded")
	}
}

func TestRetryTitleFallsBackToModelID(t *testing.T) {
	m, _, userID, msgs := newTestMutator(t)

	created, err := m.Retry(context.Background(), userID, msgs[3].ID, models.Model{ID: "custom-model", Type: models.ModalityText})
	if err != nil {
		t.Fatal(err)
	}
	if created.Title != "Original with custom-model" {
		t.Fatalf("unexpected title %q", created.Title)
	}
}

func TestBranchUnknownMessage(t *testing.T) {
	m, _, userID, _ := newTestMutator(t)

	_, err := m.Branch(context.Background(), userID, uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBranchWrongOwner(t *testing.T) {
	m, _, _, msgs := newTestMutator(t)

	_, err := m.Branch(context.Background(), uuid.New(), msgs[0].ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a non-owner, got %v", err)
	}
}
