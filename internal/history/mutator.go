// Package history derives new chats from points in an existing chat's
// history. Both operations create independent chats; the original is never
// mutated, so other branches referencing its messages stay valid.
package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/joeychilson/chat/internal/catalog"
	"github.com/joeychilson/chat/internal/models"
	"github.com/joeychilson/chat/internal/store"
)

// ErrNotFound is returned when the pivot message, its chat, or the caller's
// ownership of them cannot be established.
var ErrNotFound = errors.New("history: not found")

// Mutator creates branched and retried chats.
type Mutator struct {
	store   store.Store
	catalog *catalog.Catalog
	logger  zerolog.Logger
}

// NewMutator creates a Mutator.
func NewMutator(st store.Store, cat *catalog.Catalog, logger zerolog.Logger) *Mutator {
	return &Mutator{store: st, catalog: cat, logger: logger}
}

// Branch creates a new chat seeded with every message from the pivot onward,
// inclusive, in creation order. The new chat keeps the original title and a
// weak reference to the pivot message.
func (m *Mutator) Branch(ctx context.Context, userID, messageID uuid.UUID) (*models.Chat, error) {
	chat, msgs, pivot, err := m.locate(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}
	seed := msgs[pivot:]

	branched := messageID
	newChat := &models.Chat{
		UserID:            userID,
		BranchedMessageID: &branched,
		Title:             chat.Title,
		LastModelUsed:     chat.LastModelUsed,
	}
	created, err := m.store.CreateChatWithMessages(ctx, newChat, seed)
	if err != nil {
		return nil, fmt.Errorf("history: branch chat: %w", err)
	}
	m.logger.Info().
		Str("chat_id", chat.ID.String()).
		Str("new_chat_id", created.ID.String()).
		Int("messages", len(seed)).
		Msg("branched chat")
	return created, nil
}

// Retry creates a new chat seeded with the replay prefix for the pivot and
// the new model as its last-used model. A user pivot is kept; an assistant
// pivot is dropped, since it is the response being retried.
func (m *Mutator) Retry(ctx context.Context, userID, messageID uuid.UUID, model models.Model) (*models.Chat, error) {
	chat, msgs, pivot, err := m.locate(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}
	end := pivot
	if msgs[pivot].Role == models.RoleUser {
		end = pivot + 1
	}
	seed := msgs[:end]

	newModel := model
	newChat := &models.Chat{
		UserID:        userID,
		Title:         fmt.Sprintf("%s with %s", chat.Title, m.catalog.DisplayName(model.ID)),
		LastModelUsed: &newModel,
	}
	created, err := m.store.CreateChatWithMessages(ctx, newChat, seed)
	if err != nil {
		return nil, fmt.Errorf("history: retry chat: %w", err)
	}
	m.logger.Info().
		Str("chat_id", chat.ID.String()).
		Str("new_chat_id", created.ID.String()).
		Str("model", model.ID).
		Int("messages", len(seed)).
		Msg("created retry chat")
	return created, nil
}

// locate loads the pivot message, verifies ownership through its chat, and
// returns the chat's full message list with the pivot's index.
func (m *Mutator) locate(ctx context.Context, userID, messageID uuid.UUID) (*models.Chat, []models.Message, int, error) {
	msg, err := m.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, nil, 0, err
	}
	if msg == nil {
		return nil, nil, 0, ErrNotFound
	}
	chat, err := m.store.GetChat(ctx, msg.ChatID)
	if err != nil {
		return nil, nil, 0, err
	}
	if chat == nil || chat.UserID != userID {
		return nil, nil, 0, ErrNotFound
	}
	msgs, err := m.store.ListMessages(ctx, chat.ID)
	if err != nil {
		return nil, nil, 0, err
	}
	for i := range msgs {
		if msgs[i].ID == messageID {
			return chat, msgs, i, nil
		}
	}
	return nil, nil, 0, ErrNotFound
}
