package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/joeychilson/chat/internal/models"
)

// Store defines the interface for persistent storage of chats, messages,
// files, creations, and user settings. Both PostgresStore and SQLiteStore
// implement this interface; Postgres is the production backend, SQLite
// serves local development.
type Store interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// Session / user operations (issuance is external; read-only here)
	GetSessionByToken(ctx context.Context, token string) (*models.Session, *models.User, error)

	// Settings operations
	GetSettings(ctx context.Context, userID uuid.UUID) (*models.Settings, error)
	UpsertSettings(ctx context.Context, s *models.Settings) (*models.Settings, error)

	// Chat operations
	CreateChat(ctx context.Context, chat *models.Chat) (*models.Chat, error)
	GetChat(ctx context.Context, id uuid.UUID) (*models.Chat, error)
	ListChats(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Chat, error)
	UpdateChat(ctx context.Context, id uuid.UUID, title *string, pinned *bool) error
	// UpdateChatTitleIf sets the title only while it still has the given
	// placeholder value; used by async auto-titling so a user rename wins.
	UpdateChatTitleIf(ctx context.Context, id uuid.UUID, title, onlyIfTitle string) error
	DeleteChat(ctx context.Context, id uuid.UUID) error
	SearchChats(ctx context.Context, userID uuid.UUID, query string, limit int) ([]models.Chat, error)

	// Stream token operations (the cross-process generation lock)
	SetStreamToken(ctx context.Context, chatID uuid.UUID, token string) error
	ClearStreamToken(ctx context.Context, chatID uuid.UUID, expected string) (bool, error)

	// Message operations
	GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error)
	ListMessages(ctx context.Context, chatID uuid.UUID) ([]models.Message, error)
	InsertMessage(ctx context.Context, msg *models.Message) error
	DeleteMessage(ctx context.Context, id uuid.UUID) error
	// DeleteMessagesExcept removes every message in the chat whose id is
	// not in keep; used by retry to drop superseded turns.
	DeleteMessagesExcept(ctx context.Context, chatID uuid.UUID, keep []uuid.UUID) error

	// Generation persistence. Both run in a single transaction; the chat
	// pointer update is conditioned on the stream token still matching and
	// the returned bool reports whether it did.
	CompleteGeneration(ctx context.Context, token string, msg *models.Message, model models.Model) (bool, error)
	CompleteArtifactGeneration(ctx context.Context, token string, msg *models.Message, file *models.File, creation *models.Creation, model models.Model) (bool, error)

	// CreateChatWithMessages creates a chat and bulk-inserts its seed
	// messages in one transaction, so a reader never observes the chat
	// with zero messages when it should have a prefix.
	CreateChatWithMessages(ctx context.Context, chat *models.Chat, msgs []models.Message) (*models.Chat, error)

	// File operations
	InsertFile(ctx context.Context, file *models.File) error
	GetFile(ctx context.Context, id uuid.UUID) (*models.File, error)
	GetFileByPath(ctx context.Context, path string) (*models.File, error)
	ListFiles(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.File, error)
	DeleteFile(ctx context.Context, id uuid.UUID) error

	// Creation operations
	GetCreation(ctx context.Context, id uuid.UUID) (*models.Creation, error)
	ListCreations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Creation, error)
	DeleteCreation(ctx context.Context, id uuid.UUID) error
}
