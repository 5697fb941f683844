package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/joeychilson/chat/internal/models"
)

// schemaSQLite mirrors the Postgres schema for local development. UUIDs are
// stored as TEXT; JSON columns as serialized TEXT.
const schemaSQLite = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	email_verified INTEGER NOT NULL DEFAULT 0,
	image TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	token TEXT NOT NULL UNIQUE,
	expires_at TIMESTAMP NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
	default_model TEXT,
	default_speech_voice TEXT NOT NULL DEFAULT 'alloy',
	default_speech_speed TEXT NOT NULL DEFAULT '1.0',
	preferred_name TEXT NOT NULL DEFAULT '',
	user_role TEXT NOT NULL DEFAULT '',
	assistant_traits TEXT NOT NULL DEFAULT '[]',
	additional_context TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chats (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	branched_message_id TEXT,
	stream_id TEXT,
	title TEXT NOT NULL DEFAULT 'Untitled Chat',
	pinned INTEGER NOT NULL DEFAULT 0,
	last_model_used TEXT,
	last_message_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_chat_user_last_message ON chats(user_id, last_message_at);

CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	chat_id TEXT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
	role TEXT NOT NULL CHECK (role IN ('user', 'assistant', 'system')),
	parts TEXT NOT NULL DEFAULT '[]',
	metadata TEXT NOT NULL DEFAULT '{}',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_message_chat_created ON messages(chat_id, created_at);

CREATE TABLE IF NOT EXISTS files (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	media_type TEXT NOT NULL,
	size INTEGER NOT NULL,
	path TEXT NOT NULL UNIQUE,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS creations (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	file_id TEXT NOT NULL UNIQUE REFERENCES files(id) ON DELETE CASCADE,
	type TEXT NOT NULL CHECK (type IN ('image', 'audio')),
	title TEXT NOT NULL DEFAULT 'Untitled Creation',
	metadata TEXT NOT NULL DEFAULT '{}',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore handles SQLite database operations for local development.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and migrates) a SQLite database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schemaSQLite); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetSessionByToken retrieves a session and its user by bearer token.
func (s *SQLiteStore) GetSessionByToken(ctx context.Context, token string) (*models.Session, *models.User, error) {
	session := &models.Session{}
	user := &models.User{}
	var sessionID, sessionUserID, userID string
	err := s.db.QueryRowContext(ctx, `
		SELECT s.id, s.user_id, s.token, s.expires_at, s.created_at,
		       u.id, u.name, u.email, u.email_verified, u.image, u.created_at, u.updated_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = ?
	`, token).Scan(
		&sessionID, &sessionUserID, &session.Token, &session.ExpiresAt, &session.CreatedAt,
		&userID, &user.Name, &user.Email, &user.EmailVerified, &user.Image, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if session.Expired(time.Now()) {
		return nil, nil, nil
	}
	if session.ID, err = uuid.Parse(sessionID); err != nil {
		return nil, nil, err
	}
	if session.UserID, err = uuid.Parse(sessionUserID); err != nil {
		return nil, nil, err
	}
	if user.ID, err = uuid.Parse(userID); err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

// GetSettings retrieves a user's settings, or nil if none are stored.
func (s *SQLiteStore) GetSettings(ctx context.Context, userID uuid.UUID) (*models.Settings, error) {
	set := &models.Settings{}
	var id string
	var defaultModel sql.NullString
	var traits string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, default_model, default_speech_voice, default_speech_speed,
		       preferred_name, user_role, assistant_traits, additional_context, created_at, updated_at
		FROM settings WHERE user_id = ?
	`, userID.String()).Scan(
		&id, &defaultModel, &set.DefaultSpeechVoice, &set.DefaultSpeechSpeed,
		&set.PreferredName, &set.UserRole, &traits, &set.AdditionalContext, &set.CreatedAt, &set.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if set.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	set.UserID = userID
	if defaultModel.Valid {
		if err := unmarshalModel([]byte(defaultModel.String), &set.DefaultModel); err != nil {
			return nil, err
		}
	}
	if err := json.Unmarshal([]byte(traits), &set.AssistantTraits); err != nil {
		return nil, fmt.Errorf("store: decode assistant traits: %w", err)
	}
	return set, nil
}

// UpsertSettings inserts or updates the user's settings row.
func (s *SQLiteStore) UpsertSettings(ctx context.Context, set *models.Settings) (*models.Settings, error) {
	defaultModel, err := marshalModel(set.DefaultModel)
	if err != nil {
		return nil, err
	}
	traits, err := json.Marshal(orEmptySlice(set.AssistantTraits))
	if err != nil {
		return nil, err
	}
	var dm any
	if defaultModel != nil {
		dm = string(defaultModel)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (id, user_id, default_model, default_speech_voice, default_speech_speed,
		                      preferred_name, user_role, assistant_traits, additional_context)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			default_model = excluded.default_model,
			default_speech_voice = excluded.default_speech_voice,
			default_speech_speed = excluded.default_speech_speed,
			preferred_name = excluded.preferred_name,
			user_role = excluded.user_role,
			assistant_traits = excluded.assistant_traits,
			additional_context = excluded.additional_context,
			updated_at = CURRENT_TIMESTAMP
	`, uuid.NewString(), set.UserID.String(), dm, set.DefaultSpeechVoice, set.DefaultSpeechSpeed,
		set.PreferredName, set.UserRole, string(traits), set.AdditionalContext)
	if err != nil {
		return nil, err
	}
	return s.GetSettings(ctx, set.UserID)
}

func (s *SQLiteStore) scanChatRow(row interface{ Scan(...any) error }) (*models.Chat, error) {
	chat := &models.Chat{}
	var id, userID string
	var branched, streamID, lastModel sql.NullString
	err := row.Scan(
		&id, &userID, &branched, &streamID, &chat.Title,
		&chat.Pinned, &lastModel, &chat.LastMessageAt, &chat.CreatedAt, &chat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if chat.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if chat.UserID, err = uuid.Parse(userID); err != nil {
		return nil, err
	}
	if branched.Valid {
		b, err := uuid.Parse(branched.String)
		if err != nil {
			return nil, err
		}
		chat.BranchedMessageID = &b
	}
	if streamID.Valid {
		v := streamID.String
		chat.StreamID = &v
	}
	if lastModel.Valid {
		if err := unmarshalModel([]byte(lastModel.String), &chat.LastModelUsed); err != nil {
			return nil, err
		}
	}
	return chat, nil
}

// CreateChat creates a new chat.
func (s *SQLiteStore) CreateChat(ctx context.Context, chat *models.Chat) (*models.Chat, error) {
	lastModel, err := marshalModel(chat.LastModelUsed)
	if err != nil {
		return nil, err
	}
	id := chat.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	title := chat.Title
	if title == "" {
		title = "Untitled Chat"
	}
	var branched, lm any
	if chat.BranchedMessageID != nil {
		branched = chat.BranchedMessageID.String()
	}
	if lastModel != nil {
		lm = string(lastModel)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO chats (id, user_id, branched_message_id, title, pinned, last_model_used)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id.String(), chat.UserID.String(), branched, title, chat.Pinned, lm); err != nil {
		return nil, err
	}
	return s.GetChat(ctx, id)
}

const sqliteChatColumns = `id, user_id, branched_message_id, stream_id, title, pinned, last_model_used, last_message_at, created_at, updated_at`

// GetChat retrieves a chat by ID.
func (s *SQLiteStore) GetChat(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	chat, err := s.scanChatRow(s.db.QueryRowContext(ctx, `
		SELECT `+sqliteChatColumns+` FROM chats WHERE id = ?
	`, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return chat, nil
}

// ListChats retrieves a user's chats, pinned first, most recent activity next.
func (s *SQLiteStore) ListChats(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Chat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteChatColumns+` FROM chats
		WHERE user_id = ?
		ORDER BY pinned DESC, last_message_at DESC
		LIMIT ? OFFSET ?
	`, userID.String(), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.collectChats(rows)
}

// SearchChats finds a user's chats whose title or message content matches
// the query.
func (s *SQLiteStore) SearchChats(ctx context.Context, userID uuid.UUID, query string, limit int) ([]models.Chat, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT c.id, c.user_id, c.branched_message_id, c.stream_id, c.title, c.pinned,
		       c.last_model_used, c.last_message_at, c.created_at, c.updated_at
		FROM chats c
		LEFT JOIN messages m ON m.chat_id = c.id
		WHERE c.user_id = ? AND (c.title LIKE ? OR m.parts LIKE ?)
		ORDER BY c.last_message_at DESC
		LIMIT ?
	`, userID.String(), pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.collectChats(rows)
}

func (s *SQLiteStore) collectChats(rows *sql.Rows) ([]models.Chat, error) {
	var chats []models.Chat
	for rows.Next() {
		chat, err := s.scanChatRow(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, *chat)
	}
	return chats, rows.Err()
}

// UpdateChat applies a partial update to title and/or pinned.
func (s *SQLiteStore) UpdateChat(ctx context.Context, id uuid.UUID, title *string, pinned *bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE chats SET
			title = COALESCE(?, title),
			pinned = COALESCE(?, pinned),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, title, pinned, id.String())
	return err
}

// UpdateChatTitleIf sets the chat title only while it still equals onlyIfTitle.
func (s *SQLiteStore) UpdateChatTitleIf(ctx context.Context, id uuid.UUID, title, onlyIfTitle string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE chats SET title = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND title = ?
	`, title, id.String(), onlyIfTitle)
	return err
}

// DeleteChat deletes a chat; its messages cascade.
func (s *SQLiteStore) DeleteChat(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, id.String())
	return err
}

// SetStreamToken marks a generation as active on the chat.
func (s *SQLiteStore) SetStreamToken(ctx context.Context, chatID uuid.UUID, token string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE chats SET stream_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, token, chatID.String())
	return err
}

// ClearStreamToken clears the chat's stream token only if it still matches
// expected.
func (s *SQLiteStore) ClearStreamToken(ctx context.Context, chatID uuid.UUID, expected string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE chats SET stream_id = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stream_id = ?
	`, chatID.String(), expected)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) scanMessageRow(row interface{ Scan(...any) error }) (*models.Message, error) {
	msg := &models.Message{}
	var id, chatID, parts, metadata string
	err := row.Scan(&id, &chatID, &msg.Role, &parts, &metadata, &msg.CreatedAt, &msg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if msg.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if msg.ChatID, err = uuid.Parse(chatID); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(parts), &msg.Parts); err != nil {
		return nil, fmt.Errorf("store: decode message parts: %w", err)
	}
	if err := json.Unmarshal([]byte(metadata), &msg.Metadata); err != nil {
		return nil, fmt.Errorf("store: decode message metadata: %w", err)
	}
	return msg, nil
}

const sqliteMessageColumns = `id, chat_id, role, parts, metadata, created_at, updated_at`

// GetMessage retrieves a message by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	msg, err := s.scanMessageRow(s.db.QueryRowContext(ctx, `
		SELECT `+sqliteMessageColumns+` FROM messages WHERE id = ?
	`, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return msg, nil
}

// ListMessages retrieves a chat's messages in creation order.
func (s *SQLiteStore) ListMessages(ctx context.Context, chatID uuid.UUID) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteMessageColumns+` FROM messages
		WHERE chat_id = ?
		ORDER BY created_at ASC
	`, chatID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		msg, err := s.scanMessageRow(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *msg)
	}
	return msgs, rows.Err()
}

// InsertMessage inserts a message; an existing id is a no-op.
func (s *SQLiteStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	parts, metadata, err := marshalMessageJSON(msg)
	if err != nil {
		return err
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO messages (id, chat_id, role, parts, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, msg.ID.String(), msg.ChatID.String(), msg.Role, string(parts), string(metadata),
		time.Now().UTC(), time.Now().UTC())
	return err
}

// DeleteMessage deletes a message by ID.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id.String())
	return err
}

// DeleteMessagesExcept removes every message in the chat not listed in keep.
func (s *SQLiteStore) DeleteMessagesExcept(ctx context.Context, chatID uuid.UUID, keep []uuid.UUID) error {
	if len(keep) == 0 {
		_, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE chat_id = ?`, chatID.String())
		return err
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keep)), ",")
	args := make([]any, 0, len(keep)+1)
	args = append(args, chatID.String())
	for _, id := range keep {
		args = append(args, id.String())
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM messages WHERE chat_id = ? AND id NOT IN (`+placeholders+`)`, args...)
	return err
}

// CompleteGeneration persists a finished text generation in one transaction.
func (s *SQLiteStore) CompleteGeneration(ctx context.Context, token string, msg *models.Message, model models.Model) (bool, error) {
	parts, metadata, err := marshalMessageJSON(msg)
	if err != nil {
		return false, err
	}
	lastModel, err := json.Marshal(model)
	if err != nil {
		return false, err
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (id, chat_id, role, parts, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, msg.ID.String(), msg.ChatID.String(), msg.Role, string(parts), string(metadata), now, now); err != nil {
		return false, err
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE chats SET last_model_used = ?, last_message_at = ?, stream_id = NULL, updated_at = ?
		WHERE id = ? AND stream_id = ?
	`, string(lastModel), now, now, msg.ChatID.String(), token)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return n > 0, nil
}

// CompleteArtifactGeneration persists a finished image or speech generation
// in one transaction.
func (s *SQLiteStore) CompleteArtifactGeneration(ctx context.Context, token string, msg *models.Message, file *models.File, creation *models.Creation, model models.Model) (bool, error) {
	parts, metadata, err := marshalMessageJSON(msg)
	if err != nil {
		return false, err
	}
	creationMeta, err := json.Marshal(creation.Metadata)
	if err != nil {
		return false, err
	}
	lastModel, err := json.Marshal(model)
	if err != nil {
		return false, err
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}
	creation.ID = uuid.New()
	creation.FileID = file.ID

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (id, chat_id, role, parts, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, msg.ID.String(), msg.ChatID.String(), msg.Role, string(parts), string(metadata), now, now); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO files (id, user_id, name, media_type, size, path)
		VALUES (?, ?, ?, ?, ?, ?)
	`, file.ID.String(), file.UserID.String(), file.Name, file.MediaType, file.Size, file.Path); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO creations (id, user_id, file_id, type, title, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`, creation.ID.String(), creation.UserID.String(), file.ID.String(), creation.Type, creation.Title, string(creationMeta)); err != nil {
		return false, err
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE chats SET last_model_used = ?, last_message_at = ?, stream_id = NULL, updated_at = ?
		WHERE id = ? AND stream_id = ?
	`, string(lastModel), now, now, msg.ChatID.String(), token)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateChatWithMessages creates a chat and bulk-inserts its seed messages
// in one transaction.
func (s *SQLiteStore) CreateChatWithMessages(ctx context.Context, chat *models.Chat, msgs []models.Message) (*models.Chat, error) {
	lastModel, err := marshalModel(chat.LastModelUsed)
	if err != nil {
		return nil, err
	}
	title := chat.Title
	if title == "" {
		title = "Untitled Chat"
	}
	id := uuid.New()
	var branched, lm any
	if chat.BranchedMessageID != nil {
		branched = chat.BranchedMessageID.String()
	}
	if lastModel != nil {
		lm = string(lastModel)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chats (id, user_id, branched_message_id, title, pinned, last_model_used)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id.String(), chat.UserID.String(), branched, title, chat.Pinned, lm); err != nil {
		return nil, err
	}

	base := time.Now().UTC()
	for i := range msgs {
		parts, metadata, err := marshalMessageJSON(&msgs[i])
		if err != nil {
			return nil, err
		}
		ts := base.Add(time.Duration(i) * time.Microsecond)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO messages (id, chat_id, role, parts, metadata, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, uuid.NewString(), id.String(), msgs[i].Role, string(parts), string(metadata), ts, ts); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetChat(ctx, id)
}

func (s *SQLiteStore) scanFileRow(row interface{ Scan(...any) error }) (*models.File, error) {
	f := &models.File{}
	var id, userID string
	err := row.Scan(&id, &userID, &f.Name, &f.MediaType, &f.Size, &f.Path, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if f.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if f.UserID, err = uuid.Parse(userID); err != nil {
		return nil, err
	}
	return f, nil
}

const sqliteFileColumns = `id, user_id, name, media_type, size, path, created_at, updated_at`

// InsertFile inserts a bare file record (an upload with no creation).
func (s *SQLiteStore) InsertFile(ctx context.Context, file *models.File) error {
	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO files (id, user_id, name, media_type, size, path)
		VALUES (?, ?, ?, ?, ?, ?)
	`, file.ID.String(), file.UserID.String(), file.Name, file.MediaType, file.Size, file.Path)
	return err
}

// GetFile retrieves a file record by ID.
func (s *SQLiteStore) GetFile(ctx context.Context, id uuid.UUID) (*models.File, error) {
	f, err := s.scanFileRow(s.db.QueryRowContext(ctx,
		`SELECT `+sqliteFileColumns+` FROM files WHERE id = ?`, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return f, nil
}

// GetFileByPath retrieves a file record by storage path.
func (s *SQLiteStore) GetFileByPath(ctx context.Context, path string) (*models.File, error) {
	f, err := s.scanFileRow(s.db.QueryRowContext(ctx,
		`SELECT `+sqliteFileColumns+` FROM files WHERE path = ?`, path))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return f, nil
}

// ListFiles retrieves a user's files, newest first.
func (s *SQLiteStore) ListFiles(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.File, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteFileColumns+` FROM files
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, userID.String(), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []models.File
	for rows.Next() {
		f, err := s.scanFileRow(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

// DeleteFile deletes a file record; its creation cascades.
func (s *SQLiteStore) DeleteFile(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id.String())
	return err
}

func (s *SQLiteStore) scanCreationRow(row interface{ Scan(...any) error }) (*models.Creation, error) {
	c := &models.Creation{}
	var id, userID, fileID, metadata string
	err := row.Scan(&id, &userID, &fileID, &c.Type, &c.Title, &metadata, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if c.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if c.UserID, err = uuid.Parse(userID); err != nil {
		return nil, err
	}
	if c.FileID, err = uuid.Parse(fileID); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(metadata), &c.Metadata); err != nil {
		return nil, fmt.Errorf("store: decode creation metadata: %w", err)
	}
	return c, nil
}

const sqliteCreationColumns = `id, user_id, file_id, type, title, metadata, created_at, updated_at`

// GetCreation retrieves a creation by ID.
func (s *SQLiteStore) GetCreation(ctx context.Context, id uuid.UUID) (*models.Creation, error) {
	c, err := s.scanCreationRow(s.db.QueryRowContext(ctx,
		`SELECT `+sqliteCreationColumns+` FROM creations WHERE id = ?`, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// ListCreations retrieves a user's creations, newest first.
func (s *SQLiteStore) ListCreations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Creation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sqliteCreationColumns+` FROM creations
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, userID.String(), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var creations []models.Creation
	for rows.Next() {
		c, err := s.scanCreationRow(rows)
		if err != nil {
			return nil, err
		}
		creations = append(creations, *c)
	}
	return creations, rows.Err()
}

// DeleteCreation deletes a creation by ID.
func (s *SQLiteStore) DeleteCreation(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM creations WHERE id = ?`, id.String())
	return err
}

// Compile-time interface check.
var _ Store = (*SQLiteStore)(nil)
