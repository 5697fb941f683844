package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joeychilson/chat/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// GetSessionByToken retrieves a session and its user by bearer token.
// Expired sessions are treated as absent.
func (s *PostgresStore) GetSessionByToken(ctx context.Context, token string) (*models.Session, *models.User, error) {
	session := &models.Session{}
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		SELECT s.id, s.user_id, s.token, s.expires_at, s.created_at,
		       u.id, u.name, u.email, u.email_verified, u.image, u.created_at, u.updated_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = $1 AND s.expires_at > now()
	`, token).Scan(
		&session.ID, &session.UserID, &session.Token, &session.ExpiresAt, &session.CreatedAt,
		&user.ID, &user.Name, &user.Email, &user.EmailVerified, &user.Image, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return session, user, nil
}

// GetSettings retrieves a user's settings, or nil if none are stored.
func (s *PostgresStore) GetSettings(ctx context.Context, userID uuid.UUID) (*models.Settings, error) {
	set := &models.Settings{}
	var defaultModel, traits []byte
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, default_model, default_speech_voice, default_speech_speed,
		       preferred_name, user_role, assistant_traits, additional_context, created_at, updated_at
		FROM settings WHERE user_id = $1
	`, userID).Scan(
		&set.ID, &set.UserID, &defaultModel, &set.DefaultSpeechVoice, &set.DefaultSpeechSpeed,
		&set.PreferredName, &set.UserRole, &traits, &set.AdditionalContext, &set.CreatedAt, &set.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := unmarshalModel(defaultModel, &set.DefaultModel); err != nil {
		return nil, err
	}
	if len(traits) > 0 {
		if err := json.Unmarshal(traits, &set.AssistantTraits); err != nil {
			return nil, fmt.Errorf("store: decode assistant traits: %w", err)
		}
	}
	return set, nil
}

// UpsertSettings inserts or updates the user's settings row.
func (s *PostgresStore) UpsertSettings(ctx context.Context, set *models.Settings) (*models.Settings, error) {
	defaultModel, err := marshalModel(set.DefaultModel)
	if err != nil {
		return nil, err
	}
	traits, err := json.Marshal(orEmptySlice(set.AssistantTraits))
	if err != nil {
		return nil, err
	}

	out := &models.Settings{
		DefaultModel:    set.DefaultModel,
		AssistantTraits: set.AssistantTraits,
	}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO settings (user_id, default_model, default_speech_voice, default_speech_speed,
		                      preferred_name, user_role, assistant_traits, additional_context)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			default_model = EXCLUDED.default_model,
			default_speech_voice = EXCLUDED.default_speech_voice,
			default_speech_speed = EXCLUDED.default_speech_speed,
			preferred_name = EXCLUDED.preferred_name,
			user_role = EXCLUDED.user_role,
			assistant_traits = EXCLUDED.assistant_traits,
			additional_context = EXCLUDED.additional_context,
			updated_at = now()
		RETURNING id, user_id, default_speech_voice, default_speech_speed,
		          preferred_name, user_role, additional_context, created_at, updated_at
	`, set.UserID, defaultModel, set.DefaultSpeechVoice, set.DefaultSpeechSpeed,
		set.PreferredName, set.UserRole, traits, set.AdditionalContext,
	).Scan(
		&out.ID, &out.UserID, &out.DefaultSpeechVoice, &out.DefaultSpeechSpeed,
		&out.PreferredName, &out.UserRole, &out.AdditionalContext, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

const chatColumns = `id, user_id, branched_message_id, stream_id, title, pinned, last_model_used, last_message_at, created_at, updated_at`

func scanChat(row pgx.Row) (*models.Chat, error) {
	chat := &models.Chat{}
	var lastModel []byte
	err := row.Scan(
		&chat.ID, &chat.UserID, &chat.BranchedMessageID, &chat.StreamID, &chat.Title,
		&chat.Pinned, &lastModel, &chat.LastMessageAt, &chat.CreatedAt, &chat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalModel(lastModel, &chat.LastModelUsed); err != nil {
		return nil, err
	}
	return chat, nil
}

// CreateChat creates a new chat. A zero chat.ID lets the database assign one.
func (s *PostgresStore) CreateChat(ctx context.Context, chat *models.Chat) (*models.Chat, error) {
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
	return scanChat(s.pool.QueryRow(ctx, `
		INSERT INTO chats (id, user_id, branched_message_id, title, pinned, last_model_used)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+chatColumns+`
	`, id, chat.UserID, chat.BranchedMessageID, title, chat.Pinned, lastModel))
}

// GetChat retrieves a chat by ID.
func (s *PostgresStore) GetChat(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	chat, err := scanChat(s.pool.QueryRow(ctx, `
		SELECT `+chatColumns+` FROM chats WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return chat, nil
}

// ListChats retrieves a user's chats, pinned first, most recent activity next.
func (s *PostgresStore) ListChats(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Chat, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+chatColumns+` FROM chats
		WHERE user_id = $1
		ORDER BY pinned DESC, last_message_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectChats(rows)
}

// SearchChats finds a user's chats whose title or message content matches
// the query.
func (s *PostgresStore) SearchChats(ctx context.Context, userID uuid.UUID, query string, limit int) ([]models.Chat, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT c.id, c.user_id, c.branched_message_id, c.stream_id, c.title, c.pinned,
		       c.last_model_used, c.last_message_at, c.created_at, c.updated_at
		FROM chats c
		LEFT JOIN messages m ON m.chat_id = c.id
		WHERE c.user_id = $1 AND (c.title ILIKE '%' || $2 || '%' OR m.parts::text ILIKE '%' || $2 || '%')
		ORDER BY c.last_message_at DESC
		LIMIT $3
	`, userID, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectChats(rows)
}

func collectChats(rows pgx.Rows) ([]models.Chat, error) {
	var chats []models.Chat
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, *chat)
	}
	return chats, rows.Err()
}

// UpdateChat applies a partial update to title and/or pinned.
func (s *PostgresStore) UpdateChat(ctx context.Context, id uuid.UUID, title *string, pinned *bool) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE chats SET
			title = COALESCE($2, title),
			pinned = COALESCE($3, pinned),
			updated_at = now()
		WHERE id = $1
	`, id, title, pinned)
	return err
}

// UpdateChatTitleIf sets the chat title only while it still equals onlyIfTitle.
func (s *PostgresStore) UpdateChatTitleIf(ctx context.Context, id uuid.UUID, title, onlyIfTitle string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE chats SET title = $2, updated_at = now()
		WHERE id = $1 AND title = $3
	`, id, title, onlyIfTitle)
	return err
}

// DeleteChat deletes a chat; its messages cascade.
func (s *PostgresStore) DeleteChat(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM chats WHERE id = $1`, id)
	return err
}

// SetStreamToken marks a generation as active on the chat.
func (s *PostgresStore) SetStreamToken(ctx context.Context, chatID uuid.UUID, token string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE chats SET stream_id = $2, updated_at = now() WHERE id = $1
	`, chatID, token)
	return err
}

// ClearStreamToken clears the chat's stream token only if it still matches
// expected. The WHERE condition is the serialization point: a stale caller
// whose token was superseded matches no row and the newer token survives.
func (s *PostgresStore) ClearStreamToken(ctx context.Context, chatID uuid.UUID, expected string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE chats SET stream_id = NULL, updated_at = now()
		WHERE id = $1 AND stream_id = $2
	`, chatID, expected)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

const messageColumns = `id, chat_id, role, parts, metadata, created_at, updated_at`

func scanMessage(row pgx.Row) (*models.Message, error) {
	msg := &models.Message{}
	var parts, metadata []byte
	err := row.Scan(&msg.ID, &msg.ChatID, &msg.Role, &parts, &metadata, &msg.CreatedAt, &msg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(parts, &msg.Parts); err != nil {
		return nil, fmt.Errorf("store: decode message parts: %w", err)
	}
	if err := json.Unmarshal(metadata, &msg.Metadata); err != nil {
		return nil, fmt.Errorf("store: decode message metadata: %w", err)
	}
	return msg, nil
}

// GetMessage retrieves a message by ID.
func (s *PostgresStore) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	msg, err := scanMessage(s.pool.QueryRow(ctx, `
		SELECT `+messageColumns+` FROM messages WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return msg, nil
}

// ListMessages retrieves a chat's messages in creation order.
func (s *PostgresStore) ListMessages(ctx context.Context, chatID uuid.UUID) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE chat_id = $1
		ORDER BY created_at ASC
	`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *msg)
	}
	return msgs, rows.Err()
}

// InsertMessage inserts a message; inserting an id that already exists is a
// no-op (the client may resubmit the same user message).
func (s *PostgresStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	parts, metadata, err := marshalMessageJSON(msg)
	if err != nil {
		return err
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO messages (id, chat_id, role, parts, metadata)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, msg.ID, msg.ChatID, msg.Role, parts, metadata)
	return err
}

// DeleteMessage deletes a message by ID.
func (s *PostgresStore) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	return err
}

// DeleteMessagesExcept removes every message in the chat not listed in keep.
func (s *PostgresStore) DeleteMessagesExcept(ctx context.Context, chatID uuid.UUID, keep []uuid.UUID) error {
	if len(keep) == 0 {
		_, err := s.pool.Exec(ctx, `DELETE FROM messages WHERE chat_id = $1`, chatID)
		return err
	}
	_, err := s.pool.Exec(ctx, `
		DELETE FROM messages WHERE chat_id = $1 AND NOT (id = ANY($2))
	`, chatID, keep)
	return err
}

// CompleteGeneration persists a finished text generation: the assistant
// message plus the chat pointer update, in one transaction. The chat update
// is conditioned on the stream token still matching; the message is kept
// either way and the bool reports whether the chat row matched.
func (s *PostgresStore) CompleteGeneration(ctx context.Context, token string, msg *models.Message, model models.Model) (bool, error) {
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

	var matched bool
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO messages (id, chat_id, role, parts, metadata)
			VALUES ($1, $2, $3, $4, $5)
		`, msg.ID, msg.ChatID, msg.Role, parts, metadata); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
			UPDATE chats SET last_model_used = $3, last_message_at = now(), stream_id = NULL, updated_at = now()
			WHERE id = $1 AND stream_id = $2
		`, msg.ChatID, token, lastModel)
		if err != nil {
			return err
		}
		matched = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return matched, nil
}

// CompleteArtifactGeneration persists a finished image or speech generation:
// assistant message, file record, gallery creation, and the token-conditioned
// chat pointer update, all in one transaction.
func (s *PostgresStore) CompleteArtifactGeneration(ctx context.Context, token string, msg *models.Message, file *models.File, creation *models.Creation, model models.Model) (bool, error) {
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

	var matched bool
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO messages (id, chat_id, role, parts, metadata)
			VALUES ($1, $2, $3, $4, $5)
		`, msg.ID, msg.ChatID, msg.Role, parts, metadata); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO files (id, user_id, name, media_type, size, path)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, file.ID, file.UserID, file.Name, file.MediaType, file.Size, file.Path); err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, `
			INSERT INTO creations (user_id, file_id, type, title, metadata)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, creation.UserID, file.ID, creation.Type, creation.Title, creationMeta).Scan(&creation.ID); err != nil {
			return err
		}
		creation.FileID = file.ID
		tag, err := tx.Exec(ctx, `
			UPDATE chats SET last_model_used = $3, last_message_at = now(), stream_id = NULL, updated_at = now()
			WHERE id = $1 AND stream_id = $2
		`, msg.ChatID, token, lastModel)
		if err != nil {
			return err
		}
		matched = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return matched, nil
}

// CreateChatWithMessages creates a chat and bulk-inserts its seed messages
// in one transaction. Message timestamps are spaced a microsecond apart so
// creation order survives the copy.
func (s *PostgresStore) CreateChatWithMessages(ctx context.Context, chat *models.Chat, msgs []models.Message) (*models.Chat, error) {
	lastModel, err := marshalModel(chat.LastModelUsed)
	if err != nil {
		return nil, err
	}
	title := chat.Title
	if title == "" {
		title = "Untitled Chat"
	}

	var created *models.Chat
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		created, err = scanChat(tx.QueryRow(ctx, `
			INSERT INTO chats (user_id, branched_message_id, title, pinned, last_model_used)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+chatColumns+`
		`, chat.UserID, chat.BranchedMessageID, title, chat.Pinned, lastModel))
		if err != nil {
			return err
		}

		base := time.Now().UTC()
		for i := range msgs {
			parts, metadata, err := marshalMessageJSON(&msgs[i])
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO messages (id, chat_id, role, parts, metadata, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $6)
			`, uuid.New(), created.ID, msgs[i].Role, parts, metadata,
				base.Add(time.Duration(i)*time.Microsecond)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

const fileColumns = `id, user_id, name, media_type, size, path, created_at, updated_at`

func scanFile(row pgx.Row) (*models.File, error) {
	f := &models.File{}
	err := row.Scan(&f.ID, &f.UserID, &f.Name, &f.MediaType, &f.Size, &f.Path, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// InsertFile inserts a bare file record (an upload with no creation).
func (s *PostgresStore) InsertFile(ctx context.Context, file *models.File) error {
	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO files (id, user_id, name, media_type, size, path)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, file.ID, file.UserID, file.Name, file.MediaType, file.Size, file.Path)
	return err
}

// GetFile retrieves a file record by ID.
func (s *PostgresStore) GetFile(ctx context.Context, id uuid.UUID) (*models.File, error) {
	f, err := scanFile(s.pool.QueryRow(ctx, `SELECT `+fileColumns+` FROM files WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return f, nil
}

// GetFileByPath retrieves a file record by storage path.
func (s *PostgresStore) GetFileByPath(ctx context.Context, path string) (*models.File, error) {
	f, err := scanFile(s.pool.QueryRow(ctx, `SELECT `+fileColumns+` FROM files WHERE path = $1`, path))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return f, nil
}

// ListFiles retrieves a user's files, newest first.
func (s *PostgresStore) ListFiles(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.File, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+fileColumns+` FROM files
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []models.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

// DeleteFile deletes a file record; its creation cascades.
func (s *PostgresStore) DeleteFile(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	return err
}

const creationColumns = `id, user_id, file_id, type, title, metadata, created_at, updated_at`

func scanCreation(row pgx.Row) (*models.Creation, error) {
	c := &models.Creation{}
	var metadata []byte
	err := row.Scan(&c.ID, &c.UserID, &c.FileID, &c.Type, &c.Title, &metadata, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
		return nil, fmt.Errorf("store: decode creation metadata: %w", err)
	}
	return c, nil
}

// GetCreation retrieves a creation by ID.
func (s *PostgresStore) GetCreation(ctx context.Context, id uuid.UUID) (*models.Creation, error) {
	c, err := scanCreation(s.pool.QueryRow(ctx, `SELECT `+creationColumns+` FROM creations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// ListCreations retrieves a user's creations, newest first.
func (s *PostgresStore) ListCreations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Creation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+creationColumns+` FROM creations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var creations []models.Creation
	for rows.Next() {
		c, err := scanCreation(rows)
		if err != nil {
			return nil, err
		}
		creations = append(creations, *c)
	}
	return creations, rows.Err()
}

// DeleteCreation deletes a creation by ID.
func (s *PostgresStore) DeleteCreation(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM creations WHERE id = $1`, id)
	return err
}

// marshalMessageJSON encodes a message's parts and metadata columns.
func marshalMessageJSON(msg *models.Message) ([]byte, []byte, error) {
	parts := msg.Parts
	if parts == nil {
		parts = []models.Part{}
	}
	p, err := json.Marshal(parts)
	if err != nil {
		return nil, nil, fmt.Errorf("store: encode message parts: %w", err)
	}
	m, err := json.Marshal(msg.Metadata)
	if err != nil {
		return nil, nil, fmt.Errorf("store: encode message metadata: %w", err)
	}
	return p, m, nil
}

func marshalModel(m *models.Model) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("store: encode model: %w", err)
	}
	return b, nil
}

func unmarshalModel(b []byte, dst **models.Model) error {
	if len(b) == 0 {
		return nil
	}
	m := &models.Model{}
	if err := json.Unmarshal(b, m); err != nil {
		return fmt.Errorf("store: decode model: %w", err)
	}
	*dst = m
	return nil
}

func orEmptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)
