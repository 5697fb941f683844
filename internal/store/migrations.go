package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// schemaPostgres is the full schema, applied idempotently at startup.
// branched_message_id is deliberately not a foreign key: it is a weak
// back-reference and must survive deletion of the original chat.
const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	email_verified BOOLEAN NOT NULL DEFAULT FALSE,
	image TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sessions (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	token TEXT NOT NULL UNIQUE,
	expires_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_session_token ON sessions(token);
CREATE INDEX IF NOT EXISTS idx_session_expires_at ON sessions(expires_at);

CREATE TABLE IF NOT EXISTS settings (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
	default_model JSONB,
	default_speech_voice VARCHAR(50) NOT NULL DEFAULT 'alloy',
	default_speech_speed VARCHAR(10) NOT NULL DEFAULT '1.0',
	preferred_name VARCHAR(50) NOT NULL DEFAULT '',
	user_role VARCHAR(100) NOT NULL DEFAULT '',
	assistant_traits JSONB NOT NULL DEFAULT '[]',
	additional_context TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS chats (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	branched_message_id UUID,
	stream_id TEXT,
	title VARCHAR(255) NOT NULL DEFAULT 'Untitled Chat',
	pinned BOOLEAN NOT NULL DEFAULT FALSE,
	last_model_used JSONB,
	last_message_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_chat_user_id ON chats(user_id);
CREATE INDEX IF NOT EXISTS idx_chat_stream_id ON chats(stream_id);
CREATE INDEX IF NOT EXISTS idx_chat_user_last_message ON chats(user_id, last_message_at);

CREATE TABLE IF NOT EXISTS messages (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	chat_id UUID NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
	role TEXT NOT NULL CHECK (role IN ('user', 'assistant', 'system')),
	parts JSONB NOT NULL DEFAULT '[]',
	metadata JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_message_chat_created ON messages(chat_id, created_at);

CREATE TABLE IF NOT EXISTS files (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name VARCHAR(255) NOT NULL,
	media_type VARCHAR(255) NOT NULL,
	size BIGINT NOT NULL,
	path VARCHAR(1024) NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_file_user_id ON files(user_id);

CREATE TABLE IF NOT EXISTS creations (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	file_id UUID NOT NULL UNIQUE REFERENCES files(id) ON DELETE CASCADE,
	type TEXT NOT NULL CHECK (type IN ('image', 'audio')),
	title VARCHAR(255) NOT NULL DEFAULT 'Untitled Creation',
	metadata JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_creation_user_created ON creations(user_id, created_at);
`

// RunMigrations applies the schema to the Postgres database.
func RunMigrations(ctx context.Context, databaseURL string) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("store: connect for migration: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, schemaPostgres); err != nil {
		return fmt.Errorf("store: apply schema: %w", err)
	}
	return nil
}
