// Package stream enforces single-active-generation per chat and relays
// generation events through a broker so a disconnected client can resume
// an in-flight stream from any server process.
package stream

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/joeychilson/chat/internal/models"
)

var (
	// ErrGenerationInProgress is returned by Acquire when the chat already
	// holds an active stream token and no override was requested. Surfaced
	// to callers as a conflict, never retried automatically.
	ErrGenerationInProgress = errors.New("stream: generation already in progress")

	// ErrNoStream is returned by Resume when the token is unknown or its
	// log has already expired.
	ErrNoStream = errors.New("stream: no stream")
)

// TokenStore persists the active stream token on a chat row. The database
// is the source of truth for "is a generation active"; the conditional
// clear is the sole serialization point across processes.
type TokenStore interface {
	SetStreamToken(ctx context.Context, chatID uuid.UUID, token string) error

	// ClearStreamToken clears the chat's token only if it still equals
	// expected, reporting whether a row was updated. A stale caller whose
	// token was superseded must observe false and leave the newer token
	// in place.
	ClearStreamToken(ctx context.Context, chatID uuid.UUID, expected string) (bool, error)
}

// envelope wraps one SSE-framed event in the broker log. Seq orders
// entries so a resumer can join replay and live delivery without
// duplicates; Done marks the terminal event.
type envelope struct {
	Seq  uint64 `msgpack:"s"`
	Data []byte `msgpack:"d"`
	Done bool   `msgpack:"f"`
}

// Manager owns stream tokens and the resumable event log.
type Manager struct {
	broker Broker
	store  TokenStore
	logger zerolog.Logger
}

// NewManager creates a Manager.
func NewManager(broker Broker, store TokenStore, logger zerolog.Logger) *Manager {
	return &Manager{broker: broker, store: store, logger: logger}
}

// Acquire claims the chat's generation slot with a fresh token. If the chat
// already has an active token, Acquire fails with ErrGenerationInProgress
// unless override is set (used only by retry, which has already removed the
// superseded messages).
func (m *Manager) Acquire(ctx context.Context, chat *models.Chat, override bool) (*Lease, error) {
	if chat.StreamID != nil && !override {
		return nil, ErrGenerationInProgress
	}
	token := ulid.Make().String()
	if err := m.store.SetStreamToken(ctx, chat.ID, token); err != nil {
		return nil, fmt.Errorf("stream: set token: %w", err)
	}
	return &Lease{m: m, chatID: chat.ID, token: token}, nil
}

// Resume opens a reader over the stream identified by token. Payloads
// already in the broker log are replayed first, then live payloads follow
// until the terminal event. Any number of readers may resume the same
// stream concurrently.
func (m *Manager) Resume(ctx context.Context, token string) (<-chan []byte, func(), error) {
	ok, err := m.broker.Exists(ctx, token)
	if err != nil {
		return nil, nil, fmt.Errorf("stream: check stream: %w", err)
	}
	if !ok {
		return nil, nil, ErrNoStream
	}

	// Subscribe before replaying so nothing published between the two
	// calls is lost; duplicates are dropped by sequence number.
	live, cancel, err := m.broker.Subscribe(ctx, token)
	if err != nil {
		return nil, nil, fmt.Errorf("stream: subscribe: %w", err)
	}

	logged, err := m.broker.Replay(ctx, token)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("stream: replay: %w", err)
	}

	out := make(chan []byte, 32)
	go func() {
		defer close(out)
		defer cancel()

		var next uint64
		for _, raw := range logged {
			env, err := decodeEnvelope(raw)
			if err != nil {
				m.logger.Error().Err(err).Str("token", token).Msg("failed to decode replayed stream entry")
				continue
			}
			if !send(ctx, out, env.Data) {
				return
			}
			next = env.Seq + 1
			if env.Done {
				return
			}
		}

		for raw := range live {
			env, err := decodeEnvelope(raw)
			if err != nil {
				m.logger.Error().Err(err).Str("token", token).Msg("failed to decode live stream entry")
				continue
			}
			if env.Seq < next {
				continue
			}
			if !send(ctx, out, env.Data) {
				return
			}
			if env.Done {
				return
			}
		}
	}()

	return out, cancel, nil
}

func send(ctx context.Context, out chan<- []byte, data []byte) bool {
	select {
	case out <- data:
		return true
	case <-ctx.Done():
		return false
	}
}

func decodeEnvelope(raw []byte) (*envelope, error) {
	var env envelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// Lease is one generation's hold on a chat. The holder emits events through
// it and releases it exactly once when the generation ends.
type Lease struct {
	m      *Manager
	chatID uuid.UUID
	token  string
	seq    uint64
}

// Token returns the opaque stream token.
func (l *Lease) Token() string {
	return l.token
}

// ChatID returns the chat this lease belongs to.
func (l *Lease) ChatID() uuid.UUID {
	return l.chatID
}

// Emit encodes the event and appends it to the resumable log, where it is
// also published to live subscribers. Only the originating generation
// writes; readers are fan-out only.
func (l *Lease) Emit(ctx context.Context, ev Event) error {
	data, err := ev.EncodeSSE()
	if err != nil {
		return err
	}
	raw, err := msgpack.Marshal(&envelope{Seq: l.seq, Data: data, Done: ev.Terminal()})
	if err != nil {
		return fmt.Errorf("stream: encode envelope: %w", err)
	}
	l.seq++
	return l.m.broker.Append(ctx, l.token, raw)
}

// Release clears the chat's stream token if this lease still holds it.
// Returns whether the token was actually cleared; false means a newer
// generation superseded this one and its token must be left alone.
func (l *Lease) Release(ctx context.Context) (bool, error) {
	cleared, err := l.m.store.ClearStreamToken(ctx, l.chatID, l.token)
	if err != nil {
		return false, fmt.Errorf("stream: clear token: %w", err)
	}
	return cleared, nil
}
