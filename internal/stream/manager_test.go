package stream

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/joeychilson/chat/internal/models"
)

// fakeBroker is an in-memory Broker for tests.
type fakeBroker struct {
	mu   sync.Mutex
	logs map[string][][]byte
	subs map[string][]chan []byte
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{
		logs: make(map[string][][]byte),
		subs: make(map[string][]chan []byte),
	}
}

func (b *fakeBroker) Append(ctx context.Context, token string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logs[token] = append(b.logs[token], data)
	for _, ch := range b.subs[token] {
		ch <- data
	}
	return nil
}

func (b *fakeBroker) Replay(ctx context.Context, token string) ([][]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([][]byte, len(b.logs[token]))
	copy(out, b.logs[token])
	return out, nil
}

func (b *fakeBroker) Subscribe(ctx context.Context, token string) (<-chan []byte, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan []byte, 64)
	b.subs[token] = append(b.subs[token], ch)
	return ch, func() {}, nil
}

func (b *fakeBroker) Exists(ctx context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.logs[token]
	return ok, nil
}

// fakeTokens implements TokenStore with compare-and-clear semantics.
type fakeTokens struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]string
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{tokens: make(map[uuid.UUID]string)}
}

func (s *fakeTokens) SetStreamToken(ctx context.Context, chatID uuid.UUID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[chatID] = token
	return nil
}

func (s *fakeTokens) ClearStreamToken(ctx context.Context, chatID uuid.UUID, expected string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens[chatID] != expected {
		return false, nil
	}
	delete(s.tokens, chatID)
	return true, nil
}

func newTestManager() (*Manager, *fakeBroker, *fakeTokens) {
	broker := newFakeBroker()
	tokens := newFakeTokens()
	return NewManager(broker, tokens, zerolog.Nop()), broker, tokens
}

func TestAcquireConflict(t *testing.T) {
	m, _, _ := newTestManager()
	ctx := context.Background()

	chat := &models.Chat{ID: uuid.New()}
	lease, err := m.Acquire(ctx, chat, false)
	if err != nil {
		t.Fatal(err)
	}

	// A second acquire against a chat that still holds a token must fail.
	token := lease.Token()
	chat.StreamID = &token
	_, err = m.Acquire(ctx, chat, false)
	if !errors.Is(err, ErrGenerationInProgress) {
		t.Fatalf("expected ErrGenerationInProgress, got %v", err)
	}
}

func TestAcquireOverride(t *testing.T) {
	m, _, tokens := newTestManager()
	ctx := context.Background()

	chat := &models.Chat{ID: uuid.New()}
	old, err := m.Acquire(ctx, chat, false)
	if err != nil {
		t.Fatal(err)
	}
	token := old.Token()
	chat.StreamID = &token

	replacement, err := m.Acquire(ctx, chat, true)
	if err != nil {
		t.Fatal(err)
	}
	if replacement.Token() == old.Token() {
		t.Fatal("override must mint a fresh token")
	}
	if tokens.tokens[chat.ID] != replacement.Token() {
		t.Fatal("store should hold the replacement token")
	}
}

func TestStaleReleaseLeavesNewerToken(t *testing.T) {
	m, _, tokens := newTestManager()
	ctx := context.Background()

	chat := &models.Chat{ID: uuid.New()}
	old, err := m.Acquire(ctx, chat, false)
	if err != nil {
		t.Fatal(err)
	}
	token := old.Token()
	chat.StreamID = &token

	replacement, err := m.Acquire(ctx, chat, true)
	if err != nil {
		t.Fatal(err)
	}

	cleared, err := old.Release(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if cleared {
		t.Fatal("stale lease must not clear the replacement token")
	}
	if tokens.tokens[chat.ID] != replacement.Token() {
		t.Fatal("replacement token must survive the stale release")
	}

	cleared, err = replacement.Release(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !cleared {
		t.Fatal("current lease should clear its own token")
	}
}

func TestResumeUnknownToken(t *testing.T) {
	m, _, _ := newTestManager()
	_, _, err := m.Resume(context.Background(), "no-such-token")
	if !errors.Is(err, ErrNoStream) {
		t.Fatalf("expected ErrNoStream, got %v", err)
	}
}

func TestResumeReplaysToTerminal(t *testing.T) {
	m, _, _ := newTestManager()
	ctx := context.Background()

	chat := &models.Chat{ID: uuid.New()}
	lease, err := m.Acquire(ctx, chat, false)
	if err != nil {
		t.Fatal(err)
	}

	events := []Event{
		{Type: EventStart, MessageID: uuid.NewString()},
		{Type: EventTextDelta, Delta: "hello"},
		{Type: EventTextDelta, Delta: " world"},
		{Type: EventFinish},
	}
	for _, ev := range events {
		if err := lease.Emit(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}

	out, cancel, err := m.Resume(ctx, lease.Token())
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()

	var got [][]byte
	for data := range out {
		got = append(got, data)
	}
	if len(got) != len(events) {
		t.Fatalf("expected %d payloads, got %d", len(events), len(got))
	}
	want, _ := events[1].EncodeSSE()
	if string(got[1]) != string(want) {
		t.Fatalf("expected %q, got %q", want, got[1])
	}
}

func TestResumeDropsDuplicateLiveEntries(t *testing.T) {
	m, broker, _ := newTestManager()
	ctx := context.Background()

	chat := &models.Chat{ID: uuid.New()}
	lease, err := m.Acquire(ctx, chat, false)
	if err != nil {
		t.Fatal(err)
	}

	// One event already logged before the resume.
	if err := lease.Emit(ctx, Event{Type: EventStart}); err != nil {
		t.Fatal(err)
	}

	out, cancel, err := m.Resume(ctx, lease.Token())
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()

	first := <-out

	// Re-deliver the logged entry on the live channel, then finish. The
	// duplicate must be dropped by sequence number.
	broker.mu.Lock()
	dup := broker.logs[lease.Token()][0]
	subs := broker.subs[lease.Token()]
	broker.mu.Unlock()
	for _, ch := range subs {
		ch <- dup
	}
	if err := lease.Emit(ctx, Event{Type: EventFinish}); err != nil {
		t.Fatal(err)
	}

	var rest [][]byte
	for data := range out {
		rest = append(rest, data)
	}
	if len(rest) != 1 {
		t.Fatalf("expected 1 payload after the duplicate was dropped, got %d", len(rest))
	}
	if string(rest[0]) == string(first) {
		t.Fatal("duplicate start event leaked through")
	}
}
