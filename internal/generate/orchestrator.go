// Package generate drives model generations: it resolves the model against
// the catalog, claims the chat's generation slot, relays provider output into
// the resumable stream, and persists the result transactionally.
package generate

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/joeychilson/chat/internal/catalog"
	"github.com/joeychilson/chat/internal/metrics"
	"github.com/joeychilson/chat/internal/models"
	"github.com/joeychilson/chat/internal/provider"
	"github.com/joeychilson/chat/internal/storage"
	"github.com/joeychilson/chat/internal/store"
	"github.com/joeychilson/chat/internal/stream"
)

// ErrNoUserText is returned when the request history has no user message
// with a non-empty text part to attribute the generation to.
var ErrNoUserText = errors.New("generate: no user message with text")

// fallbackErrorMessage is the only error text ever sent to a client
// mid-stream. Causes go to the log, not the wire.
const fallbackErrorMessage = "Something went wrong while generating a response. Please try again."

// Sink receives events for the connected client. A sink error stops
// forwarding but never stops the generation; the resumable log stays
// authoritative.
type Sink func(stream.Event) error

// Orchestrator coordinates one generation end to end.
type Orchestrator struct {
	catalog   *catalog.Catalog
	providers *provider.Registry
	store     store.Store
	streams   *stream.Manager
	objects   storage.ObjectStore
	logger    zerolog.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(cat *catalog.Catalog, providers *provider.Registry, st store.Store, streams *stream.Manager, objects storage.ObjectStore, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		catalog:   cat,
		providers: providers,
		store:     st,
		streams:   streams,
		objects:   objects,
		logger:    logger,
	}
}

// Request describes one inbound generation.
type Request struct {
	Chat     *models.Chat
	UserID   uuid.UUID
	Model    models.Model
	Messages []models.Message

	// Override claims the generation slot even if a token is set. Used only
	// by retry, which has already removed the superseded messages.
	Override bool
}

// Generate runs the request to completion. Errors are returned only for
// failures before any event is emitted (resolution, preconditions, the
// conflict check); once the stream has started, failures are reported on
// the stream itself and Generate returns nil.
//
// Client disconnects do not cancel the provider call: the generation keeps
// running against a detached context so the resumable log reaches a
// terminal event either way.
func (o *Orchestrator) Generate(ctx context.Context, req Request, sink Sink) error {
	inv, err := o.catalog.Resolve(req.Model)
	if err != nil {
		return err
	}
	prompt := lastUserText(req.Messages)
	if prompt == nil {
		return ErrNoUserText
	}

	lease, err := o.streams.Acquire(ctx, req.Chat, req.Override)
	if err != nil {
		return err
	}

	ctx = context.WithoutCancel(ctx)
	started := time.Now()
	em := &emitter{lease: lease, sink: sink, logger: o.logger}

	var genErr error
	switch inv.Entry.Type {
	case models.ModalityText:
		genErr = o.generateText(ctx, req, inv, em, started)
	case models.ModalityImage:
		genErr = o.generateImage(ctx, req, inv, prompt, em, started)
	case models.ModalitySpeech:
		genErr = o.generateSpeech(ctx, req, inv, prompt, em, started)
	}
	metrics.GenerationFinished(string(inv.Entry.Type), inv.Provider, genErr == nil)
	if genErr == nil {
		return nil
	}

	o.logger.Error().Err(genErr).
		Str("chat_id", req.Chat.ID.String()).
		Str("model", req.Model.ID).
		Str("provider", inv.Provider).
		Msg("generation failed")

	// The chat must not stay locked. The clear is conditional, so a newer
	// generation's token survives a stale failure path.
	if cleared, err := lease.Release(ctx); err != nil {
		o.logger.Error().Err(err).Str("chat_id", req.Chat.ID.String()).Msg("failed to release stream token")
	} else if !cleared {
		o.logger.Warn().Str("chat_id", req.Chat.ID.String()).Msg("stream token superseded before release")
	}
	em.send(ctx, stream.Event{Type: stream.EventError, Message: fallbackErrorMessage})
	return nil
}

// completion persists the finished message and emits the terminal events.
// The conditional chat update and the message insert share one transaction
// keyed on the still-matching stream token.
func (o *Orchestrator) completeText(ctx context.Context, req Request, em *emitter, msg *models.Message, meta models.Metadata) error {
	msg.Metadata = meta
	matched, err := o.store.CompleteGeneration(ctx, em.lease.Token(), msg, req.Model)
	if err != nil {
		return err
	}
	if !matched {
		o.logger.Warn().
			Str("chat_id", req.Chat.ID.String()).
			Str("message_id", msg.ID.String()).
			Msg("generation superseded; message saved without chat update")
	}
	em.send(ctx, stream.Event{Type: stream.EventFinishStep, Metadata: &meta})
	em.send(ctx, stream.Event{Type: stream.EventFinish, Metadata: &meta})
	return nil
}

// lastUserText returns the last user message carrying a non-empty text
// part. Generations are attributed to it.
func lastUserText(msgs []models.Message) *models.Message {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == models.RoleUser && msgs[i].HasText() {
			return &msgs[i]
		}
	}
	return nil
}

// emitter mirrors every event into the resumable log and forwards it to the
// connected client while one is still listening.
type emitter struct {
	lease    *stream.Lease
	sink     Sink
	sinkDead bool
	logger   zerolog.Logger
}

// send appends the event to the resumable log and forwards it. A broker
// append failure is returned; a sink failure only stops forwarding.
func (e *emitter) send(ctx context.Context, ev stream.Event) error {
	if err := e.lease.Emit(ctx, ev); err != nil {
		return err
	}
	if e.sink != nil && !e.sinkDead {
		if err := e.sink(ev); err != nil {
			e.sinkDead = true
			e.logger.Debug().Err(err).Msg("client disconnected; continuing generation")
		}
	}
	return nil
}
