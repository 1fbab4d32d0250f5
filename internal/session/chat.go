// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/geminichat/internal/model"
	"github.com/jeranaias/geminichat/internal/telemetry"
)

// Generator turns a conversation history into the model's reply text.
type Generator interface {
	Generate(ctx context.Context, model string, history []*model.Message) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, model string, history []*model.Message) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, model string, history []*model.Message) (string, error) {
	return f(ctx, model, history)
}

// =============================================================================
// CHAT
// =============================================================================

// Chat runs send and regenerate flows against a Store.
type Chat struct {
	store *Store
	gen   Generator
	opts  options
	log   zerolog.Logger
}

// NewChat binds a Store to a Generator. Metrics default to the store's.
func NewChat(store *Store, gen Generator, opts ...Option) *Chat {
	o := buildOptions(opts)
	if o.metrics == nil {
		o.metrics = store.opts.metrics
	}
	return &Chat{
		store: store,
		gen:   gen,
		opts:  o,
		log:   o.logger.With().Str("component", "chat").Logger(),
	}
}

// Send appends a user message built from text and the pending attachments,
// asks the generator for a reply, and appends that reply. A generator
// failure is not returned; it becomes an assistant message starting with
// "Error: ". The returned error covers only requests that never started.
func (c *Chat) Send(ctx context.Context, text string) (*model.Message, error) {
	req, err := c.store.beginSend(strings.TrimSpace(text))
	if err != nil {
		c.opts.metrics.ObserveRequest(telemetry.OutcomeRejected, 0)
		return nil, err
	}
	return c.run(ctx, req), nil
}

// Regenerate discards the assistant message at index in the active
// conversation and asks for a new reply from the remaining history. The
// new reply is appended at the end.
func (c *Chat) Regenerate(ctx context.Context, index int) (*model.Message, error) {
	req, err := c.store.beginRegenerate(index)
	if err != nil {
		c.opts.metrics.ObserveRequest(telemetry.OutcomeRejected, 0)
		return nil, err
	}
	return c.run(ctx, req), nil
}

func (c *Chat) run(ctx context.Context, req *request) *model.Message {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.opts.timeout)
	defer cancel()

	reply, err := c.generate(ctx, req)
	elapsed := time.Since(start)

	outcome := telemetry.OutcomeOK
	content := reply
	switch {
	case err != nil:
		outcome = telemetry.OutcomeError
		content = model.ErrorPrefix + err.Error()
		c.log.Warn().Err(err).
			Str("conversation", req.convID).
			Str("model", req.model).
			Dur("elapsed", elapsed).
			Msg("generate failed")
	case strings.TrimSpace(reply) == "" || reply == model.NoResponse:
		outcome = telemetry.OutcomeEmpty
		content = model.NoResponse
	}

	msg := c.store.finishRequest(req.convID, content)

	c.opts.metrics.ObserveRequest(outcome, elapsed)
	if outcome == telemetry.OutcomeOK {
		c.opts.metrics.AddTokens(historyTokens(req.history), model.EstimateTokens(reply))
	}
	c.log.Debug().
		Str("conversation", req.convID).
		Str("outcome", outcome).
		Dur("elapsed", elapsed).
		Msg("request finished")
	return msg
}

// generate calls the generator, turning a panic into an error so the
// in-flight flag is always released.
func (c *Chat) generate(ctx context.Context, req *request) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generator panic: %v", r)
		}
	}()
	return c.gen.Generate(ctx, req.model, req.history)
}

func historyTokens(history []*model.Message) int {
	total := 0
	for _, m := range history {
		total += m.EstimateTokens()
	}
	return total
}

// =============================================================================
// REQUEST LIFECYCLE (STORE SIDE)
// =============================================================================

// request is a snapshot taken when a generation starts.
type request struct {
	convID  string
	model   string
	history []*model.Message
}

// beginSend validates and records the user turn, then marks the store busy.
func (s *Store) beginSend(text string) (*request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.apiKeyLocked() == "" {
		return nil, ErrMissingAPIKey
	}
	if s.loading {
		return nil, ErrBusy
	}
	if text == "" && len(s.pending) == 0 {
		return nil, ErrEmptyMessage
	}
	conv := s.activeLocked()
	if conv == nil {
		return nil, ErrNoActiveConversation
	}

	attachments := s.pending
	s.pending = nil
	s.appendLocked(conv, model.RoleUser, text, attachments)
	_ = s.persistLocked(KeyConversations)

	return s.startLocked(conv), nil
}

// beginRegenerate removes the assistant message at index, then marks the
// store busy.
func (s *Store) beginRegenerate(index int) (*request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.apiKeyLocked() == "" {
		return nil, ErrMissingAPIKey
	}
	if s.loading {
		return nil, ErrBusy
	}
	conv := s.activeLocked()
	if conv == nil {
		return nil, ErrNoActiveConversation
	}
	if index < 0 || index >= len(conv.Messages) {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if conv.Messages[index].Role != model.RoleAssistant {
		return nil, ErrNotAssistant
	}
	if len(conv.Messages) < 2 {
		return nil, fmt.Errorf("%w: no history to regenerate from", ErrIndexOutOfRange)
	}

	conv.RemoveAt(index)
	_ = s.persistLocked(KeyConversations)

	return s.startLocked(conv), nil
}

func (s *Store) startLocked(conv *model.Conversation) *request {
	s.loading = true
	s.inflightID = conv.ID

	history := make([]*model.Message, len(conv.Messages))
	for i, m := range conv.Messages {
		history[i] = m.Clone()
	}
	return &request{convID: conv.ID, model: s.model, history: history}
}

// finishRequest appends the assistant turn and clears the busy flag.
func (s *Store) finishRequest(convID, content string) *model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = false
	s.inflightID = ""

	i := s.findLocked(convID)
	if i < 0 {
		s.log.Warn().Str("conversation", convID).Msg("conversation vanished before the reply arrived")
		return model.NewMessage(model.RoleAssistant, content, nil)
	}
	msg := s.appendLocked(s.conversations[i], model.RoleAssistant, content, nil)
	_ = s.persistLocked(KeyConversations)
	return msg.Clone()
}
