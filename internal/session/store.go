// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jeranaias/geminichat/internal/model"
	"github.com/jeranaias/geminichat/internal/storage"
	"github.com/jeranaias/geminichat/internal/util"
)

// =============================================================================
// STORE
// =============================================================================

// Store holds all chat state. Every mutation is written to the KV before
// the method returns. Conversations are kept newest first.
type Store struct {
	mu   sync.RWMutex
	kv   storage.KV
	opts options
	log  zerolog.Logger

	conversations []*model.Conversation
	activeID      string
	apiKey        string
	model         string
	theme         string
	prompts       []SavedPrompt
	pending       []model.Attachment

	loading    bool
	inflightID string
}

// New loads persisted state from kv. If nothing usable is stored, a fresh
// conversation is created and made active.
func New(kv storage.KV, opts ...Option) (*Store, error) {
	o := buildOptions(opts)
	s := &Store{
		kv:   kv,
		opts: o,
		log:  o.logger.With().Str("component", "store").Logger(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stale, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	if err := s.persistLocked(stale...); err != nil {
		return nil, err
	}
	s.opts.metrics.SetConversations(len(s.conversations))

	s.log.Debug().
		Int("conversations", len(s.conversations)).
		Str("model", s.model).
		Bool("api_key", s.apiKey != "" || s.opts.seedAPIKey != "").
		Msg("store loaded")
	return s, nil
}

// Reload re-reads everything from the KV, e.g. after another process
// changed the store file. It is refused while a request is in flight.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loading {
		return ErrBusy
	}
	stale, err := s.loadLocked()
	if err != nil {
		return err
	}
	s.opts.metrics.SetConversations(len(s.conversations))
	return s.persistLocked(stale...)
}

// ensureActiveLocked enforces that at least one conversation exists and
// the active ID names one of them. It returns the keys it touched.
func (s *Store) ensureActiveLocked() []string {
	if len(s.conversations) == 0 {
		conv := model.NewConversation(s.model)
		s.conversations = []*model.Conversation{conv}
		s.activeID = conv.ID
		return []string{KeyConversations, KeyActive}
	}
	if s.findLocked(s.activeID) < 0 {
		s.activeID = s.conversations[0].ID
		return []string{KeyActive}
	}
	return nil
}

func (s *Store) findLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, c := range s.conversations {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) activeLocked() *model.Conversation {
	if i := s.findLocked(s.activeID); i >= 0 {
		return s.conversations[i]
	}
	return nil
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// CreateConversation starts an empty conversation at the front of the list
// and makes it active. A persistence failure is logged, not returned.
func (s *Store) CreateConversation() *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := model.NewConversation(s.model)
	s.conversations = append([]*model.Conversation{conv}, s.conversations...)
	s.activeID = conv.ID
	_ = s.persistLocked(KeyConversations, KeyActive)
	s.opts.metrics.SetConversations(len(s.conversations))

	s.log.Debug().Str("conversation", conv.ID).Msg("conversation created")
	return conv.Clone()
}

// DeleteConversation removes a conversation. Deleting the active one
// activates the next newest, or a fresh conversation if none remain.
func (s *Store) DeleteConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	if s.loading && id == s.inflightID {
		return ErrBusy
	}

	s.conversations = append(s.conversations[:i], s.conversations[i+1:]...)
	keys := []string{KeyConversations}
	if id == s.activeID {
		s.activeID = ""
		keys = append(keys, KeyActive)
	}
	keys = append(keys, s.ensureActiveLocked()...)
	s.opts.metrics.SetConversations(len(s.conversations))

	s.log.Debug().Str("conversation", id).Msg("conversation deleted")
	return s.persistLocked(dedupeKeys(keys)...)
}

// RenameConversation sets a conversation's title. A blank title is ignored.
func (s *Store) RenameConversation(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	if !s.conversations[i].Rename(title) {
		return nil
	}
	return s.persistLocked(KeyConversations)
}

// SwitchActive makes id the active conversation and adopts its model.
func (s *Store) SwitchActive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loading {
		return ErrBusy
	}
	i := s.findLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}

	s.activeID = id
	if m := s.conversations[i].Model; m != "" {
		s.model = m
	}
	return s.persistLocked(KeyActive, KeyModel)
}

// Active returns a copy of the active conversation.
func (s *Store) Active() *model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeLocked().Clone()
}

// ActiveID returns the active conversation's ID.
func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Conversations returns copies of all conversations, newest first.
func (s *Store) Conversations() []*model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Conversation, len(s.conversations))
	for i, c := range s.conversations {
		out[i] = c.Clone()
	}
	return out
}

// Conversation returns a copy of the conversation with the given ID.
func (s *Store) Conversation(id string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.findLocked(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	return s.conversations[i].Clone(), nil
}

// Search returns conversations whose title or any message contains query,
// ignoring case. An empty query matches everything.
func (s *Store) Search(query string) []*model.Conversation {
	query = strings.TrimSpace(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Conversation
	for _, c := range s.conversations {
		if query == "" || conversationMatches(c, query) {
			out = append(out, c.Clone())
		}
	}
	return out
}

func conversationMatches(c *model.Conversation, query string) bool {
	if util.FoldContains(c.Title, query) {
		return true
	}
	for _, m := range c.Messages {
		if util.FoldContains(m.Content, query) {
			return true
		}
	}
	return false
}

// Stats counts messages, words and estimated tokens in a conversation.
func (s *Store) Stats(id string) (model.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.findLocked(id)
	if i < 0 {
		return model.Stats{}, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	return s.conversations[i].Stats(), nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// AddMessage appends a message to the active conversation. The first user
// message also titles the conversation.
func (s *Store) AddMessage(role model.Role, content string, attachments []model.Attachment) (*model.Message, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.activeLocked()
	if conv == nil {
		return nil, ErrNoActiveConversation
	}
	msg := s.appendLocked(conv, role, content, attachments)
	if err := s.persistLocked(KeyConversations); err != nil {
		return msg.Clone(), err
	}
	return msg.Clone(), nil
}

func (s *Store) appendLocked(conv *model.Conversation, role model.Role, content string, attachments []model.Attachment) *model.Message {
	msg := model.NewMessage(role, content, attachments)
	conv.Append(msg)

	s.opts.metrics.MessageAdded(string(role))
	for _, a := range attachments {
		s.opts.metrics.AttachmentAdded(string(a.Kind))
	}
	return msg
}

// DeleteMessage removes the message at index from the active conversation.
func (s *Store) DeleteMessage(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loading {
		return ErrBusy
	}
	conv := s.activeLocked()
	if conv == nil {
		return ErrNoActiveConversation
	}
	if !conv.RemoveAt(index) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	return s.persistLocked(KeyConversations)
}

// MessageIndex returns the position of a message in the active
// conversation, looked up by its ID.
func (s *Store) MessageIndex(id string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv := s.activeLocked()
	if conv == nil {
		return -1, ErrNoActiveConversation
	}
	i := conv.IndexOf(id)
	if i < 0 {
		return -1, fmt.Errorf("%w: no message %s", ErrIndexOutOfRange, id)
	}
	return i, nil
}

// =============================================================================
// SETTINGS
// =============================================================================

// APIKey returns the stored key, or the seeded key when none is stored.
func (s *Store) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKeyLocked()
}

func (s *Store) apiKeyLocked() string {
	if s.apiKey != "" {
		return s.apiKey
	}
	return s.opts.seedAPIKey
}

// SetAPIKey stores key. An empty key removes the stored one.
func (s *Store) SetAPIKey(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.apiKey = strings.TrimSpace(key)
	return s.persistLocked(KeyAPIKey)
}

// Model returns the current model name.
func (s *Store) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// SetModel changes the current model and stamps it on the active conversation.
func (s *Store) SetModel(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("model name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.model = name
	keys := []string{KeyModel}
	if conv := s.activeLocked(); conv != nil && conv.Model != name {
		conv.Model = name
		keys = append(keys, KeyConversations)
	}
	return s.persistLocked(keys...)
}

// Theme returns "dark" or "light".
func (s *Store) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// SetTheme sets the theme to "dark" or "light".
func (s *Store) SetTheme(theme string) error {
	if theme != ThemeDark && theme != ThemeLight {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, theme)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.theme = theme
	return s.persistLocked(KeyTheme)
}

// ToggleTheme flips between dark and light and returns the new theme.
func (s *Store) ToggleTheme() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.theme == ThemeDark {
		s.theme = ThemeLight
	} else {
		s.theme = ThemeDark
	}
	return s.theme, s.persistLocked(KeyTheme)
}

// Loading reports whether a request is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// =============================================================================
// PENDING ATTACHMENTS
// =============================================================================

// AddPendingAttachment queues an attachment for the next Send.
func (s *Store) AddPendingAttachment(a model.Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, a)
}

// PendingAttachments returns a copy of the queued attachments.
func (s *Store) PendingAttachments() []model.Attachment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Attachment, len(s.pending))
	copy(out, s.pending)
	return out
}

// RemovePendingAttachment drops the queued attachment at index.
func (s *Store) RemovePendingAttachment(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.pending) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	s.pending = append(s.pending[:index], s.pending[index+1:]...)
	return nil
}

// ClearPendingAttachments empties the queue.
func (s *Store) ClearPendingAttachments() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

// =============================================================================
// HELPERS
// =============================================================================

func dedupeKeys(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
