// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jeranaias/geminichat/internal/model"
	"github.com/jeranaias/geminichat/internal/secret"
)

// Storage keys. The names match the browser client's localStorage keys;
// its conversation values are converted on load (see decodeConversations).
const (
	KeyAPIKey        = "gemini_api_key"
	KeyModel         = "gemini_model"
	KeyConversations = "gemini_conversations"
	KeyActive        = "gemini_active_conversation"
	KeyTheme         = "gemini_theme"
	KeyPrompts       = "saved_prompts"
)

// Theme names.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// loadLocked replaces in-memory state with what the KV holds. It returns
// the keys whose stored form is stale and should be rewritten.
func (s *Store) loadLocked() ([]string, error) {
	var stale []string

	apiKey, migrate, err := s.loadAPIKey()
	if err != nil {
		return nil, err
	}
	if migrate {
		stale = append(stale, KeyAPIKey)
	}

	modelName, ok, err := s.kv.Get(KeyModel)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", KeyModel, err)
	}
	if !ok || modelName == "" {
		modelName = s.opts.defaultModel
	}

	theme, ok, err := s.kv.Get(KeyTheme)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", KeyTheme, err)
	}
	if !ok || (theme != ThemeDark && theme != ThemeLight) {
		theme = s.opts.defaultTheme
	}

	var convs []*model.Conversation
	if raw, ok, err := s.kv.Get(KeyConversations); err != nil {
		return nil, fmt.Errorf("read %s: %w", KeyConversations, err)
	} else if ok && raw != "" {
		decoded, browser, err := decodeConversations([]byte(raw))
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("key", KeyConversations).Msg("discarding unreadable conversations")
			stale = append(stale, KeyConversations)
		case browser:
			s.log.Info().Int("count", len(decoded)).Msg("imported conversations in browser layout")
			convs = decoded
			stale = append(stale, KeyConversations)
		default:
			convs = decoded
		}
	}
	convs = compactConversations(convs)

	active, _, err := s.kv.Get(KeyActive)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", KeyActive, err)
	}

	var prompts []SavedPrompt
	if raw, ok, err := s.kv.Get(KeyPrompts); err != nil {
		return nil, fmt.Errorf("read %s: %w", KeyPrompts, err)
	} else if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &prompts); err != nil {
			s.log.Warn().Err(err).Str("key", KeyPrompts).Msg("discarding unreadable saved prompts")
			prompts = nil
			stale = append(stale, KeyPrompts)
		}
	}

	s.apiKey = apiKey
	s.model = modelName
	s.theme = theme
	s.conversations = convs
	s.activeID = active
	s.prompts = prompts

	stale = append(stale, s.ensureActiveLocked()...)
	return stale, nil
}

// loadAPIKey reads and unseals the stored key. migrate reports a plaintext
// key that should be rewritten sealed.
func (s *Store) loadAPIKey() (key string, migrate bool, err error) {
	raw, ok, err := s.kv.Get(KeyAPIKey)
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", KeyAPIKey, err)
	}
	if !ok || raw == "" {
		return "", false, nil
	}

	if !secret.IsSealed(raw) {
		return raw, s.opts.sealer != nil, nil
	}
	if s.opts.sealer == nil {
		s.log.Warn().Msg("stored API key is sealed but no sealer is configured; ignoring it")
		return "", false, nil
	}
	key, err = s.opts.sealer.Open(raw)
	if err != nil {
		s.log.Warn().Err(err).Msg("stored API key could not be unsealed; ignoring it")
		return "", false, nil
	}
	return key, false, nil
}

// compactConversations drops nil entries and repairs fields a hand-edited
// store may have left empty.
func compactConversations(convs []*model.Conversation) []*model.Conversation {
	out := convs[:0]
	for _, c := range convs {
		if c == nil || c.ID == "" {
			continue
		}
		if c.Messages == nil {
			c.Messages = make([]*model.Message, 0)
		}
		msgs := c.Messages[:0]
		for _, m := range c.Messages {
			if m != nil {
				msgs = append(msgs, m)
			}
		}
		c.Messages = msgs
		if c.Title == "" {
			c.Title = model.DefaultTitle
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now()
		}
		if c.UpdatedAt.IsZero() {
			c.UpdatedAt = c.CreatedAt
		}
		out = append(out, c)
	}
	return out
}

// persistLocked writes the given keys from in-memory state.
func (s *Store) persistLocked(keys ...string) error {
	for _, key := range keys {
		if err := s.writeKeyLocked(key); err != nil {
			s.log.Error().Err(err).Str("key", key).Msg("failed to persist")
			return fmt.Errorf("persist %s: %w", key, err)
		}
	}
	return nil
}

func (s *Store) writeKeyLocked(key string) error {
	switch key {
	case KeyAPIKey:
		if s.apiKey == "" {
			return s.kv.Delete(KeyAPIKey)
		}
		value := s.apiKey
		if s.opts.sealer != nil {
			sealed, err := s.opts.sealer.Seal(value)
			if err != nil {
				return err
			}
			value = sealed
		}
		return s.kv.Set(KeyAPIKey, value)

	case KeyModel:
		return s.kv.Set(KeyModel, s.model)

	case KeyTheme:
		return s.kv.Set(KeyTheme, s.theme)

	case KeyActive:
		return s.kv.Set(KeyActive, s.activeID)

	case KeyConversations:
		data, err := json.Marshal(s.conversations)
		if err != nil {
			return err
		}
		return s.kv.Set(KeyConversations, string(data))

	case KeyPrompts:
		prompts := s.prompts
		if prompts == nil {
			prompts = []SavedPrompt{}
		}
		data, err := json.Marshal(prompts)
		if err != nil {
			return err
		}
		return s.kv.Set(KeyPrompts, string(data))

	default:
		return fmt.Errorf("unknown key %q", key)
	}
}
