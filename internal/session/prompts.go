// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"strings"
	"time"
)

// MaxSavedPrompts caps the prompt library.
const MaxSavedPrompts = 20

// SavedPrompt is a reusable prompt. Timestamp is Unix milliseconds.
type SavedPrompt struct {
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// Time returns the save time.
func (p SavedPrompt) Time() time.Time {
	return time.UnixMilli(p.Timestamp)
}

// SavePrompt puts text at the front of the library. An identical earlier
// entry is removed and only the newest MaxSavedPrompts are kept.
func (s *Store) SavePrompt(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prompts := make([]SavedPrompt, 0, len(s.prompts)+1)
	prompts = append(prompts, SavedPrompt{Text: text, Timestamp: time.Now().UnixMilli()})
	for _, p := range s.prompts {
		if p.Text != text {
			prompts = append(prompts, p)
		}
	}
	if len(prompts) > MaxSavedPrompts {
		prompts = prompts[:MaxSavedPrompts]
	}
	s.prompts = prompts
	return s.persistLocked(KeyPrompts)
}

// SavedPrompts returns the library, newest first.
func (s *Store) SavedPrompts() []SavedPrompt {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SavedPrompt, len(s.prompts))
	copy(out, s.prompts)
	return out
}

// DeletePrompt removes the prompt at index.
func (s *Store) DeletePrompt(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.prompts) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	s.prompts = append(s.prompts[:index], s.prompts[index+1:]...)
	return s.persistLocked(KeyPrompts)
}
