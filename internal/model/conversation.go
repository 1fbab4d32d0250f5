// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/geminichat/internal/util"
)

const (
	// DefaultTitle is shown until the first user message arrives.
	DefaultTitle = "New conversation"

	// TitlePrefixRunes is how much of the first user message becomes the title.
	TitlePrefixRunes = 40

	// MaxTitleRunes caps every title, derived or renamed.
	MaxTitleRunes = 60
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a complete chat conversation with history and metadata.
type Conversation struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Messages  []*Message `json:"messages"`
	Model     string     `json:"model"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// TitleSet records that the title was derived or renamed, so later user
	// messages leave it alone.
	TitleSet bool `json:"title_set,omitempty"`
}

// NewConversation creates an empty conversation bound to model.
func NewConversation(model string) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        generateConversationID(now),
		Title:     DefaultTitle,
		Messages:  make([]*Message, 0),
		Model:     model,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// generateConversationID returns "conv_<unix-ms>_<random>".
func generateConversationID(now time.Time) string {
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		// Fall back to the clock; uniqueness still holds per millisecond.
		return "conv_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + strconv.FormatInt(now.UnixNano()%1e9, 36)
	}
	return "conv_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + hex.EncodeToString(b)
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append adds msg to the end of the history. The first user message also
// sets the title.
func (c *Conversation) Append(msg *Message) {
	if msg.Role == RoleUser && !c.TitleSet && !c.hasUserMessage() {
		c.Title = DeriveTitle(msg.Content)
		c.TitleSet = true
	}
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
}

func (c *Conversation) hasUserMessage() bool {
	for _, m := range c.Messages {
		if m.Role == RoleUser {
			return true
		}
	}
	return false
}

// RemoveAt deletes the message at index. It reports false when index is
// out of range.
func (c *Conversation) RemoveAt(index int) bool {
	if index < 0 || index >= len(c.Messages) {
		return false
	}
	c.Messages = append(c.Messages[:index], c.Messages[index+1:]...)
	c.UpdatedAt = time.Now()
	return true
}

// IndexOf returns the position of the message with the given ID, or -1.
func (c *Conversation) IndexOf(id string) int {
	for i, m := range c.Messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// LastUserIndex returns the index of the newest user message, or -1.
func (c *Conversation) LastUserIndex() int {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleUser {
			return i
		}
	}
	return -1
}

// LastAssistantIndex returns the index of the newest assistant message, or -1.
func (c *Conversation) LastAssistantIndex() int {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return i
		}
	}
	return -1
}

// IsEmpty reports whether the conversation has no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// =============================================================================
// TITLE MANAGEMENT
// =============================================================================

// DeriveTitle builds a title from the first user message: the first 40
// runes, "..." when cut, never longer than 60 runes overall.
func DeriveTitle(content string) string {
	title := util.PrefixRunes(strings.TrimSpace(content), TitlePrefixRunes, "...")
	if title == "" {
		return DefaultTitle
	}
	return util.ClampRunes(title, MaxTitleRunes)
}

// Rename sets a user-chosen title. Blank titles are ignored and reported
// as false.
func (c *Conversation) Rename(title string) bool {
	title = strings.TrimSpace(title)
	if title == "" {
		return false
	}
	c.Title = util.ClampRunes(title, MaxTitleRunes)
	c.TitleSet = true
	c.UpdatedAt = time.Now()
	return true
}

// GetTitle returns the title, or the default if none is set.
func (c *Conversation) GetTitle() string {
	if c.Title == "" {
		return DefaultTitle
	}
	return c.Title
}

// Preview returns a short preview of the newest message.
func (c *Conversation) Preview(maxRunes int) string {
	if len(c.Messages) == 0 {
		return ""
	}
	text := strings.Join(strings.Fields(c.Messages[len(c.Messages)-1].Content), " ")
	return util.PrefixRunes(text, maxRunes, "...")
}

// =============================================================================
// COPY
// =============================================================================

// Clone returns a deep copy of the conversation.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Messages = make([]*Message, len(c.Messages))
	for i, m := range c.Messages {
		clone.Messages[i] = m.Clone()
	}
	return &clone
}
