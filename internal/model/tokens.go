// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"unicode/utf8"
)

// Token thresholds for the input counter.
const (
	TokenWarnThreshold   = 6000
	TokenDangerThreshold = 8000
)

// TokenLevel classifies a token count for display.
type TokenLevel int

const (
	TokenNormal TokenLevel = iota
	TokenWarning
	TokenDanger
)

// String returns the CSS/style name of the level.
func (l TokenLevel) String() string {
	switch l {
	case TokenWarning:
		return "warning"
	case TokenDanger:
		return "danger"
	default:
		return "normal"
	}
}

// EstimateTokens approximates the token count as ceil(runes/4).
func EstimateTokens(s string) int {
	n := utf8.RuneCountInString(s)
	return (n + 3) / 4
}

// LevelFor returns the display level for a token count.
func LevelFor(tokens int) TokenLevel {
	switch {
	case tokens > TokenDangerThreshold:
		return TokenDanger
	case tokens > TokenWarnThreshold:
		return TokenWarning
	default:
		return TokenNormal
	}
}

// Stats summarizes a conversation.
type Stats struct {
	Messages int `json:"messages"`
	Words    int `json:"words"`
	Tokens   int `json:"tokens"`
}

// Stats counts messages, whitespace-separated words and estimated tokens.
func (c *Conversation) Stats() Stats {
	var s Stats
	s.Messages = len(c.Messages)
	for _, m := range c.Messages {
		s.Words += len(strings.Fields(m.Content))
		s.Tokens += m.EstimateTokens()
	}
	return s
}
