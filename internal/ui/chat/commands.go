// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/geminichat/internal/export"
	"github.com/jeranaias/geminichat/internal/model"
	"github.com/jeranaias/geminichat/internal/session"
)

// statusTTL is how long a status message stays up.
const statusTTL = 4 * time.Second

// sendCmd runs a send off the UI goroutine. The chat timeout bounds it.
func sendCmd(c *session.Chat, convID, text string) tea.Cmd {
	return func() tea.Msg {
		msg, err := c.Send(context.Background(), text)
		return ReplyMsg{ConversationID: convID, Message: msg, Err: err, Text: text}
	}
}

func regenerateCmd(c *session.Chat, convID string, index int) tea.Cmd {
	return func() tea.Msg {
		msg, err := c.Regenerate(context.Background(), index)
		return ReplyMsg{ConversationID: convID, Message: msg, Err: err}
	}
}

func exportCmd(conv *model.Conversation, dir string) tea.Cmd {
	return func() tea.Msg {
		path, err := export.ExportToFile(conv, export.FormatMarkdown, dir)
		return ExportedMsg{Path: path, Err: err}
	}
}

func statusTimeout(seq int) tea.Cmd {
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return statusTimeoutMsg{seq: seq}
	})
}
