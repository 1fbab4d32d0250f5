// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/geminichat/internal/model"
)

// ReplyMsg carries the result of a send or regenerate.
type ReplyMsg struct {
	ConversationID string
	Message        *model.Message
	Err            error

	// Text is the submitted input, restored if the send was refused.
	Text string
}

// ExportedMsg reports a finished export.
type ExportedMsg struct {
	Path string
	Err  error
}

// StoreChangedMsg tells the model another process rewrote the store.
type StoreChangedMsg struct{}

// statusTimeoutMsg clears the status line if nothing newer replaced it.
type statusTimeoutMsg struct {
	seq int
}
