// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "errors"

var (
	// ErrBusy is returned while a request is in flight.
	ErrBusy = errors.New("a request is already in progress")

	// ErrConversationNotFound is returned for unknown conversation IDs.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrIndexOutOfRange is returned for message, attachment or prompt
	// indexes outside the current list.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrMissingAPIKey is returned by Send and Regenerate when no key is set.
	ErrMissingAPIKey = errors.New("no Gemini API key configured")

	// ErrEmptyMessage is returned when there is neither text nor attachments.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrNotAssistant is returned when regenerating a user message.
	ErrNotAssistant = errors.New("only assistant messages can be regenerated")

	// ErrInvalidTheme is returned by SetTheme for names other than dark and light.
	ErrInvalidTheme = errors.New("theme must be dark or light")

	// ErrInvalidRole is returned by AddMessage for unknown roles.
	ErrInvalidRole = errors.New("unknown message role")

	// ErrNoActiveConversation should be unreachable once New has returned.
	ErrNoActiveConversation = errors.New("no active conversation")
)
