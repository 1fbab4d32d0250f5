// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Conversation: titled, ordered list of messages plus the model it talks to
//   - Message: role, text, attachments, timestamp and a stable ID
//   - Attachment: an image (as a data URI) or text extracted from a document
//   - ModelInfo: metadata for a known Gemini model
//
// Conversations are plain data. Ordering, the active pointer and persistence
// live in package session.
//
// # Usage
//
//	conv := model.NewConversation("gemini-2.5-flash")
//	conv.Append(model.NewMessage(model.RoleUser, "Hello!", nil))
//	fmt.Println(conv.Title, conv.Stats().Tokens)
package model
