// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the chat state: conversations, the active pointer,
// the in-flight flag, pending attachments, the API key, the selected model,
// the theme and saved prompts.
//
// # Key Types
//
//   - Store: mutex-guarded state mirrored synchronously to a storage.KV
//   - Chat: runs send and regenerate against a Generator
//   - Generator: anything that turns history into reply text
//
// # Usage
//
//	kv, _ := storage.Open("file", path)
//	store, err := session.New(kv, session.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	chat := session.NewChat(store, client, session.WithTimeout(time.Minute))
//	reply, err := chat.Send(ctx, "Explain recursion")
//
// # Concurrency
//
// One request runs at a time per Store. A second Send or Regenerate while
// one is in flight fails with ErrBusy instead of queueing. Switching
// conversations and deleting messages are refused the same way.
package session
