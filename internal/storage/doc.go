// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the persistent key-value store behind geminichat.
//
// Values are opaque strings; package session decides what goes in them.
// Three backends implement KV:
//
//   - FileKV: one JSON object on disk, rewritten atomically on every Set
//   - SQLiteKV: a single-table SQLite database (pure Go driver)
//   - MemoryKV: process memory, for tests
//
// FileKV can also watch its file and report changes made by another
// geminichat process.
//
// # Usage
//
//	kv, err := storage.Open(storage.BackendFile, "~/.geminichat/store.json")
//	if err != nil { ... }
//	defer kv.Close()
//	kv.Set("gemini_theme", "dark")
package storage
