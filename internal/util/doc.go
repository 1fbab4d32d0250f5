// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared across geminichat.
//
// # Key Functions
//
// Text:
//   - PrefixRunes: first N runes plus a marker when cut (conversation titles)
//   - ClampRunes: hard cut to N runes, no marker
//   - TruncateWidth: display-width truncation for terminal columns
//   - FoldContains: case-insensitive substring match using Unicode case folding
//
// Files:
//   - AtomicWriteFile: crash-safe file writing with fsync + rename
//
// # Usage
//
//	title := util.ClampRunes(util.PrefixRunes(first, 40, "..."), 60)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
