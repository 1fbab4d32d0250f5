// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes conversations out as Markdown, JSON, plain text or
// a standalone HTML page.
//
// # Usage
//
//	f, err := export.ParseFormat("md")
//	path, err := export.ExportToFile(conv, f, dir)
//
// File names are derived from the conversation title with every character
// outside [a-z0-9] (case-insensitive) replaced by an underscore.
package export
