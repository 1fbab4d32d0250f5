// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown turns chat message text into safe HTML.
//
// The transform is a fixed sequence of passes over one string:
//
//  1. fenced code blocks are cut out and replaced by placeholders
//  2. everything else is HTML-escaped
//  3. inline rules run in order: inline code, bold+italic, bold, italic,
//     headings, list items, list wrapping, line breaks
//  4. placeholders are replaced by highlighted code containers
//
// Nothing the user types can produce live markup outside the tags emitted
// by step 3 and 4. Highlighting is pluggable; a failing highlighter only
// degrades its own block to escaped text.
//
// # Usage
//
//	r := markdown.New(markdown.NewChromaHighlighter("monokai"))
//	html := r.ToHTML("**hi** from `go`")
package markdown
