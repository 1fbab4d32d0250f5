// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render draws conversations for the browser and the terminal.
//
// HTML produces the message list used by the HTTP UI and the HTML export.
// Messages are addressed by stable IDs in data-* attributes, never by
// script embedded in the markup. Terminal renders through glamour.
package render
