// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini talks to the Gemini generative-language API.
//
// BuildRequest turns a conversation history into a generateContent body and
// ExtractText pulls the reply back out. Two transports implement
// session.Generator on top of that:
//
//   - Client posts JSON to the v1beta REST endpoint with retries, pacing
//     and bounded reads.
//   - SDKClient goes through github.com/google/generative-ai-go.
//
// The API key is read through a KeyFunc on every call so a key changed at
// runtime takes effect on the next request. It is sent in the
// x-goog-api-key header and never logged; use MaskKey for diagnostics.
package gemini
