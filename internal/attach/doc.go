// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attach turns files into message attachments.
//
// Images are kept as base64 data URIs. PDFs are reduced to their plain text
// page by page. Every other type is rejected with *UnsupportedTypeError.
package attach
