// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server serves the browser UI and a JSON API over a session.Store.
//
// The server binds to loopback by default and is meant for a single local
// user. Messages and conversations are addressed by stable IDs and indexes
// in the URL; the page script never has message content interpolated into
// it.
//
// Middleware, outermost first:
//   - RecoveryMiddleware turns a handler panic into a 500
//   - SecurityHeadersMiddleware sets CSP, frame and sniffing headers
//   - LoggingMiddleware logs each request with zerolog and counts it
//   - RateLimitMiddleware applies a per-client token bucket
//
// Errors are JSON: {"error":{"message":"...","type":"..."}}.
package server
