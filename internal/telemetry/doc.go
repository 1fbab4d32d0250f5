// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry exposes Prometheus metrics for geminichat.
//
// Metrics live in their own registry so that several instances (one per
// test, for example) never collide. All Metrics methods accept a nil
// receiver, which lets callers treat metrics as optional.
//
// # Usage
//
//	m := telemetry.New()
//	m.ObserveRequest(telemetry.OutcomeOK, time.Since(start))
//	http.Handle("/metrics", m.Handler())
package telemetry
