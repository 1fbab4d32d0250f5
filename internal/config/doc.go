// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and saves geminichat settings.
//
// Settings live in a TOML file with five sections: gemini, storage, ui,
// server and logging. Values are resolved in this order, later wins:
//   - Built-in defaults
//   - ~/.geminichat/config.toml (or $GEMINICHAT_HOME/config.toml)
//   - Environment variables (GEMINI_API_KEY, GEMINICHAT_*)
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	timeout := cfg.Gemini.RequestTimeout.Duration
//
// Individual values can be read and written with dot notation:
//
//	_ = cfg.Set("gemini.request_timeout", "90s")
//	model, _ := cfg.Get("gemini.model")
package config
