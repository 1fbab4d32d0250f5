// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses the command line and runs geminichat's commands.
//
// # Usage
//
//	args := cli.Parse(os.Args[1:])
//	if err := cli.Run(ctx, args); err != nil {
//	    cli.DisplayError(os.Stderr, err, args.JSON)
//	    os.Exit(cli.GetExitCode(err))
//	}
//
// # Commands
//
//   - tui: full-screen chat (default)
//   - ask: one question, rendered answer
//   - chat: line-mode REPL with slash commands
//   - list, search: browse conversations
//   - export: write a conversation as md, json, txt or html
//   - prompts: saved prompt library
//   - config: settings and the API key
//   - serve: local web UI
//
// Every command except config and help opens the same store, so
// conversations started in one surface appear in the others.
package cli
