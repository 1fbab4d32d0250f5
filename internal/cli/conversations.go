// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/geminichat/internal/export"
)

// HandleList prints every conversation, newest first.
func HandleList(app *App, args Args, w io.Writer) error {
	return printConversations(w, app.Store.Conversations(), app.Store.ActiveID(), args.JSON)
}

// HandleSearch prints conversations whose title or messages contain the query.
func HandleSearch(app *App, args Args, w io.Writer) error {
	query := strings.TrimSpace(strings.Join(args.Rest, " "))
	if query == "" {
		return usageErr("search needs a query")
	}
	results := app.Store.Search(query)
	if !args.JSON && len(results) == 0 {
		fmt.Fprintln(w, DimStyle.Render(fmt.Sprintf("No conversations match %q.", query)))
		return nil
	}
	return printConversations(w, results, app.Store.ActiveID(), args.JSON)
}

// HandleExport writes a conversation to a file, or to stdout with --out -.
//
//	geminichat export 2 --format html --open
//	geminichat export 9f2c01ab --format json --out -
func HandleExport(app *App, args Args, w io.Writer) error {
	p := NewArgParser(args.Rest, "open")

	ref := p.Positional(0)
	if ref == "" {
		ref = app.Store.ActiveID()
	}
	conv, err := app.resolveConversation(ref)
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(p.FlagOrDefault("md", "format", "f"))
	if err != nil {
		return err
	}

	out := p.FlagOrDefault(app.ExportDir(), "out", "o")
	if out == "-" {
		exporter, err := export.ExporterFor(format, app.Store.Theme())
		if err != nil {
			return err
		}
		data, err := exporter.Export(conv)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	if err := os.MkdirAll(out, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	path, err := export.ExportToFile(conv, format, out)
	if err != nil {
		return err
	}
	if args.JSON {
		if err := writeJSON(w, map[string]string{"path": path, "format": string(format)}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(w, SuccessStyle.Render("Exported to ")+path)
	}

	if p.BoolFlag("open") {
		if err := export.OpenFile(path); err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
	}
	return nil
}

// HandlePrompts manages saved prompts.
//
//	geminichat prompts
//	geminichat prompts add "Summarize this in three bullet points"
//	geminichat prompts delete 2
func HandlePrompts(app *App, args Args, w io.Writer) error {
	p := NewArgParser(args.Rest)
	store := app.Store

	switch p.Subcommand() {
	case "", "list", "ls":
		prompts := store.SavedPrompts()
		if args.JSON {
			return writeJSON(w, prompts)
		}
		printPrompts(w, prompts)
		return nil

	case "add", "save":
		text := JoinPositionalArgs(p, 1)
		if text == "" {
			return usageErr("prompts add needs the prompt text")
		}
		if err := store.SavePrompt(text); err != nil {
			return err
		}
		fmt.Fprintln(w, SuccessStyle.Render("Prompt saved"))
		return nil

	case "delete", "rm":
		idx, err := ParseIndex(p.Positional(1), len(store.SavedPrompts()))
		if err != nil {
			return usageErr("prompts delete: %v", err)
		}
		if err := store.DeletePrompt(idx); err != nil {
			return err
		}
		fmt.Fprintln(w, SuccessStyle.Render("Prompt deleted"))
		return nil

	default:
		return usageErr("unknown prompts subcommand %q (want list, add or delete)", p.Subcommand())
	}
}
