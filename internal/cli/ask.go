// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - one-shot question command.
//
// Command: ask "question" [--attach FILE]... [--new] [--raw]
//
// The question and answer are recorded in the active conversation, or in
// a fresh one with --new. With no question, stdin is read when it is piped:
//
//	git diff | geminichat ask --new "Review this change"
//	cat notes.txt | geminichat ask

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/geminichat/internal/attach"
	"github.com/jeranaias/geminichat/internal/model"
	"github.com/jeranaias/geminichat/internal/render"
)

// HandleAsk sends a single question and prints the rendered reply.
func HandleAsk(ctx context.Context, app *App, args Args, w io.Writer) error {
	p := NewArgParser(args.Rest, "new", "raw")

	question := JoinPositionalArgs(p, 0)
	if stdin, err := pipedInput(); err != nil {
		return err
	} else if stdin != "" {
		if question == "" {
			question = stdin
		} else {
			question += "\n\n" + stdin
		}
	}

	var paths []string
	for i, raw := 0, args.Rest; i < len(raw); i++ {
		if raw[i] == "--attach" || raw[i] == "-a" {
			if i+1 < len(raw) {
				paths = append(paths, raw[i+1])
				i++
			}
		} else if v, ok := strings.CutPrefix(raw[i], "--attach="); ok {
			paths = append(paths, v)
		}
	}
	if question == "" && len(paths) == 0 {
		return usageErr(`ask needs a question, e.g. geminichat ask "What is a goroutine?"`)
	}
	if err := app.requireAPIKey(); err != nil {
		return err
	}

	if p.BoolFlag("new") {
		app.Store.CreateConversation()
	}
	for _, path := range paths {
		att, err := attach.Load(path)
		if err != nil {
			app.Store.ClearPendingAttachments()
			return err
		}
		app.Store.AddPendingAttachment(att)
	}

	reply, err := app.Chat.Send(ctx, question)
	if err != nil {
		return err
	}
	return printReply(w, app, reply, args.JSON || p.BoolFlag("raw"), args.JSON)
}

// printReply renders the reply with glamour, or prints it raw. A reply that
// carries a generator error makes the command fail after printing.
func printReply(w io.Writer, app *App, reply *model.Message, raw, asJSON bool) error {
	failed := strings.HasPrefix(reply.Content, model.ErrorPrefix)

	switch {
	case asJSON:
		if err := writeJSON(w, map[string]any{
			"conversation_id": app.Store.ActiveID(),
			"model":           app.Store.Model(),
			"message":         reply,
		}); err != nil {
			return err
		}
	case raw || !IsStdoutTTY():
		fmt.Fprintln(w, reply.Content)
	default:
		fmt.Fprint(w, render.Markdown(reply.Content, GetTerminalWidth(), terminalTheme(app.Store.Theme())))
	}

	if failed {
		return fmt.Errorf("request failed: %s", strings.TrimPrefix(reply.Content, model.ErrorPrefix))
	}
	return nil
}

// terminalTheme maps the stored theme to a glamour theme, going plain
// when colors are off.
func terminalTheme(stored string) string {
	if !ColorsEnabled() {
		return render.ThemePlain
	}
	if stored == render.ThemeLight {
		return render.ThemeLight
	}
	return render.ThemeDark
}

// pipedInput supplies piped stdin to ask; tests replace it.
var pipedInput = readPipedStdin

// readPipedStdin returns stdin when it is a pipe or file, and "" for a TTY.
func readPipedStdin() (string, error) {
	if IsTTY() {
		return "", nil
	}
	info, err := os.Stdin.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice != 0 {
		return "", nil
	}
	if info.Mode()&(os.ModeNamedPipe) == 0 && !info.Mode().IsRegular() {
		return "", nil
	}
	data, err := io.ReadAll(io.LimitReader(os.Stdin, attach.MaxSize))
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
