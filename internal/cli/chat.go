// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - line-mode chat REPL.
//
// Command: chat
//
// Interactive commands:
//
//	/new                 Start a conversation
//	/list                List conversations
//	/switch N|ID         Switch conversation
//	/rename TITLE        Rename the active conversation
//	/delete [N|ID]       Delete a conversation (default: active)
//	/regen               Regenerate the last reply
//	/attach PATH         Attach an image or PDF to the next message
//	/export [FORMAT]     Export the active conversation (default md)
//	/save [TEXT]         Save TEXT, or the last message you sent, as a prompt
//	/prompts [N]         List saved prompts, or send prompt N
//	/model [NAME]        Show or change the model
//	/stats               Show conversation statistics
//	/help                Show commands
//	/quit                Exit (Ctrl+D also works)
//
// Ctrl+C cancels a request in flight; at the prompt it exits.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/geminichat/internal/attach"
	"github.com/jeranaias/geminichat/internal/export"
	"github.com/jeranaias/geminichat/internal/model"
	"github.com/jeranaias/geminichat/internal/render"
	"github.com/jeranaias/geminichat/internal/session"
)

// HistoryFileName holds REPL input history inside the config directory.
const HistoryFileName = "chat_history"

const chatHelp = `Commands:
  /new                 Start a conversation
  /list                List conversations
  /switch N|ID         Switch conversation
  /rename TITLE        Rename the active conversation
  /delete [N|ID]       Delete a conversation (default: active)
  /regen               Regenerate the last reply
  /attach PATH         Attach an image or PDF to the next message
  /export [FORMAT]     Export the active conversation (md, json, txt, html)
  /save [TEXT]         Save a prompt (default: your last message)
  /prompts [N]         List saved prompts, or send prompt N
  /model [NAME]        Show or change the model
  /stats               Show conversation statistics
  /quit                Exit`

// errQuit ends the REPL from a slash command.
var errQuit = errors.New("quit")

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader wraps liner with a persisted history file.
type lineReader struct {
	line        *liner.State
	historyFile string
}

func newLineReader(dir string) *lineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeSlash)

	r := &lineReader{line: line, historyFile: filepath.Join(dir, HistoryFileName)}
	if f, err := os.Open(r.historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *lineReader) Prompt(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close writes history with owner-only permissions and restores the terminal.
func (r *lineReader) Close() {
	if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
		_, _ = r.line.WriteHistory(f)
		f.Close()
	}
	r.line.Close()
}

var slashCommands = []string{
	"/new", "/list", "/switch ", "/rename ", "/delete", "/regen", "/attach ",
	"/export", "/save", "/prompts", "/model", "/stats", "/help", "/quit",
}

func completeSlash(line string) []string {
	if !strings.HasPrefix(line, "/") || strings.Contains(line, " ") {
		return nil
	}
	var out []string
	for _, c := range slashCommands {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// REPL
// =============================================================================

// chatSession is the state of one REPL run.
type chatSession struct {
	app *App
	out io.Writer
	ctx context.Context
}

// HandleChat runs the interactive line-mode chat.
func HandleChat(ctx context.Context, app *App, args Args) error {
	if err := RequiresTTY("chat"); err != nil {
		return err
	}

	s := &chatSession{app: app, out: os.Stdout, ctx: ctx}
	s.printBanner()

	in := newLineReader(app.Dir)
	defer in.Close()

	for {
		input, err := in.Prompt("gemini> ")
		if err != nil {
			// Ctrl+C at the prompt or Ctrl+D both exit.
			fmt.Fprintln(s.out)
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if err := s.command(input); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				fmt.Fprintf(s.out, "%s %v\n", ErrorStyle.Render("[Error]"), err)
			}
			continue
		}

		if err := s.send(input); err != nil {
			fmt.Fprintf(s.out, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		}
	}
}

func (s *chatSession) printBanner() {
	conv := s.app.Store.Active()
	fmt.Fprintln(s.out, TitleStyle.Render("geminichat "+Version))
	fmt.Fprintf(s.out, "%s%s\n", RenderLabel("Model"), s.app.Store.Model())
	fmt.Fprintf(s.out, "%s%s (%d messages)\n", RenderLabel("Conversation"), conv.GetTitle(), len(conv.Messages))
	if s.app.Store.APIKey() == "" {
		fmt.Fprintln(s.out, WarningStyle.Render("No API key stored. Run 'geminichat config set-key' first."))
	}
	fmt.Fprintln(s.out, DimStyle.Render("Type /help for commands, Ctrl+D to exit."))
	fmt.Fprintln(s.out, RenderSeparator())
}

// send runs one request with Ctrl+C wired to cancel it.
func (s *chatSession) send(text string) error {
	return s.generate(func(ctx context.Context) (*model.Message, error) {
		return s.app.Chat.Send(ctx, text)
	})
}

func (s *chatSession) generate(call func(context.Context) (*model.Message, error)) error {
	ctx, stop := signal.NotifyContext(s.ctx, os.Interrupt)
	defer stop()

	if n := len(s.app.Store.PendingAttachments()); n > 0 {
		fmt.Fprintln(s.out, DimStyle.Render(fmt.Sprintf("Sending with %d attachment(s)...", n)))
	} else {
		fmt.Fprintln(s.out, DimStyle.Render("Thinking... (Ctrl+C to cancel)"))
	}

	reply, err := call(ctx)
	if err != nil {
		return err
	}
	if errors.Is(ctx.Err(), context.Canceled) && s.ctx.Err() == nil {
		fmt.Fprintln(s.out, WarningStyle.Render("[Cancelled]"))
		return nil
	}
	fmt.Fprint(s.out, render.Markdown(reply.Content, GetTerminalWidth(), terminalTheme(s.app.Store.Theme())))
	return nil
}

// command dispatches a slash command.
func (s *chatSession) command(input string) error {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	store := s.app.Store

	switch strings.ToLower(name) {
	case "/quit", "/q", "/exit":
		return errQuit

	case "/help", "/h", "/?":
		fmt.Fprintln(s.out, chatHelp)

	case "/new":
		conv := store.CreateConversation()
		fmt.Fprintln(s.out, SuccessStyle.Render("New conversation ")+DimStyle.Render(shortID(conv.ID)))

	case "/list", "/ls":
		return printConversations(s.out, store.Conversations(), store.ActiveID(), false)

	case "/switch", "/s":
		conv, err := s.app.resolveConversation(arg)
		if err != nil {
			return err
		}
		if err := store.SwitchActive(conv.ID); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Switched to %s (%d messages)\n", ActiveStyle.Render(conv.GetTitle()), len(conv.Messages))

	case "/rename":
		if arg == "" {
			return errors.New("usage: /rename TITLE")
		}
		if err := store.RenameConversation(store.ActiveID(), arg); err != nil {
			return err
		}
		fmt.Fprintln(s.out, SuccessStyle.Render("Renamed to ")+store.Active().GetTitle())

	case "/delete":
		id := store.ActiveID()
		if arg != "" {
			conv, err := s.app.resolveConversation(arg)
			if err != nil {
				return err
			}
			id = conv.ID
		}
		if err := store.DeleteConversation(id); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Deleted. Active: %s\n", store.Active().GetTitle())

	case "/regen", "/regenerate", "/r":
		idx := store.Active().LastAssistantIndex()
		if idx < 0 {
			return errors.New("nothing to regenerate yet")
		}
		return s.generate(func(ctx context.Context) (*model.Message, error) {
			return s.app.Chat.Regenerate(ctx, idx)
		})

	case "/attach", "/a":
		if arg == "" {
			return errors.New("usage: /attach PATH")
		}
		att, err := attach.Load(expandHome(arg))
		if err != nil {
			return err
		}
		store.AddPendingAttachment(att)
		fmt.Fprintf(s.out, "Attached %s (%s). It goes with your next message.\n", att.Name, att.MimeType)

	case "/export":
		format := export.FormatMarkdown
		if arg != "" {
			f, err := export.ParseFormat(arg)
			if err != nil {
				return err
			}
			format = f
		}
		path, err := export.ExportToFile(store.Active(), format, s.app.ExportDir())
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, SuccessStyle.Render("Exported to ")+path)

	case "/save":
		text := arg
		if text == "" {
			conv := store.Active()
			for i := len(conv.Messages) - 1; i >= 0; i-- {
				if conv.Messages[i].Role == model.RoleUser {
					text = conv.Messages[i].Content
					break
				}
			}
		}
		if err := store.SavePrompt(text); err != nil {
			return err
		}
		fmt.Fprintln(s.out, SuccessStyle.Render("Prompt saved"))

	case "/prompts", "/p":
		prompts := store.SavedPrompts()
		if arg == "" {
			printPrompts(s.out, prompts)
			return nil
		}
		idx, err := ParseIndex(arg, len(prompts))
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, DimStyle.Render("> ")+prompts[idx].Text)
		return s.send(prompts[idx].Text)

	case "/model", "/m":
		if arg == "" {
			fmt.Fprintf(s.out, "%s%s\n", RenderLabel("Model"), store.Model())
			fmt.Fprintf(s.out, "%s%s\n", RenderLabel("Available"), strings.Join(model.ModelIDs(), ", "))
			return nil
		}
		if err := store.SetModel(arg); err != nil {
			return err
		}
		fmt.Fprintln(s.out, SuccessStyle.Render("Model set to ")+arg)

	case "/stats":
		stats, err := store.Stats(store.ActiveID())
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, TitleStyle.Render(store.Active().GetTitle()))
		printStats(s.out, stats)

	default:
		return fmt.Errorf("unknown command %s (try /help)", name)
	}
	return nil
}

func printPrompts(w io.Writer, prompts []session.SavedPrompt) {
	if len(prompts) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No saved prompts. Use /save or 'geminichat prompts add'."))
		return
	}
	for i, p := range prompts {
		fmt.Fprintf(w, "%3d  %s  %s\n", i+1, DimStyle.Render(p.Time().Format("2006-01-02 15:04")), p.Text)
	}
}

// expandHome turns a leading ~/ into the home directory.
func expandHome(path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return path
}
