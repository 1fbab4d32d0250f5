// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Version information, set by main from build flags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// COMMANDS
// =============================================================================

// Command identifies a top-level subcommand.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdList
	CmdSearch
	CmdExport
	CmdPrompts
	CmdConfig
	CmdServe
	CmdVersion
	CmdHelp
	CmdUnknown
)

var commandNames = map[string]Command{
	"tui":     CmdTUI,
	"ask":     CmdAsk,
	"chat":    CmdChat,
	"list":    CmdList,
	"ls":      CmdList,
	"search":  CmdSearch,
	"export":  CmdExport,
	"prompts": CmdPrompts,
	"config":  CmdConfig,
	"serve":   CmdServe,
	"version": CmdVersion,
	"help":    CmdHelp,
}

// String returns the canonical command name.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdAsk:
		return "ask"
	case CmdChat:
		return "chat"
	case CmdList:
		return "list"
	case CmdSearch:
		return "search"
	case CmdExport:
		return "export"
	case CmdPrompts:
		return "prompts"
	case CmdConfig:
		return "config"
	case CmdServe:
		return "serve"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args is the parsed command line.
type Args struct {
	Command Command
	// Name is the command word as typed, kept for error messages.
	Name string

	// Global flags, accepted anywhere on the line.
	Model   string
	Verbose bool
	JSON    bool

	// Rest holds everything after the command word.
	Rest []string
}

// ErrUsage marks errors caused by bad arguments.
var ErrUsage = errors.New("usage error")

func usageErr(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, a...))
}

// =============================================================================
// PARSING
// =============================================================================

// Parse turns argv (without the program name) into Args. No arguments
// means the TUI.
func Parse(argv []string) Args {
	remaining, args := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		if args.Command == CmdUnknown {
			args.Command = CmdTUI
		}
		return args
	}
	if args.Command != CmdUnknown {
		// --help or --version win over a command word.
		args.Rest = remaining
		return args
	}

	args.Name = remaining[0]
	args.Rest = remaining[1:]
	if cmd, ok := commandNames[strings.ToLower(args.Name)]; ok {
		args.Command = cmd
	}
	return args
}

// parseGlobalFlags pulls flags shared by every command out of argv.
func parseGlobalFlags(argv []string) ([]string, Args) {
	args := Args{Command: CmdUnknown}
	var remaining []string

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "-v" || arg == "--verbose":
			args.Verbose = true
		case arg == "--json":
			args.JSON = true
		case arg == "-h" || arg == "--help":
			args.Command = CmdHelp
		case arg == "--version":
			args.Command = CmdVersion
		case arg == "-m" || arg == "--model":
			if i+1 < len(argv) {
				i++
				args.Model = argv[i]
			}
		case strings.HasPrefix(arg, "--model="):
			args.Model = strings.TrimPrefix(arg, "--model=")
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, args
}

// =============================================================================
// DISPATCH
// =============================================================================

// Run executes the parsed command.
func Run(ctx context.Context, args Args) error {
	switch args.Command {
	case CmdVersion:
		PrintVersion(os.Stdout, args.JSON)
		return nil
	case CmdHelp:
		PrintUsage(os.Stdout)
		return nil
	case CmdUnknown:
		return usageErr("unknown command %q (run 'geminichat help')", args.Name)
	case CmdConfig:
		return HandleConfig(args)
	}

	app, err := openApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	switch args.Command {
	case CmdTUI:
		return HandleTUI(ctx, app)
	case CmdAsk:
		return HandleAsk(ctx, app, args, os.Stdout)
	case CmdChat:
		return HandleChat(ctx, app, args)
	case CmdList:
		return HandleList(app, args, os.Stdout)
	case CmdSearch:
		return HandleSearch(app, args, os.Stdout)
	case CmdExport:
		return HandleExport(app, args, os.Stdout)
	case CmdPrompts:
		return HandlePrompts(app, args, os.Stdout)
	case CmdServe:
		return HandleServe(ctx, app, args)
	}
	return usageErr("unhandled command %s", args.Command)
}

// =============================================================================
// USAGE
// =============================================================================

const usageText = `geminichat - chat with Google Gemini from the terminal or the browser

Usage:
  geminichat [command] [flags]

Commands:
  tui                          Start the terminal UI (default)
  ask "question"               Ask once and print the rendered answer
      --attach FILE            Attach an image or PDF
  chat                         Line-mode chat with history and /commands
  list                         List conversations
  search QUERY                 Find conversations by title or content
  export ID [--format md|json|txt|html] [--out DIR] [--open]
                               Export a conversation by list number, ID or ID tail
  prompts [list|add TEXT|delete N]
                               Manage saved prompts
  config [show|path|set KEY VALUE|set-key]
                               Show or change settings
  serve [--addr HOST:PORT]     Start the local web UI
  version                      Print version information
  help                         Show this help

Global flags:
  -m, --model NAME             Use (and remember) a model
  -v, --verbose                Debug logging
      --json                   Machine-readable output where supported
  -h, --help                   Show this help

Environment:
  GEMINI_API_KEY               API key used when none is stored
  GEMINICHAT_HOME              Config and data directory (default ~/.geminichat)
  GEMINICHAT_PASSPHRASE        Derive the key-sealing key from a passphrase
  NO_COLOR                     Disable colored output
`

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer, asJSON bool) {
	if asJSON {
		_ = writeJSON(w, map[string]string{
			"version":    Version,
			"git_commit": GitCommit,
			"build_date": BuildDate,
		})
		return
	}
	fmt.Fprintf(w, "geminichat %s\n", Version)
	fmt.Fprintf(w, "  commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  built:  %s\n", BuildDate)
}
