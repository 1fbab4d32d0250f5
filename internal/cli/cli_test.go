// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/geminichat/internal/attach"
	"github.com/jeranaias/geminichat/internal/config"
	"github.com/jeranaias/geminichat/internal/export"
	"github.com/jeranaias/geminichat/internal/gemini"
	"github.com/jeranaias/geminichat/internal/logging"
	"github.com/jeranaias/geminichat/internal/model"
	"github.com/jeranaias/geminichat/internal/session"
	"github.com/jeranaias/geminichat/internal/storage"
	"github.com/jeranaias/geminichat/internal/telemetry"
)

// =============================================================================
// ARG PARSER TESTS
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		bools    []string
		wantSub  string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name:    "simple subcommand",
			args:    []string{"list"},
			wantSub: "list",
		},
		{
			name:    "flag with value",
			args:    []string{"export", "--format", "json"},
			wantSub: "export",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "json", p.Flag("format"))
				assert.Equal(t, 1, p.PositionalCount())
			},
		},
		{
			name:    "flag with equals",
			args:    []string{"export", "--out=/tmp/x"},
			wantSub: "export",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "/tmp/x", p.Flag("out"))
			},
		},
		{
			name:    "short alias",
			args:    []string{"export", "-f", "html"},
			wantSub: "export",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "html", p.Flag("format", "f"))
			},
		},
		{
			name:    "registered bool does not consume positional",
			args:    []string{"--open", "3f2c"},
			bools:   []string{"open"},
			wantSub: "3f2c",
			validate: func(t *testing.T, p *ArgParser) {
				assert.True(t, p.BoolFlag("open"))
				assert.Empty(t, p.Flag("open"))
			},
		},
		{
			name:    "unregistered flag takes next word",
			args:    []string{"--open", "3f2c"},
			wantSub: "",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "3f2c", p.Flag("open"))
				assert.False(t, p.BoolFlag("open"))
			},
		},
		{
			name:    "explicit bool value",
			args:    []string{"--open=false", "--raw=true"},
			bools:   []string{"open"},
			wantSub: "",
			validate: func(t *testing.T, p *ArgParser) {
				assert.False(t, p.BoolFlag("open"))
				assert.True(t, p.HasFlag("open"))
				assert.True(t, p.BoolFlag("raw"))
			},
		},
		{
			name:    "dash is a value",
			args:    []string{"export", "--out", "-"},
			wantSub: "export",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "-", p.Flag("out"))
			},
		},
		{
			name:    "double dash ends flags",
			args:    []string{"add", "--", "--not-a-flag", "text"},
			wantSub: "add",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "--not-a-flag text", JoinPositionalArgs(p, 1))
				assert.False(t, p.HasFlag("not-a-flag"))
			},
		},
		{
			name:    "trailing flag is bool",
			args:    []string{"search", "go", "--verbose"},
			wantSub: "search",
			validate: func(t *testing.T, p *ArgParser) {
				assert.True(t, p.BoolFlag("verbose"))
				assert.Equal(t, []string{"search", "go"}, p.PositionalFrom(0))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewArgParser(tt.args, tt.bools...)
			assert.Equal(t, tt.wantSub, p.Subcommand())
			assert.Equal(t, tt.args, p.Raw())
			if tt.validate != nil {
				tt.validate(t, p)
			}
		})
	}
}

func TestArgParser_Defaults(t *testing.T) {
	p := NewArgParser([]string{"--limit", "7", "--bad", "x"})

	assert.Equal(t, "md", p.FlagOrDefault("md", "format", "f"))
	n, err := p.FlagInt("limit")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = p.FlagInt("bad")
	assert.Error(t, err)
	_, err = p.FlagInt("missing")
	assert.Error(t, err)

	assert.Equal(t, "", p.Positional(5))
	assert.Empty(t, p.PositionalFrom(3))
}

func TestParseIndex(t *testing.T) {
	idx, err := ParseIndex(" 2 ", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	for _, bad := range []string{"0", "4", "-1", "two", ""} {
		_, err := ParseIndex(bad, 3)
		assert.Error(t, err, bad)
	}
}

// =============================================================================
// COMMAND PARSING TESTS
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		want    Command
		rest    []string
		model   string
		verbose bool
		json    bool
	}{
		{name: "no args starts tui", argv: nil, want: CmdTUI},
		{name: "ask with words", argv: []string{"ask", "what", "is", "go"}, want: CmdAsk, rest: []string{"what", "is", "go"}},
		{name: "global flags anywhere", argv: []string{"-v", "ask", "--model", "gemini-2.5-pro", "hi", "--json"}, want: CmdAsk, rest: []string{"hi"}, model: "gemini-2.5-pro", verbose: true, json: true},
		{name: "model with equals", argv: []string{"chat", "--model=gemini-2.5-flash-lite"}, want: CmdChat, model: "gemini-2.5-flash-lite"},
		{name: "alias", argv: []string{"ls"}, want: CmdList},
		{name: "case insensitive", argv: []string{"SERVE", "--addr", ":9000"}, want: CmdServe, rest: []string{"--addr", ":9000"}},
		{name: "help flag wins", argv: []string{"export", "--help"}, want: CmdHelp, rest: []string{"export"}},
		{name: "version flag", argv: []string{"--version"}, want: CmdVersion},
		{name: "unknown", argv: []string{"frobnicate"}, want: CmdUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := Parse(tt.argv)
			assert.Equal(t, tt.want, args.Command)
			if tt.rest == nil {
				assert.Empty(t, args.Rest)
			} else {
				assert.Equal(t, tt.rest, args.Rest)
			}
			assert.Equal(t, tt.model, args.Model)
			assert.Equal(t, tt.verbose, args.Verbose)
			assert.Equal(t, tt.json, args.JSON)
		})
	}
}

func TestCommandString(t *testing.T) {
	for name, cmd := range commandNames {
		if name == "ls" {
			continue
		}
		assert.Equal(t, name, cmd.String())
	}
	assert.Equal(t, "unknown", CmdUnknown.String())
}

func TestRun_UnknownCommandIsUsageError(t *testing.T) {
	err := Run(context.Background(), Parse([]string{"frobnicate"}))
	require.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, err.Error(), "frobnicate")
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintVersion(&buf, true)

	var got map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, Version, got["version"])

	buf.Reset()
	PrintVersion(&buf, false)
	assert.Contains(t, buf.String(), "geminichat "+Version)
}

func TestPrintUsage_MentionsEveryCommand(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)
	for name := range commandNames {
		if name == "ls" {
			continue
		}
		assert.Contains(t, buf.String(), name)
	}
}

// =============================================================================
// EXIT CODE TESTS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{errors.New("boom"), ExitGeneralError},
		{usageErr("bad"), ExitUsageError},
		{fmt.Errorf("x: %w", export.ErrUnknownFormat), ExitUsageError},
		{&attach.UnsupportedTypeError{Name: "a.zip", MIME: "application/zip"}, ExitUsageError},
		{fmt.Errorf("invalid config: %w", config.ValidateErrors{{Field: "gemini.backend", Message: "bad"}}), ExitConfigError},
		{fmt.Errorf("%w: %q", storage.ErrUnknownBackend, "redis"), ExitConfigError},
		{session.ErrMissingAPIKey, ExitAuthError},
		{&gemini.APIError{StatusCode: 403, Message: "denied"}, ExitAuthError},
		{&gemini.APIError{StatusCode: 503}, ExitNetworkError},
		{fmt.Errorf("%w: %q", session.ErrConversationNotFound, "x"), ExitNotFoundError},
		{context.DeadlineExceeded, ExitTimeoutError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GetExitCode(tt.err), "%v", tt.err)
	}
}

func TestDisplayError(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, usageErr("search needs a query"), false)
	assert.Contains(t, buf.String(), "search needs a query")
	assert.Contains(t, buf.String(), "geminichat help")

	buf.Reset()
	DisplayError(&buf, session.ErrMissingAPIKey, true)
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, float64(ExitAuthError), got["exit_code"])

	buf.Reset()
	DisplayError(&buf, nil, false)
	assert.Empty(t, buf.String())
}

// =============================================================================
// COMMAND HANDLER TESTS
// =============================================================================

// newTestApp builds an App on an in-memory store with a canned generator.
func newTestApp(t *testing.T, gen session.Generator) *App {
	t.Helper()
	kv := storage.NewMemory()
	store, err := session.New(kv, session.WithAPIKey("AIzaTest"))
	require.NoError(t, err)

	app := &App{
		Config:  config.Default(),
		Dir:     t.TempDir(),
		Log:     logging.Nop(),
		KV:      kv,
		Store:   store,
		Chat:    session.NewChat(store, gen),
		Metrics: telemetry.New(),
	}
	t.Cleanup(app.Close)
	return app
}

func echoGenerator() session.Generator {
	return session.GeneratorFunc(func(_ context.Context, _ string, history []*model.Message) (string, error) {
		return "echo: " + history[len(history)-1].Content, nil
	})
}

func noStdin(t *testing.T) {
	t.Helper()
	orig := pipedInput
	pipedInput = func() (string, error) { return "", nil }
	t.Cleanup(func() { pipedInput = orig })
}

func seedConversations(t *testing.T, app *App, titles ...string) []*model.Conversation {
	t.Helper()
	for _, title := range titles {
		app.Store.CreateConversation()
		_, err := app.Store.AddMessage(model.RoleUser, title, nil)
		require.NoError(t, err)
	}
	return app.Store.Conversations()
}

func TestHandleAsk_RawReply(t *testing.T) {
	noStdin(t)
	app := newTestApp(t, echoGenerator())

	var buf bytes.Buffer
	err := HandleAsk(context.Background(), app, Args{Rest: []string{"what", "is", "go", "--raw"}}, &buf)
	require.NoError(t, err)
	assert.Equal(t, "echo: what is go\n", buf.String())

	msgs := app.Store.Active().Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "what is go", msgs[0].Content)
}

func TestHandleAsk_PipedInputAndNewConversation(t *testing.T) {
	orig := pipedInput
	pipedInput = func() (string, error) { return "diff --git a b", nil }
	t.Cleanup(func() { pipedInput = orig })

	app := newTestApp(t, echoGenerator())
	before := app.Store.ActiveID()

	var buf bytes.Buffer
	err := HandleAsk(context.Background(), app, Args{Rest: []string{"--new", "review", "this"}}, &buf)
	require.NoError(t, err)
	assert.NotEqual(t, before, app.Store.ActiveID())
	assert.Contains(t, buf.String(), "review this")
	assert.Equal(t, "review this\n\ndiff --git a b", app.Store.Active().Messages[0].Content)
}

func TestHandleAsk_Attachment(t *testing.T) {
	noStdin(t)
	var got []model.Attachment
	gen := session.GeneratorFunc(func(_ context.Context, _ string, history []*model.Message) (string, error) {
		got = history[0].Attachments
		return "a picture", nil
	})
	app := newTestApp(t, gen)

	path := filepath.Join(t.TempDir(), "pixel.png")
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	require.NoError(t, os.WriteFile(path, png, 0600))

	var buf bytes.Buffer
	err := HandleAsk(context.Background(), app, Args{Rest: []string{"describe", "--attach", path, "--raw"}}, &buf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.KindImage, got[0].Kind)
	assert.Equal(t, "pixel.png", got[0].Name)
	assert.Empty(t, app.Store.PendingAttachments())
}

func TestHandleAsk_Errors(t *testing.T) {
	noStdin(t)
	app := newTestApp(t, echoGenerator())

	err := HandleAsk(context.Background(), app, Args{}, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrUsage)

	bad := filepath.Join(t.TempDir(), "notes.zip")
	require.NoError(t, os.WriteFile(bad, []byte("PK\x03\x04 not an image"), 0600))
	err = HandleAsk(context.Background(), app, Args{Rest: []string{"hi", "--attach", bad}}, &bytes.Buffer{})
	assert.ErrorIs(t, err, attach.ErrUnsupportedType)
	assert.Empty(t, app.Store.PendingAttachments())
	assert.Empty(t, app.Store.Active().Messages)

	failing := newTestApp(t, session.GeneratorFunc(func(context.Context, string, []*model.Message) (string, error) {
		return "", errors.New("quota exceeded")
	}))
	var buf bytes.Buffer
	err = HandleAsk(context.Background(), failing, Args{Rest: []string{"hi", "--raw"}}, &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Contains(t, buf.String(), "Error: quota exceeded")
}

func TestHandleAsk_MissingKey(t *testing.T) {
	noStdin(t)
	kv := storage.NewMemory()
	store, err := session.New(kv)
	require.NoError(t, err)
	app := &App{Store: store, Chat: session.NewChat(store, echoGenerator()), Log: logging.Nop()}

	err = HandleAsk(context.Background(), app, Args{Rest: []string{"hi"}}, &bytes.Buffer{})
	assert.ErrorIs(t, err, session.ErrMissingAPIKey)
	assert.Contains(t, err.Error(), "config set-key")
}

func TestHandleAsk_JSON(t *testing.T) {
	noStdin(t)
	app := newTestApp(t, echoGenerator())

	var buf bytes.Buffer
	require.NoError(t, HandleAsk(context.Background(), app, Args{JSON: true, Rest: []string{"ping"}}, &buf))

	var got struct {
		ConversationID string         `json:"conversation_id"`
		Model          string         `json:"model"`
		Message        map[string]any `json:"message"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, app.Store.ActiveID(), got.ConversationID)
	assert.Equal(t, model.DefaultModel, got.Model)
	assert.Equal(t, "echo: ping", got.Message["content"])
}

func TestHandleList(t *testing.T) {
	app := newTestApp(t, echoGenerator())
	seedConversations(t, app, "Explain channels", "Write a haiku")

	var buf bytes.Buffer
	require.NoError(t, HandleList(app, Args{}, &buf))
	out := buf.String()
	assert.Contains(t, out, "Explain channels")
	assert.Contains(t, out, "* ")
	assert.Less(t, strings.Index(out, "Write a haiku"), strings.Index(out, "Explain channels"), "newest first")

	buf.Reset()
	require.NoError(t, HandleList(app, Args{JSON: true}, &buf))
	var rows []conversationJSON
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 3)
	assert.True(t, rows[0].Active)
	assert.Equal(t, 1, rows[0].Messages)
}

func TestHandleSearch(t *testing.T) {
	app := newTestApp(t, echoGenerator())
	seedConversations(t, app, "Explain channels", "Write a haiku")

	var buf bytes.Buffer
	require.NoError(t, HandleSearch(app, Args{Rest: []string{"HAIKU"}}, &buf))
	assert.Contains(t, buf.String(), "Write a haiku")
	assert.NotContains(t, buf.String(), "Explain channels")

	buf.Reset()
	require.NoError(t, HandleSearch(app, Args{Rest: []string{"kubernetes"}}, &buf))
	assert.Contains(t, buf.String(), "No conversations match")

	assert.ErrorIs(t, HandleSearch(app, Args{}, &buf), ErrUsage)
}

func TestResolveConversation(t *testing.T) {
	app := newTestApp(t, echoGenerator())
	convs := seedConversations(t, app, "first", "second")

	c, err := app.resolveConversation("2")
	require.NoError(t, err)
	assert.Equal(t, convs[1].ID, c.ID)

	c, err = app.resolveConversation(convs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, convs[0].ID, c.ID)

	c, err = app.resolveConversation(shortID(convs[2].ID))
	require.NoError(t, err)
	assert.Equal(t, convs[2].ID, c.ID)

	_, err = app.resolveConversation("nope")
	assert.ErrorIs(t, err, session.ErrConversationNotFound)
	_, err = app.resolveConversation("")
	assert.ErrorIs(t, err, ErrUsage)
}

func TestHandleExport(t *testing.T) {
	app := newTestApp(t, echoGenerator())
	seedConversations(t, app, "Export me")
	dir := t.TempDir()

	var buf bytes.Buffer
	require.NoError(t, HandleExport(app, Args{JSON: true, Rest: []string{"1", "--format", "json", "--out", dir}}, &buf))

	var got map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "json", got["format"])
	assert.Equal(t, dir, filepath.Dir(got["path"]))

	data, err := os.ReadFile(got["path"])
	require.NoError(t, err)
	assert.Contains(t, string(data), "Export me")
}

func TestHandleExport_Stdout(t *testing.T) {
	app := newTestApp(t, echoGenerator())
	seedConversations(t, app, "Print me")

	var buf bytes.Buffer
	require.NoError(t, HandleExport(app, Args{Rest: []string{"--format", "md", "--out", "-"}}, &buf))
	assert.Contains(t, buf.String(), "Print me")

	err := HandleExport(app, Args{Rest: []string{"--format", "pdf", "--out", "-"}}, &buf)
	assert.ErrorIs(t, err, export.ErrUnknownFormat)
}

func TestHandlePrompts(t *testing.T) {
	app := newTestApp(t, echoGenerator())
	var buf bytes.Buffer

	require.NoError(t, HandlePrompts(app, Args{Rest: []string{"add", "Summarize", "in", "three", "bullets"}}, &buf))
	require.NoError(t, HandlePrompts(app, Args{Rest: []string{"add", "Translate to French"}}, &buf))

	buf.Reset()
	require.NoError(t, HandlePrompts(app, Args{}, &buf))
	out := buf.String()
	assert.Contains(t, out, "1  ")
	assert.Less(t, strings.Index(out, "Translate to French"), strings.Index(out, "Summarize in three bullets"))

	require.NoError(t, HandlePrompts(app, Args{Rest: []string{"delete", "1"}}, &buf))
	prompts := app.Store.SavedPrompts()
	require.Len(t, prompts, 1)
	assert.Equal(t, "Summarize in three bullets", prompts[0].Text)

	assert.ErrorIs(t, HandlePrompts(app, Args{Rest: []string{"delete", "9"}}, &buf), ErrUsage)
	assert.ErrorIs(t, HandlePrompts(app, Args{Rest: []string{"add"}}, &buf), ErrUsage)
	assert.ErrorIs(t, HandlePrompts(app, Args{Rest: []string{"rename"}}, &buf), ErrUsage)
}

// =============================================================================
// CHAT REPL TESTS
// =============================================================================

func newTestSession(t *testing.T) (*chatSession, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	app := newTestApp(t, echoGenerator())
	return &chatSession{app: app, out: &buf, ctx: context.Background()}, &buf
}

func TestChatCommand_ConversationFlow(t *testing.T) {
	s, buf := newTestSession(t)
	store := s.app.Store

	require.NoError(t, s.send("hello there"))
	assert.Contains(t, buf.String(), "echo: hello there")
	first := store.ActiveID()

	require.NoError(t, s.command("/new"))
	assert.NotEqual(t, first, store.ActiveID())

	require.NoError(t, s.command("/switch 2"))
	assert.Equal(t, first, store.ActiveID())

	require.NoError(t, s.command("/rename Greetings"))
	assert.Equal(t, "Greetings", store.Active().GetTitle())

	buf.Reset()
	require.NoError(t, s.command("/list"))
	assert.Contains(t, buf.String(), "Greetings")

	buf.Reset()
	require.NoError(t, s.command("/stats"))
	assert.Contains(t, buf.String(), "Messages")

	require.NoError(t, s.command("/delete"))
	assert.NotEqual(t, first, store.ActiveID())
	assert.Len(t, store.Conversations(), 1)
}

func TestChatCommand_Regenerate(t *testing.T) {
	s, _ := newTestSession(t)
	assert.Error(t, s.command("/regen"), "nothing to regenerate")

	require.NoError(t, s.send("question"))
	require.NoError(t, s.command("/regen"))
	msgs := s.app.Store.Active().Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
}

func TestChatCommand_PromptsAndModel(t *testing.T) {
	s, buf := newTestSession(t)
	store := s.app.Store

	require.NoError(t, s.send("reusable question"))
	require.NoError(t, s.command("/save"))
	require.Len(t, store.SavedPrompts(), 1)
	assert.Equal(t, "reusable question", store.SavedPrompts()[0].Text)

	buf.Reset()
	require.NoError(t, s.command("/prompts 1"))
	assert.Contains(t, buf.String(), "echo: reusable question")
	assert.Error(t, s.command("/prompts 5"))

	require.NoError(t, s.command("/model gemini-2.5-pro"))
	assert.Equal(t, "gemini-2.5-pro", store.Model())
	buf.Reset()
	require.NoError(t, s.command("/model"))
	assert.Contains(t, buf.String(), "gemini-2.5-pro")
}

func TestChatCommand_AttachAndExport(t *testing.T) {
	s, buf := newTestSession(t)

	path := filepath.Join(t.TempDir(), "dot.png")
	require.NoError(t, os.WriteFile(path, append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...), 0600))
	require.NoError(t, s.command("/attach "+path))
	assert.Len(t, s.app.Store.PendingAttachments(), 1)
	assert.Error(t, s.command("/attach"))

	require.NoError(t, s.send("what is this"))
	assert.Empty(t, s.app.Store.PendingAttachments())

	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	buf.Reset()
	require.NoError(t, s.command("/export txt"))
	assert.Contains(t, buf.String(), "Exported to ")
	matches, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	assert.ErrorIs(t, s.command("/export docx"), export.ErrUnknownFormat)
}

func TestChatCommand_QuitAndUnknown(t *testing.T) {
	s, buf := newTestSession(t)
	assert.ErrorIs(t, s.command("/quit"), errQuit)
	assert.ErrorIs(t, s.command("/exit"), errQuit)

	err := s.command("/dance")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/help")

	buf.Reset()
	require.NoError(t, s.command("/help"))
	assert.Contains(t, buf.String(), "/regen")
}

func TestCompleteSlash(t *testing.T) {
	assert.Equal(t, []string{"/rename ", "/regen"}, completeSlash("/re"))
	assert.Nil(t, completeSlash("hello"))
	assert.Nil(t, completeSlash("/switch 2"))
}

func TestShortIDAndAge(t *testing.T) {
	assert.Equal(t, "a1b2c3d4e5", shortID("conv_1700000000000_a1b2c3d4e5"))
	assert.Equal(t, "plain", shortID("plain"))
	assert.Equal(t, "just now", formatAge(0))
	assert.Equal(t, "3d ago", formatAge(72*60*60*1e9))
}
