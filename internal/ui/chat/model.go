// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the Bubble Tea model behind the terminal UI.
package chat

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/jeranaias/geminichat/internal/model"
	"github.com/jeranaias/geminichat/internal/session"
	"github.com/jeranaias/geminichat/internal/ui/styles"
)

// =============================================================================
// OVERLAYS
// =============================================================================

// Overlay is the modal panel drawn over the chat, if any.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayHelp
	OverlaySearch
	OverlayPrompts
	OverlayConfirmDelete
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	store     *session.Store
	chat      *session.Chat
	theme     *styles.Theme
	keys      KeyMap
	log       zerolog.Logger
	exportDir string

	// Dimensions
	width  int
	height int

	// UI Components
	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	help     help.Model
	search   textinput.Model

	// Overlay state
	overlay  Overlay
	results  []*model.Conversation
	prompts  []session.SavedPrompt
	selected int

	// waiting is set from send until its ReplyMsg arrives; waitingFor
	// names the conversation the reply will land in.
	waiting    bool
	waitingFor string

	// shown is the conversation currently in the viewport.
	shown string

	// Status line
	status      string
	statusError bool
	statusSeq   int

	// rendered caches glamour output per message, width and style.
	// Messages are immutable, so entries never go stale.
	rendered map[string]string
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger. The TUI owns the terminal, so this should
// point at a file.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Model) {
		m.log = l.With().Str("component", "tui").Logger()
	}
}

// WithExportDir sets where ctrl+e writes Markdown exports.
func WithExportDir(dir string) Option {
	return func(m *Model) {
		m.exportDir = dir
	}
}

// New creates the chat model. The theme follows the store's setting.
func New(store *session.Store, c *session.Chat, opts ...Option) Model {
	ta := textarea.New()
	ta.Placeholder = "Message Gemini"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	si := textinput.New()
	si.Placeholder = "Search conversations"
	si.Prompt = "/ "

	m := Model{
		store:     store,
		chat:      c,
		theme:     styles.NewTheme(store.Theme()),
		keys:      DefaultKeyMap(),
		log:       zerolog.Nop(),
		exportDir: ".",
		viewport:  viewport.New(0, 0),
		input:     ta,
		spinner:   sp,
		help:      help.New(),
		search:    si,
		rendered:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.spinner.Style = m.theme.Spinner
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// View implements tea.Model.
func (m Model) View() string {
	return m.renderChat()
}

// Overlay returns the open overlay.
func (m Model) Overlay() Overlay {
	return m.overlay
}

// Status returns the status line text.
func (m Model) Status() string {
	return m.status
}

// Waiting reports whether a reply is outstanding.
func (m Model) Waiting() bool {
	return m.waiting
}

// Input returns the composer text.
func (m Model) Input() string {
	return m.input.Value()
}

// Theme returns the active theme.
func (m Model) Theme() *styles.Theme {
	return m.theme
}
