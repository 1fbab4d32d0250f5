// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/geminichat/internal/attach"
	"github.com/jeranaias/geminichat/internal/session"
	"github.com/jeranaias/geminichat/internal/ui/styles"
)

// attachPrefix turns the input into a file attachment instead of a message.
const attachPrefix = "/attach "

// reloadRetry is how long to wait before retrying a reload refused as busy.
const reloadRetry = time.Second

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ReplyMsg:
		return m.handleReply(msg)

	case ExportedMsg:
		if msg.Err != nil {
			cmd := m.setStatus("Export failed: "+msg.Err.Error(), true)
			return m, cmd
		}
		cmd := m.setStatus("Exported to "+msg.Path, false)
		return m, cmd

	case StoreChangedMsg:
		return m.handleStoreChanged()

	case statusTimeoutMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
			m.statusError = false
		}
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshViewport()
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)
	m.layout()
	m.refreshViewport()
	return m, nil
}

// layout sizes the viewport and input from the window size.
//
// Rows: header (1), viewport, pending attachments (0 or 1), input box
// (textarea height + 2 border rows), status bar (1).
func (m *Model) layout() {
	const (
		headerHeight = 1
		statusHeight = 1
		inputBorder  = 2
	)
	reserved := headerHeight + statusHeight + m.input.Height() + inputBorder
	if len(m.store.PendingAttachments()) > 0 {
		reserved++
	}

	vpWidth := m.width
	if m.theme.ShowSidebar() {
		vpWidth -= styles.SidebarWidth + 1
	}
	m.viewport.Width = max(vpWidth, 1)
	m.viewport.Height = max(m.height-reserved, 1)
	m.input.SetWidth(max(m.width-4, 10))
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	switch m.overlay {
	case OverlayHelp:
		m.overlay = OverlayNone
		return m, nil
	case OverlaySearch:
		return m.handleSearchKey(msg)
	case OverlayPrompts:
		return m.handlePromptsKey(msg)
	case OverlayConfirmDelete:
		return m.handleConfirmKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Send):
		return m.submit()

	case key.Matches(msg, m.keys.NewChat):
		m.store.CreateConversation()
		m.refreshViewport()
		cmd := m.setStatus("New conversation", false)
		return m, cmd

	case key.Matches(msg, m.keys.Next):
		return m.cycle(1)

	case key.Matches(msg, m.keys.Prev):
		return m.cycle(-1)

	case key.Matches(msg, m.keys.Delete):
		m.overlay = OverlayConfirmDelete
		return m, nil

	case key.Matches(msg, m.keys.Regenerate):
		return m.regenerate()

	case key.Matches(msg, m.keys.Export):
		conv := m.store.Active()
		if conv == nil || conv.IsEmpty() {
			cmd := m.setStatus("Nothing to export", true)
			return m, cmd
		}
		return m, exportCmd(conv, m.exportDir)

	case key.Matches(msg, m.keys.Search):
		m.overlay = OverlaySearch
		m.search.SetValue("")
		m.search.Focus()
		m.results = m.store.Search("")
		m.selected = 0
		return m, nil

	case key.Matches(msg, m.keys.SavePrompt):
		if err := m.store.SavePrompt(m.input.Value()); err != nil {
			if errors.Is(err, session.ErrEmptyMessage) {
				cmd := m.setStatus("Type a prompt to save", true)
				return m, cmd
			}
			cmd := m.setStatus("Save failed: "+err.Error(), true)
			return m, cmd
		}
		cmd := m.setStatus("Prompt saved", false)
		return m, cmd

	case key.Matches(msg, m.keys.Prompts):
		m.prompts = m.store.SavedPrompts()
		if len(m.prompts) == 0 {
			cmd := m.setStatus("No saved prompts yet (ctrl+s saves the input)", false)
			return m, cmd
		}
		m.overlay = OverlayPrompts
		m.selected = 0
		return m, nil

	case key.Matches(msg, m.keys.Theme):
		theme, err := m.store.ToggleTheme()
		m.applyTheme(theme)
		if err != nil {
			cmd := m.setStatus("Theme not saved: "+err.Error(), true)
			return m, cmd
		}
		cmd := m.setStatus("Theme: "+theme, false)
		return m, cmd

	case key.Matches(msg, m.keys.Help):
		m.overlay = OverlayHelp
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		if m.input.Value() == "" && len(m.store.PendingAttachments()) > 0 {
			m.store.ClearPendingAttachments()
			m.layout()
			cmd := m.setStatus("Attachments cleared", false)
			return m, cmd
		}
		m.input.Reset()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.overlay = OverlayNone
		m.search.Blur()
		return m, nil
	case "enter":
		m.overlay = OverlayNone
		m.search.Blur()
		if m.selected >= len(m.results) {
			return m, nil
		}
		if err := m.store.SwitchActive(m.results[m.selected].ID); err != nil {
			cmd := m.setStatus(switchError(err), true)
			return m, cmd
		}
		m.refreshViewport()
		return m, nil
	case "up", "ctrl+p":
		m.selected = max(m.selected-1, 0)
		return m, nil
	case "down", "ctrl+n":
		m.selected = min(m.selected+1, max(len(m.results)-1, 0))
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.results = m.store.Search(m.search.Value())
	m.selected = 0
	return m, cmd
}

func (m Model) handlePromptsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.overlay = OverlayNone
	case "up", "ctrl+p":
		m.selected = max(m.selected-1, 0)
	case "down", "ctrl+n":
		m.selected = min(m.selected+1, max(len(m.prompts)-1, 0))
	case "enter":
		m.overlay = OverlayNone
		if m.selected < len(m.prompts) {
			m.input.SetValue(m.prompts[m.selected].Text)
		}
	case "delete", "ctrl+d":
		if err := m.store.DeletePrompt(m.selected); err != nil {
			cmd := m.setStatus(err.Error(), true)
			return m, cmd
		}
		m.prompts = m.store.SavedPrompts()
		if len(m.prompts) == 0 {
			m.overlay = OverlayNone
		}
		m.selected = min(m.selected, max(len(m.prompts)-1, 0))
	}
	return m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.overlay = OverlayNone
	switch msg.String() {
	case "y", "Y", "enter":
		if err := m.store.DeleteConversation(m.store.ActiveID()); err != nil {
			if errors.Is(err, session.ErrBusy) {
				cmd := m.setStatus("Wait for the reply before deleting this conversation", true)
				return m, cmd
			}
			cmd := m.setStatus("Delete failed: "+err.Error(), true)
			return m, cmd
		}
		m.refreshViewport()
		cmd := m.setStatus("Conversation deleted", false)
		return m, cmd
	}
	return m, nil
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.waiting {
		cmd := m.setStatus("Waiting for the current reply", true)
		return m, cmd
	}

	text := strings.TrimSpace(m.input.Value())
	if strings.HasPrefix(text, attachPrefix) {
		return m.attachFile(strings.TrimSpace(strings.TrimPrefix(text, attachPrefix)))
	}
	if m.store.APIKey() == "" {
		cmd := m.setStatus(missingKeyNotice, true)
		return m, cmd
	}
	if text == "" && len(m.store.PendingAttachments()) == 0 {
		return m, nil
	}

	m.input.Reset()
	m.waiting = true
	m.waitingFor = m.store.ActiveID()
	return m, tea.Batch(sendCmd(m.chat, m.waitingFor, text), m.spinner.Tick)
}

const missingKeyNotice = "No Gemini API key. Run `geminichat config set-key` or set GEMINI_API_KEY."

func (m Model) attachFile(path string) (tea.Model, tea.Cmd) {
	if path == "" {
		cmd := m.setStatus("Usage: /attach <path>", true)
		return m, cmd
	}
	att, err := attach.Load(path)
	if err != nil {
		cmd := m.setStatus(err.Error(), true)
		return m, cmd
	}
	m.store.AddPendingAttachment(att)
	m.input.Reset()
	m.layout()
	cmd := m.setStatus("Attached "+att.Name, false)
	return m, cmd
}

func (m Model) regenerate() (tea.Model, tea.Cmd) {
	if m.waiting {
		cmd := m.setStatus("Waiting for the current reply", true)
		return m, cmd
	}
	if m.store.APIKey() == "" {
		cmd := m.setStatus(missingKeyNotice, true)
		return m, cmd
	}
	conv := m.store.Active()
	idx := conv.LastAssistantIndex()
	if idx < 0 {
		cmd := m.setStatus("Nothing to regenerate", true)
		return m, cmd
	}

	m.waiting = true
	m.waitingFor = conv.ID
	return m, tea.Batch(regenerateCmd(m.chat, conv.ID, idx), m.spinner.Tick)
}

// cycle moves the active conversation by delta, wrapping around.
func (m Model) cycle(delta int) (tea.Model, tea.Cmd) {
	convs := m.store.Conversations()
	if len(convs) < 2 {
		return m, nil
	}
	cur := 0
	active := m.store.ActiveID()
	for i, c := range convs {
		if c.ID == active {
			cur = i
			break
		}
	}
	next := (cur + delta + len(convs)) % len(convs)
	if err := m.store.SwitchActive(convs[next].ID); err != nil {
		cmd := m.setStatus(switchError(err), true)
		return m, cmd
	}
	m.refreshViewport()
	return m, nil
}

func switchError(err error) string {
	if errors.Is(err, session.ErrBusy) {
		return "Wait for the reply before switching conversations"
	}
	return err.Error()
}

func (m *Model) applyTheme(name string) {
	m.theme = styles.NewTheme(name)
	m.theme.SetSize(m.width, m.height)
	m.spinner.Style = m.theme.Spinner
	m.refreshViewport()
}

// =============================================================================
// RESULTS
// =============================================================================

func (m Model) handleReply(msg ReplyMsg) (tea.Model, tea.Cmd) {
	m.waiting = false
	m.waitingFor = ""
	m.layout()

	if msg.Err != nil {
		if msg.Text != "" && m.input.Value() == "" {
			m.input.SetValue(msg.Text)
		}
		m.refreshViewport()
		if errors.Is(msg.Err, session.ErrMissingAPIKey) {
			cmd := m.setStatus(missingKeyNotice, true)
			return m, cmd
		}
		cmd := m.setStatus(msg.Err.Error(), true)
		return m, cmd
	}

	m.refreshViewport()
	m.viewport.GotoBottom()
	if msg.ConversationID != m.store.ActiveID() {
		title := msg.ConversationID
		if conv, err := m.store.Conversation(msg.ConversationID); err == nil {
			title = conv.GetTitle()
		}
		cmd := m.setStatus(fmt.Sprintf("Reply added to %q", title), false)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleStoreChanged() (tea.Model, tea.Cmd) {
	if err := m.store.Reload(); err != nil {
		if errors.Is(err, session.ErrBusy) {
			return m, tea.Tick(reloadRetry, func(time.Time) tea.Msg { return StoreChangedMsg{} })
		}
		m.log.Warn().Err(err).Msg("reload failed")
		cmd := m.setStatus("Reload failed: "+err.Error(), true)
		return m, cmd
	}
	if theme := m.store.Theme(); theme != m.theme.Name {
		m.applyTheme(theme)
	}
	m.layout()
	m.refreshViewport()
	cmd := m.setStatus("Reloaded changes from another window", false)
	return m, cmd
}

// setStatus shows text in the status bar until statusTTL passes.
func (m *Model) setStatus(text string, isError bool) tea.Cmd {
	m.statusSeq++
	m.status = text
	m.statusError = isError
	if isError {
		m.log.Debug().Str("status", text).Msg("status error")
	}
	return statusTimeout(m.statusSeq)
}
