// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/geminichat/internal/model"
	"github.com/jeranaias/geminichat/internal/render"
	"github.com/jeranaias/geminichat/internal/ui/styles"
	"github.com/jeranaias/geminichat/internal/util"
)

// minContentWidth keeps glamour from wrapping into a single column.
const minContentWidth = 20

// renderChat draws the whole screen.
func (m Model) renderChat() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.overlay != OverlayNone {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderOverlay())
	}

	body := m.viewport.View()
	if m.theme.ShowSidebar() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), body)
	}

	parts := []string{m.renderHeader(), body}
	if pending := m.renderPending(); pending != "" {
		parts = append(parts, pending)
	}
	parts = append(parts,
		m.theme.InputContainer.Width(m.width-2).Render(m.input.View()),
		m.renderStatusBar(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// =============================================================================
// HEADER AND SIDEBAR
// =============================================================================

func (m Model) renderHeader() string {
	brand := m.theme.HeaderBrand.Render("✦ Gemini")
	modelName := m.theme.HeaderModel.Render(m.store.Model())

	title := ""
	if conv := m.store.Active(); conv != nil {
		room := m.width - lipgloss.Width(brand) - lipgloss.Width(modelName) - 6
		title = m.theme.HeaderTitle.Render(util.TruncateWidth(conv.GetTitle(), room))
	}

	left := brand + "  " + title
	gap := m.width - 2 - lipgloss.Width(left) - lipgloss.Width(modelName)
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + modelName)
}

func (m Model) renderSidebar() string {
	var sb strings.Builder
	sb.WriteString(m.theme.SidebarHeading.Render("Conversations"))
	sb.WriteString("\n")

	active := m.store.ActiveID()
	textWidth := styles.SidebarWidth - 4
	for _, c := range m.store.Conversations() {
		title := util.TruncateWidth(c.GetTitle(), textWidth)
		if c.ID == active {
			sb.WriteString(m.theme.SessionItemSelected.Render("› " + title))
		} else {
			sb.WriteString(m.theme.SessionItem.Render("  " + title))
		}
		sb.WriteString("\n")
	}
	return m.theme.Sidebar.Height(m.viewport.Height).MaxHeight(m.viewport.Height).Render(sb.String())
}

// =============================================================================
// CONVERSATION
// =============================================================================

// refreshViewport re-renders the active conversation. It follows the
// bottom when the user was already there or the conversation changed.
func (m *Model) refreshViewport() {
	conv := m.store.Active()
	if conv == nil {
		return
	}
	width := max(m.viewport.Width-2, minContentWidth)

	var sb strings.Builder
	if conv.IsEmpty() && !m.waiting {
		sb.WriteString(m.renderWelcome(width))
	}
	for _, msg := range conv.Messages {
		sb.WriteString(m.renderMessage(msg, width))
	}
	if m.waiting && m.waitingFor == conv.ID {
		sb.WriteString("\n " + m.spinner.View() + " " + m.theme.SessionMeta.Render("Gemini is thinking...") + "\n")
	}

	follow := m.viewport.AtBottom() || m.shown != conv.ID
	m.viewport.SetContent(sb.String())
	if follow {
		m.viewport.GotoBottom()
	}
	m.shown = conv.ID
}

// renderMessage draws one message, caching the glamour output.
func (m *Model) renderMessage(msg *model.Message, width int) string {
	style := m.theme.GlamourStyle()
	cacheKey := msg.ID + ":" + strconv.Itoa(width) + ":" + style
	if out, ok := m.rendered[cacheKey]; ok {
		return out
	}

	var sb strings.Builder
	sb.WriteString(" ")
	if msg.Role == model.RoleUser {
		sb.WriteString(m.theme.UserLabel.Render(msg.Role.DisplayName()))
	} else {
		sb.WriteString(m.theme.AssistantLabel.Render(msg.Role.DisplayName()))
	}
	sb.WriteString("\n")

	for _, att := range msg.Attachments {
		label := "[image]"
		if att.Kind == model.KindDocumentText {
			label = "[pdf]"
		}
		sb.WriteString(" " + m.theme.Attachment.Render(label+" "+att.Name) + "\n")
	}

	switch {
	case strings.HasPrefix(msg.Content, model.ErrorPrefix):
		sb.WriteString(" " + m.theme.ErrorText.Width(width).Render(msg.Content) + "\n\n")
	case msg.Content != "":
		sb.WriteString(render.Markdown(msg.Content, width, style))
	default:
		sb.WriteString("\n")
	}

	out := sb.String()
	m.rendered[cacheKey] = out
	return out
}

func (m Model) renderWelcome(width int) string {
	var md strings.Builder
	md.WriteString("# Hello! How can I help you today?\n\n")
	md.WriteString("Type a message and press **Enter**. Attach an image or PDF with `/attach <path>`.\n\n")
	md.WriteString("Press **ctrl+/** for all shortcuts.\n")
	out := render.Markdown(md.String(), width, m.theme.GlamourStyle())
	if m.store.APIKey() == "" {
		out += " " + m.theme.Notice.Render(missingKeyNotice) + "\n"
	}
	return out
}

func (m Model) renderPending() string {
	pending := m.store.PendingAttachments()
	if len(pending) == 0 {
		return ""
	}
	names := make([]string, len(pending))
	for i, a := range pending {
		names[i] = a.Name
	}
	line := fmt.Sprintf(" Attached (%d): %s  (esc on empty input clears)", len(pending), strings.Join(names, ", "))
	return m.theme.Pending.Render(util.TruncateWidth(line, m.width))
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m Model) renderStatusBar() string {
	right := m.renderTokenCount()
	room := max(m.width-3-lipgloss.Width(right), 0)

	var left string
	switch {
	case m.status != "" && m.statusError:
		left = m.theme.ErrorText.Render(util.TruncateWidth(m.status, room))
	case m.status != "":
		left = m.theme.Notice.Render(util.TruncateWidth(m.status, room))
	case m.waiting:
		left = m.spinner.View() + " Waiting for Gemini"
	default:
		h := m.help
		h.Width = room
		left = h.ShortHelpView(m.keys.ShortHelp())
	}

	gap := max(m.width-2-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// renderTokenCount shows the input's estimated size, colored by level.
func (m Model) renderTokenCount() string {
	tokens := model.EstimateTokens(m.input.Value())
	text := fmt.Sprintf("~%d tokens", tokens)
	switch model.LevelFor(tokens) {
	case model.TokenDanger:
		return m.theme.CharCountDanger.Render(text)
	case model.TokenWarning:
		return m.theme.CharCountWarning.Render(text)
	default:
		return m.theme.CharCount.Render(text)
	}
}

// =============================================================================
// OVERLAYS
// =============================================================================

func (m Model) renderOverlay() string {
	var title, body string
	switch m.overlay {
	case OverlayHelp:
		title = "Keyboard shortcuts"
		h := m.help
		h.ShowAll = true
		body = h.View(m.keys) + "\n\n" + m.theme.SessionMeta.Render("Press any key to close")

	case OverlaySearch:
		title = "Search"
		body = m.search.View() + "\n\n" + m.renderResults()

	case OverlayPrompts:
		title = "Saved prompts"
		lines := make([]string, len(m.prompts))
		for i, p := range m.prompts {
			lines[i] = m.listItem(i, util.TruncateWidth(p.Text, 60))
		}
		body = strings.Join(lines, "\n") + "\n\n" +
			m.theme.SessionMeta.Render("enter insert · del remove · esc close")

	case OverlayConfirmDelete:
		title = "Delete conversation"
		name := ""
		if conv := m.store.Active(); conv != nil {
			name = conv.GetTitle()
		}
		body = fmt.Sprintf("Delete %q? This cannot be undone.\n\n", util.TruncateWidth(name, 50)) +
			m.theme.SessionMeta.Render("y/enter delete · any other key cancels")
	}
	return m.theme.OverlayBox.Render(m.theme.OverlayTitle.Render(title) + "\n" + body)
}

func (m Model) renderResults() string {
	if len(m.results) == 0 {
		return m.theme.SessionMeta.Render("No matches")
	}
	limit := min(len(m.results), 10)
	lines := make([]string, 0, limit)
	for i := 0; i < limit; i++ {
		c := m.results[i]
		item := util.TruncateWidth(c.GetTitle(), 40) + "  " +
			m.theme.SessionMeta.Render(fmt.Sprintf("%d messages", len(c.Messages)))
		lines = append(lines, m.listItem(i, item))
	}
	return strings.Join(lines, "\n")
}

func (m Model) listItem(i int, text string) string {
	if i == m.selected {
		return m.theme.SessionItemSelected.Render("› " + text)
	}
	return m.theme.SessionItem.Render("  " + text)
}
