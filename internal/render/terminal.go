// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/geminichat/internal/model"
)

// Terminal themes. ThemeAuto asks the terminal for its background.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
	ThemePlain = "plain"
)

// DefaultWidth is used when the caller passes a non-positive width.
const DefaultWidth = 80

type rendererKey struct {
	width int
	theme string
}

var (
	renderersMu sync.Mutex
	renderers   = make(map[rendererKey]*glamour.TermRenderer)
)

// termRenderer returns a cached renderer, or nil if glamour cannot build one.
func termRenderer(width int, theme string) *glamour.TermRenderer {
	if width <= 0 {
		width = DefaultWidth
	}
	key := rendererKey{width, theme}

	renderersMu.Lock()
	defer renderersMu.Unlock()
	if r, ok := renderers[key]; ok {
		return r
	}

	style := glamour.WithAutoStyle()
	switch theme {
	case ThemeDark, ThemeLight:
		style = glamour.WithStandardStyle(theme)
	case ThemePlain:
		style = glamour.WithStandardStyle("notty")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		r = nil
	}
	renderers[key] = r
	return r
}

// Markdown renders a single markdown body for the terminal. It returns the
// text unchanged if glamour fails.
func Markdown(content string, width int, theme string) string {
	r := termRenderer(width, theme)
	if r == nil {
		return content
	}
	renderersMu.Lock()
	out, err := r.Render(content)
	renderersMu.Unlock()
	if err != nil {
		return content
	}
	return out
}

// Terminal renders the whole conversation with a role heading per message.
func Terminal(conv *model.Conversation, width int, theme string) string {
	if conv == nil || len(conv.Messages) == 0 {
		return Markdown("*Start a conversation. Type a message and press Enter.*", width, theme)
	}

	var sb strings.Builder
	for _, msg := range conv.Messages {
		sb.WriteString(MessageTerminal(msg, width, theme))
	}
	return sb.String()
}

// MessageTerminal renders one message with its role heading and a line
// per attachment.
func MessageTerminal(msg *model.Message, width int, theme string) string {
	var md strings.Builder
	md.WriteString("### ")
	md.WriteString(msg.Role.DisplayName())
	md.WriteString("\n\n")
	for _, att := range msg.Attachments {
		switch att.Kind {
		case model.KindImage:
			md.WriteString("> image: " + att.Name + "\n\n")
		case model.KindDocumentText:
			md.WriteString("> PDF: " + att.Name + "\n\n")
		}
	}
	md.WriteString(msg.Content)
	md.WriteString("\n")
	return Markdown(md.String(), width, theme)
}
