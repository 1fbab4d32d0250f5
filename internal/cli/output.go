// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jeranaias/geminichat/internal/model"
	"github.com/jeranaias/geminichat/internal/util"
)

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// conversationJSON is the --json form of a conversation listing row.
type conversationJSON struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Model     string    `json:"model,omitempty"`
	Messages  int       `json:"messages"`
	Tokens    int       `json:"tokens"`
	UpdatedAt time.Time `json:"updated_at"`
	Active    bool      `json:"active"`
}

func toConversationJSON(c *model.Conversation, activeID string) conversationJSON {
	stats := c.Stats()
	return conversationJSON{
		ID:        c.ID,
		Title:     c.GetTitle(),
		Model:     c.Model,
		Messages:  stats.Messages,
		Tokens:    stats.Tokens,
		UpdatedAt: c.UpdatedAt,
		Active:    c.ID == activeID,
	}
}

// printConversations writes one line per conversation, marking the active one.
func printConversations(w io.Writer, convs []*model.Conversation, activeID string, asJSON bool) error {
	if asJSON {
		rows := make([]conversationJSON, 0, len(convs))
		for _, c := range convs {
			rows = append(rows, toConversationJSON(c, activeID))
		}
		return writeJSON(w, rows)
	}

	if len(convs) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No conversations."))
		return nil
	}
	titleWidth := GetTerminalWidth() - 40
	if titleWidth < 20 {
		titleWidth = 20
	}
	for i, c := range convs {
		marker, style := "  ", ValueStyle
		if c.ID == activeID {
			marker, style = "* ", ActiveStyle
		}
		fmt.Fprintf(w, "%s%3d  %s  %s  %s\n",
			marker,
			i+1,
			DimStyle.Render(shortID(c.ID)),
			style.Render(util.TruncateWidth(c.GetTitle(), titleWidth)),
			DimStyle.Render(formatAge(time.Since(c.UpdatedAt))+" · "+fmt.Sprintf("%d msgs", len(c.Messages))),
		)
	}
	return nil
}

// shortID is the random tail of a conversation ID. IDs share a timestamp
// prefix, so the tail is what tells them apart in listings.
func shortID(id string) string {
	if i := strings.LastIndexByte(id, '_'); i >= 0 && i < len(id)-1 {
		return id[i+1:]
	}
	return id
}

// formatAge formats how long ago something happened.
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func printStats(w io.Writer, s model.Stats) {
	fmt.Fprintf(w, "%s%d\n", RenderLabel("Messages"), s.Messages)
	fmt.Fprintf(w, "%s%d\n", RenderLabel("Words"), s.Words)
	fmt.Fprintf(w, "%s~%d (%s)\n", RenderLabel("Tokens"), s.Tokens, model.LevelFor(s.Tokens))
}
