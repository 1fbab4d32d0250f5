// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/geminichat/internal/markdown"
	"github.com/jeranaias/geminichat/internal/model"
	"github.com/jeranaias/geminichat/internal/render"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter writes a self-contained page: message bodies go through the
// markdown transform and the highlighter CSS is embedded.
type HTMLExporter struct {
	theme       string
	highlighter *markdown.ChromaHighlighter
	renderer    *markdown.Renderer
}

// NewHTMLExporter creates an exporter for the "dark" or "light" theme.
func NewHTMLExporter(theme string) *HTMLExporter {
	if theme != "light" {
		theme = "dark"
	}
	h := markdown.NewChromaHighlighter(markdown.StyleForTheme(theme))
	return &HTMLExporter{theme: theme, highlighter: h, renderer: markdown.New(h)}
}

// Export implements Exporter.
func (e *HTMLExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, ErrNilConversation
	}

	css, err := e.highlighter.CSS()
	if err != nil {
		css = ""
	}
	title := html.EscapeString(conv.GetTitle())

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("<meta charset=\"UTF-8\">\n")
	sb.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", title)
	sb.WriteString("<meta name=\"generator\" content=\"geminichat\">\n")
	fmt.Fprintf(&sb, "<meta name=\"date\" content=\"%s\">\n", conv.CreatedAt.Format(time.RFC3339))
	sb.WriteString("<style>")
	sb.WriteString(render.Stylesheet)
	sb.WriteString(css)
	sb.WriteString("</style>\n</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s\">\n<div class=\"container\">\n", render.ThemeClass(e.theme))

	sb.WriteString("<header class=\"header\">\n")
	fmt.Fprintf(&sb, "<h1>%s</h1>\n", title)
	sb.WriteString("<div class=\"metadata\">")
	fmt.Fprintf(&sb, "<span><strong>Model:</strong> %s</span>", html.EscapeString(conv.Model))
	fmt.Fprintf(&sb, "<span><strong>Created:</strong> %s</span>", conv.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "<span><strong>Messages:</strong> %d</span>", len(conv.Messages))
	sb.WriteString("</div>\n</header>\n")

	sb.WriteString("<main class=\"conversation\">\n")
	sb.WriteString(render.HTML(conv, render.Options{Markdown: e.renderer, Timestamps: true}))
	sb.WriteString("</main>\n")

	fmt.Fprintf(&sb, "<footer class=\"footer\"><p>Exported from geminichat on %s</p></footer>\n",
		time.Now().Format("January 2, 2006 at 3:04 PM"))
	sb.WriteString("</div>\n</body>\n</html>\n")
	return []byte(sb.String()), nil
}

// FileExtension implements Exporter.
func (e *HTMLExporter) FileExtension() string { return ".html" }

// MimeType implements Exporter.
func (e *HTMLExporter) MimeType() string { return "text/html" }
