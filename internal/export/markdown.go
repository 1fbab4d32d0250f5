// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"strings"

	"github.com/jeranaias/geminichat/internal/model"
)

// MarkdownExporter writes "# title" followed by a "## You" or "## Gemini"
// section per message.
type MarkdownExporter struct{}

// Export implements Exporter.
func (MarkdownExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, ErrNilConversation
	}

	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(conv.GetTitle())
	sb.WriteString("\n\n")
	for _, msg := range conv.Messages {
		sb.WriteString("## ")
		sb.WriteString(roleLabel(msg.Role))
		sb.WriteString("\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")
	}
	return []byte(sb.String()), nil
}

// FileExtension implements Exporter.
func (MarkdownExporter) FileExtension() string { return ".md" }

// MimeType implements Exporter.
func (MarkdownExporter) MimeType() string { return "text/markdown" }
