// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"strings"

	"github.com/jeranaias/geminichat/internal/model"
	"github.com/jeranaias/geminichat/internal/util"
)

const textSeparatorWidth = 50

// TextExporter writes a plain-text transcript: the title underlined with
// '=', then each message followed by a separator line.
type TextExporter struct{}

// Export implements Exporter.
func (TextExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, ErrNilConversation
	}

	title := conv.GetTitle()
	separator := strings.Repeat("=", textSeparatorWidth)

	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", util.RuneLen(title)))
	sb.WriteString("\n\n")
	for _, msg := range conv.Messages {
		sb.WriteString(roleLabel(msg.Role))
		sb.WriteString(":\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")
		sb.WriteString(separator)
		sb.WriteString("\n\n")
	}
	return []byte(sb.String()), nil
}

// FileExtension implements Exporter.
func (TextExporter) FileExtension() string { return ".txt" }

// MimeType implements Exporter.
func (TextExporter) MimeType() string { return "text/plain" }
