// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"

	"github.com/jeranaias/geminichat/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter writes the stored form of the conversation with a two-space
// indent. The output can be loaded back as a model.Conversation.
type JSONExporter struct{}

// Export implements Exporter.
func (JSONExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, ErrNilConversation
	}
	return json.MarshalIndent(conv, "", "  ")
}

// FileExtension implements Exporter.
func (JSONExporter) FileExtension() string { return ".json" }

// MimeType implements Exporter.
func (JSONExporter) MimeType() string { return "application/json" }
