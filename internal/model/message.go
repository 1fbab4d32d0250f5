// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role identifies who wrote a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Assistant text used when no model output is available.
const (
	NoResponse  = "No response"
	ErrorPrefix = "Error: "
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns the label shown next to a message.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Gemini"
	default:
		return string(r)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// =============================================================================
// ATTACHMENT TYPE
// =============================================================================

// AttachmentKind distinguishes inline images from extracted document text.
type AttachmentKind string

const (
	KindImage        AttachmentKind = "image"
	KindDocumentText AttachmentKind = "document-text"
)

// Attachment is a file carried alongside a message.
//
// For images Data is a data URI ("data:image/png;base64,...").
// For documents Data is the extracted plain text.
type Attachment struct {
	Kind     AttachmentKind `json:"kind"`
	Name     string         `json:"name"`
	Data     string         `json:"data"`
	MimeType string         `json:"mime_type"`
}

// Base64Payload returns the encoded bytes of an image data URI, i.e.
// everything after the first comma. Non-URI data is returned unchanged.
func (a Attachment) Base64Payload() string {
	if i := strings.IndexByte(a.Data, ','); i >= 0 {
		return a.Data[i+1:]
	}
	return a.Data
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single turn in a conversation. Messages are never edited
// after they are appended; they can only be removed.
type Message struct {
	ID          string       `json:"id"`
	Role        Role         `json:"role"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}

// NewMessage creates a message stamped with the current time and a fresh ID.
func NewMessage(role Role, content string, attachments []Attachment) *Message {
	var atts []Attachment
	if len(attachments) > 0 {
		atts = make([]Attachment, len(attachments))
		copy(atts, attachments)
	}
	return &Message{
		ID:          uuid.NewString(),
		Role:        role,
		Content:     content,
		Attachments: atts,
		Timestamp:   time.Now(),
	}
}

// Images returns the image attachments in order.
func (m *Message) Images() []Attachment {
	return m.attachmentsOf(KindImage)
}

// Documents returns the document-text attachments in order.
func (m *Message) Documents() []Attachment {
	return m.attachmentsOf(KindDocumentText)
}

func (m *Message) attachmentsOf(kind AttachmentKind) []Attachment {
	var out []Attachment
	for _, a := range m.Attachments {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// EstimateTokens gives a rough token count for the message text.
func (m *Message) EstimateTokens() int {
	return EstimateTokens(m.Content)
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	clone := *m
	if m.Attachments != nil {
		clone.Attachments = make([]Attachment, len(m.Attachments))
		copy(clone.Attachments, m.Attachments)
	}
	return &clone
}
