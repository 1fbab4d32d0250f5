// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"strings"

	"github.com/jeranaias/geminichat/internal/model"
)

// Wire roles used by the API.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// GenerateContentRequest is the body of a generateContent call.
type GenerateContentRequest struct {
	Contents []Content `json:"contents"`
}

// Content is one turn of the conversation.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is either text or inline binary data.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData carries base64 encoded bytes.
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// GenerateContentResponse is the subset of the response we read.
type GenerateContentResponse struct {
	Candidates    []Candidate    `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
}

// Candidate is one generated answer.
type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
}

// UsageMetadata reports token counts for a call.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// WireRole maps a message role to the API's role name.
func WireRole(r model.Role) string {
	if r == model.RoleAssistant {
		return RoleModel
	}
	return string(r)
}

// BuildRequest converts the full history into a request body.
//
// Document text is inlined into the user message that carries it, on every
// turn, so follow-ups and regenerations keep the document in context. Image
// attachments become inlineData parts. A message that yields no parts is
// left out, since the API rejects empty turns.
func BuildRequest(messages []*model.Message) *GenerateContentRequest {
	req := &GenerateContentRequest{Contents: make([]Content, 0, len(messages))}
	for _, m := range messages {
		text := m.Content
		if m.Role == model.RoleUser {
			text = WithDocuments(text, m.Documents())
		}
		parts := buildParts(text, m.Images())
		if len(parts) == 0 {
			continue
		}
		req.Contents = append(req.Contents, Content{
			Role:  WireRole(m.Role),
			Parts: parts,
		})
	}
	return req
}

// WithDocuments appends each document's extracted text to text.
func WithDocuments(text string, docs []model.Attachment) string {
	if len(docs) == 0 {
		return text
	}
	var b strings.Builder
	b.WriteString(text)
	for i, d := range docs {
		if i > 0 || text != "" {
			b.WriteString("\n\n")
		}
		b.WriteString("[PDF Content from ")
		b.WriteString(d.Name)
		b.WriteString("]:\n")
		b.WriteString(d.Data)
	}
	return b.String()
}

func buildParts(text string, images []model.Attachment) []Part {
	parts := make([]Part, 0, 1+len(images))
	if text != "" {
		parts = append(parts, Part{Text: text})
	}
	for _, img := range images {
		parts = append(parts, Part{InlineData: &InlineData{
			MimeType: img.MimeType,
			Data:     img.Base64Payload(),
		}})
	}
	return parts
}

// ExtractText returns the text of the first part of the first candidate,
// or model.NoResponse when any step of that path is missing or empty.
func ExtractText(resp *GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return model.NoResponse
	}
	c := resp.Candidates[0].Content
	if c == nil || len(c.Parts) == 0 || c.Parts[0].Text == "" {
		return model.NoResponse
	}
	return c.Parts[0].Text
}
