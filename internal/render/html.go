// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/geminichat/internal/markdown"
	"github.com/jeranaias/geminichat/internal/model"
	"github.com/jeranaias/geminichat/internal/telemetry"
)

// Message actions exposed as data-action values.
const (
	ActionCopy       = "copy"
	ActionDelete     = "delete"
	ActionRegenerate = "regenerate"
)

// Options controls HTML output.
type Options struct {
	// Markdown renders message bodies. Nil uses the package default.
	Markdown *markdown.Renderer

	// Actions adds the copy/delete/regenerate buttons.
	Actions bool

	// Loading appends the typing indicator.
	Loading bool

	// Timestamps adds a <time> element to each header.
	Timestamps bool

	Metrics *telemetry.Metrics
}

// HTML renders the message list of conv. An empty conversation renders
// the welcome block instead.
func HTML(conv *model.Conversation, opts Options) string {
	start := time.Now()
	defer func() { opts.Metrics.ObserveRender(time.Since(start)) }()

	if conv == nil || (len(conv.Messages) == 0 && !opts.Loading) {
		return Welcome()
	}

	var sb strings.Builder
	sb.WriteString(`<div class="messages" data-conversation-id="`)
	sb.WriteString(html.EscapeString(conv.ID))
	sb.WriteString("\">\n")
	for i, msg := range conv.Messages {
		writeMessage(&sb, i, msg, opts)
	}
	if opts.Loading {
		sb.WriteString(loadingBlock)
	}
	sb.WriteString("</div>\n")
	return sb.String()
}

func writeMessage(sb *strings.Builder, index int, msg *model.Message, opts Options) {
	id := html.EscapeString(msg.ID)
	role := string(msg.Role)
	if !msg.Role.Valid() {
		role = "unknown"
	}

	fmt.Fprintf(sb, `<article class="message %s" id="msg-%s" data-message-id="%s" data-index="%d">`+"\n",
		role, id, id, index)

	sb.WriteString(`  <div class="message-header"><span class="role-label">`)
	sb.WriteString(html.EscapeString(msg.Role.DisplayName()))
	sb.WriteString("</span>")
	if opts.Timestamps && !msg.Timestamp.IsZero() {
		fmt.Fprintf(sb, `<time datetime="%s">%s</time>`,
			msg.Timestamp.Format(time.RFC3339), msg.Timestamp.Format("15:04"))
	}
	sb.WriteString("</div>\n")

	if len(msg.Attachments) > 0 {
		sb.WriteString(`  <div class="message-attachments">`)
		for _, att := range msg.Attachments {
			writeAttachment(sb, att)
		}
		sb.WriteString("</div>\n")
	}

	sb.WriteString(`  <div class="message-content">`)
	if opts.Markdown != nil {
		sb.WriteString(opts.Markdown.ToHTML(msg.Content))
	} else {
		sb.WriteString(markdown.ToHTML(msg.Content))
	}
	sb.WriteString("</div>\n")

	if opts.Actions {
		sb.WriteString(`  <div class="message-actions">`)
		writeAction(sb, ActionCopy, "Copy")
		if msg.Role == model.RoleAssistant {
			writeAction(sb, ActionRegenerate, "Regenerate")
		}
		writeAction(sb, ActionDelete, "Delete")
		sb.WriteString("</div>\n")
	}

	sb.WriteString("</article>\n")
}

func writeAttachment(sb *strings.Builder, att model.Attachment) {
	name := html.EscapeString(att.Name)
	switch att.Kind {
	case model.KindImage:
		// Only image data URIs are allowed as a src.
		if !strings.HasPrefix(att.Data, "data:image/") {
			fmt.Fprintf(sb, `<span class="attachment attachment-image">%s</span>`, name)
			return
		}
		fmt.Fprintf(sb, `<img class="attachment attachment-image" src="%s" alt="%s" loading="lazy">`,
			html.EscapeString(att.Data), name)
	case model.KindDocumentText:
		fmt.Fprintf(sb, `<span class="attachment attachment-pdf"><span class="pdf-badge">PDF</span>%s</span>`, name)
	}
}

func writeAction(sb *strings.Builder, action, label string) {
	fmt.Fprintf(sb, `<button type="button" class="action" data-action="%s" title="%s">%s</button>`,
		action, label, label)
}

const loadingBlock = `<article class="message assistant loading" aria-busy="true">
  <div class="message-header"><span class="role-label">Gemini</span></div>
  <div class="loading-dots"><span class="dot"></span><span class="dot"></span><span class="dot"></span></div>
</article>
`

// Welcome returns the block shown for an empty conversation.
func Welcome() string {
	return `<section class="welcome">
  <h1>Hello there</h1>
  <p>How can I help you today?</p>
  <ul class="suggestions">
    <li><button type="button" data-action="suggest" data-prompt="Explain how transformers work in simple terms">Explain transformers</button></li>
    <li><button type="button" data-action="suggest" data-prompt="Write a Go function that reverses a linked list">Reverse a linked list</button></li>
    <li><button type="button" data-action="suggest" data-prompt="Summarize the attached document">Summarize a PDF</button></li>
  </ul>
</section>
`
}
