// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/geminichat/internal/model"
	"github.com/jeranaias/geminichat/internal/telemetry"
)

func sampleConversation() *model.Conversation {
	conv := model.NewConversation(model.DefaultModel)
	conv.Append(model.NewMessage(model.RoleUser, "What is in **this** picture?", []model.Attachment{
		{Kind: model.KindImage, Name: "cat.png", Data: "data:image/png;base64,AAAA", MimeType: "image/png"},
		{Kind: model.KindDocumentText, Name: "notes.pdf", Data: "text", MimeType: "application/pdf"},
	}))
	conv.Append(model.NewMessage(model.RoleAssistant, "A cat.", nil))
	return conv
}

func TestHTML_EmptyConversationShowsWelcome(t *testing.T) {
	out := HTML(model.NewConversation(model.DefaultModel), Options{})
	assert.Equal(t, Welcome(), out)
	assert.Equal(t, Welcome(), HTML(nil, Options{}))
}

func TestHTML_MessageAttributes(t *testing.T) {
	conv := sampleConversation()
	out := HTML(conv, Options{Actions: true})

	user, assistant := conv.Messages[0], conv.Messages[1]
	assert.Contains(t, out, `id="msg-`+user.ID+`"`)
	assert.Contains(t, out, `data-message-id="`+user.ID+`" data-index="0"`)
	assert.Contains(t, out, `data-message-id="`+assistant.ID+`" data-index="1"`)
	assert.Contains(t, out, `<span class="role-label">You</span>`)
	assert.Contains(t, out, `<span class="role-label">Gemini</span>`)
	assert.Contains(t, out, "<strong>this</strong>")
	assert.Contains(t, out, `src="data:image/png;base64,AAAA"`)
	assert.Contains(t, out, `<span class="pdf-badge">PDF</span>notes.pdf`)
	assert.NotContains(t, out, "onclick")
}

func TestHTML_RegenerateOnlyOnAssistant(t *testing.T) {
	out := HTML(sampleConversation(), Options{Actions: true})

	articles := strings.Split(out, "<article")
	require.Len(t, articles, 3)
	assert.NotContains(t, articles[1], `data-action="regenerate"`)
	assert.Contains(t, articles[1], `data-action="copy"`)
	assert.Contains(t, articles[1], `data-action="delete"`)
	assert.Contains(t, articles[2], `data-action="regenerate"`)
}

func TestHTML_NoActionsByDefault(t *testing.T) {
	out := HTML(sampleConversation(), Options{})
	assert.NotContains(t, out, "data-action=")
}

func TestHTML_EscapesAttachmentNamesAndRejectsNonImageSources(t *testing.T) {
	conv := model.NewConversation(model.DefaultModel)
	conv.Append(model.NewMessage(model.RoleUser, "x", []model.Attachment{
		{Kind: model.KindImage, Name: `"><script>alert(1)</script>`, Data: "javascript:alert(1)"},
	}))

	out := HTML(conv, Options{})
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestHTML_LoadingIndicator(t *testing.T) {
	conv := model.NewConversation(model.DefaultModel)
	conv.Append(model.NewMessage(model.RoleUser, "hi", nil))

	assert.NotContains(t, HTML(conv, Options{}), "loading-dots")
	assert.Contains(t, HTML(conv, Options{Loading: true}), "loading-dots")
}

func TestHTML_ObservesRenderDuration(t *testing.T) {
	m := telemetry.New()
	HTML(sampleConversation(), Options{Metrics: m})
	HTML(nil, Options{Metrics: m})

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var count uint64
	for _, mf := range families {
		if mf.GetName() == "geminichat_render_duration_seconds" {
			count = mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(2), count)
}

func TestThemeClass(t *testing.T) {
	assert.Equal(t, "light-theme", ThemeClass("light"))
	assert.Equal(t, "dark-theme", ThemeClass("dark"))
	assert.Equal(t, "dark-theme", ThemeClass(""))
}

func TestTerminal_Plain(t *testing.T) {
	out := Terminal(sampleConversation(), 60, ThemePlain)
	assert.Contains(t, out, "You")
	assert.Contains(t, out, "Gemini")
	assert.Contains(t, out, "cat.png")
	assert.Contains(t, out, "A cat.")
}

func TestTerminal_Empty(t *testing.T) {
	out := Terminal(model.NewConversation(model.DefaultModel), 60, ThemePlain)
	assert.Contains(t, out, "Start a conversation")
}

func TestMarkdown_CachesRenderers(t *testing.T) {
	Markdown("one", 42, ThemePlain)
	Markdown("two", 42, ThemePlain)

	renderersMu.Lock()
	defer renderersMu.Unlock()
	_, ok := renderers[rendererKey{42, ThemePlain}]
	assert.True(t, ok)
}
