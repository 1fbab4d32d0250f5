// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/geminichat/internal/model"
)

func testConversation() *model.Conversation {
	conv := model.NewConversation(model.DefaultModel)
	conv.Append(model.NewMessage(model.RoleUser, "Hi there", nil))
	conv.Append(model.NewMessage(model.RoleAssistant, "Hello! Here is code:\n```go\nfmt.Println(1)\n```", nil))
	return conv
}

func TestMarkdownExporter_Golden(t *testing.T) {
	out, err := MarkdownExporter{}.Export(testConversation())
	require.NoError(t, err)

	want := "# Hi there\n\n" +
		"## You\n\nHi there\n\n" +
		"## Gemini\n\nHello! Here is code:\n```go\nfmt.Println(1)\n```\n\n"
	assert.Equal(t, want, string(out))
}

func TestTextExporter_Golden(t *testing.T) {
	conv := model.NewConversation(model.DefaultModel)
	conv.Rename("Café")
	conv.Append(model.NewMessage(model.RoleUser, "q", nil))
	conv.Append(model.NewMessage(model.RoleAssistant, "a", nil))

	out, err := TextExporter{}.Export(conv)
	require.NoError(t, err)

	sep := strings.Repeat("=", 50)
	want := "Café\n====\n\n" +
		"You:\nq\n\n" + sep + "\n\n" +
		"Gemini:\na\n\n" + sep + "\n\n"
	assert.Equal(t, want, string(out))
}

func TestJSONExporter_RoundTrip(t *testing.T) {
	conv := testConversation()
	out, err := JSONExporter{}.Export(conv)
	require.NoError(t, err)
	assert.Contains(t, string(out), "\n  \"id\": ")

	var back model.Conversation
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, conv.ID, back.ID)
	assert.Equal(t, conv.Title, back.Title)
	require.Len(t, back.Messages, 2)
	assert.Equal(t, conv.Messages[1].Content, back.Messages[1].Content)
}

func TestHTMLExporter(t *testing.T) {
	conv := testConversation()
	conv.Rename("<b>Tags</b> & stuff")

	out, err := NewHTMLExporter("light").Export(conv)
	require.NoError(t, err)
	page := string(out)

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<title>&lt;b&gt;Tags&lt;/b&gt; &amp; stuff</title>")
	assert.Contains(t, page, `<body class="light-theme">`)
	assert.Contains(t, page, `class="language-go"`)
	assert.Contains(t, page, ".chroma", "highlighter CSS is embedded")
	assert.Contains(t, page, `data-message-id="`+conv.Messages[0].ID+`"`)
	assert.NotContains(t, page, "data-action=", "exports carry no action buttons")
}

func TestExporters_NilConversation(t *testing.T) {
	for _, f := range Formats {
		e, err := ExporterFor(f, "")
		require.NoError(t, err)
		_, err = e.Export(nil)
		assert.ErrorIs(t, err, ErrNilConversation, f)
	}
}

func TestExporters_Metadata(t *testing.T) {
	tests := []struct {
		format Format
		ext    string
		mime   string
	}{
		{FormatMarkdown, ".md", "text/markdown"},
		{FormatJSON, ".json", "application/json"},
		{FormatText, ".txt", "text/plain"},
		{FormatHTML, ".html", "text/html"},
	}
	for _, tt := range tests {
		e, err := ExporterFor(tt.format, "dark")
		require.NoError(t, err)
		assert.Equal(t, tt.ext, e.FileExtension())
		assert.Equal(t, tt.mime, e.MimeType())
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"md":       FormatMarkdown,
		"Markdown": FormatMarkdown,
		"json":     FormatJSON,
		"txt":      FormatText,
		"text":     FormatText,
		" HTML ":   FormatHTML,
		"htm":      FormatHTML,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	_, err = ExporterFor(Format("docx"), "")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "Hi_there.md", Filename("Hi there", ".md"))
	assert.Equal(t, "What_s_2_2_.txt", Filename("What's 2+2?", ".txt"))
	assert.Equal(t, "caf_.json", Filename("café", ".json"))
	assert.Equal(t, "conversation.html", Filename("", ".html"))
}

func TestExportToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")

	path, err := ExportToFile(testConversation(), FormatMarkdown, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Hi_there.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Hi there\n\n"))

	_, err = ExportToFile(nil, FormatMarkdown, dir)
	assert.ErrorIs(t, err, ErrNilConversation)
	_, err = ExportToFile(testConversation(), Format("nope"), dir)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
