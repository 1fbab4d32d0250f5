// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"errors"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Chroma styles used for the two UI themes.
const (
	DefaultStyle = "monokai"
	LightStyle   = "github"
)

// ErrUnknownLanguage is returned for languages the highlighter has no lexer
// for. Renderers fall back to escaped plain text.
var ErrUnknownLanguage = errors.New("unknown language")

// Highlighter turns source code into HTML-safe highlighted markup.
// Implementations must escape everything they do not wrap in tags.
type Highlighter interface {
	Highlight(code, language string) (string, error)
}

// plainLanguages never go through a lexer.
var plainLanguages = map[string]bool{
	"":          true,
	"text":      true,
	"txt":       true,
	"plain":     true,
	"plaintext": true,
}

// ChromaHighlighter highlights code with chroma, emitting CSS classes
// rather than inline styles. Pair it with CSS() for the stylesheet.
type ChromaHighlighter struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// NewChromaHighlighter creates a highlighter for the named chroma style.
// Unknown style names fall back to chroma's default.
func NewChromaHighlighter(styleName string) *ChromaHighlighter {
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	return &ChromaHighlighter{
		style: style,
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.PreventSurroundingPre(true),
		),
	}
}

// Highlight implements Highlighter. Only exact lexer matches are used; code
// is never guessed at, so an unknown tag always yields ErrUnknownLanguage.
func (h *ChromaHighlighter) Highlight(code, language string) (string, error) {
	lang := strings.ToLower(strings.TrimSpace(language))
	if plainLanguages[lang] {
		return "", ErrUnknownLanguage
	}
	lexer := lexers.Get(lang)
	if lexer == nil {
		return "", ErrUnknownLanguage
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// CSS returns the stylesheet for the highlighter's style.
func (h *ChromaHighlighter) CSS() (string, error) {
	var buf strings.Builder
	if err := h.formatter.WriteCSS(&buf, h.style); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// StyleName returns the chroma style in use.
func (h *ChromaHighlighter) StyleName() string {
	return h.style.Name
}

// StyleForTheme maps a UI theme to a chroma style.
func StyleForTheme(theme string) string {
	if theme == "light" {
		return LightStyle
	}
	return DefaultStyle
}
