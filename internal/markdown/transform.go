// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

// DefaultLanguage tags fenced blocks that carry no language.
const DefaultLanguage = "text"

// Placeholders are NUL-delimited. NUL is stripped from input first, so user
// text can never forge one, and no inline rule matches NUL, letters or
// digits as delimiters.
const (
	blockMarker  = "\x00B"
	inlineMarker = "\x00I"
	markerEnd    = "\x00"
)

var (
	// ```lang\n ... ``` with the body matched lazily across lines.
	fencedBlock = regexp.MustCompile("(?s)```(\\w+)?\\n(.*?)```")

	// An opening fence that never closes: from here to the end is code.
	openFence = regexp.MustCompile("```(\\w+)?(?:\\n|$)")

	inlineCode = regexp.MustCompile("`([^`\\n]+)`")

	// Emphasis needs a non-space character just inside each delimiter, so a
	// "* " list marker never opens an italic span. Underscore forms must not
	// sit inside a word, so snake_case identifiers survive.
	boldItalicStar  = regexp.MustCompile(`\*\*\*(\S(?:.*?\S)??)\*\*\*`)
	boldItalicUnder = regexp.MustCompile(`(^|\W)___(\S(?:.*?\S)??)___(\W|$)`)
	boldStar        = regexp.MustCompile(`\*\*(\S(?:.*?\S)??)\*\*`)
	boldUnder       = regexp.MustCompile(`(^|\W)__(\S(?:.*?\S)??)__(\W|$)`)
	italicStar      = regexp.MustCompile(`\*(\S(?:.*?\S)??)\*`)
	italicUnder     = regexp.MustCompile(`(^|\W)_(\S(?:.*?\S)??)_(\W|$)`)

	heading3 = regexp.MustCompile(`(?m)^### (.+)$`)
	heading2 = regexp.MustCompile(`(?m)^## (.+)$`)
	heading1 = regexp.MustCompile(`(?m)^# (.+)$`)

	bulletItem  = regexp.MustCompile(`(?m)^\* (.+)$`)
	orderedItem = regexp.MustCompile(`(?m)^\d+\. (.+)$`)
	listRun     = regexp.MustCompile(`(?:<li>.*?</li>\n?)+`)
)

// codeBlock is a fenced block captured before escaping.
type codeBlock struct {
	lang string
	code string
}

// Renderer converts message text to HTML.
// The zero value renders code blocks as escaped plain text.
type Renderer struct {
	highlighter Highlighter
}

// New returns a Renderer that highlights code blocks with h.
// A nil h leaves code blocks as escaped plain text.
func New(h Highlighter) *Renderer {
	return &Renderer{highlighter: h}
}

var defaultRenderer = New(NewChromaHighlighter(DefaultStyle))

// ToHTML renders text with the default chroma highlighter.
func ToHTML(text string) string {
	return defaultRenderer.ToHTML(text)
}

// ToHTML runs the full transform. It never fails: anything the highlighter
// cannot handle comes out as escaped text.
func (r *Renderer) ToHTML(text string) string {
	text = strings.ReplaceAll(text, "\x00", "\uFFFD")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	text, blocks := extractCodeBlocks(text)
	text = html.EscapeString(text)
	text, spans := extractInlineCode(text)
	text = applyInlineRules(text)

	if len(blocks) == 0 && len(spans) == 0 {
		return text
	}

	pairs := make([]string, 0, 2*(len(blocks)+len(spans)))
	for i, span := range spans {
		pairs = append(pairs, placeholder(inlineMarker, i), "<code>"+span+"</code>")
	}
	for i, b := range blocks {
		pairs = append(pairs, placeholder(blockMarker, i), r.renderBlock(b))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func placeholder(marker string, i int) string {
	return marker + strconv.Itoa(i) + markerEnd
}

// extractCodeBlocks swaps every fenced block for a placeholder, in order of
// appearance. An opening fence without a closing one turns the rest of the
// text into a single block.
func extractCodeBlocks(text string) (string, []codeBlock) {
	var blocks []codeBlock
	var sb strings.Builder
	last := 0

	for _, m := range fencedBlock.FindAllStringSubmatchIndex(text, -1) {
		sb.WriteString(text[last:m[0]])
		blocks = append(blocks, newCodeBlock(submatch(text, m, 1), text[m[4]:m[5]]))
		sb.WriteString(placeholder(blockMarker, len(blocks)-1))
		last = m[1]
	}

	tail := text[last:]
	if m := openFence.FindStringSubmatchIndex(tail); m != nil {
		sb.WriteString(tail[:m[0]])
		blocks = append(blocks, newCodeBlock(submatch(tail, m, 1), tail[m[1]:]))
		sb.WriteString(placeholder(blockMarker, len(blocks)-1))
	} else {
		sb.WriteString(tail)
	}

	return sb.String(), blocks
}

func newCodeBlock(lang, code string) codeBlock {
	if lang == "" {
		lang = DefaultLanguage
	}
	return codeBlock{lang: lang, code: strings.TrimSpace(code)}
}

func submatch(s string, m []int, group int) string {
	if m[2*group] < 0 {
		return ""
	}
	return s[m[2*group]:m[2*group+1]]
}

// extractInlineCode pulls `spans` out of already escaped text so the
// emphasis rules cannot reach inside them.
func extractInlineCode(text string) (string, []string) {
	var spans []string
	text = inlineCode.ReplaceAllStringFunc(text, func(match string) string {
		spans = append(spans, match[1:len(match)-1])
		return placeholder(inlineMarker, len(spans)-1)
	})
	return text, spans
}

// applyInlineRules runs the emphasis, heading and list rules over escaped
// text. Order matters: longer emphasis delimiters resolve first.
func applyInlineRules(text string) string {
	text = boldItalicStar.ReplaceAllString(text, "<strong><em>${1}</em></strong>")
	text = replaceFlanked(boldItalicUnder, text, "<strong><em>", "</em></strong>")
	text = boldStar.ReplaceAllString(text, "<strong>${1}</strong>")
	text = replaceFlanked(boldUnder, text, "<strong>", "</strong>")
	text = italicStar.ReplaceAllString(text, "<em>${1}</em>")
	text = replaceFlanked(italicUnder, text, "<em>", "</em>")

	text = heading3.ReplaceAllString(text, "<h3>${1}</h3>")
	text = heading2.ReplaceAllString(text, "<h2>${1}</h2>")
	text = heading1.ReplaceAllString(text, "<h1>${1}</h1>")

	text = bulletItem.ReplaceAllString(text, "<li>${1}</li>")
	text = orderedItem.ReplaceAllString(text, "<li>${1}</li>")
	text = listRun.ReplaceAllStringFunc(text, func(run string) string {
		return "<ul>" + strings.ReplaceAll(run, "\n", "") + "</ul>"
	})

	return strings.ReplaceAll(text, "\n", "<br>")
}

// replaceFlanked applies an underscore rule whose pattern also captures the
// characters on either side. Matching consumes that context, so spans that
// share a boundary need another pass. Every pass removes delimiters, so the
// loop ends.
func replaceFlanked(re *regexp.Regexp, text, open, close string) string {
	repl := "${1}" + open + "${2}" + close + "${3}"
	for {
		next := re.ReplaceAllString(text, repl)
		if next == text {
			return text
		}
		text = next
	}
}

// renderBlock produces the final container for one fenced block.
func (r *Renderer) renderBlock(b codeBlock) string {
	return `<pre><code class="language-` + b.lang + `">` + r.highlight(b) + `</code></pre>`
}

// highlight returns HTML-safe code. Any highlighter error or panic falls
// back to escaped text for this block only.
func (r *Renderer) highlight(b codeBlock) (out string) {
	if b.code == "" {
		return ""
	}
	plain := html.EscapeString(b.code)
	if r == nil || r.highlighter == nil {
		return plain
	}

	defer func() {
		if rec := recover(); rec != nil {
			out = plain
		}
	}()

	highlighted, err := r.highlighter.Highlight(b.code, b.lang)
	if err != nil {
		return plain
	}
	return highlighted
}
