// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"errors"
	"strings"
	"testing"
)

func TestChromaHighlighter_Go(t *testing.T) {
	h := NewChromaHighlighter(DefaultStyle)

	out, err := h.Highlight(`x := "<b>"`, "go")
	if err != nil {
		t.Fatalf("Highlight failed: %v", err)
	}
	if !strings.Contains(out, `<span class="`) {
		t.Errorf("expected class-based spans, got %q", out)
	}
	if !strings.Contains(out, "&lt;b&gt;") {
		t.Errorf("expected escaped string literal, got %q", out)
	}
	if strings.Contains(out, "<pre") {
		t.Errorf("highlighter must not wrap in <pre>, got %q", out)
	}
}

func TestChromaHighlighter_PlainAndUnknown(t *testing.T) {
	h := NewChromaHighlighter(DefaultStyle)

	for _, lang := range []string{"", "text", "TEXT", "plaintext", "zzqqxx"} {
		if _, err := h.Highlight("hello", lang); !errors.Is(err, ErrUnknownLanguage) {
			t.Errorf("Highlight(%q) error = %v, want ErrUnknownLanguage", lang, err)
		}
	}
}

func TestChromaHighlighter_CSS(t *testing.T) {
	h := NewChromaHighlighter(LightStyle)

	css, err := h.CSS()
	if err != nil {
		t.Fatalf("CSS failed: %v", err)
	}
	if !strings.Contains(css, ".chroma") {
		t.Errorf("stylesheet missing .chroma rules")
	}
	if h.StyleName() != LightStyle {
		t.Errorf("StyleName() = %q, want %q", h.StyleName(), LightStyle)
	}
}

func TestNewChromaHighlighter_UnknownStyle(t *testing.T) {
	h := NewChromaHighlighter("no-such-style")
	if h.style == nil {
		t.Fatal("expected fallback style")
	}
}

func TestStyleForTheme(t *testing.T) {
	if StyleForTheme("light") != LightStyle {
		t.Error("light theme should map to light style")
	}
	if StyleForTheme("dark") != DefaultStyle {
		t.Error("dark theme should map to default style")
	}
}
