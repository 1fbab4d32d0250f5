// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// PrefixRunes returns the first n runes of s, followed by marker when
// anything was cut. Input is NFC-normalized first so that a combining
// sequence typed two different ways counts the same.
func PrefixRunes(s string, n int, marker string) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(norm.NFC.String(s))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n]) + marker
}

// ClampRunes cuts s to at most n runes without adding a marker.
func ClampRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	return len([]rune(s))
}

// TruncateWidth fits s into width terminal columns, ending in "…" when cut.
// Double-width (CJK) characters count as two columns.
func TruncateWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// StringWidth returns the number of terminal columns s occupies.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// FoldContains reports whether substr occurs in s ignoring case.
// An empty substr matches everything.
func FoldContains(s, substr string) bool {
	if substr == "" {
		return true
	}
	fold := cases.Fold()
	return strings.Contains(fold.String(s), fold.String(substr))
}
