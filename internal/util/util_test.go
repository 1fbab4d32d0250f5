// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"testing"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_Basic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	data := []byte(`{"gemini_theme":"dark"}`)

	if err := AtomicWriteFile(path, data, 0600); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(content) != string(data) {
		t.Errorf("Content mismatch: got %q, want %q", content, data)
	}
}

func TestAtomicWriteFile_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "store.json")

	if err := AtomicWriteFile(path, []byte("{}"), 0600); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("File not created: %v", err)
	}
}

func TestAtomicWriteFile_OverwritesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")

	if err := AtomicWriteFile(path, []byte("old"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := AtomicWriteFile(path, []byte("new"), 0600); err != nil {
		t.Fatal(err)
	}

	content, _ := os.ReadFile(path)
	if string(content) != "new" {
		t.Errorf("got %q, want %q", content, "new")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

// =============================================================================
// TEXT TESTS
// =============================================================================

func TestPrefixRunes(t *testing.T) {
	testCases := []struct {
		input    string
		n        int
		expected string
	}{
		{"hello world", 5, "hello..."},
		{"hello", 5, "hello"},
		{"", 5, ""},
		{"hello", 0, ""},
		{"日本語のテキスト", 3, "日本語..."},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			if got := PrefixRunes(tc.input, tc.n, "..."); got != tc.expected {
				t.Errorf("PrefixRunes(%q, %d) = %q, want %q", tc.input, tc.n, got, tc.expected)
			}
		})
	}
}

func TestPrefixRunes_NormalizesCombiningMarks(t *testing.T) {
	// "e" + combining acute is one rune after NFC.
	decomposed := "cafe\u0301 au lait"
	if got := PrefixRunes(decomposed, 4, "..."); got != "caf\u00e9..." {
		t.Errorf("got %q", got)
	}
}

func TestClampRunes(t *testing.T) {
	testCases := []struct {
		input    string
		n        int
		expected string
	}{
		{"hello world", 5, "hello"},
		{"hi", 5, "hi"},
		{"", 5, ""},
		{"hello", 0, ""},
		{"你好世界", 2, "你好"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			if got := ClampRunes(tc.input, tc.n); got != tc.expected {
				t.Errorf("ClampRunes(%q, %d) = %q, want %q", tc.input, tc.n, got, tc.expected)
			}
		})
	}
}

func TestRuneLen(t *testing.T) {
	if RuneLen("日本語") != 3 {
		t.Errorf("RuneLen(日本語) = %d, want 3", RuneLen("日本語"))
	}
	if RuneLen("") != 0 {
		t.Error("RuneLen of empty string should be 0")
	}
}

func TestTruncateWidth(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		width    int
		maxWidth int
	}{
		{"ascii short", "hello", 10, 5},
		{"ascii cut", "hello world", 6, 6},
		{"cjk cut", "日本語テキスト", 5, 5},
		{"zero", "hello", 0, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := TruncateWidth(tc.input, tc.width)
			if w := StringWidth(got); w > tc.maxWidth {
				t.Errorf("TruncateWidth(%q, %d) = %q (width %d), want width <= %d",
					tc.input, tc.width, got, w, tc.maxWidth)
			}
		})
	}
}

func TestFoldContains(t *testing.T) {
	testCases := []struct {
		s, sub string
		want   bool
	}{
		{"Explain Recursion", "recursion", true},
		{"hello", "", true},
		{"hello", "world", false},
		{"École d'été", "ÉCOLE", true},
	}

	for _, tc := range testCases {
		t.Run(tc.s+"/"+tc.sub, func(t *testing.T) {
			if got := FoldContains(tc.s, tc.sub); got != tc.want {
				t.Errorf("FoldContains(%q, %q) = %v, want %v", tc.s, tc.sub, got, tc.want)
			}
		})
	}
}
