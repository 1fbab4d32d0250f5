// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/jeranaias/geminichat/internal/model"
	"github.com/jeranaias/geminichat/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a conversation into one file format.
type Exporter interface {
	// Export returns the file contents.
	Export(conv *model.Conversation) ([]byte, error)

	// FileExtension returns the extension including the dot.
	FileExtension() string

	// MimeType returns the MIME type of the output.
	MimeType() string
}

// ErrUnknownFormat is returned by ParseFormat for unrecognized names.
var ErrUnknownFormat = errors.New("unknown export format")

// ErrNilConversation is returned when there is nothing to export.
var ErrNilConversation = errors.New("conversation is nil")

// Format names an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatText     Format = "txt"
	FormatHTML     Format = "html"
)

// Formats lists the supported formats.
var Formats = []Format{FormatMarkdown, FormatJSON, FormatText, FormatHTML}

// ParseFormat accepts a format name or its common aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "txt", "text":
		return FormatText, nil
	case "html", "htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("%w: %q (want md, json, txt or html)", ErrUnknownFormat, s)
	}
}

// ExporterFor returns the exporter for f. theme only affects HTML.
func ExporterFor(f Format, theme string) (Exporter, error) {
	switch f {
	case FormatMarkdown:
		return MarkdownExporter{}, nil
	case FormatJSON:
		return JSONExporter{}, nil
	case FormatText:
		return TextExporter{}, nil
	case FormatHTML:
		return NewHTMLExporter(theme), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile writes conv in format f into dir and returns the path. The
// write is atomic, so a crash never leaves a partial export.
func ExportToFile(conv *model.Conversation, f Format, dir string) (string, error) {
	if conv == nil {
		return "", ErrNilConversation
	}
	exporter, err := ExporterFor(f, "")
	if err != nil {
		return "", err
	}
	data, err := exporter.Export(conv)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, Filename(conv.GetTitle(), exporter.FileExtension()))
	if err := util.AtomicWriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

var unsafeFilenameChars = regexp.MustCompile(`(?i)[^a-z0-9]`)

// Filename derives a file name from a conversation title.
func Filename(title, ext string) string {
	name := unsafeFilenameChars.ReplaceAllString(title, "_")
	if name == "" {
		name = "conversation"
	}
	return name + ext
}

// OpenFile opens path in the platform's default application.
func OpenFile(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}

func roleLabel(r model.Role) string {
	if r == model.RoleUser {
		return "You"
	}
	return "Gemini"
}
