// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attach

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/jeranaias/geminichat/internal/model"
)

// MaxSize is the largest file accepted.
const MaxSize = 20 << 20

// MimePDF is the only document type with text extraction.
const MimePDF = "application/pdf"

var (
	// ErrUnsupportedType is matched by *UnsupportedTypeError.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrTooLarge means the file exceeds MaxSize.
	ErrTooLarge = errors.New("file too large")

	// ErrNoText means a PDF had no extractable text.
	ErrNoText = errors.New("no extractable text")
)

// UnsupportedTypeError names a file that is neither an image nor a PDF.
type UnsupportedTypeError struct {
	Name string
	MIME string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("%s: %s (%s); use images or PDFs", e.Name, ErrUnsupportedType, e.MIME)
}

// Is reports whether target is ErrUnsupportedType.
func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}

// Load reads the file at path and converts it.
func Load(path string) (model.Attachment, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Attachment{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return model.Attachment{}, err
	}
	if info.Size() > MaxSize {
		return model.Attachment{}, fmt.Errorf("%s: %w (%d bytes, limit %d)", filepath.Base(path), ErrTooLarge, info.Size(), MaxSize)
	}
	return FromReader(filepath.Base(path), f)
}

// FromReader reads at most MaxSize bytes from r and converts them.
func FromReader(name string, r io.Reader) (model.Attachment, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return model.Attachment{}, fmt.Errorf("read %s: %w", name, err)
	}
	return FromBytes(name, data)
}

// FromBytes converts file contents named name into an attachment.
func FromBytes(name string, data []byte) (model.Attachment, error) {
	if len(data) > MaxSize {
		return model.Attachment{}, fmt.Errorf("%s: %w (limit %d bytes)", name, ErrTooLarge, MaxSize)
	}

	mimeType := DetectMIME(name, data)
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return model.Attachment{
			Kind:     model.KindImage,
			Name:     name,
			Data:     DataURI(mimeType, data),
			MimeType: mimeType,
		}, nil
	case mimeType == MimePDF:
		text, err := ExtractPDFText(data)
		if err != nil {
			return model.Attachment{}, fmt.Errorf("%s: %w", name, err)
		}
		return model.Attachment{
			Kind:     model.KindDocumentText,
			Name:     name,
			Data:     text,
			MimeType: MimePDF,
		}, nil
	default:
		return model.Attachment{}, &UnsupportedTypeError{Name: name, MIME: mimeType}
	}
}

// DetectMIME sniffs data and falls back to the file extension when
// sniffing is inconclusive.
func DetectMIME(name string, data []byte) string {
	sniffed := http.DetectContentType(data)
	base, _, _ := mime.ParseMediaType(sniffed)
	if base == "" {
		base = sniffed
	}
	if base != "application/octet-stream" && base != "text/plain" {
		return base
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		if t, _, err := mime.ParseMediaType(byExt); err == nil {
			return t
		}
	}
	return base
}

// DataURI encodes data as a base64 data URI.
func DataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ExtractPDFText returns the plain text of every page, pages separated by
// a blank line. Pages that fail to decode are skipped.
func ExtractPDFText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("parse pdf: %v", r)
		}
	}()

	rdr, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= rdr.NumPage(); i++ {
		pg := rdr.Page(i)
		if pg.V.IsNull() {
			continue
		}
		s, err := pg.GetPlainText(nil)
		if err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			pages = append(pages, s)
		}
	}
	if len(pages) == 0 {
		return "", ErrNoText
	}
	return strings.Join(pages, "\n\n"), nil
}
