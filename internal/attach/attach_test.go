// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attach

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/geminichat/internal/model"
)

// pngHeader is enough for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// buildPDF writes a single-page PDF showing each line with Tj.
func buildPDF(lines ...string) []byte {
	var content strings.Builder
	content.WriteString("BT /F1 12 Tf 72 720 Td ")
	for i, l := range lines {
		if i > 0 {
			content.WriteString("0 -14 Td ")
		}
		fmt.Fprintf(&content, "(%s) Tj ", l)
	}
	content.WriteString("ET")
	stream := content.String()

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestFromBytes_Image(t *testing.T) {
	att, err := FromBytes("cat.png", pngHeader)
	require.NoError(t, err)
	assert.Equal(t, model.KindImage, att.Kind)
	assert.Equal(t, "cat.png", att.Name)
	assert.Equal(t, "image/png", att.MimeType)
	assert.True(t, strings.HasPrefix(att.Data, "data:image/png;base64,"))

	decoded, err := base64.StdEncoding.DecodeString(att.Base64Payload())
	require.NoError(t, err)
	assert.Equal(t, pngHeader, decoded)
}

func TestFromBytes_PDF(t *testing.T) {
	att, err := FromBytes("report.pdf", buildPDF("Hello PDF"))
	require.NoError(t, err)
	assert.Equal(t, model.KindDocumentText, att.Kind)
	assert.Equal(t, MimePDF, att.MimeType)
	assert.Contains(t, att.Data, "Hello PDF")
}

func TestFromBytes_Unsupported(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"notes.txt", []byte("just some text")},
		{"page.html", []byte("<!DOCTYPE html><html></html>")},
		{"blob.bin", []byte{0x00, 0x01, 0x02, 0x03}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromBytes(tt.name, tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsupportedType)

			var ute *UnsupportedTypeError
			require.ErrorAs(t, err, &ute)
			assert.Equal(t, tt.name, ute.Name)
			assert.NotEmpty(t, ute.MIME)
		})
	}
}

func TestFromBytes_TooLarge(t *testing.T) {
	_, err := FromBytes("huge.png", make([]byte, MaxSize+1))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFromBytes_BrokenPDF(t *testing.T) {
	_, err := FromBytes("broken.pdf", []byte("%PDF-1.4\nnot really a pdf"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupportedType)
}

func TestFromReader_TooLarge(t *testing.T) {
	_, err := FromReader("huge.png", bytes.NewReader(make([]byte, MaxSize+10)))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0o600))

	att, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "photo.png", att.Name)
	assert.Equal(t, model.KindImage, att.Kind)

	_, err = Load(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDetectMIME(t *testing.T) {
	assert.Equal(t, "image/png", DetectMIME("x.dat", pngHeader))
	assert.Equal(t, MimePDF, DetectMIME("x", buildPDF("a")))
	assert.Equal(t, "image/png", DetectMIME("photo.PNG", []byte{0x01, 0x02}), "extension fallback")
	assert.Equal(t, "text/plain", DetectMIME("notes.txt", []byte("hello")))
}

func TestDataURI(t *testing.T) {
	assert.Equal(t, "data:image/gif;base64,QUJD", DataURI("image/gif", []byte("ABC")))
}
