// Package fileparse extracts classifiable text from uploaded files.
// Supported formats are plain text, RFC 5322 messages (.eml) and PDF.
package fileparse

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/spamsift/spamsift/internal/core"
)

// FromUpload extracts text from an uploaded file, dispatching on the file
// extension. Unsupported extensions yield a validation error so callers can
// report them as caller mistakes.
func FromUpload(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return fromText(data), nil
	case ".eml":
		return FromEML(data)
	case ".pdf":
		return fromPDF(data)
	default:
		return "", core.NewValidationError("unsupported file type: %s (supported: .txt, .eml, .pdf)", filepath.Ext(filename))
	}
}

// fromText returns the file content as a string, replacing invalid UTF-8
// sequences so downstream validation does not choke on binary garbage.
func fromText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "")
}

// fromPDF extracts the plain text of every page.
func fromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", core.NewValidationError("failed to parse PDF file: %v", err)
	}

	var b strings.Builder
	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", core.NewValidationError("failed to extract text from PDF: %v", err)
	}
	if _, err := io.Copy(&b, textReader); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return b.String(), nil
}
