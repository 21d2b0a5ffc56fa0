package fileparse

import (
	"strings"
	"testing"

	"github.com/spamsift/spamsift/internal/core"
)

func TestFromUploadText(t *testing.T) {
	text, err := FromUpload("email.txt", []byte("hello world"))
	if err != nil {
		t.Fatalf("FromUpload: %v", err)
	}
	if text != "hello world" {
		t.Errorf("text = %q, want hello world", text)
	}
}

func TestFromUploadUnsupported(t *testing.T) {
	_, err := FromUpload("email.docx", []byte("content"))
	if !core.IsValidationError(err) {
		t.Errorf("FromUpload(.docx) = %v, want ValidationError", err)
	}
}

func TestFromUploadCaseInsensitiveExtension(t *testing.T) {
	if _, err := FromUpload("EMAIL.TXT", []byte("hello")); err != nil {
		t.Errorf("FromUpload(.TXT) = %v, want nil", err)
	}
}

func TestFromEMLPlain(t *testing.T) {
	raw := "From: sender@example.com\r\n" +
		"Subject: Free money\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"Claim your prize now.\r\n"

	text, err := FromEML([]byte(raw))
	if err != nil {
		t.Fatalf("FromEML: %v", err)
	}
	if !strings.HasPrefix(text, "Subject: Free money\n\n") {
		t.Errorf("text = %q, want subject prefix", text)
	}
	if !strings.Contains(text, "Claim your prize now.") {
		t.Errorf("text = %q, missing body", text)
	}
}

func TestFromEMLMultipart(t *testing.T) {
	raw := "From: sender@example.com\r\n" +
		"Subject: Report\r\n" +
		"Content-Type: multipart/alternative; boundary=\"BOUND\"\r\n" +
		"\r\n" +
		"--BOUND\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"Plain part.\r\n" +
		"--BOUND\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>HTML part.</p>\r\n" +
		"--BOUND--\r\n"

	text, err := FromEML([]byte(raw))
	if err != nil {
		t.Fatalf("FromEML: %v", err)
	}
	if !strings.Contains(text, "Plain part.") {
		t.Errorf("text = %q, missing text/plain part", text)
	}
	if strings.Contains(text, "HTML part") {
		t.Errorf("text = %q, html part was not skipped", text)
	}
}

func TestFromEMLQuotedPrintable(t *testing.T) {
	raw := "Subject: Test\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		"caf=C3=A9 money\r\n"

	text, err := FromEML([]byte(raw))
	if err != nil {
		t.Fatalf("FromEML: %v", err)
	}
	if !strings.Contains(text, "café money") {
		t.Errorf("text = %q, quoted-printable not decoded", text)
	}
}

func TestFromEMLEncodedSubject(t *testing.T) {
	raw := "Subject: =?UTF-8?B?RnJlZSBtb25leQ==?=\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"body\r\n"

	text, err := FromEML([]byte(raw))
	if err != nil {
		t.Fatalf("FromEML: %v", err)
	}
	if !strings.Contains(text, "Subject: Free money") {
		t.Errorf("text = %q, encoded subject not decoded", text)
	}
}

func TestFromEMLInvalid(t *testing.T) {
	_, err := FromEML([]byte("not an email at all"))
	if !core.IsValidationError(err) {
		t.Errorf("FromEML(garbage) = %v, want ValidationError", err)
	}
}

func TestFromUploadPDFInvalid(t *testing.T) {
	_, err := FromUpload("file.pdf", []byte("not a pdf"))
	if !core.IsValidationError(err) {
		t.Errorf("FromUpload(bad pdf) = %v, want ValidationError", err)
	}
}

func TestDecodeHeaderFallback(t *testing.T) {
	// Plain values pass through unchanged.
	if got := DecodeHeader("plain subject"); got != "plain subject" {
		t.Errorf("DecodeHeader = %q, want unchanged", got)
	}
}
