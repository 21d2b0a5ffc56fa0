package fileparse

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"github.com/spamsift/spamsift/internal/core"
)

// headerDecoder decodes RFC 2047 encoded-words, resolving charsets through
// the IANA index so non-UTF-8 subjects survive.
var headerDecoder = mime.WordDecoder{
	CharsetReader: charsetReader,
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.MIME.Encoding(charset)
	if err != nil || enc == nil {
		// Unknown charset: pass bytes through rather than failing the message.
		return input, nil
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}

// DecodeHeader decodes an encoded-word header value, falling back to the
// raw value on error.
func DecodeHeader(value string) string {
	decoded, err := headerDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// FromEML parses an RFC 5322 message and returns its subject and text body
// as one classifiable string.
func FromEML(data []byte) (string, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return "", core.NewValidationError("failed to parse email file: %v", err)
	}

	body, err := MessageText(msg)
	if err != nil {
		return "", core.NewValidationError("failed to extract email body: %v", err)
	}

	if subject := DecodeHeader(msg.Header.Get("Subject")); subject != "" {
		return "Subject: " + subject + "\n\n" + body, nil
	}
	return body, nil
}

// MessageText pulls plain-text content out of a parsed message. Multipart
// bodies contribute their text/plain parts; attachments and nested
// multiparts are skipped.
func MessageText(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return readPartBody(msg.Body, textproto.MIMEHeader(msg.Header))
	}

	boundary, ok := params["boundary"]
	if !ok {
		return readPartBody(msg.Body, textproto.MIMEHeader(msg.Header))
	}

	mr := multipart.NewReader(msg.Body, boundary)
	var textContent bytes.Buffer

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if textContent.Len() > 0 {
				return textContent.String(), nil
			}
			return "", err
		}

		partType := strings.ToLower(part.Header.Get("Content-Type"))
		if strings.Contains(partType, "text/plain") {
			text, err := readPartBody(part, part.Header)
			if err != nil {
				continue
			}
			textContent.WriteString(text)
			textContent.WriteString("\n")
		}
	}

	return textContent.String(), nil
}

// readPartBody reads a body applying Content-Transfer-Encoding and charset
// conversion as declared in the part's headers.
func readPartBody(r io.Reader, header textproto.MIMEHeader) (string, error) {
	switch strings.ToLower(strings.TrimSpace(header.Get("Content-Transfer-Encoding"))) {
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	}

	if _, params, err := mime.ParseMediaType(header.Get("Content-Type")); err == nil {
		if charset, ok := params["charset"]; ok && !strings.EqualFold(charset, "utf-8") {
			if enc, err := ianaindex.MIME.Encoding(charset); err == nil && enc != nil {
				r = transform.NewReader(r, enc.NewDecoder())
			}
		}
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
