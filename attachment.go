package codey

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Attachment is a file attached to a user message. Content is a data-URL
// style string, "data:<mime>;base64,<payload>". The "data:" prefix is
// optional. Attachments are immutable once attached.
type Attachment struct {
	Name     string
	MIMEType string
	Content  string
}

// NewAttachment encodes data into an Attachment.
func NewAttachment(name, mimeType string, data []byte) Attachment {
	return Attachment{
		Name:     name,
		MIMEType: mimeType,
		Content:  "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
	}
}

// Payload returns the substring of Content after the first comma.
func (a Attachment) Payload() string {
	_, payload, ok := strings.Cut(a.Content, ",")
	if !ok {
		return ""
	}
	return payload
}

// MIME returns the declared MIME type. When MIMEType is empty it falls back
// to the type embedded in the Content header.
func (a Attachment) MIME() string {
	if a.MIMEType != "" {
		return a.MIMEType
	}
	header, _, ok := strings.Cut(a.Content, ",")
	if !ok {
		return ""
	}
	header = strings.TrimPrefix(header, "data:")
	mime, _, _ := strings.Cut(header, ";")
	return mime
}

// Data decodes the base64 payload.
func (a Attachment) Data() ([]byte, error) {
	if !strings.Contains(a.Content, ",") {
		return nil, fmt.Errorf("attachment %q: missing payload separator: %w", a.Name, ErrValidation)
	}
	data, err := base64.StdEncoding.DecodeString(a.Payload())
	if err != nil {
		return nil, fmt.Errorf("attachment %q: %w: %w", a.Name, ErrValidation, err)
	}
	return data, nil
}
