package json

import (
	"fmt"
	"time"

	"github.com/fwojciec/codey"
)

// messageDTO is the JSON representation of a Message with a type discriminator.
type messageDTO struct {
	ID         int64          `json:"id"`
	Type       string         `json:"type"`
	Text       string         `json:"text"`
	Attachment *attachmentDTO `json:"attachment,omitempty"`
	Streaming  bool           `json:"streaming,omitempty"`
	Notice     bool           `json:"notice,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

type attachmentDTO struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Content  string `json:"content"`
}

func marshalMessage(m codey.Message) messageDTO {
	dto := messageDTO{
		ID:        m.ID,
		Type:      string(m.Sender),
		Text:      m.Text,
		Streaming: m.Streaming,
		Notice:    m.Notice,
		Timestamp: m.Timestamp,
	}
	if a := m.Attachment; a != nil {
		dto.Attachment = &attachmentDTO{Name: a.Name, MIMEType: a.MIMEType, Content: a.Content}
	}
	return dto
}

func unmarshalMessage(dto messageDTO) (codey.Message, error) {
	var sender codey.Role
	switch dto.Type {
	case "user":
		sender = codey.RoleUser
	case "assistant":
		sender = codey.RoleAssistant
	default:
		return codey.Message{}, fmt.Errorf("unknown message type: %q", dto.Type)
	}
	m := codey.Message{
		ID:        dto.ID,
		Sender:    sender,
		Text:      dto.Text,
		Streaming: dto.Streaming,
		Notice:    dto.Notice,
		Timestamp: dto.Timestamp,
	}
	if a := dto.Attachment; a != nil {
		m.Attachment = &codey.Attachment{Name: a.Name, MIMEType: a.MIMEType, Content: a.Content}
	}
	return m, nil
}
