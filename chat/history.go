package chat

import (
	"fmt"

	"github.com/fwojciec/codey"
)

// History converts committed messages into provider turns. Notices,
// streaming messages and empty assistant replies are skipped. A user
// attachment becomes a binary part placed before the text part.
// Consecutive turns of the same role are merged.
func History(msgs []codey.Message) ([]codey.Turn, error) {
	var turns []codey.Turn
	for _, m := range msgs {
		if !committed(m) {
			continue
		}
		parts, err := partsOf(m)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", m.ID, err)
		}
		if len(parts) == 0 {
			continue
		}
		if n := len(turns); n > 0 && turns[n-1].Role == m.Sender {
			turns[n-1].Parts = append(turns[n-1].Parts, parts...)
			continue
		}
		turns = append(turns, codey.Turn{Role: m.Sender, Parts: parts})
	}
	return turns, nil
}

func partsOf(m codey.Message) ([]codey.Part, error) {
	var parts []codey.Part
	if m.Attachment != nil {
		data, err := m.Attachment.Data()
		if err != nil {
			return nil, err
		}
		parts = append(parts, codey.BlobPart{MIMEType: m.Attachment.MIME(), Data: data})
	}
	if m.Text != "" {
		parts = append(parts, codey.TextPart{Text: m.Text})
	}
	return parts, nil
}

// committed reports whether m belongs in provider history.
func committed(m codey.Message) bool {
	if m.Streaming || m.Notice {
		return false
	}
	return m.Sender == codey.RoleUser || m.Text != ""
}

func committedOnly(msgs []codey.Message) []codey.Message {
	out := make([]codey.Message, 0, len(msgs))
	for _, m := range msgs {
		if committed(m) {
			out = append(out, m)
		}
	}
	return out
}
