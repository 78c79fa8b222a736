package json

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fwojciec/codey"
)

type sessionDTO struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Seq       int64        `json:"seq"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Messages  []messageDTO `json:"messages"`
}

// MarshalSession serializes a single Session, as used by transcript export.
func MarshalSession(s codey.Session) ([]byte, error) {
	return json.MarshalIndent(marshalSession(s), "", "  ")
}

// UnmarshalSession deserializes a Session written by [MarshalSession].
func UnmarshalSession(data []byte) (codey.Session, error) {
	var dto sessionDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return codey.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return unmarshalSession(dto)
}

func marshalSession(s codey.Session) sessionDTO {
	dto := sessionDTO{
		ID:        s.ID,
		Title:     s.Title,
		Seq:       s.Seq,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Messages:  make([]messageDTO, len(s.Messages)),
	}
	for i, m := range s.Messages {
		dto.Messages[i] = marshalMessage(m)
	}
	return dto
}

func unmarshalSession(dto sessionDTO) (codey.Session, error) {
	if dto.ID == "" {
		return codey.Session{}, fmt.Errorf("missing session id")
	}
	s := codey.Session{
		ID:        dto.ID,
		Title:     dto.Title,
		Seq:       dto.Seq,
		CreatedAt: dto.CreatedAt,
		UpdatedAt: dto.UpdatedAt,
		Messages:  make([]codey.Message, len(dto.Messages)),
	}
	for i, m := range dto.Messages {
		msg, err := unmarshalMessage(m)
		if err != nil {
			return codey.Session{}, fmt.Errorf("message %d: %w", i, err)
		}
		s.Messages[i] = msg
	}
	return s, nil
}

// MarshalSessions serializes a list of sessions as a JSON array.
func MarshalSessions(ss []codey.Session) ([]byte, error) {
	dtos := make([]sessionDTO, len(ss))
	for i, s := range ss {
		dtos[i] = marshalSession(s)
	}
	return json.Marshal(dtos)
}

// UnmarshalSessions deserializes a JSON array written by [MarshalSessions].
func UnmarshalSessions(data []byte) ([]codey.Session, error) {
	var dtos []sessionDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("unmarshal sessions: %w", err)
	}
	out := make([]codey.Session, len(dtos))
	for i, dto := range dtos {
		s, err := unmarshalSession(dto)
		if err != nil {
			return nil, fmt.Errorf("session %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}
