package store

import (
	"fmt"

	"github.com/fwojciec/codey"
)

// AppendUser appends a finalized user message to the session and returns
// a copy of it.
func (s *Store) AppendUser(sessionID, text string, att *codey.Attachment) (codey.Message, error) {
	var msg codey.Message
	err := s.mutate(func() error {
		sess, ok := s.sessions[sessionID]
		if !ok {
			return fmt.Errorf("append user message to %q: %w", sessionID, codey.ErrSessionNotFound)
		}
		msg = s.appendLocked(sess, codey.Message{Sender: codey.RoleUser, Text: text, Attachment: att})
		return nil
	})
	return msg, err
}

// AppendAssistant appends an empty streaming assistant message. It fails
// with codey.ErrBusy when the session already has a streaming message.
func (s *Store) AppendAssistant(sessionID string) (codey.Message, error) {
	var msg codey.Message
	err := s.mutate(func() error {
		sess, ok := s.sessions[sessionID]
		if !ok {
			return fmt.Errorf("append assistant message to %q: %w", sessionID, codey.ErrSessionNotFound)
		}
		if _, busy := sess.Streaming(); busy {
			return fmt.Errorf("append assistant message to %q: %w", sessionID, codey.ErrBusy)
		}
		msg = s.appendLocked(sess, codey.Message{Sender: codey.RoleAssistant, Streaming: true})
		return nil
	})
	return msg, err
}

// AppendNotice appends a finalized assistant notice message.
func (s *Store) AppendNotice(sessionID, text string) (codey.Message, error) {
	var msg codey.Message
	err := s.mutate(func() error {
		sess, ok := s.sessions[sessionID]
		if !ok {
			return fmt.Errorf("append notice to %q: %w", sessionID, codey.ErrSessionNotFound)
		}
		msg = s.appendLocked(sess, codey.Message{Sender: codey.RoleAssistant, Text: text, Notice: true})
		return nil
	})
	return msg, err
}

func (s *Store) appendLocked(sess *codey.Session, m codey.Message) codey.Message {
	s.nextMsg++
	m.ID = s.nextMsg
	m.Timestamp = s.now()
	sess.Messages = append(sess.Messages, m)
	sess.UpdatedAt = m.Timestamp
	s.versions[sess.ID]++
	return m
}

// AppendDelta appends text to a streaming message and returns the updated
// copy.
func (s *Store) AppendDelta(sessionID string, msgID int64, delta string) (codey.Message, error) {
	return s.update(sessionID, msgID, func(m *codey.Message) error {
		if !m.Streaming {
			return codey.ErrMessageFinalized
		}
		m.Text += delta
		return nil
	})
}

// Finalize freezes a message. Finalizing a frozen message is a no-op.
func (s *Store) Finalize(sessionID string, msgID int64) (codey.Message, error) {
	return s.update(sessionID, msgID, func(m *codey.Message) error {
		m.Streaming = false
		return nil
	})
}

func (s *Store) update(sessionID string, msgID int64, fn func(*codey.Message) error) (codey.Message, error) {
	var msg codey.Message
	err := s.mutate(func() error {
		sess, ok := s.sessions[sessionID]
		if !ok {
			return fmt.Errorf("update message %d: %w", msgID, codey.ErrSessionNotFound)
		}
		i := indexOf(sess.Messages, msgID)
		if i < 0 {
			return fmt.Errorf("update message %d: %w", msgID, codey.ErrMessageNotFound)
		}
		if err := fn(&sess.Messages[i]); err != nil {
			return fmt.Errorf("update message %d: %w", msgID, err)
		}
		sess.UpdatedAt = s.now()
		s.versions[sessionID]++
		msg = sess.Messages[i]
		return nil
	})
	return msg, err
}

// Remove deletes a message from the session.
func (s *Store) Remove(sessionID string, msgID int64) error {
	return s.mutate(func() error {
		sess, ok := s.sessions[sessionID]
		if !ok {
			return fmt.Errorf("remove message %d: %w", msgID, codey.ErrSessionNotFound)
		}
		i := indexOf(sess.Messages, msgID)
		if i < 0 {
			return fmt.Errorf("remove message %d: %w", msgID, codey.ErrMessageNotFound)
		}
		sess.Messages = append(sess.Messages[:i:i], sess.Messages[i+1:]...)
		sess.UpdatedAt = s.now()
		s.versions[sessionID]++
		return nil
	})
}

func indexOf(msgs []codey.Message, id int64) int {
	for i := range msgs {
		if msgs[i].ID == id {
			return i
		}
	}
	return -1
}
