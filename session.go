package codey

import "time"

// DefaultSessionTitle is the title of a session before its first exchange.
const DefaultSessionTitle = "New Chat"

// Session represents a conversation session.
type Session struct {
	ID       string
	Title    string
	Messages []Message
	// Seq is the store-assigned creation order. Higher is newer.
	Seq       int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Streaming returns the session's streaming message, if any.
func (s Session) Streaming() (Message, bool) {
	for _, m := range s.Messages {
		if m.Streaming {
			return m, true
		}
	}
	return Message{}, false
}

// Clone returns a deep copy of s. Attachments are shared because they are
// immutable.
func (s Session) Clone() Session {
	c := s
	if s.Messages != nil {
		c.Messages = make([]Message, len(s.Messages))
		copy(c.Messages, s.Messages)
	}
	return c
}
