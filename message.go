package codey

import "time"

// Message is one entry in a session's conversation log.
//
// A user message is finalized at creation. An assistant message starts
// empty with Streaming set, is mutated in place by successive deltas, and
// is then frozen. At most one message per session is streaming at a time.
type Message struct {
	ID         int64
	Sender     Role
	Text       string
	Attachment *Attachment
	Streaming  bool
	// Notice marks an assistant message that carries a user-facing error
	// notice instead of generated text. Notices are never sent back to the
	// provider as history.
	Notice    bool
	Timestamp time.Time
}

// Pending reports whether the message is an assistant message that has not
// received its first delta yet.
func (m Message) Pending() bool {
	return m.Sender == RoleAssistant && m.Streaming && m.Text == ""
}

// ErrorNotice is the text of the assistant message that replaces a partial
// response after a transport failure.
const ErrorNotice = "Sorry, I encountered an error. Please try again."
