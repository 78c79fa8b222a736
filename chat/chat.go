// Package chat runs streaming exchanges between the conversation store and
// a generation provider.
//
// A Controller owns at most one actor at a time. The actor is bound to the
// active session and the current mode and holds a snapshot of the
// session's history. Switching session or mode, or any history change the
// actor did not make itself, discards the actor; the next submit binds a
// fresh one. Every discard bumps a generation counter, and deltas arriving
// for an older generation are dropped.
package chat

import (
	"github.com/fwojciec/codey"
	"github.com/fwojciec/codey/segment"
)

// Log is the subset of the conversation store the controller drives.
type Log interface {
	ActiveID() string
	Session(id string) (codey.Session, error)
	Create(title string) codey.Session
	Activate(id string) error
	Delete(id string) error
	Rename(id, title string) error
	Version(id string) uint64
	AppendUser(sessionID, text string, att *codey.Attachment) (codey.Message, error)
	AppendAssistant(sessionID string) (codey.Message, error)
	AppendDelta(sessionID string, msgID int64, delta string) (codey.Message, error)
	Finalize(sessionID string, msgID int64) (codey.Message, error)
	Remove(sessionID string, msgID int64) error
	AppendNotice(sessionID, text string) (codey.Message, error)
}

// State is the lifecycle state of an exchange.
type State int

const (
	StateIdle State = iota
	StateAwaitingFirstDelta
	StateStreaming
	StateFinalized
	StateErrored
	// StateAbandoned means the exchange was superseded or canceled. Its
	// partial message, if any, was frozen as-is.
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingFirstDelta:
		return "awaiting_first_delta"
	case StateStreaming:
		return "streaming"
	case StateFinalized:
		return "finalized"
	case StateErrored:
		return "errored"
	case StateAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Update reports progress of an exchange. Message is a copy of the
// assistant message after the change and Segments its re-derived view.
type Update struct {
	SessionID string
	Message   codey.Message
	Segments  []segment.Segment
	State     State
	// Title is set when the exchange named the session.
	Title string
	// Removed is the ID of a partial message that was replaced by a
	// notice.
	Removed int64
	Err     error
}

func newUpdate(sessionID string, msg codey.Message, state State) Update {
	return Update{
		SessionID: sessionID,
		Message:   msg,
		Segments:  segment.Split(msg.Text),
		State:     state,
	}
}
