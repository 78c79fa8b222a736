package mock

import (
	"io"
	"strings"

	"github.com/fwojciec/codey"
)

// Interface compliance check.
var _ codey.Stream = (*Stream)(nil)

// Stream is a test double for codey.Stream.
// Set the function fields for the methods you need. NextFn and ReplyFn
// panic when nil to catch missing setup. CloseFn and StateFn are nil-safe
// (no-op and zero value) because test code commonly calls defer stream.Close()
// and these methods rarely need custom behavior.
type Stream struct {
	NextFn  func() (codey.Event, error)
	StateFn func() codey.StreamState
	ReplyFn func() (codey.Reply, error)
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (codey.Event, error) {
	return s.NextFn()
}

// State delegates to StateFn. Returns StreamStateNew when StateFn is nil.
func (s *Stream) State() codey.StreamState {
	if s.StateFn == nil {
		return codey.StreamStateNew
	}
	return s.StateFn()
}

// Reply delegates to ReplyFn.
func (s *Stream) Reply() (codey.Reply, error) {
	return s.ReplyFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// Script returns a Stream that yields each delta as an EventTextDelta, then
// fails with err, or ends with io.EOF when err is nil. Reply returns the
// text received so far.
func Script(err error, deltas ...string) *Stream {
	var (
		i     int
		text  strings.Builder
		state = codey.StreamStateNew
	)
	s := &Stream{}
	s.NextFn = func() (codey.Event, error) {
		switch state {
		case codey.StreamStateComplete:
			return nil, io.EOF
		case codey.StreamStateError, codey.StreamStateClosed:
			return nil, codey.ErrStreamClosed
		}
		if i < len(deltas) {
			d := deltas[i]
			i++
			text.WriteString(d)
			state = codey.StreamStateStreaming
			return codey.EventTextDelta{Delta: d}, nil
		}
		if err != nil {
			state = codey.StreamStateError
			return nil, err
		}
		state = codey.StreamStateComplete
		return nil, io.EOF
	}
	s.StateFn = func() codey.StreamState { return state }
	s.ReplyFn = func() (codey.Reply, error) {
		if state == codey.StreamStateNew {
			return codey.Reply{}, codey.ErrStreamNotReady
		}
		stop := codey.StopEndTurn
		if state != codey.StreamStateComplete {
			stop = codey.StopError
		}
		return codey.Reply{Text: text.String(), StopReason: stop}, nil
	}
	s.CloseFn = func() error {
		if state != codey.StreamStateComplete && state != codey.StreamStateError {
			state = codey.StreamStateClosed
		}
		return nil
	}
	return s
}
