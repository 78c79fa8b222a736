package anthropic

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/codey"
)

// stream implements [codey.Stream] by parsing SSE events from an HTTP response body.
type stream struct {
	body     io.ReadCloser
	scanner  *bufio.Scanner
	ctx      context.Context
	state    codey.StreamState
	reply    codey.Reply
	text     strings.Builder
	thinking strings.Builder
	blocks   map[int]string // block index to block type
	err      error          // terminal error, if any
}

// Interface compliance check.
var _ codey.Stream = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser) *stream {
	return &stream{
		body:    body,
		scanner: bufio.NewScanner(body),
		ctx:     ctx,
		state:   codey.StreamStateNew,
		blocks:  make(map[int]string),
	}
}

// Next reads the next semantic event from the SSE stream.
// Returns io.EOF when the stream completes normally.
func (s *stream) Next() (codey.Event, error) {
	switch s.state {
	case codey.StreamStateComplete:
		return nil, io.EOF
	case codey.StreamStateError:
		return nil, s.err
	case codey.StreamStateClosed:
		return nil, fmt.Errorf("anthropic: %w", codey.ErrStreamClosed)
	}

	for {
		eventType, data, err := s.readSSEEvent()
		if err != nil {
			s.terminate(err)
			return nil, s.err
		}

		s.state = codey.StreamStateStreaming

		evt, err := s.processEvent(eventType, data)
		if err != nil {
			s.terminate(err)
			return nil, s.err
		}

		// processEvent may set a terminal state (e.g. message_stop).
		if s.state == codey.StreamStateComplete {
			return nil, io.EOF
		}

		if evt != nil {
			return evt, nil
		}
		// Non-semantic event (ping, message_start, etc.) - keep reading.
	}
}

// State returns the current stream state.
func (s *stream) State() codey.StreamState {
	return s.state
}

// Reply returns the assembled reply.
func (s *stream) Reply() (codey.Reply, error) {
	if s.state == codey.StreamStateNew {
		return codey.Reply{}, fmt.Errorf("anthropic: %w", codey.ErrStreamNotReady)
	}
	r := s.reply
	r.Text = s.text.String()
	r.Thinking = s.thinking.String()
	return r, nil
}

// Close closes the underlying HTTP response body.
func (s *stream) Close() error {
	if s.state != codey.StreamStateComplete && s.state != codey.StreamStateError {
		s.state = codey.StreamStateClosed
		s.reply.StopReason = codey.StopAborted
		s.reply.RawStopReason = "aborted"
	}
	return s.body.Close()
}

// terminate records a terminal error and sets the appropriate state and stop reason.
func (s *stream) terminate(err error) {
	s.state = codey.StreamStateError
	if err == io.EOF {
		// message_stop sets StreamStateComplete before we get here, so raw
		// EOF means the stream ended unexpectedly.
		s.err = fmt.Errorf("anthropic: unexpected end of stream")
		s.reply.StopReason = codey.StopError
		s.reply.RawStopReason = "error"
		return
	}
	if s.ctx.Err() != nil {
		s.err = fmt.Errorf("anthropic: %w", s.ctx.Err())
		s.reply.StopReason = codey.StopAborted
		s.reply.RawStopReason = "aborted"
		return
	}
	s.err = err
	s.reply.StopReason = codey.StopError
	s.reply.RawStopReason = "error"
}

// readSSEEvent reads lines until a complete SSE event is assembled.
// Returns the event type and the data payload.
func (s *stream) readSSEEvent() (string, string, error) {
	var eventType string
	var dataBuf strings.Builder

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			if dataBuf.Len() > 0 {
				return eventType, dataBuf.String(), nil
			}
			continue
		}

		if strings.HasPrefix(line, "event: ") {
			eventType = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			if dataBuf.Len() > 0 {
				dataBuf.WriteByte('\n')
			}
			dataBuf.WriteString(strings.TrimPrefix(line, "data: "))
		}
		// Comments (lines starting with ':') and unknown fields are ignored.
	}

	if err := s.scanner.Err(); err != nil {
		return "", "", fmt.Errorf("anthropic: %w", err)
	}

	if dataBuf.Len() > 0 {
		return eventType, dataBuf.String(), nil
	}
	return "", "", io.EOF
}

// processEvent maps an SSE event to a semantic codey.Event.
// Returns nil event for non-semantic events (ping, message_start, etc.).
func (s *stream) processEvent(eventType, data string) (codey.Event, error) {
	switch eventType {
	case "message_start":
		return nil, s.handleMessageStart(data)
	case "content_block_start":
		return nil, s.handleContentBlockStart(data)
	case "content_block_delta":
		return s.handleContentBlockDelta(data)
	case "message_delta":
		return nil, s.handleMessageDelta(data)
	case "message_stop":
		s.state = codey.StreamStateComplete
		return nil, nil
	case "error":
		return nil, s.handleError(data)
	default:
		// ping, content_block_stop and unknown event types carry nothing.
		return nil, nil
	}
}

func (s *stream) handleMessageStart(data string) error {
	var evt sseMessageStart
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return fmt.Errorf("anthropic: failed to parse message_start: %w", err)
	}
	s.reply.Usage.InputTokens = evt.Message.Usage.InputTokens
	if r := evt.Message.Usage.CacheReadInputTokens; r != nil {
		s.reply.Usage.CacheReadTokens = *r
	}
	return nil
}

func (s *stream) handleContentBlockStart(data string) error {
	var evt sseContentBlockStart
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return fmt.Errorf("anthropic: failed to parse content_block_start: %w", err)
	}
	s.blocks[evt.Index] = evt.ContentBlock.Type
	return nil
}

func (s *stream) handleContentBlockDelta(data string) (codey.Event, error) {
	var evt sseContentBlockDelta
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return nil, fmt.Errorf("anthropic: failed to parse content_block_delta: %w", err)
	}

	if _, ok := s.blocks[evt.Index]; !ok {
		return nil, fmt.Errorf("anthropic: delta for unknown block index %d", evt.Index)
	}

	switch evt.Delta.Type {
	case "text_delta":
		if evt.Delta.Text == "" {
			return nil, nil
		}
		s.text.WriteString(evt.Delta.Text)
		return codey.EventTextDelta{Delta: evt.Delta.Text}, nil
	case "thinking_delta":
		if evt.Delta.Thinking == "" {
			return nil, nil
		}
		s.thinking.WriteString(evt.Delta.Thinking)
		return codey.EventThinkingDelta{Delta: evt.Delta.Thinking}, nil
	default:
		// signature_delta is for the API's own bookkeeping.
		return nil, nil
	}
}

func (s *stream) handleMessageDelta(data string) error {
	var evt sseMessageDelta
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return fmt.Errorf("anthropic: failed to parse message_delta: %w", err)
	}

	s.reply.Usage.OutputTokens = evt.Usage.OutputTokens

	if evt.Delta.StopReason != nil {
		s.reply.RawStopReason = *evt.Delta.StopReason
		s.reply.StopReason = mapStopReason(*evt.Delta.StopReason)
	}

	return nil
}

func (s *stream) handleError(data string) error {
	var evt sseError
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return fmt.Errorf("anthropic: failed to parse error event: %w", err)
	}
	return fmt.Errorf("anthropic: %s: %s", evt.Error.Type, evt.Error.Message)
}

func mapStopReason(raw string) codey.StopReason {
	switch raw {
	case "end_turn", "stop_sequence":
		return codey.StopEndTurn
	case "max_tokens":
		return codey.StopLength
	case "refusal":
		return codey.StopSafety
	default:
		return codey.StopUnknown
	}
}
