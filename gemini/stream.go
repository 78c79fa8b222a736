package gemini

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/fwojciec/codey"
	"google.golang.org/genai"
)

// assembler accumulates response chunks into a reply and a queue of
// pending events.
type assembler struct {
	text     strings.Builder
	thinking strings.Builder
	reply    codey.Reply
	pending  []codey.Event
	stopSet  bool
}

// add processes one chunk. Nil and empty chunks are ignored.
func (a *assembler) add(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return nil
	}
	if len(resp.Candidates) == 0 && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		a.reply.StopReason = codey.StopSafety
		a.reply.RawStopReason = string(resp.PromptFeedback.BlockReason)
		a.stopSet = true
		return fmt.Errorf("gemini: prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	if u := resp.UsageMetadata; u != nil {
		a.reply.Usage = codey.Usage{
			InputTokens:     max(int(u.PromptTokenCount)-int(u.CachedContentTokenCount), 0),
			OutputTokens:    int(u.CandidatesTokenCount),
			ThinkingTokens:  int(u.ThoughtsTokenCount),
			CacheReadTokens: int(u.CachedContentTokenCount),
		}
	}
	if len(resp.Candidates) == 0 {
		return nil
	}
	cand := resp.Candidates[0]
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			if p == nil || p.Text == "" {
				continue
			}
			if p.Thought {
				a.thinking.WriteString(p.Text)
				a.pending = append(a.pending, codey.EventThinkingDelta{Delta: p.Text})
				continue
			}
			a.text.WriteString(p.Text)
			a.pending = append(a.pending, codey.EventTextDelta{Delta: p.Text})
		}
	}
	if cand.FinishReason != "" {
		a.reply.StopReason = mapFinishReason(cand.FinishReason)
		a.reply.RawStopReason = string(cand.FinishReason)
		a.stopSet = true
	}
	return nil
}

// drainEvents finishes the reply text.
func (a *assembler) drainEvents() {
	a.reply.Text = a.text.String()
	a.reply.Thinking = a.thinking.String()
	if !a.stopSet {
		a.reply.StopReason = codey.StopEndTurn
		a.reply.RawStopReason = string(codey.StopEndTurn)
	}
}

// stream implements [codey.Stream] by wrapping the genai SDK's streaming
// iterator.
type stream struct {
	ctx   context.Context
	pull  func() (*genai.GenerateContentResponse, error, bool)
	stop  func()
	state codey.StreamState
	asm   assembler
	err   error
}

// Interface compliance check.
var _ codey.Stream = (*stream)(nil)

// NewStreamFromIter wraps a genai response iterator in a [codey.Stream].
// Exported for testing.
func NewStreamFromIter(ctx context.Context, seq iter.Seq2[*genai.GenerateContentResponse, error]) codey.Stream {
	next, stop := iter.Pull2(seq)
	return &stream{
		ctx:   ctx,
		pull:  next,
		stop:  stop,
		state: codey.StreamStateNew,
	}
}

func (s *stream) Next() (codey.Event, error) {
	switch s.state {
	case codey.StreamStateComplete:
		return nil, io.EOF
	case codey.StreamStateError:
		return nil, s.err
	case codey.StreamStateClosed:
		return nil, fmt.Errorf("gemini: %w", codey.ErrStreamClosed)
	}
	for {
		if len(s.asm.pending) > 0 {
			evt := s.asm.pending[0]
			s.asm.pending = s.asm.pending[1:]
			s.state = codey.StreamStateStreaming
			return evt, nil
		}
		if err := s.ctx.Err(); err != nil {
			return nil, s.fail(codey.StopAborted, err)
		}
		resp, err, ok := s.pull()
		if !ok {
			s.asm.drainEvents()
			s.state = codey.StreamStateComplete
			return nil, io.EOF
		}
		if err != nil {
			stop := codey.StopError
			if s.ctx.Err() != nil {
				stop = codey.StopAborted
			}
			return nil, s.fail(stop, err)
		}
		if err := s.asm.add(resp); err != nil {
			s.asm.drainEvents()
			s.state = codey.StreamStateError
			s.err = err
			return nil, err
		}
	}
}

func (s *stream) fail(stop codey.StopReason, err error) error {
	s.asm.drainEvents()
	s.asm.reply.StopReason = stop
	s.asm.reply.RawStopReason = string(stop)
	s.state = codey.StreamStateError
	s.err = fmt.Errorf("gemini: %w", err)
	return s.err
}

func (s *stream) State() codey.StreamState {
	return s.state
}

func (s *stream) Reply() (codey.Reply, error) {
	if s.state == codey.StreamStateNew {
		return codey.Reply{}, fmt.Errorf("gemini: %w", codey.ErrStreamNotReady)
	}
	r := s.asm.reply
	r.Text = s.asm.text.String()
	r.Thinking = s.asm.thinking.String()
	return r, nil
}

func (s *stream) Close() error {
	if s.state != codey.StreamStateComplete && s.state != codey.StreamStateError {
		s.state = codey.StreamStateClosed
		s.asm.reply.StopReason = codey.StopAborted
		s.asm.reply.RawStopReason = string(codey.StopAborted)
	}
	s.stop()
	return nil
}

func mapFinishReason(r genai.FinishReason) codey.StopReason {
	switch r {
	case genai.FinishReasonStop:
		return codey.StopEndTurn
	case genai.FinishReasonMaxTokens:
		return codey.StopLength
	case genai.FinishReasonSafety, genai.FinishReasonRecitation, genai.FinishReasonBlocklist,
		genai.FinishReasonProhibitedContent, genai.FinishReasonSPII:
		return codey.StopSafety
	default:
		return codey.StopUnknown
	}
}
