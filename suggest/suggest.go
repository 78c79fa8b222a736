// Package suggest produces inline completions for the message being typed.
//
// Every edit of the input takes a new ticket. Requests are made for
// tickets only, and a response is applied only while its ticket is still
// the newest one, so late answers to old input never overwrite newer
// ones.
package suggest

import (
	"context"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/fwojciec/codey"
	"go.uber.org/zap"
)

// Policy decides which inputs are worth a completion request.
type Policy struct {
	// MinLength is the minimum input length in runes.
	MinLength int
	// SkipTrailingSpace suppresses requests while the input ends in
	// whitespace.
	SkipTrailingSpace bool
}

// DefaultPolicy returns the stock suppression policy.
func DefaultPolicy() Policy {
	return Policy{MinLength: 5, SkipTrailingSpace: true}
}

// Allow reports whether input should be completed.
func (p Policy) Allow(input string) bool {
	if strings.TrimSpace(input) == "" {
		return false
	}
	if utf8.RuneCountInString(input) < p.MinLength {
		return false
	}
	if p.SkipTrailingSpace {
		r, _ := utf8.DecodeLastRuneInString(input)
		if unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// Ticket identifies one state of the input.
type Ticket struct {
	Gen   uint64
	Input string
}

const systemPrompt = "You complete a message that a developer is typing to a coding assistant. " +
	"Reply with only the few words that should follow the text so far. " +
	"Do not repeat the text and do not answer the message."

// Completer issues completion requests. It is safe for concurrent use.
type Completer struct {
	mu       sync.Mutex
	provider codey.Provider
	policy   Policy
	model    string
	gen      uint64
	current  Ticket
	text     string
	logger   *zap.Logger
}

// Option configures a Completer.
type Option func(*Completer)

// WithPolicy sets the suppression policy.
func WithPolicy(p Policy) Option {
	return func(c *Completer) { c.policy = p }
}

// WithModel sets the model used for completions.
func WithModel(model string) Option {
	return func(c *Completer) { c.model = model }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Completer) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Completer.
func New(p codey.Provider, opts ...Option) *Completer {
	c := &Completer{provider: p, policy: DefaultPolicy(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Next records an input change and returns its ticket. Any shown
// completion is cleared.
func (c *Completer) Next(input string) Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.current = Ticket{Gen: c.gen, Input: input}
	c.text = ""
	return c.current
}

// Latest reports whether t is the newest ticket.
func (c *Completer) Latest(t Ticket) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return t.Gen == c.gen
}

// Current returns the completion for the newest ticket, if one arrived.
func (c *Completer) Current() (Ticket, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.text
}

// Complete requests a completion for t. It returns ok=false without
// error when the policy suppresses t, or when t was superseded before the
// response arrived.
func (c *Completer) Complete(ctx context.Context, t Ticket) (string, bool, error) {
	if !c.policy.Allow(t.Input) || !c.Latest(t) {
		return "", false, nil
	}
	c.mu.Lock()
	model := c.model
	c.mu.Unlock()

	reply, err := codey.Complete(ctx, c.provider, codey.Request{
		Model:        model,
		SystemPrompt: systemPrompt,
		History:      []codey.Turn{codey.UserTurn(t.Input)},
		MaxTokens:    32,
	})
	if err != nil {
		c.logger.Debug("completion failed", zap.Uint64("ticket", t.Gen), zap.Error(err))
		return "", false, err
	}
	text := clean(t.Input, reply.Text)

	c.mu.Lock()
	defer c.mu.Unlock()
	if t.Gen != c.gen {
		return "", false, nil
	}
	c.text = text
	return text, text != "", nil
}

// clean keeps the first line of the reply and drops an echoed prefix.
func clean(input, reply string) string {
	reply = strings.TrimLeft(reply, "\n")
	reply, _, _ = strings.Cut(reply, "\n")
	if rest, ok := strings.CutPrefix(reply, input); ok {
		reply = rest
	}
	return strings.TrimRight(reply, " \t")
}
