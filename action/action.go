// Package action runs one-shot refactor and explain requests against a
// single code block of a message.
//
// Each (block, kind) pair has a slot moving Idle → Pending → Done|Failed.
// A newer request for the same slot supersedes an older pending one; the
// older result is discarded when it arrives.
package action

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/fwojciec/codey"
	"github.com/fwojciec/codey/diff"
	"github.com/fwojciec/codey/markdown"
	"github.com/fwojciec/codey/segment"
	"go.uber.org/zap"
)

// Kind selects the action.
type Kind int

const (
	Refactor Kind = iota
	Explain
)

func (k Kind) String() string {
	if k == Explain {
		return "explain"
	}
	return "refactor"
}

// Status is the state of an action slot.
type Status int

const (
	Idle Status = iota
	Pending
	Done
	Failed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Key identifies a code block: the message it belongs to and its index
// among the message's code segments.
type Key struct {
	MessageID int64
	Block     int
}

// Result is the state of one slot.
type Result struct {
	Kind   Kind
	Status Status
	// Original is the code the action ran on.
	Original string
	// Replacement and Runs are set by a refactor that changed the code.
	// Unchanged is set when the refactored code is identical after
	// trimming; no diff is shown then.
	Replacement string
	Runs        []diff.Run
	Unchanged   bool
	// Explanation is the markdown text returned by explain.
	Explanation string
	// Err is the inline error text of a failed action.
	Err string
}

// Doc returns the explanation, or the error text of a failed explain,
// parsed for display.
func (r Result) Doc() markdown.Doc {
	if r.Status == Failed {
		return markdown.Parse(r.Err)
	}
	return markdown.Parse(r.Explanation)
}

type slotKey struct {
	Key
	Kind
}

type slot struct {
	gen    uint64
	result Result
}

// Coordinator tracks action slots. It is safe for concurrent use.
type Coordinator struct {
	mu       sync.Mutex
	provider codey.Provider
	model    string
	slots    map[slotKey]*slot
	logger   *zap.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithModel sets the model used for requests.
func WithModel(model string) Option {
	return func(c *Coordinator) { c.model = model }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCoordinator creates a Coordinator that sends requests to p.
func NewCoordinator(p codey.Provider, opts ...Option) *Coordinator {
	c := &Coordinator{
		provider: p,
		slots:    make(map[slotKey]*slot),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetModel changes the model used by subsequent requests.
func (c *Coordinator) SetModel(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = model
}

// Get returns the current result of a slot. Unknown slots are Idle.
func (c *Coordinator) Get(key Key, kind Kind) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.slots[slotKey{key, kind}]; ok {
		return s.result
	}
	return Result{Kind: kind}
}

// Dismiss returns a slot to Idle. A pending request for it is discarded
// when it completes.
func (c *Coordinator) Dismiss(key Key, kind Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.slots[slotKey{key, kind}]; ok {
		s.gen++
		s.result = Result{Kind: kind}
	}
}

// Forget drops every slot of a message.
func (c *Coordinator) Forget(messageID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.slots {
		if k.MessageID == messageID {
			delete(c.slots, k)
		}
	}
}

// Refactor marks the slot Pending and returns the job that fills it.
func (c *Coordinator) Refactor(key Key, code segment.Code) *Job {
	return c.start(key, Refactor, code)
}

// Explain marks the slot Pending and returns the job that fills it.
func (c *Coordinator) Explain(key Key, code segment.Code) *Job {
	return c.start(key, Explain, code)
}

func (c *Coordinator) start(key Key, kind Kind, code segment.Code) *Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	sk := slotKey{key, kind}
	s, ok := c.slots[sk]
	if !ok {
		s = &slot{}
		c.slots[sk] = s
	}
	s.gen++
	s.result = Result{Kind: kind, Status: Pending, Original: code.Text()}

	var prompt string
	if kind == Refactor {
		prompt = refactorPrompt(code)
	} else {
		prompt = explainPrompt(code)
	}
	return &Job{
		c:    c,
		sk:   sk,
		gen:  s.gen,
		code: code,
		req: codey.Request{
			Model:   c.model,
			History: []codey.Turn{codey.UserTurn(prompt)},
		},
	}
}

// Job is one pending action request.
type Job struct {
	c    *Coordinator
	sk   slotKey
	gen  uint64
	code segment.Code
	req  codey.Request
}

// Request returns the request the job sends.
func (j *Job) Request() codey.Request { return j.req }

// Run performs the request and stores its result. It reports false when
// the slot was superseded or dismissed meanwhile, in which case the result
// is discarded.
func (j *Job) Run(ctx context.Context) (Result, bool) {
	reply, err := codey.Complete(ctx, j.c.provider, j.req)

	res := Result{Kind: j.sk.Kind, Original: j.code.Text()}
	switch {
	case err != nil:
		res.Status = Failed
		res.Err = failureText(j.sk.Kind, err)
		j.c.logger.Warn("code action failed",
			zap.Stringer("kind", j.sk.Kind),
			zap.Int64("message", j.sk.MessageID),
			zap.Int("block", j.sk.Block),
			zap.Error(err),
		)
	case j.sk.Kind == Refactor:
		res.Status = Done
		res.Replacement = ExtractCode(reply.Text)
		if strings.TrimSpace(res.Replacement) == strings.TrimSpace(res.Original) {
			res.Unchanged = true
		} else {
			res.Runs = diff.Lines(res.Original, res.Replacement)
		}
	default:
		res.Status = Done
		res.Explanation = strings.TrimSpace(reply.Text)
	}

	j.c.mu.Lock()
	defer j.c.mu.Unlock()
	s, ok := j.c.slots[j.sk]
	if !ok || s.gen != j.gen {
		return res, false
	}
	s.result = res
	return res, true
}

func failureText(kind Kind, err error) string {
	if kind == Explain {
		return fmt.Sprintf("> **Error explaining code:** %v", err)
	}
	return fmt.Sprintf("// Error refactoring code: %v", err)
}
