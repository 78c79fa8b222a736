package chat

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fwojciec/codey"
	"go.uber.org/zap"
)

// Controller serializes submissions and owns the current actor.
type Controller struct {
	mu       sync.Mutex
	log      Log
	provider codey.Provider
	profiles codey.Profiles
	mode     codey.Mode
	gen      uint64
	actor    *actor
	logger   *zap.Logger
}

// actor is the binding of one session and mode to a provider
// conversation.
type actor struct {
	sessionID string
	profile   codey.Profile
	history   []codey.Message
	// base is the store version at binding time; own counts the store
	// mutations the actor made since.
	base     uint64
	own      uint64
	inflight *Exchange
}

// Option configures a Controller.
type Option func(*Controller)

// WithProfiles sets the mode to model mapping.
func WithProfiles(p codey.Profiles) Option {
	return func(c *Controller) { c.profiles = p }
}

// WithMode sets the initial mode.
func WithMode(m codey.Mode) Option {
	return func(c *Controller) { c.mode = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewController creates a Controller over log and provider.
func NewController(log Log, provider codey.Provider, opts ...Option) *Controller {
	c := &Controller{
		log:      log,
		provider: provider,
		profiles: codey.DefaultProfiles(),
		mode:     codey.ModeVibe,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mode returns the current mode.
func (c *Controller) Mode() codey.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode changes the mode. The current actor is discarded when the mode
// actually changes.
func (c *Controller) SetMode(m codey.Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m == c.mode {
		return
	}
	c.mode = m
	c.invalidateLocked()
}

// Generation returns the current actor generation.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Busy reports whether an exchange is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.actor != nil && c.actor.inflight != nil
}

// Activate switches the active session.
func (c *Controller) Activate(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.log.ActiveID() == id {
		return nil
	}
	if err := c.log.Activate(id); err != nil {
		return err
	}
	c.invalidateLocked()
	return nil
}

// NewSession creates and activates an empty session.
func (c *Controller) NewSession() codey.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked()
	return c.log.Create(codey.DefaultSessionTitle)
}

// DeleteSession deletes a session, discarding the actor when it was bound
// to it or when the active session changes as a result. Deleting the last
// session starts a fresh one.
func (c *Controller) DeleteSession(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if (c.actor != nil && c.actor.sessionID == id) || c.log.ActiveID() == id {
		c.invalidateLocked()
	}
	if err := c.log.Delete(id); err != nil {
		return err
	}
	if c.log.ActiveID() == "" {
		c.log.Create(codey.DefaultSessionTitle)
	}
	return nil
}

// Stop cancels the in-flight exchange, if any. Its partial message is kept.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.actor != nil && c.actor.inflight != nil {
		c.actor.inflight.stop()
	}
}

// Submit appends the user message and an empty assistant message to the
// active session and returns the exchange that will fill it. Callers must
// call Run on the returned exchange.
//
// Empty text without an attachment, or an attachment that cannot be
// decoded, fails with codey.ErrUserInputRejected. A second submit while an
// exchange is in flight fails with codey.ErrBusy. When no session exists a
// new one is created.
func (c *Controller) Submit(text string, att *codey.Attachment) (*Exchange, error) {
	text = strings.TrimSpace(text)
	if text == "" && att == nil {
		return nil, fmt.Errorf("empty message: %w", codey.ErrUserInputRejected)
	}
	if att != nil {
		if _, err := att.Data(); err != nil {
			return nil, fmt.Errorf("%w: %w", codey.ErrUserInputRejected, err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	sid := c.log.ActiveID()
	if sid == "" {
		sid = c.log.Create(codey.DefaultSessionTitle).ID
	}
	a, err := c.bindLocked(sid)
	if err != nil {
		return nil, err
	}
	if a.inflight != nil {
		return nil, fmt.Errorf("submit: %w", codey.ErrBusy)
	}
	sess, err := c.log.Session(sid)
	if err != nil {
		return nil, err
	}
	if _, streaming := sess.Streaming(); streaming {
		return nil, fmt.Errorf("submit: %w", codey.ErrBusy)
	}
	first := true
	for _, m := range sess.Messages {
		if m.Sender == codey.RoleUser {
			first = false
			break
		}
	}

	pending := codey.Message{Sender: codey.RoleUser, Text: text, Attachment: att}
	turns, err := History(append(a.history[:len(a.history):len(a.history)], pending))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", codey.ErrUserInputRejected, err)
	}
	req := codey.Request{
		Model:          a.profile.Model,
		SystemPrompt:   a.profile.SystemPrompt,
		ThinkingBudget: a.profile.ThinkingBudget,
		History:        turns,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := c.log.AppendUser(sid, text, att)
	if err != nil {
		return nil, err
	}
	a.own++
	anchor, err := c.log.AppendAssistant(sid)
	if err != nil {
		return nil, err
	}
	a.own++

	e := &Exchange{
		c:         c,
		a:         a,
		gen:       c.gen,
		sessionID: sid,
		user:      user,
		anchor:    anchor,
		req:       req,
		first:     first,
	}
	a.inflight = e
	c.logger.Debug("exchange submitted",
		zap.String("session", sid),
		zap.Int64("message", anchor.ID),
		zap.String("model", req.Model),
		zap.Uint64("generation", e.gen),
	)
	return e, nil
}

// bindLocked returns the actor for sessionID, binding a new one when the
// current actor is missing, belongs to another session, or its history
// snapshot is out of date.
func (c *Controller) bindLocked(sessionID string) (*actor, error) {
	if a := c.actor; a != nil && a.sessionID == sessionID && c.log.Version(sessionID) == a.base+a.own {
		return a, nil
	}
	if c.actor != nil {
		c.invalidateLocked()
	}
	sess, err := c.log.Session(sessionID)
	if err != nil {
		return nil, err
	}
	c.actor = &actor{
		sessionID: sessionID,
		profile:   c.profiles.For(c.mode),
		history:   committedOnly(sess.Messages),
		base:      c.log.Version(sessionID),
	}
	return c.actor, nil
}

// invalidateLocked discards the current actor. An in-flight exchange is
// canceled and its partial message frozen, or removed while still empty.
func (c *Controller) invalidateLocked() {
	c.gen++
	a := c.actor
	c.actor = nil
	if a == nil || a.inflight == nil {
		return
	}
	e := a.inflight
	a.inflight = nil
	e.stop()
	c.freezeLocked(e.sessionID, e.anchor.ID)
	c.logger.Debug("exchange abandoned",
		zap.String("session", e.sessionID),
		zap.Int64("message", e.anchor.ID),
		zap.Uint64("generation", e.gen),
	)
}

// freezeLocked finalizes a partial message, or removes it while empty.
// It reports whether the store was changed.
func (c *Controller) freezeLocked(sessionID string, msgID int64) bool {
	sess, err := c.log.Session(sessionID)
	if err != nil {
		return false
	}
	for _, m := range sess.Messages {
		if m.ID != msgID {
			continue
		}
		if m.Text == "" {
			err = c.log.Remove(sessionID, msgID)
		} else {
			_, err = c.log.Finalize(sessionID, msgID)
		}
		if err != nil {
			c.logger.Warn("freeze partial message", zap.Int64("message", msgID), zap.Error(err))
			return false
		}
		return true
	}
	return false
}
