package chat

import (
	"context"
	"io"

	"github.com/fwojciec/codey"
	"go.uber.org/zap"
)

// Exchange is one submitted turn: the user message, the assistant message
// being filled and the request sent for it.
type Exchange struct {
	c         *Controller
	a         *actor
	gen       uint64
	sessionID string
	user      codey.Message
	anchor    codey.Message
	req       codey.Request
	first     bool

	// Guarded by c.mu.
	cancel  context.CancelFunc
	stopped bool
	done    bool
}

// SessionID returns the session the exchange belongs to.
func (e *Exchange) SessionID() string { return e.sessionID }

// User returns the submitted user message.
func (e *Exchange) User() codey.Message { return e.user }

// Anchor returns the assistant message as it was created, empty.
func (e *Exchange) Anchor() codey.Message { return e.anchor }

// Request returns the request sent to the provider.
func (e *Exchange) Request() codey.Request { return e.req }

// stop cancels the exchange. Must be called with c.mu held.
func (e *Exchange) stop() {
	e.stopped = true
	if e.cancel != nil {
		e.cancel()
	}
}

// Run streams the response into the assistant message, calling publish
// after each applied delta and once at the end. publish is never called
// with the controller lock held. Run returns the terminal state.
//
// Transport failures remove the partial message and append a single
// notice; the returned Update carries the error wrapped with
// codey.ErrTransport. Deltas arriving after the exchange was superseded
// are dropped.
func (e *Exchange) Run(ctx context.Context, publish func(Update)) State {
	if publish == nil {
		publish = func(Update) {}
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := e.c
	c.mu.Lock()
	if e.done {
		c.mu.Unlock()
		return StateAbandoned
	}
	if e.gen != c.gen || e.stopped {
		st := e.abortLocked()
		c.mu.Unlock()
		publish(st)
		return st.State
	}
	e.cancel = cancel
	c.mu.Unlock()

	publish(newUpdate(e.sessionID, e.anchor, StateAwaitingFirstDelta))

	stream, err := c.provider.Stream(ctx, e.req)
	if err != nil {
		return e.fail(ctx, err, publish)
	}
	defer stream.Close()

	for {
		evt, err := stream.Next()
		if err == io.EOF {
			return e.finish(publish)
		}
		if err != nil {
			return e.fail(ctx, err, publish)
		}
		d, ok := evt.(codey.EventTextDelta)
		if !ok || d.Delta == "" {
			continue
		}

		c.mu.Lock()
		if e.gen != c.gen || e.stopped {
			st := e.abortLocked()
			c.mu.Unlock()
			c.logger.Debug("delta dropped", zap.String("session", e.sessionID), zap.Uint64("generation", e.gen))
			publish(st)
			return st.State
		}
		msg, err := c.log.AppendDelta(e.sessionID, e.anchor.ID, d.Delta)
		if err != nil {
			// The message was removed or frozen behind the actor's back.
			e.done = true
			e.release()
			c.mu.Unlock()
			c.logger.Warn("apply delta", zap.String("session", e.sessionID), zap.Error(err))
			publish(Update{SessionID: e.sessionID, State: StateAbandoned, Err: err})
			return StateAbandoned
		}
		e.a.own++
		c.mu.Unlock()

		publish(newUpdate(e.sessionID, msg, StateStreaming))
	}
}

// finish freezes the message, records the exchange in the actor's history
// and names the session after its first exchange.
func (e *Exchange) finish(publish func(Update)) State {
	c := e.c
	c.mu.Lock()
	if e.gen != c.gen || e.stopped {
		st := e.abortLocked()
		c.mu.Unlock()
		publish(st)
		return st.State
	}
	e.done = true
	e.release()
	msg, err := c.log.Finalize(e.sessionID, e.anchor.ID)
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("finalize message", zap.String("session", e.sessionID), zap.Error(err))
		publish(Update{SessionID: e.sessionID, State: StateAbandoned, Err: err})
		return StateAbandoned
	}
	e.a.own++
	e.a.history = append(e.a.history, e.user)
	if committed(msg) {
		e.a.history = append(e.a.history, msg)
	}

	var title string
	if e.first {
		title = Title(e.user.Text, e.user.Attachment)
		if err := c.log.Rename(e.sessionID, title); err != nil {
			c.logger.Warn("rename session", zap.String("session", e.sessionID), zap.Error(err))
			title = ""
		}
	}
	c.mu.Unlock()

	u := newUpdate(e.sessionID, msg, StateFinalized)
	u.Title = title
	publish(u)
	return StateFinalized
}

// fail handles a stream error. A canceled or superseded exchange keeps its
// partial text; any other failure replaces it with the error notice.
func (e *Exchange) fail(ctx context.Context, cause error, publish func(Update)) State {
	c := e.c
	c.mu.Lock()
	if e.gen != c.gen || e.stopped || ctx.Err() != nil {
		st := e.abortLocked()
		c.mu.Unlock()
		publish(st)
		return st.State
	}
	e.done = true
	e.release()
	err := codey.AsTransport(cause)
	c.logger.Warn("exchange failed", zap.String("session", e.sessionID), zap.Error(err))

	if rmErr := c.log.Remove(e.sessionID, e.anchor.ID); rmErr != nil {
		c.logger.Warn("remove partial message", zap.String("session", e.sessionID), zap.Error(rmErr))
	} else {
		e.a.own++
	}
	notice, nErr := c.log.AppendNotice(e.sessionID, codey.ErrorNotice)
	if nErr != nil {
		c.logger.Warn("append error notice", zap.String("session", e.sessionID), zap.Error(nErr))
	} else {
		e.a.own++
	}
	c.mu.Unlock()

	u := newUpdate(e.sessionID, notice, StateErrored)
	u.Removed = e.anchor.ID
	u.Err = err
	publish(u)
	return StateErrored
}

// abortLocked ends an exchange that was superseded or stopped. When the
// actor is still current the partial message is frozen here and the turn
// joins the actor's history; otherwise the controller already froze it
// while discarding the actor.
func (e *Exchange) abortLocked() Update {
	u := Update{SessionID: e.sessionID, State: StateAbandoned, Removed: e.anchor.ID}
	if e.done {
		return u
	}
	e.done = true
	current := e.gen == e.c.gen && e.a.inflight == e
	if current {
		e.release()
		if e.c.freezeLocked(e.sessionID, e.anchor.ID) {
			e.a.own++
		}
		e.a.history = append(e.a.history, e.user)
	}
	sess, err := e.c.log.Session(e.sessionID)
	if err != nil {
		return u
	}
	for _, m := range sess.Messages {
		if m.ID == e.anchor.ID {
			if current && committed(m) {
				e.a.history = append(e.a.history, m)
			}
			return newUpdate(e.sessionID, m, StateAbandoned)
		}
	}
	return u
}

// release clears the actor's in-flight slot if it still points at e.
func (e *Exchange) release() {
	if e.a.inflight == e {
		e.a.inflight = nil
	}
}
