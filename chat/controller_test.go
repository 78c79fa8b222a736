package chat_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/fwojciec/codey"
	"github.com/fwojciec/codey/chat"
	"github.com/fwojciec/codey/mock"
	"github.com/fwojciec/codey/segment"
	"github.com/fwojciec/codey/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects published updates.
type recorder struct {
	mu      sync.Mutex
	updates []chat.Update
}

func (r *recorder) publish(u chat.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *recorder) states() []chat.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]chat.State, len(r.updates))
	for i, u := range r.updates {
		out[i] = u.State
	}
	return out
}

func (r *recorder) last() chat.Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates[len(r.updates)-1]
}

// scripted returns a provider that answers every request with the given
// deltas and records requests.
func scripted(reqs *[]codey.Request, err error, deltas ...string) *mock.Provider {
	var mu sync.Mutex
	return &mock.Provider{StreamFn: func(_ context.Context, req codey.Request) (codey.Stream, error) {
		mu.Lock()
		defer mu.Unlock()
		if reqs != nil {
			*reqs = append(*reqs, req)
		}
		return mock.Script(err, deltas...), nil
	}}
}

// channelStream yields deltas from ch, ending at close. It ignores
// cancellation unless honorCtx is set.
func channelStream(ctx context.Context, ch <-chan string, honorCtx bool) *mock.Stream {
	done := ctx.Done()
	if !honorCtx {
		done = nil
	}
	return &mock.Stream{NextFn: func() (codey.Event, error) {
		select {
		case d, ok := <-ch:
			if !ok {
				return nil, io.EOF
			}
			return codey.EventTextDelta{Delta: d}, nil
		case <-done:
			return nil, ctx.Err()
		}
	}}
}

func newLog(t *testing.T) *store.Store {
	t.Helper()
	return store.Open(context.Background())
}

func TestSubmit_StreamsInOrder(t *testing.T) {
	t.Parallel()

	log := newLog(t)
	var reqs []codey.Request
	ctl := chat.NewController(log, scripted(&reqs, nil, "Hel", "lo, ", "world"))

	e, err := ctl.Submit("Fix this", nil)
	require.NoError(t, err)

	// The user message and the empty anchor are visible before Run.
	sess, err := log.Active()
	require.NoError(t, err)
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, "Fix this", sess.Messages[0].Text)
	assert.True(t, sess.Messages[1].Pending())
	assert.True(t, ctl.Busy())

	rec := &recorder{}
	state := e.Run(context.Background(), rec.publish)
	assert.Equal(t, chat.StateFinalized, state)
	assert.False(t, ctl.Busy())

	assert.Equal(t, []chat.State{
		chat.StateAwaitingFirstDelta,
		chat.StateStreaming,
		chat.StateStreaming,
		chat.StateStreaming,
		chat.StateFinalized,
	}, rec.states())
	assert.Equal(t, "Hel", rec.updates[1].Message.Text)
	assert.Equal(t, "Hello, ", rec.updates[2].Message.Text)

	final := rec.last()
	assert.Equal(t, "Hello, world", final.Message.Text)
	assert.False(t, final.Message.Streaming)
	assert.Equal(t, "Fix this", final.Title)

	sess, err = log.Active()
	require.NoError(t, err)
	assert.Equal(t, "Fix this", sess.Title)
	assert.Equal(t, "Hello, world", sess.Messages[1].Text)
	_, streaming := sess.Streaming()
	assert.False(t, streaming)

	require.Len(t, reqs, 1)
	assert.Equal(t, "gemini-2.5-flash", reqs[0].Model)
	assert.Equal(t, codey.SystemPrompt, reqs[0].SystemPrompt)
	assert.Equal(t, []codey.Turn{codey.UserTurn("Fix this")}, reqs[0].History)
}

func TestSubmit_SegmentsFollowDeltas(t *testing.T) {
	t.Parallel()

	log := newLog(t)
	ctl := chat.NewController(log, scripted(nil, nil, "Try:\n```go\nfmt.", "Println()\n```\n"))
	e, err := ctl.Submit("print", nil)
	require.NoError(t, err)

	rec := &recorder{}
	e.Run(context.Background(), rec.publish)

	// Mid-stream the unterminated fence is still prose.
	require.Len(t, rec.updates[1].Segments, 1)
	assert.IsType(t, segment.Prose{}, rec.updates[1].Segments[0])

	final := rec.last().Segments
	require.Len(t, final, 3)
	code, ok := final[1].(segment.Code)
	require.True(t, ok)
	assert.Equal(t, "go", code.Language())
	assert.Equal(t, "fmt.Println()", code.Text())
}

func TestSubmit_Rejections(t *testing.T) {
	t.Parallel()

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		log := newLog(t)
		ctl := chat.NewController(log, scripted(nil, nil))
		_, err := ctl.Submit("   \n", nil)
		assert.ErrorIs(t, err, codey.ErrUserInputRejected)
		sess, err := log.Active()
		require.NoError(t, err)
		assert.Empty(t, sess.Messages)
	})

	t.Run("undecodable attachment", func(t *testing.T) {
		t.Parallel()
		log := newLog(t)
		ctl := chat.NewController(log, scripted(nil, nil))
		_, err := ctl.Submit("look", &codey.Attachment{Name: "x", Content: "data:image/png;base64,@@@"})
		assert.ErrorIs(t, err, codey.ErrUserInputRejected)
	})

	t.Run("busy while streaming", func(t *testing.T) {
		t.Parallel()
		log := newLog(t)
		ctl := chat.NewController(log, scripted(nil, nil, "ok"))
		e, err := ctl.Submit("first", nil)
		require.NoError(t, err)

		_, err = ctl.Submit("second", nil)
		assert.ErrorIs(t, err, codey.ErrBusy)

		sess, err := log.Active()
		require.NoError(t, err)
		assert.Len(t, sess.Messages, 2, "rejected submit must not touch the log")

		e.Run(context.Background(), nil)
		_, err = ctl.Submit("third", nil)
		assert.NoError(t, err)
	})
}

func TestSubmit_CreatesSessionLazily(t *testing.T) {
	t.Parallel()

	log := newLog(t)
	require.NoError(t, log.Delete(log.ActiveID()))
	require.Empty(t, log.List())

	ctl := chat.NewController(log, scripted(nil, nil, "hi"))
	e, err := ctl.Submit("hello", nil)
	require.NoError(t, err)
	e.Run(context.Background(), nil)

	list := log.List()
	require.Len(t, list, 1)
	assert.Equal(t, list[0].ID, log.ActiveID())
	assert.Equal(t, "hello", list[0].Title)
}

func TestSubmit_AttachmentOnly(t *testing.T) {
	t.Parallel()

	log := newLog(t)
	var reqs []codey.Request
	ctl := chat.NewController(log, scripted(&reqs, nil, "A diagram."))
	att := codey.NewAttachment("diagram.png", "image/png", []byte("png"))

	e, err := ctl.Submit("", &att)
	require.NoError(t, err)
	rec := &recorder{}
	e.Run(context.Background(), rec.publish)

	assert.Equal(t, "File: diagram.png", rec.last().Title)
	require.Len(t, reqs, 1)
	assert.Equal(t, []codey.Part{codey.BlobPart{MIMEType: "image/png", Data: []byte("png")}}, reqs[0].History[0].Parts)
}

func TestSubmit_TransportFailure(t *testing.T) {
	t.Parallel()

	t.Run("mid-stream", func(t *testing.T) {
		t.Parallel()
		log := newLog(t)
		ctl := chat.NewController(log, scripted(nil, errors.New("connection reset"), "par", "tial"))
		e, err := ctl.Submit("Fix this", nil)
		require.NoError(t, err)

		rec := &recorder{}
		state := e.Run(context.Background(), rec.publish)
		assert.Equal(t, chat.StateErrored, state)

		last := rec.last()
		assert.ErrorIs(t, last.Err, codey.ErrTransport)
		assert.Equal(t, e.Anchor().ID, last.Removed)
		assert.True(t, last.Message.Notice)

		sess, err := log.Active()
		require.NoError(t, err)
		require.Len(t, sess.Messages, 2)
		assert.Equal(t, codey.RoleUser, sess.Messages[0].Sender)
		notice := sess.Messages[1]
		assert.Equal(t, codey.ErrorNotice, notice.Text)
		assert.False(t, notice.Streaming)
		assert.Equal(t, codey.DefaultSessionTitle, sess.Title, "failed first exchange leaves the title")
		assert.False(t, ctl.Busy())
	})

	t.Run("opening the stream", func(t *testing.T) {
		t.Parallel()
		log := newLog(t)
		p := &mock.Provider{StreamFn: func(context.Context, codey.Request) (codey.Stream, error) {
			return nil, errors.New("401")
		}}
		ctl := chat.NewController(log, p)
		e, err := ctl.Submit("hi", nil)
		require.NoError(t, err)
		assert.Equal(t, chat.StateErrored, e.Run(context.Background(), nil))

		sess, err := log.Active()
		require.NoError(t, err)
		require.Len(t, sess.Messages, 2)
		assert.True(t, sess.Messages[1].Notice)
	})

	t.Run("failed turn is not sent again", func(t *testing.T) {
		t.Parallel()
		log := newLog(t)
		var (
			reqs  []codey.Request
			calls int
		)
		p := &mock.Provider{StreamFn: func(_ context.Context, req codey.Request) (codey.Stream, error) {
			reqs = append(reqs, req)
			calls++
			if calls == 1 {
				return mock.Script(errors.New("boom"), "x"), nil
			}
			return mock.Script(nil, "fine"), nil
		}}
		ctl := chat.NewController(log, p)
		e, err := ctl.Submit("one", nil)
		require.NoError(t, err)
		e.Run(context.Background(), nil)

		e, err = ctl.Submit("two", nil)
		require.NoError(t, err)
		e.Run(context.Background(), nil)

		require.Len(t, reqs, 2)
		assert.Equal(t, []codey.Turn{codey.UserTurn("two")}, reqs[1].History)
	})
}

func TestSubmit_HistoryAcrossExchanges(t *testing.T) {
	t.Parallel()

	log := newLog(t)
	var reqs []codey.Request
	ctl := chat.NewController(log, scripted(&reqs, nil, "answer"))

	for _, q := range []string{"first", "second"} {
		e, err := ctl.Submit(q, nil)
		require.NoError(t, err)
		e.Run(context.Background(), nil)
	}

	require.Len(t, reqs, 2)
	assert.Equal(t, []codey.Turn{
		codey.UserTurn("first"),
		{Role: codey.RoleAssistant, Parts: []codey.Part{codey.TextPart{Text: "answer"}}},
		codey.UserTurn("second"),
	}, reqs[1].History)

	sess, err := log.Active()
	require.NoError(t, err)
	assert.Equal(t, "first", sess.Title, "title is derived once")
}

func TestController_RebindsOnExternalChange(t *testing.T) {
	t.Parallel()

	log := newLog(t)
	var reqs []codey.Request
	ctl := chat.NewController(log, scripted(&reqs, nil, "answer"))
	e, err := ctl.Submit("first", nil)
	require.NoError(t, err)
	e.Run(context.Background(), nil)
	gen := ctl.Generation()

	// Someone else edits the history.
	sess, err := log.Active()
	require.NoError(t, err)
	require.NoError(t, log.Remove(sess.ID, sess.Messages[1].ID))

	e, err = ctl.Submit("second", nil)
	require.NoError(t, err)
	e.Run(context.Background(), nil)

	assert.Greater(t, ctl.Generation(), gen)
	require.Len(t, reqs, 2)
	assert.Equal(t, []codey.Turn{{Role: codey.RoleUser, Parts: []codey.Part{
		codey.TextPart{Text: "first"}, codey.TextPart{Text: "second"},
	}}}, reqs[1].History)
}

func TestController_ModeSwitchDropsLateDeltas(t *testing.T) {
	t.Parallel()

	log := newLog(t)
	ch := make(chan string)
	var reqs []codey.Request
	p := &mock.Provider{StreamFn: func(ctx context.Context, req codey.Request) (codey.Stream, error) {
		reqs = append(reqs, req)
		return channelStream(ctx, ch, false), nil
	}}
	ctl := chat.NewController(log, p)
	e, err := ctl.Submit("explain", nil)
	require.NoError(t, err)

	streamed := make(chan struct{}, 4)
	done := make(chan chat.State, 1)
	rec := &recorder{}
	go func() {
		done <- e.Run(context.Background(), func(u chat.Update) {
			rec.publish(u)
			if u.State == chat.StateStreaming {
				streamed <- struct{}{}
			}
		})
	}()

	ch <- "partial"
	<-streamed
	gen := ctl.Generation()

	ctl.SetMode(codey.ModeReasoning)
	assert.Equal(t, gen+1, ctl.Generation())
	assert.False(t, ctl.Busy())

	ch <- " late"
	assert.Equal(t, chat.StateAbandoned, <-done)
	close(ch)

	sess, err := log.Active()
	require.NoError(t, err)
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, "partial", sess.Messages[1].Text)
	assert.False(t, sess.Messages[1].Streaming)

	// The next submit uses the new mode's profile.
	next, err := ctl.Submit("again", nil)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", next.Request().Model)
	assert.Equal(t, codey.ReasoningBudget, next.Request().ThinkingBudget)
	ctl.Stop()
	assert.Equal(t, chat.StateAbandoned, next.Run(context.Background(), nil))
}

func TestController_SessionSwitchRemovesEmptyAnchor(t *testing.T) {
	t.Parallel()

	log := newLog(t)
	first := log.ActiveID()
	ch := make(chan string)
	p := &mock.Provider{StreamFn: func(ctx context.Context, _ codey.Request) (codey.Stream, error) {
		return channelStream(ctx, ch, true), nil
	}}
	ctl := chat.NewController(log, p)
	e, err := ctl.Submit("hi", nil)
	require.NoError(t, err)

	opened := make(chan struct{})
	done := make(chan chat.State, 1)
	go func() {
		done <- e.Run(context.Background(), func(u chat.Update) {
			if u.State == chat.StateAwaitingFirstDelta {
				close(opened)
			}
		})
	}()
	<-opened

	other := ctl.NewSession()
	assert.Equal(t, other.ID, log.ActiveID())
	assert.Equal(t, chat.StateAbandoned, <-done)

	sess, err := log.Session(first)
	require.NoError(t, err)
	require.Len(t, sess.Messages, 1, "empty partial message is removed")
	assert.Equal(t, codey.RoleUser, sess.Messages[0].Sender)
}

func TestController_StopKeepsPartial(t *testing.T) {
	t.Parallel()

	log := newLog(t)
	ch := make(chan string)
	p := &mock.Provider{StreamFn: func(ctx context.Context, _ codey.Request) (codey.Stream, error) {
		return channelStream(ctx, ch, true), nil
	}}
	ctl := chat.NewController(log, p)
	e, err := ctl.Submit("hi", nil)
	require.NoError(t, err)

	streamed := make(chan struct{}, 1)
	done := make(chan chat.State, 1)
	go func() {
		done <- e.Run(context.Background(), func(u chat.Update) {
			if u.State == chat.StateStreaming {
				streamed <- struct{}{}
			}
		})
	}()
	ch <- "half"
	<-streamed
	ctl.Stop()
	assert.Equal(t, chat.StateAbandoned, <-done)

	sess, err := log.Active()
	require.NoError(t, err)
	assert.Equal(t, "half", sess.Messages[1].Text)
	assert.False(t, sess.Messages[1].Streaming)

	// The actor survives a stop.
	assert.False(t, ctl.Busy())
	gen := ctl.Generation()
	next, err := ctl.Submit("again", nil)
	require.NoError(t, err)
	assert.Equal(t, gen, ctl.Generation())
	assert.Equal(t, []codey.Turn{
		codey.UserTurn("hi"),
		{Role: codey.RoleAssistant, Parts: []codey.Part{codey.TextPart{Text: "half"}}},
		codey.UserTurn("again"),
	}, next.Request().History)
	ctl.Stop()
	next.Run(context.Background(), nil)
}

func TestController_DeleteSession(t *testing.T) {
	t.Parallel()

	log := newLog(t)
	first := log.ActiveID()
	ctl := chat.NewController(log, scripted(nil, nil, "x"))
	second := ctl.NewSession()

	require.NoError(t, ctl.DeleteSession(second.ID))
	assert.Equal(t, first, log.ActiveID())
	assert.ErrorIs(t, ctl.DeleteSession("missing"), codey.ErrSessionNotFound)

	require.NoError(t, ctl.Activate(first))
	assert.ErrorIs(t, ctl.Activate("missing"), codey.ErrSessionNotFound)
}

func TestController_DeleteLastSession(t *testing.T) {
	t.Parallel()

	log := newLog(t)
	only := log.ActiveID()
	ctl := chat.NewController(log, scripted(nil, nil, "x"))

	require.NoError(t, ctl.DeleteSession(only))

	list := log.List()
	require.Len(t, list, 1)
	assert.NotEqual(t, only, list[0].ID)
	assert.Equal(t, list[0].ID, log.ActiveID())
	assert.Equal(t, codey.DefaultSessionTitle, list[0].Title)
}
