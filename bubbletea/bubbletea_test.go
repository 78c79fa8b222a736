package bubbletea_test

import (
	"context"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/codey"
	bt "github.com/fwojciec/codey/bubbletea"
	"github.com/fwojciec/codey/chat"
	"github.com/fwojciec/codey/mock"
	"github.com/fwojciec/codey/store"
	"github.com/stretchr/testify/require"
)

// harness bundles a model with the store and controller behind it.
type harness struct {
	store *store.Store
	chat  *chat.Controller
}

func newHarness(t *testing.T, p codey.Provider) harness {
	t.Helper()
	st := store.Open(context.Background())
	return harness{store: st, chat: chat.NewController(st, p)}
}

// initModel creates a model and sends a WindowSizeMsg to initialize the
// viewport.
func initModel(t *testing.T, h harness, opts ...bt.Option) bt.Model {
	t.Helper()
	return initModelWithSize(t, h, 80, 24, opts...)
}

func initModelWithSize(t *testing.T, h harness, width, height int, opts ...bt.Option) bt.Model {
	t.Helper()
	m := bt.New(h.store, h.chat, opts...)
	return updateModel(t, m, tea.WindowSizeMsg{Width: width, Height: height})
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

// typeText sends each rune as a key press.
func typeText(t *testing.T, m bt.Model, s string) bt.Model {
	t.Helper()
	for _, r := range s {
		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func altKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}, Alt: true}
}

// drain runs cmd and every command it batches, returning the messages
// produced. Sequences are not expected.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// silent is a provider whose streams answer with the given deltas.
func silent(deltas ...string) *mock.Provider {
	return &mock.Provider{StreamFn: func(context.Context, codey.Request) (codey.Stream, error) {
		return mock.Script(nil, deltas...), nil
	}}
}

// oneShot answers one-shot requests with reply and records them.
func oneShot(reply string) (*mock.Generator, *[]codey.Request) {
	var (
		mu   sync.Mutex
		reqs []codey.Request
	)
	return &mock.Generator{
		StreamFn: func(context.Context, codey.Request) (codey.Stream, error) {
			return mock.Script(nil, reply), nil
		},
		GenerateFn: func(_ context.Context, req codey.Request) (codey.Reply, error) {
			mu.Lock()
			defer mu.Unlock()
			reqs = append(reqs, req)
			return codey.Reply{Text: reply, StopReason: codey.StopEndTurn}, nil
		},
	}, &reqs
}

// seedAnswer appends a finished exchange to the active session.
func seedAnswer(t *testing.T, st *store.Store, question, answer string) codey.Message {
	t.Helper()
	sid := st.ActiveID()
	_, err := st.AppendUser(sid, question, nil)
	require.NoError(t, err)
	msg, err := st.AppendAssistant(sid)
	require.NoError(t, err)
	_, err = st.AppendDelta(sid, msg.ID, answer)
	require.NoError(t, err)
	msg, err = st.Finalize(sid, msg.ID)
	require.NoError(t, err)
	return msg
}
