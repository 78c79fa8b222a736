package mock_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/fwojciec/codey"
	"github.com/fwojciec/codey/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Stream(t *testing.T) {
	t.Parallel()
	t.Run("delegates to StreamFn", func(t *testing.T) {
		t.Parallel()
		var s mock.Stream
		p := mock.Provider{
			StreamFn: func(ctx context.Context, req codey.Request) (codey.Stream, error) {
				return &s, nil
			},
		}
		got, err := p.Stream(context.Background(), codey.Request{})
		require.NoError(t, err)
		assert.Equal(t, &s, got)
	})

	t.Run("panics when StreamFn not set", func(t *testing.T) {
		t.Parallel()
		p := mock.Provider{}
		assert.Panics(t, func() {
			_, _ = p.Stream(context.Background(), codey.Request{})
		})
	})
}

func TestGenerator_Generate(t *testing.T) {
	t.Parallel()
	g := mock.Generator{
		GenerateFn: func(ctx context.Context, req codey.Request) (codey.Reply, error) {
			return codey.Reply{Text: req.Model}, nil
		},
	}
	got, err := g.Generate(context.Background(), codey.Request{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "m", got.Text)
}

func TestStream_NilSafe(t *testing.T) {
	t.Parallel()
	var s mock.Stream
	assert.Equal(t, codey.StreamStateNew, s.State())
	assert.NoError(t, s.Close())
	assert.Panics(t, func() { _, _ = s.Next() })
}

func TestScript(t *testing.T) {
	t.Parallel()

	t.Run("yields deltas then EOF", func(t *testing.T) {
		t.Parallel()
		s := mock.Script(nil, "Hel", "lo")
		_, err := s.Reply()
		assert.ErrorIs(t, err, codey.ErrStreamNotReady)

		evt, err := s.Next()
		require.NoError(t, err)
		assert.Equal(t, codey.EventTextDelta{Delta: "Hel"}, evt)
		evt, err = s.Next()
		require.NoError(t, err)
		assert.Equal(t, codey.EventTextDelta{Delta: "lo"}, evt)
		_, err = s.Next()
		assert.ErrorIs(t, err, io.EOF)
		assert.Equal(t, codey.StreamStateComplete, s.State())

		reply, err := s.Reply()
		require.NoError(t, err)
		assert.Equal(t, "Hello", reply.Text)
		assert.Equal(t, codey.StopEndTurn, reply.StopReason)
	})

	t.Run("fails after deltas", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		s := mock.Script(boom, "a")
		_, err := s.Next()
		require.NoError(t, err)
		_, err = s.Next()
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, codey.StreamStateError, s.State())
	})

	t.Run("close before completion", func(t *testing.T) {
		t.Parallel()
		s := mock.Script(nil, "a", "b")
		_, _ = s.Next()
		require.NoError(t, s.Close())
		assert.Equal(t, codey.StreamStateClosed, s.State())
		_, err := s.Next()
		assert.ErrorIs(t, err, codey.ErrStreamClosed)
	})
}

func TestPersister_NilSafe(t *testing.T) {
	t.Parallel()
	var p mock.Persister
	snap, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Sessions)
	assert.NoError(t, p.Save(context.Background(), codey.Snapshot{}))
}
