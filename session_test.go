package codey_test

import (
	"testing"

	"github.com/fwojciec/codey"
	"github.com/stretchr/testify/assert"
)

func TestSession_Streaming(t *testing.T) {
	t.Parallel()

	s := codey.Session{Messages: []codey.Message{
		{ID: 1, Sender: codey.RoleUser, Text: "hi"},
		{ID: 2, Sender: codey.RoleAssistant, Streaming: true},
	}}
	m, ok := s.Streaming()
	assert.True(t, ok)
	assert.Equal(t, int64(2), m.ID)
	assert.True(t, m.Pending())

	_, ok = codey.Session{}.Streaming()
	assert.False(t, ok)
}

func TestSession_Clone(t *testing.T) {
	t.Parallel()

	s := codey.Session{ID: "a", Messages: []codey.Message{{ID: 1, Text: "x"}}}
	c := s.Clone()
	c.Messages[0].Text = "changed"
	assert.Equal(t, "x", s.Messages[0].Text)
}

func TestMessage_Pending(t *testing.T) {
	t.Parallel()
	assert.False(t, codey.Message{Sender: codey.RoleUser, Streaming: true}.Pending())
	assert.False(t, codey.Message{Sender: codey.RoleAssistant, Streaming: true, Text: "a"}.Pending())
	assert.False(t, codey.Message{Sender: codey.RoleAssistant}.Pending())
}
