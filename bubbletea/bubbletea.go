// Package bubbletea provides the Bubble Tea TUI for codey.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/codey"
	"github.com/fwojciec/codey/action"
	"github.com/fwojciec/codey/chat"
	"github.com/fwojciec/codey/suggest"
)

// Store is the part of the conversation store the TUI reads and writes
// directly. Conversation changes go through the chat controller.
type Store interface {
	List() []codey.Session
	ActiveID() string
	Session(id string) (codey.Session, error)
	Rename(id, title string) error
	UI() codey.UIConfig
	SetUI(ui codey.UIConfig)
}

// Run creates and runs the Bubble Tea program. It blocks until the program
// exits. When ctx is cancelled the program quits.
func Run(ctx context.Context, m Model) error {
	m.ctx = ctx
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// UpdateMsg delivers exchange progress to the model. The next update is
// read from the channel this one came from.
type UpdateMsg struct {
	Update chat.Update

	updates <-chan chat.Update
	done    <-chan chat.State
}

// ExchangeDoneMsg signals that an exchange finished. A message from an
// exchange other than the running one only refreshes the view.
type ExchangeDoneMsg struct {
	State chat.State

	done <-chan chat.State
}

// ActionDoneMsg carries the result of a refactor or explain request.
type ActionDoneMsg struct {
	Key     action.Key
	Result  action.Result
	Current bool
}

type suggestTickMsg struct{ ticket suggest.Ticket }

// suggestMsg reports that a completion for ticket arrived. The text is
// read back from the completer so only the newest one is ever shown.
type suggestMsg struct {
	ticket suggest.Ticket
	ok     bool
}

type themeMsg struct {
	theme codey.Theme
	err   error
}

type attachMsg struct {
	att codey.Attachment
	err error
}

type dictationStartedMsg struct {
	ch <-chan string
}

type dictationMsg struct {
	text string
	ch   <-chan string
}

type dictationDoneMsg struct {
	err error
}

type copiedMsg struct {
	err error
}
