package bubbletea

import (
	"github.com/fwojciec/codey/action"
	"github.com/fwojciec/codey/chat"
)

// RenderContent exports renderContent for testing.
func RenderContent(m Model) string {
	return m.renderContent()
}

// Selected returns the selected code block, if any.
func Selected(m Model) (action.Key, bool) {
	return m.selected, m.picked
}

// SidebarFocused reports whether the session list has focus.
func SidebarFocused(m Model) bool {
	return m.focus == focusSidebar
}

// Status returns the transient status text.
func Status(m Model) string {
	return m.status
}

// UpdateFrom builds an UpdateMsg as if it was read from the given exchange.
func UpdateFrom(u chat.Update, updates <-chan chat.Update, done <-chan chat.State) UpdateMsg {
	return UpdateMsg{Update: u, updates: updates, done: done}
}

// DoneFrom builds an ExchangeDoneMsg as if it was read from done.
func DoneFrom(st chat.State, done <-chan chat.State) ExchangeDoneMsg {
	return ExchangeDoneMsg{State: st, done: done}
}
