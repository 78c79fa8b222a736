package bubbletea

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the global key bindings.
type KeyMap struct {
	Send     key.Binding
	Newline  key.Binding
	Accept   key.Binding
	Stop     key.Binding
	Quit     key.Binding
	Sessions key.Binding
	NewChat  key.Binding
	Mode     key.Binding
	Themes   key.Binding
	Dictate  key.Binding
	PrevCode key.Binding
	NextCode key.Binding
	Refactor key.Binding
	Explain  key.Binding
	Copy     key.Binding
	Dismiss  key.Binding
	Up       key.Binding
	Down     key.Binding
	Rename   key.Binding
	Delete   key.Binding
	Confirm  key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Send:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Newline:  key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"), key.WithHelp("alt+enter", "newline")),
		Accept:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "accept suggestion")),
		Stop:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "stop")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Sessions: key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "chats")),
		NewChat:  key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new chat")),
		Mode:     key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "mode")),
		Themes:   key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "theme")),
		Dictate:  key.NewBinding(key.WithKeys("alt+v"), key.WithHelp("alt+v", "dictate")),
		PrevCode: key.NewBinding(key.WithKeys("alt+up"), key.WithHelp("alt+↑", "prev code")),
		NextCode: key.NewBinding(key.WithKeys("alt+down"), key.WithHelp("alt+↓", "next code")),
		Refactor: key.NewBinding(key.WithKeys("alt+r"), key.WithHelp("alt+r", "refactor")),
		Explain:  key.NewBinding(key.WithKeys("alt+e"), key.WithHelp("alt+e", "explain")),
		Copy:     key.NewBinding(key.WithKeys("alt+c"), key.WithHelp("alt+c", "copy")),
		Dismiss:  key.NewBinding(key.WithKeys("alt+x"), key.WithHelp("alt+x", "dismiss")),
		Up:       key.NewBinding(key.WithKeys("up", "k")),
		Down:     key.NewBinding(key.WithKeys("down", "j")),
		Rename:   key.NewBinding(key.WithKeys("r")),
		Delete:   key.NewBinding(key.WithKeys("d")),
		Confirm:  key.NewBinding(key.WithKeys("y")),
	}
}

// shortHelp is the status line shown while idle.
func (k KeyMap) shortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Newline, k.Sessions, k.Mode, k.Themes, k.PrevCode, k.Quit}
}
