package bubbletea

import (
	"strings"

	"github.com/fwojciec/codey"
	"github.com/mattn/go-runewidth"
)

// sidebarWidth is the sidebar's outer width including its border.
const sidebarWidth = 28

// TruncateTitle shortens a session title to fit w terminal columns.
func TruncateTitle(title string, w int) string {
	if w <= 0 {
		return ""
	}
	return runewidth.Truncate(title, w, "…")
}

// sidebarView lists sessions newest first. width is the inner width.
func (m Model) sidebarView(width int) string {
	focused := m.focus == focusSidebar
	lines := []string{m.styles.Accent.Render("Chats"), m.styles.Muted.Render("ctrl+n new chat"), ""}
	active := m.store.ActiveID()
	for i, s := range m.store.List() {
		marker := "  "
		if s.ID == active {
			marker = m.styles.Accent.Render("▌ ")
		}
		title := TruncateTitle(s.Title, width-2)
		switch {
		case focused && i == m.sideCursor && m.renaming:
			title = m.rename.View()
		case focused && i == m.sideCursor && m.confirmDelete == s.ID:
			title = m.styles.Error.Render(TruncateTitle("Delete? y/n", width-2))
		case focused && i == m.sideCursor:
			title = m.styles.Selected.Render(runewidth.FillRight(title, width-2))
		}
		lines = append(lines, marker+title)
	}
	if focused {
		lines = append(lines, "", m.styles.Muted.Render(TruncateTitle("enter open · r rename", width)),
			m.styles.Muted.Render(TruncateTitle("d delete · esc back", width)))
	}
	return strings.Join(lines, "\n")
}

// sessionAt returns the session under the sidebar cursor.
func (m Model) sessionAt(i int) (codey.Session, bool) {
	list := m.store.List()
	if i < 0 || i >= len(list) {
		return codey.Session{}, false
	}
	return list[i], true
}
