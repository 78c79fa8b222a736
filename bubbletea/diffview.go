package bubbletea

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/fwojciec/codey/diff"
)

// RenderDiff draws line runs as a unified listing under a summary line.
// Lines wider than width are truncated.
func RenderDiff(runs []diff.Run, width int, st Styles) string {
	added, removed := diff.Stats(runs)
	lines := []string{
		st.Accent.Render("Suggested refactor") + "  " +
			st.Success.Render(fmt.Sprintf("+%d", added)) + " " +
			st.Error.Render(fmt.Sprintf("-%d", removed)),
	}
	for _, r := range runs {
		for _, l := range r.Lines() {
			l = ansi.Truncate(l, max(width-2, 1), "…")
			switch r.Kind {
			case diff.Added:
				lines = append(lines, st.Success.Render("+ "+l))
			case diff.Removed:
				lines = append(lines, st.Error.Render("- "+l))
			default:
				lines = append(lines, st.Muted.Render("  "+l))
			}
		}
	}
	return strings.Join(lines, "\n")
}
