package export

import (
	"fmt"
	"io"

	"github.com/fwojciec/codey"
)

// MarkdownExporter writes the transcript as markdown. Message text is
// already markdown and is written verbatim.
type MarkdownExporter struct{}

// Export writes s to w.
func (e *MarkdownExporter) Export(s codey.Session, w io.Writer) error {
	if _, err := fmt.Fprintf(w, "# %s\n\n", s.Title); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "**Created:** %s  \n", s.CreatedAt.Format("2006-01-02 15:04"))
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(s.Messages))

	first := true
	for _, m := range s.Messages {
		if !exported(m) {
			continue
		}
		if !first {
			_, _ = fmt.Fprint(w, "---\n\n")
		}
		first = false
		_, _ = fmt.Fprintf(w, "**%s:**\n\n", speaker(m))
		if a := m.Attachment; a != nil {
			_, _ = fmt.Fprintf(w, "_Attachment: %s (%s)_\n\n", a.Name, a.MIME())
		}
		if m.Text != "" {
			if m.Notice {
				_, _ = fmt.Fprintf(w, "> %s\n\n", m.Text)
			} else {
				_, _ = fmt.Fprintf(w, "%s\n\n", m.Text)
			}
		}
	}
	return nil
}

// Extension returns the file extension for this format.
func (e *MarkdownExporter) Extension() string { return "md" }
