package export

import (
	"fmt"
	"html"
	"io"

	"github.com/fwojciec/codey"
)

// HTMLRenderer converts message markdown to an HTML fragment.
type HTMLRenderer interface {
	HTML(source string) (string, error)
}

// HTMLExporter writes a standalone HTML page.
type HTMLExporter struct {
	Renderer HTMLRenderer
}

// Export writes s to w. Without a Renderer, message text is escaped and
// wrapped in <pre>.
func (e *HTMLExporter) Export(s codey.Session, w io.Writer) error {
	title := html.EscapeString(s.Title)
	if _, err := fmt.Fprintf(w, htmlHeader, title, title); err != nil {
		return err
	}
	for _, m := range s.Messages {
		if !exported(m) {
			continue
		}
		class := "assistant"
		if m.Sender == codey.RoleUser {
			class = "user"
		}
		if m.Notice {
			class += " notice"
		}
		_, _ = fmt.Fprintf(w, "<section class=\"%s\">\n<h2>%s</h2>\n", class, speaker(m))
		if a := m.Attachment; a != nil {
			_, _ = fmt.Fprintf(w, "<p class=\"attachment\">%s</p>\n", html.EscapeString(a.Name))
		}
		if m.Text != "" {
			body, err := e.body(m.Text)
			if err != nil {
				return fmt.Errorf("message %d: %w", m.ID, err)
			}
			_, _ = io.WriteString(w, body)
		}
		_, _ = io.WriteString(w, "</section>\n")
	}
	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}

func (e *HTMLExporter) body(text string) (string, error) {
	if e.Renderer == nil {
		return "<pre>" + html.EscapeString(text) + "</pre>\n", nil
	}
	return e.Renderer.HTML(text)
}

// Extension returns the file extension for this format.
func (e *HTMLExporter) Extension() string { return "html" }

const htmlHeader = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; max-width: 50rem; margin: 2rem auto; }
section { border-top: 1px solid #ddd; padding: 0.5rem 0; }
section.user h2 { color: #7c3aed; }
section.notice { color: #b91c1c; }
h2 { font-size: 0.9rem; text-transform: uppercase; }
pre { overflow-x: auto; padding: 0.5rem; }
</style>
</head>
<body>
<h1>%s</h1>
`
