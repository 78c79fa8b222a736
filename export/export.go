// Package export writes a session transcript as markdown, HTML, JSON or
// YAML.
package export

import (
	"fmt"
	"io"

	"github.com/fwojciec/codey"
)

// Exporter writes one session in a single format.
type Exporter interface {
	Export(s codey.Session, w io.Writer) error
	Extension() string
}

// Formats lists the accepted format names.
var Formats = []string{"md", "html", "json", "yaml"}

// New returns the exporter for format. The html exporter highlights code
// with html's renderer; pass nil to use plain escaped code blocks.
func New(format string, html HTMLRenderer) (Exporter, error) {
	switch format {
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "html":
		return &HTMLExporter{Renderer: html}, nil
	case "json":
		return &JSONExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: md, html, json, yaml): %w", format, codey.ErrValidation)
	}
}

// speaker names the sender in human-readable transcripts.
func speaker(m codey.Message) string {
	if m.Sender == codey.RoleUser {
		return "You"
	}
	return "Codey"
}

// exported reports whether m belongs in a transcript. Empty streaming
// placeholders carry nothing.
func exported(m codey.Message) bool {
	return !(m.Sender == codey.RoleAssistant && m.Text == "")
}
