package markdown

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles used by Render.
type Styles struct {
	Bold     lipgloss.Style
	Italic   lipgloss.Style
	Code     lipgloss.Style
	Headings [maxHeading]lipgloss.Style
	Rule     lipgloss.Style
	Bullet   lipgloss.Style
	Pending  lipgloss.Style
}

// NewStyles builds Styles around an accent color and a muted color.
func NewStyles(accent, muted lipgloss.TerminalColor) Styles {
	h := lipgloss.NewStyle().Foreground(accent).Bold(true)
	return Styles{
		Bold:   lipgloss.NewStyle().Bold(true),
		Italic: lipgloss.NewStyle().Italic(true),
		Code:   lipgloss.NewStyle().Foreground(accent),
		Headings: [maxHeading]lipgloss.Style{
			h.Underline(true),
			h,
			lipgloss.NewStyle().Bold(true),
			lipgloss.NewStyle().Bold(true).Italic(true),
		},
		Rule:    lipgloss.NewStyle().Foreground(muted),
		Bullet:  lipgloss.NewStyle().Foreground(accent),
		Pending: lipgloss.NewStyle().Foreground(accent).Faint(true),
	}
}

// PendingIndicator is the text of the pending-response indicator.
const PendingIndicator = "● ● ●"

// Render returns doc as ANSI-styled text wrapped to width. Blocks are
// separated by one blank line, except consecutive list items.
func Render(doc Doc, width int, st Styles) string {
	if width <= 0 {
		width = 80
	}
	parts := make([]string, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		parts = append(parts, renderBlock(b, width, st))
	}
	return strings.Join(parts, "\n\n")
}

// Format parses and renders prose in one step.
func Format(prose string, width int, st Styles) string {
	return Render(Parse(prose), width, st)
}

func renderBlock(b Block, width int, st Styles) string {
	wrap := lipgloss.NewStyle().Width(width)
	switch b := b.(type) {
	case Rule:
		return st.Rule.Render(strings.Repeat("─", width))
	case Heading:
		style := st.Headings[min(max(b.Level, 1), maxHeading)-1]
		return wrap.Render(style.Render(plainText(b.Spans)))
	case List:
		lines := make([]string, len(b.Items))
		for i, it := range b.Items {
			lines[i] = renderItem(it, width, st)
		}
		return strings.Join(lines, "\n")
	case Paragraph:
		lines := make([]string, len(b.Lines))
		for i, l := range b.Lines {
			lines[i] = wrap.Render(renderSpans(l, st))
		}
		return strings.Join(lines, "\n")
	case Pending:
		return st.Pending.Render(PendingIndicator)
	default:
		return ""
	}
}

func renderItem(it Item, width int, st Styles) string {
	marker := "•"
	if it.Ordered {
		marker = it.Marker
	}
	indent := strings.Repeat("  ", it.Indent)
	prefix := indent + marker + " "
	w := lipgloss.Width(prefix)
	body := lipgloss.NewStyle().Width(max(width-w, 10)).Render(renderSpans(it.Spans, st))
	lines := strings.Split(body, "\n")
	pad := strings.Repeat(" ", w)
	for i := range lines {
		if i == 0 {
			lines[i] = indent + st.Bullet.Render(marker) + " " + lines[i]
			continue
		}
		lines[i] = pad + lines[i]
	}
	return strings.Join(lines, "\n")
}

func renderSpans(spans []Span, st Styles) string {
	var b strings.Builder
	for _, s := range spans {
		switch s.Style {
		case Bold:
			b.WriteString(st.Bold.Render(s.Text))
		case Italic:
			b.WriteString(st.Italic.Render(s.Text))
		case Code:
			b.WriteString(st.Code.Render(s.Text))
		default:
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// plainText joins span texts without styling. Heading styles apply to the
// whole line.
func plainText(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}
	return b.String()
}
