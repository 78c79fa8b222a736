package bubbletea

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/codey"
	"github.com/fwojciec/codey/action"
	"github.com/fwojciec/codey/chroma"
	"github.com/fwojciec/codey/markdown"
	"github.com/fwojciec/codey/segment"
)

var _ MessageBlock = (*AssistantBlock)(nil)

// CodeDecor is the per-code-block state drawn around a block: selection and
// the results of refactor and explain actions.
type CodeDecor struct {
	Selected bool
	Refactor action.Result
	Explain  action.Result
}

// AssistantBlock renders an assistant message as prose and code segments.
// Output is cached per width and invalidated whenever the message or its
// decorations change.
type AssistantBlock struct {
	msg     codey.Message
	segs    []segment.Segment
	decor   []CodeDecor
	styles  Styles
	hl      *chroma.Highlighter
	byWidth map[int]string
}

// NewAssistantBlock creates a block for msg. A nil highlighter renders code
// unhighlighted.
func NewAssistantBlock(msg codey.Message, styles Styles, hl *chroma.Highlighter) *AssistantBlock {
	b := &AssistantBlock{styles: styles, hl: hl, byWidth: make(map[int]string)}
	b.Set(msg, nil)
	return b
}

// Set replaces the message and decorations.
func (b *AssistantBlock) Set(msg codey.Message, decor []CodeDecor) {
	if msg.Text == b.msg.Text && msg.Streaming == b.msg.Streaming && b.segs != nil && reflect.DeepEqual(decor, b.decor) {
		return
	}
	if msg.Text != b.msg.Text || b.segs == nil {
		b.segs = segment.Split(msg.Text)
		if b.segs == nil {
			b.segs = []segment.Segment{}
		}
	}
	b.msg = msg
	b.decor = decor
	clear(b.byWidth)
}

// Codes returns the complete code blocks of the message.
func (b *AssistantBlock) Codes() []segment.Code {
	var codes []segment.Code
	for _, s := range b.segs {
		if c, ok := s.(segment.Code); ok {
			codes = append(codes, c)
		}
	}
	return codes
}

func (b *AssistantBlock) View(width int) string {
	if width <= 0 {
		width = 80
	}
	if cached, ok := b.byWidth[width]; ok {
		return cached
	}
	out := b.render(width)
	b.byWidth[width] = out
	return out
}

func (b *AssistantBlock) render(width int) string {
	if b.msg.Text == "" {
		return markdown.Render(markdown.ParseMessage(b.msg), width, b.styles.Markdown)
	}
	var parts []string
	code := 0
	for _, s := range b.segs {
		switch s := s.(type) {
		case segment.Prose:
			if strings.TrimSpace(s.Text) != "" {
				parts = append(parts, markdown.Format(strings.Trim(s.Text, "\n"), width, b.styles.Markdown))
			}
		case segment.Code:
			var d CodeDecor
			if code < len(b.decor) {
				d = b.decor[code]
			}
			parts = append(parts, b.renderCode(code, s, d, width))
			code++
		}
	}
	return strings.Join(parts, "\n")
}

func (b *AssistantBlock) renderCode(i int, c segment.Code, d CodeDecor, width int) string {
	frame := b.styles.CodeFrame
	header := b.styles.Muted.Render(languageLabel(c.Tag) + " #" + strconv.Itoa(i+1))
	if d.Selected {
		frame = b.styles.CodeFocus
		header = b.styles.Accent.Render(languageLabel(c.Tag)+" #"+strconv.Itoa(i+1)) +
			b.styles.Muted.Render("  alt+r refactor · alt+e explain · alt+c copy · alt+x dismiss")
	}
	parts := []string{header, frame.Width(max(width-2, 10)).Render(b.highlight(c.Text(), c.Language()))}

	switch r := d.Refactor; r.Status {
	case action.Pending:
		parts = append(parts, b.styles.Muted.Render("⟳ Refactoring…"))
	case action.Done:
		if r.Unchanged {
			parts = append(parts, b.styles.Muted.Render("✓ No changes suggested."))
		} else {
			parts = append(parts, RenderDiff(r.Runs, width, b.styles))
		}
	case action.Failed:
		parts = append(parts, b.styles.Error.Render(r.Err))
	}

	switch r := d.Explain; r.Status {
	case action.Pending:
		parts = append(parts, b.styles.Muted.Render("⟳ Explaining…"))
	case action.Done, action.Failed:
		rendered := markdown.Render(r.Doc(), max(width-2, 10), b.styles.Markdown)
		parts = append(parts, indent(rendered, b.styles.Accent.Render("│ ")))
	}
	return strings.Join(parts, "\n")
}

func (b *AssistantBlock) highlight(code, lang string) string {
	if b.hl == nil {
		return code
	}
	return b.hl.Terminal(code, lang)
}

func languageLabel(tag string) string {
	if tag == "" {
		return segment.DefaultLanguage
	}
	return tag
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
