package markdown

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/util"
)

// SpanStyle is the inline style of a Span.
type SpanStyle int

const (
	Plain SpanStyle = iota
	Bold
	Italic
	Code
)

// Span is a run of text with one inline style. Spans do not nest: code
// wins over emphasis, and bold over italic.
type Span struct {
	Style SpanStyle
	Text  string
}

// spanWriter collects the inline content of a block as lines of spans,
// merging neighbours that share a style. With joinLines set, line breaks
// become spaces.
type spanWriter struct {
	lines     [][]Span
	cur       []Span
	space     bool
	joinLines bool
}

func (w *spanWriter) write(style SpanStyle, s string) {
	if s == "" {
		return
	}
	if w.space {
		w.space = false
		w.write(Plain, " ")
	}
	if n := len(w.cur); n > 0 && w.cur[n-1].Style == style {
		w.cur[n-1].Text += s
		return
	}
	w.cur = append(w.cur, Span{Style: style, Text: s})
}

func (w *spanWriter) newline() {
	if w.joinLines {
		w.space = len(w.cur) > 0
		return
	}
	w.lines = append(w.lines, w.cur)
	w.cur = nil
}

// walk writes the inline children of n in style.
func (w *spanWriter) walk(n ast.Node, style SpanStyle, src []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			w.write(style, string(util.UnescapePunctuations(c.Segment.Value(src))))
			if c.SoftLineBreak() || c.HardLineBreak() {
				w.newline()
			}
		case *ast.String:
			w.write(style, string(c.Value))
		case *ast.CodeSpan:
			w.write(Code, codeText(c, src))
		case *ast.Emphasis:
			s := Italic
			if c.Level >= 2 || style == Bold {
				s = Bold
			}
			w.walk(c, s, src)
		default:
			w.walk(c, style, src)
		}
	}
}

// line returns everything written as a single line.
func (w *spanWriter) line() []Span {
	return w.cur
}

// done returns the written lines. A trailing empty line is dropped.
func (w *spanWriter) done() [][]Span {
	if len(w.cur) > 0 {
		w.lines = append(w.lines, w.cur)
		w.cur = nil
	}
	for len(w.lines) > 0 && len(w.lines[len(w.lines)-1]) == 0 {
		w.lines = w.lines[:len(w.lines)-1]
	}
	return w.lines
}

func codeText(n *ast.CodeSpan, src []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(src))
			if c.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(c.Value)
		}
	}
	return b.String()
}
