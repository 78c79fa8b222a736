// Package markdown formats prose segments with a restricted markdown
// grammar: horizontal rules, headings (levels 1-4), contiguous list runs,
// and inline bold, italic and code spans. Parsing never fails; anything
// the grammar does not recognize is kept as literal text.
//
// Parse runs a goldmark parser limited to that grammar and walks its AST
// into a small block IR; Render turns the IR into ANSI-styled terminal
// output with lipgloss.
package markdown

import (
	"strconv"
	"strings"

	"github.com/fwojciec/codey"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Block is a sealed interface over the block kinds.
type Block interface {
	block()
}

// Rule is a horizontal rule.
type Rule struct{}

// Heading is a level 1-4 heading.
type Heading struct {
	Level int
	Spans []Span
}

// List is a contiguous run of list items.
type List struct {
	Items []Item
}

// Item is one list line. Marker is "-" for unordered items and the number
// with its delimiter (e.g. "3.") for ordered ones.
type Item struct {
	Indent  int
	Ordered bool
	Marker  string
	Spans   []Span
}

// Paragraph is a run of non-blank lines; line breaks are kept.
type Paragraph struct {
	Lines [][]Span
}

// Pending stands in for an assistant message that has no text yet.
type Pending struct{}

func (Rule) block()      {}
func (Heading) block()   {}
func (List) block()      {}
func (Paragraph) block() {}
func (Pending) block()   {}

// Interface compliance checks.
var (
	_ Block = Rule{}
	_ Block = Heading{}
	_ Block = List{}
	_ Block = Paragraph{}
	_ Block = Pending{}
)

// Doc is a parsed prose segment.
type Doc struct {
	Blocks []Block
}

// IsPending reports whether d is the pending-response indicator.
func (d Doc) IsPending() bool {
	if len(d.Blocks) != 1 {
		return false
	}
	_, ok := d.Blocks[0].(Pending)
	return ok
}

// maxHeading is the deepest heading level rendered as a heading.
const maxHeading = 4

// grammar is goldmark limited to the recognized constructs. Fences belong
// to the segment package, so there are no code block parsers, and there
// are no setext headings, quotes, HTML or links either.
var grammar = parser.NewParser(
	parser.WithBlockParsers(
		util.Prioritized(parser.NewThematicBreakParser(), 200),
		util.Prioritized(parser.NewListParser(), 300),
		util.Prioritized(parser.NewListItemParser(), 400),
		util.Prioritized(parser.NewATXHeadingParser(), 600),
		util.Prioritized(parser.NewParagraphParser(), 1000),
	),
	parser.WithInlineParsers(
		util.Prioritized(parser.NewCodeSpanParser(), 100),
		util.Prioritized(parser.NewEmphasisParser(), 500),
	),
)

// Parse formats a prose segment. Rules take precedence over list items,
// and list items over paragraph text. Nested lists flatten into their
// parent's items with a deeper Indent; lists that follow each other
// without a blank line are one run. Headings deeper than level 4 stay
// literal text.
func Parse(prose string) Doc {
	src := []byte(Sanitize(prose))
	root := grammar.Parse(text.NewReader(src))

	var doc Doc
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		doc.Blocks = appendBlock(doc.Blocks, n, src)
	}
	return doc
}

func appendBlock(blocks []Block, n ast.Node, src []byte) []Block {
	switch n := n.(type) {
	case *ast.ThematicBreak:
		return append(blocks, Rule{})
	case *ast.Heading:
		if n.Level > maxHeading {
			var w spanWriter
			w.write(Plain, strings.Repeat("#", n.Level)+" ")
			w.walk(n, Plain, src)
			return append(blocks, Paragraph{Lines: w.done()})
		}
		w := spanWriter{joinLines: true}
		w.walk(n, Plain, src)
		return append(blocks, Heading{Level: n.Level, Spans: w.line()})
	case *ast.List:
		items := listItems(nil, n, 0, src)
		if k := len(blocks); k > 0 && !n.HasBlankPreviousLines() {
			if prev, ok := blocks[k-1].(List); ok {
				blocks[k-1] = List{Items: append(prev.Items, items...)}
				return blocks
			}
		}
		return append(blocks, List{Items: items})
	default:
		var w spanWriter
		w.walk(n, Plain, src)
		if lines := w.done(); len(lines) > 0 {
			return append(blocks, Paragraph{Lines: lines})
		}
		return blocks
	}
}

// listItems appends the items of l, and after each item those of its
// nested lists, to items.
func listItems(items []Item, l *ast.List, depth int, src []byte) []Item {
	num := l.Start
	for c := l.FirstChild(); c != nil; c = c.NextSibling() {
		it := Item{Indent: depth, Marker: "-"}
		if l.IsOrdered() {
			it.Ordered = true
			it.Marker = strconv.Itoa(num) + string(l.Marker)
			num++
		}
		var nested []*ast.List
		w := spanWriter{joinLines: true}
		for b := c.FirstChild(); b != nil; b = b.NextSibling() {
			if sub, ok := b.(*ast.List); ok {
				nested = append(nested, sub)
				continue
			}
			w.space = len(w.cur) > 0
			w.walk(b, Plain, src)
		}
		it.Spans = w.line()
		items = append(items, it)
		for _, sub := range nested {
			items = listItems(items, sub, depth+1, src)
		}
	}
	return items
}

// ParseMessage parses a whole message's prose. An assistant message with
// no text yet yields the pending indicator.
func ParseMessage(m codey.Message) Doc {
	if m.Sender == codey.RoleAssistant && m.Text == "" {
		return Doc{Blocks: []Block{Pending{}}}
	}
	return Parse(m.Text)
}
