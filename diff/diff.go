// Package diff computes whole-line differences between two texts using
// sergi/go-diff and reports them as runs of unchanged, added and removed
// lines.
package diff

import (
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Kind classifies a run.
type Kind int

const (
	Same Kind = iota
	Added
	Removed
)

func (k Kind) String() string {
	switch k {
	case Same:
		return "same"
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Run is a maximal sequence of consecutive lines sharing one Kind. Text
// keeps line terminators exactly as they appear in the input, so the last
// run of a text without a trailing newline has none either.
type Run struct {
	Kind Kind
	Text string
}

// Lines returns the lines of the run without terminators.
func (r Run) Lines() []string {
	return strings.Split(strings.TrimSuffix(r.Text, "\n"), "\n")
}

// Lines diffs before against after line by line. Concatenating the Same and
// Removed runs yields before; concatenating Same and Added yields after.
// The result is deterministic: the underlying engine runs without a
// deadline.
func Lines(before, after string) []Run {
	t := newLineTable()
	a, okA := t.encode(before)
	b, okB := t.encode(after)
	if !okA || !okB {
		return replace(before, after)
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0

	var runs []Run
	for _, d := range dmp.DiffMainRunes(a, b, false) {
		text := t.decode(d.Text)
		if text == "" {
			continue
		}
		k := kindOf(d.Type)
		if n := len(runs); n > 0 && runs[n-1].Kind == k {
			runs[n-1].Text += text
			continue
		}
		runs = append(runs, Run{Kind: k, Text: text})
	}
	return runs
}

// replace reports before as removed and after as added in full.
func replace(before, after string) []Run {
	var runs []Run
	if before != "" {
		runs = append(runs, Run{Kind: Removed, Text: before})
	}
	if after != "" {
		runs = append(runs, Run{Kind: Added, Text: after})
	}
	return runs
}

// lineTable maps each distinct line, terminator included, to its own rune
// so the character diff compares whole lines. Surrogate code points are
// never assigned: they turn into U+FFFD on the way through a string.
type lineTable struct {
	ids   map[string]rune
	lines map[rune]string
	next  rune
}

func newLineTable() *lineTable {
	return &lineTable{ids: make(map[string]rune), lines: make(map[rune]string)}
}

// encode returns one rune per line of text. It fails when text has more
// distinct lines than there are code points.
func (t *lineTable) encode(text string) ([]rune, bool) {
	var out []rune
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		id, ok := t.ids[line]
		if !ok {
			if t.next > utf8.MaxRune {
				return nil, false
			}
			id = t.next
			t.ids[line] = id
			t.lines[id] = line
			t.next++
			if t.next == surrogateMin {
				t.next = surrogateMax + 1
			}
		}
		out = append(out, id)
	}
	return out, true
}

func (t *lineTable) decode(s string) string {
	var b strings.Builder
	for _, r := range s {
		b.WriteString(t.lines[r])
	}
	return b.String()
}

const (
	surrogateMin = 0xD800
	surrogateMax = 0xDFFF
)

// Stats counts added and removed lines.
func Stats(runs []Run) (added, removed int) {
	for _, r := range runs {
		switch r.Kind {
		case Added:
			added += len(r.Lines())
		case Removed:
			removed += len(r.Lines())
		}
	}
	return added, removed
}

func kindOf(op diffmatchpatch.Operation) Kind {
	switch op {
	case diffmatchpatch.DiffInsert:
		return Added
	case diffmatchpatch.DiffDelete:
		return Removed
	default:
		return Same
	}
}
