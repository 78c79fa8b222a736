// Package segment splits message text into prose and fenced code segments.
//
// A code segment needs both fences: an opening ``` with an optional
// language tag followed by a line break, and a closing line break plus ```.
// An unterminated fence, common mid-stream, stays prose until its closing
// fence arrives. Splitting is pure, so it can run on every delta.
package segment

import (
	"iter"
	"regexp"
	"strings"
)

// DefaultLanguage is reported for code segments without a language tag.
const DefaultLanguage = "plaintext"

const fence = "```"

var fenced = regexp.MustCompile("```([\\w-]*)\\n((?s:.*?))\\n```")

// Segment is a sealed interface over Prose and Code.
// Concatenating Raw() of every segment of a text reproduces the text.
type Segment interface {
	Raw() string
	segment()
}

// Prose is text outside any complete fenced block.
type Prose struct {
	Text string
}

func (p Prose) Raw() string { return p.Text }
func (Prose) segment()      {}

// Code is a complete fenced block. Tag is the language tag as written
// (possibly empty) and Body the text between the fence lines.
type Code struct {
	Tag  string
	Body string
}

// Raw reconstructs the block including its fences.
func (c Code) Raw() string { return fence + c.Tag + "\n" + c.Body + "\n" + fence }
func (Code) segment()      {}

// Language returns Tag, or DefaultLanguage when Tag is empty.
func (c Code) Language() string {
	if c.Tag == "" {
		return DefaultLanguage
	}
	return c.Tag
}

// Text returns the body trimmed of surrounding whitespace, as displayed.
func (c Code) Text() string { return strings.TrimSpace(c.Body) }

// Interface compliance checks.
var (
	_ Segment = Prose{}
	_ Segment = Code{}
)

// All yields the segments of text in order. Empty prose between adjacent
// blocks is skipped. The sequence is restartable.
func All(text string) iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		pos := 0
		for _, m := range fenced.FindAllStringSubmatchIndex(text, -1) {
			if m[0] > pos {
				if !yield(Prose{Text: text[pos:m[0]]}) {
					return
				}
			}
			if !yield(Code{Tag: text[m[2]:m[3]], Body: text[m[4]:m[5]]}) {
				return
			}
			pos = m[1]
		}
		if pos < len(text) {
			yield(Prose{Text: text[pos:]})
		}
	}
}

// Split returns the segments of text as a slice.
func Split(text string) []Segment {
	var segs []Segment
	for s := range All(text) {
		segs = append(segs, s)
	}
	return segs
}

// Codes returns only the code segments of text, in order. The index of a
// block in this slice identifies it within its message.
func Codes(text string) []Code {
	var codes []Code
	for s := range All(text) {
		if c, ok := s.(Code); ok {
			codes = append(codes, c)
		}
	}
	return codes
}

// Join concatenates the raw text of segs.
func Join(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Raw())
	}
	return b.String()
}
