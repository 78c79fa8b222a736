// Package chroma highlights code block bodies with
// github.com/alecthomas/chroma for the terminal and for HTML export.
package chroma

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "monokai"

// Highlighter renders code with one chroma style.
type Highlighter struct {
	style     *chroma.Style
	terminal  chroma.Formatter
	html      chroma.Formatter
	plainOnly bool
}

// Option configures a [Highlighter].
type Option func(*Highlighter)

// WithStyle selects a chroma style by name. Unknown names fall back to
// chroma's default.
func WithStyle(name string) Option {
	return func(h *Highlighter) { h.style = styles.Get(name) }
}

// WithPlain disables terminal highlighting. Code is returned unchanged,
// which keeps snapshot tests and dumb terminals readable.
func WithPlain() Option {
	return func(h *Highlighter) { h.plainOnly = true }
}

// New returns a Highlighter.
func New(opts ...Option) *Highlighter {
	h := &Highlighter{
		style:    styles.Get(DefaultStyle),
		terminal: formatters.Get("terminal256"),
		html:     html.New(html.WithClasses(false), html.PreventSurroundingPre(false)),
	}
	for _, o := range opts {
		o(h)
	}
	if h.style == nil {
		h.style = styles.Fallback
	}
	if h.terminal == nil {
		h.terminal = formatters.Fallback
	}
	return h
}

// Terminal returns code highlighted with ANSI escapes for the given
// language tag. On any failure the code is returned unchanged.
func (h *Highlighter) Terminal(code, language string) string {
	if h.plainOnly {
		return code
	}
	out, ok := h.format(h.terminal, code, language)
	if !ok {
		return code
	}
	// Formatters end with a reset and sometimes a trailing newline the
	// source did not have.
	if !strings.HasSuffix(code, "\n") {
		out = strings.TrimSuffix(out, "\n")
	}
	return out
}

// HTML returns code as a highlighted, self-contained <pre> element. On
// failure ok is false and the caller should escape the code itself.
func (h *Highlighter) HTML(code, language string) (string, bool) {
	return h.format(h.html, code, language)
}

// Language returns chroma's canonical name for a language tag, or
// "plaintext" when no lexer matches.
func Language(tag string) string {
	if l := lexers.Get(tag); l != nil {
		return l.Config().Name
	}
	return "plaintext"
}

func (h *Highlighter) format(f chroma.Formatter, code, language string) (string, bool) {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", false
	}
	var b strings.Builder
	if err := f.Format(&b, h.style, it); err != nil {
		return "", false
	}
	return b.String(), true
}
