package chroma_test

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/fwojciec/codey/chroma"
	"github.com/stretchr/testify/assert"
)

func TestHighlighter_Terminal(t *testing.T) {
	t.Parallel()

	code := "func main() {\n\tfmt.Println(\"hi\")\n}"
	h := chroma.New()

	out := h.Terminal(code, "go")
	assert.Contains(t, out, "\x1b[", "expected ANSI escapes")
	assert.Equal(t, code, strings.TrimRight(ansi.Strip(out), "\n"))
	assert.False(t, strings.HasSuffix(out, "\n"))
}

func TestHighlighter_Plain(t *testing.T) {
	t.Parallel()

	code := "x = 1"
	assert.Equal(t, code, chroma.New(chroma.WithPlain()).Terminal(code, "python"))
}

func TestHighlighter_UnknownLanguage(t *testing.T) {
	t.Parallel()

	code := "some words"
	out := chroma.New(chroma.WithStyle("no-such-style")).Terminal(code, "klingon")
	assert.Equal(t, code, strings.TrimRight(ansi.Strip(out), "\n"))
}

func TestHighlighter_HTML(t *testing.T) {
	t.Parallel()

	out, ok := chroma.New().HTML("<b>&</b>", "html")
	assert.True(t, ok)
	assert.Contains(t, out, "<pre")
	assert.NotContains(t, out, "<b>&</b>")
	assert.Contains(t, out, "&amp;")
}

func TestLanguage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Go", chroma.Language("go"))
	assert.Equal(t, "Python", chroma.Language("py"))
	assert.Equal(t, "plaintext", chroma.Language("klingon"))
}
