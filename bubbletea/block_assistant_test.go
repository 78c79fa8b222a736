package bubbletea_test

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/fwojciec/codey"
	"github.com/fwojciec/codey/action"
	bt "github.com/fwojciec/codey/bubbletea"
	"github.com/fwojciec/codey/chroma"
	"github.com/fwojciec/codey/diff"
	"github.com/fwojciec/codey/markdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assistant(text string, streaming bool) codey.Message {
	return codey.Message{ID: 7, Sender: codey.RoleAssistant, Text: text, Streaming: streaming}
}

func TestAssistantBlock_View(t *testing.T) {
	t.Parallel()

	t.Run("pending shows the indicator", func(t *testing.T) {
		t.Parallel()
		b := bt.NewAssistantBlock(assistant("", true), testStyles(), nil)
		assert.Contains(t, b.View(40), markdown.PendingIndicator)
	})

	t.Run("prose is formatted", func(t *testing.T) {
		t.Parallel()
		b := bt.NewAssistantBlock(assistant("## Plan\n\n- **one**\n- two", false), testStyles(), nil)
		out := ansi.Strip(b.View(40))
		assert.Contains(t, out, "Plan")
		assert.NotContains(t, out, "##")
		assert.NotContains(t, out, "**")
		assert.Contains(t, out, "• one")
	})

	t.Run("code blocks are framed and numbered", func(t *testing.T) {
		t.Parallel()
		b := bt.NewAssistantBlock(assistant("a\n```go\nx := 1\n```\nb\n```\nplain\n```", false), testStyles(), nil)
		out := ansi.Strip(b.View(60))
		assert.Contains(t, out, "go #1")
		assert.Contains(t, out, "plaintext #2")
		assert.Contains(t, out, "x := 1")
		assert.Contains(t, out, "╭")
		assert.NotContains(t, out, "```")
		require.Len(t, b.Codes(), 2)
		assert.Equal(t, "x := 1", b.Codes()[0].Text())
	})

	t.Run("highlighter is applied", func(t *testing.T) {
		t.Parallel()
		b := bt.NewAssistantBlock(assistant("```go\nfunc main() {}\n```", false), testStyles(), chroma.New())
		out := b.View(60)
		assert.Contains(t, out, "\x1b[")
		assert.Contains(t, ansi.Strip(out), "func main() {}")
	})

	t.Run("unclosed fence while streaming renders as prose", func(t *testing.T) {
		t.Parallel()
		b := bt.NewAssistantBlock(assistant("Here:\n```python\nprint(1)", true), testStyles(), nil)
		out := ansi.Strip(b.View(60))
		assert.Contains(t, out, "Here:")
		assert.Contains(t, out, "print(1)")
		assert.NotContains(t, out, "python …")
		assert.NotContains(t, out, "╭")
		assert.Empty(t, b.Codes())
	})

	t.Run("fence closing mid-stream becomes a code frame", func(t *testing.T) {
		t.Parallel()
		b := bt.NewAssistantBlock(assistant("Here:\n```python\nprint(1)", true), testStyles(), nil)
		b.Set(assistant("Here:\n```python\nprint(1)\n```", true), nil)
		out := ansi.Strip(b.View(60))
		assert.Contains(t, out, "python #1")
		assert.Contains(t, out, "╭")
		assert.Len(t, b.Codes(), 1)
	})

	t.Run("unclosed fence after streaming stays prose", func(t *testing.T) {
		t.Parallel()
		b := bt.NewAssistantBlock(assistant("Here:\n```python\nprint(1)", false), testStyles(), nil)
		out := ansi.Strip(b.View(60))
		assert.Contains(t, out, "print(1)")
		assert.NotContains(t, out, "python …")
		assert.NotContains(t, out, "╭")
	})

	t.Run("renders are cached per width until the message changes", func(t *testing.T) {
		t.Parallel()
		b := bt.NewAssistantBlock(assistant("one", true), testStyles(), nil)
		first := b.View(40)
		assert.Equal(t, first, b.View(40))

		b.Set(assistant("one two", true), nil)
		assert.Contains(t, b.View(40), "one two")
	})
}

func TestAssistantBlock_Decor(t *testing.T) {
	t.Parallel()

	text := "```go\nfunc a() {\n\treturn\n}\n```"

	t.Run("selection shows action hints", func(t *testing.T) {
		t.Parallel()
		b := bt.NewAssistantBlock(assistant(text, false), testStyles(), nil)
		assert.NotContains(t, b.View(80), "alt+r refactor")
		b.Set(assistant(text, false), []bt.CodeDecor{{Selected: true}})
		assert.Contains(t, ansi.Strip(b.View(80)), "alt+r refactor")
	})

	t.Run("refactor states", func(t *testing.T) {
		t.Parallel()
		b := bt.NewAssistantBlock(assistant(text, false), testStyles(), nil)

		b.Set(assistant(text, false), []bt.CodeDecor{{Refactor: action.Result{Status: action.Pending}}})
		assert.Contains(t, ansi.Strip(b.View(80)), "Refactoring")

		b.Set(assistant(text, false), []bt.CodeDecor{{Refactor: action.Result{Status: action.Done, Unchanged: true}}})
		assert.Contains(t, ansi.Strip(b.View(80)), "No changes suggested")

		runs := diff.Lines("func a() {\n\treturn\n}", "func a() {}")
		b.Set(assistant(text, false), []bt.CodeDecor{{Refactor: action.Result{Status: action.Done, Runs: runs}}})
		out := ansi.Strip(b.View(80))
		assert.Contains(t, out, "Suggested refactor")
		assert.Contains(t, out, "+ func a() {}")

		b.Set(assistant(text, false), []bt.CodeDecor{{Refactor: action.Result{Status: action.Failed, Err: "// Error refactoring code: boom"}}})
		assert.Contains(t, ansi.Strip(b.View(80)), "Error refactoring code: boom")
	})

	t.Run("explanation is indented markdown", func(t *testing.T) {
		t.Parallel()
		b := bt.NewAssistantBlock(assistant(text, false), testStyles(), nil)
		b.Set(assistant(text, false), []bt.CodeDecor{{Explain: action.Result{Status: action.Done, Explanation: "Returns `nothing`."}}})
		out := ansi.Strip(b.View(80))
		var found bool
		for _, line := range strings.Split(out, "\n") {
			if strings.HasPrefix(line, "│ ") && strings.Contains(line, "Returns nothing.") {
				found = true
			}
		}
		assert.True(t, found, out)
	})
}

func TestRenderDiff(t *testing.T) {
	t.Parallel()

	runs := diff.Lines("a\nb\nc\n", "a\nB\nc\nd\n")
	out := ansi.Strip(bt.RenderDiff(runs, 40, testStyles()))
	lines := strings.Split(out, "\n")

	assert.Contains(t, lines[0], "+2 -1")
	assert.Contains(t, lines, "  a")
	assert.Contains(t, lines, "- b")
	assert.Contains(t, lines, "+ B")
	assert.Contains(t, lines, "+ d")
}
