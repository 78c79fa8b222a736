package markdown_test

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/fwojciec/codey"
	"github.com/fwojciec/codey/markdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStyles() markdown.Styles {
	return markdown.NewStyles(lipgloss.Color("5"), lipgloss.Color("8"))
}

func TestParse_Blocks(t *testing.T) {
	t.Parallel()

	t.Run("rule", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []markdown.Block{markdown.Rule{}}, markdown.Parse("---").Blocks)
		assert.Equal(t, []markdown.Block{markdown.Rule{}}, markdown.Parse("  ***  ").Blocks)
	})

	t.Run("headings 1 to 4", func(t *testing.T) {
		t.Parallel()
		doc := markdown.Parse("# One\n## Two\n### Three\n#### Four ##")
		require.Len(t, doc.Blocks, 4)
		for i, b := range doc.Blocks {
			h, ok := b.(markdown.Heading)
			require.True(t, ok)
			assert.Equal(t, i+1, h.Level)
		}
		assert.Equal(t, []markdown.Span{{Style: markdown.Plain, Text: "Four"}}, doc.Blocks[3].(markdown.Heading).Spans)
	})

	t.Run("deeper headings stay literal", func(t *testing.T) {
		t.Parallel()
		for _, in := range []string{"##### Five", "###### Six"} {
			doc := markdown.Parse(in)
			require.Len(t, doc.Blocks, 1)
			p, ok := doc.Blocks[0].(markdown.Paragraph)
			require.True(t, ok, in)
			assert.Equal(t, [][]markdown.Span{{{Text: in}}}, p.Lines)
		}
	})

	t.Run("hash without space is text", func(t *testing.T) {
		t.Parallel()
		doc := markdown.Parse("#hashtag")
		require.Len(t, doc.Blocks, 1)
		assert.IsType(t, markdown.Paragraph{}, doc.Blocks[0])
	})

	t.Run("rule wins over list marker", func(t *testing.T) {
		t.Parallel()
		doc := markdown.Parse("- a\n---\n- b")
		require.Len(t, doc.Blocks, 3)
		assert.IsType(t, markdown.List{}, doc.Blocks[0])
		assert.IsType(t, markdown.Rule{}, doc.Blocks[1])
		assert.IsType(t, markdown.List{}, doc.Blocks[2])
	})

	t.Run("contiguous list lines form one list", func(t *testing.T) {
		t.Parallel()
		doc := markdown.Parse("Steps:\n1. first\n2. **second**\n   - nested *note*\n\nafter")
		require.Len(t, doc.Blocks, 3)
		list, ok := doc.Blocks[1].(markdown.List)
		require.True(t, ok)
		require.Len(t, list.Items, 3)
		assert.Equal(t, markdown.Item{Ordered: true, Marker: "1.", Spans: []markdown.Span{{Text: "first"}}}, list.Items[0])
		assert.Equal(t, []markdown.Span{{Style: markdown.Bold, Text: "second"}}, list.Items[1].Spans)
		assert.Equal(t, 1, list.Items[2].Indent)
		assert.False(t, list.Items[2].Ordered)
		assert.Equal(t, []markdown.Span{{Text: "nested "}, {Style: markdown.Italic, Text: "note"}}, list.Items[2].Spans)
	})

	t.Run("lists of different kinds in one run merge", func(t *testing.T) {
		t.Parallel()
		doc := markdown.Parse("1. a\n- b")
		require.Len(t, doc.Blocks, 1)
		list := doc.Blocks[0].(markdown.List)
		require.Len(t, list.Items, 2)
		assert.True(t, list.Items[0].Ordered)
		assert.False(t, list.Items[1].Ordered)
	})

	t.Run("ordered markers count from the start number", func(t *testing.T) {
		t.Parallel()
		doc := markdown.Parse("3) c\n4) d")
		require.Len(t, doc.Blocks, 1)
		list := doc.Blocks[0].(markdown.List)
		require.Len(t, list.Items, 2)
		assert.Equal(t, "3)", list.Items[0].Marker)
		assert.Equal(t, "4)", list.Items[1].Marker)
	})

	t.Run("wrapped item lines join", func(t *testing.T) {
		t.Parallel()
		doc := markdown.Parse("- one\n  two")
		require.Len(t, doc.Blocks, 1)
		list := doc.Blocks[0].(markdown.List)
		require.Len(t, list.Items, 1)
		assert.Equal(t, []markdown.Span{{Text: "one two"}}, list.Items[0].Spans)
	})

	t.Run("list bullets are not italic markers", func(t *testing.T) {
		t.Parallel()
		doc := markdown.Parse("* one*\n* two*")
		require.Len(t, doc.Blocks, 1)
		list := doc.Blocks[0].(markdown.List)
		assert.Equal(t, []markdown.Span{{Text: "one*"}}, list.Items[0].Spans)
	})

	t.Run("blank lines split paragraphs", func(t *testing.T) {
		t.Parallel()
		doc := markdown.Parse("a\nb\n\nc")
		require.Len(t, doc.Blocks, 2)
		assert.Len(t, doc.Blocks[0].(markdown.Paragraph).Lines, 2)
	})
}

func TestParse_Inline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []markdown.Span
	}{
		{"bold", "a **b** c", []markdown.Span{{Text: "a "}, {Style: markdown.Bold, Text: "b"}, {Text: " c"}}},
		{"italic star", "*x*", []markdown.Span{{Style: markdown.Italic, Text: "x"}}},
		{"italic underscore", "_x_ y", []markdown.Span{{Style: markdown.Italic, Text: "x"}, {Text: " y"}}},
		{"code keeps markers literal", "`**not bold**`", []markdown.Span{{Style: markdown.Code, Text: "**not bold**"}}},
		{"snake_case untouched", "use my_var_name here", []markdown.Span{{Text: "use my_var_name here"}}},
		{"arithmetic untouched", "2 * 3 * 4", []markdown.Span{{Text: "2 * 3 * 4"}}},
		{"unclosed bold literal", "**open", []markdown.Span{{Text: "**open"}}},
		{"unclosed code literal", "a `b", []markdown.Span{{Text: "a `b"}}},
		{"empty backticks literal", "``", []markdown.Span{{Text: "``"}}},
		{"escaped markers literal", `\*not italic\*`, []markdown.Span{{Text: "*not italic*"}}},
		{"bold italic is bold", "***both***", []markdown.Span{{Style: markdown.Bold, Text: "both"}}},
		{"code inside bold stays code", "**a `b`**", []markdown.Span{{Style: markdown.Bold, Text: "a "}, {Style: markdown.Code, Text: "b"}}},
		{"unicode survives", "héllo **wörld** 🔥", []markdown.Span{{Text: "héllo "}, {Style: markdown.Bold, Text: "wörld"}, {Text: " 🔥"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc := markdown.Parse(tt.in)
			require.Len(t, doc.Blocks, 1)
			p, ok := doc.Blocks[0].(markdown.Paragraph)
			require.True(t, ok)
			assert.Equal(t, tt.want, p.Lines[0])
		})
	}
}

func TestParse_FencesAreNotBlocks(t *testing.T) {
	t.Parallel()
	doc := markdown.Parse("Here:\n```python\nprint(1)")
	require.Len(t, doc.Blocks, 1)
	p, ok := doc.Blocks[0].(markdown.Paragraph)
	require.True(t, ok)
	assert.Equal(t, [][]markdown.Span{{{Text: "Here:"}}, {{Text: "```python"}}, {{Text: "print(1)"}}}, p.Lines)
}

func TestParse_NeverFails(t *testing.T) {
	t.Parallel()
	inputs := []string{"", "\n\n\n", "#", "# ", "1.", "-", "***bold-italic***", "`", "_", "\x1b[31mred\x1b[0m", "**a *b** c*", "- - -x", "1. - # deep", "    indented", "> quote", "<b>html</b>", "[link](x)"}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			_ = markdown.Render(markdown.Parse(in), 40, testStyles())
		}, in)
	}
}

func TestRender_Idempotent(t *testing.T) {
	t.Parallel()
	prose := "# Title\n\nSome **bold** and `code`.\n\n- one\n- two\n\n---\n\n1. x\n2. y"
	st := testStyles()
	first := markdown.Format(prose, 60, st)
	second := markdown.Format(prose, 60, st)
	assert.Equal(t, first, second)
	assert.Equal(t, markdown.Parse(prose), markdown.Parse(prose))
}

func TestRender_Content(t *testing.T) {
	t.Parallel()
	out := ansi.Strip(markdown.Format("## Hi\n\n- a\n- b\n\ntext", 40, testStyles()))
	assert.Contains(t, out, "Hi")
	assert.NotContains(t, out, "##")
	assert.Contains(t, out, "• a")
	assert.Contains(t, out, "• b")
	assert.Contains(t, out, "text")
}

func TestRender_ListWrapsWithHangingIndent(t *testing.T) {
	t.Parallel()
	out := ansi.Strip(markdown.Format("- alpha beta gamma delta epsilon zeta eta theta", 20, testStyles()))
	lines := strings.Split(out, "\n")
	require.Greater(t, len(lines), 1)
	assert.True(t, strings.HasPrefix(lines[0], "• "))
	assert.True(t, strings.HasPrefix(lines[1], "  "))
}

func TestParseMessage_Pending(t *testing.T) {
	t.Parallel()

	doc := markdown.ParseMessage(codey.Message{Sender: codey.RoleAssistant, Streaming: true})
	assert.True(t, doc.IsPending())
	assert.Contains(t, markdown.Render(doc, 40, testStyles()), markdown.PendingIndicator)

	user := markdown.ParseMessage(codey.Message{Sender: codey.RoleUser})
	assert.False(t, user.IsPending())
	assert.Empty(t, user.Blocks)

	assert.False(t, markdown.ParseMessage(codey.Message{Sender: codey.RoleAssistant, Text: "hi"}).IsPending())
}
