// Package goldmark converts message markdown to HTML for transcript
// export, using goldmark for parsing and chroma for fenced code blocks.
// Raw HTML in the source is never passed through.
package goldmark

import (
	"bytes"
	"fmt"

	"github.com/fwojciec/codey/chroma"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// Renderer converts markdown to HTML.
type Renderer struct {
	md goldmark.Markdown
}

// New returns a Renderer highlighting code with hl. A nil hl renders
// code blocks as escaped plain text.
func New(hl *chroma.Highlighter) *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Strikethrough, extension.Table),
			goldmark.WithRendererOptions(
				renderer.WithNodeRenderers(util.Prioritized(&codeRenderer{hl: hl}, 100)),
			),
		),
	}
}

// HTML converts source to an HTML fragment.
func (r *Renderer) HTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("goldmark: %w", err)
	}
	return buf.String(), nil
}

// codeRenderer overrides fenced code blocks so they go through chroma.
type codeRenderer struct {
	hl *chroma.Highlighter
}

func (r *codeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *codeRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkSkipChildren, nil
	}
	n := node.(*ast.FencedCodeBlock)

	var code bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}
	lang := string(n.Language(source))

	if r.hl != nil {
		if out, ok := r.hl.HTML(code.String(), lang); ok {
			_, _ = w.WriteString(out)
			return ast.WalkSkipChildren, nil
		}
	}
	_, _ = w.WriteString("<pre><code")
	if lang != "" {
		_, _ = w.WriteString(` class="language-`)
		_, _ = w.Write(util.EscapeHTML([]byte(lang)))
		_, _ = w.WriteString(`"`)
	}
	_, _ = w.WriteString(">")
	_, _ = w.Write(util.EscapeHTML(code.Bytes()))
	_, _ = w.WriteString("</code></pre>\n")
	return ast.WalkSkipChildren, nil
}
