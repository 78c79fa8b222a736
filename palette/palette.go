// Package palette resolves accent themes into terminal colors and asks the
// model to invent new ones.
package palette

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/codey"
	"github.com/lucasb-eyer/go-colorful"
)

// Presets are the built-in themes, in picker order.
var Presets = []codey.Theme{
	{Name: "Purple", C400: "272 91% 75%", C500: "272 91% 65%", C600: "272 91% 53%", ActiveText: "white"},
	{Name: "Yellow", C400: "45 93% 65%", C500: "45 93% 58%", C600: "45 93% 50%", ActiveText: "black"},
	{Name: "Blue", C400: "217 91% 65%", C500: "217 91% 59%", C600: "217 91% 53%", ActiveText: "white"},
	{Name: "Green", C400: "142 71% 55%", C500: "142 71% 45%", C600: "142 71% 39%", ActiveText: "white"},
	{Name: "Pink", C400: "325 91% 75%", C500: "325 91% 65%", C600: "325 91% 53%", ActiveText: "white"},
	{Name: "Cyan", C400: "185 83% 65%", C500: "185 83% 55%", C600: "185 83% 48%", ActiveText: "black"},
}

// DefaultTheme is the theme used when none is configured.
const DefaultTheme = "purple"

// Palette is a theme converted to terminal colors.
type Palette struct {
	Name string
	// Light, Base and Dark are the 400, 500 and 600 shades.
	Light lipgloss.Color
	Base  lipgloss.Color
	Dark  lipgloss.Color
	// OnAccent is the text color drawn over Base.
	OnAccent lipgloss.Color
}

// Find looks a theme up by name, case-insensitively, among custom themes
// first and then the presets.
func Find(name string, custom []codey.Theme) (codey.Theme, bool) {
	for _, list := range [][]codey.Theme{custom, Presets} {
		for _, t := range list {
			if strings.EqualFold(t.Name, name) {
				return t, true
			}
		}
	}
	return codey.Theme{}, false
}

// Resolve converts t into terminal colors.
func Resolve(t codey.Theme) (Palette, error) {
	if err := t.Validate(); err != nil {
		return Palette{}, err
	}
	p := Palette{Name: t.Name}
	for _, shade := range []struct {
		hsl string
		dst *lipgloss.Color
	}{{t.C400, &p.Light}, {t.C500, &p.Base}, {t.C600, &p.Dark}} {
		h, s, l, err := codey.ParseHSL(shade.hsl)
		if err != nil {
			return Palette{}, err
		}
		*shade.dst = lipgloss.Color(colorful.Hsl(h, s, l).Clamped().Hex())
	}
	p.OnAccent = lipgloss.Color("#ffffff")
	if strings.HasSuffix(t.ActiveText, "black") {
		p.OnAccent = lipgloss.Color("#000000")
	}
	return p, nil
}

// Named resolves the theme called name, falling back to the default
// preset when it is unknown or invalid.
func Named(name string, custom []codey.Theme) Palette {
	if t, ok := Find(name, custom); ok {
		if p, err := Resolve(t); err == nil {
			return p
		}
	}
	t, _ := Find(DefaultTheme, nil)
	p, _ := Resolve(t)
	return p
}

// Schema is the JSON Schema a generated theme must match.
var Schema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "name": {"type": "string", "description": "A short, creative name for the theme."},
    "c400": {"type": "string", "description": "Lightest accent shade as an HSL string, e.g. \"272 91% 75%\"."},
    "c500": {"type": "string", "description": "Main accent shade as an HSL string."},
    "c600": {"type": "string", "description": "Darkest accent shade as an HSL string."},
    "activeText": {"type": "string", "enum": ["white", "black"], "description": "Text color with the best contrast on the main shade."}
  },
  "required": ["name", "c400", "c500", "c600", "activeText"]
}`)

// Generator creates themes from a free-form description.
type Generator struct {
	provider codey.Provider
	model    string
}

// NewGenerator returns a Generator that uses model on p.
func NewGenerator(p codey.Provider, model string) *Generator {
	return &Generator{provider: p, model: model}
}

// Generate asks the model for a theme matching description. Replies that
// do not decode into a valid theme fail with codey.ErrMalformedResponse.
func (g *Generator) Generate(ctx context.Context, description string) (codey.Theme, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return codey.Theme{}, fmt.Errorf("empty theme description: %w", codey.ErrUserInputRejected)
	}
	prompt := "Design an accent color theme for a dark terminal coding assistant inspired by: " + description +
		". Give three shades of one hue from light to dark as HSL strings in the form \"H S% L%\"."
	var t codey.Theme
	err := codey.CompleteJSON(ctx, g.provider, codey.Request{
		Model:   g.model,
		History: []codey.Turn{codey.UserTurn(prompt)},
		Schema:  Schema,
	}, &t)
	if err != nil {
		return codey.Theme{}, fmt.Errorf("generate theme: %w", err)
	}
	t.ActiveText = strings.TrimPrefix(t.ActiveText, "text-")
	return t, nil
}
