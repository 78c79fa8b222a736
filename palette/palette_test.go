package palette_test

import (
	"context"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/codey"
	"github.com/fwojciec/codey/mock"
	"github.com/fwojciec/codey/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetsAreValid(t *testing.T) {
	t.Parallel()
	require.Len(t, palette.Presets, 6)
	for _, th := range palette.Presets {
		assert.NoError(t, th.Validate(), th.Name)
		_, err := palette.Resolve(th)
		assert.NoError(t, err, th.Name)
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	p, err := palette.Resolve(codey.Theme{Name: "Red", C400: "0 100% 75%", C500: "0 100% 50%", C600: "0 100% 25%", ActiveText: "black"})
	require.NoError(t, err)
	assert.Equal(t, lipgloss.Color("#ff0000"), p.Base)
	assert.Equal(t, lipgloss.Color("#ff8080"), p.Light)
	assert.Equal(t, lipgloss.Color("#800000"), p.Dark)
	assert.Equal(t, lipgloss.Color("#000000"), p.OnAccent)

	_, err = palette.Resolve(codey.Theme{Name: "Bad", C400: "nope", C500: "0 0% 0%", C600: "0 0% 0%", ActiveText: "white"})
	assert.ErrorIs(t, err, codey.ErrValidation)
}

func TestFindAndNamed(t *testing.T) {
	t.Parallel()

	custom := []codey.Theme{{Name: "Ocean", C400: "200 80% 70%", C500: "200 80% 50%", C600: "200 80% 40%", ActiveText: "white"}}

	th, ok := palette.Find("ocean", custom)
	require.True(t, ok)
	assert.Equal(t, "Ocean", th.Name)

	th, ok = palette.Find("CYAN", nil)
	require.True(t, ok)
	assert.Equal(t, "black", th.ActiveText)

	_, ok = palette.Find("missing", custom)
	assert.False(t, ok)

	assert.Equal(t, "Purple", palette.Named("missing", nil).Name)
	assert.Equal(t, "Ocean", palette.Named("Ocean", custom).Name)
}

func TestGenerator(t *testing.T) {
	t.Parallel()

	reply := func(text string) *mock.Generator {
		return &mock.Generator{GenerateFn: func(_ context.Context, req codey.Request) (codey.Reply, error) {
			assert.JSONEq(t, string(palette.Schema), string(req.Schema))
			return codey.Reply{Text: text}, nil
		}}
	}

	t.Run("valid theme", func(t *testing.T) {
		t.Parallel()
		g := palette.NewGenerator(reply(`{"name":"Neon","c400":"300 100% 70%","c500":"300 100% 60%","c600":"300 100% 45%","activeText":"text-black"}`), "m")
		th, err := g.Generate(context.Background(), "cyberpunk neon city")
		require.NoError(t, err)
		assert.Equal(t, "Neon", th.Name)
		assert.Equal(t, "black", th.ActiveText)
	})

	t.Run("fenced json is accepted", func(t *testing.T) {
		t.Parallel()
		g := palette.NewGenerator(reply("```json\n{\"name\":\"Moss\",\"c400\":\"120 40% 60%\",\"c500\":\"120 40% 50%\",\"c600\":\"120 40% 40%\",\"activeText\":\"white\"}\n```"), "m")
		th, err := g.Generate(context.Background(), "forest")
		require.NoError(t, err)
		assert.Equal(t, "Moss", th.Name)
	})

	t.Run("invalid payload is malformed", func(t *testing.T) {
		t.Parallel()
		g := palette.NewGenerator(reply(`{"name":"X","c400":"red","c500":"1 1% 1%","c600":"1 1% 1%","activeText":"white"}`), "m")
		_, err := g.Generate(context.Background(), "anything")
		assert.ErrorIs(t, err, codey.ErrMalformedResponse)

		g = palette.NewGenerator(reply(`not json`), "m")
		_, err = g.Generate(context.Background(), "anything")
		assert.ErrorIs(t, err, codey.ErrMalformedResponse)
	})

	t.Run("empty description is rejected", func(t *testing.T) {
		t.Parallel()
		g := palette.NewGenerator(reply(""), "m")
		_, err := g.Generate(context.Background(), "  ")
		assert.ErrorIs(t, err, codey.ErrUserInputRejected)
	})
}
