package text_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/resfight/internal/frontend/text"
	"github.com/cory-johannsen/resfight/internal/game/viewpoint"
)

func TestStyler_Disabled(t *testing.T) {
	assert.Equal(t, "plain", text.Styler{}.Colorize(text.Red, "plain"))
}

func TestStyler_Enabled(t *testing.T) {
	s := text.Styler{Enabled: true}
	assert.Equal(t, "\033[31mdanger\033[0m", s.Colorize(text.Red, "danger"))
	assert.Equal(t, "\033[32mhealth: 42\033[0m", s.Colorf(text.Green, "health: %d", 42))
}

func TestStripANSI(t *testing.T) {
	input := "\033[31mred\033[0m normal \033[1m\033[32mbold green\033[0m"
	assert.Equal(t, "red normal bold green", text.StripANSI(input))
	assert.Equal(t, "plain text", text.StripANSI("plain text"))
	assert.Equal(t, "", text.StripANSI(""))
}

func TestRenderViewpoint(t *testing.T) {
	v := viewpoint.New("A fight!")
	v.AddDescriptionParagraph("You are fighting against Slime (level 1) who has 5 hitpoints left.")
	v.SetActionGroups([]viewpoint.ActionGroup{
		{ID: "flee", Title: "Flee", SortKey: 100, Actions: []viewpoint.Action{viewpoint.NewAction(1, "Run away", nil)}},
		{ID: "fight", Title: "Fight", SortKey: 0, Actions: []viewpoint.Action{viewpoint.NewAction(1, "Attack", nil)}},
		{ID: viewpoint.GroupHidden, Title: "", SortKey: -1, Actions: []viewpoint.Action{viewpoint.NewAction(1, "Secret", nil)}},
		{ID: "empty", Title: "Empty", SortKey: 50},
	})

	out, actions := text.RenderViewpoint(v, text.Styler{})
	require.Len(t, actions, 2)
	assert.Equal(t, "Attack", actions[0].Title)
	assert.Equal(t, "Run away", actions[1].Title)
	assert.Contains(t, out, "A fight!\n")
	assert.Contains(t, out, "Fight:\n  [1] Attack\n")
	assert.Contains(t, out, "Flee:\n  [2] Run away\n")
	assert.NotContains(t, out, "Secret")
	assert.NotContains(t, out, "Empty")
}

func TestRenderViewpoint_ColourStripsToPlain(t *testing.T) {
	v := viewpoint.New("Forest")
	v.AddDescriptionParagraph("Violet lands a critical hit on Slime for 12 damage!")
	v.SetActionGroups(viewpoint.DefaultGroups())
	v.AddAction(viewpoint.GroupDefault, viewpoint.NewAction(2, "Search for a fight", nil))

	plain, _ := text.RenderViewpoint(v, text.Styler{})
	coloured, _ := text.RenderViewpoint(v, text.Styler{Enabled: true})
	assert.NotEqual(t, plain, coloured)
	assert.Equal(t, plain, text.StripANSI(coloured))
}

func TestRenderError(t *testing.T) {
	assert.Equal(t, "error: boom", text.RenderError(errors.New("boom"), text.Styler{}))
}

func TestProperty_StripANSIInversesColorize(t *testing.T) {
	colors := []string{text.Red, text.Green, text.Yellow, text.Cyan, text.White, text.Bold, text.Dim}
	s := text.Styler{Enabled: true}
	rapid.Check(t, func(rt *rapid.T) {
		body := rapid.StringMatching(`[a-zA-Z0-9 ]{0,50}`).Draw(rt, "text")
		color := rapid.SampledFrom(colors).Draw(rt, "color")
		assert.Equal(rt, body, text.StripANSI(s.Colorize(color, body)))
	})
}

func TestProperty_StripANSINeverLonger(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		in := rapid.String().Draw(rt, "text")
		out := text.StripANSI(in)
		assert.LessOrEqual(rt, len(out), len(in))
		assert.False(rt, strings.Contains(out, "\033[") && !strings.Contains(in, "\033["))
	})
}
