package text

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/resfight/internal/game/viewpoint"
)

// RenderViewpoint formats v as a title, its description paragraphs, and its
// visible actions numbered from 1 in display order. Hidden actions are not
// listed.
//
// Postcondition: The returned actions are the numbered ones, index i holding action i+1.
func RenderViewpoint(v *viewpoint.Viewpoint, s Styler) (string, []viewpoint.Action) {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(s.Colorize(BrightYellow, v.Title))
	b.WriteString("\n")
	for _, p := range v.Paragraphs() {
		b.WriteString(s.Colorize(paragraphColor(p), p))
		b.WriteString("\n")
	}

	var numbered []viewpoint.Action
	for _, g := range v.SortedActionGroups() {
		if g.ID == viewpoint.GroupHidden || len(g.Actions) == 0 {
			continue
		}
		b.WriteString(s.Colorize(Cyan, g.Title+":"))
		b.WriteString("\n")
		for _, a := range g.Actions {
			numbered = append(numbered, a)
			b.WriteString(fmt.Sprintf("  %s %s\n", s.Colorf(BrightCyan, "[%d]", len(numbered)), a.Title))
		}
	}
	return b.String(), numbered
}

// RenderError formats err as red text.
func RenderError(err error, s Styler) string {
	return s.Colorf(Red, "error: %v", err)
}

func paragraphColor(p string) string {
	switch {
	case strings.Contains(p, "critical hit"), strings.Contains(p, "advance to level"):
		return Green
	case strings.Contains(p, "defeated"):
		return Yellow
	default:
		return White
	}
}
