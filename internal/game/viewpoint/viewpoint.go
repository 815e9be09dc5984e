// Package viewpoint models what a character currently sees: a narrative
// description and the grouped actions they can choose from.
package viewpoint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Group ids every viewpoint starts with.
const (
	GroupHidden  = "hidden"
	GroupDefault = "default"
)

// Action is one selectable choice. Choosing it navigates to SceneID with Parameters.
type Action struct {
	ID         uuid.UUID
	SceneID    int64
	Title      string
	Parameters map[string]string
}

// NewAction creates an Action with a fresh ID.
func NewAction(sceneID int64, title string, params map[string]string) Action {
	p := make(map[string]string, len(params))
	for k, v := range params {
		p[k] = v
	}
	return Action{ID: uuid.New(), SceneID: sceneID, Title: title, Parameters: p}
}

// Clone returns a copy of a that shares no Parameters map.
func (a Action) Clone() Action {
	out := a
	if a.Parameters != nil {
		out.Parameters = make(map[string]string, len(a.Parameters))
		for k, v := range a.Parameters {
			out.Parameters[k] = v
		}
	}
	return out
}

// ActionGroup is a titled, ordered set of actions. Lower SortKey groups display first.
type ActionGroup struct {
	ID      string
	Title   string
	SortKey int
	Actions []Action
}

// Clone returns a deep copy of g.
func (g ActionGroup) Clone() ActionGroup {
	out := g
	out.Actions = make([]Action, len(g.Actions))
	for i, a := range g.Actions {
		out.Actions[i] = a.Clone()
	}
	return out
}

// CloneGroups deep-copies a group list.
func CloneGroups(groups []ActionGroup) []ActionGroup {
	if groups == nil {
		return nil
	}
	out := make([]ActionGroup, len(groups))
	for i, g := range groups {
		out[i] = g.Clone()
	}
	return out
}

// DefaultGroups returns the groups a viewpoint has before any module touches it.
func DefaultGroups() []ActionGroup {
	return []ActionGroup{
		{ID: GroupHidden, Title: "Hidden", SortKey: -1},
		{ID: GroupDefault, Title: "Actions", SortKey: 0},
	}
}

// Viewpoint is the rendered state shown to a character for one request.
type Viewpoint struct {
	Title      string
	paragraphs []string
	groups     []ActionGroup
}

// New creates a viewpoint with the default groups and an empty description.
func New(title string) *Viewpoint {
	return &Viewpoint{Title: title, groups: DefaultGroups()}
}

// ClearDescription removes every paragraph.
func (v *Viewpoint) ClearDescription() { v.paragraphs = nil }

// AddDescriptionParagraph appends one paragraph.
func (v *Viewpoint) AddDescriptionParagraph(text string) {
	v.paragraphs = append(v.paragraphs, text)
}

// AddDescriptionParagraphf appends one formatted paragraph.
func (v *Viewpoint) AddDescriptionParagraphf(format string, args ...any) {
	v.AddDescriptionParagraph(fmt.Sprintf(format, args...))
}

// Paragraphs returns a copy of the description paragraphs in order.
func (v *Viewpoint) Paragraphs() []string {
	return append([]string(nil), v.paragraphs...)
}

// Description returns the paragraphs joined by a blank line.
func (v *Viewpoint) Description() string {
	return strings.Join(v.paragraphs, "\n\n")
}

// SetActionGroups replaces the action groups wholesale.
func (v *Viewpoint) SetActionGroups(groups []ActionGroup) {
	v.groups = CloneGroups(groups)
}

// ActionGroups returns a deep copy of the current action groups.
func (v *Viewpoint) ActionGroups() []ActionGroup {
	return CloneGroups(v.groups)
}

// AddAction appends a to the group with groupID.
//
// Postcondition: Returns false when no such group exists.
func (v *Viewpoint) AddAction(groupID string, a Action) bool {
	for i := range v.groups {
		if v.groups[i].ID == groupID {
			v.groups[i].Actions = append(v.groups[i].Actions, a)
			return true
		}
	}
	return false
}

// FindAction returns the action with id from any group.
func (v *Viewpoint) FindAction(id uuid.UUID) (Action, bool) {
	for _, g := range v.groups {
		for _, a := range g.Actions {
			if a.ID == id {
				return a, true
			}
		}
	}
	return Action{}, false
}

// SortedActionGroups returns a deep copy of the groups ordered by SortKey;
// groups with equal keys keep their insertion order.
func (v *Viewpoint) SortedActionGroups() []ActionGroup {
	groups := CloneGroups(v.groups)
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].SortKey < groups[j].SortKey })
	return groups
}

// Actions returns every action in display order: groups by SortKey, then insertion order.
func (v *Viewpoint) Actions() []Action {
	var out []Action
	for _, g := range v.SortedActionGroups() {
		out = append(out, g.Actions...)
	}
	return out
}
