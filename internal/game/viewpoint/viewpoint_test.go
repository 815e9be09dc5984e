package viewpoint_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/resfight/internal/game/viewpoint"
)

func TestViewpoint_Description(t *testing.T) {
	v := viewpoint.New("Forest")
	v.AddDescriptionParagraph("one")
	v.AddDescriptionParagraphf("%s %d", "two", 2)
	assert.Equal(t, []string{"one", "two 2"}, v.Paragraphs())
	assert.Equal(t, "one\n\ntwo 2", v.Description())

	v.ClearDescription()
	assert.Empty(t, v.Paragraphs())
	assert.Equal(t, "", v.Description())
}

func TestViewpoint_DefaultGroups(t *testing.T) {
	v := viewpoint.New("x")
	groups := v.ActionGroups()
	require.Len(t, groups, 2)
	assert.Equal(t, viewpoint.GroupHidden, groups[0].ID)
	assert.Equal(t, viewpoint.GroupDefault, groups[1].ID)
}

func TestViewpoint_SetActionGroupsReplaces(t *testing.T) {
	v := viewpoint.New("x")
	a := viewpoint.NewAction(7, "Attack", map[string]string{"k": "v"})
	v.SetActionGroups([]viewpoint.ActionGroup{{ID: "g", Title: "G", Actions: []viewpoint.Action{a}}})

	groups := v.ActionGroups()
	require.Len(t, groups, 1)
	assert.Equal(t, "g", groups[0].ID)

	got, ok := v.FindAction(a.ID)
	require.True(t, ok)
	assert.Equal(t, a, got)

	_, ok = v.FindAction(uuid.New())
	assert.False(t, ok)
}

func TestViewpoint_ActionGroupsIsACopy(t *testing.T) {
	v := viewpoint.New("x")
	v.AddAction(viewpoint.GroupDefault, viewpoint.NewAction(1, "Go", map[string]string{"a": "b"}))
	groups := v.ActionGroups()
	groups[1].Actions[0].Parameters["a"] = "mutated"
	groups[1].Title = "mutated"

	again := v.ActionGroups()
	assert.Equal(t, "b", again[1].Actions[0].Parameters["a"])
	assert.Equal(t, "Actions", again[1].Title)
}

func TestViewpoint_ActionsInSortOrder(t *testing.T) {
	v := viewpoint.New("x")
	late := viewpoint.NewAction(1, "Late", nil)
	early := viewpoint.NewAction(1, "Early", nil)
	v.SetActionGroups([]viewpoint.ActionGroup{
		{ID: "late", SortKey: 100, Actions: []viewpoint.Action{late}},
		{ID: "early", SortKey: 0, Actions: []viewpoint.Action{early}},
	})
	actions := v.Actions()
	require.Len(t, actions, 2)
	assert.Equal(t, "Early", actions[0].Title)
	assert.Equal(t, "Late", actions[1].Title)
	assert.False(t, v.AddAction("missing", early))
}

func TestViewpoint_SortedActionGroupsStable(t *testing.T) {
	v := viewpoint.New("x")
	v.SetActionGroups([]viewpoint.ActionGroup{
		{ID: "b", SortKey: 5},
		{ID: "a", SortKey: 0},
		{ID: "c", SortKey: 5},
	})
	var ids []string
	for _, g := range v.SortedActionGroups() {
		ids = append(ids, g.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Equal(t, "b", v.ActionGroups()[0].ID, "stored order is untouched")
}
