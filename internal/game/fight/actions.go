package fight

import (
	"github.com/cory-johannsen/resfight/internal/game/names"
	"github.com/cory-johannsen/resfight/internal/game/viewpoint"
)

// ActionCreator builds fight actions bound to the battle scene.
type ActionCreator interface {
	// CreateAction returns an action titled title whose parameters carry
	// parameterValue under names.ActionParameterField.
	CreateAction(title, parameterValue string) viewpoint.Action
}

// ActionFactory is the ActionCreator handed to fight-actions subscribers.
type ActionFactory struct {
	sceneID int64
}

// NewActionFactory creates a factory for actions pointing at sceneID.
func NewActionFactory(sceneID int64) ActionFactory {
	return ActionFactory{sceneID: sceneID}
}

// SceneID returns the scene every created action points at.
func (f ActionFactory) SceneID() int64 { return f.sceneID }

// CreateAction implements ActionCreator.
func (f ActionFactory) CreateAction(title, parameterValue string) viewpoint.Action {
	return viewpoint.NewAction(f.sceneID, title, map[string]string{
		names.ActionParameterField: parameterValue,
	})
}

// DefaultGroups builds the action groups of an in-progress fight: "Fight"
// holding the Attack action, and an empty "Flee" group reserved for
// subscribers.
func DefaultGroups(f ActionCreator) []viewpoint.ActionGroup {
	return []viewpoint.ActionGroup{
		{
			ID:      names.ActionGroupFight,
			Title:   names.ActionGroupFightTitle,
			SortKey: names.ActionGroupFightSortKey,
			Actions: []viewpoint.Action{f.CreateAction("Attack", names.ActionParameterAttack)},
		},
		{
			ID:      names.ActionGroupFlee,
			Title:   names.ActionGroupFleeTitle,
			SortKey: names.ActionGroupFleeSortKey,
			Actions: []viewpoint.Action{},
		},
	}
}
