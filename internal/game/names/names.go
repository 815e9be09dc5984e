// Package names is the constant table of the fight module: its identifier,
// the hook names it publishes, the character property keys it owns, and the
// action and scene identifiers it renders.
//
// Every identifier is namespaced under ModuleID so that other modules sharing
// a character's property store or a hook pipeline never collide with it.
package names

import "github.com/cory-johannsen/resfight/internal/hook"

// ModuleID namespaces every identifier below.
const ModuleID = "mud/res-fight"

// Hook names.
const (
	// HookFightActions is published before fight actions are committed to the viewpoint.
	HookFightActions hook.Name = "h/" + ModuleID + "/fightActions"
	// HookActionChosen is published before a chosen fight action is dispatched.
	HookActionChosen hook.Name = "h/" + ModuleID + "/actionChosen"
	// HookBattleOver is published once when a battle concludes.
	HookBattleOver hook.Name = "h/" + ModuleID + "/battleOver"
	// EventCharacterLevelUp is published after each successful level-up.
	EventCharacterLevelUp hook.Name = "e/" + ModuleID + "/characterLevelUp"
)

// Character property keys.
const (
	PropertyBattleState        = ModuleID + "/battleState"
	PropertyTurns              = ModuleID + "/turns"
	PropertyCurrentExperience  = ModuleID + "/currentExperience"
	PropertyRequiredExperience = ModuleID + "/requiredExperience"
)

// SceneBattle is the template of the scene fights are rendered in.
const SceneBattle = ModuleID + "/battle"

// Action groups and parameters.
const (
	ActionGroupFight = ModuleID + "/fight"
	ActionGroupFlee  = ModuleID + "/flee"

	ActionGroupFightTitle = "Fight"
	ActionGroupFleeTitle  = "Flee"

	ActionGroupFightSortKey = 0
	ActionGroupFleeSortKey  = 100

	// ActionParameterField is the parameter key that carries the chosen fight action.
	ActionParameterField  = ModuleID + "/inFight"
	ActionParameterAttack = ModuleID + "/attack"
	ActionParameterFlee   = ModuleID + "/flee"
)
