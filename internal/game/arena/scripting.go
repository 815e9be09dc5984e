package arena

import (
	"github.com/cory-johannsen/resfight/internal/game/fight"
	"github.com/cory-johannsen/resfight/internal/game/names"
	"github.com/cory-johannsen/resfight/internal/game/progression"
	"github.com/cory-johannsen/resfight/internal/hook"
	"github.com/cory-johannsen/resfight/internal/scripting"
)

// ScriptBindings maps every hook the fight module publishes to the Lua
// global that subscribes to it.
func ScriptBindings() []scripting.Binding {
	return []scripting.Binding{
		{
			Hook:     names.HookFightActions,
			Function: "on_fight_actions",
			FromFields: func(f hook.Fields) (hook.Context, error) {
				return fight.FightActionsDataFromFields(f)
			},
		},
		{
			Hook:     names.HookActionChosen,
			Function: "on_action_chosen",
			FromFields: func(f hook.Fields) (hook.Context, error) {
				return fight.ActionChosenDataFromFields(f)
			},
		},
		{
			Hook:     names.HookBattleOver,
			Function: "on_battle_over",
			FromFields: func(f hook.Fields) (hook.Context, error) {
				return fight.BattleOverDataFromFields(f)
			},
		},
		{
			Hook:     names.EventCharacterLevelUp,
			Function: "on_level_up",
			FromFields: func(f hook.Fields) (hook.Context, error) {
				return progression.LevelUpDataFromFields(f)
			},
		},
	}
}

// ScriptNames is the engine.names table exposed to Lua.
func ScriptNames() map[string]string {
	return map[string]string{
		"module":           names.ModuleID,
		"action_field":     names.ActionParameterField,
		"attack":           names.ActionParameterAttack,
		"flee":             names.ActionParameterFlee,
		"group_fight":      names.ActionGroupFight,
		"group_flee":       names.ActionGroupFlee,
		"forest_battle":    ForestBattle,
		"template_forest":  TemplateForest,
		"template_village": TemplateVillage,
	}
}
