package fight

import (
	"reflect"

	"github.com/cory-johannsen/resfight/internal/game/names"
	"github.com/cory-johannsen/resfight/internal/game/viewpoint"
	"github.com/cory-johannsen/resfight/internal/hook"
)

// Field names shared by the fight hook contexts.
const (
	FieldGroups                     = "groups"
	FieldBattle                     = "battle"
	FieldViewpoint                  = "viewpoint"
	FieldReferrerSceneID            = "referrerSceneId"
	FieldBattleIdentifier           = "battleIdentifier"
	FieldActionParameter            = "actionParameter"
	FieldBlockNormalFightProcessing = "blockNormalFightProcessing"
	FieldActionCreationCallback     = "actionCreationCallback"
)

func requireBattle(name hook.Name, f hook.Fields) (Battle, error) {
	b, err := hook.Require[Battle](name, f, FieldBattle, "a battle")
	if err == nil && isNilPointer(b) {
		return nil, hook.Missing(name, FieldBattle)
	}
	return b, err
}

// isNilPointer reports whether b wraps a typed nil such as (*battle.Battle)(nil).
func isNilPointer(b Battle) bool {
	v := reflect.ValueOf(b)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func requireViewpoint(name hook.Name, f hook.Fields) (*viewpoint.Viewpoint, error) {
	v, err := hook.Require[*viewpoint.Viewpoint](name, f, FieldViewpoint, "a viewpoint")
	if err == nil && v == nil {
		return nil, hook.Missing(name, FieldViewpoint)
	}
	return v, err
}

func requireString(name hook.Name, f hook.Fields, key string) (string, error) {
	return hook.Require[string](name, f, key, "a string")
}

// FightActionsData is the context of names.HookFightActions.
//
// Subscribers may edit Groups directly or add actions built with CreateAction;
// whatever Groups holds after the last subscriber replaces the viewpoint's groups.
type FightActionsData struct {
	Groups           []viewpoint.ActionGroup
	Battle           Battle
	ReferrerSceneID  int64
	BattleIdentifier string
	CreateAction     ActionCreator
}

// NewFightActionsData validates and builds a fight-actions context.
func NewFightActionsData(groups []viewpoint.ActionGroup, b Battle, referrerSceneID int64, battleIdentifier string, creator ActionCreator) (FightActionsData, error) {
	f := hook.Fields{
		FieldBattle:           b,
		FieldReferrerSceneID:  referrerSceneID,
		FieldBattleIdentifier: battleIdentifier,
	}
	if groups != nil {
		f[FieldGroups] = groups
	}
	if creator != nil {
		f[FieldActionCreationCallback] = creator
	}
	return FightActionsDataFromFields(f)
}

// FightActionsDataFromFields builds a fight-actions context from its dynamic field view.
//
// Postcondition: Returns an *hook.ArgumentError naming the first missing or mistyped field.
func FightActionsDataFromFields(f hook.Fields) (FightActionsData, error) {
	const name = names.HookFightActions
	groups, err := hook.Require[[]viewpoint.ActionGroup](name, f, FieldGroups, "a list of action groups")
	if err != nil {
		return FightActionsData{}, err
	}
	b, err := requireBattle(name, f)
	if err != nil {
		return FightActionsData{}, err
	}
	sceneID, err := hook.RequireInt64(name, f, FieldReferrerSceneID)
	if err != nil {
		return FightActionsData{}, err
	}
	ident, err := requireString(name, f, FieldBattleIdentifier)
	if err != nil {
		return FightActionsData{}, err
	}
	creator, err := hook.Require[ActionCreator](name, f, FieldActionCreationCallback, "callable as CreateAction(title, parameter)")
	if err != nil {
		return FightActionsData{}, err
	}
	return FightActionsData{
		Groups:           groups,
		Battle:           b,
		ReferrerSceneID:  sceneID,
		BattleIdentifier: ident,
		CreateAction:     creator,
	}, nil
}

// HookName implements hook.Context.
func (FightActionsData) HookName() hook.Name { return names.HookFightActions }

// Fields implements hook.Context.
func (d FightActionsData) Fields() hook.Fields {
	return hook.Fields{
		FieldGroups:                 d.Groups,
		FieldBattle:                 d.Battle,
		FieldReferrerSceneID:        d.ReferrerSceneID,
		FieldBattleIdentifier:       d.BattleIdentifier,
		FieldActionCreationCallback: d.CreateAction,
	}
}

// ActionChosenData is the context of names.HookActionChosen.
//
// A subscriber that sets BlockNormalFightProcessing takes over the action:
// the fight will not advance the battle for this request.
type ActionChosenData struct {
	Viewpoint                  *viewpoint.Viewpoint
	ActionParameter            string
	Battle                     Battle
	ReferrerSceneID            int64
	BattleIdentifier           string
	BlockNormalFightProcessing bool
}

// NewActionChosenData validates and builds an action-chosen context with
// BlockNormalFightProcessing unset.
func NewActionChosenData(v *viewpoint.Viewpoint, actionParameter string, b Battle, referrerSceneID int64, battleIdentifier string) (ActionChosenData, error) {
	return ActionChosenDataFromFields(hook.Fields{
		FieldViewpoint:                  v,
		FieldActionParameter:            actionParameter,
		FieldBattle:                     b,
		FieldReferrerSceneID:            referrerSceneID,
		FieldBattleIdentifier:           battleIdentifier,
		FieldBlockNormalFightProcessing: false,
	})
}

// ActionChosenDataFromFields builds an action-chosen context from its dynamic field view.
//
// Postcondition: Returns an *hook.ArgumentError naming the first missing or mistyped field.
func ActionChosenDataFromFields(f hook.Fields) (ActionChosenData, error) {
	const name = names.HookActionChosen
	v, err := requireViewpoint(name, f)
	if err != nil {
		return ActionChosenData{}, err
	}
	param, err := requireString(name, f, FieldActionParameter)
	if err != nil {
		return ActionChosenData{}, err
	}
	b, err := requireBattle(name, f)
	if err != nil {
		return ActionChosenData{}, err
	}
	sceneID, err := hook.RequireInt64(name, f, FieldReferrerSceneID)
	if err != nil {
		return ActionChosenData{}, err
	}
	ident, err := requireString(name, f, FieldBattleIdentifier)
	if err != nil {
		return ActionChosenData{}, err
	}
	block, err := hook.Require[bool](name, f, FieldBlockNormalFightProcessing, "a boolean")
	if err != nil {
		return ActionChosenData{}, err
	}
	return ActionChosenData{
		Viewpoint:                  v,
		ActionParameter:            param,
		Battle:                     b,
		ReferrerSceneID:            sceneID,
		BattleIdentifier:           ident,
		BlockNormalFightProcessing: block,
	}, nil
}

// HookName implements hook.Context.
func (ActionChosenData) HookName() hook.Name { return names.HookActionChosen }

// Fields implements hook.Context.
func (d ActionChosenData) Fields() hook.Fields {
	return hook.Fields{
		FieldViewpoint:                  d.Viewpoint,
		FieldActionParameter:            d.ActionParameter,
		FieldBattle:                     d.Battle,
		FieldReferrerSceneID:            d.ReferrerSceneID,
		FieldBattleIdentifier:           d.BattleIdentifier,
		FieldBlockNormalFightProcessing: d.BlockNormalFightProcessing,
	}
}

// BattleOverData is the context of names.HookBattleOver.
type BattleOverData struct {
	Battle           Battle
	Viewpoint        *viewpoint.Viewpoint
	ReferrerSceneID  int64
	BattleIdentifier string
}

// NewBattleOverData validates and builds a battle-over context.
func NewBattleOverData(b Battle, v *viewpoint.Viewpoint, referrerSceneID int64, battleIdentifier string) (BattleOverData, error) {
	return BattleOverDataFromFields(hook.Fields{
		FieldBattle:           b,
		FieldViewpoint:        v,
		FieldReferrerSceneID:  referrerSceneID,
		FieldBattleIdentifier: battleIdentifier,
	})
}

// BattleOverDataFromFields builds a battle-over context from its dynamic field view.
//
// Postcondition: Returns an *hook.ArgumentError naming the first missing or mistyped field.
func BattleOverDataFromFields(f hook.Fields) (BattleOverData, error) {
	const name = names.HookBattleOver
	b, err := requireBattle(name, f)
	if err != nil {
		return BattleOverData{}, err
	}
	v, err := requireViewpoint(name, f)
	if err != nil {
		return BattleOverData{}, err
	}
	sceneID, err := hook.RequireInt64(name, f, FieldReferrerSceneID)
	if err != nil {
		return BattleOverData{}, err
	}
	ident, err := requireString(name, f, FieldBattleIdentifier)
	if err != nil {
		return BattleOverData{}, err
	}
	return BattleOverData{
		Battle:           b,
		Viewpoint:        v,
		ReferrerSceneID:  sceneID,
		BattleIdentifier: ident,
	}, nil
}

// HookName implements hook.Context.
func (BattleOverData) HookName() hook.Name { return names.HookBattleOver }

// Fields implements hook.Context.
func (d BattleOverData) Fields() hook.Fields {
	return hook.Fields{
		FieldBattle:           d.Battle,
		FieldViewpoint:        d.Viewpoint,
		FieldReferrerSceneID:  d.ReferrerSceneID,
		FieldBattleIdentifier: d.BattleIdentifier,
	}
}
