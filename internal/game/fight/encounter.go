package fight

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/resfight/internal/game/character"
	"github.com/cory-johannsen/resfight/internal/game/names"
	"github.com/cory-johannsen/resfight/internal/game/viewpoint"
	"github.com/cory-johannsen/resfight/internal/hook"
)

// Fight is one character's active encounter. A Fight lives for one request;
// between requests it exists only as the FightState stored on the character.
//
// ReferrerSceneID and BattleIdentifier never change after Start.
type Fight struct {
	ctrl             *Controller
	character        *character.Character
	referrerSceneID  int64
	battleIdentifier string
	battle           Battle
}

// ReferrerSceneID returns the scene the fight was started from.
func (f *Fight) ReferrerSceneID() int64 { return f.referrerSceneID }

// BattleIdentifier returns the identifier passed to Start.
func (f *Fight) BattleIdentifier() string { return f.battleIdentifier }

// Battle returns the battle collaborator.
func (f *Fight) Battle() Battle { return f.battle }

// Character returns the fighting character.
func (f *Fight) Character() *character.Character { return f.character }

// IsOver reports whether the battle has concluded.
func (f *Fight) IsOver() bool { return f.battle.IsOver() }

// ShowFightActions builds the default fight action groups, publishes
// names.HookFightActions, and commits the groups returned by the last
// subscriber to v. It does nothing when the battle is over.
func (f *Fight) ShowFightActions(ctx context.Context, v *viewpoint.Viewpoint) error {
	if f.IsOver() {
		return nil
	}
	s, err := f.ctrl.battleScene(ctx)
	if err != nil {
		return err
	}
	factory := NewActionFactory(s.ID)
	data, err := NewFightActionsData(DefaultGroups(factory), f.battle, f.referrerSceneID, f.battleIdentifier, factory)
	if err != nil {
		return err
	}
	out, err := hook.Publish(ctx, f.ctrl.pipeline, data)
	if err != nil {
		return err
	}
	v.SetActionGroups(out.Groups)
	return nil
}

// Process handles one chosen action. It clears the description, publishes
// names.HookActionChosen, advances the battle one round unless a subscriber
// blocked normal processing, and writes the round's narrative to v.
//
// The parameter under names.ActionParameterField selects the action; when it
// is absent subscribers see an empty action parameter and the battle does not
// advance.
func (f *Fight) Process(ctx context.Context, v *viewpoint.Viewpoint, params map[string]string) error {
	v.ClearDescription()

	param, chosen := params[names.ActionParameterField]
	data, err := NewActionChosenData(v, param, f.battle, f.referrerSceneID, f.battleIdentifier)
	if err != nil {
		return err
	}
	out, err := hook.Publish(ctx, f.ctrl.pipeline, data)
	if err != nil {
		return err
	}

	before := f.battle.Monster()
	if chosen && !out.BlockNormalFightProcessing {
		// Attack and every action no subscriber claimed fight one round.
		if err := f.battle.FightNRounds(1); err != nil {
			return fmt.Errorf("fighting round: %w", err)
		}
	}

	v.AddDescriptionParagraphf("You are fighting against %s (level %d) who has %d hitpoints left.",
		before.Name, before.Level, before.CurrentHP)
	for _, e := range f.battle.Events() {
		v.AddDescriptionParagraph(e.Decorate())
	}
	after := f.battle.Monster()
	v.AddDescriptionParagraphf("%s (level %d) now has %d hitpoints left.",
		after.Name, after.Level, after.CurrentHP)

	f.ctrl.logger.Debug("fight action processed",
		zap.Int64("character_id", f.character.ID),
		zap.String("action", param),
		zap.Bool("blocked", out.BlockNormalFightProcessing),
		zap.Bool("over", f.IsOver()),
	)
	return nil
}

// Suspend stores the fight on the character, replacing any stored fight.
func (f *Fight) Suspend() error {
	blob, err := f.battle.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshotting battle: %w", err)
	}
	data, err := EncodeState(FightState{
		Data:   StateData{SceneID: f.referrerSceneID, Identifier: f.battleIdentifier},
		Battle: blob,
	})
	if err != nil {
		return err
	}
	f.character.Properties.SetRaw(names.PropertyBattleState, data)
	return nil
}

// Clear removes the stored fight from the character. Clearing twice is a no-op.
func (f *Fight) Clear() {
	f.character.Properties.Delete(names.PropertyBattleState)
}

// Won reports whether the battle ended with the enemy defeated and the player standing.
func Won(b Battle) bool {
	return b.IsOver() && b.Monster().IsDead() && !b.Player().IsDead()
}
