package arena

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/resfight/internal/game/character"
	"github.com/cory-johannsen/resfight/internal/game/fight"
	"github.com/cory-johannsen/resfight/internal/game/names"
	"github.com/cory-johannsen/resfight/internal/game/progression"
	"github.com/cory-johannsen/resfight/internal/game/viewpoint"
	"github.com/cory-johannsen/resfight/internal/hook"
)

// FleeDifficulty is the d20 + level total needed to escape a fight.
const FleeDifficulty = 12

type requestState struct {
	character *character.Character
	escaped   bool
}

type stateKey struct{}

func unexpectedVariant(hc hook.Context) error {
	return fmt.Errorf("arena: hook %s delivered %T", hc.HookName(), hc)
}

func withState(ctx context.Context, st *requestState) context.Context {
	return context.WithValue(ctx, stateKey{}, st)
}

func stateFrom(ctx context.Context) (*requestState, bool) {
	st, ok := ctx.Value(stateKey{}).(*requestState)
	return st, ok
}

// offerFlee adds the flee action to the flee group.
func (a *Arena) offerFlee(_ context.Context, hc hook.Context) (hook.Context, error) {
	d, ok := hc.(fight.FightActionsData)
	if !ok {
		return hc, unexpectedVariant(hc)
	}
	for i := range d.Groups {
		if d.Groups[i].ID == names.ActionGroupFlee {
			g := d.Groups[i].Clone()
			g.Actions = append(g.Actions, d.CreateAction.CreateAction("Run away", names.ActionParameterFlee))
			groups := viewpoint.CloneGroups(d.Groups)
			groups[i] = g
			d.Groups = groups
		}
	}
	return d, nil
}

// tryFlee resolves a flee attempt. A successful attempt blocks the round and
// marks the request so the arena clears the fight afterwards; a failed one
// lets the round run.
func (a *Arena) tryFlee(ctx context.Context, hc hook.Context) (hook.Context, error) {
	d, ok := hc.(fight.ActionChosenData)
	if !ok {
		return hc, unexpectedVariant(hc)
	}
	if d.ActionParameter != names.ActionParameterFlee {
		return d, nil
	}
	st, found := stateFrom(ctx)
	if !found {
		return d, nil
	}
	total := a.Roller.D20("flee") + st.character.Level
	if total < FleeDifficulty {
		d.Viewpoint.AddDescriptionParagraph("You try to run away, but your enemy blocks your path!")
		return d, nil
	}
	st.escaped = true
	d.BlockNormalFightProcessing = true
	return d, nil
}

// afterBattle rewards or penalizes experience and offers the way back.
func (a *Arena) afterBattle(ctx context.Context, hc hook.Context) (hook.Context, error) {
	d, ok := hc.(fight.BattleOverData)
	if !ok {
		return hc, unexpectedVariant(hc)
	}
	st, found := stateFrom(ctx)
	if !found {
		return d, nil
	}
	c := st.character
	enemy := d.Battle.Monster()

	var err error
	if fight.Won(d.Battle) {
		xp := enemy.Level * a.Config.ExperiencePerLevel
		progression.RewardExperience(c, xp)
		d.Viewpoint.AddDescriptionParagraphf("You gain %d experience.", xp)
		var gained int
		gained, err = a.Progression.LevelUpWhileRequired(ctx, c)
		if gained > 0 {
			d.Viewpoint.AddDescriptionParagraphf("You advance to level %d!", c.Level)
		}
	} else {
		before := progression.CurrentExperience(c)
		progression.ModifyRelativeExperience(c, a.Config.DeathExperienceFactor)
		d.Viewpoint.AddDescriptionParagraphf("You have been defeated and lose %d experience.", before-progression.CurrentExperience(c))
	}

	back := viewpoint.NewAction(d.ReferrerSceneID, "Continue", nil)
	if !d.Viewpoint.AddAction(viewpoint.GroupDefault, back) {
		d.Viewpoint.SetActionGroups(viewpoint.DefaultGroups())
		d.Viewpoint.AddAction(viewpoint.GroupDefault, back)
	}

	a.Logger.Info("battle settled",
		zap.Int64("character_id", c.ID),
		zap.Bool("won", fight.Won(d.Battle)),
		zap.String("enemy", enemy.Name),
		zap.Int("experience", progression.CurrentExperience(c)),
		zap.Int("level", c.Level),
	)
	return d, err
}
