package fight

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cory-johannsen/resfight/internal/config"
	"github.com/cory-johannsen/resfight/internal/game/character"
	"github.com/cory-johannsen/resfight/internal/game/names"
	"github.com/cory-johannsen/resfight/internal/game/scene"
	"github.com/cory-johannsen/resfight/internal/game/viewpoint"
	"github.com/cory-johannsen/resfight/internal/hook"
)

// Battle scene content created by Register.
const (
	BattleSceneTitle       = "A fight!"
	BattleSceneDescription = "You are fighting."
)

// Module wires the fight controller into a host: it owns the battle scene,
// renders it, and refreshes fight turns on a new day.
type Module struct {
	ctrl   *Controller
	cfg    config.FightConfig
	logger *zap.Logger
}

// NewModule creates a Module.
//
// Precondition: ctrl and logger must be non-nil; cfg must be valid.
func NewModule(ctrl *Controller, cfg config.FightConfig, logger *zap.Logger) *Module {
	return &Module{ctrl: ctrl, cfg: cfg, logger: logger}
}

// Controller returns the fight controller.
func (m *Module) Controller() *Controller { return m.ctrl }

// Register creates the battle scene if it does not exist yet.
//
// Postcondition: Returns the battle scene.
func (m *Module) Register(ctx context.Context) (*scene.Scene, error) {
	s, err := m.ctrl.scenes.FindByTemplate(ctx, names.SceneBattle)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, scene.ErrSceneNotFound) {
		return nil, err
	}
	s = &scene.Scene{Title: BattleSceneTitle, Description: BattleSceneDescription, Template: names.SceneBattle}
	if err := m.ctrl.scenes.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("creating battle scene: %w", err)
	}
	m.logger.Info("battle scene registered", zap.Int64("scene_id", s.ID))
	return s, nil
}

// Unregister deletes the battle scene. Unregistering twice is a no-op.
func (m *Module) Unregister(ctx context.Context) error {
	s, err := m.ctrl.scenes.FindByTemplate(ctx, names.SceneBattle)
	if errors.Is(err, scene.ErrSceneNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := m.ctrl.scenes.Delete(ctx, s.ID); err != nil {
		return fmt.Errorf("deleting battle scene: %w", err)
	}
	m.logger.Info("battle scene unregistered", zap.Int64("scene_id", s.ID))
	return nil
}

// HandleBattleScene renders one request to the battle scene: it restores the
// character's fight and processes params. A finished fight publishes
// names.HookBattleOver and is cleared; otherwise the fight actions are shown
// and the fight is suspended again.
//
// Precondition: IsFighting(c).
func (m *Module) HandleBattleScene(ctx context.Context, c *character.Character, v *viewpoint.Viewpoint, params map[string]string) error {
	ctx, span := m.ctrl.tracer.Start(ctx, "fight.battle_scene",
		trace.WithAttributes(attribute.Int64("character.id", c.ID)))
	defer span.End()

	f, err := m.ctrl.Restore(c)
	if err != nil {
		return err
	}
	if err := f.Process(ctx, v, params); err != nil {
		return err
	}

	if f.IsOver() {
		data, err := NewBattleOverData(f.Battle(), v, f.ReferrerSceneID(), f.BattleIdentifier())
		if err != nil {
			return err
		}
		// The fight is cleared even when a subscriber fails.
		_, pubErr := hook.Publish(ctx, m.ctrl.pipeline, data)
		f.Clear()
		m.logger.Info("fight over",
			zap.Int64("character_id", c.ID),
			zap.Bool("won", Won(f.Battle())),
			zap.String("battle_identifier", f.BattleIdentifier()),
		)
		return pubErr
	}

	if err := f.ShowFightActions(ctx, v); err != nil {
		return err
	}
	return f.Suspend()
}

// Turns returns the character's remaining fight turns for the day.
func Turns(c *character.Character) int {
	return c.Properties.Int(names.PropertyTurns, 0)
}

// SetTurns overwrites the character's remaining fight turns.
func SetTurns(c *character.Character, turns int) {
	c.Properties.SetInt(names.PropertyTurns, turns)
}

// SpendTurn consumes one fight turn.
//
// Postcondition: Returns false, leaving turns unchanged, when none are left.
func SpendTurn(c *character.Character) bool {
	t := Turns(c)
	if t <= 0 {
		return false
	}
	SetTurns(c, t-1)
	return true
}

// HandleNewDay grants the day's fight turns, reduced when the character died
// the day before, and fully heals the character.
func (m *Module) HandleNewDay(ctx context.Context, c *character.Character, v *viewpoint.Viewpoint) {
	_, span := m.ctrl.tracer.Start(ctx, "fight.new_day",
		trace.WithAttributes(attribute.Int64("character.id", c.ID)))
	defer span.End()

	turns := m.cfg.TurnsPerDay
	if !c.IsAlive() {
		turns -= m.cfg.DeathTurnPenalty
		v.AddDescriptionParagraphf("You are back from the dead. Since you died yesterday, you can only fight for %d rounds today.", turns)
	} else {
		v.AddDescriptionParagraphf("You feel energized! Today, you can fight for %d rounds.", turns)
	}
	SetTurns(c, turns)
	c.Heal()

	m.logger.Debug("new day",
		zap.Int64("character_id", c.ID),
		zap.Int("turns", turns),
	)
}
