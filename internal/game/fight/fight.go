// Package fight controls the lifecycle of one character's active combat
// encounter: starting it, rendering its actions, advancing it one round per
// request, suspending it between requests, and clearing it when it ends.
//
// Plugins observe and alter each transition through the hooks named in
// package names, published synchronously on a hook.Pipeline.
package fight

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cory-johannsen/resfight/internal/game/battle"
	"github.com/cory-johannsen/resfight/internal/game/character"
	"github.com/cory-johannsen/resfight/internal/game/names"
	"github.com/cory-johannsen/resfight/internal/game/scene"
	"github.com/cory-johannsen/resfight/internal/hook"
)

// Controller starts and restores fights. It holds no per-character state.
type Controller struct {
	pipeline *hook.Pipeline
	scenes   scene.Repository
	battles  BattleFactory
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewController creates a Controller.
//
// Precondition: all arguments must be non-nil.
func NewController(pipeline *hook.Pipeline, scenes scene.Repository, battles BattleFactory, logger *zap.Logger) *Controller {
	return &Controller{
		pipeline: pipeline,
		scenes:   scenes,
		battles:  battles,
		logger:   logger,
		tracer:   otel.Tracer("github.com/cory-johannsen/resfight/internal/game/fight"),
	}
}

// Pipeline returns the pipeline fights publish on.
func (ctrl *Controller) Pipeline() *hook.Pipeline { return ctrl.pipeline }

// IsFighting reports whether c has a stored fight.
func IsFighting(c *character.Character) bool {
	return c.Properties.Has(names.PropertyBattleState)
}

// Start begins a fight between c and enemy, remembering the scene the fight
// was started from and an identifier distinguishing the kind of fight.
//
// The fight is not persisted until Suspend is called.
//
// Precondition: c must be non-nil.
// Postcondition: Returns an error when enemy lacks a name, a level >= 1, or
// health; when referrer is nil or unsaved; or when battleIdentifier is empty.
func (ctrl *Controller) Start(c *character.Character, enemy *battle.Combatant, referrer *scene.Scene, battleIdentifier string) (*Fight, error) {
	if err := validateEnemy(enemy); err != nil {
		return nil, err
	}
	if referrer == nil || referrer.ID == 0 {
		return nil, errors.New("fight: referrer scene must be a stored scene")
	}
	if battleIdentifier == "" {
		return nil, errors.New("fight: battle identifier must not be empty")
	}
	b, err := ctrl.battles.NewBattle(c, enemy)
	if err != nil {
		return nil, fmt.Errorf("starting battle: %w", err)
	}
	ctrl.logger.Info("fight started",
		zap.Int64("character_id", c.ID),
		zap.String("enemy", enemy.Name),
		zap.Int("enemy_level", enemy.Level),
		zap.Int64("referrer_scene_id", referrer.ID),
		zap.String("battle_identifier", battleIdentifier),
	)
	return &Fight{
		ctrl:             ctrl,
		character:        c,
		referrerSceneID:  referrer.ID,
		battleIdentifier: battleIdentifier,
		battle:           b,
	}, nil
}

func validateEnemy(enemy *battle.Combatant) error {
	switch {
	case enemy == nil:
		return errors.New("fight: enemy must not be nil")
	case enemy.Name == "":
		return errors.New("fight: enemy must have a display name")
	case enemy.Level < 1:
		return fmt.Errorf("fight: enemy %q level must be >= 1, got %d", enemy.Name, enemy.Level)
	case enemy.MaxHP <= 0 || enemy.CurrentHP <= 0:
		return fmt.Errorf("fight: enemy %q must have health", enemy.Name)
	}
	return nil
}

// Restore rebuilds the fight stored on c.
//
// Precondition: IsFighting(c). Without a stored fight Restore returns ErrNoFight.
func (ctrl *Controller) Restore(c *character.Character) (*Fight, error) {
	raw, ok := c.Properties.Bytes(names.PropertyBattleState)
	if !ok {
		return nil, ErrNoFight
	}
	state, err := DecodeState(raw)
	if err != nil {
		return nil, err
	}
	b, err := ctrl.battles.RestoreBattle(c, state.Battle)
	if err != nil {
		return nil, fmt.Errorf("restoring battle: %w", err)
	}
	return &Fight{
		ctrl:             ctrl,
		character:        c,
		referrerSceneID:  state.Data.SceneID,
		battleIdentifier: state.Data.Identifier,
		battle:           b,
	}, nil
}

// battleScene looks up the scene fight actions point at.
func (ctrl *Controller) battleScene(ctx context.Context) (*scene.Scene, error) {
	s, err := ctrl.scenes.FindByTemplate(ctx, names.SceneBattle)
	if err != nil {
		return nil, fmt.Errorf("finding battle scene: %w", err)
	}
	return s, nil
}
