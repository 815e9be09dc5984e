// Package arena is a small host for the fight module: a village, a forest
// where fights are found, and the battle scene. Each request loads one
// character, runs one scene handler, and saves the character.
package arena

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/resfight/internal/config"
	"github.com/cory-johannsen/resfight/internal/game/character"
	"github.com/cory-johannsen/resfight/internal/game/dice"
	"github.com/cory-johannsen/resfight/internal/game/fight"
	"github.com/cory-johannsen/resfight/internal/game/names"
	"github.com/cory-johannsen/resfight/internal/game/npc"
	"github.com/cory-johannsen/resfight/internal/game/progression"
	"github.com/cory-johannsen/resfight/internal/game/scene"
	"github.com/cory-johannsen/resfight/internal/game/viewpoint"
	"github.com/cory-johannsen/resfight/internal/storage"
)

// Scene templates rendered by the arena.
const (
	TemplateVillage = "arena/village"
	TemplateForest  = "arena/forest"
)

// ForestBattle identifies fights started in the forest.
const ForestBattle = "arena/forest-fight"

// Request parameters.
const (
	ParamOp      = "op"
	OpExplore    = "explore"
	OpRest       = "rest"
	subscriberID = "arena"
)

// Deps are the collaborators of an Arena.
type Deps struct {
	Module      *fight.Module
	Progression *progression.Engine
	Characters  storage.CharacterStore
	Scenes      scene.Repository
	Enemies     *npc.Registry
	Roller      *dice.Roller
	Config      config.FightConfig
	Logger      *zap.Logger
}

// Arena dispatches requests to scene handlers. It is safe for concurrent
// use; requests for the same character are serialized.
type Arena struct {
	Deps

	village *scene.Scene
	forest  *scene.Scene
	battle  *scene.Scene

	subscribed bool

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

// New creates an Arena. Call Setup before serving requests.
//
// Precondition: every field of deps must be set.
func New(deps Deps) *Arena {
	return &Arena{Deps: deps, locks: make(map[int64]*sync.Mutex)}
}

// Setup seeds the host scenes, registers the battle scene, and subscribes
// the arena's own hook subscribers. Calling it again re-seeds the scenes
// without subscribing twice.
//
// Precondition: hostScenes must include TemplateVillage and TemplateForest.
func (a *Arena) Setup(ctx context.Context, hostScenes []scene.Scene) error {
	seeded, err := scene.Seed(ctx, a.Scenes, hostScenes)
	if err != nil {
		return fmt.Errorf("seeding scenes: %w", err)
	}
	var ok bool
	if a.village, ok = seeded[TemplateVillage]; !ok {
		return fmt.Errorf("missing %q scene", TemplateVillage)
	}
	if a.forest, ok = seeded[TemplateForest]; !ok {
		return fmt.Errorf("missing %q scene", TemplateForest)
	}
	if a.battle, err = a.Module.Register(ctx); err != nil {
		return err
	}

	if a.subscribed {
		return nil
	}
	a.subscribed = true
	p := a.Module.Controller().Pipeline()
	p.Subscribe(names.HookFightActions, subscriberID, a.offerFlee)
	p.Subscribe(names.HookActionChosen, subscriberID, a.tryFlee)
	p.Subscribe(names.HookBattleOver, subscriberID, a.afterBattle)
	return nil
}

// Village returns the scene new characters start in.
func (a *Arena) Village() *scene.Scene { return a.village }

// CreateCharacter builds, grants the day's turns to, and stores a new character.
func (a *Arena) CreateCharacter(ctx context.Context, name string) (*character.Character, error) {
	c, err := character.Build(name, progression.MinLevel)
	if err != nil {
		return nil, err
	}
	fight.SetTurns(c, a.Config.TurnsPerDay)
	progression.SetRequiredExperience(c, progression.CalculateNeededExperience(c.Level))
	if err := a.Characters.Create(ctx, c); err != nil {
		return nil, err
	}
	a.Logger.Info("character created", zap.Int64("character_id", c.ID), zap.String("name", c.Name))
	return c, nil
}

// Request renders sceneID for the character with params. A character in a
// fight is always sent to the battle scene.
//
// Postcondition: The character is saved only when rendering succeeded; a
// failed request leaves the stored character untouched.
func (a *Arena) Request(ctx context.Context, characterID, sceneID int64, params map[string]string) (*viewpoint.Viewpoint, error) {
	return a.withCharacter(ctx, characterID, func(ctx context.Context, st *requestState) (*viewpoint.Viewpoint, error) {
		return a.dispatch(ctx, st, sceneID, params)
	})
}

// NewDay starts a new day for the character and renders the village.
func (a *Arena) NewDay(ctx context.Context, characterID int64) (*viewpoint.Viewpoint, error) {
	return a.withCharacter(ctx, characterID, func(ctx context.Context, st *requestState) (*viewpoint.Viewpoint, error) {
		v := a.sceneView(a.village)
		a.villageActions(v)
		a.Module.HandleNewDay(ctx, st.character, v)
		return v, nil
	})
}

func (a *Arena) withCharacter(ctx context.Context, id int64, fn func(context.Context, *requestState) (*viewpoint.Viewpoint, error)) (*viewpoint.Viewpoint, error) {
	unlock := a.lock(id)
	defer unlock()

	c, err := a.Characters.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	st := &requestState{character: c}
	v, err := fn(withState(ctx, st), st)
	if err != nil {
		a.Logger.Warn("request aborted", zap.Int64("character_id", id), zap.Error(err))
		return v, err
	}
	if err := a.Characters.Save(ctx, c); err != nil {
		return v, fmt.Errorf("saving character: %w", err)
	}
	return v, nil
}

func (a *Arena) lock(id int64) func() {
	a.locksMu.Lock()
	mu, ok := a.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		a.locks[id] = mu
	}
	a.locksMu.Unlock()
	mu.Lock()
	return mu.Unlock
}

func (a *Arena) dispatch(ctx context.Context, st *requestState, sceneID int64, params map[string]string) (*viewpoint.Viewpoint, error) {
	if fight.IsFighting(st.character) && sceneID != a.battle.ID {
		sceneID, params = a.battle.ID, nil
	}
	s, err := a.Scenes.Get(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	switch s.Template {
	case names.SceneBattle:
		return a.battleView(ctx, st, s, params)
	case TemplateForest:
		return a.forestView(ctx, st, s, params)
	case TemplateVillage:
		return a.villageView(st, s, params), nil
	default:
		return nil, fmt.Errorf("scene %d: no handler for template %q", s.ID, s.Template)
	}
}

func (a *Arena) sceneView(s *scene.Scene) *viewpoint.Viewpoint {
	v := viewpoint.New(s.Title)
	if s.Description != "" {
		v.AddDescriptionParagraph(s.Description)
	}
	return v
}

func (a *Arena) villageActions(v *viewpoint.Viewpoint) {
	v.SetActionGroups(viewpoint.DefaultGroups())
	v.AddAction(viewpoint.GroupDefault, viewpoint.NewAction(a.forest.ID, "Go to the forest", nil))
	v.AddAction(viewpoint.GroupDefault, viewpoint.NewAction(a.village.ID, "Rest at the inn", map[string]string{ParamOp: OpRest}))
}

// villageView renders the village. Resting heals a living character fully
// and costs one turn.
func (a *Arena) villageView(st *requestState, s *scene.Scene, params map[string]string) *viewpoint.Viewpoint {
	c := st.character
	v := a.sceneView(s)
	a.villageActions(v)
	if params[ParamOp] != OpRest {
		return v
	}
	switch {
	case !c.IsAlive():
		v.AddDescriptionParagraph("The innkeeper does not serve the dead.")
	case c.Health == c.MaxHealth:
		v.AddDescriptionParagraph("You are already well rested.")
	case !fight.SpendTurn(c):
		v.AddDescriptionParagraph("It is too late in the day to rest.")
	default:
		c.Heal()
		v.AddDescriptionParagraphf("You rest at the inn and recover to %d hitpoints.", c.Health)
	}
	return v
}

func (a *Arena) forestActions(v *viewpoint.Viewpoint) {
	v.SetActionGroups(viewpoint.DefaultGroups())
	v.AddAction(viewpoint.GroupDefault, viewpoint.NewAction(a.forest.ID, "Search for a fight", map[string]string{ParamOp: OpExplore}))
	v.AddAction(viewpoint.GroupDefault, viewpoint.NewAction(a.village.ID, "Return to the village", nil))
}

func (a *Arena) forestView(ctx context.Context, st *requestState, s *scene.Scene, params map[string]string) (*viewpoint.Viewpoint, error) {
	c := st.character
	v := a.sceneView(s)
	a.forestActions(v)
	if params[ParamOp] != OpExplore {
		return v, nil
	}
	switch {
	case !c.IsAlive():
		v.AddDescriptionParagraph("You are dead. Wait for a new day before you search for another fight.")
		return v, nil
	case !fight.SpendTurn(c):
		v.AddDescriptionParagraph("You are too tired to search for another fight today.")
		return v, nil
	}

	tmpl, err := a.Enemies.ForLevel(c.Level, a.Roller.Source())
	if err != nil {
		return nil, err
	}
	f, err := a.Module.Controller().Start(c, tmpl.Spawn(), s, ForestBattle)
	if err != nil {
		return nil, err
	}
	if err := f.Suspend(); err != nil {
		return nil, err
	}
	return a.battleView(ctx, st, a.battle, nil)
}

func (a *Arena) battleView(ctx context.Context, st *requestState, s *scene.Scene, params map[string]string) (*viewpoint.Viewpoint, error) {
	if !fight.IsFighting(st.character) {
		v := a.sceneView(a.village)
		a.villageActions(v)
		return v, nil
	}
	v := viewpoint.New(s.Title)
	err := a.Module.HandleBattleScene(ctx, st.character, v, params)
	if err != nil || !st.escaped {
		return v, err
	}
	// A later subscriber may have let the round run anyway and end the fight.
	if !fight.IsFighting(st.character) {
		return v, nil
	}

	f, err := a.Module.Controller().Restore(st.character)
	if err != nil {
		return v, err
	}
	enemy := f.Battle().Monster().Name
	f.Clear()
	referrer, err := a.Scenes.Get(ctx, f.ReferrerSceneID())
	if err != nil {
		return v, err
	}
	out, err := a.dispatch(ctx, st, referrer.ID, nil)
	if err != nil {
		return v, err
	}
	out.AddDescriptionParagraphf("You got away from %s.", enemy)
	return out, nil
}
