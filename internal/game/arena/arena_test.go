package arena_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/resfight/internal/config"
	"github.com/cory-johannsen/resfight/internal/game/arena"
	"github.com/cory-johannsen/resfight/internal/game/battle"
	"github.com/cory-johannsen/resfight/internal/game/character"
	"github.com/cory-johannsen/resfight/internal/game/dice"
	"github.com/cory-johannsen/resfight/internal/game/fight"
	"github.com/cory-johannsen/resfight/internal/game/names"
	"github.com/cory-johannsen/resfight/internal/game/npc"
	"github.com/cory-johannsen/resfight/internal/game/progression"
	"github.com/cory-johannsen/resfight/internal/game/scene"
	"github.com/cory-johannsen/resfight/internal/game/viewpoint"
	"github.com/cory-johannsen/resfight/internal/hook"
	"github.com/cory-johannsen/resfight/internal/scripting"
	"github.com/cory-johannsen/resfight/internal/storage"
)

// constSource always rolls the highest face, or the lowest when low is set.
type constSource struct{ low bool }

func (s constSource) Intn(n int) int {
	if s.low {
		return 0
	}
	return n - 1
}

func slime() *npc.Template {
	return &npc.Template{ID: "slime", Name: "Slime", Level: 1, MaxHP: 5, AC: 10, Damage: "1d2"}
}

func ogre() *npc.Template {
	return &npc.Template{ID: "ogre", Name: "Ogre", Level: 1, MaxHP: 500, AC: 10, AttackBonus: 20, Damage: "10d10"}
}

type harness struct {
	arena    *arena.Arena
	store    *storage.MemoryCharacterStore
	scenes   *scene.MemoryRepository
	pipeline *hook.Pipeline
	roller   *dice.Roller
	char     *character.Character
}

func fightConfig() config.FightConfig {
	return config.FightConfig{
		TurnsPerDay:           3,
		DeathTurnPenalty:      1,
		ExperiencePerLevel:    100,
		DeathExperienceFactor: 0.5,
	}
}

func hostScenes() []scene.Scene {
	return []scene.Scene{
		{Template: arena.TemplateVillage, Title: "Village", Description: "A quiet village."},
		{Template: arena.TemplateForest, Title: "Forest", Description: "Dark trees."},
	}
}

func newHarness(t *testing.T, src dice.Source, enemy *npc.Template) *harness {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()
	roller := dice.NewLoggedRoller(src, logger)
	pipeline := hook.NewPipeline(logger)
	scenes := scene.NewMemoryRepository()
	ctrl := fight.NewController(pipeline, scenes, fight.EngineFactory(battle.NewEngine(src, logger)), logger)
	reg, err := npc.NewRegistry([]*npc.Template{enemy})
	require.NoError(t, err)
	store := storage.NewMemoryCharacterStore()

	a := arena.New(arena.Deps{
		Module:      fight.NewModule(ctrl, fightConfig(), logger),
		Progression: progression.NewEngine(pipeline, logger),
		Characters:  store,
		Scenes:      scenes,
		Enemies:     reg,
		Roller:      roller,
		Config:      fightConfig(),
		Logger:      logger,
	})
	require.NoError(t, a.Setup(ctx, hostScenes()))
	c, err := a.CreateCharacter(ctx, "Violet")
	require.NoError(t, err)
	return &harness{arena: a, store: store, scenes: scenes, pipeline: pipeline, roller: roller, char: c}
}

func (h *harness) load(t *testing.T) *character.Character {
	t.Helper()
	c, err := h.store.Get(context.Background(), h.char.ID)
	require.NoError(t, err)
	return c
}

func (h *harness) forest(t *testing.T) *scene.Scene {
	t.Helper()
	s, err := h.scenes.FindByTemplate(context.Background(), arena.TemplateForest)
	require.NoError(t, err)
	return s
}

func (h *harness) explore(t *testing.T) *viewpoint.Viewpoint {
	t.Helper()
	v, err := h.arena.Request(context.Background(), h.char.ID, h.forest(t).ID, map[string]string{arena.ParamOp: arena.OpExplore})
	require.NoError(t, err)
	return v
}

func (h *harness) choose(t *testing.T, v *viewpoint.Viewpoint, title string) *viewpoint.Viewpoint {
	t.Helper()
	a := findAction(t, v, title)
	out, err := h.arena.Request(context.Background(), h.char.ID, a.SceneID, a.Parameters)
	require.NoError(t, err)
	return out
}

func findAction(t *testing.T, v *viewpoint.Viewpoint, title string) viewpoint.Action {
	t.Helper()
	for _, a := range v.Actions() {
		if a.Title == title {
			return a
		}
	}
	require.Failf(t, "action not found", "no %q action in %v", title, v.Actions())
	return viewpoint.Action{}
}

func hasAction(v *viewpoint.Viewpoint, title string) bool {
	for _, a := range v.Actions() {
		if a.Title == title {
			return true
		}
	}
	return false
}

func TestCreateCharacter(t *testing.T) {
	h := newHarness(t, constSource{}, slime())
	c := h.load(t)
	assert.Equal(t, 1, c.Level)
	assert.Equal(t, 3, fight.Turns(c))
	assert.Equal(t, 100, progression.RequiredExperience(c))
	assert.False(t, fight.IsFighting(c))
}

func TestVillage_OffersForest(t *testing.T) {
	h := newHarness(t, constSource{}, slime())
	v, err := h.arena.Request(context.Background(), h.char.ID, h.arena.Village().ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "Village", v.Title)
	assert.Equal(t, []string{"A quiet village."}, v.Paragraphs())
	assert.Equal(t, h.forest(t).ID, findAction(t, v, "Go to the forest").SceneID)
}

func TestExplore_StartsFight(t *testing.T) {
	h := newHarness(t, constSource{}, slime())
	v := h.explore(t)

	assert.Equal(t, fight.BattleSceneTitle, v.Title)
	assert.Contains(t, v.Paragraphs(), "You are fighting against Slime (level 1) who has 5 hitpoints left.")
	assert.True(t, hasAction(v, "Attack"))
	assert.True(t, hasAction(v, "Run away"))

	c := h.load(t)
	assert.True(t, fight.IsFighting(c))
	assert.Equal(t, 2, fight.Turns(c))
}

func TestFightingCharacterIsSentToBattle(t *testing.T) {
	h := newHarness(t, constSource{}, slime())
	h.explore(t)
	v, err := h.arena.Request(context.Background(), h.char.ID, h.arena.Village().ID, nil)
	require.NoError(t, err)
	assert.Equal(t, fight.BattleSceneTitle, v.Title)
	assert.True(t, fight.IsFighting(h.load(t)))
}

func TestVictory_RewardsAndLevelsUp(t *testing.T) {
	h := newHarness(t, constSource{}, slime())
	v := h.choose(t, h.explore(t), "Attack")

	c := h.load(t)
	assert.False(t, fight.IsFighting(c))
	assert.Equal(t, 2, c.Level)
	assert.Equal(t, 20, c.MaxHealth)
	assert.Contains(t, v.Paragraphs(), "You gain 100 experience.")
	assert.Contains(t, v.Paragraphs(), "You advance to level 2!")
	assert.Contains(t, v.Paragraphs(), "Slime has been defeated by Violet.")
	assert.Equal(t, h.forest(t).ID, findAction(t, v, "Continue").SceneID)
}

func TestDefeat_LosesExperienceAndNeedsNewDay(t *testing.T) {
	h := newHarness(t, constSource{}, ogre())
	c := h.load(t)
	progression.SetCurrentExperience(c, 40)
	require.NoError(t, h.store.Save(context.Background(), c))

	v := h.choose(t, h.explore(t), "Attack")
	c = h.load(t)
	assert.False(t, c.IsAlive())
	assert.False(t, fight.IsFighting(c))
	assert.Equal(t, 20, progression.CurrentExperience(c))
	assert.Contains(t, v.Paragraphs(), "You have been defeated and lose 20 experience.")

	v = h.explore(t)
	assert.Contains(t, v.Paragraphs(), "You are dead. Wait for a new day before you search for another fight.")
	assert.Equal(t, 2, fight.Turns(h.load(t)), "a dead character spends no turn")

	v, err := h.arena.NewDay(context.Background(), h.char.ID)
	require.NoError(t, err)
	assert.Contains(t, v.Paragraphs(), "You are back from the dead. Since you died yesterday, you can only fight for 2 rounds today.")
	c = h.load(t)
	assert.True(t, c.IsAlive())
	assert.Equal(t, 2, fight.Turns(c))
}

func TestExplore_TooTired(t *testing.T) {
	h := newHarness(t, constSource{}, slime())
	c := h.load(t)
	fight.SetTurns(c, 0)
	require.NoError(t, h.store.Save(context.Background(), c))

	v := h.explore(t)
	assert.Equal(t, "Forest", v.Title)
	assert.Contains(t, v.Paragraphs(), "You are too tired to search for another fight today.")
	assert.False(t, fight.IsFighting(h.load(t)))
}

func TestFlee_Success(t *testing.T) {
	h := newHarness(t, constSource{}, ogre())
	v := h.choose(t, h.explore(t), "Run away")

	assert.Equal(t, "Forest", v.Title)
	assert.Contains(t, v.Paragraphs(), "You got away from Ogre.")
	c := h.load(t)
	assert.False(t, fight.IsFighting(c))
	assert.Equal(t, c.MaxHealth, c.Health)
}

func TestFlee_FailureFightsOn(t *testing.T) {
	h := newHarness(t, constSource{low: true}, slime())
	v := h.choose(t, h.explore(t), "Run away")

	assert.Equal(t, fight.BattleSceneTitle, v.Title)
	assert.Contains(t, v.Paragraphs(), "You try to run away, but your enemy blocks your path!")
	assert.True(t, fight.IsFighting(h.load(t)))
}

func TestNewDay_Alive(t *testing.T) {
	h := newHarness(t, constSource{}, slime())
	h.explore(t)
	v, err := h.arena.NewDay(context.Background(), h.char.ID)
	require.NoError(t, err)
	assert.Contains(t, v.Paragraphs(), "You feel energized! Today, you can fight for 3 rounds.")
	assert.Equal(t, 3, fight.Turns(h.load(t)))
}

func TestRequest_UnknownCharacter(t *testing.T) {
	h := newHarness(t, constSource{}, slime())
	_, err := h.arena.Request(context.Background(), 999, h.arena.Village().ID, nil)
	assert.ErrorIs(t, err, storage.ErrCharacterNotFound)
}

func TestRequest_UnknownScene(t *testing.T) {
	h := newHarness(t, constSource{}, slime())
	_, err := h.arena.Request(context.Background(), h.char.ID, 999, nil)
	assert.ErrorIs(t, err, scene.ErrSceneNotFound)
}

func TestSetup_IsRepeatable(t *testing.T) {
	h := newHarness(t, constSource{}, slime())
	before := h.forest(t).ID
	require.NoError(t, h.arena.Setup(context.Background(), hostScenes()))
	assert.Equal(t, before, h.forest(t).ID)
	assert.Equal(t, []string{"arena"}, h.pipeline.Subscribers(names.HookBattleOver))
}

func (h *harness) rest(t *testing.T) *viewpoint.Viewpoint {
	t.Helper()
	v, err := h.arena.Request(context.Background(), h.char.ID, h.arena.Village().ID, map[string]string{arena.ParamOp: arena.OpRest})
	require.NoError(t, err)
	return v
}

func TestRest_HealsForOneTurn(t *testing.T) {
	h := newHarness(t, constSource{}, slime())
	c := h.load(t)
	c.Health = 3
	require.NoError(t, h.store.Save(context.Background(), c))

	v := h.rest(t)
	assert.Contains(t, v.Paragraphs(), "You rest at the inn and recover to 10 hitpoints.")
	c = h.load(t)
	assert.Equal(t, 10, c.Health)
	assert.Equal(t, 2, fight.Turns(c))
}

func TestRest_Refused(t *testing.T) {
	h := newHarness(t, constSource{}, slime())
	v := h.rest(t)
	assert.Contains(t, v.Paragraphs(), "You are already well rested.")
	assert.Equal(t, 3, fight.Turns(h.load(t)))

	c := h.load(t)
	c.Health = 0
	require.NoError(t, h.store.Save(context.Background(), c))
	v = h.rest(t)
	assert.Contains(t, v.Paragraphs(), "The innkeeper does not serve the dead.")

	c = h.load(t)
	c.Health = 1
	fight.SetTurns(c, 0)
	require.NoError(t, h.store.Save(context.Background(), c))
	v = h.rest(t)
	assert.Contains(t, v.Paragraphs(), "It is too late in the day to rest.")
	assert.Equal(t, 1, h.load(t).Health)
}

func TestLuaSubscribers_EndToEnd(t *testing.T) {
	h := newHarness(t, constSource{}, ogre())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "taunt.lua"), []byte(`
		function on_fight_actions(ctx)
			local a = ctx.actionCreationCallback("Taunt", "arena/taunt")
			table.insert(ctx.groups[1].actions, a)
			return ctx
		end

		function on_action_chosen(ctx)
			if ctx.actionParameter ~= "arena/taunt" then
				return nil
			end
			ctx.blockNormalFightProcessing = true
			ctx.viewpoint:add_paragraph("You taunt your enemy.")
			return ctx
		end
	`), 0644))

	mgr := scripting.NewManager(h.roller, zap.NewNop())
	t.Cleanup(mgr.Close)
	mgr.Names = arena.ScriptNames()
	require.NoError(t, mgr.LoadDir(dir, 0))
	attached := mgr.Attach(h.pipeline, arena.ScriptBindings())
	assert.Len(t, attached, 2)

	v := h.explore(t)
	require.True(t, hasAction(v, "Taunt"))
	v = h.choose(t, v, "Taunt")

	assert.Contains(t, v.Paragraphs(), "You taunt your enemy.")
	assert.Contains(t, v.Paragraphs(), "Ogre (level 1) now has 500 hitpoints left.")
	assert.True(t, fight.IsFighting(h.load(t)))
}

func golem() *npc.Template {
	return &npc.Template{ID: "golem", Name: "Golem", Level: 1, MaxHP: 500, AC: 10, Damage: "1d2"}
}

func TestRequest_FailedHandlerPersistsNothing(t *testing.T) {
	h := newHarness(t, constSource{}, golem())
	v := h.explore(t)
	before := h.load(t)

	boom := errors.New("actions unavailable")
	h.pipeline.Subscribe(names.HookFightActions, "broken", func(context.Context, hook.Context) (hook.Context, error) {
		return nil, boom
	})
	a := findAction(t, v, "Attack")
	_, err := h.arena.Request(context.Background(), h.char.ID, a.SceneID, a.Parameters)
	require.ErrorIs(t, err, boom)

	after := h.load(t)
	assert.Equal(t, before.Health, after.Health, "the round fought before the failure is not stored")
	assert.Equal(t, before.Properties.Raw()[names.PropertyBattleState], after.Properties.Raw()[names.PropertyBattleState])
	assert.Equal(t, fight.Turns(before), fight.Turns(after))
}

func TestFlee_OverriddenByLaterSubscriber(t *testing.T) {
	h := newHarness(t, constSource{}, slime())
	h.pipeline.Subscribe(names.HookActionChosen, "stubborn", func(_ context.Context, hc hook.Context) (hook.Context, error) {
		d := hc.(fight.ActionChosenData)
		d.BlockNormalFightProcessing = false
		return d, nil
	})

	v := h.choose(t, h.explore(t), "Run away")
	assert.Contains(t, v.Paragraphs(), "Slime has been defeated by Violet.")
	assert.NotContains(t, v.Paragraphs(), "You got away from Slime.")
	assert.False(t, fight.IsFighting(h.load(t)))
}
