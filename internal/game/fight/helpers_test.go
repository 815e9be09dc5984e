package fight_test

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/resfight/internal/game/battle"
	"github.com/cory-johannsen/resfight/internal/game/character"
	"github.com/cory-johannsen/resfight/internal/game/fight"
	"github.com/cory-johannsen/resfight/internal/game/names"
	"github.com/cory-johannsen/resfight/internal/game/scene"
	"github.com/cory-johannsen/resfight/internal/hook"
)

// fakeBattle is a scripted Battle: each round knocks one hit point off the
// monster and emits one event per hit point in eventsPerRound.
type fakeBattle struct {
	Rounds         int              `json:"rounds"`
	MonsterState   battle.Combatant `json:"monster"`
	PlayerState    battle.Combatant `json:"player"`
	EventsPerRound int              `json:"eventsPerRound"`
	FightErr       string           `json:"-"`

	events []battle.Event
}

func (b *fakeBattle) FightNRounds(n int) error {
	if b.FightErr != "" {
		return fmt.Errorf("%s", b.FightErr)
	}
	for i := 0; i < n && !b.IsOver(); i++ {
		b.Rounds++
		b.MonsterState.ApplyDamage(1)
		for j := 0; j < b.EventsPerRound; j++ {
			b.events = append(b.events, battle.Event{
				Round: b.Rounds, Kind: battle.EventAttack, Actor: b.PlayerState.Name,
				Target: b.MonsterState.Name, Outcome: battle.Success, Damage: 1,
			})
		}
	}
	return nil
}

func (b *fakeBattle) IsOver() bool              { return b.MonsterState.IsDead() || b.PlayerState.IsDead() }
func (b *fakeBattle) Events() []battle.Event    { return b.events }
func (b *fakeBattle) Monster() battle.Combatant { return b.MonsterState }
func (b *fakeBattle) Player() battle.Combatant  { return b.PlayerState }
func (b *fakeBattle) Snapshot() ([]byte, error) { return json.Marshal(b) }

type fakeFactory struct {
	eventsPerRound int
}

func (f fakeFactory) NewBattle(c *character.Character, enemy *battle.Combatant) (fight.Battle, error) {
	return &fakeBattle{
		MonsterState:   *enemy,
		PlayerState:    battle.PlayerCombatant(c),
		EventsPerRound: f.eventsPerRound,
	}, nil
}

func (f fakeFactory) RestoreBattle(_ *character.Character, blob []byte) (fight.Battle, error) {
	var b fakeBattle
	if err := json.Unmarshal(blob, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

type harness struct {
	pipeline *hook.Pipeline
	scenes   *scene.MemoryRepository
	ctrl     *fight.Controller
	referrer *scene.Scene
	battle   *scene.Scene
	char     *character.Character
}

func newHarness(t require.TestingT, factory fight.BattleFactory) *harness {
	ctx := context.Background()
	h := &harness{
		pipeline: hook.NewPipeline(zap.NewNop()),
		scenes:   scene.NewMemoryRepository(),
	}
	h.ctrl = fight.NewController(h.pipeline, h.scenes, factory, zap.NewNop())

	h.referrer = &scene.Scene{Title: "Forest", Template: "arena/forest"}
	require.NoError(t, h.scenes.Create(ctx, h.referrer))
	h.battle = &scene.Scene{Title: "A fight!", Template: names.SceneBattle}
	require.NoError(t, h.scenes.Create(ctx, h.battle))

	c, err := character.Build("Violet", 3)
	require.NoError(t, err)
	c.ID = 1
	h.char = c
	return h
}

func slime(hp int) *battle.Combatant {
	return &battle.Combatant{Name: "Slime", Level: 2, MaxHP: hp, CurrentHP: hp, AC: 10, Damage: "1d2"}
}
