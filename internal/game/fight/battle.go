package fight

import (
	"github.com/cory-johannsen/resfight/internal/game/battle"
	"github.com/cory-johannsen/resfight/internal/game/character"
)

// Battle is the round-resolution collaborator a Fight drives. The fight
// never decides on its own whether combat is over or what a round does.
type Battle interface {
	// FightNRounds advances combat by up to n rounds.
	FightNRounds(n int) error
	// IsOver reports whether combat has concluded.
	IsOver() bool
	// Events returns what happened since the battle was built or restored.
	Events() []battle.Event
	// Monster returns the opposing combatant.
	Monster() battle.Combatant
	// Player returns the character's combatant.
	Player() battle.Combatant
	// Snapshot serializes the battle into an opaque blob.
	Snapshot() ([]byte, error)
}

// BattleFactory builds and restores battles for a character.
type BattleFactory interface {
	NewBattle(c *character.Character, enemy *battle.Combatant) (Battle, error)
	RestoreBattle(c *character.Character, blob []byte) (Battle, error)
}

type engineFactory struct {
	engine *battle.Engine
}

// EngineFactory adapts a battle.Engine to BattleFactory.
//
// Precondition: engine must be non-nil.
func EngineFactory(engine *battle.Engine) BattleFactory {
	return engineFactory{engine: engine}
}

func (f engineFactory) NewBattle(c *character.Character, enemy *battle.Combatant) (Battle, error) {
	b, err := f.engine.NewBattle(c, enemy)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (f engineFactory) RestoreBattle(c *character.Character, blob []byte) (Battle, error) {
	b, err := f.engine.RestoreBattle(c, blob)
	if err != nil {
		return nil, err
	}
	return b, nil
}
