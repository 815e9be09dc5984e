package battle

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/resfight/internal/game/character"
	"github.com/cory-johannsen/resfight/internal/game/dice"
)

// Battle is the live state of one encounter between a character and an enemy.
//
// The player side is derived from the character; every hit on the player is
// written back to the character's Health so the character never disagrees
// with the battle it is in.
type Battle struct {
	id      uuid.UUID
	round   int
	player  Combatant
	monster Combatant
	events  []Event

	character *character.Character
	roller    *dice.Roller
	logger    *zap.Logger
}

// ID returns the battle's unique identifier, stable across snapshots.
func (b *Battle) ID() uuid.UUID { return b.id }

// Round returns the number of rounds fought so far.
func (b *Battle) Round() int { return b.round }

// Player returns a copy of the player's combatant.
func (b *Battle) Player() Combatant { return b.player }

// Monster returns a copy of the opposing combatant.
func (b *Battle) Monster() Combatant { return b.monster }

// Events returns the events produced since the battle was constructed or restored.
func (b *Battle) Events() []Event {
	return append([]Event(nil), b.events...)
}

// IsOver reports whether either side has been defeated.
//
// Postcondition: Returns true iff player or monster has zero HP.
func (b *Battle) IsOver() bool {
	return b.player.IsDead() || b.monster.IsDead()
}

// PlayerWon reports whether the battle ended with the monster defeated and the player standing.
func (b *Battle) PlayerWon() bool {
	return b.monster.IsDead() && !b.player.IsDead()
}

// FightNRounds plays up to n rounds, stopping early when the battle ends.
//
// Precondition: n >= 0.
// Postcondition: Returns a non-nil error only when a dice roll fails; events
// produced before the failure are kept.
func (b *Battle) FightNRounds(n int) error {
	for i := 0; i < n && !b.IsOver(); i++ {
		b.round++
		events, err := ResolveRound(b.round, &b.player, &b.monster, b.roller, b.updateTarget)
		b.events = append(b.events, events...)
		if err != nil {
			return fmt.Errorf("resolving round %d: %w", b.round, err)
		}
		b.logger.Debug("battle round resolved",
			zap.String("battle_id", b.id.String()),
			zap.Int("round", b.round),
			zap.Int("player_hp", b.player.CurrentHP),
			zap.Int("monster_hp", b.monster.CurrentHP),
		)
	}
	return nil
}

func (b *Battle) updateTarget(c *Combatant) {
	if c == &b.player {
		b.character.Health = c.CurrentHP
	}
}

// SnapshotVersion is the current snapshot format version.
const SnapshotVersion = 1

type snapshot struct {
	Version int       `json:"version"`
	ID      uuid.UUID `json:"id"`
	Round   int       `json:"round"`
	Monster Combatant `json:"monster"`
}

// Snapshot serializes the battle. The player side is not included; it is
// rebuilt from the character on restore.
func (b *Battle) Snapshot() ([]byte, error) {
	data, err := json.Marshal(snapshot{
		Version: SnapshotVersion,
		ID:      b.id,
		Round:   b.round,
		Monster: b.monster,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding battle snapshot: %w", err)
	}
	return data, nil
}

// PlayerCombatant derives the player's combatant from a character.
//
// Postcondition: Name, Level, MaxHP, and CurrentHP mirror the character.
func PlayerCombatant(c *character.Character) Combatant {
	return Combatant{
		Name:        c.Name,
		Level:       c.Level,
		MaxHP:       c.MaxHealth,
		CurrentHP:   c.Health,
		AC:          12 + c.Level/2,
		AttackBonus: c.Level / 2,
		Damage:      fmt.Sprintf("1d6+%d", c.Level/2),
	}
}
