// Package battle implements the round-resolution engine that a fight drives:
// one player character against one enemy, resolved with d20 attack rolls.
package battle

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/resfight/internal/game/dice"
)

// Outcome grades an attack roll against the target's armor class.
type Outcome int

const (
	CritSuccess Outcome = iota
	Success
	Failure
	CritFailure
)

var outcomeLabels = [...]string{
	CritSuccess: "critical hit",
	Success:     "hit",
	Failure:     "miss",
	CritFailure: "fumble",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeLabels) {
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
	return outcomeLabels[o]
}

// critMargin is how far a roll must clear (or fall short of) the armor class
// to count as critical.
const critMargin = 10

// OutcomeFor grades total against ac.
func OutcomeFor(total, ac int) Outcome {
	margin := total - ac
	switch {
	case margin >= critMargin:
		return CritSuccess
	case margin >= 0:
		return Success
	case margin >= -critMargin:
		return Failure
	}
	return CritFailure
}

// levelBonus grows by one every four levels, starting at +2.
func levelBonus(level int) int {
	return 2 + (level-1)/4
}

// Combatant is one side of a battle. It is serialized as part of a battle
// snapshot, so field tags are stable.
type Combatant struct {
	Name        string `json:"name"`
	Level       int    `json:"level"`
	MaxHP       int    `json:"maxHp"`
	CurrentHP   int    `json:"currentHp"`
	AC          int    `json:"ac"`
	AttackBonus int    `json:"attackBonus"`
	// Damage is a dice expression such as "1d6+2".
	Damage string `json:"damage"`
}

// IsDead reports whether the combatant is out of hit points.
func (c Combatant) IsDead() bool { return c.CurrentHP <= 0 }

// ApplyDamage subtracts amount from CurrentHP without going below zero.
func (c *Combatant) ApplyDamage(amount int) {
	c.CurrentHP = max(0, c.CurrentHP-amount)
}

// Validate reports every reason c cannot enter a battle.
func (c Combatant) Validate() error {
	_, dmgErr := dice.Parse(c.Damage)
	rules := []struct {
		broken bool
		err    func() error
	}{
		{c.Name == "", func() error { return errors.New("combatant needs a name") }},
		{c.Level < 1, func() error { return fmt.Errorf("level %d is below 1", c.Level) }},
		{c.MaxHP <= 0, func() error { return fmt.Errorf("max hp %d is not positive", c.MaxHP) }},
		{c.CurrentHP < 0 || c.CurrentHP > c.MaxHP, func() error {
			return fmt.Errorf("current hp %d is outside [0, %d]", c.CurrentHP, c.MaxHP)
		}},
		{dmgErr != nil, func() error { return fmt.Errorf("damage: %w", dmgErr) }},
	}
	var errs []error
	for _, r := range rules {
		if r.broken {
			errs = append(errs, r.err())
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("combatant %q: %w", c.Name, errors.Join(errs...))
}
