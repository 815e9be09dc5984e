package battle

import "github.com/cory-johannsen/resfight/internal/game/dice"

// RollInitiative reports whether first acts before second this round.
// Formula: d20 + level for each side; ties go to first.
func RollInitiative(first, second *Combatant, roller *dice.Roller) bool {
	a := roller.D20(first.Name+" initiative") + first.Level
	b := roller.D20(second.Name+" initiative") + second.Level
	return a >= b
}

// ResolveRound plays one round between player and monster in initiative
// order. Each living side attacks the other once; a side reduced to zero HP
// does not act.
//
// targetUpdater(c) is called after each damage application; may be nil.
//
// Precondition: roller must not be nil; neither side may already be dead.
// Postcondition: Returns ordered Events; damage applied in-place.
func ResolveRound(round int, player, monster *Combatant, roller *dice.Roller, targetUpdater func(c *Combatant)) ([]Event, error) {
	if targetUpdater == nil {
		targetUpdater = func(*Combatant) {}
	}
	order := []*Combatant{player, monster}
	if !RollInitiative(player, monster, roller) {
		order[0], order[1] = monster, player
	}

	var events []Event
	for i, actor := range order {
		target := order[1-i]
		if actor.IsDead() || target.IsDead() {
			continue
		}
		r, err := ResolveAttack(actor, target, roller)
		if err != nil {
			return events, err
		}
		dmg := r.EffectiveDamage()
		if dmg > 0 {
			target.ApplyDamage(dmg)
			targetUpdater(target)
		}
		events = append(events, Event{
			Round:   round,
			Kind:    EventAttack,
			Actor:   actor.Name,
			Target:  target.Name,
			Outcome: r.Outcome,
			Total:   r.AttackTotal,
			Damage:  dmg,
		})
		if target.IsDead() {
			events = append(events, Event{
				Round:  round,
				Kind:   EventDefeat,
				Actor:  actor.Name,
				Target: target.Name,
			})
		}
	}
	return events, nil
}
