package battle

import "github.com/cory-johannsen/resfight/internal/game/dice"

// AttackResult holds the outcome of a single attack.
type AttackResult struct {
	// AttackRoll is the raw d20 result before modifiers.
	AttackRoll int
	// AttackTotal is d20 + proficiency + attack bonus.
	AttackTotal int
	Outcome     Outcome
	// BaseDamage is the damage roll total before the outcome multiplier.
	BaseDamage int
}

// EffectiveDamage returns the damage dealt after applying the outcome multiplier.
//
// Postcondition: Returns >= 0.
func (r AttackResult) EffectiveDamage() int {
	dmg := 0
	switch r.Outcome {
	case CritSuccess:
		dmg = r.BaseDamage * 2
	case Success:
		dmg = r.BaseDamage
	}
	if dmg < 0 {
		return 0
	}
	return dmg
}

// ResolveAttack performs an attack roll and a damage roll for attacker vs target.
// Attack roll: d20 + proficiency bonus + attack bonus vs target AC.
//
// Precondition: attacker.Damage must parse; roller must be non-nil.
// Postcondition: Returns a fully populated AttackResult or a dice error.
func ResolveAttack(attacker, target *Combatant, roller *dice.Roller) (AttackResult, error) {
	d20 := roller.D20(attacker.Name + " attack")
	total := d20 + levelBonus(attacker.Level) + attacker.AttackBonus
	dmg, err := roller.Roll(attacker.Name+" damage", attacker.Damage)
	if err != nil {
		return AttackResult{}, err
	}
	return AttackResult{
		AttackRoll:  d20,
		AttackTotal: total,
		Outcome:     OutcomeFor(total, target.AC),
		BaseDamage:  dmg.Total(),
	}, nil
}
