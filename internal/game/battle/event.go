package battle

import "fmt"

// EventKind distinguishes the things that happen during a round.
type EventKind int

const (
	// EventAttack is one attack roll and its damage.
	EventAttack EventKind = iota
	// EventDefeat marks a combatant dropping to zero hit points.
	EventDefeat
)

// Event records what happened when one action was resolved.
type Event struct {
	Round   int       `json:"round"`
	Kind    EventKind `json:"kind"`
	Actor   string    `json:"actor"`
	Target  string    `json:"target"`
	Outcome Outcome   `json:"outcome"`
	// Total is the attack roll including bonuses.
	Total  int `json:"total"`
	Damage int `json:"damage"`
}

// Decorate renders the event as one narrative line.
func (e Event) Decorate() string {
	switch e.Kind {
	case EventDefeat:
		return fmt.Sprintf("%s has been defeated by %s.", e.Target, e.Actor)
	}
	switch e.Outcome {
	case CritSuccess:
		return fmt.Sprintf("%s lands a critical hit on %s for %d damage!", e.Actor, e.Target, e.Damage)
	case Success:
		return fmt.Sprintf("%s hits %s for %d damage.", e.Actor, e.Target, e.Damage)
	case CritFailure:
		return fmt.Sprintf("%s stumbles and misses %s badly.", e.Actor, e.Target)
	default:
		return fmt.Sprintf("%s tries to hit %s but misses.", e.Actor, e.Target)
	}
}
