// Package character defines the character domain model and its property store.
package character

import "time"

// Character represents a player character's persistent state.
//
// ID is set by the persistence layer; a zero value indicates an unsaved character.
type Character struct {
	ID   int64
	Name string

	Level     int
	Health    int
	MaxHealth int

	// Properties holds module-owned state such as experience and the
	// suspended battle record.
	Properties *Properties

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAlive reports whether the character has health left.
//
// Postcondition: Returns true iff Health > 0.
func (c *Character) IsAlive() bool { return c.Health > 0 }

// Heal restores the character to MaxHealth.
//
// Postcondition: Health == MaxHealth.
func (c *Character) Heal() { c.Health = c.MaxHealth }
