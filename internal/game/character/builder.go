package character

import (
	"errors"
	"fmt"
)

// HealthPerLevel is the max health a freshly built character gets per level.
const HealthPerLevel = 10

// Build constructs a new Character at the given level, fully healed, with an
// empty property store.
//
// Precondition: name must be non-empty; level must be >= 1.
// Postcondition: Returns a Character ready for persistence, or a non-nil error.
func Build(name string, level int) (*Character, error) {
	if name == "" {
		return nil, errors.New("character name must not be empty")
	}
	if level < 1 {
		return nil, fmt.Errorf("character level must be >= 1, got %d", level)
	}
	maxHealth := level * HealthPerLevel
	return &Character{
		Name:       name,
		Level:      level,
		Health:     maxHealth,
		MaxHealth:  maxHealth,
		Properties: NewProperties(),
	}, nil
}
