// Package storage defines character persistence shared by the postgres,
// sqlite, and in-memory backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cory-johannsen/resfight/internal/game/character"
)

// ErrCharacterNotFound is returned when a character lookup yields no results.
var ErrCharacterNotFound = errors.New("character not found")

// ErrCharacterNameTaken is returned when creating a character with a name already in use.
var ErrCharacterNameTaken = errors.New("character name already taken")

// CharacterStore persists characters together with their property bag.
type CharacterStore interface {
	// Create inserts c and sets its ID and timestamps.
	Create(ctx context.Context, c *character.Character) error
	// Get returns the character with id, or ErrCharacterNotFound.
	Get(ctx context.Context, id int64) (*character.Character, error)
	// Save writes c's scalar fields and replaces its properties atomically.
	Save(ctx context.Context, c *character.Character) error
}

// Clone returns a deep copy of c, including its properties.
func Clone(c *character.Character) *character.Character {
	out := *c
	raw := map[string][]byte{}
	if c.Properties != nil {
		raw = c.Properties.Raw()
	}
	out.Properties = character.PropertiesFromRaw(raw)
	return &out
}

// MemoryCharacterStore is an in-process CharacterStore. Characters are copied
// on the way in and out so callers never share state with the store.
type MemoryCharacterStore struct {
	mu     sync.RWMutex
	chars  map[int64]*character.Character
	names  map[string]int64
	nextID int64
	now    func() time.Time
}

// NewMemoryCharacterStore creates an empty MemoryCharacterStore.
func NewMemoryCharacterStore() *MemoryCharacterStore {
	return &MemoryCharacterStore{
		chars: make(map[int64]*character.Character),
		names: make(map[string]int64),
		now:   time.Now,
	}
}

// Create implements CharacterStore.
//
// Precondition: c.Name must be non-empty.
// Postcondition: c.ID is set, or ErrCharacterNameTaken is returned.
func (s *MemoryCharacterStore) Create(_ context.Context, c *character.Character) error {
	if c.Name == "" {
		return errors.New("character name must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.names[c.Name]; taken {
		return ErrCharacterNameTaken
	}
	s.nextID++
	now := s.now().UTC()
	c.ID = s.nextID
	c.CreatedAt, c.UpdatedAt = now, now
	s.chars[c.ID] = Clone(c)
	s.names[c.Name] = c.ID
	return nil
}

// Get implements CharacterStore.
func (s *MemoryCharacterStore) Get(_ context.Context, id int64) (*character.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chars[id]
	if !ok {
		return nil, fmt.Errorf("character %d: %w", id, ErrCharacterNotFound)
	}
	return Clone(c), nil
}

// Save implements CharacterStore.
func (s *MemoryCharacterStore) Save(_ context.Context, c *character.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.chars[c.ID]
	if !ok {
		return fmt.Errorf("character %d: %w", c.ID, ErrCharacterNotFound)
	}
	if old.Name != c.Name {
		if _, taken := s.names[c.Name]; taken {
			return ErrCharacterNameTaken
		}
		delete(s.names, old.Name)
		s.names[c.Name] = c.ID
	}
	c.UpdatedAt = s.now().UTC()
	s.chars[c.ID] = Clone(c)
	return nil
}
