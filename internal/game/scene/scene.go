// Package scene defines the places a character can be and the repositories
// that persist them.
package scene

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrSceneNotFound is returned when no scene matches a lookup.
var ErrSceneNotFound = errors.New("scene not found")

// Scene is one location with a stable identity.
//
// Template names the handler that renders the scene; several scenes may
// share a template but modules usually own exactly one scene per template.
type Scene struct {
	ID          int64
	Title       string
	Description string
	Template    string
}

// Validate checks the fields required to persist a scene.
func (s Scene) Validate() error {
	if s.Title == "" {
		return errors.New("scene title must not be empty")
	}
	if s.Template == "" {
		return fmt.Errorf("scene %q: template must not be empty", s.Title)
	}
	return nil
}

// Repository persists scenes.
type Repository interface {
	// Get returns the scene with id, or ErrSceneNotFound.
	Get(ctx context.Context, id int64) (*Scene, error)
	// FindByTemplate returns the first scene (lowest id) using template, or ErrSceneNotFound.
	FindByTemplate(ctx context.Context, template string) (*Scene, error)
	// Create stores s and assigns its ID.
	Create(ctx context.Context, s *Scene) error
	// Delete removes the scene with id. Deleting a missing scene returns ErrSceneNotFound.
	Delete(ctx context.Context, id int64) error
}

// MemoryRepository is an in-process Repository. All methods are safe for concurrent use.
type MemoryRepository struct {
	mu     sync.RWMutex
	scenes map[int64]Scene
	nextID int64
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{scenes: make(map[int64]Scene)}
}

// Get implements Repository.
func (r *MemoryRepository) Get(_ context.Context, id int64) (*Scene, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scenes[id]
	if !ok {
		return nil, fmt.Errorf("scene %d: %w", id, ErrSceneNotFound)
	}
	return &s, nil
}

// FindByTemplate implements Repository.
func (r *MemoryRepository) FindByTemplate(_ context.Context, template string) (*Scene, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]int64, 0, len(r.scenes))
	for id, s := range r.scenes {
		if s.Template == template {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("scene with template %q: %w", template, ErrSceneNotFound)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	s := r.scenes[ids[0]]
	return &s, nil
}

// Create implements Repository.
//
// Postcondition: s.ID is set to a fresh positive id.
func (r *MemoryRepository) Create(_ context.Context, s *Scene) error {
	if err := s.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	s.ID = r.nextID
	r.scenes[s.ID] = *s
	return nil
}

// Delete implements Repository.
func (r *MemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.scenes[id]; !ok {
		return fmt.Errorf("scene %d: %w", id, ErrSceneNotFound)
	}
	delete(r.scenes, id)
	return nil
}
