package npc

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cory-johannsen/resfight/internal/game/dice"
)

// ErrNoTemplates is returned when a registry has nothing to pick from.
var ErrNoTemplates = errors.New("no enemy templates registered")

// Registry indexes enemy templates by ID and by level. It is read-only after
// construction and therefore safe for concurrent use.
type Registry struct {
	byID    map[string]*Template
	byLevel map[int][]*Template
	levels  []int // ascending
}

// NewRegistry indexes templates.
//
// Precondition: every template must be valid.
// Postcondition: Returns an error if two templates share an ID.
func NewRegistry(templates []*Template) (*Registry, error) {
	r := &Registry{
		byID:    make(map[string]*Template, len(templates)),
		byLevel: make(map[int][]*Template),
	}
	for _, t := range templates {
		if _, dup := r.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate enemy template id %q", t.ID)
		}
		r.byID[t.ID] = t
		if len(r.byLevel[t.Level]) == 0 {
			r.levels = append(r.levels, t.Level)
		}
		r.byLevel[t.Level] = append(r.byLevel[t.Level], t)
	}
	sort.Ints(r.levels)
	return r, nil
}

// Get returns the template with the given ID.
func (r *Registry) Get(id string) (*Template, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// Len returns the number of registered templates.
func (r *Registry) Len() int { return len(r.byID) }

// ForLevel picks a template at level, or at the nearest lower level that has
// templates; when every template is above level, the lowest level is used.
// Ties within a level are broken with src.
//
// Postcondition: Returns ErrNoTemplates iff the registry is empty.
func (r *Registry) ForLevel(level int, src dice.Source) (*Template, error) {
	if len(r.levels) == 0 {
		return nil, ErrNoTemplates
	}
	pick := r.levels[0]
	for _, l := range r.levels {
		if l > level {
			break
		}
		pick = l
	}
	candidates := r.byLevel[pick]
	return candidates[src.Intn(len(candidates))], nil
}
