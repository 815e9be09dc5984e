// Package npc provides the enemy templates fights are started against.
package npc

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/resfight/internal/game/battle"
	"github.com/cory-johannsen/resfight/internal/game/dice"
)

// Template is one kind of enemy, loaded from a YAML file per enemy.
type Template struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Level       int    `yaml:"level"`
	MaxHP       int    `yaml:"max_hp"`
	AC          int    `yaml:"ac"`
	AttackBonus int    `yaml:"attack_bonus"`
	// Damage is a dice expression such as "1d6+1".
	Damage string `yaml:"damage"`
}

// Validate reports every field that could not produce a valid combatant.
func (t *Template) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	check(t.ID != "", "id must not be empty")
	check(t.Name != "", "name must not be empty")
	check(t.Level >= 1, "level must be >= 1, got %d", t.Level)
	check(t.MaxHP >= 1, "max_hp must be >= 1, got %d", t.MaxHP)
	check(t.AC >= 10, "ac must be >= 10, got %d", t.AC)
	if _, err := dice.Parse(t.Damage); err != nil {
		errs = append(errs, fmt.Errorf("damage: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("enemy template %q: %w", t.ID, err)
	}
	return nil
}

// Spawn returns a fresh combatant at full health.
func (t *Template) Spawn() *battle.Combatant {
	return &battle.Combatant{
		Name:        t.Name,
		Level:       t.Level,
		MaxHP:       t.MaxHP,
		CurrentHP:   t.MaxHP,
		AC:          t.AC,
		AttackBonus: t.AttackBonus,
		Damage:      t.Damage,
	}
}

// LoadTemplateFromBytes decodes and validates one template. Unknown keys are
// rejected so that a misspelt stat does not silently default to zero.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var t Template
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("parsing enemy template: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadTemplates loads every *.yaml and *.yml file in dir, in name order.
//
// Postcondition: Returns no templates at all if any file fails to load.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading enemy dir: %w", err)
	}
	var templates []*Template
	for _, e := range entries {
		if e.IsDir() || !slices.Contains([]string{".yaml", ".yml"}, filepath.Ext(e.Name())) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		t, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		templates = append(templates, t)
	}
	return templates, nil
}
