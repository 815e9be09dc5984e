// Package progression implements experience rewards and the leveling curve.
//
// Experience lives in the character's property store under
// names.PropertyCurrentExperience and names.PropertyRequiredExperience.
package progression

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/resfight/internal/game/character"
	"github.com/cory-johannsen/resfight/internal/game/names"
	"github.com/cory-johannsen/resfight/internal/hook"
)

// Level bounds.
const (
	MinLevel = 1
	MaxLevel = 15
)

// HealthPerLevel is the max health gained on each level-up.
const HealthPerLevel = 10

// experienceCurve[i] is the experience a character at level i+1 needs to level up.
var experienceCurve = [MaxLevel]int{
	100, 400, 1002, 1912, 3140,
	4707, 6641, 8985, 11795, 15143,
	19121, 23840, 29437, 36071, 43930,
}

// ClampLevel clamps level into [MinLevel, MaxLevel].
func ClampLevel(level int) int {
	return min(max(level, MinLevel), MaxLevel)
}

// CalculateNeededExperience returns the experience a character at level needs
// to level up. Levels outside [1,15] clamp to the nearest bound.
//
// Postcondition: Returns > 0; strictly increasing over [1,15].
func CalculateNeededExperience(level int) int {
	return experienceCurve[ClampLevel(level)-1]
}

// CurrentExperience returns the character's experience, 0 when unset.
func CurrentExperience(c *character.Character) int {
	return c.Properties.Int(names.PropertyCurrentExperience, 0)
}

// SetCurrentExperience overwrites the character's experience.
func SetCurrentExperience(c *character.Character, xp int) {
	c.Properties.SetInt(names.PropertyCurrentExperience, xp)
}

// RequiredExperience returns the stored required experience, falling back to
// the curve for the character's level when unset.
//
// A stored value is never re-derived when the level changes by any path other
// than LevelUp, so it can go stale.
func RequiredExperience(c *character.Character) int {
	return c.Properties.Int(names.PropertyRequiredExperience, CalculateNeededExperience(c.Level))
}

// SetRequiredExperience overwrites the required experience.
func SetRequiredExperience(c *character.Character, xp int) {
	c.Properties.SetInt(names.PropertyRequiredExperience, xp)
}

// RewardExperience adds amount to the character's experience.
//
// Precondition: amount >= 0.
func RewardExperience(c *character.Character, amount int) {
	SetCurrentExperience(c, CurrentExperience(c)+amount)
}

// ModifyRelativeExperience multiplies the character's experience by factor,
// rounding down.
func ModifyRelativeExperience(c *character.Character, factor float64) {
	SetCurrentExperience(c, int(math.Floor(float64(CurrentExperience(c))*factor)))
}

// HasRequiredExperience reports whether current >= required.
func HasRequiredExperience(c *character.Character) bool {
	return CurrentExperience(c) >= RequiredExperience(c)
}

// LevelUpData is the context of names.EventCharacterLevelUp.
type LevelUpData struct {
	Character *character.Character
}

// NewLevelUpData validates and builds a level-up context.
func NewLevelUpData(c *character.Character) (LevelUpData, error) {
	return LevelUpDataFromFields(hook.Fields{"character": c})
}

// LevelUpDataFromFields builds a level-up context from its dynamic field view.
//
// Postcondition: Returns an *hook.ArgumentError if "character" is missing or not a character.
func LevelUpDataFromFields(f hook.Fields) (LevelUpData, error) {
	c, err := hook.Require[*character.Character](names.EventCharacterLevelUp, f, "character", "a character")
	if err != nil {
		return LevelUpData{}, err
	}
	if c == nil {
		return LevelUpData{}, hook.Missing(names.EventCharacterLevelUp, "character")
	}
	return LevelUpData{Character: c}, nil
}

// HookName implements hook.Context.
func (LevelUpData) HookName() hook.Name { return names.EventCharacterLevelUp }

// Fields implements hook.Context.
func (d LevelUpData) Fields() hook.Fields { return hook.Fields{"character": d.Character} }

// Engine levels characters up and announces it.
type Engine struct {
	pipeline *hook.Pipeline
	logger   *zap.Logger
}

// NewEngine creates an Engine publishing level-up events on pipeline.
//
// Precondition: pipeline and logger must be non-nil.
func NewEngine(pipeline *hook.Pipeline, logger *zap.Logger) *Engine {
	return &Engine{pipeline: pipeline, logger: logger}
}

// LevelUp raises the character one level, adds HealthPerLevel max health,
// heals fully, stores the required experience for the new level, and publishes
// names.EventCharacterLevelUp. At MaxLevel it does nothing.
//
// Postcondition: Returns (true, err) when the level changed; err carries
// subscriber failures only, the level-up itself is already applied.
func (e *Engine) LevelUp(ctx context.Context, c *character.Character) (bool, error) {
	if c.Level >= MaxLevel {
		return false, nil
	}
	c.Level++
	c.MaxHealth += HealthPerLevel
	c.Heal()
	SetRequiredExperience(c, CalculateNeededExperience(c.Level))

	e.logger.Info("character leveled up",
		zap.Int64("character_id", c.ID),
		zap.String("character", c.Name),
		zap.Int("level", c.Level),
		zap.Int("required_experience", RequiredExperience(c)),
	)

	data, err := NewLevelUpData(c)
	if err != nil {
		return true, err
	}
	if _, err := hook.Publish(ctx, e.pipeline, data); err != nil {
		return true, fmt.Errorf("publishing level up: %w", err)
	}
	return true, nil
}

// LevelUpWhileRequired levels the character up as long as it has the
// required experience and is below MaxLevel.
//
// Postcondition: Returns the number of levels gained.
func (e *Engine) LevelUpWhileRequired(ctx context.Context, c *character.Character) (int, error) {
	gained := 0
	for HasRequiredExperience(c) {
		ok, err := e.LevelUp(ctx, c)
		if ok {
			gained++
		}
		if err != nil || !ok {
			return gained, err
		}
	}
	return gained, nil
}
