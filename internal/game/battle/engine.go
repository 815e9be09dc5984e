package battle

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/resfight/internal/game/character"
	"github.com/cory-johannsen/resfight/internal/game/dice"
)

// ErrUnsupportedSnapshot is returned when a snapshot carries an unknown version.
var ErrUnsupportedSnapshot = errors.New("unsupported battle snapshot version")

// Engine constructs and restores battles. It holds no per-battle state and
// is safe for concurrent use when its Source is.
type Engine struct {
	roller *dice.Roller
	logger *zap.Logger
}

// NewEngine creates an Engine rolling with src.
//
// Precondition: src and logger must be non-nil.
func NewEngine(src dice.Source, logger *zap.Logger) *Engine {
	return &Engine{
		roller: dice.NewLoggedRoller(src, logger),
		logger: logger,
	}
}

// NewBattle starts a battle between c and a copy of enemy.
//
// Precondition: c must be non-nil and alive; enemy must be non-nil.
// Postcondition: Returns a battle at round 0 or a validation error.
func (e *Engine) NewBattle(c *character.Character, enemy *Combatant) (*Battle, error) {
	if c == nil {
		return nil, errors.New("battle: character must not be nil")
	}
	if enemy == nil {
		return nil, errors.New("battle: enemy must not be nil")
	}
	if err := enemy.Validate(); err != nil {
		return nil, fmt.Errorf("battle: invalid enemy: %w", err)
	}
	b := &Battle{
		id:        uuid.New(),
		player:    PlayerCombatant(c),
		monster:   *enemy,
		character: c,
		roller:    e.roller,
		logger:    e.logger,
	}
	e.logger.Debug("battle started",
		zap.String("battle_id", b.id.String()),
		zap.String("character", c.Name),
		zap.String("enemy", enemy.Name),
		zap.Int("enemy_level", enemy.Level),
	)
	return b, nil
}

// RestoreBattle rebuilds a battle for c from a Snapshot blob. The character's
// current health is authoritative for the player side.
//
// Precondition: c must be non-nil.
// Postcondition: Returns the restored battle with no events, or an error.
func (e *Engine) RestoreBattle(c *character.Character, blob []byte) (*Battle, error) {
	if c == nil {
		return nil, errors.New("battle: character must not be nil")
	}
	var s snapshot
	if err := json.Unmarshal(blob, &s); err != nil {
		return nil, fmt.Errorf("decoding battle snapshot: %w", err)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSnapshot, s.Version)
	}
	if err := s.Monster.Validate(); err != nil {
		return nil, fmt.Errorf("battle: invalid monster in snapshot: %w", err)
	}
	return &Battle{
		id:        s.ID,
		round:     s.Round,
		player:    PlayerCombatant(c),
		monster:   s.Monster,
		character: c,
		roller:    e.roller,
		logger:    e.logger,
	}, nil
}
