package fight

import (
	"encoding/json"
	"errors"
	"fmt"
)

// StateVersion is the current FightState format version.
const StateVersion = 1

// ErrUnsupportedStateVersion is returned when a stored FightState was written
// by a newer format than this code understands.
var ErrUnsupportedStateVersion = errors.New("unsupported fight state version")

// ErrNoFight is returned by Restore when the character has no stored fight.
var ErrNoFight = errors.New("character is not fighting")

// FightState is the persisted form of a suspended Fight.
type FightState struct {
	Version int       `json:"version"`
	Data    StateData `json:"data"`
	// Battle is the collaborator's opaque snapshot.
	Battle []byte `json:"battle"`
}

// StateData identifies the encounter a FightState belongs to.
type StateData struct {
	SceneID    int64  `json:"sceneId"`
	Identifier string `json:"identifier"`
}

// EncodeState serializes s, stamping the current version.
func EncodeState(s FightState) ([]byte, error) {
	s.Version = StateVersion
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding fight state: %w", err)
	}
	return data, nil
}

// DecodeState parses a stored FightState. Records without a version predate
// versioning and share the version 1 layout.
//
// Postcondition: Returns ErrUnsupportedStateVersion for versions above StateVersion.
func DecodeState(data []byte) (FightState, error) {
	var s FightState
	if err := json.Unmarshal(data, &s); err != nil {
		return FightState{}, fmt.Errorf("decoding fight state: %w", err)
	}
	switch {
	case s.Version == 0:
		s.Version = StateVersion
	case s.Version < 0 || s.Version > StateVersion:
		return FightState{}, fmt.Errorf("%w: %d", ErrUnsupportedStateVersion, s.Version)
	}
	return s, nil
}
