package character

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Properties is a string-keyed, character-scoped, last-write-wins value store.
//
// Values are held as encoded JSON so that a property read back after a
// storage round trip decodes exactly like one that never left memory.
// Properties is not safe for concurrent use; a character is owned by one
// request at a time.
type Properties struct {
	values map[string]json.RawMessage
}

// NewProperties creates an empty property store.
func NewProperties() *Properties {
	return &Properties{values: make(map[string]json.RawMessage)}
}

// PropertiesFromRaw builds a store from already-encoded values, as loaded from storage.
//
// Precondition: every value must be valid JSON.
func PropertiesFromRaw(raw map[string][]byte) *Properties {
	p := NewProperties()
	for k, v := range raw {
		p.values[k] = append(json.RawMessage(nil), v...)
	}
	return p
}

// Has reports whether key is set.
func (p *Properties) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Get decodes the value stored under key into dst.
//
// Postcondition: Returns (false, nil) when key is unset and dst is untouched;
// returns a non-nil error when the stored value does not decode into dst.
func (p *Properties) Get(key string, dst any) (bool, error) {
	raw, ok := p.values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("decoding property %q: %w", key, err)
	}
	return true, nil
}

// Set encodes v and stores it under key, overwriting any previous value.
func (p *Properties) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding property %q: %w", key, err)
	}
	p.values[key] = raw
	return nil
}

// SetRaw stores already-encoded JSON under key.
//
// Precondition: raw must be valid JSON.
func (p *Properties) SetRaw(key string, raw []byte) {
	p.values[key] = append(json.RawMessage(nil), raw...)
}

// Bytes returns the encoded value under key.
func (p *Properties) Bytes(key string) ([]byte, bool) {
	raw, ok := p.values[key]
	return raw, ok
}

// Delete removes key. Deleting an unset key is a no-op.
func (p *Properties) Delete(key string) {
	delete(p.values, key)
}

// Int returns the integer stored under key, or def when the key is unset or
// does not hold an integer.
func (p *Properties) Int(key string, def int) int {
	var v int
	ok, err := p.Get(key, &v)
	if !ok || err != nil {
		return def
	}
	return v
}

// SetInt stores an integer under key.
func (p *Properties) SetInt(key string, v int) {
	// Marshalling an int cannot fail.
	_ = p.Set(key, v)
}

// Keys returns the set keys in lexicographic order.
func (p *Properties) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Raw returns a copy of every encoded value, for persistence.
func (p *Properties) Raw() map[string][]byte {
	out := make(map[string][]byte, len(p.values))
	for k, v := range p.values {
		out[k] = append([]byte(nil), v...)
	}
	return out
}
