// Package hook implements the synchronous publish/subscribe pipeline used by
// the fight module to let plugins observe and alter lifecycle transitions.
//
// Every hook carries a Context: a tagged variant with a fixed field schema
// that is validated when the variant is constructed. Subscribers receive the
// context by value and return the (possibly modified) value; the pipeline
// hands each subscriber's result to the next one and finally back to the
// publisher.
package hook

import (
	"errors"
	"fmt"
	"math"
)

// Name identifies a hook. Names are namespaced strings such as
// "h/mud/res-fight/fightActions".
type Name string

// Fields is the dynamic field view of a Context, keyed by the documented
// field names ("battle", "viewpoint", "referrerSceneId", ...).
type Fields map[string]any

// Context is one hook payload variant.
type Context interface {
	// HookName returns the hook this variant is published on.
	HookName() Name
	// Fields returns a fresh field map describing the variant.
	Fields() Fields
}

// ErrArgument is the sentinel matched by every ArgumentError.
var ErrArgument = errors.New("invalid hook argument")

// ArgumentError reports a missing or mistyped context field.
type ArgumentError struct {
	Hook   Name
	Field  string
	Reason string
}

// Error implements error.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("hook %s: field %q %s", e.Hook, e.Field, e.Reason)
}

// Is reports whether target is ErrArgument.
func (e *ArgumentError) Is(target error) bool {
	return target == ErrArgument
}

// Missing returns an ArgumentError for an absent required field.
func Missing(hook Name, field string) error {
	return &ArgumentError{Hook: hook, Field: field, Reason: "is required"}
}

// Mistyped returns an ArgumentError for a field holding the wrong kind of value.
func Mistyped(hook Name, field, want string, got any) error {
	return &ArgumentError{Hook: hook, Field: field, Reason: fmt.Sprintf("must be %s, got %T", want, got)}
}

// Require returns fields[key] as T.
//
// Postcondition: Returns an *ArgumentError when the key is absent, holds nil,
// or holds a value that is not a T.
func Require[T any](hook Name, fields Fields, key, want string) (T, error) {
	var zero T
	raw, ok := fields[key]
	if !ok || raw == nil {
		return zero, Missing(hook, key)
	}
	v, ok := raw.(T)
	if !ok {
		return zero, Mistyped(hook, key, want, raw)
	}
	return v, nil
}

// RequireInt64 returns fields[key] as an int64, accepting any Go integer kind
// and integral float64 values (the shape numbers take after a script round trip).
//
// Postcondition: Returns an *ArgumentError for non-integers and for values
// outside the int64 range.
func RequireInt64(hook Name, fields Fields, key string) (int64, error) {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return 0, Missing(hook, key)
	}
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return fromUint(hook, key, uint64(v))
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return fromUint(hook, key, v)
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			break
		}
		// MaxInt64 rounds up to 2^63 as a float64, the first value past the range.
		if v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, outOfRange(hook, key, raw)
		}
		return int64(v), nil
	}
	return 0, Mistyped(hook, key, "an integer", raw)
}

func fromUint(hook Name, key string, v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, outOfRange(hook, key, v)
	}
	return int64(v), nil
}

func outOfRange(hook Name, key string, v any) error {
	return &ArgumentError{Hook: hook, Field: key, Reason: fmt.Sprintf("%v overflows int64", v)}
}
