// Package optional provides a tri-state value for partial updates.
//
// A Value is Unset when the field was absent from the input, Null when the
// input carried an explicit JSON null, and Set when a value was supplied.
package optional

import (
	"bytes"
	"encoding/json"
)

type state uint8

const (
	unset state = iota
	null
	set
)

// Value holds an optional update for a field of type T.
type Value[T any] struct {
	state state
	value T
}

// Of returns a Set value.
func Of[T any](v T) Value[T] {
	return Value[T]{state: set, value: v}
}

// Null returns an explicit null.
func Null[T any]() Value[T] {
	return Value[T]{state: null}
}

// IsSet reports whether a concrete value was supplied.
func (v Value[T]) IsSet() bool { return v.state == set }

// IsNull reports whether an explicit null was supplied.
func (v Value[T]) IsNull() bool { return v.state == null }

// IsUnset reports whether the field was absent.
func (v Value[T]) IsUnset() bool { return v.state == unset }

// Get returns the value and whether it is Set.
func (v Value[T]) Get() (T, bool) {
	return v.value, v.state == set
}

// OrElse returns the value when Set, otherwise fallback.
func (v Value[T]) OrElse(fallback T) T {
	if v.state == set {
		return v.value
	}
	return fallback
}

// UnmarshalJSON is only invoked for keys present in the document, so an
// absent key stays Unset.
func (v *Value[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		v.state, v.value = null, zero
		return nil
	}
	var val T
	if err := json.Unmarshal(data, &val); err != nil {
		return err
	}
	v.state, v.value = set, val
	return nil
}

// MarshalJSON renders Unset and Null as null.
func (v Value[T]) MarshalJSON() ([]byte, error) {
	if v.state != set {
		return []byte("null"), nil
	}
	return json.Marshal(v.value)
}
