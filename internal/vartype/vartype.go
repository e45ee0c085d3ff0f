// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package vartype provides optional values that track whether they were ever set.
package vartype

import (
	"fmt"
)

type (
	// VarFloat64 is a type alias for Variable[float64], representing a float64 value with initialization tracking.
	VarFloat64 = Variable[float64]

	// VarInt64 is a type alias for Variable[int64], representing an integer value with initialization tracking.
	VarInt64 = Variable[int64]
)

// Variable represents a generic type wrapper that holds a value and tracks its initialization state.
// The zero value is an unset Variable.
type Variable[T any] struct {
	value T
	isset bool
}

// NewVariable creates and returns a new Variable instance initialized with the provided value.
func NewVariable[T any](value T) Variable[T] {
	return Variable[T]{
		isset: true,
		value: value,
	}
}

// FromPointer returns a set Variable for a non-nil pointer and an unset Variable otherwise.
func FromPointer[T any](value *T) Variable[T] {
	if value == nil {
		return Variable[T]{}
	}
	return NewVariable(*value)
}

// Value retrieves the current value stored in the Variable.
func (v Variable[T]) Value() T {
	return v.value
}

// Get returns the value and whether it was set.
func (v Variable[T]) Get() (T, bool) {
	return v.value, v.isset
}

// IsSet returns true if the Variable has been initialized with a value, otherwise false.
func (v Variable[T]) IsSet() bool {
	return v.isset
}

// String returns a string representation of the Variable. If uninitialized, it returns "unknown".
func (v Variable[T]) String() string {
	if !v.isset {
		return "unknown"
	}
	return fmt.Sprint(v.value)
}
