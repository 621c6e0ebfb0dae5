// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tristate provides a three-valued logical type.
//
// # Description
//
// Save files distinguish a condition that is explicitly true, explicitly
// false, or was never set. Value keeps those three states apart and refuses
// to collapse into a plain bool: AsBool always fails, so every consumer has
// to switch on the state and handle Unknown itself.
package tristate

import (
	"bytes"
	"errors"
	"fmt"
)

var (
	// ErrInvalidValue is returned when constructing a Value from anything
	// other than true, false or unknown (nil).
	ErrInvalidValue = errors.New("tristate: value must be true, false or unknown")

	// ErrBoolCoercion is returned by every call to AsBool.
	ErrBoolCoercion = errors.New("tristate: cannot be used as a bool")
)

// Value is a logical value with states true, false and unknown.
//
// The zero value is Unknown.
type Value uint8

const (
	// Unknown means the value was never set.
	Unknown Value = iota

	// True is an explicit true.
	True

	// False is an explicit false.
	False
)

// Of returns True or False for b.
func Of(b bool) Value {
	if b {
		return True
	}
	return False
}

// New constructs a Value from v.
//
// # Inputs
//
//   - v: a bool, a *bool (nil pointer means unknown), nil, or a Value.
//
// # Outputs
//
//   - Value: the corresponding state.
//   - error: ErrInvalidValue for any other input.
func New(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Unknown, nil
	case bool:
		return Of(x), nil
	case *bool:
		if x == nil {
			return Unknown, nil
		}
		return Of(*x), nil
	case Value:
		if !x.valid() {
			return Unknown, fmt.Errorf("%w: %d", ErrInvalidValue, uint8(x))
		}
		return x, nil
	default:
		return Unknown, fmt.Errorf("%w: %v (%T)", ErrInvalidValue, v, v)
	}
}

// MustNew is New that panics on error. Intended for literals.
func MustNew(v any) Value {
	t, err := New(v)
	if err != nil {
		panic(err)
	}
	return t
}

func (v Value) valid() bool {
	return v == Unknown || v == True || v == False
}

// IsUnknown reports whether v was never set.
func (v Value) IsUnknown() bool { return v == Unknown }

// Equal compares the underlying three-valued state.
func (v Value) Equal(o Value) bool { return v == o }

// EqualBool compares v against a plain boolean. Unknown never equals a bool.
func (v Value) EqualBool(b bool) bool {
	switch v {
	case True:
		return b
	case False:
		return !b
	default:
		return false
	}
}

// AsBool always fails with ErrBoolCoercion.
func (v Value) AsBool() (bool, error) {
	return false, fmt.Errorf("%w (state %s)", ErrBoolCoercion, v)
}

// Ptr returns the state as a *bool, nil for Unknown.
func (v Value) Ptr() *bool {
	switch v {
	case True:
		b := true
		return &b
	case False:
		b := false
		return &b
	default:
		return nil
	}
}

// Cycle returns the next state in the order true, false, unknown, true.
func (v Value) Cycle() Value {
	switch v {
	case True:
		return False
	case False:
		return Unknown
	default:
		return True
	}
}

// String returns "true", "false" or "unknown".
func (v Value) String() string {
	switch v {
	case True:
		return "true"
	case False:
		return "false"
	case Unknown:
		return "unknown"
	default:
		return fmt.Sprintf("Value(%d)", uint8(v))
	}
}

// MarshalJSON encodes Unknown as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v {
	case True:
		return []byte("true"), nil
	case False:
		return []byte("false"), nil
	case Unknown:
		return []byte("null"), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidValue, uint8(v))
	}
}

// UnmarshalJSON accepts true, false and null.
func (v *Value) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true":
		*v = True
	case "false":
		*v = False
	case "null":
		*v = Unknown
	default:
		return fmt.Errorf("%w: %s", ErrInvalidValue, data)
	}
	return nil
}
