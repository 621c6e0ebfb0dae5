// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package enums defines the closed sets of integer codes stored in a save
// file: signals, frequencies, death types and the startup popup flags.
//
// # Description
//
// Every enum offers String, Valid, a Parse constructor that rejects codes
// without a defined member, and an ordered listing of its members. The
// types carry no behavior beyond naming.
package enums

import (
	"errors"
	"fmt"
)

// ErrInvalidEnumValue marks a stored integer with no defined member.
var ErrInvalidEnumValue = errors.New("invalid enum value")

// InvalidValueError reports which enum rejected which code.
type InvalidValueError struct {
	Enum  string
	Value int
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%s: %d is not a valid %s", ErrInvalidEnumValue, e.Value, e.Enum)
}

// Unwrap lets errors.Is match ErrInvalidEnumValue.
func (e *InvalidValueError) Unwrap() error { return ErrInvalidEnumValue }

func invalid(enum string, v int) error {
	return &InvalidValueError{Enum: enum, Value: v}
}
