// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package gamesave

import (
	"errors"
	"fmt"
)

// ErrMalformedInput marks a document that is not valid JSON, is not an
// object, misses a required key, or holds a value of the wrong shape.
var ErrMalformedInput = errors.New("malformed save file")

// MalformedError carries the offending key, if any.
type MalformedError struct {
	// Key is the JSON path of the offending value ("" for the whole document).
	Key string

	// Err is the underlying cause, nil for a missing key.
	Err error
}

func (e *MalformedError) Error() string {
	switch {
	case e.Key == "":
		return fmt.Sprintf("%s: %v", ErrMalformedInput, e.Err)
	case e.Err == nil:
		return fmt.Sprintf("%s: missing required key %q", ErrMalformedInput, e.Key)
	default:
		return fmt.Sprintf("%s: key %q: %v", ErrMalformedInput, e.Key, e.Err)
	}
}

// Is lets errors.Is match ErrMalformedInput.
func (e *MalformedError) Is(target error) bool { return target == ErrMalformedInput }

// Unwrap exposes the cause.
func (e *MalformedError) Unwrap() error { return e.Err }

func missing(key string) error { return &MalformedError{Key: key} }

func malformed(key string, err error) error { return &MalformedError{Key: key, Err: err} }
