// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package entry

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validator checks a candidate value. A non-nil error is the reason the
// value was refused.
type Validator func(v any) error

// AtLeast accepts integers and floats that are >= n.
func AtLeast(n int) Validator {
	tag := fmt.Sprintf("gte=%d", n)
	return func(v any) error {
		return varCheck(v, tag, fmt.Sprintf("must be at least %d", n))
	}
}

// NonNegative accepts integers and floats that are >= 0.
func NonNegative() Validator { return AtLeast(0) }

// RevealRange accepts orders in [-1, max()+1], where highest returns the current
// highest reveal order (-1 when nothing is revealed).
func RevealRange(highest func() int) Validator {
	return func(v any) error {
		hi := highest() + 1
		return varCheck(v, fmt.Sprintf("gte=-1,lte=%d", hi),
			fmt.Sprintf("must be between -1 and %d", hi))
	}
}

func varCheck(v any, tag, reason string) error {
	err := validate.Var(v, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return errors.New(reason)
	}
	return err
}
