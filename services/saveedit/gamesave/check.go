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
	"sort"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Check reports invariant problems in the model.
//
// # Description
//
// Loading accepts documents that break the model invariants so that a
// damaged save can still be opened and repaired. Check lists what is wrong:
// scalar ranges (struct tags, checked with go-playground/validator), reveal
// orders below -1, duplicate or gapped reveal orders, and a newly-revealed
// list that does not match the per-fact flags.
//
// # Outputs
//
//   - []string: one message per problem, empty when the model is consistent.
func (g *GameSave) Check() []string {
	var problems []string

	if err := validate.Struct(g); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				problems = append(problems,
					fmt.Sprintf("%s = %v violates %s=%s", fe.Field(), fe.Value(), fe.Tag(), fe.Param()))
			}
		} else {
			problems = append(problems, err.Error())
		}
	}

	problems = append(problems, g.checkRevealOrders()...)
	problems = append(problems, g.checkNewlyRevealed()...)
	return problems
}

func (g *GameSave) checkRevealOrders() []string {
	var problems []string
	byOrder := make(map[int][]string)
	for _, id := range g.FactIDs() {
		f := g.LogFacts[id]
		switch {
		case f.RevealOrder < NotRevealed:
			problems = append(problems, fmt.Sprintf("fact %s has reveal order %d", id, f.RevealOrder))
		case f.Revealed():
			byOrder[f.RevealOrder] = append(byOrder[f.RevealOrder], id)
		}
	}

	orders := make([]int, 0, len(byOrder))
	for o := range byOrder {
		orders = append(orders, o)
	}
	sort.Ints(orders)
	for _, o := range orders {
		if ids := byOrder[o]; len(ids) > 1 {
			problems = append(problems, fmt.Sprintf("reveal order %d shared by %v", o, ids))
		}
	}
	for i, o := range orders {
		if o != i {
			problems = append(problems, fmt.Sprintf("reveal orders have a gap before %d", o))
			break
		}
	}
	return problems
}

func (g *GameSave) checkNewlyRevealed() []string {
	var problems []string
	listed := make(map[string]int)
	for _, id := range g.NewlyRevealedFactIDs {
		listed[id]++
	}
	for id, n := range listed {
		if n > 1 {
			problems = append(problems, fmt.Sprintf("newlyRevealedFactIDs lists %s %d times", id, n))
		}
		if f, ok := g.LogFacts[id]; !ok || !f.NewlyRevealed {
			problems = append(problems, fmt.Sprintf("newlyRevealedFactIDs lists %s but its flag is not set", id))
		}
	}
	for _, id := range g.FactIDs() {
		if g.LogFacts[id].NewlyRevealed && listed[id] == 0 {
			problems = append(problems, fmt.Sprintf("fact %s is newly revealed but not listed", id))
		}
	}
	sort.Strings(problems)
	return problems
}
