// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tree

import (
	"errors"
	"fmt"
	"sort"

	"github.com/owsavetools/owsave/services/saveedit/gamesave"
)

// ErrInvariantViolation means the reveal orders or the newly-revealed list
// ended up inconsistent after an update. It indicates a defect, not bad
// input.
var ErrInvariantViolation = errors.New("reveal order invariant violated")

// MaxRevealOrder returns the highest reveal order, -1 when no fact is
// revealed.
func (t *Tree) MaxRevealOrder() int {
	hi := gamesave.NotRevealed
	for _, e := range t.facts {
		if f, _ := e.LogFact(); f.RevealOrder > hi {
			hi = f.RevealOrder
		}
	}
	return hi
}

// SetRevealOrder moves one fact to a new reveal order and renumbers the
// rest.
//
// # Description
//
// The revealed facts other than id are taken in their current order and
// id is inserted at the requested position, clamped to the range
// [-1, max+1]. The result is renumbered 0..k-1, which also closes any gap
// or duplicate left by a damaged file. A request of -1 unreveals the fact.
//
// Revealing a previously hidden fact sets its newly-revealed flag and
// appends it to the newly-revealed list; unrevealing clears both. Moving an
// already revealed fact leaves its flags alone.
//
// # Outputs
//
//   - error: ErrUnknownPath for an unknown id, ErrInvariantViolation if
//     the postcondition does not hold afterwards.
func (t *Tree) SetRevealOrder(id string, requested int) error {
	target, ok := t.facts[id]
	if !ok {
		return fmt.Errorf("%w: fact %s", ErrUnknownPath, id)
	}
	rec, _ := target.LogFact()
	wasRevealed := rec.Revealed()

	var revealed []slot
	for key, e := range t.facts {
		f, _ := e.LogFact()
		switch {
		case key == id:
		case f.Revealed():
			revealed = append(revealed, slot{key: key, fact: f})
		case f.RevealOrder != gamesave.NotRevealed:
			f.RevealOrder = gamesave.NotRevealed
			e.StoreLogFact(f)
		}
	}
	sortSlots(revealed)

	pos := requested
	if pos < gamesave.NotRevealed {
		pos = gamesave.NotRevealed
	}
	if pos > len(revealed) {
		pos = len(revealed)
	}

	if pos == gamesave.NotRevealed {
		rec.RevealOrder = gamesave.NotRevealed
		rec.NewlyRevealed = false
		target.StoreLogFact(rec)
	} else {
		if !wasRevealed {
			rec.NewlyRevealed = true
		}
		revealed = append(revealed, slot{})
		copy(revealed[pos+1:], revealed[pos:])
		revealed[pos] = slot{key: id, fact: rec}
	}

	for i, s := range revealed {
		s.fact.RevealOrder = i
		t.facts[s.key].StoreLogFact(s.fact)
	}

	if pos == gamesave.NotRevealed {
		t.newly = remove(t.newly, id)
	} else if !wasRevealed {
		t.newly = appendUnique(t.newly, id)
	}
	t.syncNewly()

	if t.mode == ByRevealOrder {
		t.applySort()
	}
	return t.CheckInvariants()
}

// ToggleRevealed reveals a hidden fact at the end of the order, or hides a
// revealed one.
func (t *Tree) ToggleRevealed(id string) error {
	f, ok := t.Fact(id)
	if !ok {
		return fmt.Errorf("%w: fact %s", ErrUnknownPath, id)
	}
	if f.Revealed() {
		return t.SetRevealOrder(id, gamesave.NotRevealed)
	}
	return t.SetRevealOrder(id, t.MaxRevealOrder()+1)
}

// ToggleNewlyRevealed flips the newly-revealed flag and keeps the list in
// step with it.
func (t *Tree) ToggleNewlyRevealed(id string) error {
	f, ok := t.Fact(id)
	if !ok {
		return fmt.Errorf("%w: fact %s", ErrUnknownPath, id)
	}
	f.NewlyRevealed = !f.NewlyRevealed
	if f.NewlyRevealed {
		t.newly = appendUnique(t.newly, id)
	} else {
		t.newly = remove(t.newly, id)
	}
	t.facts[id].StoreLogFact(f)
	t.syncNewly()
	return t.CheckInvariants()
}

// ToggleRead flips the read flag.
func (t *Tree) ToggleRead(id string) error {
	f, ok := t.Fact(id)
	if !ok {
		return fmt.Errorf("%w: fact %s", ErrUnknownPath, id)
	}
	f.Read = !f.Read
	t.facts[id].StoreLogFact(f)
	return nil
}

// CheckInvariants verifies that revealed orders are exactly 0..k-1 and
// that the newly-revealed list matches the flags.
func (t *Tree) CheckInvariants() error {
	var orders []int
	flagged := make(map[string]bool)
	for id, e := range t.facts {
		f, _ := e.LogFact()
		if f.Revealed() {
			orders = append(orders, f.RevealOrder)
		} else if f.RevealOrder != gamesave.NotRevealed {
			return fmt.Errorf("%w: fact %s has order %d", ErrInvariantViolation, id, f.RevealOrder)
		}
		if f.NewlyRevealed {
			flagged[id] = true
		}
	}
	sort.Ints(orders)
	for i, o := range orders {
		if o != i {
			return fmt.Errorf("%w: orders %v are not dense", ErrInvariantViolation, orders)
		}
	}

	if len(t.newly) != len(flagged) {
		return fmt.Errorf("%w: newly-revealed list %v does not match flags", ErrInvariantViolation, t.newly)
	}
	for _, id := range t.newly {
		if !flagged[id] {
			return fmt.Errorf("%w: %s listed as newly revealed without its flag", ErrInvariantViolation, id)
		}
		delete(flagged, id)
	}
	if len(flagged) > 0 {
		return fmt.Errorf("%w: newly-revealed list has duplicates", ErrInvariantViolation)
	}
	return nil
}

type slot struct {
	key  string
	fact gamesave.LogFact
}

func sortSlots(slots []slot) {
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].fact.RevealOrder != slots[j].fact.RevealOrder {
			return slots[i].fact.RevealOrder < slots[j].fact.RevealOrder
		}
		return slots[i].key < slots[j].key
	})
}

// syncNewly makes the newly-revealed list match the flags: listed IDs
// keep their position, duplicates and unflagged IDs are dropped, and
// flagged IDs missing from the list are appended in display order.
func (t *Tree) syncNewly() {
	seen := make(map[string]bool, len(t.newly))
	out := make([]string, 0, len(t.newly))
	for _, id := range t.newly {
		f, ok := t.Fact(id)
		if ok && f.NewlyRevealed && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, n := range t.factGroup.children {
		if f, _ := n.entry.LogFact(); f.NewlyRevealed && !seen[n.name] {
			seen[n.name] = true
			out = append(out, n.name)
		}
	}
	t.newly = out
	t.refreshNewlyList()
}

func remove(ids []string, id string) []string {
	out := ids[:0:0]
	for _, s := range ids {
		if s != id {
			out = append(out, s)
		}
	}
	return out
}

func appendUnique(ids []string, id string) []string {
	for _, s := range ids {
		if s == id {
			return ids
		}
	}
	return append(ids, id)
}
