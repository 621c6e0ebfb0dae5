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
	"fmt"
	"sort"
	"strings"
)

// SortMode orders the children of the fact group.
type SortMode int

const (
	// ByCatalog is the order the tree was projected in.
	ByCatalog SortMode = iota
	ByRevealOrder
	ByAlphabeticalID
)

func (m SortMode) String() string {
	switch m {
	case ByCatalog:
		return "catalog"
	case ByRevealOrder:
		return "reveal"
	case ByAlphabeticalID:
		return "alpha"
	}
	return fmt.Sprintf("SortMode(%d)", int(m))
}

// Other returns the mode a sort action offers when m is active.
func (m SortMode) Other() SortMode {
	if m == ByRevealOrder {
		return ByAlphabeticalID
	}
	return ByRevealOrder
}

// ParseSortMode accepts the names String produces.
func ParseSortMode(s string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "catalog":
		return ByCatalog, nil
	case "reveal":
		return ByRevealOrder, nil
	case "alpha":
		return ByAlphabeticalID, nil
	}
	return ByCatalog, fmt.Errorf("unknown sort mode %q", s)
}

// SortMode returns the active mode.
func (t *Tree) SortMode() SortMode { return t.mode }

// Sort reorders the fact group. It reports false, and does nothing, when
// mode is already active. Sorting ByCatalog is not possible once another
// mode was applied.
func (t *Tree) Sort(mode SortMode) bool {
	if mode == t.mode || mode == ByCatalog {
		return false
	}
	t.mode = mode
	t.applySort()
	return true
}

func (t *Tree) applySort() {
	children := t.factGroup.children
	switch t.mode {
	case ByRevealOrder:
		sort.SliceStable(children, func(i, j int) bool {
			a, _ := children[i].entry.LogFact()
			b, _ := children[j].entry.LogFact()
			if a.RevealOrder != b.RevealOrder {
				return a.RevealOrder < b.RevealOrder
			}
			return children[i].name < children[j].name
		})
	case ByAlphabeticalID:
		sort.SliceStable(children, func(i, j int) bool {
			return children[i].name < children[j].name
		})
	}
}
