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
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/owsavetools/owsave/services/saveedit/enums"
)

// Change is one field that differs between two models.
type Change struct {
	Path string
	Old  string
	New  string
}

func (c Change) String() string {
	return fmt.Sprintf("%s: %s -> %s", c.Path, c.Old, c.New)
}

// Diff lists field-level differences from a to b in schema order.
func Diff(a, b *GameSave) []Change {
	var out []Change
	add := func(path string, before, after any) {
		o, n := fmt.Sprint(before), fmt.Sprint(after)
		if o != n {
			out = append(out, Change{Path: path, Old: o, New: n})
		}
	}

	add(keyLoopCount, a.LoopCount, b.LoopCount)
	for _, f := range enums.Frequencies() {
		add(keyKnownFrequencies+"/"+f.String(), a.KnownFrequencies[f], b.KnownFrequencies[f])
	}
	for _, s := range enums.Signals() {
		add(keyKnownSignals+"/"+s.String(), a.KnownSignals[s], b.KnownSignals[s])
	}
	for _, name := range union(a.ConditionNames(), b.ConditionNames()) {
		add(keyDictConditions+"/"+name, a.Conditions[name], b.Conditions[name])
	}
	for _, id := range union(a.FactIDs(), b.FactIDs()) {
		fa, fb := a.LogFacts[id], b.LogFacts[id]
		p := keyShipLogFactSaves + "/" + id
		add(p+"/id", fa.ID, fb.ID)
		add(p+"/revealOrder", fa.RevealOrder, fb.RevealOrder)
		add(p+"/read", fa.Read, fb.Read)
		add(p+"/newlyRevealed", fa.NewlyRevealed, fb.NewlyRevealed)
	}
	add(keyNewlyRevealedFactIDs, a.NewlyRevealedFactIDs, b.NewlyRevealedFactIDs)
	add(keyLastDeathType, a.LastDeathType, b.LastDeathType)
	add(keyBurnedMarshmallowEaten, a.BurnedMarshmallowEaten, b.BurnedMarshmallowEaten)
	add(keyFullTimeloops, a.FullTimeloops, b.FullTimeloops)
	add(keyPerfectMarshmallowsEaten, a.PerfectMarshmallowsEaten, b.PerfectMarshmallowsEaten)
	add(keyWarpedToTheEye, a.WarpedToTheEye, b.WarpedToTheEye)
	add(keySecondsRemainingOnWarp,
		strconv.FormatFloat(a.SecondsRemainingOnWarp, 'g', -1, 64),
		strconv.FormatFloat(b.SecondsRemainingOnWarp, 'g', -1, 64))
	add(keyLoopCountOnParadox, a.LoopCountOnParadox, b.LoopCountOnParadox)
	add(keyShownPopups, a.ShownPopups, b.ShownPopups)
	add(keyVersion, strconv.Quote(a.Version), strconv.Quote(b.Version))
	add(keyPS5CanResumeExpedition, a.PS5CanResumeExpedition, b.PS5CanResumeExpedition)
	add(keyPS5AvailableShipLogCards, a.PS5AvailableShipLogCards, b.PS5AvailableShipLogCards)
	add(keyDidRunInitGammaSetting, a.DidRunInitGammaSetting, b.DidRunInitGammaSetting)

	extraA, extraB := extraMap(a), extraMap(b)
	for _, k := range union(extraKeys(a), extraKeys(b)) {
		add(k, extraA[k], extraB[k])
	}
	return out
}

// Equal reports whether two models hold the same data.
func Equal(a, b *GameSave) bool { return len(Diff(a, b)) == 0 }

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := make([]string, 0, len(a))
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func extraKeys(g *GameSave) []string {
	keys := make([]string, len(g.Extra))
	for i, f := range g.Extra {
		keys[i] = f.Key
	}
	return keys
}

// extraMap compacts raw values so formatting differences do not count.
func extraMap(g *GameSave) map[string]string {
	m := make(map[string]string, len(g.Extra))
	for _, f := range g.Extra {
		var buf bytes.Buffer
		if err := compactJSON(&buf, f.Raw); err != nil {
			m[f.Key] = strings.TrimSpace(string(f.Raw))
			continue
		}
		m[f.Key] = buf.String()
	}
	return m
}
