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
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/owsavetools/owsave/services/saveedit/enums"
)

func compactJSON(dst *bytes.Buffer, src []byte) error {
	return json.Compact(dst, src)
}

// Pretty writes a human-readable listing of the model. Facts are listed by
// reveal order, then ID, so the revealed sequence reads top to bottom
// after the unrevealed facts.
func (g *GameSave) Pretty(w io.Writer) error {
	var b strings.Builder
	indent := "  "

	fmt.Fprintf(&b, "GameSave(\n")
	fmt.Fprintf(&b, "%sloopCount: %d\n", indent, g.LoopCount)

	fmt.Fprintf(&b, "%sknownFrequencies:\n", indent)
	for _, f := range enums.Frequencies() {
		fmt.Fprintf(&b, "%s%s%-*s: %t\n", indent, indent, 11, f, g.KnownFrequencies[f])
	}

	fmt.Fprintf(&b, "%sknownSignals:\n", indent)
	for _, s := range enums.Signals() {
		fmt.Fprintf(&b, "%s%s%-*s: %t\n", indent, indent, 30, s, g.KnownSignals[s])
	}

	names := g.ConditionNames()
	width := maxLen(names)
	fmt.Fprintf(&b, "%sdictConditions:\n", indent)
	for _, name := range names {
		fmt.Fprintf(&b, "%s%s%-*s: %s\n", indent, indent, width, name, g.Conditions[name])
	}

	ids := g.FactIDs()
	sort.SliceStable(ids, func(i, j int) bool {
		oi, oj := g.LogFacts[ids[i]].RevealOrder, g.LogFacts[ids[j]].RevealOrder
		if oi != oj {
			return oi < oj
		}
		return ids[i] < ids[j]
	})
	width = maxLen(ids)
	fmt.Fprintf(&b, "%sshipLogFactSaves:\n", indent)
	for _, id := range ids {
		f := g.LogFacts[id]
		fmt.Fprintf(&b, "%s%s%-*s: revealOrder=%-3d", indent, indent, width, id, f.RevealOrder)
		if f.Read {
			b.WriteString(" read")
		}
		if f.NewlyRevealed {
			b.WriteString(" newlyRevealed")
		}
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "%snewlyRevealedFactIDs: %v\n", indent, g.NewlyRevealedFactIDs)
	fmt.Fprintf(&b, "%slastDeathType: %s\n", indent, g.LastDeathType)
	fmt.Fprintf(&b, "%sburnedMarshmallowEaten: %d\n", indent, g.BurnedMarshmallowEaten)
	fmt.Fprintf(&b, "%sfullTimeloops: %d\n", indent, g.FullTimeloops)
	fmt.Fprintf(&b, "%sperfectMarshmallowsEaten: %d\n", indent, g.PerfectMarshmallowsEaten)
	fmt.Fprintf(&b, "%swarpedToTheEye: %t\n", indent, g.WarpedToTheEye)
	fmt.Fprintf(&b, "%ssecondsRemainingOnWarp: %s\n", indent, prettyFloat(g.SecondsRemainingOnWarp))
	fmt.Fprintf(&b, "%sloopCountOnParadox: %d\n", indent, g.LoopCountOnParadox)
	fmt.Fprintf(&b, "%sshownPopups: %s\n", indent, g.ShownPopups)
	fmt.Fprintf(&b, "%sversion: %s\n", indent, g.Version)
	fmt.Fprintf(&b, "%sps5Activity_canResumeExpedition: %t\n", indent, g.PS5CanResumeExpedition)
	fmt.Fprintf(&b, "%sps5Activity_availableShipLogCards: %v\n", indent, g.PS5AvailableShipLogCards)
	fmt.Fprintf(&b, "%sdidRunInitGammaSetting: %t\n", indent, g.DidRunInitGammaSetting)
	for _, f := range g.Extra {
		fmt.Fprintf(&b, "%s%s (preserved): %s\n", indent, f.Key, f.Raw)
	}
	b.WriteString(")\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func prettyFloat(f float64) string {
	if b, err := formatFloat(f); err == nil {
		return string(b)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func maxLen(ss []string) int {
	n := 0
	for _, s := range ss {
		if len(s) > n {
			n = len(s)
		}
	}
	return n
}
