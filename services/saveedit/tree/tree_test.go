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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owsavetools/owsave/pkg/tristate"
	"github.com/owsavetools/owsave/services/saveedit/catalog"
	"github.com/owsavetools/owsave/services/saveedit/entry"
	"github.com/owsavetools/owsave/services/saveedit/enums"
	"github.com/owsavetools/owsave/services/saveedit/gamesave"
)

func newModel(t *testing.T, orders map[string]int) *gamesave.GameSave {
	t.Helper()
	cat, err := catalog.New(
		[]string{"LAUNCH_CODES_GIVEN", "MET_SOLANUM"},
		[]catalog.Fact{{ID: "a", Description: "first"}, {ID: "b"}, {ID: "c"}, {ID: "d"}},
		map[int]string{int(enums.RadioTower): "Deep Space Radio"},
		nil,
	)
	require.NoError(t, err)
	g := gamesave.New(cat)
	for id, o := range orders {
		g.LogFacts[id] = gamesave.LogFact{ID: id, RevealOrder: o}
	}
	return g
}

func orders(t *testing.T, tr *Tree, ids ...string) []int {
	t.Helper()
	out := make([]int, len(ids))
	for i, id := range ids {
		f, ok := tr.Fact(id)
		require.True(t, ok, id)
		out[i] = f.RevealOrder
	}
	return out
}

func TestSetRevealOrder_Scenarios(t *testing.T) {
	t.Run("reveal into empty set", func(t *testing.T) {
		tr := Project(newModel(t, map[string]int{"a": -1, "b": -1, "c": -1}))
		require.NoError(t, tr.SetRevealOrder("b", 0))

		assert.Equal(t, []int{-1, 0, -1}, orders(t, tr, "a", "b", "c"))
		b, _ := tr.Fact("b")
		assert.True(t, b.NewlyRevealed)
		assert.Equal(t, []string{"b"}, tr.NewlyRevealed())
	})

	t.Run("unreveal compacts", func(t *testing.T) {
		tr := Project(newModel(t, map[string]int{"a": 0, "b": 1, "c": 2}))
		require.NoError(t, tr.SetRevealOrder("a", -1))
		assert.Equal(t, []int{-1, 0, 1}, orders(t, tr, "a", "b", "c"))
	})

	t.Run("move swaps by shifting", func(t *testing.T) {
		tr := Project(newModel(t, map[string]int{"a": 0, "b": 1}))
		require.NoError(t, tr.SetRevealOrder("b", 0))
		assert.Equal(t, []int{1, 0}, orders(t, tr, "a", "b"))
		b, _ := tr.Fact("b")
		assert.False(t, b.NewlyRevealed)
	})

	t.Run("reveal in the middle shifts later facts", func(t *testing.T) {
		tr := Project(newModel(t, map[string]int{"a": 0, "b": 1, "c": 2}))
		require.NoError(t, tr.SetRevealOrder("d", 1))
		assert.Equal(t, []int{0, 2, 3, 1}, orders(t, tr, "a", "b", "c", "d"))
	})

	t.Run("requests are clamped", func(t *testing.T) {
		tr := Project(newModel(t, map[string]int{"a": 0}))
		require.NoError(t, tr.SetRevealOrder("b", 50))
		require.NoError(t, tr.SetRevealOrder("c", -7))
		assert.Equal(t, []int{0, 1, -1}, orders(t, tr, "a", "b", "c"))
	})

	t.Run("damaged orders are repaired", func(t *testing.T) {
		tr := Project(newModel(t, map[string]int{"a": 0, "b": 0, "c": 5, "d": -4}))
		require.NoError(t, tr.SetRevealOrder("c", 0))
		assert.Equal(t, []int{1, 2, 0, -1}, orders(t, tr, "a", "b", "c", "d"))
	})
}

func TestSetRevealOrder_UnknownFact(t *testing.T) {
	tr := Project(newModel(t, nil))
	assert.ErrorIs(t, tr.SetRevealOrder("nope", 0), ErrUnknownPath)
}

func TestSetRevealOrder_RandomSequencesStayDense(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ids := []string{"a", "b", "c", "d"}
	tr := Project(newModel(t, nil))
	tr.Sort(ByRevealOrder)

	for i := 0; i < 500; i++ {
		id := ids[rng.Intn(len(ids))]
		var err error
		switch rng.Intn(4) {
		case 0:
			err = tr.ToggleRevealed(id)
		case 1:
			err = tr.ToggleNewlyRevealed(id)
		default:
			err = tr.SetRevealOrder(id, rng.Intn(7)-2)
		}
		require.NoError(t, err, "step %d", i)
		require.NoError(t, tr.CheckInvariants(), "step %d", i)
	}

	g := tr.Flatten()
	assert.Empty(t, g.Check())
}

func TestToggleRevealed(t *testing.T) {
	tr := Project(newModel(t, map[string]int{"a": 0, "b": 1}))

	require.NoError(t, tr.ToggleRevealed("d"))
	assert.Equal(t, []int{0, 1, 2}, orders(t, tr, "a", "b", "d"))
	assert.Equal(t, []string{"d"}, tr.NewlyRevealed())

	require.NoError(t, tr.ToggleRevealed("d"))
	d, _ := tr.Fact("d")
	assert.Equal(t, gamesave.NotRevealed, d.RevealOrder)
	assert.False(t, d.NewlyRevealed)
	assert.Empty(t, tr.NewlyRevealed())
}

func TestToggleNewlyRevealedAndRead(t *testing.T) {
	tr := Project(newModel(t, map[string]int{"a": 0}))

	require.NoError(t, tr.ToggleNewlyRevealed("a"))
	assert.Equal(t, []string{"a"}, tr.NewlyRevealed())
	n, _ := tr.Find(KeyNewlyRevealedFactIDs)
	assert.Equal(t, "[a]", n.Entry().Label())

	require.NoError(t, tr.ToggleNewlyRevealed("a"))
	assert.Empty(t, tr.NewlyRevealed())

	require.NoError(t, tr.ToggleRead("a"))
	a, _ := tr.Fact("a")
	assert.True(t, a.Read)
	assert.ErrorIs(t, tr.ToggleRead("zz"), ErrUnknownPath)
}

func TestProjectFlatten_RoundTrip(t *testing.T) {
	g := newModel(t, map[string]int{"a": 1, "c": 0})
	g.LoopCount = 9
	g.Conditions["MET_SOLANUM"] = tristate.False
	g.Conditions["EXTRA_CONDITION"] = tristate.True
	g.LogFacts["zz"] = gamesave.LogFact{ID: "zz", RevealOrder: -1}
	g.KnownSignals[enums.RadioTower] = true
	g.KnownFrequencies[enums.FrequencyRadio] = true
	g.LastDeathType = enums.DeathSupernova
	g.ShownPopups = enums.PopupsReducedFrights
	g.SecondsRemainingOnWarp = 3.5
	g.PS5AvailableShipLogCards = []string{"card"}
	g.Extra = []gamesave.RawField{{Key: "future", Raw: []byte(`[1]`)}}

	tr := Project(g)
	assert.Empty(t, gamesave.Diff(g, tr.Flatten()))

	// edits do not reach the source model
	n, ok := tr.Find("loopCount")
	require.True(t, ok)
	require.NoError(t, n.Entry().Set(10))
	assert.Equal(t, 9, g.LoopCount)
	assert.Equal(t, 10, tr.Flatten().LoopCount)
}

func TestProject_Layout(t *testing.T) {
	tr := Project(newModel(t, nil))

	rows := tr.Visible()
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Node.Name()
		assert.Equal(t, 0, r.Depth)
	}
	assert.Equal(t, []string{
		"loopCount", "knownFrequencies", "knownSignals", "dictConditions",
		"shipLogFactSaves", "newlyRevealedFactIDs", "lastDeathType",
		"burnedMarshmallowEaten", "fullTimeloops", "warpedToTheEye",
		"perfectMarshmallowsEaten", "secondsRemainingOnWarp",
		"loopCountOnParadox", "shownPopups", "version",
		"ps5Activity_canResumeExpedition", "ps5Activity_availableShipLogCards",
		"didRunInitGammaSetting",
	}, names)

	sig, ok := tr.Find("knownSignals/RadioTower")
	require.True(t, ok)
	assert.Equal(t, "Deep Space Radio", sig.Title())
	assert.Equal(t, "Deep Space Radio: false", sig.Label())

	fact, ok := tr.Find("shipLogFactSaves/a")
	require.True(t, ok)
	assert.Equal(t, "first", fact.Description())
	assert.True(t, tr.IsFactNode(fact))
	assert.True(t, tr.IsFactNode(tr.FactGroup()))

	base, _ := tr.Find("knownFrequencies/_")
	assert.False(t, base.Entry().Editable())
	cards, _ := tr.Find("ps5Activity_availableShipLogCards")
	assert.False(t, cards.Entry().Editable())
}

func TestExpandCollapse(t *testing.T) {
	tr := Project(newModel(t, nil))
	before := len(tr.Visible())

	require.NoError(t, tr.SetExpanded(KeyShipLogFactSaves, true))
	rows := tr.Visible()
	assert.Len(t, rows, before+4)
	assert.Equal(t, "a", rows[5].Node.Name())
	assert.Equal(t, 1, rows[5].Depth)

	open, err := tr.ToggleExpanded(KeyShipLogFactSaves)
	require.NoError(t, err)
	assert.False(t, open)
	assert.Len(t, tr.Visible(), before)

	assert.ErrorIs(t, tr.SetExpanded("loopCount", true), ErrUnknownPath)
	assert.ErrorIs(t, tr.SetExpanded("missing", true), ErrUnknownPath)
}

func TestSort(t *testing.T) {
	tr := Project(newModel(t, map[string]int{"d": 0, "b": 1}))
	childNames := func() []string {
		var out []string
		for _, c := range tr.FactGroup().Children() {
			out = append(out, c.Name())
		}
		return out
	}

	assert.Equal(t, ByCatalog, tr.SortMode())
	assert.True(t, tr.Sort(ByRevealOrder))
	assert.Equal(t, []string{"a", "c", "d", "b"}, childNames())
	assert.False(t, tr.Sort(ByRevealOrder))
	assert.Equal(t, []string{"a", "c", "d", "b"}, childNames())

	require.NoError(t, tr.SetRevealOrder("a", 0))
	assert.Equal(t, []string{"c", "a", "d", "b"}, childNames())

	assert.True(t, tr.Sort(ByAlphabeticalID))
	assert.Equal(t, []string{"a", "b", "c", "d"}, childNames())
	assert.False(t, tr.Sort(ByAlphabeticalID))
	assert.Equal(t, ByRevealOrder, tr.SortMode().Other())
}

func TestParseSortMode(t *testing.T) {
	for _, m := range []SortMode{ByCatalog, ByRevealOrder, ByAlphabeticalID} {
		got, err := ParseSortMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseSortMode("sideways")
	assert.Error(t, err)
}

func TestLogFactEntry_DelegatesToTree(t *testing.T) {
	tr := Project(newModel(t, map[string]int{"a": 0, "b": 1}))
	n, ok := tr.Find("shipLogFactSaves/c")
	require.True(t, ok)

	require.NoError(t, n.Entry().Commit("0"))
	assert.Equal(t, []int{1, 2, 0}, orders(t, tr, "a", "b", "c"))
	assert.Equal(t, "c: #0 new", n.Label())

	err := n.Entry().Set(9)
	assert.ErrorIs(t, err, entry.ErrValidation)
	assert.Equal(t, []int{1, 2, 0}, orders(t, tr, "a", "b", "c"))
}
