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
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/owsavetools/owsave/pkg/tristate"
	"github.com/owsavetools/owsave/services/saveedit/catalog"
	"github.com/owsavetools/owsave/services/saveedit/enums"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(
		[]string{"LAUNCH_CODES_GIVEN", "MET_SOLANUM", "KNOWS_MEDITATION"},
		[]catalog.Fact{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		nil, nil,
	)
	require.NoError(t, err)
	return cat
}

// document returns a fresh model serialized, with edits applied through
// sjson so tests can start from a known-good document.
func document(t *testing.T, cat *catalog.Catalog, edits map[string]any) []byte {
	t.Helper()
	data, err := New(cat).Serialize()
	require.NoError(t, err)
	for path, v := range edits {
		data, err = sjson.SetBytes(data, path, v)
		require.NoError(t, err)
	}
	return data
}

func TestNew_Defaults(t *testing.T) {
	g := New(testCatalog(t))

	assert.Equal(t, 1, g.LoopCount)
	assert.True(t, g.KnownFrequencies[enums.FrequencyBase])
	for f := 1; f < enums.FrequencyCount; f++ {
		assert.False(t, g.KnownFrequencies[f])
	}
	assert.Len(t, g.KnownSignals, len(enums.Signals()))
	assert.Equal(t, tristate.Unknown, g.Conditions["MET_SOLANUM"])
	assert.Equal(t, LogFact{ID: "b", RevealOrder: NotRevealed}, g.LogFacts["b"])
	assert.Equal(t, DefaultVersion, g.Version)
	assert.Empty(t, g.Check())
}

func TestNew_NilCatalogUsesDefault(t *testing.T) {
	g := New(nil)
	assert.True(t, g.Catalog().HasFact("TH_VILLAGE_X1"))
	assert.Contains(t, g.LogFacts, "TH_VILLAGE_X1")
}

func TestRoundTrip(t *testing.T) {
	cat := testCatalog(t)
	g := New(cat)
	g.LoopCount = 42
	g.KnownFrequencies[enums.FrequencyRadio] = true
	g.KnownSignals[enums.RadioTower] = true
	g.Conditions["LAUNCH_CODES_GIVEN"] = tristate.True
	g.Conditions["MET_SOLANUM"] = tristate.False
	g.LogFacts["a"] = LogFact{ID: "a", RevealOrder: 1, Read: true}
	g.LogFacts["c"] = LogFact{ID: "c", RevealOrder: 0, NewlyRevealed: true}
	g.NewlyRevealedFactIDs = []string{"c"}
	g.LastDeathType = enums.DeathSupernova
	g.ShownPopups = enums.PopupsResetInputs | enums.PopupsNewExhibit
	g.SecondsRemainingOnWarp = 12.5
	g.Version = "1.1.14.768"
	g.PS5AvailableShipLogCards = []string{"x", "y"}

	data, err := g.Serialize()
	require.NoError(t, err)

	loaded, err := Load(data, cat)
	require.NoError(t, err)
	assert.Empty(t, Diff(g, loaded))
	assert.True(t, Equal(g, loaded))

	again, err := loaded.Serialize()
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestLoad_MissingConditionDefaultsToUnknown(t *testing.T) {
	cat := testCatalog(t)
	data := document(t, cat, map[string]any{
		"dictConditions": map[string]bool{"LAUNCH_CODES_GIVEN": true},
	})

	g, err := Load(data, cat)
	require.NoError(t, err)
	assert.Equal(t, tristate.True, g.Conditions["LAUNCH_CODES_GIVEN"])
	assert.Equal(t, tristate.Unknown, g.Conditions["MET_SOLANUM"])

	out, err := g.Serialize()
	require.NoError(t, err)
	conds := gjson.GetBytes(out, "dictConditions")
	assert.True(t, conds.Get("LAUNCH_CODES_GIVEN").Bool())
	assert.False(t, conds.Get("MET_SOLANUM").Exists())
}

func TestLoad_NullConditionIsUnknown(t *testing.T) {
	cat := testCatalog(t)
	data := document(t, cat, map[string]any{"dictConditions.MET_SOLANUM": nil})

	g, err := Load(data, cat)
	require.NoError(t, err)
	assert.True(t, g.Conditions["MET_SOLANUM"].IsUnknown())
}

func TestLoad_Malformed(t *testing.T) {
	cat := testCatalog(t)
	good := document(t, cat, nil)

	tests := []struct {
		name string
		data []byte
		key  string
	}{
		{"not json", []byte("{loopCount"), ""},
		{"not an object", []byte("[1, 2]"), ""},
		{"missing key", mustDelete(t, good, "version"), "version"},
		{"wrong type", mustSet(t, good, "loopCount", "many"), "loopCount"},
		{"too many frequencies", mustSet(t, good, "knownFrequencies", make([]bool, 8)), "knownFrequencies"},
		{"signal key not a number", mustSet(t, good, "knownSignals.abc", true), "knownSignals.abc"},
		{"fact missing subkey", mustDelete(t, good, "shipLogFactSaves.a.read"), "shipLogFactSaves.a.read"},
		{"condition not bool", mustSet(t, good, "dictConditions.MET_SOLANUM", 3), "dictConditions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Load(tt.data, cat)
			assert.Nil(t, g)
			require.ErrorIs(t, err, ErrMalformedInput)

			var me *MalformedError
			require.True(t, errors.As(err, &me))
			assert.Equal(t, tt.key, me.Key)
		})
	}
}

func TestLoad_InvalidEnum(t *testing.T) {
	cat := testCatalog(t)
	good := document(t, cat, nil)

	tests := []struct {
		name string
		data []byte
	}{
		{"death type", mustSet(t, good, "lastDeathType", 99)},
		{"popup bits", mustSet(t, good, "shownPopups", 8)},
		{"signal code", mustSet(t, good, "knownSignals.99", true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Load(tt.data, cat)
			assert.Nil(t, g)
			assert.ErrorIs(t, err, enums.ErrInvalidEnumValue)
			assert.NotErrorIs(t, err, ErrMalformedInput)
		})
	}
}

func TestLoad_PreservesUnknownKeys(t *testing.T) {
	cat := testCatalog(t)
	data := document(t, cat, nil)
	data = mustSetRaw(t, data, "futureField", `{"nested": [1, 2, 3]}`)
	data = mustSetRaw(t, data, "with\\.dot", `"kept"`)

	g, err := Load(data, cat)
	require.NoError(t, err)
	require.Len(t, g.Extra, 2)
	assert.Equal(t, "futureField", g.Extra[0].Key)
	assert.Equal(t, "with.dot", g.Extra[1].Key)
	assert.Len(t, g.Warnings(), 2)

	out, err := g.Serialize()
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0, 3.0}, gjson.GetBytes(out, "futureField.nested").Value())

	var top map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &top))
	assert.JSONEq(t, `"kept"`, string(top["with.dot"]))
}

func TestSerialize_EmptyUnknownKey(t *testing.T) {
	cat := testCatalog(t)
	data := document(t, cat, nil)
	data = append([]byte(`{"":{"x":1},`), data[1:]...)

	g, err := Load(data, cat)
	require.NoError(t, err)
	require.Len(t, g.Extra, 1)
	assert.Equal(t, "", g.Extra[0].Key)

	out, err := g.Serialize()
	require.NoError(t, err)
	var top map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &top))
	assert.JSONEq(t, `{"x":1}`, string(top[""]))

	again, err := Load(out, cat)
	require.NoError(t, err)
	assert.True(t, Equal(g, again))
}

func TestSerialize_RejectsNonFiniteFloat(t *testing.T) {
	for _, f := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		g := New(testCatalog(t))
		g.SecondsRemainingOnWarp = f
		_, err := g.Serialize()
		assert.Error(t, err, "%v", f)
	}
}

func TestLoad_UnknownConditionAndFactKept(t *testing.T) {
	cat := testCatalog(t)
	data := document(t, cat, map[string]any{
		"dictConditions.NEW_CONDITION": true,
		"shipLogFactSaves.zz":          map[string]any{"id": "zz", "revealOrder": -1, "read": false, "newlyRevealed": false},
	})

	g, err := Load(data, cat)
	require.NoError(t, err)
	assert.Equal(t, tristate.True, g.Conditions["NEW_CONDITION"])
	assert.Contains(t, g.LogFacts, "zz")
	assert.Equal(t, []string{"a", "b", "c", "zz"}, g.FactIDs())
	assert.Len(t, g.Warnings(), 2)

	out, err := g.Serialize()
	require.NoError(t, err)
	assert.True(t, gjson.GetBytes(out, "shipLogFactSaves.zz").Exists())
	assert.True(t, gjson.GetBytes(out, "dictConditions.NEW_CONDITION").Bool())
}

func TestLoad_DefaultCatalogKeepsUnlistedFacts(t *testing.T) {
	cat := catalog.Default()
	require.False(t, cat.HasFact("DLC_UNLISTED_FACT"))
	data := document(t, cat, map[string]any{
		"shipLogFactSaves.DLC_UNLISTED_FACT": map[string]any{"id": "DLC_UNLISTED_FACT", "revealOrder": 0, "read": true, "newlyRevealed": false},
	})

	g, err := Load(data, cat)
	require.NoError(t, err)
	assert.Equal(t, 0, g.LogFacts["DLC_UNLISTED_FACT"].RevealOrder)
	require.Len(t, g.Warnings(), 1)
	assert.Contains(t, g.Warnings()[0], "DLC_UNLISTED_FACT")

	out, err := g.Serialize()
	require.NoError(t, err)
	assert.True(t, gjson.GetBytes(out, "shipLogFactSaves.DLC_UNLISTED_FACT.read").Bool())
}

func TestSerialize_Order(t *testing.T) {
	g := New(testCatalog(t))
	data, err := g.Serialize()
	require.NoError(t, err)

	var keys []string
	gjson.ParseBytes(data).ForEach(func(k, _ gjson.Result) bool {
		keys = append(keys, k.String())
		return true
	})
	assert.Equal(t, SchemaKeys, keys)

	var codes []int64
	gjson.GetBytes(data, "knownSignals").ForEach(func(k, _ gjson.Result) bool {
		codes = append(codes, k.Int())
		return true
	})
	require.Len(t, codes, len(enums.Signals()))
	for i := 1; i < len(codes); i++ {
		assert.Less(t, codes[i-1], codes[i])
	}

	assert.Contains(t, string(data), `"secondsRemainingOnWarp":0.0`)
	assert.Equal(t, "{}", gjson.GetBytes(data, "dictConditions").Raw)
}

func TestLoad_FrequenciesShortListKeepsDefaults(t *testing.T) {
	cat := testCatalog(t)
	data := document(t, cat, map[string]any{"knownFrequencies": []bool{true, true}})

	g, err := Load(data, cat)
	require.NoError(t, err)
	assert.True(t, g.KnownFrequencies[enums.FrequencyTraveler])
	assert.False(t, g.KnownFrequencies[enums.FrequencyRadio])
}

func TestCheck(t *testing.T) {
	cat := testCatalog(t)

	tests := []struct {
		name   string
		mutate func(g *GameSave)
		want   string
	}{
		{"loop count", func(g *GameSave) { g.LoopCount = 0 }, "LoopCount"},
		{"negative timeloops", func(g *GameSave) { g.FullTimeloops = -1 }, "FullTimeloops"},
		{"order below -1", func(g *GameSave) {
			g.LogFacts["a"] = LogFact{ID: "a", RevealOrder: -3}
		}, "reveal order -3"},
		{"duplicate order", func(g *GameSave) {
			g.LogFacts["a"] = LogFact{ID: "a", RevealOrder: 0}
			g.LogFacts["b"] = LogFact{ID: "b", RevealOrder: 0}
		}, "shared by"},
		{"gap", func(g *GameSave) {
			g.LogFacts["a"] = LogFact{ID: "a", RevealOrder: 0}
			g.LogFacts["b"] = LogFact{ID: "b", RevealOrder: 2}
		}, "gap before 2"},
		{"listed but not flagged", func(g *GameSave) {
			g.NewlyRevealedFactIDs = []string{"a"}
		}, "its flag is not set"},
		{"flagged but not listed", func(g *GameSave) {
			g.LogFacts["a"] = LogFact{ID: "a", RevealOrder: 0, NewlyRevealed: true}
		}, "not listed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(cat)
			tt.mutate(g)
			problems := g.Check()
			require.NotEmpty(t, problems)
			assert.Contains(t, strings.Join(problems, "\n"), tt.want)
		})
	}
}

func TestClone_IsDeep(t *testing.T) {
	g := New(testCatalog(t))
	g.Extra = []RawField{{Key: "k", Raw: json.RawMessage(`1`)}}
	c := g.Clone()

	c.Conditions["MET_SOLANUM"] = tristate.True
	c.LogFacts["a"] = LogFact{ID: "a", RevealOrder: 0}
	c.NewlyRevealedFactIDs = append(c.NewlyRevealedFactIDs, "a")
	c.Extra[0].Raw[0] = '2'

	assert.Equal(t, tristate.Unknown, g.Conditions["MET_SOLANUM"])
	assert.Equal(t, NotRevealed, g.LogFacts["a"].RevealOrder)
	assert.Empty(t, g.NewlyRevealedFactIDs)
	assert.Equal(t, "1", string(g.Extra[0].Raw))
}

func TestDiff(t *testing.T) {
	a := New(testCatalog(t))
	b := a.Clone()
	b.LoopCount = 3
	b.Conditions["MET_SOLANUM"] = tristate.True
	b.LogFacts["c"] = LogFact{ID: "c", RevealOrder: 0, NewlyRevealed: true}

	changes := Diff(a, b)
	paths := make([]string, len(changes))
	for i, c := range changes {
		paths[i] = c.Path
	}
	assert.Equal(t, []string{
		"loopCount",
		"dictConditions/MET_SOLANUM",
		"shipLogFactSaves/c/revealOrder",
		"shipLogFactSaves/c/newlyRevealed",
	}, paths)
	assert.Equal(t, "unknown", changes[1].Old)
	assert.Equal(t, "true", changes[1].New)
	assert.False(t, Equal(a, b))
}

func TestDiff_ExtraIgnoresFormatting(t *testing.T) {
	a := New(testCatalog(t))
	b := a.Clone()
	a.Extra = []RawField{{Key: "k", Raw: json.RawMessage(`{ "x": 1 }`)}}
	b.Extra = []RawField{{Key: "k", Raw: json.RawMessage(`{"x":1}`)}}
	assert.True(t, Equal(a, b))
}

func TestPretty(t *testing.T) {
	g := New(testCatalog(t))
	g.LogFacts["b"] = LogFact{ID: "b", RevealOrder: 0, Read: true}

	var buf bytes.Buffer
	require.NoError(t, g.Pretty(&buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "GameSave(\n"))
	assert.Contains(t, out, " read\n")
	// unrevealed facts first, then b
	assert.Less(t, strings.Index(out, "    a:"), strings.Index(out, "    b:"))
	assert.Less(t, strings.Index(out, "    c:"), strings.Index(out, "    b:"))
}

func mustSet(t *testing.T, data []byte, path string, v any) []byte {
	t.Helper()
	out, err := sjson.SetBytes(data, path, v)
	require.NoError(t, err)
	return out
}

func mustSetRaw(t *testing.T, data []byte, path, raw string) []byte {
	t.Helper()
	out, err := sjson.SetRawBytes(data, path, []byte(raw))
	require.NoError(t, err)
	return out
}

func mustDelete(t *testing.T, data []byte, path string) []byte {
	t.Helper()
	out, err := sjson.DeleteBytes(data, path)
	require.NoError(t, err)
	return out
}
