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
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/owsavetools/owsave/pkg/tristate"
	"github.com/owsavetools/owsave/services/saveedit/catalog"
	"github.com/owsavetools/owsave/services/saveedit/enums"
)

// JSON keys of the save document, in the order Serialize writes them.
const (
	keyLoopCount                = "loopCount"
	keyKnownFrequencies         = "knownFrequencies"
	keyKnownSignals             = "knownSignals"
	keyDictConditions           = "dictConditions"
	keyShipLogFactSaves         = "shipLogFactSaves"
	keyNewlyRevealedFactIDs     = "newlyRevealedFactIDs"
	keyLastDeathType            = "lastDeathType"
	keyBurnedMarshmallowEaten   = "burnedMarshmallowEaten"
	keyFullTimeloops            = "fullTimeloops"
	keyPerfectMarshmallowsEaten = "perfectMarshmallowsEaten"
	keyWarpedToTheEye           = "warpedToTheEye"
	keySecondsRemainingOnWarp   = "secondsRemainingOnWarp"
	keyLoopCountOnParadox       = "loopCountOnParadox"
	keyShownPopups              = "shownPopups"
	keyVersion                  = "version"
	keyPS5CanResumeExpedition   = "ps5Activity_canResumeExpedition"
	keyPS5AvailableShipLogCards = "ps5Activity_availableShipLogCards"
	keyDidRunInitGammaSetting   = "didRunInitGammaSetting"
)

// SchemaKeys lists every required top-level key in serialization order.
var SchemaKeys = []string{
	keyLoopCount, keyKnownFrequencies, keyKnownSignals, keyDictConditions,
	keyShipLogFactSaves, keyNewlyRevealedFactIDs, keyLastDeathType,
	keyBurnedMarshmallowEaten, keyFullTimeloops, keyPerfectMarshmallowsEaten,
	keyWarpedToTheEye, keySecondsRemainingOnWarp, keyLoopCountOnParadox,
	keyShownPopups, keyVersion, keyPS5CanResumeExpedition,
	keyPS5AvailableShipLogCards, keyDidRunInitGammaSetting,
}

func isSchemaKey(k string) bool {
	for _, s := range SchemaKeys {
		if s == k {
			return true
		}
	}
	return false
}

// wireFact is a fact record as stored; pointers detect missing keys.
type wireFact struct {
	ID            *string `json:"id"`
	RevealOrder   *int    `json:"revealOrder"`
	Read          *bool   `json:"read"`
	NewlyRevealed *bool   `json:"newlyRevealed"`
}

// Load parses a save document into a model.
//
// # Description
//
// Every fixed-key map starts from its defaults and is then overwritten
// with the values present in data. Unknown top-level keys are kept
// verbatim in Extra; unknown condition names and fact IDs are kept in
// their maps. Each of those is recorded as a warning.
//
// # Inputs
//
//   - data: the JSON document.
//   - cat: the schema catalog; nil means the embedded default.
//
// # Outputs
//
//   - *GameSave: the loaded model.
//   - error: ErrMalformedInput (as *MalformedError) for parse failures,
//     missing keys and wrongly typed values; enums.ErrInvalidEnumValue for
//     stored codes without a defined member. No partial model is returned.
func Load(data []byte, cat *catalog.Catalog) (*GameSave, error) {
	if !gjson.ValidBytes(data) {
		return nil, malformed("", errors.New("invalid JSON"))
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, malformed("", errors.New("top-level value is not an object"))
	}

	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, malformed("", err)
	}
	for _, k := range SchemaKeys {
		if _, ok := raw[k]; !ok {
			return nil, missing(k)
		}
	}

	g := New(cat)
	decoders := []func(map[string]json.RawMessage) error{
		g.decodeScalars,
		g.decodeFrequencies,
		g.decodeSignals,
		g.decodeConditions,
		g.decodeFacts,
		g.decodeEnums,
	}
	for _, decode := range decoders {
		if err := decode(raw); err != nil {
			return nil, err
		}
	}

	doc.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if !isSchemaKey(k) {
			g.Extra = append(g.Extra, RawField{Key: k, Raw: json.RawMessage(value.Raw)})
			g.warn(fmt.Sprintf("unknown top-level key %q preserved", k))
		}
		return true
	})

	return g, nil
}

func decodeKey(raw map[string]json.RawMessage, key string, dst any) error {
	if err := json.Unmarshal(raw[key], dst); err != nil {
		return malformed(key, err)
	}
	return nil
}

func (g *GameSave) decodeScalars(raw map[string]json.RawMessage) error {
	fields := []struct {
		key string
		dst any
	}{
		{keyLoopCount, &g.LoopCount},
		{keyNewlyRevealedFactIDs, &g.NewlyRevealedFactIDs},
		{keyBurnedMarshmallowEaten, &g.BurnedMarshmallowEaten},
		{keyFullTimeloops, &g.FullTimeloops},
		{keyPerfectMarshmallowsEaten, &g.PerfectMarshmallowsEaten},
		{keyWarpedToTheEye, &g.WarpedToTheEye},
		{keySecondsRemainingOnWarp, &g.SecondsRemainingOnWarp},
		{keyLoopCountOnParadox, &g.LoopCountOnParadox},
		{keyVersion, &g.Version},
		{keyPS5CanResumeExpedition, &g.PS5CanResumeExpedition},
		{keyPS5AvailableShipLogCards, &g.PS5AvailableShipLogCards},
		{keyDidRunInitGammaSetting, &g.DidRunInitGammaSetting},
	}
	for _, f := range fields {
		if err := decodeKey(raw, f.key, f.dst); err != nil {
			return err
		}
	}
	if g.NewlyRevealedFactIDs == nil {
		g.NewlyRevealedFactIDs = []string{}
	}
	if g.PS5AvailableShipLogCards == nil {
		g.PS5AvailableShipLogCards = []string{}
	}
	return nil
}

func (g *GameSave) decodeFrequencies(raw map[string]json.RawMessage) error {
	var known []bool
	if err := decodeKey(raw, keyKnownFrequencies, &known); err != nil {
		return err
	}
	if len(known) > enums.FrequencyCount {
		return malformed(keyKnownFrequencies,
			fmt.Errorf("%d entries, at most %d frequencies exist", len(known), enums.FrequencyCount))
	}
	for i, v := range known {
		g.KnownFrequencies[i] = v
	}
	return nil
}

func (g *GameSave) decodeSignals(raw map[string]json.RawMessage) error {
	var known map[string]bool
	if err := decodeKey(raw, keyKnownSignals, &known); err != nil {
		return err
	}
	for k, v := range known {
		code, err := strconv.Atoi(k)
		if err != nil {
			return malformed(keyKnownSignals+"."+k, err)
		}
		sig, err := enums.ParseSignal(code)
		if err != nil {
			return fmt.Errorf("%s: %w", keyKnownSignals, err)
		}
		g.KnownSignals[sig] = v
	}
	return nil
}

func (g *GameSave) decodeConditions(raw map[string]json.RawMessage) error {
	var conds map[string]tristate.Value
	if err := decodeKey(raw, keyDictConditions, &conds); err != nil {
		return err
	}
	for name, v := range conds {
		if !g.catalog.HasCondition(name) {
			g.warn(fmt.Sprintf("unknown condition %q kept", name))
		}
		g.Conditions[name] = v
	}
	return nil
}

func (g *GameSave) decodeFacts(raw map[string]json.RawMessage) error {
	var facts map[string]wireFact
	if err := decodeKey(raw, keyShipLogFactSaves, &facts); err != nil {
		return err
	}
	for k, w := range facts {
		path := keyShipLogFactSaves + "." + k
		switch {
		case w.ID == nil:
			return missing(path + ".id")
		case w.RevealOrder == nil:
			return missing(path + ".revealOrder")
		case w.Read == nil:
			return missing(path + ".read")
		case w.NewlyRevealed == nil:
			return missing(path + ".newlyRevealed")
		}
		if *w.ID != k {
			g.warn(fmt.Sprintf("fact %q stored under key %q", *w.ID, k))
		}
		if !g.catalog.HasFact(k) {
			g.warn(fmt.Sprintf("unknown fact %q kept", k))
		}
		g.LogFacts[k] = LogFact{
			ID:            *w.ID,
			RevealOrder:   *w.RevealOrder,
			Read:          *w.Read,
			NewlyRevealed: *w.NewlyRevealed,
		}
	}
	return nil
}

func (g *GameSave) decodeEnums(raw map[string]json.RawMessage) error {
	var death, popups int
	if err := decodeKey(raw, keyLastDeathType, &death); err != nil {
		return err
	}
	if err := decodeKey(raw, keyShownPopups, &popups); err != nil {
		return err
	}

	d, err := enums.ParseDeathType(death)
	if err != nil {
		return fmt.Errorf("%s: %w", keyLastDeathType, err)
	}
	p, err := enums.ParseStartupPopups(popups)
	if err != nil {
		return fmt.Errorf("%s: %w", keyShownPopups, err)
	}
	g.LastDeathType = d
	g.ShownPopups = p
	return nil
}

// Serialize writes the model as a save document.
//
// # Description
//
// Keys are written in SchemaKeys order, followed by the preserved unknown
// keys. knownSignals is written in increasing code order. Every fixed-key
// map is written in full except dictConditions, which omits unknown
// conditions.
func (g *GameSave) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	w := objectWriter{buf: &buf}

	w.open()
	w.value(keyLoopCount, g.LoopCount)
	w.value(keyKnownFrequencies, g.KnownFrequencies[:])
	w.raw(keyKnownSignals, g.encodeSignals())
	w.raw(keyDictConditions, g.encodeConditions())
	w.raw(keyShipLogFactSaves, g.encodeFacts())
	w.value(keyNewlyRevealedFactIDs, nonNil(g.NewlyRevealedFactIDs))
	w.value(keyLastDeathType, int(g.LastDeathType))
	w.value(keyBurnedMarshmallowEaten, g.BurnedMarshmallowEaten)
	w.value(keyFullTimeloops, g.FullTimeloops)
	w.value(keyPerfectMarshmallowsEaten, g.PerfectMarshmallowsEaten)
	w.value(keyWarpedToTheEye, g.WarpedToTheEye)
	seconds, err := formatFloat(g.SecondsRemainingOnWarp)
	if err != nil {
		return nil, fmt.Errorf("serialize save: key %q: %w", keySecondsRemainingOnWarp, err)
	}
	w.raw(keySecondsRemainingOnWarp, seconds)
	w.value(keyLoopCountOnParadox, g.LoopCountOnParadox)
	w.value(keyShownPopups, int(g.ShownPopups))
	w.value(keyVersion, g.Version)
	w.value(keyPS5CanResumeExpedition, g.PS5CanResumeExpedition)
	w.value(keyPS5AvailableShipLogCards, nonNil(g.PS5AvailableShipLogCards))
	w.value(keyDidRunInitGammaSetting, g.DidRunInitGammaSetting)
	for _, f := range g.Extra {
		w.raw(f.Key, f.Raw)
	}
	w.close()

	if w.err != nil {
		return nil, fmt.Errorf("serialize save: %w", w.err)
	}
	return buf.Bytes(), nil
}

func (g *GameSave) encodeSignals() []byte {
	var buf bytes.Buffer
	w := objectWriter{buf: &buf}
	w.open()
	for _, s := range enums.Signals() {
		w.value(strconv.Itoa(int(s)), g.KnownSignals[s])
	}
	w.close()
	return buf.Bytes()
}

func (g *GameSave) encodeConditions() []byte {
	var buf bytes.Buffer
	w := objectWriter{buf: &buf}
	w.open()
	for _, name := range g.ConditionNames() {
		v := g.Conditions[name]
		if v.IsUnknown() {
			continue
		}
		w.value(name, v)
	}
	w.close()
	return buf.Bytes()
}

func (g *GameSave) encodeFacts() []byte {
	var buf bytes.Buffer
	w := objectWriter{buf: &buf}
	w.open()
	for _, id := range g.FactIDs() {
		w.value(id, g.LogFacts[id])
	}
	w.close()
	return buf.Bytes()
}

// objectWriter emits a JSON object with keys in call order. The first
// marshal error sticks and later calls become no-ops.
type objectWriter struct {
	buf   *bytes.Buffer
	count int
	err   error
}

func (w *objectWriter) open()  { w.buf.WriteByte('{') }
func (w *objectWriter) close() { w.buf.WriteByte('}') }

func (w *objectWriter) key(k string) {
	if w.count > 0 {
		w.buf.WriteByte(',')
	}
	w.count++
	kb, _ := json.Marshal(k)
	w.buf.Write(kb)
	w.buf.WriteByte(':')
}

func (w *objectWriter) raw(k string, v []byte) {
	if w.err != nil {
		return
	}
	w.key(k)
	w.buf.Write(v)
}

func (w *objectWriter) value(k string, v any) {
	if w.err != nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		w.err = fmt.Errorf("key %q: %w", k, err)
		return
	}
	w.raw(k, b)
}

// formatFloat always writes a decimal point so the field stays a float
// for readers that care. JSON has no form for infinities or NaN.
func formatFloat(f float64) ([]byte, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("%v is not a finite number", f)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return []byte(s), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
