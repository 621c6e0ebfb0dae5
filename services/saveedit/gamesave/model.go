// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package gamesave is the canonical in-memory model of a save file.
//
// # Description
//
// GameSave holds every field of the save document with its real type:
// enum codes are validated enums, conditions are tri-state values, and the
// fixed-key maps always contain every key the catalog defines. Load and
// Serialize convert between the model and the JSON document; Load followed
// by Serialize followed by Load yields an equal model.
//
// Top-level keys the model does not know are kept verbatim and written back
// on save, so a newer game version's fields survive an edit.
//
// # Thread Safety
//
// GameSave is a plain value holder and is not safe for concurrent mutation.
package gamesave

import (
	"encoding/json"
	"sort"

	"github.com/owsavetools/owsave/pkg/tristate"
	"github.com/owsavetools/owsave/services/saveedit/catalog"
	"github.com/owsavetools/owsave/services/saveedit/enums"
)

// NotRevealed is the reveal order of a fact the player has not seen.
const NotRevealed = -1

// DefaultVersion is the version string of a fresh model.
const DefaultVersion = "NONE"

// LogFact is one ship log fact record.
type LogFact struct {
	ID            string `json:"id"`
	RevealOrder   int    `json:"revealOrder"`
	Read          bool   `json:"read"`
	NewlyRevealed bool   `json:"newlyRevealed"`
}

// Revealed reports whether the fact has a reveal order.
func (f LogFact) Revealed() bool { return f.RevealOrder >= 0 }

// RawField is a top-level key the model does not interpret.
type RawField struct {
	Key string
	Raw json.RawMessage
}

// GameSave is the typed save-state record.
type GameSave struct {
	LoopCount                int `validate:"gte=1"`
	KnownFrequencies         [enums.FrequencyCount]bool
	KnownSignals             map[enums.Signal]bool
	Conditions               map[string]tristate.Value
	LogFacts                 map[string]LogFact
	NewlyRevealedFactIDs     []string
	LastDeathType            enums.DeathType
	BurnedMarshmallowEaten   int
	FullTimeloops            int `validate:"gte=0"`
	PerfectMarshmallowsEaten int `validate:"gte=0"`
	WarpedToTheEye           bool
	SecondsRemainingOnWarp   float64
	LoopCountOnParadox       int
	ShownPopups              enums.StartupPopups
	Version                  string
	PS5CanResumeExpedition   bool
	PS5AvailableShipLogCards []string
	DidRunInitGammaSetting   bool

	// Extra holds unknown top-level keys in document order.
	Extra []RawField

	catalog  *catalog.Catalog
	warnings []string
}

// New returns a model with every documented default. A nil catalog means
// the embedded default catalog.
func New(cat *catalog.Catalog) *GameSave {
	if cat == nil {
		cat = catalog.Default()
	}

	g := &GameSave{
		LoopCount:                1,
		KnownSignals:             make(map[enums.Signal]bool),
		Conditions:               make(map[string]tristate.Value),
		LogFacts:                 make(map[string]LogFact),
		NewlyRevealedFactIDs:     []string{},
		LastDeathType:            enums.DeathDefault,
		ShownPopups:              enums.PopupsNone,
		Version:                  DefaultVersion,
		PS5AvailableShipLogCards: []string{},
		catalog:                  cat,
	}
	g.KnownFrequencies[enums.FrequencyBase] = true

	for _, s := range enums.Signals() {
		g.KnownSignals[s] = false
	}
	for _, name := range cat.Conditions() {
		g.Conditions[name] = tristate.Unknown
	}
	for _, id := range cat.FactIDs() {
		g.LogFacts[id] = LogFact{ID: id, RevealOrder: NotRevealed}
	}
	return g
}

// Catalog returns the catalog the model was built with.
func (g *GameSave) Catalog() *catalog.Catalog { return g.catalog }

// Warnings returns the non-fatal problems found while loading.
func (g *GameSave) Warnings() []string {
	out := make([]string, len(g.warnings))
	copy(out, g.warnings)
	return out
}

func (g *GameSave) warn(msg string) { g.warnings = append(g.warnings, msg) }

// ConditionNames returns catalog conditions in catalog order followed by
// any extra names from the file, sorted.
func (g *GameSave) ConditionNames() []string {
	names := g.catalog.Conditions()
	var extra []string
	for name := range g.Conditions {
		if !g.catalog.HasCondition(name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// FactIDs returns catalog facts in catalog order followed by any extra IDs
// from the file, sorted.
func (g *GameSave) FactIDs() []string {
	ids := g.catalog.FactIDs()
	var extra []string
	for id := range g.LogFacts {
		if !g.catalog.HasFact(id) {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	return append(ids, extra...)
}

// Clone returns a deep copy. Warnings are not copied.
func (g *GameSave) Clone() *GameSave {
	c := *g
	c.warnings = nil

	c.KnownSignals = make(map[enums.Signal]bool, len(g.KnownSignals))
	for k, v := range g.KnownSignals {
		c.KnownSignals[k] = v
	}
	c.Conditions = make(map[string]tristate.Value, len(g.Conditions))
	for k, v := range g.Conditions {
		c.Conditions[k] = v
	}
	c.LogFacts = make(map[string]LogFact, len(g.LogFacts))
	for k, v := range g.LogFacts {
		c.LogFacts[k] = v
	}
	c.NewlyRevealedFactIDs = append([]string{}, g.NewlyRevealedFactIDs...)
	c.PS5AvailableShipLogCards = append([]string{}, g.PS5AvailableShipLogCards...)

	c.Extra = make([]RawField, len(g.Extra))
	for i, f := range g.Extra {
		c.Extra[i] = RawField{Key: f.Key, Raw: append(json.RawMessage{}, f.Raw...)}
	}
	return &c
}
