// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package catalog holds the static schema data of a save file: which
// persistent conditions and ship log facts exist, and display names for
// signals and frequencies.
//
// # Description
//
// A Catalog is immutable once built and is passed into the model and the
// tree explicitly. The default catalog is embedded; a user may point the
// editor at a YAML file with the same shape instead.
//
// The embedded catalog is a partial list: it names the common conditions
// and 49 ship log facts, fewer than the game defines. Conditions and facts
// found in a save but missing from the catalog are still loaded, kept on
// save and reported as warnings. A complete list can be supplied through
// the catalog setting in the config.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultYAML []byte

// ErrInvalidCatalog is returned when a catalog document fails validation.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Fact is one ship log fact known to the game.
type Fact struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
}

type document struct {
	Conditions  []string       `yaml:"conditions"`
	Facts       []Fact         `yaml:"facts"`
	Signals     map[int]string `yaml:"signals"`
	Frequencies map[int]string `yaml:"frequencies"`
}

// Catalog is the validated, read-only schema data.
type Catalog struct {
	conditions  []string
	facts       []Fact
	factIndex   map[string]int
	condIndex   map[string]int
	signals     map[int]string
	frequencies map[int]string
}

// Default returns the embedded catalog.
//
// The embedded document is part of the build; failing to parse it is a
// packaging defect, so Default panics in that case.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a catalog document.
//
// # Outputs
//
//   - *Catalog: the catalog, with conditions and facts in document order.
//   - error: wraps ErrInvalidCatalog on empty or duplicate names.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	return New(doc.Conditions, doc.Facts, doc.Signals, doc.Frequencies)
}

// New builds a catalog from explicit lists. Tests use it to build small
// catalogs.
func New(conditions []string, facts []Fact, signals, frequencies map[int]string) (*Catalog, error) {
	c := &Catalog{
		conditions:  make([]string, 0, len(conditions)),
		facts:       make([]Fact, 0, len(facts)),
		factIndex:   make(map[string]int, len(facts)),
		condIndex:   make(map[string]int, len(conditions)),
		signals:     make(map[int]string, len(signals)),
		frequencies: make(map[int]string, len(frequencies)),
	}

	for _, name := range conditions {
		if name == "" {
			return nil, fmt.Errorf("%w: empty condition name", ErrInvalidCatalog)
		}
		if _, dup := c.condIndex[name]; dup {
			return nil, fmt.Errorf("%w: duplicate condition %q", ErrInvalidCatalog, name)
		}
		c.condIndex[name] = len(c.conditions)
		c.conditions = append(c.conditions, name)
	}

	for _, f := range facts {
		if f.ID == "" {
			return nil, fmt.Errorf("%w: empty fact id", ErrInvalidCatalog)
		}
		if _, dup := c.factIndex[f.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate fact %q", ErrInvalidCatalog, f.ID)
		}
		c.factIndex[f.ID] = len(c.facts)
		c.facts = append(c.facts, f)
	}

	for k, v := range signals {
		c.signals[k] = v
	}
	for k, v := range frequencies {
		c.frequencies[k] = v
	}
	return c, nil
}

// Conditions returns the condition names in catalog order.
func (c *Catalog) Conditions() []string {
	out := make([]string, len(c.conditions))
	copy(out, c.conditions)
	return out
}

// FactIDs returns the fact IDs in catalog order.
func (c *Catalog) FactIDs() []string {
	out := make([]string, len(c.facts))
	for i, f := range c.facts {
		out[i] = f.ID
	}
	return out
}

// HasCondition reports whether name is a known condition.
func (c *Catalog) HasCondition(name string) bool {
	_, ok := c.condIndex[name]
	return ok
}

// HasFact reports whether id is a known fact.
func (c *Catalog) HasFact(id string) bool {
	_, ok := c.factIndex[id]
	return ok
}

// Description returns the fact description, or "" for unknown facts.
func (c *Catalog) Description(id string) string {
	if i, ok := c.factIndex[id]; ok {
		return c.facts[i].Description
	}
	return ""
}

// SignalName returns the display name for a signal code, if any.
func (c *Catalog) SignalName(code int) (string, bool) {
	name, ok := c.signals[code]
	return name, ok
}

// FrequencyName returns the display name for a frequency code, if any.
func (c *Catalog) FrequencyName(code int) (string, bool) {
	name, ok := c.frequencies[code]
	return name, ok
}
