// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tree projects a save model into an editable hierarchy of entries.
//
// # Description
//
// Project builds a Tree from a GameSave; Flatten builds a fresh GameSave
// back from the tree. Neither touches its input. Every node has a stable
// path such as "knownSignals/RadioTower" or "shipLogFactSaves/TH_VILLAGE_X1"
// so that the presentation layer can keep its selection across rebuilds.
//
// The tree also owns the log-fact reveal orders. Any change to one fact's
// order renumbers the others so that the revealed facts always carry the
// orders 0..k-1 (see SetRevealOrder).
//
// # Thread Safety
//
// Tree is not safe for concurrent use. The editor drives it from a single
// goroutine.
package tree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/owsavetools/owsave/pkg/tristate"
	"github.com/owsavetools/owsave/services/saveedit/catalog"
	"github.com/owsavetools/owsave/services/saveedit/entry"
	"github.com/owsavetools/owsave/services/saveedit/enums"
	"github.com/owsavetools/owsave/services/saveedit/gamesave"
)

// ErrUnknownPath is returned for a path or fact ID the tree does not hold.
var ErrUnknownPath = errors.New("unknown tree path")

// Group node keys.
const (
	KeyKnownFrequencies     = "knownFrequencies"
	KeyKnownSignals         = "knownSignals"
	KeyDictConditions       = "dictConditions"
	KeyShipLogFactSaves     = "shipLogFactSaves"
	KeyNewlyRevealedFactIDs = "newlyRevealedFactIDs"
)

// Node is one row of the tree: either a container with children or a leaf
// holding an entry.
type Node struct {
	name     string
	title    string
	path     string
	desc     string
	entry    *entry.Entry
	parent   *Node
	children []*Node
	expanded bool
}

// Name is the key of the node within its parent.
func (n *Node) Name() string { return n.name }

// Title is the display name; it differs from Name for signals and
// frequencies that have a catalog display name.
func (n *Node) Title() string { return n.title }

// Path is the slash separated key path from the root.
func (n *Node) Path() string { return n.path }

// Description is the catalog text of a fact node, "" otherwise.
func (n *Node) Description() string { return n.desc }

// Entry is the leaf value, nil for containers.
func (n *Node) Entry() *entry.Entry { return n.entry }

func (n *Node) Parent() *Node { return n.parent }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node { return append([]*Node{}, n.children...) }

func (n *Node) IsContainer() bool { return n.entry == nil }
func (n *Node) Expanded() bool    { return n.expanded }

// Label is the row text, computed from the entry so it always shows the
// current value.
func (n *Node) Label() string {
	if n.IsContainer() {
		return n.title
	}
	return n.title + ": " + n.entry.Label()
}

// Row is a visible node with its indentation depth.
type Row struct {
	Node  *Node
	Depth int
}

// Tree is the editable projection of one save model.
type Tree struct {
	root      *Node
	index     map[string]*Node
	factGroup *Node
	facts     map[string]*entry.Entry
	newly     []string
	mode      SortMode

	catalog *catalog.Catalog
	extra   []gamesave.RawField
}

// Project builds a tree from g. The tree holds copies; g is not modified
// and later edits do not reach it.
func Project(g *gamesave.GameSave) *Tree {
	t := &Tree{
		root:    &Node{expanded: true},
		index:   make(map[string]*Node),
		facts:   make(map[string]*entry.Entry),
		newly:   append([]string{}, g.NewlyRevealedFactIDs...),
		catalog: g.Catalog(),
	}
	for _, f := range g.Extra {
		t.extra = append(t.extra, gamesave.RawField{Key: f.Key, Raw: append([]byte{}, f.Raw...)})
	}

	for _, field := range fields {
		if field.group != nil {
			field.group(t, g)
			continue
		}
		t.leaf(t.root, field.key, field.key, field.project(g))
	}
	return t
}

// Flatten builds a fresh model from the current entry values.
func (t *Tree) Flatten() *gamesave.GameSave {
	g := gamesave.New(t.catalog)
	for _, field := range fields {
		n := t.index[field.key]
		if field.flatten != nil {
			field.flatten(g, n)
		}
	}
	g.NewlyRevealedFactIDs = append([]string{}, t.newly...)
	for _, f := range t.extra {
		g.Extra = append(g.Extra, gamesave.RawField{Key: f.Key, Raw: append([]byte{}, f.Raw...)})
	}
	return g
}

type fieldSpec struct {
	key     string
	project func(g *gamesave.GameSave) *entry.Entry
	flatten func(g *gamesave.GameSave, n *Node)
	group   func(t *Tree, g *gamesave.GameSave)
}

func intField(key string, get func(*gamesave.GameSave) *int, validators ...entry.Validator) fieldSpec {
	return fieldSpec{
		key:     key,
		project: func(g *gamesave.GameSave) *entry.Entry { return entry.NewInt(key, *get(g), validators...) },
		flatten: func(g *gamesave.GameSave, n *Node) { *get(g) = n.entry.Get().(int) },
	}
}

func boolField(key string, get func(*gamesave.GameSave) *bool) fieldSpec {
	return fieldSpec{
		key:     key,
		project: func(g *gamesave.GameSave) *entry.Entry { return entry.NewBool(key, *get(g)) },
		flatten: func(g *gamesave.GameSave, n *Node) { *get(g) = n.entry.Get().(bool) },
	}
}

// fields lists the root children in display order.
var fields = []fieldSpec{
	intField("loopCount", func(g *gamesave.GameSave) *int { return &g.LoopCount }, entry.AtLeast(1)),
	{key: KeyKnownFrequencies, group: projectFrequencies, flatten: flattenFrequencies},
	{key: KeyKnownSignals, group: projectSignals, flatten: flattenSignals},
	{key: KeyDictConditions, group: projectConditions, flatten: flattenConditions},
	{key: KeyShipLogFactSaves, group: projectFacts, flatten: flattenFacts},
	{
		key:     KeyNewlyRevealedFactIDs,
		project: func(g *gamesave.GameSave) *entry.Entry { return entry.NewList(KeyNewlyRevealedFactIDs, g.NewlyRevealedFactIDs) },
	},
	{
		key:     "lastDeathType",
		project: func(g *gamesave.GameSave) *entry.Entry { return entry.NewEnum("lastDeathType", g.LastDeathType) },
		flatten: func(g *gamesave.GameSave, n *Node) { g.LastDeathType = n.entry.Get().(enums.DeathType) },
	},
	intField("burnedMarshmallowEaten", func(g *gamesave.GameSave) *int { return &g.BurnedMarshmallowEaten }),
	intField("fullTimeloops", func(g *gamesave.GameSave) *int { return &g.FullTimeloops }, entry.NonNegative()),
	boolField("warpedToTheEye", func(g *gamesave.GameSave) *bool { return &g.WarpedToTheEye }),
	intField("perfectMarshmallowsEaten", func(g *gamesave.GameSave) *int { return &g.PerfectMarshmallowsEaten }, entry.NonNegative()),
	{
		key:     "secondsRemainingOnWarp",
		project: func(g *gamesave.GameSave) *entry.Entry { return entry.NewFloat("secondsRemainingOnWarp", g.SecondsRemainingOnWarp) },
		flatten: func(g *gamesave.GameSave, n *Node) { g.SecondsRemainingOnWarp = n.entry.Get().(float64) },
	},
	intField("loopCountOnParadox", func(g *gamesave.GameSave) *int { return &g.LoopCountOnParadox }),
	{
		key:     "shownPopups",
		project: func(g *gamesave.GameSave) *entry.Entry { return entry.NewFlags("shownPopups", g.ShownPopups) },
		flatten: func(g *gamesave.GameSave, n *Node) { g.ShownPopups = n.entry.Get().(enums.StartupPopups) },
	},
	{
		key:     "version",
		project: func(g *gamesave.GameSave) *entry.Entry { return entry.NewText("version", g.Version) },
		flatten: func(g *gamesave.GameSave, n *Node) { g.Version = n.entry.Get().(string) },
	},
	boolField("ps5Activity_canResumeExpedition", func(g *gamesave.GameSave) *bool { return &g.PS5CanResumeExpedition }),
	{
		key: "ps5Activity_availableShipLogCards",
		project: func(g *gamesave.GameSave) *entry.Entry {
			return entry.NewList("ps5Activity_availableShipLogCards", g.PS5AvailableShipLogCards).Disable()
		},
		flatten: func(g *gamesave.GameSave, n *Node) { g.PS5AvailableShipLogCards = n.entry.Get().([]string) },
	},
	boolField("didRunInitGammaSetting", func(g *gamesave.GameSave) *bool { return &g.DidRunInitGammaSetting }),
}

func (t *Tree) container(parent *Node, name string) *Node {
	n := &Node{name: name, title: name, parent: parent, path: joinPath(parent.path, name)}
	parent.children = append(parent.children, n)
	t.index[n.path] = n
	return n
}

func (t *Tree) leaf(parent *Node, name, title string, e *entry.Entry) *Node {
	n := &Node{name: name, title: title, parent: parent, path: joinPath(parent.path, name), entry: e}
	parent.children = append(parent.children, n)
	t.index[n.path] = n
	return n
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

func projectFrequencies(t *Tree, g *gamesave.GameSave) {
	group := t.container(t.root, KeyKnownFrequencies)
	for _, f := range enums.Frequencies() {
		title := f.String()
		if name, ok := t.catalog.FrequencyName(int(f)); ok {
			title = name
		}
		e := entry.NewBool(f.String(), g.KnownFrequencies[f])
		if f == enums.FrequencyBase {
			e.Disable()
		}
		t.leaf(group, f.String(), title, e)
	}
}

func flattenFrequencies(g *gamesave.GameSave, group *Node) {
	for i, n := range group.children {
		g.KnownFrequencies[i] = n.entry.Get().(bool)
	}
}

func projectSignals(t *Tree, g *gamesave.GameSave) {
	group := t.container(t.root, KeyKnownSignals)
	for _, s := range enums.Signals() {
		title := s.String()
		if name, ok := t.catalog.SignalName(int(s)); ok {
			title = name
		}
		t.leaf(group, s.String(), title, entry.NewBool(s.String(), g.KnownSignals[s]))
	}
}

func flattenSignals(g *gamesave.GameSave, group *Node) {
	for i, s := range enums.Signals() {
		g.KnownSignals[s] = group.children[i].entry.Get().(bool)
	}
}

func projectConditions(t *Tree, g *gamesave.GameSave) {
	group := t.container(t.root, KeyDictConditions)
	for _, name := range g.ConditionNames() {
		t.leaf(group, name, name, entry.NewTriState(name, g.Conditions[name]))
	}
}

func flattenConditions(g *gamesave.GameSave, group *Node) {
	for _, n := range group.children {
		g.Conditions[n.name] = n.entry.Get().(tristate.Value)
	}
}

func projectFacts(t *Tree, g *gamesave.GameSave) {
	group := t.container(t.root, KeyShipLogFactSaves)
	t.factGroup = group
	for _, id := range g.FactIDs() {
		e := entry.NewLogFact(g.LogFacts[id], t)
		n := t.leaf(group, id, id, e)
		n.desc = t.catalog.Description(id)
		t.facts[id] = e
	}
}

func flattenFacts(g *gamesave.GameSave, group *Node) {
	for _, n := range group.children {
		f, _ := n.entry.LogFact()
		g.LogFacts[n.name] = f
	}
}

// Root returns the invisible root container.
func (t *Tree) Root() *Node { return t.root }

// Find returns the node at path.
func (t *Tree) Find(path string) (*Node, bool) {
	n, ok := t.index[path]
	return n, ok
}

// FactGroup returns the shipLogFactSaves container.
func (t *Tree) FactGroup() *Node { return t.factGroup }

// IsFactNode reports whether n is the fact group or one of its children.
func (t *Tree) IsFactNode(n *Node) bool {
	return n != nil && (n == t.factGroup || n.parent == t.factGroup)
}

// Fact returns the current record of a fact.
func (t *Tree) Fact(id string) (gamesave.LogFact, bool) {
	e, ok := t.facts[id]
	if !ok {
		return gamesave.LogFact{}, false
	}
	return e.LogFact()
}

// NewlyRevealed returns a copy of the newly-revealed list.
func (t *Tree) NewlyRevealed() []string { return append([]string{}, t.newly...) }

// SetExpanded opens or closes a container.
func (t *Tree) SetExpanded(path string, open bool) error {
	n, ok := t.index[path]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPath, path)
	}
	if !n.IsContainer() {
		return fmt.Errorf("%w: %s is not a container", ErrUnknownPath, path)
	}
	n.expanded = open
	return nil
}

// ToggleExpanded flips a container and reports the new state.
func (t *Tree) ToggleExpanded(path string) (bool, error) {
	n, ok := t.index[path]
	if !ok || !n.IsContainer() {
		return false, fmt.Errorf("%w: %s", ErrUnknownPath, path)
	}
	n.expanded = !n.expanded
	return n.expanded, nil
}

// Visible returns the rows to render, depth first, skipping the children
// of collapsed containers.
func (t *Tree) Visible() []Row {
	var rows []Row
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		for _, c := range n.children {
			rows = append(rows, Row{Node: c, Depth: depth})
			if c.IsContainer() && c.expanded {
				walk(c, depth+1)
			}
		}
	}
	walk(t.root, 0)
	return rows
}

// Text renders the visible rows as indented plain text.
func (t *Tree) Text() string {
	var b strings.Builder
	for _, r := range t.Visible() {
		b.WriteString(strings.Repeat("  ", r.Depth))
		b.WriteString(r.Node.Label())
		b.WriteByte('\n')
	}
	return b.String()
}

func (t *Tree) refreshNewlyList() {
	if n, ok := t.index[KeyNewlyRevealedFactIDs]; ok {
		n.entry = entry.NewList(KeyNewlyRevealedFactIDs, t.newly)
	}
}
