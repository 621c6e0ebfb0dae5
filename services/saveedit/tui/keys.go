// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/owsavetools/owsave/services/saveedit/tree"
)

// keyMap holds every binding of the browse screen. Bindings are enabled
// per selection by Model.updateKeys, so help only lists what applies.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Expand   key.Binding
	Collapse key.Binding
	Select   key.Binding
	Toggle   key.Binding
	Sort     key.Binding
	Reveal   key.Binding
	Newly    key.Binding
	Read     key.Binding
	Open     key.Binding
	Save     key.Binding
	SaveAs   key.Binding
	Yank     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		Top:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		Bottom:   key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
		Expand:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "expand")),
		Collapse: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "collapse")),
		Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit")),
		Toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		Sort:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		Reveal:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "revealed")),
		Newly:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "newly revealed")),
		Read:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "read")),
		Open:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open")),
		Save:     key.NewBinding(key.WithKeys("ctrl+s", "w"), key.WithHelp("w", "save")),
		SaveAs:   key.NewBinding(key.WithKeys("W"), key.WithHelp("W", "save as")),
		Yank:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Toggle, k.Sort, k.Reveal, k.Open, k.Save, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.Expand, k.Collapse, k.Select, k.Toggle, k.Yank},
		{k.Sort, k.Reveal, k.Newly, k.Read},
		{k.Open, k.Save, k.SaveAs, k.Help, k.Quit},
	}
}

func sortHelp(mode tree.SortMode) string {
	if mode.Other() == tree.ByRevealOrder {
		return "sort by reveal order"
	}
	return "sort by id"
}

// updateKeys enables the bindings that apply to the selection.
func (m *Model) updateKeys() {
	k := &m.keys
	sel := m.selected()
	busy := m.pending
	loaded := m.tree != nil

	var leaf, fact, factArea bool
	var editable, toggleable bool
	if sel != nil {
		leaf = !sel.IsContainer()
		factArea = m.tree.IsFactNode(sel)
		fact = factArea && leaf
		if leaf {
			e := sel.Entry()
			toggleable = e.Toggleable()
			editable = e.Editable()
		}
	}

	k.Expand.SetEnabled(sel != nil && !leaf)
	k.Collapse.SetEnabled(sel != nil)
	k.Select.SetEnabled(sel != nil && (!leaf || (editable && !busy)))
	if sel != nil && !leaf {
		k.Select.SetHelp("enter", "expand")
	} else {
		k.Select.SetHelp("enter", "edit")
	}
	k.Toggle.SetEnabled(!busy && toggleable)
	k.Sort.SetEnabled(!busy && factArea)
	if loaded {
		k.Sort.SetHelp("s", sortHelp(m.tree.SortMode()))
	}
	k.Reveal.SetEnabled(!busy && fact)
	k.Newly.SetEnabled(!busy && fact)
	k.Read.SetEnabled(!busy && fact)
	k.Open.SetEnabled(!busy)
	k.Save.SetEnabled(!busy && loaded)
	k.SaveAs.SetEnabled(!busy && loaded)
	k.Yank.SetEnabled(sel != nil)
}
