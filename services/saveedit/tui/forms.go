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
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/owsavetools/owsave/services/saveedit/enums"
	"github.com/owsavetools/owsave/services/saveedit/tree"
)

type formKind int

const (
	formNone formKind = iota
	formEnum
	formFlags
	formOpen
	formSaveAs
)

// formState holds the values huh fields write into. The fields keep
// pointers to these, so they live behind the Model pointer.
type formState struct {
	kind   formKind
	target *tree.Node
	death  enums.DeathType
	popups []enums.StartupPopups
	path   string
}

func formKeyMap() *huh.KeyMap {
	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "cancel"))
	return km
}

func (m *Model) startForm(kind formKind, target *tree.Node, fields ...huh.Field) tea.Cmd {
	m.fs.kind = kind
	m.fs.target = target
	m.form = huh.NewForm(huh.NewGroup(fields...)).
		WithKeyMap(formKeyMap()).
		WithShowHelp(true)
	if m.width > 0 {
		m.form = m.form.WithWidth(m.width)
	}
	m.mode = modeForm
	return m.form.Init()
}

func (m *Model) openEnumForm(n *tree.Node) tea.Cmd {
	m.fs.death, _ = n.Entry().Get().(enums.DeathType)
	opts := make([]huh.Option[enums.DeathType], 0, len(enums.DeathTypes()))
	for _, d := range enums.DeathTypes() {
		opts = append(opts, huh.NewOption(d.String(), d))
	}
	sel := huh.NewSelect[enums.DeathType]().
		Title(n.Title()).
		Options(opts...).
		Value(&m.fs.death)
	return m.startForm(formEnum, n, sel)
}

func (m *Model) openFlagsForm(n *tree.Node) tea.Cmd {
	cur, _ := n.Entry().Get().(enums.StartupPopups)
	m.fs.popups = m.fs.popups[:0]
	opts := make([]huh.Option[enums.StartupPopups], 0, len(enums.PopupFlags()))
	for _, f := range enums.PopupFlags() {
		opts = append(opts, huh.NewOption(f.String(), f).Selected(cur.Has(f)))
		if cur.Has(f) {
			m.fs.popups = append(m.fs.popups, f)
		}
	}
	ms := huh.NewMultiSelect[enums.StartupPopups]().
		Title(n.Title()).
		Options(opts...).
		Value(&m.fs.popups)
	return m.startForm(formFlags, n, ms)
}

func (m *Model) openFileForm() tea.Cmd {
	dir := "."
	if m.path != "" {
		dir = filepath.Dir(m.path)
	} else if wd, err := os.Getwd(); err == nil {
		dir = wd
	}
	m.fs.path = ""
	fp := huh.NewFilePicker().
		Title("Open save file").
		CurrentDirectory(dir).
		FileAllowed(true).
		DirAllowed(false).
		Picking(true).
		Value(&m.fs.path)
	return m.startForm(formOpen, nil, fp)
}

func (m *Model) openSaveAsForm() tea.Cmd {
	m.fs.path = m.target()
	in := huh.NewInput().
		Title("Save as").
		Value(&m.fs.path).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("path is required")
			}
			return nil
		})
	return m.startForm(formSaveAs, nil, in)
}

// updateForm feeds msg to the active form. Completion and cancellation
// return control to the browser; the form's own quit command is dropped.
func (m *Model) updateForm(msg tea.Msg) tea.Cmd {
	f, cmd := m.form.Update(msg)
	if ff, ok := f.(*huh.Form); ok {
		m.form = ff
	}
	switch m.form.State {
	case huh.StateCompleted:
		return m.finishForm()
	case huh.StateAborted:
		m.closeForm()
		m.setStatus("Cancelled", false)
		return nil
	}
	return cmd
}

func (m *Model) closeForm() {
	m.form = nil
	m.fs.kind = formNone
	m.fs.target = nil
	m.mode = modeBrowse
	m.refresh()
}

func (m *Model) finishForm() tea.Cmd {
	kind, target, path := m.fs.kind, m.fs.target, strings.TrimSpace(m.fs.path)
	m.closeForm()

	switch kind {
	case formEnum:
		m.apply(target, target.Entry().Set(m.fs.death))
		m.refresh()
	case formFlags:
		p := enums.PopupsNone
		for _, f := range m.fs.popups {
			p |= f
		}
		m.apply(target, target.Entry().Set(p))
		m.refresh()
	case formOpen:
		if path == "" {
			return nil
		}
		return m.beginLoad(path)
	case formSaveAs:
		return m.beginSave(path)
	}
	return nil
}
