// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tui is the interactive save editor.
//
// The Model owns the projected tree of the loaded save. All edits happen on
// the update loop; file reads, writes and clipboard access run as tea.Cmds
// and report back through messages. While a load or save is pending the
// edit bindings are disabled.
package tui

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/owsavetools/owsave/services/saveedit/catalog"
	"github.com/owsavetools/owsave/services/saveedit/entry"
	"github.com/owsavetools/owsave/services/saveedit/gamesave"
	"github.com/owsavetools/owsave/services/saveedit/savefile"
	"github.com/owsavetools/owsave/services/saveedit/tree"
)

// Config wires the editor to its collaborators.
type Config struct {
	Catalog *catalog.Catalog
	Store   *savefile.Store
	Logger  *slog.Logger

	// InitialPath is loaded on start when set.
	InitialPath string
	// OutPath receives saves instead of the loaded file when set.
	OutPath string

	FactSort    tree.SortMode
	ConfirmSave bool
	Watch       bool

	// Clipboard writes text to the system clipboard. Default:
	// clipboard.WriteAll.
	Clipboard func(string) error
}

type mode int

const (
	modeBrowse mode = iota
	modeEdit
	modeForm
	modeReview
)

// Model is the bubbletea model of the editor.
type Model struct {
	cfg      Config
	keys     keyMap
	help     help.Model
	viewport viewport.Model
	input    textinput.Model
	form     *huh.Form
	fs       formState
	mode     mode

	path     string
	outPath  string
	tree     *tree.Tree
	original *gamesave.GameSave
	rows     []tree.Row
	cursor   int
	selPath  string

	editing  *tree.Node
	pattern  *regexp.Regexp
	inputErr string

	review     []gamesave.Change
	reviewPath string
	reviewSave *gamesave.GameSave

	pending   bool
	status    string
	statusErr bool

	watcher *savefile.Watcher
	changes chan savefile.Change

	width, height int
	ready         bool
	quitting      bool
}

// New creates the editor. Nothing is read until Init.
func New(cfg Config) *Model {
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Store == nil {
		opts := savefile.DefaultOptions()
		opts.Logger = cfg.Logger
		cfg.Store = savefile.NewStore(opts)
	}
	if cfg.Clipboard == nil {
		cfg.Clipboard = clipboard.WriteAll
	}

	in := textinput.New()
	in.Prompt = "› "

	m := &Model{
		cfg:     cfg,
		keys:    defaultKeyMap(),
		help:    help.New(),
		input:   in,
		outPath: cfg.OutPath,
		changes: make(chan savefile.Change, 4),
		status:  "No save loaded. Press o to open a file.",
	}
	m.updateKeys()
	return m
}

// Init starts the initial load and the change listener.
func (m *Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.cfg.InitialPath != "" {
		cmds = append(cmds, m.beginLoad(m.cfg.InitialPath))
	}
	if m.cfg.Watch {
		cmds = append(cmds, waitForChange(m.changes))
	}
	return tea.Batch(cmds...)
}

// Close stops the file watcher.
func (m *Model) Close() {
	if m.watcher != nil {
		m.watcher.Stop()
		m.watcher = nil
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, 1)
			m.ready = true
		}
		m.viewport.Width = msg.Width
		m.help.Width = msg.Width
		if m.form != nil {
			m.form = m.form.WithWidth(msg.Width)
		}
		m.refresh()
		return m, nil
	case loadedMsg:
		m.handleLoaded(msg)
		return m, nil
	case savedMsg:
		m.handleSaved(msg)
		return m, nil
	case fileChangedMsg:
		m.handleChange(msg.change)
		return m, waitForChange(m.changes)
	case clipboardMsg:
		if msg.err != nil {
			m.setStatus("Copy failed: "+msg.err.Error(), true)
		} else {
			m.setStatus("Copied "+msg.text, false)
		}
		return m, nil
	}

	switch m.mode {
	case modeForm:
		return m, m.updateForm(msg)
	case modeEdit:
		return m, m.updateEdit(msg)
	case modeReview:
		if k, ok := msg.(tea.KeyMsg); ok {
			return m, m.updateReview(k)
		}
		return m, nil
	}

	if k, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(k)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		m.quitting = true
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, k.Up):
		m.move(-1)
	case key.Matches(msg, k.Down):
		m.move(1)
	case key.Matches(msg, k.PageUp):
		m.move(-m.pageSize())
	case key.Matches(msg, k.PageDown):
		m.move(m.pageSize())
	case key.Matches(msg, k.Top):
		m.move(-len(m.rows))
	case key.Matches(msg, k.Bottom):
		m.move(len(m.rows))
	case key.Matches(msg, k.Expand):
		m.setExpanded(m.selected(), true)
	case key.Matches(msg, k.Collapse):
		m.collapse()
	case key.Matches(msg, k.Select):
		if n := m.selected(); n.IsContainer() {
			m.setExpanded(n, !n.Expanded())
		} else {
			return m, m.edit(n)
		}
	case key.Matches(msg, k.Toggle):
		n := m.selected()
		m.apply(n, n.Entry().Toggle())
	case key.Matches(msg, k.Sort):
		next := m.tree.SortMode().Other()
		if m.tree.Sort(next) {
			m.setStatus("Facts sorted by "+next.String(), false)
		}
	case key.Matches(msg, k.Reveal):
		n := m.selected()
		m.apply(n, m.tree.ToggleRevealed(n.Name()))
	case key.Matches(msg, k.Newly):
		n := m.selected()
		m.apply(n, m.tree.ToggleNewlyRevealed(n.Name()))
	case key.Matches(msg, k.Read):
		n := m.selected()
		m.apply(n, m.tree.ToggleRead(n.Name()))
	case key.Matches(msg, k.Open):
		return m, m.openFileForm()
	case key.Matches(msg, k.Save):
		return m, m.beginSave(m.target())
	case key.Matches(msg, k.SaveAs):
		return m, m.openSaveAsForm()
	case key.Matches(msg, k.Yank):
		return m, m.yankCmd(m.selected().Label())
	}
	m.refresh()
	return m, nil
}

// edit starts the editor that fits the entry kind.
func (m *Model) edit(n *tree.Node) tea.Cmd {
	e := n.Entry()
	switch {
	case !e.Editable():
		m.setStatus(n.Title()+" is read-only", true)
		return nil
	case e.Kind() == entry.KindEnum:
		return m.openEnumForm(n)
	case e.Kind() == entry.KindFlags:
		return m.openFlagsForm(n)
	case e.Toggleable():
		m.apply(n, e.Toggle())
		m.refresh()
		return nil
	case e.TextEditable():
		return m.startEdit(n)
	}
	return nil
}

// apply reports the outcome of an edit on n.
func (m *Model) apply(n *tree.Node, err error) {
	if err != nil {
		m.cfg.Logger.Warn("Edit rejected",
			slog.String("path", n.Path()),
			slog.String("error", err.Error()),
		)
		m.setStatus(err.Error(), true)
		return
	}
	m.cfg.Logger.Debug("Edited entry",
		slog.String("path", n.Path()),
		slog.String("value", n.Entry().Label()),
	)
	m.setStatus(n.Label(), false)
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// target is where the next plain save goes.
func (m *Model) target() string {
	if m.outPath != "" {
		return m.outPath
	}
	return m.path
}

// Dirty reports whether the model differs from the file it came from.
func (m *Model) Dirty() bool {
	if m.tree == nil || m.original == nil {
		return false
	}
	return !gamesave.Equal(m.original, m.tree.Flatten())
}

func (m *Model) beginLoad(path string) tea.Cmd {
	m.pending = true
	m.setStatus("Loading "+path+"...", false)
	m.updateKeys()
	return m.loadCmd(path)
}

// beginSave snapshots the model and either shows the review screen or
// writes right away.
func (m *Model) beginSave(path string) tea.Cmd {
	if m.tree == nil || path == "" {
		return nil
	}
	snapshot := m.tree.Flatten()
	if !m.cfg.ConfirmSave {
		return m.commitSave(path, snapshot)
	}
	m.review = gamesave.Diff(m.original, snapshot)
	m.reviewPath = path
	m.reviewSave = snapshot
	m.mode = modeReview
	m.refresh()
	return nil
}

func (m *Model) commitSave(path string, g *gamesave.GameSave) tea.Cmd {
	m.pending = true
	m.setStatus("Saving "+path+"...", false)
	m.updateKeys()
	return m.saveCmd(path, g)
}

func (m *Model) updateReview(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "enter":
		path, g := m.reviewPath, m.reviewSave
		m.closeReview()
		return m.commitSave(path, g)
	case "n", "esc", "q":
		m.closeReview()
		m.setStatus("Save cancelled", false)
	case "up", "k":
		m.viewport.SetYOffset(m.viewport.YOffset - 1)
	case "down", "j":
		m.viewport.SetYOffset(m.viewport.YOffset + 1)
	}
	return nil
}

func (m *Model) closeReview() {
	m.mode = modeBrowse
	m.review = nil
	m.reviewSave = nil
	m.reviewPath = ""
	m.refresh()
}

func (m *Model) handleLoaded(msg loadedMsg) {
	m.pending = false
	if msg.err != nil {
		m.cfg.Logger.Error("Load failed",
			slog.String("path", msg.path),
			slog.String("error", msg.err.Error()),
		)
		m.setStatus("Load failed: "+msg.err.Error(), true)
		m.refresh()
		return
	}

	m.Close()
	m.watcher = msg.watcher
	m.path = msg.path
	m.original = msg.save.Clone()
	m.tree = tree.Project(msg.save)
	m.tree.Sort(m.cfg.FactSort)
	m.cursor, m.selPath = 0, ""

	if w := msg.save.Warnings(); len(w) > 0 {
		m.setStatus(fmt.Sprintf("Loaded %s with %d warning(s): %s", msg.path, len(w), w[0]), true)
	} else {
		m.setStatus("Loaded "+msg.path, false)
	}
	m.refresh()
}

func (m *Model) handleSaved(msg savedMsg) {
	m.pending = false
	if msg.err != nil {
		m.cfg.Logger.Error("Save failed",
			slog.String("path", msg.path),
			slog.String("error", msg.err.Error()),
		)
		m.setStatus("Save failed: "+msg.err.Error(), true)
		m.refresh()
		return
	}

	if msg.watcher != nil {
		m.Close()
		m.watcher = msg.watcher
	}
	m.path = msg.path
	m.outPath = ""
	m.original = msg.save
	status := "Saved " + msg.path
	if msg.backup != "" {
		status += " (backup " + filepath.Base(msg.backup) + ")"
	}
	m.setStatus(status, false)
	m.refresh()
}

func (m *Model) handleChange(c savefile.Change) {
	m.cfg.Logger.Info("Save file changed on disk",
		slog.String("path", c.Path),
		slog.String("op", c.Op.String()),
	)
	switch c.Op {
	case savefile.ChangeRemoved:
		m.setStatus(filepath.Base(c.Path)+" was removed on disk", true)
	default:
		m.setStatus(filepath.Base(c.Path)+" changed on disk. Press o to reload it", true)
	}
}

func (m *Model) startEdit(n *tree.Node) tea.Cmd {
	e := n.Entry()
	m.editing = n
	m.pattern = e.InputPattern()
	m.inputErr = ""
	m.input.Placeholder = e.InputType()
	m.input.SetValue(e.InputValue())
	m.input.CursorEnd()
	m.mode = modeEdit
	m.refresh()
	return m.input.Focus()
}

func (m *Model) endEdit() {
	m.input.Blur()
	m.editing = nil
	m.pattern = nil
	m.inputErr = ""
	m.mode = modeBrowse
	m.refresh()
}

// updateEdit drives the text input. Keystrokes that would leave the value
// outside the entry's pattern are dropped. A rejected commit keeps the box
// open with the reason.
func (m *Model) updateEdit(msg tea.Msg) tea.Cmd {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.Type {
		case tea.KeyEnter:
			n := m.editing
			if err := n.Entry().Commit(m.input.Value()); err != nil {
				m.inputErr = err.Error()
				m.apply(n, err)
				return nil
			}
			m.apply(n, nil)
			m.endEdit()
			return nil
		case tea.KeyEsc:
			m.endEdit()
			m.setStatus("Edit cancelled", false)
			return nil
		}
	}

	before, pos := m.input.Value(), m.input.Position()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.pattern != nil && !m.pattern.MatchString(m.input.Value()) {
		m.input.SetValue(before)
		m.input.SetCursor(pos)
	}
	return cmd
}

func (m *Model) selected() *tree.Node {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].Node
}

func (m *Model) move(delta int) {
	m.cursor += delta
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if n := m.selected(); n != nil {
		m.selPath = n.Path()
	}
}

func (m *Model) pageSize() int {
	if m.viewport.Height > 1 {
		return m.viewport.Height - 1
	}
	return 1
}

func (m *Model) setExpanded(n *tree.Node, open bool) {
	if n == nil || !n.IsContainer() {
		return
	}
	if err := m.tree.SetExpanded(n.Path(), open); err != nil {
		m.setStatus(err.Error(), true)
	}
}

// collapse closes an open container, or jumps to the parent of anything
// else.
func (m *Model) collapse() {
	n := m.selected()
	if n == nil {
		return
	}
	if n.IsContainer() && n.Expanded() {
		m.setExpanded(n, false)
		return
	}
	if p := n.Parent(); p != nil && p != m.tree.Root() {
		m.selPath = p.Path()
		m.refresh()
	}
}

// refresh recomputes the rows, keeps the selection on the same path when
// it is still visible, and re-renders the viewport.
func (m *Model) refresh() {
	m.rows = nil
	if m.tree != nil {
		m.rows = m.tree.Visible()
	}
	if m.selPath != "" {
		for i, r := range m.rows {
			if r.Node.Path() == m.selPath {
				m.cursor = i
				break
			}
		}
	}
	m.move(0)
	m.updateKeys()

	if !m.ready {
		return
	}
	m.viewport.Height = m.bodyHeight()
	if m.mode == modeReview {
		m.viewport.SetContent(m.reviewView())
		return
	}
	m.viewport.SetContent(m.rowsView())
	switch {
	case m.cursor < m.viewport.YOffset:
		m.viewport.SetYOffset(m.cursor)
	case m.cursor >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(m.cursor - m.viewport.Height + 1)
	}
}
