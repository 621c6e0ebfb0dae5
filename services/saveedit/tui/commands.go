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
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/owsavetools/owsave/services/saveedit/gamesave"
	"github.com/owsavetools/owsave/services/saveedit/savefile"
)

type loadedMsg struct {
	path    string
	save    *gamesave.GameSave
	watcher *savefile.Watcher
	err     error
}

type savedMsg struct {
	path    string
	backup  string
	save    *gamesave.GameSave
	watcher *savefile.Watcher
	err     error
}

type fileChangedMsg struct {
	change savefile.Change
}

type clipboardMsg struct {
	text string
	err  error
}

// loadCmd reads path off the update loop. The current model is untouched
// until the result arrives.
func (m *Model) loadCmd(path string) tea.Cmd {
	store, cat := m.cfg.Store, m.cfg.Catalog
	return func() tea.Msg {
		g, err := store.Read(path, cat)
		if err != nil {
			return loadedMsg{path: path, err: err}
		}
		return loadedMsg{path: path, save: g, watcher: m.watch(path)}
	}
}

// saveCmd writes a snapshot of the model. When the target is the watched
// file the new content is acknowledged so the save is not reported back.
func (m *Model) saveCmd(path string, g *gamesave.GameSave) tea.Cmd {
	store := m.cfg.Store
	current := m.watcher
	return func() tea.Msg {
		backup, err := store.Write(path, g)
		if err != nil {
			return savedMsg{path: path, err: err}
		}
		msg := savedMsg{path: path, backup: backup, save: g}
		if current != nil && samePath(current.Path(), path) {
			if err := current.Acknowledge(); err != nil {
				m.cfg.Logger.Warn("Failed to acknowledge save", slog.String("error", err.Error()))
			}
		} else {
			msg.watcher = m.watch(path)
		}
		return msg
	}
}

// watch starts a watcher for path that feeds m.changes. Failures only
// disable the notice.
func (m *Model) watch(path string) *savefile.Watcher {
	if !m.cfg.Watch {
		return nil
	}
	changes := m.changes
	w, err := savefile.NewWatcher(path, func(c savefile.Change) {
		select {
		case changes <- c:
		default:
		}
	}, &savefile.WatcherOptions{Logger: m.cfg.Logger})
	if err != nil {
		m.cfg.Logger.Warn("File watching disabled",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if err := w.Start(context.Background()); err != nil {
		m.cfg.Logger.Warn("File watching disabled",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		w.Stop()
		return nil
	}
	return w
}

// waitForChange blocks until the watcher reports something.
func waitForChange(ch <-chan savefile.Change) tea.Cmd {
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return fileChangedMsg{change: c}
	}
}

func (m *Model) yankCmd(text string) tea.Cmd {
	write := m.cfg.Clipboard
	return func() tea.Msg {
		return clipboardMsg{text: text, err: write(text)}
	}
}
