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
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/owsavetools/owsave/pkg/ux"
	"github.com/owsavetools/owsave/services/saveedit/entry"
	"github.com/owsavetools/owsave/services/saveedit/tree"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Starting..."
	}

	var body string
	if m.mode == modeForm && m.form != nil {
		body = lipgloss.NewStyle().Height(m.bodyHeight()).Render(m.form.View())
	} else {
		body = m.viewport.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.headerView(), body, m.footerView())
}

func (m *Model) headerView() string {
	title := ux.Styles.Title.Render("owsave")
	switch {
	case m.tree == nil:
		return title
	case m.mode == modeReview:
		return title + "  " + ux.Styles.Bold.Render("Review changes to "+m.reviewPath)
	}
	info := " " + m.path
	if m.outPath != "" && m.outPath != m.path {
		info += " → " + m.outPath
	}
	if m.Dirty() {
		info += ux.Styles.Warning.Render(" [modified]")
	}
	info += ux.Styles.Muted.Render("  facts by " + m.tree.SortMode().String())
	return title + info
}

func (m *Model) footerView() string {
	var lines []string
	switch m.mode {
	case modeEdit:
		lines = append(lines, m.input.View())
	case modeReview:
		lines = append(lines, ux.Styles.Key.Render("y")+" save  "+ux.Styles.Key.Render("n")+" back")
	}
	status := ux.Styles.Status.Render(m.status)
	if m.statusErr {
		status = ux.Styles.Error.Render(m.status)
	}
	if m.pending {
		status = ux.Styles.Muted.Render("⋯ ") + status
	}
	lines = append(lines, status)
	if m.mode == modeBrowse {
		lines = append(lines, m.help.View(m.keys))
	}
	return strings.Join(lines, "\n")
}

// bodyHeight is what is left between header and footer.
func (m *Model) bodyHeight() int {
	h := m.height - lipgloss.Height(m.headerView()) - lipgloss.Height(m.footerView())
	if h < 1 {
		return 1
	}
	return h
}

func (m *Model) rowsView() string {
	if len(m.rows) == 0 {
		return ux.Styles.Muted.Render("Nothing to show.")
	}
	lines := make([]string, len(m.rows))
	for i, r := range m.rows {
		lines[i] = m.renderRow(r, i == m.cursor)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderRow(r tree.Row, selected bool) string {
	n := r.Node
	indent := strings.Repeat("  ", r.Depth)

	if selected {
		line := indent + marker(n) + n.Label()
		if d := n.Description(); d != "" {
			line += "  " + d
		}
		return ux.Styles.Selected.Width(m.width).Render(line)
	}

	if n.IsContainer() {
		count := ux.Styles.Muted.Render(fmt.Sprintf(" (%d)", len(n.Children())))
		return indent + marker(n) + ux.Styles.Group.Render(n.Title()) + count
	}

	e := n.Entry()
	if e.Disabled() {
		return indent + marker(n) + ux.Styles.Disabled.Render(n.Label())
	}
	line := indent + marker(n) + ux.Styles.Key.Render(n.Title()) + ": " + valueStyle(e).Render(e.Label())
	if d := n.Description(); d != "" {
		line += "  " + ux.Styles.Muted.Render(d)
	}
	return line
}

func marker(n *tree.Node) string {
	switch {
	case !n.IsContainer():
		return "  "
	case n.Expanded():
		return "▾ "
	default:
		return "▸ "
	}
}

func valueStyle(e *entry.Entry) lipgloss.Style {
	switch e.Hint() {
	case entry.HintTrue:
		return ux.Styles.True
	case entry.HintFalse:
		return ux.Styles.False
	case entry.HintUnknown:
		return ux.Styles.Unknown
	}
	return lipgloss.NewStyle()
}

func (m *Model) reviewView() string {
	if len(m.review) == 0 {
		return ux.Styles.Muted.Render("No changes. Save anyway?")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d change(s):\n", len(m.review))
	for _, c := range m.review {
		b.WriteString("  ")
		b.WriteString(ux.Styles.Key.Render(c.Path))
		b.WriteString(": ")
		b.WriteString(ux.Styles.False.Render(c.Old))
		b.WriteString(" → ")
		b.WriteString(ux.Styles.True.Render(c.New))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func samePath(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	if err1 != nil || err2 != nil {
		return a == b
	}
	return aa == bb
}
