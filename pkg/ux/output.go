// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux holds the terminal palette, styles and print helpers shared
// by the editor and the batch commands.
package ux

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	ColorAccent  = lipgloss.Color("#E8A33D") // campfire amber, titles and keys
	ColorSky     = lipgloss.Color("#5FA8D3") // secondary text, group rows
	ColorTrue    = lipgloss.Color("#4CBB6C") // true values, success
	ColorFalse   = lipgloss.Color("#E05A4F") // false values, errors
	ColorUnknown = lipgloss.Color("#E3C84B") // unknown values, warnings
	ColorMuted   = lipgloss.Color("#6B7B8C") // disabled entries, help
	ColorSelect  = lipgloss.Color("#24323F") // selected row background
)

// Styles is the shared style sheet.
var Styles = struct {
	Title    lipgloss.Style
	Bold     lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Key      lipgloss.Style
	Group    lipgloss.Style
	True     lipgloss.Style
	False    lipgloss.Style
	Unknown  lipgloss.Style
	Disabled lipgloss.Style
	Selected lipgloss.Style
	Status   lipgloss.Style
	Box      lipgloss.Style
	ErrorBox lipgloss.Style
}{
	Title:    lipgloss.NewStyle().Bold(true).Foreground(ColorAccent),
	Bold:     lipgloss.NewStyle().Bold(true),
	Muted:    lipgloss.NewStyle().Foreground(ColorMuted),
	Success:  lipgloss.NewStyle().Foreground(ColorTrue),
	Warning:  lipgloss.NewStyle().Foreground(ColorUnknown),
	Error:    lipgloss.NewStyle().Foreground(ColorFalse),
	Key:      lipgloss.NewStyle().Bold(true),
	Group:    lipgloss.NewStyle().Bold(true).Foreground(ColorSky),
	True:     lipgloss.NewStyle().Foreground(ColorTrue),
	False:    lipgloss.NewStyle().Foreground(ColorFalse),
	Unknown:  lipgloss.NewStyle().Foreground(ColorUnknown),
	Disabled: lipgloss.NewStyle().Foreground(ColorMuted).Strikethrough(true),
	Selected: lipgloss.NewStyle().Background(ColorSelect),
	Status:   lipgloss.NewStyle().Foreground(ColorSky),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorAccent).
		Padding(0, 1),
	ErrorBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorFalse).
		Padding(0, 1),
}

// Icon is a status marker.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconBullet  Icon = "•"
)

// Render returns the icon styled for the current mode.
func (i Icon) Render() string {
	if CurrentMode() != ModeRich {
		return string(i)
	}
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return string(i)
	}
}

// Printer writes mode aware messages to a writer. The batch commands print
// through it so their output stays parseable when piped.
type Printer struct {
	w io.Writer
}

// NewPrinter wraps w.
func NewPrinter(w io.Writer) *Printer { return &Printer{w: w} }

func (p *Printer) styled(s lipgloss.Style, text string) string {
	if CurrentMode() != ModeRich {
		return text
	}
	return s.Render(text)
}

// Title prints a heading. Machine mode skips it.
func (p *Printer) Title(text string) {
	if CurrentMode() == ModeMachine {
		return
	}
	fmt.Fprintln(p.w, p.styled(Styles.Title, text))
}

// Success prints a success line.
func (p *Printer) Success(text string) { p.line("OK", IconSuccess, Styles.Success, text) }

// Warning prints a warning line.
func (p *Printer) Warning(text string) { p.line("WARN", IconWarning, Styles.Warning, text) }

// Error prints an error line.
func (p *Printer) Error(text string) { p.line("ERROR", IconError, Styles.Error, text) }

// Item prints a bulleted line.
func (p *Printer) Item(text string) {
	if CurrentMode() == ModeMachine {
		fmt.Fprintf(p.w, "- %s\n", text)
		return
	}
	fmt.Fprintf(p.w, "  %s %s\n", IconBullet.Render(), text)
}

func (p *Printer) line(prefix string, icon Icon, s lipgloss.Style, text string) {
	if CurrentMode() == ModeMachine {
		fmt.Fprintf(p.w, "%s: %s\n", prefix, text)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", icon.Render(), p.styled(s, text))
}

// Box prints content in a rounded box.
func (p *Printer) Box(title, content string) {
	if CurrentMode() != ModeRich {
		fmt.Fprintf(p.w, "%s:\n%s\n", title, content)
		return
	}
	fmt.Fprintln(p.w, Styles.Box.Render(Styles.Title.Render(title)+"\n"+content))
}
