// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// Mode defines how rich command output is.
type Mode string

const (
	// ModeRich uses colors, icons and boxes.
	ModeRich Mode = "rich"

	// ModePlain uses icons without colors.
	ModePlain Mode = "plain"

	// ModeMachine writes plain prefixed lines suitable for scripts.
	ModeMachine Mode = "machine"
)

var (
	currentMode = ModeRich
	modeMu      sync.RWMutex
)

// CurrentMode returns the active output mode.
func CurrentMode() Mode {
	modeMu.RLock()
	defer modeMu.RUnlock()
	return currentMode
}

// SetMode changes the output mode.
func SetMode(m Mode) {
	modeMu.Lock()
	defer modeMu.Unlock()
	currentMode = m
}

// ParseMode parses a mode name, falling back to ModeRich.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModePlain:
		return ModePlain
	case ModeMachine:
		return ModeMachine
	default:
		return ModeRich
	}
}

// InitMode picks the mode from OWSAVE_OUTPUT, NO_COLOR and whether stdout
// is a terminal.
func InitMode() {
	if env := os.Getenv("OWSAVE_OUTPUT"); env != "" {
		SetMode(ParseMode(env))
		return
	}
	if !IsTerminal(os.Stdout) {
		SetMode(ModeMachine)
		return
	}
	if os.Getenv("NO_COLOR") != "" {
		SetMode(ModePlain)
		return
	}
	SetMode(ModeRich)
}

// IsTerminal reports whether f is a terminal, including Cygwin ptys.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// IsInteractive reports whether both stdin and stdout are terminals, which
// the editor needs.
func IsInteractive() bool {
	return IsTerminal(os.Stdin) && IsTerminal(os.Stdout)
}
