// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package entry provides the typed, displayable and validated view over one
// save field that the editor tree is built from.
//
// # Description
//
// An Entry is a closed tagged variant: its Kind decides how the value is
// displayed, parsed from text, toggled and validated. Every operation
// switches over the full set of kinds, so adding a kind means extending
// each switch.
//
// Entries hold copies of model values. The tree writes them back into a
// fresh model when it is flattened.
package entry

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/owsavetools/owsave/pkg/tristate"
	"github.com/owsavetools/owsave/services/saveedit/enums"
	"github.com/owsavetools/owsave/services/saveedit/gamesave"
)

// Kind is the value type of an entry.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindText
	KindBool
	KindTriState
	KindEnum
	KindFlags
	KindList
	KindLogFact
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindTriState:
		return "tristate"
	case KindEnum:
		return "enum"
	case KindFlags:
		return "flags"
	case KindList:
		return "list"
	case KindLogFact:
		return "logfact"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Hint is the semantic color of a displayed value.
type Hint int

const (
	HintNone Hint = iota
	HintTrue
	HintFalse
	HintUnknown
)

// RevealOrderer renumbers log facts. The tree implements it so that a
// log-fact entry can delegate order changes to the owner of all facts.
type RevealOrderer interface {
	SetRevealOrder(id string, order int) error
	MaxRevealOrder() int
}

var (
	intPattern   = regexp.MustCompile(`^-?[0-9]*$`)
	floatPattern = regexp.MustCompile(`^-?[0-9]*(?:\.[0-9]*)?$`)
)

// Entry is one editable value.
type Entry struct {
	name       string
	kind       Kind
	value      any
	disabled   bool
	validators []Validator
	orderer    RevealOrderer
}

// NewInt returns an integer entry.
func NewInt(name string, v int, validators ...Validator) *Entry {
	return &Entry{name: name, kind: KindInt, value: v, validators: validators}
}

// NewFloat returns a float entry.
func NewFloat(name string, v float64, validators ...Validator) *Entry {
	return &Entry{name: name, kind: KindFloat, value: v, validators: validators}
}

// NewText returns a free text entry.
func NewText(name, v string) *Entry {
	return &Entry{name: name, kind: KindText, value: v}
}

// NewBool returns a boolean entry.
func NewBool(name string, v bool) *Entry {
	return &Entry{name: name, kind: KindBool, value: v}
}

// NewTriState returns a tri-state entry.
func NewTriState(name string, v tristate.Value) *Entry {
	return &Entry{name: name, kind: KindTriState, value: v}
}

// NewEnum returns a death type entry.
func NewEnum(name string, v enums.DeathType) *Entry {
	return &Entry{name: name, kind: KindEnum, value: v}
}

// NewFlags returns a startup popups entry.
func NewFlags(name string, v enums.StartupPopups) *Entry {
	return &Entry{name: name, kind: KindFlags, value: v}
}

// NewList returns a read-only list of strings.
func NewList(name string, v []string) *Entry {
	return &Entry{name: name, kind: KindList, value: append([]string{}, v...)}
}

// NewLogFact returns an entry over a whole fact record. Order changes go
// through o.
func NewLogFact(f gamesave.LogFact, o RevealOrderer) *Entry {
	e := &Entry{name: f.ID, kind: KindLogFact, value: f, orderer: o}
	e.validators = []Validator{RevealRange(o.MaxRevealOrder)}
	return e
}

// Disable makes the entry read-only.
func (e *Entry) Disable() *Entry {
	e.disabled = true
	return e
}

func (e *Entry) Name() string { return e.name }
func (e *Entry) Kind() Kind   { return e.kind }

// Get returns the current value. Lists are returned as a copy.
func (e *Entry) Get() any {
	if l, ok := e.value.([]string); ok {
		return append([]string{}, l...)
	}
	return e.value
}

// Disabled reports whether Disable was called.
func (e *Entry) Disabled() bool { return e.disabled }

// Editable reports whether the entry accepts edits.
func (e *Entry) Editable() bool {
	return !e.disabled && e.kind != KindList
}

// Set replaces the value.
//
// # Description
//
// The value must have the entry's type; integer codes are also accepted
// for enum and flag entries, and bool or nil for tri-state entries. For a
// log-fact entry v is the requested reveal order and the change is
// delegated to the RevealOrderer, which stores the renumbered record back
// through StoreLogFact.
//
// # Outputs
//
//   - error: *ValidationError (ErrValidation) when the value is refused.
//     The entry is unchanged in that case.
func (e *Entry) Set(v any) error {
	if !e.Editable() {
		return reject(e.name, v, "entry is read-only")
	}

	var next any
	switch e.kind {
	case KindInt:
		n, ok := v.(int)
		if !ok {
			return e.wrongType(v)
		}
		next = n
	case KindFloat:
		switch f := v.(type) {
		case float64:
			if math.IsInf(f, 0) || math.IsNaN(f) {
				return reject(e.name, v, "not a finite number")
			}
			next = f
		case int:
			next = float64(f)
		default:
			return e.wrongType(v)
		}
	case KindText:
		s, ok := v.(string)
		if !ok {
			return e.wrongType(v)
		}
		next = s
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return e.wrongType(v)
		}
		next = b
	case KindTriState:
		t, err := tristate.New(v)
		if err != nil {
			return reject(e.name, v, "%v", err)
		}
		next = t
	case KindEnum:
		d, err := toDeathType(v)
		if err != nil {
			return reject(e.name, v, "%v", err)
		}
		next = d
	case KindFlags:
		p, err := toPopups(v)
		if err != nil {
			return reject(e.name, v, "%v", err)
		}
		next = p
	case KindLogFact:
		order, ok := v.(int)
		if !ok {
			return e.wrongType(v)
		}
		if err := e.runValidators(order); err != nil {
			return err
		}
		if err := e.orderer.SetRevealOrder(e.name, order); err != nil {
			return fmt.Errorf("set reveal order of %s: %w", e.name, err)
		}
		return nil
	default:
		return reject(e.name, v, "unsupported kind %s", e.kind)
	}

	if err := e.runValidators(next); err != nil {
		return err
	}
	e.value = next
	return nil
}

// StoreLogFact writes a record without renumbering. The tree uses it to
// push renumbered records back into every fact entry.
func (e *Entry) StoreLogFact(f gamesave.LogFact) {
	if e.kind == KindLogFact {
		e.value = f
	}
}

// LogFact returns the record of a log-fact entry.
func (e *Entry) LogFact() (gamesave.LogFact, bool) {
	f, ok := e.value.(gamesave.LogFact)
	return f, ok
}

func (e *Entry) runValidators(v any) error {
	for _, check := range e.validators {
		if err := check(v); err != nil {
			return reject(e.name, v, "%v", err)
		}
	}
	return nil
}

func (e *Entry) wrongType(v any) error {
	return reject(e.name, v, "expected %s, got %T", e.kind, v)
}

// Toggle flips a bool entry or cycles a tri-state entry.
func (e *Entry) Toggle() error {
	switch e.kind {
	case KindBool:
		return e.Set(!e.value.(bool))
	case KindTriState:
		return e.Set(e.value.(tristate.Value).Cycle())
	default:
		return reject(e.name, e.value, "%s entries cannot be toggled", e.kind)
	}
}

// Toggleable reports whether Toggle applies.
func (e *Entry) Toggleable() bool {
	return e.Editable() && (e.kind == KindBool || e.kind == KindTriState)
}

// TextEditable reports whether the entry is edited through text input.
func (e *Entry) TextEditable() bool {
	if !e.Editable() {
		return false
	}
	switch e.kind {
	case KindInt, KindFloat, KindText, KindLogFact:
		return true
	}
	return false
}

// Label is the display form of the value.
func (e *Entry) Label() string {
	switch e.kind {
	case KindInt:
		return strconv.Itoa(e.value.(int))
	case KindFloat:
		return strconv.FormatFloat(e.value.(float64), 'f', -1, 64)
	case KindText:
		return strconv.Quote(e.value.(string))
	case KindBool:
		return strconv.FormatBool(e.value.(bool))
	case KindTriState, KindEnum, KindFlags:
		return fmt.Sprint(e.value)
	case KindList:
		return "[" + strings.Join(e.value.([]string), ", ") + "]"
	case KindLogFact:
		return logFactLabel(e.value.(gamesave.LogFact))
	}
	return fmt.Sprint(e.value)
}

func logFactLabel(f gamesave.LogFact) string {
	var b strings.Builder
	if f.Revealed() {
		fmt.Fprintf(&b, "#%d", f.RevealOrder)
	} else {
		b.WriteString("hidden")
	}
	if f.Read {
		b.WriteString(" read")
	}
	if f.NewlyRevealed {
		b.WriteString(" new")
	}
	return b.String()
}

// Hint is the semantic color of the value.
func (e *Entry) Hint() Hint {
	switch e.kind {
	case KindBool:
		if e.value.(bool) {
			return HintTrue
		}
		return HintFalse
	case KindTriState:
		switch e.value.(tristate.Value) {
		case tristate.True:
			return HintTrue
		case tristate.False:
			return HintFalse
		default:
			return HintUnknown
		}
	case KindLogFact:
		if e.value.(gamesave.LogFact).Revealed() {
			return HintTrue
		}
		return HintFalse
	}
	return HintNone
}

// InputType names the text input the entry expects, "" when the entry is
// not edited through text.
func (e *Entry) InputType() string {
	switch e.kind {
	case KindInt, KindLogFact:
		return "integer"
	case KindFloat:
		return "number"
	case KindText:
		return "text"
	}
	return ""
}

// InputPattern restricts keystrokes of the text input. Nil means any text.
func (e *Entry) InputPattern() *regexp.Regexp {
	switch e.kind {
	case KindInt, KindLogFact:
		return intPattern
	case KindFloat:
		return floatPattern
	}
	return nil
}

// InputValue is the initial text of the input box.
func (e *Entry) InputValue() string {
	switch e.kind {
	case KindText:
		return e.value.(string)
	case KindLogFact:
		return strconv.Itoa(e.value.(gamesave.LogFact).RevealOrder)
	}
	return e.Label()
}

// Parse converts committed text to a value Set accepts.
func (e *Entry) Parse(text string) (any, error) {
	switch e.kind {
	case KindInt, KindLogFact:
		n, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			return nil, reject(e.name, text, "not an integer")
		}
		return n, nil
	case KindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return nil, reject(e.name, text, "not a number")
		}
		return f, nil
	case KindText:
		return text, nil
	default:
		return nil, reject(e.name, text, "%s entries are not edited as text", e.kind)
	}
}

// Commit parses text and sets the result.
func (e *Entry) Commit(text string) error {
	v, err := e.Parse(text)
	if err != nil {
		return err
	}
	return e.Set(v)
}

func toDeathType(v any) (enums.DeathType, error) {
	switch d := v.(type) {
	case enums.DeathType:
		return enums.ParseDeathType(int(d))
	case int:
		return enums.ParseDeathType(d)
	}
	return 0, fmt.Errorf("expected DeathType, got %T", v)
}

func toPopups(v any) (enums.StartupPopups, error) {
	switch p := v.(type) {
	case enums.StartupPopups:
		return enums.ParseStartupPopups(int(p))
	case int:
		return enums.ParseStartupPopups(p)
	}
	return 0, fmt.Errorf("expected StartupPopups, got %T", v)
}
