// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package enums

import (
	"fmt"
	"strings"
)

// DeathType is the cause of the player's last death.
type DeathType int

const (
	DeathDefault DeathType = iota
	DeathImpact
	DeathAsphyxiation
	DeathEnergy
	DeathSupernova
	DeathDigestion
	DeathBigBang
	DeathCrushed
	DeathMeditation
	DeathTimeLoop
	DeathLava
	DeathBlackHole
	DeathDream
	DeathDreamExplosion
	DeathCrushedByElevator
)

var deathTypeNames = []string{
	"DEFAULT", "IMPACT", "ASPHYXIATION", "ENERGY", "SUPERNOVA", "DIGESTION",
	"BIG_BANG", "CRUSHED", "MEDITATION", "TIME_LOOP", "LAVA", "BLACK_HOLE",
	"DREAM", "DREAM_EXPLOSION", "CRUSHED_BY_ELEVATOR",
}

// DeathTypes returns every death type in code order.
func DeathTypes() []DeathType {
	out := make([]DeathType, len(deathTypeNames))
	for i := range out {
		out[i] = DeathType(i)
	}
	return out
}

// ParseDeathType validates a stored death type code.
func ParseDeathType(code int) (DeathType, error) {
	d := DeathType(code)
	if !d.Valid() {
		return 0, invalid("DeathType", code)
	}
	return d, nil
}

// Valid reports whether d is a defined death type.
func (d DeathType) Valid() bool { return d >= 0 && int(d) < len(deathTypeNames) }

func (d DeathType) String() string {
	if d.Valid() {
		return deathTypeNames[d]
	}
	return fmt.Sprintf("DeathType(%d)", int(d))
}

// StartupPopups is a bit set of popups already shown to the player.
type StartupPopups int

const (
	PopupsNone           StartupPopups = 0
	PopupsResetInputs    StartupPopups = 1
	PopupsReducedFrights StartupPopups = 2
	PopupsNewExhibit     StartupPopups = 4

	popupsAll = PopupsResetInputs | PopupsReducedFrights | PopupsNewExhibit
)

var popupFlags = []struct {
	flag StartupPopups
	name string
}{
	{PopupsResetInputs, "RESET_INPUTS"},
	{PopupsReducedFrights, "REDUCED_FRIGHTS"},
	{PopupsNewExhibit, "NEW_EXHIBIT"},
}

// PopupFlags returns the single-bit members in bit order.
func PopupFlags() []StartupPopups {
	out := make([]StartupPopups, len(popupFlags))
	for i, f := range popupFlags {
		out[i] = f.flag
	}
	return out
}

// ParseStartupPopups validates a stored flag set. Bits outside the defined
// members are rejected.
func ParseStartupPopups(code int) (StartupPopups, error) {
	p := StartupPopups(code)
	if !p.Valid() {
		return 0, invalid("StartupPopups", code)
	}
	return p, nil
}

// Valid reports whether p only has defined bits set.
func (p StartupPopups) Valid() bool { return p >= 0 && p&^popupsAll == 0 }

// Has reports whether every bit of flag is set.
func (p StartupPopups) Has(flag StartupPopups) bool { return flag != 0 && p&flag == flag }

// With returns p with flag set or cleared.
func (p StartupPopups) With(flag StartupPopups, on bool) StartupPopups {
	if on {
		return p | flag
	}
	return p &^ flag
}

// Names returns the names of the set members in bit order.
func (p StartupPopups) Names() []string {
	var names []string
	for _, f := range popupFlags {
		if p.Has(f.flag) {
			names = append(names, f.name)
		}
	}
	return names
}

// String joins member names with "|", or returns "NONE".
func (p StartupPopups) String() string {
	if !p.Valid() {
		return fmt.Sprintf("StartupPopups(%d)", int(p))
	}
	if p == PopupsNone {
		return "NONE"
	}
	return strings.Join(p.Names(), "|")
}
