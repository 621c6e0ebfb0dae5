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

import "fmt"

// Signal identifies a signalscope signal source.
type Signal int

const (
	TravelerEsker                Signal = 10
	TravelerChert                Signal = 11
	TravelerRiebeck              Signal = 12
	TravelerGabbro               Signal = 13
	TravelerFeldspar             Signal = 14
	TravelerNomai                Signal = 15
	TravelerPrisoner             Signal = 16
	QuantumCTShard               Signal = 20
	QuantumTHMuseumShard         Signal = 21
	QuantumTHGroveShard          Signal = 22
	QuantumBHShard               Signal = 23
	QuantumGDShard               Signal = 24
	QuantumQM                    Signal = 25
	EscapePodCT                  Signal = 30
	EscapePodBH                  Signal = 31
	EscapePodDB                  Signal = 32
	WhiteHoleWH                  Signal = 40
	WhiteHoleSSReceiver          Signal = 41
	WhiteHoleCTReceiver          Signal = 42
	WhiteHoleCTExperiment        Signal = 43
	WhiteHoleTTReceiver          Signal = 44
	WhiteHoleTTTimeLoopCore      Signal = 45
	WhiteHoleTHReceiver          Signal = 46
	WhiteHoleBHNorthPoleReceiver Signal = 47
	WhiteHoleBHForgeReceiver     Signal = 48
	WhiteHoleGDReceiver          Signal = 49
	HideAndSeekGalena            Signal = 60
	HideAndSeekTephra            Signal = 61
	HideAndSeekArkose            Signal = 62
	RadioTower                   Signal = 100
	MapSatellite                 Signal = 101
)

// signalNames holds the in-game names, which are also the display names.
var signalNames = map[Signal]string{
	TravelerEsker:                "Traveler_Esker",
	TravelerChert:                "Traveler_Chert",
	TravelerRiebeck:              "Traveler_Riebeck",
	TravelerGabbro:               "Traveler_Gabbro",
	TravelerFeldspar:             "Traveler_Feldspar",
	TravelerNomai:                "Traveler_Nomai",
	TravelerPrisoner:             "Traveler_Prisoner",
	QuantumCTShard:               "Quantum_CT_Shard",
	QuantumTHMuseumShard:         "Quantum_TH_MuseumShard",
	QuantumTHGroveShard:          "Quantum_TH_GroveShard",
	QuantumBHShard:               "Quantum_BH_Shard",
	QuantumGDShard:               "Quantum_GD_Shard",
	QuantumQM:                    "Quantum_QM",
	EscapePodCT:                  "EscapePod_CT",
	EscapePodBH:                  "EscapePod_BH",
	EscapePodDB:                  "EscapePod_DB",
	WhiteHoleWH:                  "WhiteHole_WH",
	WhiteHoleSSReceiver:          "WhiteHole_SS_Receiver",
	WhiteHoleCTReceiver:          "WhiteHole_CT_Receiver",
	WhiteHoleCTExperiment:        "WhiteHole_CT_Experiment",
	WhiteHoleTTReceiver:          "WhiteHole_TT_Receiver",
	WhiteHoleTTTimeLoopCore:      "WhiteHole_TT_TimeLoopCore",
	WhiteHoleTHReceiver:          "WhiteHole_TH_Receiver",
	WhiteHoleBHNorthPoleReceiver: "WhiteHole_BH_NorthPoleReceiver",
	WhiteHoleBHForgeReceiver:     "WhiteHole_BH_ForgeReceiver",
	WhiteHoleGDReceiver:          "WhiteHole_GD_Receiver",
	HideAndSeekGalena:            "HideAndSeek_Galena",
	HideAndSeekTephra:            "HideAndSeek_Tephra",
	HideAndSeekArkose:            "HideAndSeek_Arkose",
	RadioTower:                   "RadioTower",
	MapSatellite:                 "MapSatellite",
}

// allSignals is in increasing code order.
var allSignals = []Signal{
	TravelerEsker, TravelerChert, TravelerRiebeck, TravelerGabbro, TravelerFeldspar,
	TravelerNomai, TravelerPrisoner,
	QuantumCTShard, QuantumTHMuseumShard, QuantumTHGroveShard, QuantumBHShard,
	QuantumGDShard, QuantumQM,
	EscapePodCT, EscapePodBH, EscapePodDB,
	WhiteHoleWH, WhiteHoleSSReceiver, WhiteHoleCTReceiver, WhiteHoleCTExperiment,
	WhiteHoleTTReceiver, WhiteHoleTTTimeLoopCore, WhiteHoleTHReceiver,
	WhiteHoleBHNorthPoleReceiver, WhiteHoleBHForgeReceiver, WhiteHoleGDReceiver,
	HideAndSeekGalena, HideAndSeekTephra, HideAndSeekArkose,
	RadioTower, MapSatellite,
}

// Signals returns every defined signal in increasing code order.
func Signals() []Signal {
	out := make([]Signal, len(allSignals))
	copy(out, allSignals)
	return out
}

// ParseSignal validates a stored signal code.
func ParseSignal(code int) (Signal, error) {
	s := Signal(code)
	if !s.Valid() {
		return 0, invalid("Signal", code)
	}
	return s, nil
}

// Valid reports whether s is a defined signal.
func (s Signal) Valid() bool {
	_, ok := signalNames[s]
	return ok
}

// String returns the in-game signal name.
func (s Signal) String() string {
	if name, ok := signalNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Signal(%d)", int(s))
}

// Frequency identifies a signalscope frequency band.
type Frequency int

const (
	// FrequencyBase is the default band; it is always known.
	FrequencyBase Frequency = iota
	FrequencyTraveler
	FrequencyQuantum
	FrequencyEscapePod
	FrequencyWarpCore
	FrequencyHideAndSeek
	FrequencyRadio
)

// FrequencyCount is the length of the knownFrequencies list.
const FrequencyCount = 7

var frequencyNames = [FrequencyCount]string{
	"_", "Traveler", "Quantum", "EscapePod", "WarpCore", "HideAndSeek", "Radio",
}

// Frequencies returns every band in code order.
func Frequencies() []Frequency {
	out := make([]Frequency, FrequencyCount)
	for i := range out {
		out[i] = Frequency(i)
	}
	return out
}

// ParseFrequency validates a frequency code.
func ParseFrequency(code int) (Frequency, error) {
	f := Frequency(code)
	if !f.Valid() {
		return 0, invalid("Frequency", code)
	}
	return f, nil
}

// Valid reports whether f is a defined band.
func (f Frequency) Valid() bool { return f >= 0 && f < FrequencyCount }

func (f Frequency) String() string {
	if f.Valid() {
		return frequencyNames[f]
	}
	return fmt.Sprintf("Frequency(%d)", int(f))
}
