// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/owsavetools/owsave/services/saveedit/catalog"
	"github.com/owsavetools/owsave/services/saveedit/gamesave"
)

// execute runs the root command with an isolated config and log dir.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("OWSAVE_OUTPUT", "machine")
	dir := t.TempDir()
	args = append([]string{
		"--config", filepath.Join(dir, "owsave.yaml"),
		"--log-dir", filepath.Join(dir, "logs"),
	}, args...)

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeSave(t *testing.T, g *gamesave.GameSave) string {
	t.Helper()
	data, err := g.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestDump(t *testing.T) {
	g := gamesave.New(catalog.Default())
	g.LoopCount = 42
	path := writeSave(t, g)

	out, _, err := execute(t, "dump", path)
	if err != nil {
		t.Fatalf("dump failed: %v", err)
	}
	if !strings.HasPrefix(out, "GameSave(") {
		t.Errorf("unexpected dump output: %q", out)
	}
	if !strings.Contains(out, "42") {
		t.Errorf("dump does not show the loop count: %q", out)
	}
}

func TestDump_MissingFile(t *testing.T) {
	_, _, err := execute(t, "dump", filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestCheck_Clean(t *testing.T) {
	path := writeSave(t, gamesave.New(catalog.Default()))

	out, _, err := execute(t, "check", path)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !strings.Contains(out, "OK: No problems found") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestCheck_ReportsProblems(t *testing.T) {
	cat := catalog.Default()
	g := gamesave.New(cat)
	id := cat.FactIDs()[0]
	f := g.LogFacts[id]
	f.RevealOrder = 3
	g.LogFacts[id] = f
	path := writeSave(t, g)

	out, _, err := execute(t, "check", path)
	if !errors.Is(err, errProblemsFound) {
		t.Fatalf("expected errProblemsFound, got %v", err)
	}
	if !strings.Contains(out, "ERROR: reveal orders have a gap before 3") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestCheck_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "check", path)
	if !errors.Is(err, gamesave.ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
	if !strings.Contains(out, "ERROR:") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestEditor_NeedsTerminal(t *testing.T) {
	_, _, err := execute(t)
	if !errors.Is(err, errNoTerminal) {
		t.Fatalf("expected errNoTerminal under go test, got %v", err)
	}
}

func TestRoot_RejectsArgs(t *testing.T) {
	if _, _, err := execute(t, "stray"); err == nil {
		t.Fatal("expected an error for a positional argument")
	}
}
