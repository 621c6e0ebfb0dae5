// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.NotEmpty(t, c.Conditions())
	assert.NotEmpty(t, c.FactIDs())
	assert.True(t, c.HasFact("TH_VILLAGE_X1"))
	assert.True(t, c.HasCondition("LAUNCH_CODES_GIVEN"))
	assert.NotEmpty(t, c.Description("TH_VILLAGE_X1"))

	name, ok := c.FrequencyName(6)
	assert.True(t, ok)
	assert.Equal(t, "Deep Space Radio", name)
}

func TestParse_Duplicates(t *testing.T) {
	_, err := Parse([]byte("conditions: [A, A]\n"))
	assert.True(t, errors.Is(err, ErrInvalidCatalog))

	_, err = Parse([]byte("facts:\n  - id: X\n  - id: X\n"))
	assert.True(t, errors.Is(err, ErrInvalidCatalog))

	_, err = Parse([]byte("facts:\n  - description: no id\n"))
	assert.True(t, errors.Is(err, ErrInvalidCatalog))
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("conditions: {"))
	assert.ErrorIs(t, err, ErrInvalidCatalog)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cat.yaml")
	doc := "conditions: [C1]\nfacts:\n  - id: F1\n    description: first\n  - id: F2\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"C1"}, c.Conditions())
	assert.Equal(t, []string{"F1", "F2"}, c.FactIDs())
	assert.Equal(t, "first", c.Description("F1"))
	assert.Equal(t, "", c.Description("nope"))

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestAccessorsReturnCopies(t *testing.T) {
	c, err := New([]string{"A"}, []Fact{{ID: "F"}}, nil, nil)
	require.NoError(t, err)

	conds := c.Conditions()
	conds[0] = "mutated"
	assert.Equal(t, []string{"A"}, c.Conditions())
}
