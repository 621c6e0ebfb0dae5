// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package savefile

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owsavetools/owsave/services/saveedit/catalog"
	"github.com/owsavetools/owsave/services/saveedit/gamesave"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]string{"C1"}, []catalog.Fact{{ID: "F1"}}, nil, nil)
	require.NoError(t, err)
	return cat
}

// stepClock returns a clock that advances one second per call.
func stepClock() func() time.Time {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func TestStore_WriteRead(t *testing.T) {
	cat := testCatalog(t)
	path := filepath.Join(t.TempDir(), "data.json")
	s := NewStore(Options{BackupsEnabled: true, MaxBackups: 3, Now: stepClock()})

	g := gamesave.New(cat)
	g.LoopCount = 7
	backup, err := s.Write(path, g)
	require.NoError(t, err)
	assert.Empty(t, backup, "first write has nothing to back up")

	loaded, err := s.Read(path, cat)
	require.NoError(t, err)
	assert.True(t, gamesave.Equal(g, loaded))
}

func TestStore_ReadMissing(t *testing.T) {
	s := NewStore(DefaultOptions())
	_, err := s.Read(filepath.Join(t.TempDir(), "nope.json"), testCatalog(t))
	assert.ErrorIs(t, err, ErrReadFailed)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestStore_WriteFailureKeepsCause(t *testing.T) {
	s := NewStore(Options{Now: stepClock()})
	path := filepath.Join(t.TempDir(), "missing", "data.json")

	_, err := s.Write(path, gamesave.New(testCatalog(t)))
	assert.ErrorIs(t, err, ErrWriteFailed)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestStore_BackupsWithinSameMillisecond(t *testing.T) {
	cat := testCatalog(t)
	path := filepath.Join(t.TempDir(), "data.json")
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	s := NewStore(Options{BackupsEnabled: true, Now: func() time.Time { return fixed }})

	var made []string
	for i := 1; i <= 13; i++ {
		g := gamesave.New(cat)
		g.LoopCount = i
		b, err := s.Write(path, g)
		require.NoError(t, err, "write %d", i)
		if b != "" {
			made = append(made, b)
		}
	}
	require.Len(t, made, 12)
	assert.Equal(t, path+".backup.20240301-120000.000", made[0])
	assert.Equal(t, path+".backup.20240301-120000.000-11", made[11])

	backups, err := s.ListBackups(path)
	require.NoError(t, err)
	require.Len(t, backups, 12)
	for i, b := range backups {
		assert.Equal(t, made[len(made)-1-i], b.Path)
	}

	newest, err := s.Read(backups[0].Path, cat)
	require.NoError(t, err)
	assert.Equal(t, 12, newest.LoopCount)
}

func TestStore_ReadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := NewStore(DefaultOptions()).Read(path, testCatalog(t))
	assert.ErrorIs(t, err, gamesave.ErrMalformedInput)
	assert.NotErrorIs(t, err, ErrReadFailed)
}

func TestStore_BackupRotation(t *testing.T) {
	cat := testCatalog(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	s := NewStore(Options{BackupsEnabled: true, MaxBackups: 2, Now: stepClock()})

	var made []string
	for i := 1; i <= 4; i++ {
		g := gamesave.New(cat)
		g.LoopCount = i
		b, err := s.Write(path, g)
		require.NoError(t, err)
		if b != "" {
			made = append(made, b)
		}
	}
	require.Len(t, made, 3)

	backups, err := s.ListBackups(path)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, made[2], backups[0].Path)
	assert.Equal(t, made[1], backups[1].Path)
	assert.True(t, backups[0].Time.After(backups[1].Time))
	assert.NoFileExists(t, made[0])

	// newest backup holds the content before the last write
	old, err := s.Read(backups[0].Path, cat)
	require.NoError(t, err)
	assert.Equal(t, 3, old.LoopCount)
}

func TestStore_BackupsDisabled(t *testing.T) {
	cat := testCatalog(t)
	path := filepath.Join(t.TempDir(), "data.json")
	s := NewStore(Options{Now: stepClock()})

	for i := 0; i < 2; i++ {
		b, err := s.Write(path, gamesave.New(cat))
		require.NoError(t, err)
		assert.Empty(t, b)
	}
	backups, err := s.ListBackups(path)
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestStore_KeepsPermissionsAndLeavesNoTemp(t *testing.T) {
	cat := testCatalog(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	s := NewStore(Options{Now: stepClock()})
	_, err := s.Write(path, gamesave.New(cat))
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWatcher_ReportsExternalChangesOnly(t *testing.T) {
	cat := testCatalog(t)
	path := filepath.Join(t.TempDir(), "data.json")
	s := NewStore(Options{Now: stepClock()})
	_, err := s.Write(path, gamesave.New(cat))
	require.NoError(t, err)

	changes := make(chan Change, 4)
	w, err := NewWatcher(path, func(c Change) { changes <- c }, &WatcherOptions{DebounceWindow: 20 * time.Millisecond})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	// our own save, acknowledged
	g := gamesave.New(cat)
	g.LoopCount = 2
	_, err = s.Write(path, g)
	require.NoError(t, err)
	require.NoError(t, w.Acknowledge())

	select {
	case c := <-changes:
		t.Fatalf("unexpected change %+v", c)
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(path, []byte(`{"changed": true}`), 0o644))
	select {
	case c := <-changes:
		assert.Equal(t, ChangeModified, c.Op)
		assert.Equal(t, w.Path(), c.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("external change not reported")
	}

	require.NoError(t, os.Remove(path))
	select {
	case c := <-changes:
		assert.Equal(t, ChangeRemoved, c.Op)
	case <-time.After(5 * time.Second):
		t.Fatal("removal not reported")
	}
}
