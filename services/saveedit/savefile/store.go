// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package savefile reads and writes save files on disk.
//
// # Description
//
// Store writes through a temp file and a rename so a crash never leaves a
// half-written save behind. Before overwriting, the current file is copied
// to "<name>.backup.<timestamp>" next to it; only the newest MaxBackups
// copies are kept. Watcher reports changes made to the open file by
// another program, such as the game itself.
package savefile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/owsavetools/owsave/services/saveedit/catalog"
	"github.com/owsavetools/owsave/services/saveedit/gamesave"
)

var (
	// ErrReadFailed wraps file system errors while opening a save.
	ErrReadFailed = errors.New("read save file failed")

	// ErrWriteFailed wraps file system errors while writing a save.
	ErrWriteFailed = errors.New("write save file failed")

	// ErrBackupFailed wraps errors while copying or rotating backups.
	ErrBackupFailed = errors.New("backup save file failed")
)

// backupInfix separates the save name from the timestamp.
const backupInfix = ".backup."

// backupStamp sorts lexically in time order.
const backupStamp = "20060102-150405.000"

const maxBackupCollisions = 1000

// Options configures a Store.
type Options struct {
	// BackupsEnabled copies the previous file before every overwrite.
	BackupsEnabled bool

	// MaxBackups is how many backups to keep per file. Zero keeps all.
	MaxBackups int

	// Logger receives structured logs. Nil means slog.Default().
	Logger *slog.Logger

	// Now is the clock used for backup names. Nil means time.Now.
	Now func() time.Time
}

// DefaultOptions returns backups on, keeping the newest five.
func DefaultOptions() Options {
	return Options{BackupsEnabled: true, MaxBackups: 5}
}

// Backup is one backup copy of a save file.
type Backup struct {
	Path string
	Time time.Time
}

// Store reads and writes save files.
//
// Thread Safety: NOT safe for concurrent writes to the same path. The
// editor issues one load or save at a time.
type Store struct {
	opts   Options
	logger *slog.Logger
}

// NewStore creates a store.
func NewStore(opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{opts: opts, logger: opts.Logger}
}

// Read loads the save at path.
//
// # Outputs
//
//   - *gamesave.GameSave: the loaded model.
//   - error: ErrReadFailed for file system errors, otherwise the errors of
//     gamesave.Load.
func (s *Store) Read(path string, cat *catalog.Catalog) (*gamesave.GameSave, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Error("Failed to read save file",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	g, err := gamesave.Load(data, cat)
	if err != nil {
		s.logger.Warn("Save file rejected",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	for _, w := range g.Warnings() {
		s.logger.Warn("Save file warning", slog.String("path", path), slog.String("warning", w))
	}
	s.logger.Info("Loaded save file",
		slog.String("path", path),
		slog.Int("size", len(data)),
		slog.Int("warnings", len(g.Warnings())),
	)
	return g, nil
}

// Write serializes g to path.
//
// # Description
//
// An existing file is first backed up (when enabled) and old backups are
// rotated out. The new content goes to a temp file in the same directory
// which is then renamed over path, keeping the original permissions.
//
// # Outputs
//
//   - string: the backup path, "" when no backup was made.
//   - error: ErrBackupFailed or ErrWriteFailed. A failed backup aborts the
//     write and leaves path untouched.
func (s *Store) Write(path string, g *gamesave.GameSave) (string, error) {
	data, err := g.Serialize()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	mode := os.FileMode(0o644)
	var backup string
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
		if s.opts.BackupsEnabled {
			backup, err = s.backup(path)
			if err != nil {
				return "", err
			}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	if err := writeAtomic(path, data, mode); err != nil {
		s.logger.Error("Failed to write save file",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return backup, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	s.logger.Info("Wrote save file",
		slog.String("path", path),
		slog.Int("size", len(data)),
		slog.String("backup", backup),
	)
	return backup, nil
}

func writeAtomic(path string, data []byte, mode os.FileMode) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// backup copies path next to itself. A name already taken within the
// same millisecond gets a "-N" suffix.
func (s *Store) backup(path string) (string, error) {
	base := path + backupInfix + s.opts.Now().Format(backupStamp)
	dst := base
	err := copyFile(path, dst)
	for n := 1; errors.Is(err, fs.ErrExist) && n <= maxBackupCollisions; n++ {
		dst = base + "-" + strconv.Itoa(n)
		err = copyFile(path, dst)
	}
	if err != nil {
		s.logger.Error("Failed to back up save file",
			slog.String("path", path),
			slog.String("backup", dst),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("%w: %w", ErrBackupFailed, err)
	}
	s.logger.Debug("Backed up save file", slog.String("path", path), slog.String("backup", dst))

	if err := s.rotate(path); err != nil {
		return dst, err
	}
	return dst, nil
}

func (s *Store) rotate(path string) error {
	if s.opts.MaxBackups <= 0 {
		return nil
	}
	backups, err := s.ListBackups(path)
	if err != nil {
		return err
	}
	for _, b := range backups[min(len(backups), s.opts.MaxBackups):] {
		if err := os.Remove(b.Path); err != nil {
			return fmt.Errorf("%w: remove %s: %w", ErrBackupFailed, b.Path, err)
		}
		s.logger.Debug("Removed old backup", slog.String("backup", b.Path))
	}
	return nil
}

// ListBackups returns the backups of path, newest first.
func (s *Store) ListBackups(path string) ([]Backup, error) {
	pattern := escapeGlob(path) + backupInfix + "*"
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackupFailed, err)
	}

	type found struct {
		b   Backup
		seq int
	}
	var all []found
	prefix := path + backupInfix
	for _, m := range matches {
		ts, seq, ok := parseBackupSuffix(strings.TrimPrefix(m, prefix))
		if !ok {
			continue
		}
		all = append(all, found{Backup{Path: m, Time: ts}, seq})
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].b.Time.Equal(all[j].b.Time) {
			return all[i].b.Time.After(all[j].b.Time)
		}
		return all[i].seq > all[j].seq
	})

	out := make([]Backup, len(all))
	for i, f := range all {
		out[i] = f.b
	}
	return out, nil
}

// parseBackupSuffix reads "<stamp>" or "<stamp>-N".
func parseBackupSuffix(suffix string) (time.Time, int, bool) {
	if len(suffix) < len(backupStamp) {
		return time.Time{}, 0, false
	}
	ts, err := time.ParseInLocation(backupStamp, suffix[:len(backupStamp)], time.Local)
	if err != nil {
		return time.Time{}, 0, false
	}
	rest := suffix[len(backupStamp):]
	if rest == "" {
		return ts, 0, true
	}
	if !strings.HasPrefix(rest, "-") {
		return time.Time{}, 0, false
	}
	seq, err := strconv.Atoi(rest[1:])
	if err != nil || seq < 1 {
		return time.Time{}, 0, false
	}
	return ts, seq, true
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}

func escapeGlob(path string) string {
	var b strings.Builder
	for _, r := range path {
		switch r {
		case '*', '?', '[', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
