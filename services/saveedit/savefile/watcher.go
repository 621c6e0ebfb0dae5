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
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeOp is the kind of external change.
type ChangeOp int

const (
	// ChangeModified means the file has new content.
	ChangeModified ChangeOp = iota

	// ChangeRemoved means the file is gone.
	ChangeRemoved
)

func (op ChangeOp) String() string {
	switch op {
	case ChangeModified:
		return "modified"
	case ChangeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Change is an external change to the watched file.
type Change struct {
	Path string
	Op   ChangeOp
	Time time.Time
}

// ChangeHandler is called from the watcher goroutine.
type ChangeHandler func(Change)

// Watcher reports changes to one file made by other programs.
//
// # Description
//
// The parent directory is watched rather than the file, so replacements
// through rename (the usual way editors and this program save) are seen.
// Events are debounced; when the window closes the file is hashed and
// compared with the last acknowledged content, so the editor's own saves
// are not reported. The watcher never touches the editor's model.
//
// # Thread Safety
//
// Safe for concurrent use. The handler is called from a single goroutine.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	handler  ChangeHandler
	debounce time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	digest []byte
	gone   bool

	events   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	// DebounceWindow is how long to wait for more events. Default: 200ms.
	DebounceWindow time.Duration

	// Logger receives structured logs. Nil means slog.Default().
	Logger *slog.Logger
}

// NewWatcher creates a watcher for path. The current content counts as
// acknowledged.
func NewWatcher(path string, handler ChangeHandler, opts *WatcherOptions) (*Watcher, error) {
	if opts == nil {
		opts = &WatcherOptions{}
	}
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = 200 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     abs,
		watcher:  fw,
		handler:  handler,
		debounce: opts.DebounceWindow,
		logger:   opts.Logger,
		events:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	if err := w.Acknowledge(); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Path is the watched file.
func (w *Watcher) Path() string { return w.path }

// Acknowledge records the current file content as known, so that it is
// not reported. Call it after loading or saving.
func (w *Watcher) Acknowledge() error {
	sum, err := digestFile(w.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	w.mu.Lock()
	w.digest = sum
	w.gone = sum == nil
	w.mu.Unlock()
	return nil
}

// Start begins watching. It returns once the directory watch is in place.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			select {
			case w.events <- struct{}{}:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", slog.String("path", w.path), slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-w.events:
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			w.check()
		}
	}
}

// check compares the file with the acknowledged content and reports a
// difference once.
func (w *Watcher) check() {
	sum, err := digestFile(w.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		w.logger.Warn("Cannot read watched file", slog.String("path", w.path), slog.String("error", err.Error()))
		return
	}

	w.mu.Lock()
	var change *Change
	switch {
	case sum == nil && !w.gone:
		change = &Change{Path: w.path, Op: ChangeRemoved, Time: time.Now()}
	case sum != nil && !bytes.Equal(sum, w.digest):
		change = &Change{Path: w.path, Op: ChangeModified, Time: time.Now()}
	}
	w.digest = sum
	w.gone = sum == nil
	w.mu.Unlock()

	if change != nil && w.handler != nil {
		w.logger.Info("Save file changed on disk", slog.String("path", w.path), slog.String("op", change.Op.String()))
		w.handler(*change)
	}
}

func digestFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	return sum[:], nil
}
