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
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/owsavetools/owsave/cmd/owsave/config"
	"github.com/owsavetools/owsave/pkg/logging"
	"github.com/owsavetools/owsave/pkg/ux"
	"github.com/owsavetools/owsave/services/saveedit/catalog"
	"github.com/owsavetools/owsave/services/saveedit/savefile"
	"github.com/owsavetools/owsave/services/saveedit/tree"
	"github.com/owsavetools/owsave/services/saveedit/tui"
)

var errNoTerminal = errors.New("the editor needs a terminal; use `owsave dump FILE` to print a save")

// options are the flag values shared by every command.
type options struct {
	file       string
	outfile    string
	configPath string
	logDir     string
	debug      bool
}

// runtime is what a command needs once config and logging are set up.
type runtime struct {
	cfg     config.OwsaveConfig
	logger  *logging.Logger
	catalog *catalog.Catalog
	store   *savefile.Store
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "owsave",
		Short: "Edit Outer Wilds save files",
		Long: `owsave opens an Outer Wilds save file in an interactive editor.
Conditions, signals, frequencies and ship log facts can be changed and
the file is written back with a backup of the previous version.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ux.InitMode()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEditor(cmd, opts)
		},
	}

	root.Flags().StringVarP(&opts.file, "file", "f", "", "save file to open on startup")
	root.Flags().StringVarP(&opts.outfile, "outfile", "o", "", "write saves here instead of the opened file")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.owsave/owsave.yaml)")
	root.PersistentFlags().StringVar(&opts.logDir, "log-dir", "", "directory for log files")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "log at debug level")

	root.AddCommand(newDumpCmd(opts), newCheckCmd(opts))
	return root
}

// setup loads the config and builds the logger, catalog and store. Quiet
// keeps logs off the terminal.
func setup(cmd *cobra.Command, opts *options, quiet bool) (*runtime, error) {
	cfg, err := config.Load(opts.configPath, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	if opts.logDir != "" {
		cfg.Logging.Dir = opts.logDir
	}
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	if opts.debug {
		level = logging.LevelDebug
	}

	logger := logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "owsave",
		Quiet:   quiet,
	})

	cat := catalog.Default()
	if cfg.Catalog != "" {
		if cat, err = catalog.Load(logging.ExpandPath(cfg.Catalog)); err != nil {
			logger.Close()
			return nil, err
		}
	}

	store := savefile.NewStore(savefile.Options{
		BackupsEnabled: cfg.Backups.Enabled,
		MaxBackups:     cfg.Backups.Max,
		Logger:         logger.Slog(),
	})
	return &runtime{cfg: cfg, logger: logger, catalog: cat, store: store}, nil
}

func runEditor(cmd *cobra.Command, opts *options) error {
	if !ux.IsInteractive() {
		return errNoTerminal
	}
	rt, err := setup(cmd, opts, true)
	if err != nil {
		return err
	}
	defer rt.logger.Close()

	sortMode, err := tree.ParseSortMode(rt.cfg.Editor.FactSort)
	if err != nil {
		return err
	}

	rt.logger.Info("Starting editor",
		slog.String("file", opts.file),
		slog.String("outfile", opts.outfile),
		slog.String("log_file", rt.logger.FilePath()),
	)
	err = tui.Run(cmd.Context(), tui.Config{
		Catalog:     rt.catalog,
		Store:       rt.store,
		Logger:      rt.logger.Slog(),
		InitialPath: opts.file,
		OutPath:     opts.outfile,
		FactSort:    sortMode,
		ConfirmSave: rt.cfg.Editor.ConfirmSave,
		Watch:       rt.cfg.Editor.WatchFile,
	})
	if err != nil {
		rt.logger.Error("Editor exited with an error", slog.String("error", err.Error()))
		return fmt.Errorf("editor: %w", err)
	}
	return nil
}
