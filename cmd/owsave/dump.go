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

	"github.com/spf13/cobra"

	"github.com/owsavetools/owsave/pkg/ux"
)

var errProblemsFound = errors.New("problems found")

func newDumpCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dump FILE",
		Short: "Print a save file in readable form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd, opts, !opts.debug)
			if err != nil {
				return err
			}
			defer rt.logger.Close()

			g, err := rt.store.Read(args[0], rt.catalog)
			if err != nil {
				return err
			}
			errs := ux.NewPrinter(cmd.ErrOrStderr())
			for _, w := range g.Warnings() {
				errs.Warning(w)
			}
			return g.Pretty(cmd.OutOrStdout())
		},
	}
}

// newCheckCmd reports load warnings and consistency problems. Warnings
// alone do not fail the command.
func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Report problems in a save file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd, opts, !opts.debug)
			if err != nil {
				return err
			}
			defer rt.logger.Close()

			p := ux.NewPrinter(cmd.OutOrStdout())
			p.Title("Checking " + args[0])
			g, err := rt.store.Read(args[0], rt.catalog)
			if err != nil {
				p.Error(err.Error())
				return err
			}
			for _, w := range g.Warnings() {
				p.Warning(w)
			}
			problems := g.Check()
			for _, msg := range problems {
				p.Error(msg)
			}
			if len(problems) > 0 {
				return fmt.Errorf("%w: %d", errProblemsFound, len(problems))
			}
			p.Success("No problems found")
			return nil
		},
	}
}
