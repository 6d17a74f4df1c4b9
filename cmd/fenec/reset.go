// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	fenecerrors "github.com/kraklabs/fenec/internal/errors"
	"github.com/kraklabs/fenec/internal/ui"
)

// runReset executes the 'reset' CLI command, deleting all locally stored
// graph data and exports for this project.
func runReset(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	confirm := fs.Bool("yes", false, "Confirm the reset (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: fenec reset [options]

Description:
  WARNING: destructive. Deletes the project's local data directory (the
  CozoDB store, when configured) and the JSON export directory, including
  the last-commit marker. Configuration (.fenec/project.yaml) is kept.
  Re-run 'fenec index' afterwards to rebuild everything.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  fenec reset --yes

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if !*confirm {
		fenecerrors.FatalError("the --yes flag is required to confirm this destructive operation")
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		fenecerrors.FatalErrorf("%v", err)
	}

	for _, dir := range []string{cfg.Store.DataDir, cfg.Store.OutputDir} {
		if dir == "" {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			fenecerrors.FatalErrorf("remove %s: %v", dir, err)
		}
		ui.Success("Removed %s", dir)
	}
}
