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
	"path/filepath"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"

	fenecerrors "github.com/kraklabs/fenec/internal/errors"
	"github.com/kraklabs/fenec/internal/ui"
)

// runInit executes the 'init' CLI command, writing .fenec/project.yaml into
// the current directory.
func runInit(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite an existing .fenec/project.yaml")
	projectID := fs.String("project-id", "", "Project identifier (default: <dir-name>-<short-uuid>)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: fenec init [options]

Description:
  Create a .fenec/project.yaml configuration in the current directory with
  defaults for the store backend, LLM endpoint, and summarization engine.
  Edit the file afterwards to point at your parser frontend and LLM.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  fenec init
  fenec init --project-id my-service --force

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		fenecerrors.FatalErrorf("determine working directory: %v", err)
	}

	path := ConfigPath(cwd)
	if _, err := os.Stat(path); err == nil && !*force {
		fenecerrors.FatalErrorf("%s already exists; pass --force to overwrite", path)
	}

	id := *projectID
	if id == "" {
		id = filepath.Base(cwd) + "-" + uuid.NewString()[:8]
	}

	cfg := DefaultConfig(id)
	if err := SaveConfig(cfg, path); err != nil {
		fenecerrors.FatalErrorf("%v", err)
	}

	ui.Success("Created %s", path)
	ui.SubHeader("project_id: %s", id)
	ui.SubHeader("Next: set indexing.parser_command, then run 'fenec index'")
}
