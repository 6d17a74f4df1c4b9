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
	"encoding/json"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	fenecerrors "github.com/kraklabs/fenec/internal/errors"
	"github.com/kraklabs/fenec/internal/ui"
	"github.com/kraklabs/fenec/pkg/export"
	"github.com/kraklabs/fenec/pkg/graph"
)

type statusReport struct {
	ProjectID    string         `json:"project_id"`
	Backend      string         `json:"backend"`
	LastCommit   string         `json:"last_commit,omitempty"`
	Entities     map[string]int `json:"entities"`
	Summarized   int            `json:"summarized"`
	Unsummarized int            `json:"unsummarized"`
}

// runStatus executes the 'status' CLI command, reporting what the graph
// store currently holds.
func runStatus(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: fenec status

Description:
  Show entity counts per kind, summarization coverage, and the VCS marker
  the next 'fenec update' will diff against.

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		fenecerrors.FatalErrorf("%v", err)
	}

	logger := newLogger(globals)
	ctx, cancel := signalContext(logger)
	defer cancel()

	gs, _, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		fenecerrors.FatalErrorf("%v", err)
	}
	defer closeStores()

	entities, err := gs.All(ctx)
	if err != nil {
		fenecerrors.FatalErrorf("read graph store: %v", err)
	}

	report := statusReport{
		ProjectID: cfg.ProjectID,
		Backend:   cfg.Store.Backend,
		Entities:  make(map[string]int),
	}
	for _, e := range entities {
		report.Entities[e.Kind().String()]++
		if e.Summary() != "" {
			report.Summarized++
		} else if e.Kind() != graph.BlockTypeDirectory || len(e.ChildrenIDs()) > 0 {
			report.Unsummarized++
		}
	}
	if marker, err := export.ReadLastCommit(cfg.Store.OutputDir); err == nil {
		report.LastCommit = marker
	}

	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fenecerrors.FatalErrorf("encode status: %v", err)
		}
		return
	}

	ui.Header("Project %s", report.ProjectID)
	ui.SubHeader("Backend: %s", report.Backend)
	if report.LastCommit != "" {
		ui.SubHeader("Last indexed commit: %s", report.LastCommit)
	}
	total := 0
	for kind, n := range report.Entities {
		ui.SubHeader("%s: %d", kind, n)
		total += n
	}
	if total == 0 {
		ui.Warn("Graph store is empty; run 'fenec index'")
		return
	}
	ui.SubHeader("Summarized: %d / %d", report.Summarized, total)
}
