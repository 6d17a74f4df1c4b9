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
	"github.com/kraklabs/fenec/pkg/export"
	"github.com/kraklabs/fenec/pkg/graph"
	"github.com/kraklabs/fenec/pkg/vcs"
)

// runUpdate executes the 'update' CLI command: re-parse, then resummarize
// only the entities affected by files changed since the last recorded VCS
// marker. --all resummarizes every module instead.
func runUpdate(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	all := fs.Bool("all", false, "Resummarize every module, not just changed ones")
	passes := fs.Int("passes", 0, "Number of summarization passes: 1 or 3 (default: from config)")
	dryRun := fs.Bool("dry-run", false, "Use the deterministic echo LLM and mock embedder; no network calls")
	fromJSON := fs.String("from-json", "", "Read a pre-parsed entity set from a wire-JSON file instead of running the parser")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: fenec update [options]

Description:
  Incremental resummarization. Reads the VCS marker persisted by the last
  run (<output_dir>/last_commit.json), asks git which files changed since
  then, computes the affected closure over the code graph, and re-runs the
  summarization passes with the changed modules as seeds. The marker is
  advanced after a successful run.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  fenec update
  fenec update --all
  fenec update --passes 1

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		fenecerrors.FatalErrorf("%v", err)
	}

	numPasses := *passes
	if numPasses == 0 {
		numPasses = cfg.Summarize.NumPasses
	}
	if numPasses != 1 && numPasses != 3 {
		fenecerrors.FatalErrorf("--passes must be 1 or 3, got %d", numPasses)
	}

	logger := newLogger(globals)
	ctx, cancel := signalContext(logger)
	defer cancel()

	var seeds []string
	var changedFiles []string
	if !*all {
		marker, err := export.ReadLastCommit(cfg.Store.OutputDir)
		if err != nil {
			fenecerrors.FatalErrorf("read last_commit.json: %v", err)
		}
		if marker == "" {
			fenecerrors.FatalError("no previous run marker found; run 'fenec index' first or pass --all")
		}

		git, err := vcs.NewGitVCS(".")
		if err != nil {
			fenecerrors.FatalErrorf("%v", err)
		}
		changed, err := git.ChangedFiles(ctx, marker)
		if err != nil {
			fenecerrors.FatalErrorf("changed files since %s: %v", marker, err)
		}
		if len(changed) == 0 {
			ui.Success("Nothing changed since %s", marker)
			return
		}
		logger.Info("update.changed", "since", marker, "files", len(changed))
		changedFiles = changed
		for _, f := range changed {
			seeds = append(seeds, graph.ModuleID(f))
		}
	}

	p, err := newParser(cfg, *fromJSON, logger)
	if err != nil {
		fenecerrors.FatalErrorf("%v", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		fenecerrors.FatalErrorf("determine working directory: %v", err)
	}

	result, err := p.Parse(ctx, cwd)
	if err != nil {
		fenecerrors.FatalErrorf("parse: %v", err)
	}

	// Seeds for modules the parse no longer produces are dropped rather
	// than handed to the planner.
	if len(seeds) > 0 {
		present := make(map[string]bool, len(result.Entities))
		for _, e := range result.Entities {
			present[e.ID()] = true
		}
		kept := seeds[:0]
		for _, s := range seeds {
			if present[s] {
				kept = append(kept, s)
			}
		}
		seeds = kept
		if len(seeds) == 0 {
			ui.Success("Changed files produced no modules; nothing to resummarize")
			return
		}
	}

	gs, vs, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		fenecerrors.FatalErrorf("%v", err)
	}
	defer closeStores()

	stats, err := runPipeline(ctx, logger, cfg, gs, vs, result, pipelineOptions{
		Passes:       numPasses,
		DryRun:       *dryRun,
		Workers:      cfg.Summarize.Workers,
		Seeds:        seeds,
		ChangedFiles: changedFiles,
		FullReset:    *all,
	}, globals)
	if err != nil {
		fenecerrors.FatalErrorf("update: %v", err)
	}

	printStats(stats, cfg, globals)
}
