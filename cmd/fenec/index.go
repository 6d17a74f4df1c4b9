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
)

// runIndex executes the 'index' CLI command: parse the repository from
// scratch, build the code graph, run the summarization passes, and refresh
// the on-disk export and vector collection.
func runIndex(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	passes := fs.Int("passes", 0, "Number of summarization passes: 1 or 3 (default: from config)")
	dryRun := fs.Bool("dry-run", false, "Use the deterministic echo LLM and mock embedder; no network calls")
	workers := fs.Int("workers", 0, "Entities summarized concurrently per rank (default: from config)")
	fromJSON := fs.String("from-json", "", "Read a pre-parsed entity set from a wire-JSON file instead of running the parser")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: fenec index [options]

Description:
  Run the full pipeline over the current repository: the configured parser
  frontend builds the entity set, local imports are resolved, the code
  graph is loaded, every module is summarized bottom-up (and top-down for
  --passes 3), and the summarized corpus is exported to JSON and to the
  vector collection.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  fenec index
  fenec index --passes 1 --dry-run
  fenec index --from-json parse.json --metrics-addr :9090

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
	// Validated before any store is opened so an invalid pass count writes
	// nothing anywhere.
	if numPasses != 1 && numPasses != 3 {
		fenecerrors.FatalErrorf("--passes must be 1 or 3, got %d", numPasses)
	}

	numWorkers := *workers
	if numWorkers == 0 {
		numWorkers = cfg.Summarize.Workers
	}

	logger := newLogger(globals)
	startMetrics(*metricsAddr, logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

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
	logger.Info("index.parsed", "entities", len(result.Entities))

	gs, vs, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		fenecerrors.FatalErrorf("%v", err)
	}
	defer closeStores()

	stats, err := runPipeline(ctx, logger, cfg, gs, vs, result, pipelineOptions{
		Passes:    numPasses,
		DryRun:    *dryRun,
		Workers:   numWorkers,
		FullReset: true,
	}, globals)
	if err != nil {
		fenecerrors.FatalErrorf("index: %v", err)
	}

	printStats(stats, cfg, globals)
}
