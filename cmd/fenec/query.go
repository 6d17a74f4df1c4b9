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
)

// runQuery executes the 'query' CLI command: look up one entity by ID and
// optionally walk its graph neighborhood.
func runQuery(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	outbound := fs.Bool("outbound", false, "Also list every entity reachable following edges away from the ID")
	inbound := fs.Bool("inbound", false, "Also list every entity reachable following edges toward the ID")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: fenec query [options] <entity-id>

Description:
  Print one entity from the graph store as JSON. With --outbound or
  --inbound, also print the IDs in its reachability closure.

Examples:
  fenec query 'pkg:a.py__*__MODULE'
  fenec query --outbound 'pkg:a.py__*__MODULE__*__CLASS-Widget'

`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	id := fs.Arg(0)

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

	entity, ok, err := gs.Get(ctx, id)
	if err != nil {
		fenecerrors.FatalErrorf("get %s: %v", id, err)
	}
	if !ok {
		ui.Err("No entity with id %s", id)
		os.Exit(1)
	}

	out := map[string]any{"entity": entity.ToMetadata()}
	if *outbound {
		ids, err := gs.Outbound(ctx, id)
		if err != nil {
			fenecerrors.FatalErrorf("outbound %s: %v", id, err)
		}
		out["outbound"] = ids
	}
	if *inbound {
		ids, err := gs.Inbound(ctx, id)
		if err != nil {
			fenecerrors.FatalErrorf("inbound %s: %v", id, err)
		}
		out["inbound"] = ids
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fenecerrors.FatalErrorf("encode: %v", err)
	}
}
