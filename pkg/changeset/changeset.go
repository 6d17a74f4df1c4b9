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

// Package changeset computes which graph entities need a fresh summary after
// a set of source files changed, by walking the graph store's edges out from
// (and, for multi-pass runs, into) the modules those files parsed into.
package changeset

import (
	"context"
	"sort"

	"github.com/kraklabs/fenec/pkg/graph"
	"github.com/kraklabs/fenec/pkg/graphstore"
)

// Detector computes affected-entity closures against a graph store.
type Detector struct {
	store graphstore.Store
}

// NewDetector wraps store.
func NewDetector(store graphstore.Store) *Detector {
	return &Detector{store: store}
}

// Affected returns the set of entity IDs whose summary must be regenerated
// given that every file in changedFiles has changed on disk. When
// bothDirections is true (multi-pass runs), inbound edges are walked too, so
// entities that depend on a changed module are invalidated as well as the
// ones it depends on.
func (d *Detector) Affected(ctx context.Context, changedFiles []string, bothDirections bool) ([]string, error) {
	seeds := seedModuleIDs(changedFiles)

	affected := make(map[string]struct{}, len(seeds))
	for _, s := range seeds {
		affected[s] = struct{}{}

		out, err := d.store.Outbound(ctx, s)
		if err != nil {
			return nil, err
		}
		for _, id := range out {
			affected[id] = struct{}{}
		}

		if bothDirections {
			// Walk inbound from the module and from every entity nested under
			// it, so dependents of the module's own declarations count too.
			for _, id := range append([]string{s}, out...) {
				p := id
				for ok := true; p != s && ok; {
					p, ok = graph.ParentOf(p)
				}
				if p != s {
					continue
				}
				in, err := d.store.Inbound(ctx, id)
				if err != nil {
					return nil, err
				}
				for _, x := range in {
					affected[x] = struct{}{}
				}
			}
		}
	}

	ids := make([]string, 0, len(affected))
	for id := range affected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// seedModuleIDs derives S = { m.id | m is Module, m.file_path in changedFiles }
// directly from the ID scheme, since a module's ID is a pure function of its
// file path; no store lookup is needed to compute the seed set itself.
func seedModuleIDs(changedFiles []string) []string {
	seeds := make([]string, 0, len(changedFiles))
	for _, f := range changedFiles {
		seeds = append(seeds, graph.ModuleID(f))
	}
	return seeds
}
