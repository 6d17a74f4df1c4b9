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

package graphstore

import (
	"context"
	"log/slog"

	"github.com/kraklabs/fenec/pkg/graph"
)

// Edge labels written by Load. "defines" connects a parent to each of its
// children; "references" connects a dependency to its dependent, so that
// Outbound(x) answers "what does x feed into".
const (
	EdgeDefines    = "defines"
	EdgeReferences = "references"
)

// Load upserts a resolved entity set into s along with every edge the graph
// model requires: one parent->child edge per containment pair, plus one
// dependency->dependent edge per resolved local import or LocalDep. Entities
// that fail validation are logged and skipped, along with every edge they
// would have contributed. Unresolved (non-local) imports contribute no
// edges.
func Load(ctx context.Context, s Store, entities []graph.Entity, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	loaded := make(map[string]bool, len(entities))
	for _, e := range entities {
		if err := graph.Validate(e); err != nil {
			logger.Warn("graphstore.load.invalid", "id", idOf(e), "err", err)
			continue
		}
		if err := s.Upsert(ctx, e); err != nil {
			return err
		}
		loaded[e.ID()] = true
	}

	for _, e := range entities {
		if !loaded[e.ID()] {
			continue
		}
		for _, childID := range e.ChildrenIDs() {
			if !loaded[childID] {
				continue
			}
			if err := s.UpsertEdge(ctx, edgeBetween(e.ID(), childID, EdgeDefines)); err != nil {
				return err
			}
		}
		for _, edge := range dependencyEdges(e, loaded) {
			if err := s.UpsertEdge(ctx, edge); err != nil {
				return err
			}
		}
	}
	return nil
}

func idOf(e graph.Entity) string {
	if e == nil {
		return ""
	}
	return e.ID()
}

// edgeBetween builds an Edge with the endpoint block types filled in from
// the IDs.
func edgeBetween(from, to, label string) Edge {
	return Edge{
		From:     from,
		To:       to,
		FromType: graph.BlockTypeOf(from),
		ToType:   graph.BlockTypeOf(to),
		Label:    label,
	}
}

// dependencyEdges computes the dependency->dependent edges e contributes:
// for a module, one per resolved LOCAL import (module level, plus one per
// import name resolved to a concrete block); for every other kind, one per
// resolved LocalDep. The referenced entity is always the edge source.
func dependencyEdges(e graph.Entity, loaded map[string]bool) []Edge {
	var edges []Edge
	add := func(from string) {
		if from != "" && from != e.ID() && loaded[from] {
			edges = append(edges, edgeBetween(from, e.ID(), EdgeReferences))
		}
	}

	if m, ok := e.(*graph.ModuleEntity); ok {
		for _, imp := range m.Imports {
			if imp.ImportModuleType != graph.ImportLocal {
				continue
			}
			add(imp.LocalModuleID)
			for _, name := range imp.ImportNames {
				add(name.LocalBlockID)
			}
		}
		return edges
	}

	for _, dep := range localDepsOf(e) {
		if dep.LocalBlockID != "" {
			add(dep.LocalBlockID)
		} else {
			add(dep.LocalModuleID)
		}
	}
	return edges
}

func localDepsOf(e graph.Entity) []graph.LocalDep {
	switch v := e.(type) {
	case *graph.ModuleEntity:
		return v.Dependencies
	case *graph.ClassEntity:
		return v.Dependencies
	case *graph.FunctionEntity:
		return v.Dependencies
	case *graph.StandaloneEntity:
		return v.Dependencies
	default:
		return nil
	}
}
