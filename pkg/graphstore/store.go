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

// Package graphstore adapts the code graph onto a concrete backing store:
// nodes keyed by ID, edges keyed by (from, to), with outbound/inbound
// reachability queries and an atomic summary-only update path.
package graphstore

import (
	"context"

	"github.com/kraklabs/fenec/pkg/graph"
)

// Edge is a directed relationship between two entity IDs, e.g. a DEFINES or
// a LocalDep-derived reference edge. FromType/ToType carry the endpoints'
// block types alongside the IDs (they are recoverable from the IDs, but the
// stored edge record keeps them explicit).
type Edge struct {
	From     string
	To       string
	FromType graph.BlockType
	ToType   graph.BlockType
	Label    string
}

// Store is the graph-store adapter every summarization component depends
// on. Implementations must make Upsert/UpsertEdge idempotent by key, and
// Outbound/Inbound must tolerate cycles (dedup, never include the start
// node itself).
type Store interface {
	// EnsureSchema prepares the backing store (creating relations/tables as
	// needed). Safe to call repeatedly.
	EnsureSchema(ctx context.Context) error

	// Upsert inserts or replaces the entity at its own ID.
	Upsert(ctx context.Context, e graph.Entity) error

	// UpsertEdge inserts or replaces the edge identified by (From, To).
	UpsertEdge(ctx context.Context, e Edge) error

	// Get returns the entity for id, or (nil, false) if absent.
	Get(ctx context.Context, id string) (graph.Entity, bool, error)

	// All returns every entity currently stored, in no particular order.
	All(ctx context.Context) ([]graph.Entity, error)

	// Outbound returns the IDs reachable by following edges away from id,
	// deduplicated, excluding id itself.
	Outbound(ctx context.Context, id string) ([]string, error)

	// Inbound returns the IDs reachable by following edges toward id,
	// deduplicated, excluding id itself.
	Inbound(ctx context.Context, id string) ([]string, error)

	// UpdateSummary atomically replaces only the summary field of the
	// entity at id; it never touches any other field.
	UpdateSummary(ctx context.Context, id, summary string) error

	// DeleteEntitiesForFile removes every entity whose Module/Directory
	// lineage traces back to filePath, used by incremental reindexing.
	DeleteEntitiesForFile(ctx context.Context, filePath string) error

	// DeleteCollection removes every entity of the given kind, used by a
	// full reset before re-ingesting from scratch.
	DeleteCollection(ctx context.Context, kind graph.BlockType) error
}
