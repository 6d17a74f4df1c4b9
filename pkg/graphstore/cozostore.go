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
	"fmt"

	"github.com/cenkalti/backoff/v5"

	fenecerrors "github.com/kraklabs/fenec/internal/errors"
	"github.com/kraklabs/fenec/pkg/graph"
)

// Runner is the slice of *cozodb.CozoDB this package depends on. Depending
// on the interface instead of the concrete cgo type keeps cgo confined to
// pkg/cozodb; CozoStore can be constructed in any build, cgo-enabled or not.
type Runner interface {
	Run(script string, params map[string]any) (Rows, error)
	RunReadOnly(script string, params map[string]any) (Rows, error)
}

// Rows mirrors cozodb.NamedRows's shape without importing the cgo package.
type Rows struct {
	Headers []string
	Rows    [][]any
}

// fenecSchema creates the relations backing the code graph: one entity
// relation plus a single edges relation. The entity column is the lossless
// JSON blob graph.MarshalEntity produces; kind/path/summary are duplicated
// out of it as queryable columns.
const fenecSchema = `
:create fenec_entity {
    id: String =>
    kind: String,
    path: String,
    summary: String,
    entity: String,
}
:create fenec_edge {
    from_id: String,
    to_id: String =>
    source_type: String,
    target_type: String,
    label: String,
}
`

// CozoStore implements Store with :put/:rm scripts, run through a Runner
// so the cgo binding stays optional.
type CozoStore struct {
	db      Runner
	retries uint
}

// NewCozoStore wraps db. retries bounds the exponential backoff applied to
// write operations; 0 means no retry.
func NewCozoStore(db Runner, retries uint) *CozoStore {
	return &CozoStore{db: db, retries: retries}
}

func (c *CozoStore) EnsureSchema(ctx context.Context) error {
	_, err := c.db.Run(fenecSchema, nil)
	if err != nil {
		return fenecerrors.StoreError("ensure_schema", err)
	}
	return nil
}

func (c *CozoStore) withRetry(ctx context.Context, op string, fn func() error) error {
	if c.retries == 0 {
		if err := fn(); err != nil {
			return fenecerrors.StoreError(op, err)
		}
		return nil
	}
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, fn()
	}, backoff.WithMaxTries(c.retries+1), backoff.WithBackOff(backoff.NewExponentialBackOff()))
	if err != nil {
		return fenecerrors.StoreError(op, err)
	}
	return nil
}

func (c *CozoStore) Upsert(ctx context.Context, e graph.Entity) error {
	if err := graph.Validate(e); err != nil {
		return err
	}
	blob, err := graph.MarshalEntity(e)
	if err != nil {
		return err
	}
	params := map[string]any{
		"id":      e.ID(),
		"kind":    e.Kind().String(),
		"path":    e.ToMetadata()["file_path"],
		"summary": e.Summary(),
		"entity":  string(blob),
	}
	script := `?[id, kind, path, summary, entity] <- [[$id, $kind, $path, $summary, $entity]]
:put fenec_entity {id => kind, path, summary, entity}`
	return c.withRetry(ctx, fmt.Sprintf("upsert %s", e.ID()), func() error {
		_, err := c.db.Run(script, params)
		return err
	})
}

func (c *CozoStore) UpsertEdge(ctx context.Context, e Edge) error {
	if e.From == "" || e.To == "" {
		return fenecerrors.InvalidEntity("edge requires non-empty From and To")
	}
	script := `?[from_id, to_id, source_type, target_type, label] <- [[$from, $to, $source_type, $target_type, $label]]
:put fenec_edge {from_id, to_id => source_type, target_type, label}`
	params := map[string]any{
		"from":        e.From,
		"to":          e.To,
		"source_type": e.FromType.String(),
		"target_type": e.ToType.String(),
		"label":       e.Label,
	}
	return c.withRetry(ctx, fmt.Sprintf("upsert_edge %s->%s", e.From, e.To), func() error {
		_, err := c.db.Run(script, params)
		return err
	})
}

func (c *CozoStore) Get(ctx context.Context, id string) (graph.Entity, bool, error) {
	script := `?[entity] := *fenec_entity{id: $id, entity}`
	rows, err := c.db.RunReadOnly(script, map[string]any{"id": id})
	if err != nil {
		return nil, false, fenecerrors.StoreError("get "+id, err)
	}
	if len(rows.Rows) == 0 || len(rows.Rows[0]) == 0 {
		return nil, false, nil
	}
	e, err := entityFromBlob(rows.Rows[0][0])
	if err != nil {
		return nil, false, err
	}
	return e, true, nil
}

func (c *CozoStore) All(ctx context.Context) ([]graph.Entity, error) {
	script := `?[id, entity] := *fenec_entity{id, entity}`
	rows, err := c.db.RunReadOnly(script, nil)
	if err != nil {
		return nil, fenecerrors.StoreError("all", err)
	}
	out := make([]graph.Entity, 0, len(rows.Rows))
	for _, row := range rows.Rows {
		if len(row) < 2 {
			continue
		}
		e, err := entityFromBlob(row[1])
		if err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (c *CozoStore) Outbound(ctx context.Context, id string) ([]string, error) {
	return c.reach(ctx, id, `?[to] := *fenec_edge{from_id: $id, to_id: to}`)
}

func (c *CozoStore) Inbound(ctx context.Context, id string) ([]string, error) {
	return c.reach(ctx, id, `?[from] := *fenec_edge{from_id: from, to_id: $id}`)
}

// reach runs a single-hop datalog query repeatedly from the Go side,
// expanding a frontier until no new IDs are discovered. CozoDB's recursive
// rules could express this directly; doing the fixpoint in Go keeps the
// script simple and the cycle-tolerance explicit.
func (c *CozoStore) reach(ctx context.Context, id, script string) ([]string, error) {
	visited := map[string]bool{id: true}
	frontier := []string{id}
	var result []string
	for len(frontier) > 0 {
		var next []string
		for _, cur := range frontier {
			rows, err := c.db.RunReadOnly(script, map[string]any{"id": cur})
			if err != nil {
				return nil, fenecerrors.StoreError("reach "+cur, err)
			}
			for _, row := range rows.Rows {
				v, _ := row[0].(string)
				if v == "" || visited[v] {
					continue
				}
				visited[v] = true
				result = append(result, v)
				next = append(next, v)
			}
		}
		frontier = next
	}
	return result, nil
}

func (c *CozoStore) UpdateSummary(ctx context.Context, id, summary string) error {
	existing, found, err := c.Get(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return fenecerrors.StoreError("update_summary: unknown entity "+id, nil)
	}
	existing.SetSummary(summary)
	return c.Upsert(ctx, existing)
}

func (c *CozoStore) DeleteEntitiesForFile(ctx context.Context, filePath string) error {
	moduleID := graph.ModuleID(filePath)
	all, err := c.All(ctx)
	if err != nil {
		return err
	}
	script := `?[id] <- [[$id]]
:rm fenec_entity {id}`
	for _, e := range all {
		if e.ID() != moduleID && !isDescendantOf(e.ID(), moduleID) {
			continue
		}
		id := e.ID()
		if err := c.withRetry(ctx, "delete "+id, func() error {
			_, err := c.db.Run(script, map[string]any{"id": id})
			return err
		}); err != nil {
			return err
		}
		if err := c.deleteEdgesTouching(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// deleteEdgesTouching removes every edge with id on either endpoint, so
// reachability never resurrects a deleted entity through a stale edge row.
func (c *CozoStore) deleteEdgesTouching(ctx context.Context, id string) error {
	script := `?[from_id, to_id] := *fenec_edge{from_id, to_id}, from_id == $id or to_id == $id
:rm fenec_edge {from_id, to_id}`
	return c.withRetry(ctx, "delete_edges "+id, func() error {
		_, err := c.db.Run(script, map[string]any{"id": id})
		return err
	})
}

func (c *CozoStore) DeleteCollection(ctx context.Context, kind graph.BlockType) error {
	script := `?[id] := *fenec_entity{id, kind: $kind}
:rm fenec_entity {id}`
	if err := c.withRetry(ctx, "delete_collection "+kind.String(), func() error {
		_, err := c.db.Run(script, map[string]any{"kind": kind.String()})
		return err
	}); err != nil {
		return err
	}
	edgeScript := `?[from_id, to_id] := *fenec_edge{from_id, to_id, source_type, target_type}, source_type == $kind or target_type == $kind
:rm fenec_edge {from_id, to_id}`
	return c.withRetry(ctx, "delete_collection_edges "+kind.String(), func() error {
		_, err := c.db.Run(edgeScript, map[string]any{"kind": kind.String()})
		return err
	})
}

func entityFromBlob(v any) (graph.Entity, error) {
	blob, _ := v.(string)
	if blob == "" {
		return nil, fenecerrors.StoreError("entity row has empty blob", nil)
	}
	return graph.UnmarshalEntity([]byte(blob))
}
