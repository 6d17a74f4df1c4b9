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
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	fenecerrors "github.com/kraklabs/fenec/internal/errors"
	"github.com/kraklabs/fenec/pkg/graph"
)

type reachKey struct {
	id  string
	out bool
}

// MemStore is the reference, in-process Store implementation: an indexed
// container of entities keyed by ID, with edges kept in a separate
// adjacency index keyed by endpoint. It backs tests, dry runs, and any
// deployment that doesn't need a durable external graph database.
type MemStore struct {
	mu sync.RWMutex

	entities map[string]graph.Entity
	outEdges map[string][]string // id -> ids it points to
	inEdges  map[string][]string // id -> ids that point to it

	locks sync.Map // id -> *sync.Mutex, for serialized per-entity summary writes

	reachCache *lru.Cache[reachKey, []string]
}

// NewMemStore constructs an empty MemStore. cacheSize bounds the
// outbound/inbound reachability memoization; 0 disables caching.
func NewMemStore(cacheSize int) *MemStore {
	s := &MemStore{
		entities: make(map[string]graph.Entity),
		outEdges: make(map[string][]string),
		inEdges:  make(map[string][]string),
	}
	if cacheSize > 0 {
		c, _ := lru.New[reachKey, []string](cacheSize)
		s.reachCache = c
	}
	return s
}

func (s *MemStore) EnsureSchema(ctx context.Context) error { return nil }

func (s *MemStore) entityLock(id string) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (s *MemStore) Upsert(ctx context.Context, e graph.Entity) error {
	if err := graph.Validate(e); err != nil {
		return err
	}
	lock := s.entityLock(e.ID())
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	s.entities[e.ID()] = e
	s.mu.Unlock()
	return nil
}

func (s *MemStore) UpsertEdge(ctx context.Context, e Edge) error {
	if e.From == "" || e.To == "" {
		return fenecerrors.InvalidEntity("edge requires non-empty From and To")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !containsStr(s.outEdges[e.From], e.To) {
		s.outEdges[e.From] = append(s.outEdges[e.From], e.To)
	}
	if !containsStr(s.inEdges[e.To], e.From) {
		s.inEdges[e.To] = append(s.inEdges[e.To], e.From)
	}
	// A new edge changes reachability for every node upstream of From and
	// downstream of To, not just the endpoints, so the whole cache goes.
	if s.reachCache != nil {
		s.reachCache.Purge()
	}
	return nil
}

func (s *MemStore) Get(ctx context.Context, id string) (graph.Entity, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[id]
	return e, ok, nil
}

func (s *MemStore) All(ctx context.Context) ([]graph.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]graph.Entity, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, e)
	}
	return out, nil
}

func (s *MemStore) Outbound(ctx context.Context, id string) ([]string, error) {
	return s.reach(id, true)
}

func (s *MemStore) Inbound(ctx context.Context, id string) ([]string, error) {
	return s.reach(id, false)
}

// reach performs a cycle-tolerant BFS over outEdges (or inEdges), returning
// every distinct node reached, excluding the start node itself.
func (s *MemStore) reach(id string, outbound bool) ([]string, error) {
	key := reachKey{id: id, out: outbound}
	if s.reachCache != nil {
		if cached, ok := s.reachCache.Get(key); ok {
			return cached, nil
		}
	}

	s.mu.RLock()
	adjacency := s.outEdges
	if !outbound {
		adjacency = s.inEdges
	}
	visited := map[string]bool{id: true}
	queue := append([]string(nil), adjacency[id]...)
	var result []string
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if visited[next] {
			continue
		}
		visited[next] = true
		result = append(result, next)
		queue = append(queue, adjacency[next]...)
	}
	s.mu.RUnlock()

	if s.reachCache != nil {
		s.reachCache.Add(key, result)
	}
	return result, nil
}

func (s *MemStore) UpdateSummary(ctx context.Context, id, summary string) error {
	lock := s.entityLock(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[id]
	if !ok {
		return fenecerrors.StoreError("update_summary: unknown entity "+id, nil)
	}
	e.SetSummary(summary)
	return nil
}

func (s *MemStore) DeleteEntitiesForFile(ctx context.Context, filePath string) error {
	moduleID := graph.ModuleID(filePath)
	s.deleteWhere(func(id string) bool {
		return id == moduleID || isDescendantOf(id, moduleID)
	})
	return nil
}

func (s *MemStore) DeleteCollection(ctx context.Context, kind graph.BlockType) error {
	s.deleteWhere(func(id string) bool {
		return graph.BlockTypeOf(id) == kind
	})
	return nil
}

// deleteWhere removes every entity matching doomed, along with each edge
// touching it from either side.
func (s *MemStore) deleteWhere(doomed func(id string) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.entities {
		if !doomed(id) {
			continue
		}
		delete(s.entities, id)
		delete(s.outEdges, id)
		delete(s.inEdges, id)
	}
	for id, targets := range s.outEdges {
		s.outEdges[id] = dropDoomed(targets, doomed)
	}
	for id, sources := range s.inEdges {
		s.inEdges[id] = dropDoomed(sources, doomed)
	}
	if s.reachCache != nil {
		s.reachCache.Purge()
	}
}

func dropDoomed(ids []string, doomed func(id string) bool) []string {
	kept := ids[:0]
	for _, id := range ids {
		if !doomed(id) {
			kept = append(kept, id)
		}
	}
	return kept
}

func isDescendantOf(id, ancestor string) bool {
	for {
		parent, ok := graph.ParentOf(id)
		if !ok {
			return false
		}
		if parent == ancestor {
			return true
		}
		id = parent
	}
}

func containsStr(ss []string, v string) bool {
	for _, s := range ss {
		if s == v {
			return true
		}
	}
	return false
}
