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

// Package planner orders a set of seed entity IDs into a traversal sequence
// for summarization, either leaves-first (bottom-up) or roots-first
// (top-down). It never calls the LLM; it only computes order.
//
// graphstore.Store exposes whole reachability closures rather than single
// graph hops, so instead of a hop-by-hop recursion the planner topologically
// sorts each closure by how many of its own members it in turn depends on:
// the same "dependencies before dependents" outcome, reached by sorting a
// flat set rather than unwinding a call stack.
package planner

import (
	"context"
	"sort"

	"github.com/kraklabs/fenec/pkg/graphstore"
)

// Direction names which traversal a single pass uses.
type Direction int

const (
	BottomUp Direction = iota
	TopDown
)

// DirectionForPass returns the traversal direction for a 1-based pass number,
// per the engine's fixed schedule: pass 1 and 3 are bottom-up, pass 2 is
// top-down.
func DirectionForPass(passNum int) Direction {
	if passNum%2 == 0 {
		return TopDown
	}
	return BottomUp
}

// Planner computes ordered traversal sequences over a graph store.
type Planner struct {
	store graphstore.Store
}

// New wraps store.
func New(store graphstore.Store) *Planner {
	return &Planner{store: store}
}

// Plan computes the traversal order for seedIDs in dir. A shared visited set
// is used within a single seed's expansion to break cycles; it is reset
// between seeds.
func (p *Planner) Plan(ctx context.Context, seedIDs []string, dir Direction) ([]string, error) {
	switch dir {
	case TopDown:
		return p.planTopDown(ctx, seedIDs)
	default:
		return p.planBottomUp(ctx, seedIDs)
	}
}

// planBottomUp orders each seed's dependencies (inbound closure) leaves
// first, then the seed, then its dependents (outbound closure) nearest
// first; concatenates across seeds; deduplicates keeping the *last*
// occurrence, so a shared dependency sorts with its final, most-dependent
// user.
func (p *Planner) planBottomUp(ctx context.Context, seedIDs []string) ([]string, error) {
	var combined []string
	for _, seed := range seedIDs {
		deps, err := p.leavesFirst(ctx, seed)
		if err != nil {
			return nil, err
		}
		dependents, err := p.nearestFirst(ctx, seed)
		if err != nil {
			return nil, err
		}
		combined = append(combined, deps...)
		combined = append(combined, seed)
		combined = append(combined, dependents...)
	}
	return dedupKeepLast(combined), nil
}

// planTopDown orders each seed's dependents (outbound closure) roots
// first, then the seed, then its dependencies (inbound closure) leaves
// last; concatenates across seeds; deduplicates keeping the *first*
// occurrence; order is not reversed.
func (p *Planner) planTopDown(ctx context.Context, seedIDs []string) ([]string, error) {
	var combined []string
	for _, seed := range seedIDs {
		dependents, err := p.rootsFirstDependents(ctx, seed)
		if err != nil {
			return nil, err
		}
		deps, err := p.rootsFirst(ctx, seed)
		if err != nil {
			return nil, err
		}
		combined = append(combined, dependents...)
		combined = append(combined, seed)
		combined = append(combined, deps...)
	}
	return dedupKeepFirst(combined), nil
}

// leavesFirst orders seed's inbound (dependency) closure so that entities
// with no dependency of their own, within the closure, come first.
func (p *Planner) leavesFirst(ctx context.Context, seed string) ([]string, error) {
	closure, err := p.store.Inbound(ctx, seed)
	if err != nil {
		return nil, err
	}
	return p.orderByInternalInDegree(ctx, closure, true)
}

// rootsFirst is leavesFirst's reverse: the same inbound closure, but with
// entities closest to seed emitted first (used by the top-down tail, where
// dependencies still need visiting but no longer need to lead).
func (p *Planner) rootsFirst(ctx context.Context, seed string) ([]string, error) {
	closure, err := p.store.Inbound(ctx, seed)
	if err != nil {
		return nil, err
	}
	return p.orderByInternalInDegree(ctx, closure, false)
}

// nearestFirst orders seed's outbound (dependent) closure so that the
// entities nearest to seed come first and those with no dependent of their
// own, within the closure, come last, keeping dependencies ahead of their
// own dependents in a bottom-up tail.
func (p *Planner) nearestFirst(ctx context.Context, seed string) ([]string, error) {
	closure, err := p.store.Outbound(ctx, seed)
	if err != nil {
		return nil, err
	}
	return p.orderByInternalOutDegree(ctx, closure, false)
}

// rootsFirstDependents is nearestFirst's reverse: the same outbound closure,
// but with the entities nothing else in the closure depends on (the roots a
// top-down pass leads with) emitted first.
func (p *Planner) rootsFirstDependents(ctx context.Context, seed string) ([]string, error) {
	closure, err := p.store.Outbound(ctx, seed)
	if err != nil {
		return nil, err
	}
	return p.orderByInternalOutDegree(ctx, closure, true)
}

// orderByInternalInDegree sorts closure by how many other members of the
// same closure each entity depends on (its Inbound edges restricted to the
// closure). ascending=true puts entities with fewest internal dependencies
// (leaves) first; ascending=false reverses that.
func (p *Planner) orderByInternalInDegree(ctx context.Context, closure []string, ascending bool) ([]string, error) {
	members := toSet(closure)
	depth := make(map[string]int, len(closure))
	for _, id := range closure {
		internalDeps, err := p.store.Inbound(ctx, id)
		if err != nil {
			return nil, err
		}
		depth[id] = countIn(internalDeps, members)
	}
	sorted := append([]string(nil), closure...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if depth[sorted[i]] != depth[sorted[j]] {
			if ascending {
				return depth[sorted[i]] < depth[sorted[j]]
			}
			return depth[sorted[i]] > depth[sorted[j]]
		}
		return sorted[i] < sorted[j]
	})
	return sorted, nil
}

// orderByInternalOutDegree sorts closure by how many other members of the
// same closure each entity still has depending on it (its Outbound edges
// restricted to the closure). ascending=true puts entities with no dependent
// of their own (the roots) first; ascending=false reverses that, so the
// entities nearest the seed lead.
func (p *Planner) orderByInternalOutDegree(ctx context.Context, closure []string, ascending bool) ([]string, error) {
	members := toSet(closure)
	depth := make(map[string]int, len(closure))
	for _, id := range closure {
		internalDependents, err := p.store.Outbound(ctx, id)
		if err != nil {
			return nil, err
		}
		depth[id] = countIn(internalDependents, members)
	}
	sorted := append([]string(nil), closure...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if depth[sorted[i]] != depth[sorted[j]] {
			if ascending {
				return depth[sorted[i]] < depth[sorted[j]]
			}
			return depth[sorted[i]] > depth[sorted[j]]
		}
		return sorted[i] < sorted[j]
	})
	return sorted, nil
}

// Ranks assigns each entry of plan a non-negative integer rank such that
// entities at the same rank share no path between them in dir and may
// therefore be summarized concurrently. rank(e) is 1 + the
// maximum rank of every other plan member e must be summarized after: for a
// bottom-up (dir == BottomUp) plan that's e's dependencies — its inbound
// closure restricted to plan; for top-down, its dependents — the outbound
// closure. Members with no such neighbor inside plan get rank 0.
func (p *Planner) Ranks(ctx context.Context, plan []string, dir Direction) ([]int, error) {
	index := make(map[string]int, len(plan))
	for i, id := range plan {
		index[id] = i
	}

	ranks := make([]int, len(plan))
	memo := make(map[string]int, len(plan))
	visiting := make(map[string]bool, len(plan))

	var resolve func(id string) (int, error)
	resolve = func(id string) (int, error) {
		if r, ok := memo[id]; ok {
			return r, nil
		}
		// A predecessor currently being resolved means id sits on a cycle
		// with it; don't recurse further into it (it contributes no
		// additional rank), which is how cycles get broken here the same
		// way Plan's own visited set breaks them during traversal.
		if visiting[id] {
			return -1, nil
		}
		visiting[id] = true
		defer delete(visiting, id)

		var predecessors []string
		var err error
		if dir == TopDown {
			predecessors, err = p.store.Outbound(ctx, id)
		} else {
			predecessors, err = p.store.Inbound(ctx, id)
		}
		if err != nil {
			return 0, err
		}
		best := -1
		for _, pred := range predecessors {
			if _, inPlan := index[pred]; !inPlan || pred == id {
				continue
			}
			r, err := resolve(pred)
			if err != nil {
				return 0, err
			}
			if r > best {
				best = r
			}
		}
		rank := best + 1
		memo[id] = rank
		return rank, nil
	}

	for _, id := range plan {
		r, err := resolve(id)
		if err != nil {
			return nil, err
		}
		ranks[index[id]] = r
	}
	return ranks, nil
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func countIn(ids []string, set map[string]struct{}) int {
	n := 0
	for _, id := range ids {
		if _, ok := set[id]; ok {
			n++
		}
	}
	return n
}

func dedupKeepFirst(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// dedupKeepLast preserves the position of each ID's last occurrence while
// keeping every other relative ordering intact.
func dedupKeepLast(ids []string) []string {
	lastIndex := make(map[string]int, len(ids))
	for i, id := range ids {
		lastIndex[id] = i
	}
	out := make([]string, 0, len(lastIndex))
	for i, id := range ids {
		if lastIndex[id] == i {
			out = append(out, id)
		}
	}
	return out
}
