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

// Package resolver rewrites every LOCAL import (and matching LocalDep) in a
// freshly parsed entity set to point at concrete target entity IDs, by
// longest-suffix matching against the corpus's own module paths.
package resolver

import (
	"sort"
	"strings"

	"github.com/kraklabs/fenec/pkg/graph"
)

// moduleCandidate is a module available as a resolution target.
type moduleCandidate struct {
	id        string
	pathID    string // colon path, "__*__MODULE" suffix stripped
	pathNoExt string // pathID with a trailing file extension stripped, if any
}

// Resolve mutates entities in place: every Import with ImportModuleType ==
// ImportLocal gets LocalModuleID (and, where a name matches, each
// ImportedName's LocalBlockID) set to a concrete target; every LocalDep
// whose CodeBlockID names an already-resolved import is updated to match.
// Entities are returned for convenience; callers already holding the slice
// don't need the return value.
func Resolve(entities []graph.Entity) []graph.Entity {
	modules := moduleCandidates(entities)
	childrenByParent := childIndex(entities)

	for _, e := range entities {
		mod, ok := e.(*graph.ModuleEntity)
		if !ok {
			continue
		}
		nameResolutions := make(map[string]graph.LocalDep) // import name/alias -> resolution

		for i := range mod.Imports {
			imp := &mod.Imports[i]
			if imp.ImportModuleType != graph.ImportLocal {
				continue
			}
			target := bestMatch(modules, imp.ImportedFrom)
			if target == "" {
				continue
			}
			imp.LocalModuleID = target

			children := childrenByParent[target]
			for k := range imp.ImportNames {
				name := imp.ImportNames[k].Name
				for _, childID := range children {
					childName, err := graph.NameOf(childID)
					if err == nil && childName == name {
						imp.ImportNames[k].LocalBlockID = childID
						break
					}
				}
				key := imp.ImportNames[k].Name
				if imp.ImportNames[k].AsName != "" {
					key = imp.ImportNames[k].AsName
				}
				nameResolutions[key] = graph.LocalDep{
					LocalModuleID: target,
					LocalBlockID:  imp.ImportNames[k].LocalBlockID,
				}
			}
		}

		propagateToDescendants(entities, mod.IDValue, nameResolutions)
	}

	return entities
}

// propagateToDescendants applies the module's resolved import names to every
// LocalDep, in every descendant of mod, whose CodeBlockID names a resolved
// import.
func propagateToDescendants(entities []graph.Entity, moduleID string, resolutions map[string]graph.LocalDep) {
	if len(resolutions) == 0 {
		return
	}
	for _, e := range entities {
		if !belongsTo(e, moduleID) {
			continue
		}
		deps := dependenciesOf(e)
		if deps == nil {
			continue
		}
		for i := range *deps {
			dep := &(*deps)[i]
			if res, ok := resolutions[dep.CodeBlockID]; ok {
				dep.LocalModuleID = res.LocalModuleID
				dep.LocalBlockID = res.LocalBlockID
			}
		}
	}
}

func belongsTo(e graph.Entity, moduleID string) bool {
	if e.ID() == moduleID {
		return true
	}
	id := e.ID()
	for {
		parent, ok := graph.ParentOf(id)
		if !ok {
			return false
		}
		if parent == moduleID {
			return true
		}
		id = parent
	}
}

// dependenciesOf returns a pointer to the Dependencies slice embedded in e's
// Common fields, so callers can mutate entries in place.
func dependenciesOf(e graph.Entity) *[]graph.LocalDep {
	switch v := e.(type) {
	case *graph.ModuleEntity:
		return &v.Dependencies
	case *graph.ClassEntity:
		return &v.Dependencies
	case *graph.FunctionEntity:
		return &v.Dependencies
	case *graph.StandaloneEntity:
		return &v.Dependencies
	default:
		return nil
	}
}

func moduleCandidates(entities []graph.Entity) []moduleCandidate {
	var out []moduleCandidate
	for _, e := range entities {
		if e.Kind() != graph.BlockTypeModule {
			continue
		}
		const marker = "__*__MODULE"
		pathID := strings.TrimSuffix(e.ID(), marker)
		out = append(out, moduleCandidate{
			id:        e.ID(),
			pathID:    pathID,
			pathNoExt: stripExt(pathID),
		})
	}
	return out
}

func stripExt(pathID string) string {
	lastColon := strings.LastIndex(pathID, ":")
	tail := pathID
	if lastColon >= 0 {
		tail = pathID[lastColon+1:]
	}
	dot := strings.LastIndex(tail, ".")
	if dot <= 0 {
		return pathID
	}
	if lastColon >= 0 {
		return pathID[:lastColon+1] + tail[:dot]
	}
	return tail[:dot]
}

func childIndex(entities []graph.Entity) map[string][]string {
	idx := make(map[string][]string)
	for _, e := range entities {
		if e.ParentID() == "" {
			continue
		}
		idx[e.ParentID()] = append(idx[e.ParentID()], e.ID())
	}
	return idx
}

// bestMatch finds the module whose path ID has fragment as a suffix,
// preferring the longest matching suffix and, on a further tie, the
// lexicographically smallest module ID, so resolution is deterministic.
func bestMatch(modules []moduleCandidate, fragment string) string {
	fragment = strings.ReplaceAll(fragment, ".", ":")
	if fragment == "" {
		return ""
	}

	type hit struct {
		id     string
		length int
	}
	var hits []hit
	for _, m := range modules {
		if suffixMatches(m.pathID, fragment) {
			hits = append(hits, hit{id: m.id, length: len(fragment)})
			continue
		}
		if suffixMatches(m.pathNoExt, fragment) {
			hits = append(hits, hit{id: m.id, length: len(fragment)})
		}
	}
	if len(hits) == 0 {
		return ""
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].length != hits[j].length {
			return hits[i].length > hits[j].length
		}
		return hits[i].id < hits[j].id
	})
	return hits[0].id
}

func suffixMatches(path, fragment string) bool {
	if path == fragment {
		return true
	}
	return strings.HasSuffix(path, ":"+fragment)
}
