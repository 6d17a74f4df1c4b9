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

package summarize

import (
	"context"
	"strings"

	"github.com/kraklabs/fenec/pkg/graph"
	"github.com/kraklabs/fenec/pkg/planner"
	"github.com/kraklabs/fenec/pkg/prompt"
)

// gatherInputs assembles every optional context section for a single
// entity, within the current pass.
func (e *Engine) gatherInputs(ctx context.Context, ent graph.Entity, pc *passContext) prompt.Inputs {
	in := prompt.Inputs{
		Code:                codeContentOf(ent),
		ChildrenSummaries:   e.childrenSummaries(ctx, ent),
		DependencySummaries: e.dependencySummaries(ctx, ent),
		ImportDetails:       importDetails(ent),
		PreviousSummary:     pc.previous[ent.ID()],
	}
	if pc.dir == planner.TopDown && pc.passNum != 1 {
		if parentID := ent.ParentID(); parentID != "" {
			if summary, ok := pc.summaryOf(parentID); ok {
				in.ParentSummary = summary
			}
		}
	}
	return in
}

// childrenSummaries joins, with newlines, each child's summary (falling
// back to its code_content when it has none yet), skipping directory
// children entirely.
func (e *Engine) childrenSummaries(ctx context.Context, ent graph.Entity) string {
	var lines []string
	for _, childID := range ent.ChildrenIDs() {
		child, found, err := e.store.Get(ctx, childID)
		if err != nil || !found {
			continue
		}
		if child.Kind() == graph.BlockTypeDirectory {
			continue
		}
		if s := child.Summary(); s != "" {
			lines = append(lines, s)
		} else if c := codeContentOf(child); c != "" {
			lines = append(lines, c)
		}
	}
	return strings.Join(lines, "\n")
}

// dependencySummaries: modules walk their imports, every other kind walks
// its dependencies; only LOCAL targets contribute a summary (non-local
// imports contribute import details instead).
func (e *Engine) dependencySummaries(ctx context.Context, ent graph.Entity) string {
	var lines []string
	add := func(id string) {
		if id == "" {
			return
		}
		target, found, err := e.store.Get(ctx, id)
		if err != nil || !found {
			return
		}
		if s := target.Summary(); s != "" {
			lines = append(lines, s)
		} else if c := codeContentOf(target); c != "" {
			lines = append(lines, c)
		}
	}

	if mod, ok := ent.(*graph.ModuleEntity); ok {
		for _, imp := range mod.Imports {
			if imp.ImportModuleType != graph.ImportLocal {
				continue
			}
			added := false
			for _, name := range imp.ImportNames {
				if name.LocalBlockID != "" {
					add(name.LocalBlockID)
					added = true
				}
			}
			if !added && imp.LocalModuleID != "" {
				add(imp.LocalModuleID)
			}
		}
		return strings.Join(lines, "\n")
	}

	for _, dep := range dependenciesOf(ent) {
		if dep.LocalBlockID != "" {
			add(dep.LocalBlockID)
		} else if dep.LocalModuleID != "" {
			add(dep.LocalModuleID)
		}
	}
	return strings.Join(lines, "\n")
}

// importDetails renders one line per non-LOCAL import, in "from X import
// a as b, c" / "import a as b, c" shape. Only modules carry imports.
func importDetails(ent graph.Entity) string {
	mod, ok := ent.(*graph.ModuleEntity)
	if !ok {
		return ""
	}
	var lines []string
	for _, imp := range mod.Imports {
		if imp.ImportModuleType == graph.ImportLocal {
			continue
		}
		names := make([]string, 0, len(imp.ImportNames))
		for _, n := range imp.ImportNames {
			if n.AsName != "" {
				names = append(names, n.Name+" as "+n.AsName)
			} else {
				names = append(names, n.Name)
			}
		}
		joined := strings.Join(names, ", ")
		if imp.ImportedFrom != "" {
			lines = append(lines, "from "+imp.ImportedFrom+" import "+joined)
		} else {
			lines = append(lines, "import "+joined)
		}
	}
	return strings.Join(lines, "\n")
}

// codeContentOf returns an entity.s code_content, or "" for directories
// (which have none).
func codeContentOf(e graph.Entity) string {
	switch v := e.(type) {
	case *graph.ModuleEntity:
		return v.CodeContent
	case *graph.ClassEntity:
		return v.CodeContent
	case *graph.FunctionEntity:
		return v.CodeContent
	case *graph.StandaloneEntity:
		return v.CodeContent
	default:
		return ""
	}
}

// dependenciesOf returns the Dependencies slice embedded in e's Common
// fields, or nil for directories and modules (modules carry Imports
// instead, handled separately above).
func dependenciesOf(e graph.Entity) []graph.LocalDep {
	switch v := e.(type) {
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
