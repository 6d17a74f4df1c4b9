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

package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/fenec/pkg/graph"
)

func TestResolve_MatchesLocalImportBySuffix(t *testing.T) {
	utilMod := graph.ModuleID("pkg/util/strings.go")
	utilFn := graph.FunctionID(utilMod, "Reverse")

	mainMod := &graph.ModuleEntity{
		Common: graph.Common{IDValue: graph.ModuleID("cmd/app/main.go")},
		Imports: []graph.Import{
			{
				ImportNames:      []graph.ImportedName{{Name: "Reverse"}},
				ImportedFrom:     "pkg.util.strings",
				ImportModuleType: graph.ImportLocal,
			},
		},
	}
	entities := []graph.Entity{
		mainMod,
		&graph.ModuleEntity{Common: graph.Common{IDValue: utilMod}},
		&graph.FunctionEntity{
			Common:       graph.Common{IDValue: utilFn, Parent: utilMod},
			FunctionName: "Reverse",
		},
	}

	Resolve(entities)

	require.Equal(t, utilMod, mainMod.Imports[0].LocalModuleID)
	require.Equal(t, utilFn, mainMod.Imports[0].ImportNames[0].LocalBlockID)
}

func TestResolve_PrefersLongestSuffixMatch(t *testing.T) {
	shortMod := graph.ModuleID("strings.go")
	longMod := graph.ModuleID("pkg/util/strings.go")

	mod := &graph.ModuleEntity{
		Common: graph.Common{IDValue: graph.ModuleID("cmd/app/main.go")},
		Imports: []graph.Import{
			{ImportedFrom: "pkg.util.strings", ImportModuleType: graph.ImportLocal},
		},
	}
	entities := []graph.Entity{
		mod,
		&graph.ModuleEntity{Common: graph.Common{IDValue: shortMod}},
		&graph.ModuleEntity{Common: graph.Common{IDValue: longMod}},
	}

	Resolve(entities)

	assert.Equal(t, longMod, mod.Imports[0].LocalModuleID)
}

func TestResolve_TiesPreferLexicographicallySmallestID(t *testing.T) {
	modA := graph.ModuleID("b/strings.go")
	modB := graph.ModuleID("a/strings.go")

	mod := &graph.ModuleEntity{
		Common: graph.Common{IDValue: graph.ModuleID("cmd/app/main.go")},
		Imports: []graph.Import{
			{ImportedFrom: "strings", ImportModuleType: graph.ImportLocal},
		},
	}
	entities := []graph.Entity{
		mod,
		&graph.ModuleEntity{Common: graph.Common{IDValue: modA}},
		&graph.ModuleEntity{Common: graph.Common{IDValue: modB}},
	}

	Resolve(entities)

	assert.Equal(t, modB, mod.Imports[0].LocalModuleID)
}

func TestResolve_NonLocalImportsAreUntouched(t *testing.T) {
	mod := &graph.ModuleEntity{
		Common: graph.Common{IDValue: graph.ModuleID("cmd/app/main.go")},
		Imports: []graph.Import{
			{ImportedFrom: "fmt", ImportModuleType: graph.ImportStandardLibrary},
		},
	}
	entities := []graph.Entity{mod}

	Resolve(entities)

	assert.Equal(t, "", mod.Imports[0].LocalModuleID)
}

func TestResolve_PropagatesToDescendantLocalDeps(t *testing.T) {
	utilMod := graph.ModuleID("pkg/util/strings.go")
	utilFn := graph.FunctionID(utilMod, "Reverse")
	mainMod := graph.ModuleID("cmd/app/main.go")
	mainFn := graph.FunctionID(mainMod, "Run")

	mod := &graph.ModuleEntity{
		Common: graph.Common{IDValue: mainMod},
		Imports: []graph.Import{
			{
				ImportNames:      []graph.ImportedName{{Name: "Reverse"}},
				ImportedFrom:     "pkg.util.strings",
				ImportModuleType: graph.ImportLocal,
			},
		},
	}
	caller := &graph.FunctionEntity{
		Common: graph.Common{
			IDValue: mainFn,
			Parent:  mainMod,
			Dependencies: []graph.LocalDep{
				{CodeBlockID: "Reverse"},
			},
		},
		FunctionName: "Run",
	}
	entities := []graph.Entity{
		mod,
		caller,
		&graph.ModuleEntity{Common: graph.Common{IDValue: utilMod}},
		&graph.FunctionEntity{
			Common:       graph.Common{IDValue: utilFn, Parent: utilMod},
			FunctionName: "Reverse",
		},
	}

	Resolve(entities)

	require.Len(t, caller.Dependencies, 1)
	assert.Equal(t, utilMod, caller.Dependencies[0].LocalModuleID)
	assert.Equal(t, utilFn, caller.Dependencies[0].LocalBlockID)
}

func TestResolve_UnmatchedLocalImportLeavesModuleIDEmpty(t *testing.T) {
	mod := &graph.ModuleEntity{
		Common: graph.Common{IDValue: graph.ModuleID("cmd/app/main.go")},
		Imports: []graph.Import{
			{ImportedFrom: "pkg.missing", ImportModuleType: graph.ImportLocal},
		},
	}
	entities := []graph.Entity{mod}

	Resolve(entities)

	assert.Equal(t, "", mod.Imports[0].LocalModuleID)
}
