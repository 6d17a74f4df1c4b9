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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/fenec/pkg/graph"
)

func TestLoad_ParentChildAndDependencyEdges(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore(16)

	modA := graph.ModuleID("a.py")
	modB := graph.ModuleID("b.py")
	fnB := graph.FunctionID(modB, "helper")

	entities := []graph.Entity{
		&graph.ModuleEntity{
			Common: graph.Common{IDValue: modA, FilePath: "a.py"},
			Imports: []graph.Import{{
				ImportNames:      []graph.ImportedName{{Name: "helper", LocalBlockID: fnB}},
				ImportedFrom:     "b",
				ImportModuleType: graph.ImportLocal,
				LocalModuleID:    modB,
			}},
		},
		&graph.ModuleEntity{
			Common: graph.Common{IDValue: modB, FilePath: "b.py", Children: []string{fnB}},
		},
		&graph.FunctionEntity{
			Common:       graph.Common{IDValue: fnB, FilePath: "b.py", Parent: modB},
			FunctionName: "helper",
		},
	}

	require.NoError(t, Load(ctx, s, entities, nil))

	// Dependency edges point from the referenced entity to the referrer, so
	// outbound from b reaches a.
	out, err := s.Outbound(ctx, modB)
	require.NoError(t, err)
	require.Contains(t, out, modA)
	require.Contains(t, out, fnB) // parent -> child containment edge

	out, err = s.Outbound(ctx, fnB)
	require.NoError(t, err)
	require.Contains(t, out, modA)

	// a only depends on b and defines nothing, so no edge leaves a.
	out, err = s.Outbound(ctx, modA)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestLoad_SkipsInvalidEntitiesAndTheirEdges(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore(16)

	mod := graph.ModuleID("pkg/ok.go")
	bad := graph.ClassID(mod, "Broken")

	entities := []graph.Entity{
		&graph.ModuleEntity{Common: graph.Common{IDValue: mod, FilePath: "pkg/ok.go", Children: []string{bad}}},
		// Missing class_name fails validation; the entity and the
		// parent->child edge pointing at it must both be dropped.
		&graph.ClassEntity{Common: graph.Common{IDValue: bad, Parent: mod}},
	}

	require.NoError(t, Load(ctx, s, entities, nil))

	_, ok, err := s.Get(ctx, bad)
	require.NoError(t, err)
	require.False(t, ok)

	out, err := s.Outbound(ctx, mod)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestLoad_NonLocalImportsContributeNoEdges(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore(16)

	mod := graph.ModuleID("a.py")
	entities := []graph.Entity{
		&graph.ModuleEntity{
			Common: graph.Common{IDValue: mod, FilePath: "a.py"},
			Imports: []graph.Import{{
				ImportNames:      []graph.ImportedName{{Name: "math"}},
				ImportModuleType: graph.ImportStandardLibrary,
			}},
		},
	}

	require.NoError(t, Load(ctx, s, entities, nil))

	in, err := s.Inbound(ctx, mod)
	require.NoError(t, err)
	require.Empty(t, in)
}
