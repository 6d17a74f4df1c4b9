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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/fenec/pkg/graph"
	"github.com/kraklabs/fenec/pkg/graphstore"
	"github.com/kraklabs/fenec/pkg/llm"
	"github.com/kraklabs/fenec/pkg/planner"
)

func TestGatherInputs_ThirdPartyImportHasDetailsButNoDependencySummary(t *testing.T) {
	ctx := context.Background()
	store := graphstore.NewMemStore(0)

	modID := graph.ModuleID("service.go")
	mod := &graph.ModuleEntity{
		Common: graph.Common{IDValue: modID, CodeContent: "package service"},
		Imports: []graph.Import{
			{
				ImportedFrom:     "net/http",
				ImportModuleType: graph.ImportStandardLibrary,
				ImportNames:      []graph.ImportedName{{Name: "Client"}},
			},
		},
	}
	require.NoError(t, store.Upsert(ctx, mod))

	eng := New(store, llm.EchoClient{}, []graph.Entity{mod}, Config{})
	pc := &passContext{passNum: 1, dir: planner.BottomUp, previous: map[string]string{}, doneSummary: map[string]string{}}

	in := eng.gatherInputs(ctx, mod, pc)
	require.Empty(t, in.DependencySummaries)
	require.Equal(t, "from net/http import Client", in.ImportDetails)
}

func TestGatherInputs_LocalImportPullsDependencySummaryNotImportDetails(t *testing.T) {
	ctx := context.Background()
	store := graphstore.NewMemStore(0)

	depID := graph.ModuleID("dep.go")
	dep := &graph.ModuleEntity{Common: graph.Common{IDValue: depID, CodeContent: "package dep", SummaryValue: "dep summary"}}
	require.NoError(t, store.Upsert(ctx, dep))

	modID := graph.ModuleID("main.go")
	mod := &graph.ModuleEntity{
		Common: graph.Common{IDValue: modID, CodeContent: "package main"},
		Imports: []graph.Import{
			{
				ImportModuleType: graph.ImportLocal,
				LocalModuleID:    depID,
				ImportNames:      []graph.ImportedName{{Name: "dep"}},
			},
		},
	}
	require.NoError(t, store.Upsert(ctx, mod))

	eng := New(store, llm.EchoClient{}, []graph.Entity{mod, dep}, Config{})
	pc := &passContext{passNum: 1, dir: planner.BottomUp, previous: map[string]string{}, doneSummary: map[string]string{}}

	in := eng.gatherInputs(ctx, mod, pc)
	require.Equal(t, "dep summary", in.DependencySummaries)
	require.Empty(t, in.ImportDetails)
}

func TestGatherInputs_ChildrenSkipDirectoriesAndFallBackToCode(t *testing.T) {
	ctx := context.Background()
	store := graphstore.NewMemStore(0)

	modID := graph.ModuleID("pkg/x.go")
	fnID := graph.FunctionID(modID, "Do")
	dirID := graph.DirectoryID("pkg")

	mod := &graph.ModuleEntity{Common: graph.Common{IDValue: modID, CodeContent: "package x", Children: []string{fnID, dirID}}}
	fn := &graph.FunctionEntity{Common: graph.Common{IDValue: fnID, Parent: modID, CodeContent: "func Do() {}"}, FunctionName: "Do"}
	dir := &graph.DirectoryEntity{IDValue: dirID, DirectoryName: "pkg"}

	require.NoError(t, store.Upsert(ctx, mod))
	require.NoError(t, store.Upsert(ctx, fn))
	require.NoError(t, store.Upsert(ctx, dir))

	eng := New(store, llm.EchoClient{}, []graph.Entity{mod, fn, dir}, Config{})
	pc := &passContext{passNum: 1, dir: planner.BottomUp, previous: map[string]string{}, doneSummary: map[string]string{}}

	in := eng.gatherInputs(ctx, mod, pc)
	require.Equal(t, "func Do() {}", in.ChildrenSummaries)
}

func TestGatherInputs_TopDownPassCarriesParentSummaryFromDoneSummary(t *testing.T) {
	ctx := context.Background()
	store := graphstore.NewMemStore(0)

	modID := graph.ModuleID("pkg/x.go")
	fnID := graph.FunctionID(modID, "Do")
	mod := &graph.ModuleEntity{Common: graph.Common{IDValue: modID, CodeContent: "package x"}}
	fn := &graph.FunctionEntity{Common: graph.Common{IDValue: fnID, Parent: modID, CodeContent: "func Do() {}"}, FunctionName: "Do"}
	require.NoError(t, store.Upsert(ctx, mod))
	require.NoError(t, store.Upsert(ctx, fn))

	eng := New(store, llm.EchoClient{}, []graph.Entity{mod, fn}, Config{})
	pc := &passContext{passNum: 2, dir: planner.TopDown, previous: map[string]string{}, doneSummary: map[string]string{}}
	pc.markDone(modID, "module summary")

	in := eng.gatherInputs(ctx, fn, pc)
	require.Equal(t, "module summary", in.ParentSummary)
}
