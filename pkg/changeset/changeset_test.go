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

package changeset

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/fenec/pkg/graph"
	"github.com/kraklabs/fenec/pkg/graphstore"
)

// buildGraph wires: changedMod --defines--> fn --calls--> dep, and
// caller --calls--> changedMod's fn, so inbound/outbound both have something
// to find.
func buildGraph(t *testing.T) (store graphstore.Store, changedMod, fn, dep, caller string) {
	t.Helper()
	ctx := context.Background()
	store = graphstore.NewMemStore(16)

	changedMod = graph.ModuleID("pkg/widget/widget.go")
	fn = graph.FunctionID(changedMod, "Build")
	depMod := graph.ModuleID("pkg/util/util.go")
	dep = graph.FunctionID(depMod, "Helper")
	callerMod := graph.ModuleID("cmd/app/main.go")
	caller = graph.FunctionID(callerMod, "Main")

	upsert := func(e graph.Entity) { require.NoError(t, store.Upsert(ctx, e)) }
	upsert(&graph.ModuleEntity{Common: graph.Common{IDValue: changedMod}})
	upsert(&graph.FunctionEntity{Common: graph.Common{IDValue: fn, Parent: changedMod}, FunctionName: "Build"})
	upsert(&graph.ModuleEntity{Common: graph.Common{IDValue: depMod}})
	upsert(&graph.FunctionEntity{Common: graph.Common{IDValue: dep, Parent: depMod}, FunctionName: "Helper"})
	upsert(&graph.ModuleEntity{Common: graph.Common{IDValue: callerMod}})
	upsert(&graph.FunctionEntity{Common: graph.Common{IDValue: caller, Parent: callerMod}, FunctionName: "Main"})

	require.NoError(t, store.UpsertEdge(ctx, graphstore.Edge{From: changedMod, To: fn, Label: "defines"}))
	require.NoError(t, store.UpsertEdge(ctx, graphstore.Edge{From: fn, To: dep, Label: "calls"}))
	require.NoError(t, store.UpsertEdge(ctx, graphstore.Edge{From: caller, To: fn, Label: "calls"}))
	return
}

func TestAffected_SingleDirectionIncludesOnlyOutbound(t *testing.T) {
	store, changedMod, fn, dep, caller := buildGraph(t)

	got, err := NewDetector(store).Affected(context.Background(), []string{"pkg/widget/widget.go"}, false)
	require.NoError(t, err)
	sort.Strings(got)

	want := []string{changedMod, fn, dep}
	sort.Strings(want)
	require.Equal(t, want, got)
	require.NotContains(t, got, caller)
}

func TestAffected_BothDirectionsAlsoIncludesInbound(t *testing.T) {
	store, changedMod, fn, dep, caller := buildGraph(t)

	got, err := NewDetector(store).Affected(context.Background(), []string{"pkg/widget/widget.go"}, true)
	require.NoError(t, err)
	sort.Strings(got)

	want := []string{caller, changedMod, dep, fn}
	sort.Strings(want)
	require.Equal(t, want, got)
}

func TestAffected_MultipleChangedFilesUnion(t *testing.T) {
	store, changedMod, fn, dep, _ := buildGraph(t)

	got, err := NewDetector(store).Affected(context.Background(), []string{
		"pkg/widget/widget.go",
		"pkg/util/util.go",
	}, false)
	require.NoError(t, err)

	depMod := graph.ModuleID("pkg/util/util.go")
	require.Contains(t, got, changedMod)
	require.Contains(t, got, fn)
	require.Contains(t, got, dep)
	require.Contains(t, got, depMod)
}

func TestAffected_UnknownFileStillSeedsDeterministically(t *testing.T) {
	store := graphstore.NewMemStore(0)
	got, err := NewDetector(store).Affected(context.Background(), []string{"nope.go"}, false)
	require.NoError(t, err)
	require.Equal(t, []string{graph.ModuleID("nope.go")}, got)
}
