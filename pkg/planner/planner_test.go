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

package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/fenec/pkg/graph"
	"github.com/kraklabs/fenec/pkg/graphstore"
)

// leaf --(dependency->dependent edge)--> mid --> top
// i.e. leaf is a dependency of mid, mid is a dependency of top.
func buildLine(t *testing.T) (store graphstore.Store, leaf, mid, top string) {
	t.Helper()
	ctx := context.Background()
	store = graphstore.NewMemStore(8)

	mod := graph.ModuleID("pkg/x.go")
	leaf = graph.FunctionID(mod, "Leaf")
	mid = graph.FunctionID(mod, "Mid")
	top = graph.FunctionID(mod, "Top")

	upsert := func(e graph.Entity) { require.NoError(t, store.Upsert(ctx, e)) }
	upsert(&graph.ModuleEntity{Common: graph.Common{IDValue: mod}})
	upsert(&graph.FunctionEntity{Common: graph.Common{IDValue: leaf, Parent: mod}, FunctionName: "Leaf"})
	upsert(&graph.FunctionEntity{Common: graph.Common{IDValue: mid, Parent: mod}, FunctionName: "Mid"})
	upsert(&graph.FunctionEntity{Common: graph.Common{IDValue: top, Parent: mod}, FunctionName: "Top"})

	require.NoError(t, store.UpsertEdge(ctx, graphstore.Edge{From: leaf, To: mid, Label: "dep"}))
	require.NoError(t, store.UpsertEdge(ctx, graphstore.Edge{From: mid, To: top, Label: "dep"}))
	return
}

func TestDirectionForPass_FollowsFixedSchedule(t *testing.T) {
	require.Equal(t, BottomUp, DirectionForPass(1))
	require.Equal(t, TopDown, DirectionForPass(2))
	require.Equal(t, BottomUp, DirectionForPass(3))
}

func TestPlan_BottomUpPutsLeavesFirst(t *testing.T) {
	store, leaf, mid, top := buildLine(t)

	order, err := New(store).Plan(context.Background(), []string{top}, BottomUp)
	require.NoError(t, err)
	require.Equal(t, []string{leaf, mid, top}, order)
}

func TestPlan_TopDownPutsRootFirst(t *testing.T) {
	store, leaf, mid, top := buildLine(t)

	order, err := New(store).Plan(context.Background(), []string{leaf}, TopDown)
	require.NoError(t, err)
	require.Equal(t, []string{top, mid, leaf}, order)
}

func TestPlan_BottomUpFromLeafSeedKeepsDependencyOrder(t *testing.T) {
	store, leaf, mid, top := buildLine(t)

	// Seeding from the deepest dependency walks the dependent closure as the
	// tail; mid still has to precede top, its own dependent.
	order, err := New(store).Plan(context.Background(), []string{leaf}, BottomUp)
	require.NoError(t, err)
	require.Equal(t, []string{leaf, mid, top}, order)
}

func TestPlan_AllSeedsBottomUpThenTopDownAreMirrored(t *testing.T) {
	store, leaf, mid, top := buildLine(t)
	p := New(store)
	seeds := []string{top, mid, leaf}

	bottomUp, err := p.Plan(context.Background(), seeds, BottomUp)
	require.NoError(t, err)
	require.Equal(t, []string{leaf, mid, top}, bottomUp)

	topDown, err := p.Plan(context.Background(), seeds, TopDown)
	require.NoError(t, err)
	require.Equal(t, []string{top, mid, leaf}, topDown)
}

func TestPlan_DedupesAcrossSeeds(t *testing.T) {
	store, leaf, mid, top := buildLine(t)

	order, err := New(store).Plan(context.Background(), []string{top, mid}, BottomUp)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{leaf, mid, top}, order)
	require.Len(t, order, 3)
}

func TestPlan_EmptySeedsReturnsEmpty(t *testing.T) {
	store := graphstore.NewMemStore(0)
	order, err := New(store).Plan(context.Background(), nil, BottomUp)
	require.NoError(t, err)
	require.Empty(t, order)
}

func TestRanks_BottomUpRanksLeafBeforeDependents(t *testing.T) {
	store, leaf, mid, top := buildLine(t)
	p := New(store)

	order, err := p.Plan(context.Background(), []string{top}, BottomUp)
	require.NoError(t, err)

	ranks, err := p.Ranks(context.Background(), order, BottomUp)
	require.NoError(t, err)

	byID := map[string]int{}
	for i, id := range order {
		byID[id] = ranks[i]
	}
	require.Less(t, byID[leaf], byID[mid])
	require.Less(t, byID[mid], byID[top])
}

func TestRanks_TwoEntityCycleDoesNotHang(t *testing.T) {
	ctx := context.Background()
	store := graphstore.NewMemStore(8)
	modA := graph.ModuleID("a.go")
	modB := graph.ModuleID("b.go")
	require.NoError(t, store.Upsert(ctx, &graph.ModuleEntity{Common: graph.Common{IDValue: modA}}))
	require.NoError(t, store.Upsert(ctx, &graph.ModuleEntity{Common: graph.Common{IDValue: modB}}))
	require.NoError(t, store.UpsertEdge(ctx, graphstore.Edge{From: modA, To: modB, Label: "dep"}))
	require.NoError(t, store.UpsertEdge(ctx, graphstore.Edge{From: modB, To: modA, Label: "dep"}))

	p := New(store)
	order, err := p.Plan(ctx, []string{modA}, BottomUp)
	require.NoError(t, err)
	require.Len(t, order, 2)

	ranks, err := p.Ranks(ctx, order, BottomUp)
	require.NoError(t, err)
	require.Len(t, ranks, 2)
}
