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

// fakeRunner is an in-memory double for Runner, just enough to exercise
// CozoStore's script construction and round-tripping without a real CozoDB.
type fakeRunner struct {
	rows map[string][]any // id -> [kind, path, summary, entity]
}

func newFakeRunner() *fakeRunner { return &fakeRunner{rows: make(map[string][]any)} }

func (f *fakeRunner) Run(script string, params map[string]any) (Rows, error) {
	id, _ := params["id"].(string)
	if id == "" {
		return Rows{}, nil
	}
	if params["kind"] == nil {
		// a delete script: params only carries id.
		delete(f.rows, id)
		return Rows{}, nil
	}
	f.rows[id] = []any{params["kind"], params["path"], params["summary"], params["entity"]}
	return Rows{}, nil
}

func (f *fakeRunner) RunReadOnly(script string, params map[string]any) (Rows, error) {
	if id, ok := params["id"].(string); ok {
		row, found := f.rows[id]
		if !found {
			return Rows{Headers: []string{"entity"}}, nil
		}
		// Get's script projects only the entity blob.
		return Rows{Headers: []string{"entity"}, Rows: [][]any{{row[3]}}}, nil
	}
	// All's script projects [id, entity].
	out := Rows{Headers: []string{"id", "entity"}}
	for id, row := range f.rows {
		out.Rows = append(out.Rows, []any{id, row[3]})
	}
	return out, nil
}

func TestCozoStore_UpsertThenGetRoundTripsFullEntity(t *testing.T) {
	store := NewCozoStore(newFakeRunner(), 0)
	ctx := context.Background()

	mod := graph.ModuleID("a/b.go")
	fn := &graph.FunctionEntity{
		Common: graph.Common{
			IDValue:           graph.FunctionID(mod, "Do"),
			FilePath:          "a/b.go",
			Parent:            mod,
			StartLine:         10,
			EndLine:           24,
			CodeContent:       "func Do() error { return nil }",
			ImportantComments: []string{"Do must stay idempotent"},
			Dependencies:      []graph.LocalDep{{CodeBlockID: "helper", LocalModuleID: graph.ModuleID("a/c.go")}},
			SummaryValue:      "does a thing",
		},
		FunctionName: "Do",
		Parameters:   []string{"ctx"},
		Returns:      "error",
		IsMethod:     true,
	}
	require.NoError(t, store.Upsert(ctx, fn))

	got, ok, err := store.Get(ctx, fn.IDValue)
	require.NoError(t, err)
	require.True(t, ok)

	asFn, ok := got.(*graph.FunctionEntity)
	require.True(t, ok)
	// The whole entity must survive, not just the queryable columns:
	// children/dependency context gathering falls back to CodeContent when
	// no summary exists yet.
	require.Equal(t, fn, asFn)
	require.Equal(t, "func Do() error { return nil }", asFn.CodeContent)
	require.Equal(t, []string{"Do must stay idempotent"}, asFn.ImportantComments)
	require.Equal(t, fn.Dependencies, asFn.Dependencies)
}

func TestCozoStore_ModuleImportsSurviveRoundTrip(t *testing.T) {
	store := NewCozoStore(newFakeRunner(), 0)
	ctx := context.Background()

	id := graph.ModuleID("a.py")
	mod := &graph.ModuleEntity{
		Common: graph.Common{IDValue: id, FilePath: "a.py", CodeContent: "import b"},
		Imports: []graph.Import{{
			ImportNames:      []graph.ImportedName{{Name: "helper", LocalBlockID: "blk"}},
			ImportedFrom:     "b",
			ImportModuleType: graph.ImportLocal,
			LocalModuleID:    graph.ModuleID("b.py"),
		}},
	}
	require.NoError(t, store.Upsert(ctx, mod))

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	back, ok := all[0].(*graph.ModuleEntity)
	require.True(t, ok)
	require.Equal(t, mod.Imports, back.Imports)
	require.Equal(t, "import b", back.CodeContent)
}

func TestCozoStore_UpdateSummaryPreservesEverythingElse(t *testing.T) {
	store := NewCozoStore(newFakeRunner(), 0)
	ctx := context.Background()

	mod := graph.ModuleID("a/b.go")
	fn := &graph.FunctionEntity{
		Common:       graph.Common{IDValue: graph.FunctionID(mod, "Do"), Parent: mod, CodeContent: "func Do() {}"},
		FunctionName: "Do",
	}
	require.NoError(t, store.Upsert(ctx, fn))
	require.NoError(t, store.UpdateSummary(ctx, fn.IDValue, "fresh summary"))

	got, ok, err := store.Get(ctx, fn.IDValue)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "fresh summary", got.Summary())
	require.Equal(t, "func Do() {}", got.(*graph.FunctionEntity).CodeContent)
}

func TestCozoStore_GetMissingReturnsFalse(t *testing.T) {
	store := NewCozoStore(newFakeRunner(), 0)
	_, ok, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, ok)
}
