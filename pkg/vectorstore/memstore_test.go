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

package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemStore_QueryRanksBySimilarity(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	require.NoError(t, s.UpsertMany(ctx, []Document{
		{ID: "a", Embedding: []float32{1, 0, 0}},
		{ID: "b", Embedding: []float32{0, 1, 0}},
		{ID: "c", Embedding: []float32{0.9, 0.1, 0}},
	}))

	matches, err := s.Query(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, "a", matches[0].Document.ID)
	require.Equal(t, "c", matches[1].Document.ID)
}

func TestMemStore_UpsertManyIsIdempotentByID(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	require.NoError(t, s.UpsertMany(ctx, []Document{{ID: "a", Text: "v1"}}))
	require.NoError(t, s.UpsertMany(ctx, []Document{{ID: "a", Text: "v2"}}))

	matches, err := s.Query(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "v2", matches[0].Document.Text)
}

func TestMemStore_Reset(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	require.NoError(t, s.UpsertMany(ctx, []Document{{ID: "a"}}))
	require.NoError(t, s.Reset(ctx))

	matches, err := s.Query(ctx, nil, 10)
	require.NoError(t, err)
	require.Empty(t, matches)
}
