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

// Package vectorstore adapts the summarized corpus onto a single flat
// vector collection ("fenec" by default), used for retrieval-augmented
// question answering.
package vectorstore

import "context"

// DefaultCollection is the vector store's default, and in this module's
// reference implementations only, collection name.
const DefaultCollection = "fenec"

// Document is one embeddable unit: an entity's summary text, its vector,
// and the flat metadata projected from graph.Entity.ToMetadata.
type Document struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  map[string]string
}

// Match is a single query result, ordered by descending similarity Score.
type Match struct {
	Document Document
	Score    float32
}

// Store is the vector-store adapter. A single flat collection is assumed;
// callers distinguish content by metadata, not by collection.
type Store interface {
	// UpsertMany inserts or replaces the given documents by ID.
	UpsertMany(ctx context.Context, docs []Document) error

	// Query returns the topK nearest documents to the given embedding.
	Query(ctx context.Context, embedding []float32, topK int) ([]Match, error)

	// Reset drops every stored document.
	Reset(ctx context.Context) error
}
