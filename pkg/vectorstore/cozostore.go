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
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	fenecerrors "github.com/kraklabs/fenec/internal/errors"
)

// Runner is the slice of *cozodb.CozoDB this package depends on, mirroring
// pkg/graphstore.Runner so cgo stays confined to pkg/cozodb.
type Runner interface {
	Run(script string, params map[string]any) (Rows, error)
	RunReadOnly(script string, params map[string]any) (Rows, error)
}

// Rows mirrors cozodb.NamedRows without importing the cgo package.
type Rows struct {
	Headers []string
	Rows    [][]any
}

const cozoVectorSchema = `
:create fenec_embedding {
    id: String =>
    text: String,
    metadata: String,
    embedding: <F32; %d>,
}
`

// CozoStore is an HNSW-backed vector store: the relation is created with
// a fixed vector dimension, then indexed once documents are loaded.
type CozoStore struct {
	db         Runner
	dimensions int
	indexed    bool
}

func NewCozoStore(db Runner, dimensions int) *CozoStore {
	return &CozoStore{db: db, dimensions: dimensions}
}

func (c *CozoStore) EnsureSchema(ctx context.Context) error {
	_, err := c.db.Run(fmt.Sprintf(cozoVectorSchema, c.dimensions), nil)
	if err != nil {
		return fenecerrors.StoreError("ensure_vector_schema", err)
	}
	return nil
}

func (c *CozoStore) createHNSWIndex(ctx context.Context) error {
	script := `::hnsw create fenec_embedding:semantic {fields: [embedding], dim: ` + strconv.Itoa(c.dimensions) + `, dtype: F32, ef: 64, m: 32}`
	_, err := c.db.Run(script, nil)
	if err != nil {
		return fenecerrors.StoreError("create_hnsw_index", err)
	}
	c.indexed = true
	return nil
}

func (c *CozoStore) UpsertMany(ctx context.Context, docs []Document) error {
	for _, d := range docs {
		md, err := json.Marshal(d.Metadata)
		if err != nil {
			return fenecerrors.StoreError("upsert_many "+d.ID, err)
		}
		script := `?[id, text, metadata, embedding] <- [[$id, $text, $metadata, $embedding]]
:put fenec_embedding {id => text, metadata, embedding}`
		params := map[string]any{"id": d.ID, "text": d.Text, "metadata": string(md), "embedding": floatsToAny(d.Embedding)}
		if _, err := c.db.Run(script, params); err != nil {
			return fenecerrors.StoreError("upsert_many "+d.ID, err)
		}
	}
	if !c.indexed && len(docs) > 0 {
		if err := c.createHNSWIndex(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c *CozoStore) Query(ctx context.Context, embedding []float32, topK int) ([]Match, error) {
	script := `?[id, text, metadata, dist] := ~fenec_embedding:semantic{id, text, metadata | query: $q, k: $k, ef: 64, bind_distance: dist}
:order dist`
	rows, err := c.db.RunReadOnly(script, map[string]any{"q": floatsToAny(embedding), "k": topK})
	if err != nil {
		return nil, fenecerrors.StoreError("query", err)
	}
	matches := make([]Match, 0, len(rows.Rows))
	for _, row := range rows.Rows {
		id, _ := row[0].(string)
		text, _ := row[1].(string)
		var md map[string]string
		if blob, ok := row[2].(string); ok && blob != "" {
			_ = json.Unmarshal([]byte(blob), &md)
		}
		var dist float64
		switch v := row[3].(type) {
		case float64:
			dist = v
		case float32:
			dist = float64(v)
		}
		matches = append(matches, Match{
			Document: Document{ID: id, Text: text, Metadata: md},
			Score:    float32(1 / (1 + dist)),
		})
	}
	return matches, nil
}

func (c *CozoStore) Reset(ctx context.Context) error {
	_, err := c.db.Run(`::remove fenec_embedding`, nil)
	if err != nil && !strings.Contains(err.Error(), "not found") {
		return fenecerrors.StoreError("reset", err)
	}
	c.indexed = false
	return c.EnsureSchema(ctx)
}

func floatsToAny(fs []float32) []any {
	out := make([]any, len(fs))
	for i, f := range fs {
		out[i] = f
	}
	return out
}
