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

package main

import (
	"context"
	"fmt"

	"github.com/kraklabs/fenec/pkg/cozodb"
	"github.com/kraklabs/fenec/pkg/graphstore"
	"github.com/kraklabs/fenec/pkg/vectorstore"
)

// cozoRunner adapts *cozodb.CozoDB (the cgo binding) onto the narrow Runner
// interfaces both pkg/graphstore and pkg/vectorstore depend on, keeping cgo
// confined to pkg/cozodb.
type cozoRunner struct {
	db *cozodb.CozoDB
}

func (r *cozoRunner) Run(script string, params map[string]any) (graphstore.Rows, error) {
	rows, err := r.db.Run(script, params)
	return graphstore.Rows{Headers: rows.Headers, Rows: rows.Rows}, err
}

func (r *cozoRunner) RunReadOnly(script string, params map[string]any) (graphstore.Rows, error) {
	rows, err := r.db.RunReadOnly(script, params)
	return graphstore.Rows{Headers: rows.Headers, Rows: rows.Rows}, err
}

// cozoVectorRunner is the same adapter against vectorstore.Runner, a
// structurally identical but nominally distinct interface (vectorstore
// can't import graphstore's Rows without coupling the two adapters
// together).
type cozoVectorRunner struct {
	db *cozodb.CozoDB
}

func (r *cozoVectorRunner) Run(script string, params map[string]any) (vectorstore.Rows, error) {
	rows, err := r.db.Run(script, params)
	return vectorstore.Rows{Headers: rows.Headers, Rows: rows.Rows}, err
}

func (r *cozoVectorRunner) RunReadOnly(script string, params map[string]any) (vectorstore.Rows, error) {
	rows, err := r.db.RunReadOnly(script, params)
	return vectorstore.Rows{Headers: rows.Headers, Rows: rows.Rows}, err
}

// openStores constructs the graph and vector stores cfg.Store.Backend
// selects, ensuring schema on both before returning. "mem" (the default)
// needs no cleanup; "cozo" opens a CozoDB instance under cfg.Store.DataDir
// that the caller should close when it's a *cozodb.CozoDB-backed run
// (closeFn is a no-op for "mem").
func openStores(ctx context.Context, cfg *Config) (graphstore.Store, vectorstore.Store, func(), error) {
	switch cfg.Store.Backend {
	case "", "mem":
		gs := graphstore.NewMemStore(1024)
		vs := vectorstore.NewMemStore()
		return gs, vs, func() {}, nil
	case "cozo":
		db, err := cozodb.New("rocksdb", cfg.Store.DataDir, nil)
		if err != nil {
			return nil, nil, func() {}, fmt.Errorf("open cozodb at %s: %w", cfg.Store.DataDir, err)
		}
		gs := graphstore.NewCozoStore(&cozoRunner{db: &db}, uint(cfg.Summarize.WriteRetries))
		vs := vectorstore.NewCozoStore(&cozoVectorRunner{db: &db}, cfg.Store.VectorDims)
		closeFn := func() { db.Close() }
		if err := gs.EnsureSchema(ctx); err != nil {
			closeFn()
			return nil, nil, func() {}, err
		}
		if err := vs.EnsureSchema(ctx); err != nil {
			closeFn()
			return nil, nil, func() {}, err
		}
		return gs, vs, closeFn, nil
	default:
		return nil, nil, func() {}, fmt.Errorf("unknown store backend %q (want \"mem\" or \"cozo\")", cfg.Store.Backend)
	}
}
