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

// Package parser is the inbound boundary: it turns source text into the
// entity set the rest of the core operates on. Language frontends live
// behind the Parser interface — a subprocess emitting wire JSON in
// production, fixed-result doubles in tests.
package parser

import (
	"context"

	"github.com/kraklabs/fenec/pkg/graph"
)

// ParseResult is everything a single parse run produces: the full entity
// set (with IDs already assigned and every field populated except
// the resolver's LocalModuleID/LocalBlockID) plus the directory-to-file-name
// map the on-disk export mirrors as directory_map.json.
type ParseResult struct {
	Entities          []graph.Entity
	DirectoryModules map[string][]string // directory path -> file names directly inside it
}

// Parser parses a repository rooted at rootDir into a ParseResult. File
// paths in the result are reported relative to rootDir.
type Parser interface {
	Parse(ctx context.Context, rootDir string) (*ParseResult, error)
}

// MockParser is a test double that returns a fixed ParseResult regardless of
// rootDir, for exercising the pipeline without a real language frontend.
type MockParser struct {
	Result *ParseResult
	Err    error
}

func (m *MockParser) Parse(ctx context.Context, rootDir string) (*ParseResult, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

// StaticParser wraps a pre-built entity set supplied at construction time,
// keyed by the same ParseResult shape a real frontend would build.
type StaticParser struct {
	entities         []graph.Entity
	directoryModules map[string][]string
}

// NewStaticParser wraps a pre-built entity set and directory map.
func NewStaticParser(entities []graph.Entity, directoryModules map[string][]string) *StaticParser {
	return &StaticParser{entities: entities, directoryModules: directoryModules}
}

func (s *StaticParser) Parse(ctx context.Context, rootDir string) (*ParseResult, error) {
	return &ParseResult{Entities: s.entities, DirectoryModules: s.directoryModules}, nil
}
