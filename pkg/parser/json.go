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

package parser

import (
	"encoding/json"
	"fmt"
	"io"

	fenecerrors "github.com/kraklabs/fenec/internal/errors"
	"github.com/kraklabs/fenec/pkg/graph"
)

// The JSON wire format an external parser frontend emits. One document:
//
//	{"entities": [...], "directory_modules": {"pkg": ["a.py", "b.py"]}}
//
// Each entity carries a "block_type" discriminator plus the fields for
// its kind. Imports arrive with import_module_type set but no
// local_module_id/local_block_id (resolution is this module's job, not the
// frontend's).
type wireResult struct {
	Entities         []wireEntity        `json:"entities"`
	DirectoryModules map[string][]string `json:"directory_modules"`
}

type wireEntity struct {
	ID                string         `json:"id"`
	BlockType         string         `json:"block_type"`
	FilePath          string         `json:"file_path,omitempty"`
	ParentID          string         `json:"parent_id,omitempty"`
	StartLine         int            `json:"start_line,omitempty"`
	EndLine           int            `json:"end_line,omitempty"`
	CodeContent       string         `json:"code_content,omitempty"`
	ImportantComments []string       `json:"important_comments,omitempty"`
	Dependencies      []wireLocalDep `json:"dependencies,omitempty"`
	Summary           string         `json:"summary,omitempty"`
	ChildrenIDs       []string       `json:"children_ids,omitempty"`

	// Module
	Language  string       `json:"language,omitempty"`
	Docstring string       `json:"docstring,omitempty"`
	Header    []string     `json:"header,omitempty"`
	Footer    []string     `json:"footer,omitempty"`
	Imports   []wireImport `json:"imports,omitempty"`

	// Class
	ClassName  string   `json:"class_name,omitempty"`
	Decorators []string `json:"decorators,omitempty"`
	Bases      []string `json:"bases,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`

	// Function
	FunctionName string   `json:"function_name,omitempty"`
	Parameters   []string `json:"parameters,omitempty"`
	Returns      string   `json:"returns,omitempty"`
	IsMethod     bool     `json:"is_method,omitempty"`
	IsAsync      bool     `json:"is_async,omitempty"`

	// Standalone
	Order               int      `json:"order,omitempty"`
	VariableAssignments []string `json:"variable_assignments,omitempty"`

	// Directory
	DirectoryName   string   `json:"directory_name,omitempty"`
	SubDirectoryIDs []string `json:"sub_directories_ids,omitempty"`
}

type wireImport struct {
	ImportNames      []wireImportedName `json:"import_names"`
	ImportedFrom     string             `json:"imported_from,omitempty"`
	ImportModuleType string             `json:"import_module_type,omitempty"`
}

type wireImportedName struct {
	Name   string `json:"name"`
	AsName string `json:"as_name,omitempty"`
}

type wireLocalDep struct {
	CodeBlockID string `json:"code_block_id"`
}

// DecodeResult reads one wire document from r. Individual entities that
// fail to convert are dropped from the result; the error they carry is
// returned to the caller's logger via the skipped slice so load can report
// them without aborting the whole parse.
func DecodeResult(r io.Reader) (*ParseResult, []error, error) {
	var wire wireResult
	dec := json.NewDecoder(r)
	if err := dec.Decode(&wire); err != nil {
		return nil, nil, fmt.Errorf("decode parse result: %w", err)
	}

	result := &ParseResult{DirectoryModules: wire.DirectoryModules}
	var skipped []error
	for _, we := range wire.Entities {
		e, err := we.toEntity()
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		result.Entities = append(result.Entities, e)
	}
	return result, skipped, nil
}

func (w *wireEntity) common() (graph.Common, error) {
	deps := make([]graph.LocalDep, 0, len(w.Dependencies))
	for _, d := range w.Dependencies {
		deps = append(deps, graph.LocalDep{CodeBlockID: d.CodeBlockID})
	}
	if len(deps) == 0 {
		deps = nil
	}
	return graph.Common{
		IDValue:           w.ID,
		FilePath:          w.FilePath,
		Parent:            w.ParentID,
		StartLine:         w.StartLine,
		EndLine:           w.EndLine,
		CodeContent:       w.CodeContent,
		ImportantComments: w.ImportantComments,
		Dependencies:      deps,
		SummaryValue:      w.Summary,
		Children:          w.ChildrenIDs,
	}, nil
}

func (w *wireEntity) toEntity() (graph.Entity, error) {
	if w.ID == "" {
		return nil, fenecerrors.InvalidEntity("wire entity has empty id")
	}

	switch w.BlockType {
	case "MODULE":
		c, err := w.common()
		if err != nil {
			return nil, err
		}
		imports := make([]graph.Import, 0, len(w.Imports))
		for _, wi := range w.Imports {
			mt, err := graph.ParseImportModuleType(wi.ImportModuleType)
			if err != nil {
				return nil, fenecerrors.InvalidEntityf("module %q: %v", w.ID, err)
			}
			names := make([]graph.ImportedName, 0, len(wi.ImportNames))
			for _, n := range wi.ImportNames {
				names = append(names, graph.ImportedName{Name: n.Name, AsName: n.AsName})
			}
			imports = append(imports, graph.Import{
				ImportNames:      names,
				ImportedFrom:     wi.ImportedFrom,
				ImportModuleType: mt,
			})
		}
		if len(imports) == 0 {
			imports = nil
		}
		return &graph.ModuleEntity{
			Common:    c,
			Language:  w.Language,
			Docstring: w.Docstring,
			Header:    w.Header,
			Footer:    w.Footer,
			Imports:   imports,
		}, nil
	case "CLASS":
		c, err := w.common()
		if err != nil {
			return nil, err
		}
		return &graph.ClassEntity{
			Common:     c,
			ClassName:  w.ClassName,
			Decorators: w.Decorators,
			Bases:      w.Bases,
			Docstring:  w.Docstring,
			Keywords:   w.Keywords,
		}, nil
	case "FUNCTION":
		c, err := w.common()
		if err != nil {
			return nil, err
		}
		return &graph.FunctionEntity{
			Common:       c,
			FunctionName: w.FunctionName,
			Docstring:    w.Docstring,
			Decorators:   w.Decorators,
			Parameters:   w.Parameters,
			Returns:      w.Returns,
			IsMethod:     w.IsMethod,
			IsAsync:      w.IsAsync,
		}, nil
	case "STANDALONE_BLOCK":
		c, err := w.common()
		if err != nil {
			return nil, err
		}
		return &graph.StandaloneEntity{
			Common:              c,
			Order:               w.Order,
			VariableAssignments: w.VariableAssignments,
		}, nil
	case "DIRECTORY":
		return &graph.DirectoryEntity{
			IDValue:         w.ID,
			DirectoryName:   w.DirectoryName,
			Parent:          w.ParentID,
			SubDirectoryIDs: w.SubDirectoryIDs,
			Children:        w.ChildrenIDs,
			SummaryValue:    w.Summary,
		}, nil
	default:
		return nil, fenecerrors.InvalidEntityf("entity %q has unknown block_type %q", w.ID, w.BlockType)
	}
}
