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

package graph

import (
	"strconv"
	"strings"

	"github.com/kraklabs/fenec/internal/errors"
)

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// FromMetadata reconstructs an Entity from the flat string map produced by
// ToMetadata. It is the only place a vector-store document is turned back
// into a typed graph node. Required fields absent from m fail with
// InvalidEntity.
func FromMetadata(m map[string]string) (Entity, error) {
	id, ok := m["id"]
	if !ok || id == "" {
		return nil, errors.InvalidEntity("metadata missing id")
	}

	base := func() Common {
		startLine, _ := strconv.Atoi(m["start_line"])
		endLine, _ := strconv.Atoi(m["end_line"])
		var comments []string
		if m["important_comments"] != "" {
			comments = strings.Split(m["important_comments"], "\n")
		}
		var children []string
		if m["children_ids"] != "" {
			children = strings.Split(m["children_ids"], ",")
		}
		parent, _ := ParentOf(id)
		if p, ok := m["parent_id"]; ok && p != "" {
			parent = p
		}
		return Common{
			IDValue:           id,
			FilePath:          m["file_path"],
			Parent:            parent,
			StartLine:         startLine,
			EndLine:           endLine,
			CodeContent:       m["code_content"],
			ImportantComments: comments,
			SummaryValue:      m["summary"],
			Children:          children,
		}
	}

	switch BlockTypeOf(id) {
	case BlockTypeDirectory:
		return &DirectoryEntity{
			IDValue:         id,
			DirectoryName:   m["directory_name"],
			Parent:          m["parent_id"],
			SubDirectoryIDs: splitNonEmpty(m["sub_directories_ids"]),
			Children:        splitNonEmpty(m["children_ids"]),
			SummaryValue:    m["summary"],
		}, nil
	case BlockTypeModule:
		var header, footer []string
		if m["header"] != "" {
			header = strings.Split(m["header"], "\n")
		}
		if m["footer"] != "" {
			footer = strings.Split(m["footer"], "\n")
		}
		return &ModuleEntity{
			Common:    base(),
			Language:  m["language"],
			Docstring: m["docstring"],
			Header:    header,
			Footer:    footer,
		}, nil
	case BlockTypeClass:
		if m["class_name"] == "" {
			return nil, errors.InvalidEntityf("metadata for class %q missing class_name", id)
		}
		return &ClassEntity{
			Common:     base(),
			ClassName:  m["class_name"],
			Decorators: splitNonEmpty(m["decorators"]),
			Bases:      splitNonEmpty(m["bases"]),
			Docstring:  m["docstring"],
			Keywords:   splitNonEmpty(m["keywords"]),
		}, nil
	case BlockTypeFunction:
		if m["function_name"] == "" {
			return nil, errors.InvalidEntityf("metadata for function %q missing function_name", id)
		}
		isMethod, _ := strconv.ParseBool(m["is_method"])
		isAsync, _ := strconv.ParseBool(m["is_async"])
		return &FunctionEntity{
			Common:       base(),
			FunctionName: m["function_name"],
			Docstring:    m["docstring"],
			Decorators:   splitNonEmpty(m["decorators"]),
			Parameters:   splitNonEmpty(m["parameters"]),
			Returns:      m["returns"],
			IsMethod:     isMethod,
			IsAsync:      isAsync,
		}, nil
	case BlockTypeStandalone:
		order, _ := strconv.Atoi(m["order"])
		return &StandaloneEntity{
			Common:              base(),
			Order:               order,
			VariableAssignments: splitNonEmpty(m["variable_assignments"]),
		}, nil
	default:
		return nil, errors.InvalidEntityf("metadata id %q does not encode a known block type", id)
	}
}
