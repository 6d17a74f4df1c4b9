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

// Package graph defines the code-graph entity model: deterministic,
// path-encoded identifiers and the entity kinds that make up a summarized
// corpus (directories, modules, classes, functions, standalone blocks).
package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// BlockType discriminates the kind of entity an ID refers to.
type BlockType int

const (
	BlockTypeUnknown BlockType = iota
	BlockTypeDirectory
	BlockTypeModule
	BlockTypeClass
	BlockTypeFunction
	BlockTypeStandalone
)

func (b BlockType) String() string {
	switch b {
	case BlockTypeDirectory:
		return "DIRECTORY"
	case BlockTypeModule:
		return "MODULE"
	case BlockTypeClass:
		return "CLASS"
	case BlockTypeFunction:
		return "FUNCTION"
	case BlockTypeStandalone:
		return "STANDALONE_BLOCK"
	default:
		return "UNKNOWN"
	}
}

const idSep = "__*__"

// pathToID converts a filesystem path into its ID-safe form by replacing
// path separators with colons.
func pathToID(path string) string {
	return strings.ReplaceAll(path, "/", ":")
}

// ModuleID generates the ID for a module (source file), e.g.
// "pkg:graph:ids.go__*__MODULE".
func ModuleID(filePath string) string {
	return pathToID(filePath) + idSep + "MODULE"
}

// DirectoryID generates the ID for a directory, e.g. "pkg:graph__*__DIRECTORY".
func DirectoryID(dirPath string) string {
	return pathToID(dirPath) + idSep + "DIRECTORY"
}

// ClassID generates the ID for a class/struct/interface nested under parentID.
func ClassID(parentID, className string) string {
	return parentID + idSep + "CLASS-" + className
}

// FunctionID generates the ID for a function or method nested under parentID.
// The signature is deliberately excluded so the ID stays stable across
// signature-only edits.
func FunctionID(parentID, functionName string) string {
	return parentID + idSep + "FUNCTION-" + functionName
}

// StandaloneID generates the ID for the count-th standalone code block
// (module-level statements outside any function or class) under parentID.
func StandaloneID(parentID string, count int) string {
	return parentID + idSep + "STANDALONE_BLOCK-" + strconv.Itoa(count)
}

// BlockTypeOf recovers the BlockType encoded in id. It is the inverse of the
// *_ID constructors above and never mutates or validates beyond parsing.
func BlockTypeOf(id string) BlockType {
	idx := strings.LastIndex(id, idSep)
	if idx < 0 {
		return BlockTypeUnknown
	}
	tail := id[idx+len(idSep):]
	switch {
	case tail == "MODULE":
		return BlockTypeModule
	case tail == "DIRECTORY":
		return BlockTypeDirectory
	case strings.HasPrefix(tail, "CLASS-"):
		return BlockTypeClass
	case strings.HasPrefix(tail, "FUNCTION-"):
		return BlockTypeFunction
	case strings.HasPrefix(tail, "STANDALONE_BLOCK-"):
		return BlockTypeStandalone
	default:
		return BlockTypeUnknown
	}
}

// ParentOf returns the parent ID encoded in a CLASS/FUNCTION/STANDALONE_BLOCK
// ID, and false for MODULE/DIRECTORY IDs or malformed input (those have no
// graph parent encoded in the ID itself; their parent, if any, comes from a
// DEFINES edge discovered during parsing).
func ParentOf(id string) (string, bool) {
	switch BlockTypeOf(id) {
	case BlockTypeClass, BlockTypeFunction, BlockTypeStandalone:
		idx := strings.LastIndex(id, idSep)
		return id[:idx], true
	default:
		return "", false
	}
}

// NameOf returns the declared name encoded in a CLASS/FUNCTION ID.
func NameOf(id string) (string, error) {
	idx := strings.LastIndex(id, idSep)
	if idx < 0 {
		return "", fmt.Errorf("graph: malformed id %q: missing separator", id)
	}
	tail := id[idx+len(idSep):]
	switch {
	case strings.HasPrefix(tail, "CLASS-"):
		return strings.TrimPrefix(tail, "CLASS-"), nil
	case strings.HasPrefix(tail, "FUNCTION-"):
		return strings.TrimPrefix(tail, "FUNCTION-"), nil
	default:
		return "", fmt.Errorf("graph: id %q has no name component", id)
	}
}
