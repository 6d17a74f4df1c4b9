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

// ImportModuleType classifies where an Import's target lives.
type ImportModuleType int

const (
	ImportUnknown ImportModuleType = iota
	ImportStandardLibrary
	ImportThirdParty
	ImportLocal
)

func (t ImportModuleType) String() string {
	switch t {
	case ImportStandardLibrary:
		return "STANDARD_LIBRARY"
	case ImportThirdParty:
		return "THIRD_PARTY"
	case ImportLocal:
		return "LOCAL"
	default:
		return ""
	}
}

// ParseImportModuleType is the inverse of ImportModuleType.String, used when
// deserializing from metadata.
func ParseImportModuleType(s string) (ImportModuleType, error) {
	switch s {
	case "STANDARD_LIBRARY":
		return ImportStandardLibrary, nil
	case "THIRD_PARTY":
		return ImportThirdParty, nil
	case "LOCAL":
		return ImportLocal, nil
	case "":
		return ImportUnknown, nil
	default:
		return ImportUnknown, errors.InvalidEntityf("unknown import_module_type %q", s)
	}
}

// ImportedName is one name brought into scope by an Import, e.g. the `x` in
// `from pkg import x as y` or a single symbol out of a multi-name import.
type ImportedName struct {
	Name   string
	AsName string
	// LocalBlockID is set by the resolver when Name resolves to a
	// concrete child entity of the import's target module.
	LocalBlockID string
}

// Import describes a single import statement discovered in a module.
// ImportNames/ImportedFrom/ImportModuleType are populated by the external
// parser; LocalModuleID (and each name's LocalBlockID) are the resolver's
// job, never the parser's.
type Import struct {
	ImportNames      []ImportedName
	ImportedFrom     string
	ImportModuleType ImportModuleType
	// LocalModuleID is the resolved target module ID for a LOCAL import, or
	// "" if resolution found no match.
	LocalModuleID string
}

// LocalDep is an unresolved reference, from some entity's code, to another
// code block by name. CodeBlockID carries the raw reference; resolution
// copies over the same LocalModuleID/LocalBlockID an equivalent Import in
// the containing module resolved to.
type LocalDep struct {
	CodeBlockID   string
	LocalModuleID string
	LocalBlockID  string
}

// Entity is implemented by every code-graph node kind. It is a closed sum
// type realized as five concrete struct kinds, discriminated by Kind().
type Entity interface {
	ID() string
	Kind() BlockType
	ParentID() string
	Summary() string
	SetSummary(string)
	ChildrenIDs() []string
	AddChildID(string)
	// ToMetadata projects the entity into a flat string map suitable for a
	// vector store's metadata payload. Absent string fields map to "",
	// never to a missing key, so the schema stays stable.
	ToMetadata() map[string]string
}

// Common holds the fields shared by every non-directory entity.
type Common struct {
	IDValue            string
	FilePath           string
	Parent             string
	StartLine, EndLine int
	CodeContent        string
	ImportantComments  []string
	Dependencies       []LocalDep
	SummaryValue       string
	Children           []string
}

func (c *Common) ID() string            { return c.IDValue }
func (c *Common) ParentID() string      { return c.Parent }
func (c *Common) Summary() string       { return c.SummaryValue }
func (c *Common) SetSummary(s string)   { c.SummaryValue = s }
func (c *Common) ChildrenIDs() []string { return c.Children }
func (c *Common) AddChildID(id string)  { c.Children = append(c.Children, id) }

func (c *Common) baseMetadata(kind BlockType) map[string]string {
	return map[string]string{
		"id":                 c.IDValue,
		"kind":               kind.String(),
		"file_path":          c.FilePath,
		"parent_id":          c.Parent,
		"start_line":         itoa(c.StartLine),
		"end_line":           itoa(c.EndLine),
		"code_content":       c.CodeContent,
		"important_comments": strings.Join(c.ImportantComments, "\n"),
		"summary":            c.SummaryValue,
		"children_ids":       strings.Join(c.Children, ","),
	}
}

// DirectoryEntity represents a filesystem directory. Directories are the
// one entity kind with no file_path/code_content; the root directory has no
// parent.
type DirectoryEntity struct {
	IDValue         string
	DirectoryName   string
	Parent          string
	SubDirectoryIDs []string
	Children        []string
	SummaryValue    string
}

func (d *DirectoryEntity) ID() string            { return d.IDValue }
func (d *DirectoryEntity) Kind() BlockType       { return BlockTypeDirectory }
func (d *DirectoryEntity) ParentID() string      { return d.Parent }
func (d *DirectoryEntity) Summary() string       { return d.SummaryValue }
func (d *DirectoryEntity) SetSummary(s string)   { d.SummaryValue = s }
func (d *DirectoryEntity) ChildrenIDs() []string { return d.Children }
func (d *DirectoryEntity) AddChildID(id string)  { d.Children = append(d.Children, id) }
func (d *DirectoryEntity) ToMetadata() map[string]string {
	return map[string]string{
		"id":                  d.IDValue,
		"kind":                BlockTypeDirectory.String(),
		"directory_name":      d.DirectoryName,
		"parent_id":           d.Parent,
		"sub_directories_ids": strings.Join(d.SubDirectoryIDs, ","),
		"children_ids":        strings.Join(d.Children, ","),
		"summary":             d.SummaryValue,
	}
}

// ModuleEntity represents a single source file.
type ModuleEntity struct {
	Common
	Language  string
	Docstring string
	Header    []string
	Footer    []string
	Imports   []Import
}

func (m *ModuleEntity) Kind() BlockType { return BlockTypeModule }
func (m *ModuleEntity) ToMetadata() map[string]string {
	md := m.baseMetadata(BlockTypeModule)
	md["language"] = m.Language
	md["docstring"] = m.Docstring
	md["header"] = strings.Join(m.Header, "\n")
	md["footer"] = strings.Join(m.Footer, "\n")
	return md
}

// ClassEntity represents a class, struct, or interface declaration.
type ClassEntity struct {
	Common
	ClassName  string
	Decorators []string
	Bases      []string
	Docstring  string
	Keywords   []string
}

func (c *ClassEntity) Kind() BlockType { return BlockTypeClass }
func (c *ClassEntity) ToMetadata() map[string]string {
	md := c.baseMetadata(BlockTypeClass)
	md["class_name"] = c.ClassName
	md["decorators"] = strings.Join(c.Decorators, ",")
	md["bases"] = strings.Join(c.Bases, ",")
	md["docstring"] = c.Docstring
	md["keywords"] = strings.Join(c.Keywords, ",")
	return md
}

// FunctionEntity represents a function or method declaration.
type FunctionEntity struct {
	Common
	FunctionName string
	Docstring    string
	Decorators   []string
	Parameters   []string
	Returns      string
	IsMethod     bool
	IsAsync      bool
}

func (f *FunctionEntity) Kind() BlockType { return BlockTypeFunction }
func (f *FunctionEntity) ToMetadata() map[string]string {
	md := f.baseMetadata(BlockTypeFunction)
	md["function_name"] = f.FunctionName
	md["docstring"] = f.Docstring
	md["decorators"] = strings.Join(f.Decorators, ",")
	md["parameters"] = strings.Join(f.Parameters, ",")
	md["returns"] = f.Returns
	md["is_method"] = strconv.FormatBool(f.IsMethod)
	md["is_async"] = strconv.FormatBool(f.IsAsync)
	return md
}

// StandaloneEntity represents a contiguous run of module-level code that is
// neither a class nor a function declaration (imports, constants, top-level
// statements), numbered 1..N within its parent module by source order.
type StandaloneEntity struct {
	Common
	Order                int
	VariableAssignments []string
}

func (s *StandaloneEntity) Kind() BlockType { return BlockTypeStandalone }
func (s *StandaloneEntity) ToMetadata() map[string]string {
	md := s.baseMetadata(BlockTypeStandalone)
	md["order"] = itoa(s.Order)
	md["variable_assignments"] = strings.Join(s.VariableAssignments, ",")
	return md
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Validate checks the ID-encoding and naming rules for a single entity in
// isolation. Corpus-wide checks, like "parent.children_ids contains
// entity.id", belong to the graph store, which sees the whole corpus.
func Validate(e Entity) error {
	if e == nil || e.ID() == "" {
		return errors.InvalidEntity("entity has empty id")
	}
	encoded := BlockTypeOf(e.ID())
	if encoded == BlockTypeUnknown {
		return errors.InvalidEntityf("entity id %q does not encode a known block type", e.ID())
	}
	if encoded != e.Kind() {
		return errors.InvalidEntityf("entity id %q encodes %s but Kind() reports %s", e.ID(), encoded, e.Kind())
	}

	switch v := e.(type) {
	case *ClassEntity:
		if v.ClassName == "" {
			return errors.InvalidEntityf("class %q must have a non-empty class_name", e.ID())
		}
	case *FunctionEntity:
		if v.FunctionName == "" {
			return errors.InvalidEntityf("function %q must have a non-empty function_name", e.ID())
		}
	}

	switch e.Kind() {
	case BlockTypeClass, BlockTypeFunction, BlockTypeStandalone:
		parent, ok := ParentOf(e.ID())
		if !ok || parent == "" {
			return errors.InvalidEntityf("entity id %q must encode a parent", e.ID())
		}
		if e.ParentID() != parent {
			return errors.InvalidEntityf("entity %q declares parent %q, id encodes %q", e.ID(), e.ParentID(), parent)
		}
	case BlockTypeModule:
		// A module's parent_id is optional: only required when it sits
		// inside a parsed directory.
	case BlockTypeDirectory:
		// Root directory has no parent; all others do, but that is a
		// corpus-wide fact the graph store enforces, not this entity alone.
	}

	if m, ok := e.(*ModuleEntity); ok {
		for _, imp := range m.Imports {
			if imp.ImportModuleType == ImportUnknown && imp.ImportedFrom != "" {
				return errors.InvalidEntityf("module %q has an import with unknown import_module_type", e.ID())
			}
		}
	}
	return nil
}
