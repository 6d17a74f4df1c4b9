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

import "testing"

func TestModuleID_EncodesPathWithColons(t *testing.T) {
	got := ModuleID("pkg/graph/ids.go")
	want := "pkg:graph:ids.go__*__MODULE"
	if got != want {
		t.Errorf("ModuleID() = %q, want %q", got, want)
	}
}

func TestModuleID_Deterministic(t *testing.T) {
	a := ModuleID("a/b/c.go")
	b := ModuleID("a/b/c.go")
	if a != b {
		t.Errorf("ModuleID should be deterministic: got %q and %q", a, b)
	}
}

func TestClassID_NestsUnderParent(t *testing.T) {
	parent := ModuleID("pkg/graph/entity.go")
	got := ClassID(parent, "ModuleEntity")
	want := parent + "__*__CLASS-ModuleEntity"
	if got != want {
		t.Errorf("ClassID() = %q, want %q", got, want)
	}
}

func TestFunctionID_NestsUnderParent(t *testing.T) {
	parent := ModuleID("pkg/graph/ids.go")
	got := FunctionID(parent, "ModuleID")
	want := parent + "__*__FUNCTION-ModuleID"
	if got != want {
		t.Errorf("FunctionID() = %q, want %q", got, want)
	}
}

func TestFunctionID_ExcludesSignature(t *testing.T) {
	parent := ModuleID("pkg/graph/ids.go")
	// Two calls for the same name but implicitly different signatures must
	// collide: the ID only ever encodes the name.
	a := FunctionID(parent, "Do")
	b := FunctionID(parent, "Do")
	if a != b {
		t.Errorf("FunctionID should ignore signature: got %q and %q", a, b)
	}
}

func TestStandaloneID_EncodesCount(t *testing.T) {
	parent := ModuleID("pkg/graph/ids.go")
	got := StandaloneID(parent, 3)
	want := parent + "__*__STANDALONE_BLOCK-3"
	if got != want {
		t.Errorf("StandaloneID() = %q, want %q", got, want)
	}
}

func TestDirectoryID_EncodesPathWithColons(t *testing.T) {
	got := DirectoryID("pkg/graph")
	want := "pkg:graph__*__DIRECTORY"
	if got != want {
		t.Errorf("DirectoryID() = %q, want %q", got, want)
	}
}

func TestBlockTypeOf_RoundTrips(t *testing.T) {
	mod := ModuleID("a/b.go")
	dir := DirectoryID("a/b")
	cls := ClassID(mod, "Foo")
	fn := FunctionID(mod, "Bar")
	sb := StandaloneID(mod, 1)

	cases := []struct {
		id   string
		want BlockType
	}{
		{mod, BlockTypeModule},
		{dir, BlockTypeDirectory},
		{cls, BlockTypeClass},
		{fn, BlockTypeFunction},
		{sb, BlockTypeStandalone},
		{"not-an-id", BlockTypeUnknown},
	}
	for _, tc := range cases {
		if got := BlockTypeOf(tc.id); got != tc.want {
			t.Errorf("BlockTypeOf(%q) = %v, want %v", tc.id, got, tc.want)
		}
	}
}

func TestParentOf(t *testing.T) {
	mod := ModuleID("a/b.go")
	fn := FunctionID(mod, "Bar")

	parent, ok := ParentOf(fn)
	if !ok || parent != mod {
		t.Errorf("ParentOf(%q) = (%q, %v), want (%q, true)", fn, parent, ok, mod)
	}

	if _, ok := ParentOf(mod); ok {
		t.Errorf("ParentOf(%q) should report false for a module id", mod)
	}
}

func TestNameOf(t *testing.T) {
	mod := ModuleID("a/b.go")
	cls := ClassID(mod, "Widget")
	name, err := NameOf(cls)
	if err != nil {
		t.Fatalf("NameOf returned error: %v", err)
	}
	if name != "Widget" {
		t.Errorf("NameOf(%q) = %q, want %q", cls, name, "Widget")
	}

	if _, err := NameOf(mod); err == nil {
		t.Errorf("NameOf should error for a module id")
	}
}
