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

package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fenecerrors "github.com/kraklabs/fenec/internal/errors"
)

func TestRender_NoResidualPlaceholders(t *testing.T) {
	cases := []struct {
		name string
		in   Inputs
		pass int
	}{
		{"pass1 code only", Inputs{Code: "def f(): pass"}, 1},
		{"pass1 full context", Inputs{
			Code:                "def f(): pass",
			ChildrenSummaries:   "child summary",
			DependencySummaries: "dep summary",
			ImportDetails:       "import math",
		}, 1},
		{"pass2 with parent and previous", Inputs{
			Code:            "def f(): pass",
			ParentSummary:   "parent summary",
			PreviousSummary: "old summary",
		}, 2},
		{"pass3 previous only", Inputs{Code: "x = 1", PreviousSummary: "old"}, 3},
		{"directory: children only, no code", Inputs{ChildrenSummaries: "module summaries"}, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Render(tc.in, tc.pass)
			require.NoError(t, err)
			assert.NotContains(t, out, "{", "rendered prompt must contain no residual placeholders")
			assert.NotContains(t, out, "}")
		})
	}
}

func TestRender_SubstitutesProvidedValues(t *testing.T) {
	out, err := Render(Inputs{
		Code:          "def f(): pass",
		ImportDetails: "import math",
	}, 1)
	require.NoError(t, err)
	assert.Contains(t, out, "def f(): pass")
	assert.Contains(t, out, "Imports: import math")
	// The absent sections' label lines go away with their placeholders.
	assert.NotContains(t, out, "Children Summaries")
	assert.NotContains(t, out, "Dependency Summaries")
}

func TestRender_RemovesLabelLineAboveUnfilledPlaceholder(t *testing.T) {
	// previous_summary sits under a bare "Previous Summary:" label line; when
	// unfilled, both lines must go.
	out, err := Render(Inputs{Code: "x = 1"}, 3)
	require.NoError(t, err)
	assert.NotContains(t, out, "Previous Summary")
	assert.NotContains(t, out, "{previous_summary}")
}

func TestRender_CollapsesBlankRuns(t *testing.T) {
	out, err := Render(Inputs{Code: "x = 1"}, 1)
	require.NoError(t, err)
	assert.NotContains(t, out, "\n\n\n", "runs of blank lines must collapse to one")
}

func TestRender_Pass1NeverTakesParent(t *testing.T) {
	// A parent summary supplied on pass 1 is ignored by key derivation, so
	// rendering succeeds and the section is absent.
	out, err := Render(Inputs{Code: "x = 1", ParentSummary: "should not appear"}, 1)
	require.NoError(t, err)
	assert.NotContains(t, out, "should not appear")

	key := KeyFor(Inputs{ParentSummary: "x"}, 1)
	assert.False(t, key.HasParent)
	assert.Equal(t, "nochildren|nodependencies|noimport_details|noparent|pass1", key.String())
}

func TestRender_UnknownPassIsPromptError(t *testing.T) {
	_, err := Render(Inputs{Code: "x = 1"}, 4)
	require.Error(t, err)
	assert.True(t, fenecerrors.IsKind(err, fenecerrors.KindPromptError))
}

func TestKeyString_CompositionOrder(t *testing.T) {
	key := Key{PassNumber: 2, HasChildren: true, HasDependencies: false, HasImportDetails: true, HasParent: true}
	assert.Equal(t, "children|nodependencies|import_details|parent|pass2", key.String())
}

func TestRender_Pass2CarriesParentSection(t *testing.T) {
	out, err := Render(Inputs{
		Code:          "x = 1",
		ParentSummary: "the dependent module does X",
	}, 2)
	require.NoError(t, err)
	require.True(t, strings.Contains(out, "the dependent module does X"))
}
