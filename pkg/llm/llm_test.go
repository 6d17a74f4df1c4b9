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

package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripPreamble_KeepsTextAfterLastMarker(t *testing.T) {
	text := "reasoning...\nFINAL SUMMARY: draft one\nmore thinking\nFINAL SUMMARY:   the real answer  "
	require.Equal(t, "the real answer", StripPreamble(text))
}

func TestStripPreamble_NoMarkerTrimsOnly(t *testing.T) {
	require.Equal(t, "plain answer", StripPreamble("  plain answer  "))
}

func TestEchoClient_DeterministicTokens(t *testing.T) {
	c := EchoClient{}
	resp, err := c.Summarize(context.Background(), Request{EntityID: "x__*__MODULE", Prompt: "a b c", PassNumber: 1})
	require.NoError(t, err)
	require.Equal(t, 3, resp.PromptTokens)
	require.Equal(t, 8, resp.CompletionTokens)
	require.Contains(t, resp.Text, "x__*__MODULE")
}
