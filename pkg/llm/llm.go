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

// Package llm is the outbound collaborator that turns a rendered prompt
// into a summary: a single Summarize call (system+user message,
// prompt/completion token accounting, FINAL SUMMARY: marker stripping),
// plus the embedding client the vector store feeds from.
package llm

import (
	"context"
	"strings"
)

// Request carries everything the engine has gathered for one entity's
// summarization call.
type Request struct {
	EntityID      string
	SystemMessage string
	Prompt        string
	PassNumber    int
}

// Response is the LLM's answer plus usage accounting.
type Response struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Client is the outbound LLM collaborator. A call returning an empty Text
// (with or without a non-nil error) is treated by the engine as "no summary"
// for that entity, never as a pass failure.
type Client interface {
	Summarize(ctx context.Context, req Request) (Response, error)
}

// finalSummaryMarker is the literal marker the engine strips everything
// before. When the marker appears more than once, only the text after the
// last occurrence is kept.
const finalSummaryMarker = "FINAL SUMMARY:"

// StripPreamble implements the marker-stripping rule: if the marker is
// present, keep only the text after its last occurrence, then
// trim outer whitespace. If the marker is absent, the whole text is trimmed
// as-is.
func StripPreamble(text string) string {
	if idx := strings.LastIndex(text, finalSummaryMarker); idx >= 0 {
		text = text[idx+len(finalSummaryMarker):]
	}
	return strings.TrimSpace(text)
}

// EchoClient is a deterministic stub that echoes its inputs with fixed
// token counts, used for dry runs. It never calls out over the network; PromptTokens is the
// rendered prompt's word count, CompletionTokens is fixed, and the returned
// text restates the entity ID so tests can assert on pass-to-pass flow.
type EchoClient struct {
	// CompletionTokens is returned for every call; defaults to 8 when zero.
	CompletionTokens int
}

func (c EchoClient) Summarize(ctx context.Context, req Request) (Response, error) {
	completion := c.CompletionTokens
	if completion == 0 {
		completion = 8
	}
	return Response{
		Text:             "Summary of " + req.EntityID + " (pass " + itoa(req.PassNumber) + ").",
		PromptTokens:     len(strings.Fields(req.Prompt)),
		CompletionTokens: completion,
	}, nil
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
