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

// Package prompt renders the message sent to the LLM for a single
// summarization call. A static template is chosen per pass number; optional
// context sections that weren't supplied are stripped rather than rendered
// as empty, so the resulting prompt never shows a dangling label.
package prompt

import (
	"fmt"
	"regexp"
	"strings"

	fenecerrors "github.com/kraklabs/fenec/internal/errors"
)

// Inputs carries every optional context section the engine may supply for
// one summarization call. Fields left "" are treated as absent.
type Inputs struct {
	Code                string
	ChildrenSummaries   string
	DependencySummaries string
	ImportDetails       string
	ParentSummary       string
	PreviousSummary     string
}

// Key identifies a template variant by pass number and which optional
// sections are present, composed as
// children|nochildren × dependencies|nodependencies × import_details|noimport_details × parent|noparent × pass<N>.
type Key struct {
	PassNumber       int
	HasChildren      bool
	HasDependencies  bool
	HasImportDetails bool
	HasParent        bool
}

// String renders the key in its canonical composition order.
func (k Key) String() string {
	bit := func(has bool, yes, no string) string {
		if has {
			return yes
		}
		return no
	}
	return fmt.Sprintf("%s|%s|%s|%s|pass%d",
		bit(k.HasChildren, "children", "nochildren"),
		bit(k.HasDependencies, "dependencies", "nodependencies"),
		bit(k.HasImportDetails, "import_details", "noimport_details"),
		bit(k.HasParent, "parent", "noparent"),
		k.PassNumber,
	)
}

// KeyFor derives the template key for in at passNumber. Pass 1 never
// carries a parent summary regardless of what Inputs supplies.
func KeyFor(in Inputs, passNumber int) Key {
	hasParent := in.ParentSummary != "" && passNumber != 1
	return Key{
		PassNumber:       passNumber,
		HasChildren:      in.ChildrenSummaries != "",
		HasDependencies:  in.DependencySummaries != "",
		HasImportDetails: in.ImportDetails != "",
		HasParent:        hasParent,
	}
}

// templates holds one master template per pass number; the four optional
// sections it contains are pruned per-call based on which ones the caller's
// Inputs actually populated (see Render), so a single template per pass
// serves every combination in the key space rather than needing one
// template literal per combination.
var templates = map[int]string{
	1: pass1Template,
	2: pass2Template,
	3: pass3Template,
}

const systemPreamble = `You are an expert code analyst. Summarize the following code so the result is useful both to a human skimming a call graph and to a vector search system retrieving it by semantic similarity.

Cover, in paragraph form:
1. Purpose: what this code is for and why it exists.
2. Key components: the functions, types, or blocks that matter, briefly.
3. Implementation: the notable approach, algorithms, or structure.
4. Dependencies: what it relies on and what relies on it.

Be specific and technical; avoid filler.`

const pass1Template = systemPreamble + `

This is pass 1 of a multi-pass summarization: you are seeing this code for the first time, bottom-up, so any dependencies below have already been summarized but nothing that depends on this code has.

Code:
` + "```" + `
{code}
` + "```" + `

Children Summaries: {children_summaries}
Dependency Summaries: {dependency_summaries}
Imports: {import_details}

Write the summary now, starting directly with the content — no preamble.`

const pass2Template = systemPreamble + `

This is pass 2 of a multi-pass summarization, top-down: refine the existing summary below using the summary of whatever now depends on this code.

Previous Summary:
{previous_summary}

Code:
` + "```" + `
{code}
` + "```" + `

Children Summaries: {children_summaries}
Dependency Summaries: {dependency_summaries}
Imports: {import_details}
Parent/Dependent Summary: {parent_summary}

Refine the previous summary given this additional context; write only the updated summary.`

const pass3Template = systemPreamble + `

This is the final pass of a multi-pass summarization, bottom-up again: produce the definitive summary, folding in everything learned in the previous two passes.

Previous Summary:
{previous_summary}

Code:
` + "```" + `
{code}
` + "```" + `

Children Summaries: {children_summaries}
Dependency Summaries: {dependency_summaries}
Imports: {import_details}

End your response with the line "FINAL SUMMARY:" followed by the finished summary text.`

var residualPlaceholder = regexp.MustCompile(`\{[a-zA-Z_]+\}`)
var labelOnlyLine = regexp.MustCompile(`^[^{}:\n]+:\s*$`)

// Render produces the prompt text for in at passNumber. An unknown pass
// number, or a pass-1 key that somehow carries a parent summary, is a
// PromptError.
func Render(in Inputs, passNumber int) (string, error) {
	key := KeyFor(in, passNumber)
	if key.PassNumber == 1 && key.HasParent {
		return "", fenecerrors.PromptErrorf("prompt: pass 1 never takes a parent summary, got key %s", key)
	}
	tmpl, ok := templates[passNumber]
	if !ok {
		return "", fenecerrors.PromptErrorf("prompt: unknown pass number %d", passNumber)
	}

	rendered := substitute(tmpl, in, passNumber)
	rendered = stripResidualLines(rendered)
	rendered = collapseBlankLines(rendered)
	return rendered, nil
}

func substitute(tmpl string, in Inputs, passNumber int) string {
	replace := func(s, placeholder, value string) string {
		if value == "" {
			return s
		}
		return strings.ReplaceAll(s, placeholder, value)
	}
	out := tmpl
	out = replace(out, "{code}", in.Code)
	out = replace(out, "{children_summaries}", in.ChildrenSummaries)
	out = replace(out, "{dependency_summaries}", in.DependencySummaries)
	out = replace(out, "{import_details}", in.ImportDetails)
	if passNumber != 1 {
		out = replace(out, "{parent_summary}", in.ParentSummary)
		out = replace(out, "{previous_summary}", in.PreviousSummary)
	}
	return out
}

// stripResidualLines removes every line that still contains an unfilled
// {placeholder}, and — when the line immediately before it is a bare
// "Label:" line with nothing else on it — removes that label line too.
func stripResidualLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if residualPlaceholder.MatchString(line) {
			if len(out) > 0 && labelOnlyLine.MatchString(out[len(out)-1]) {
				out = out[:len(out)-1]
			}
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// collapseBlankLines replaces any run of consecutive blank lines with a
// single blank line.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	prevBlank := false
	for _, line := range lines {
		blank := strings.TrimSpace(line) == ""
		if blank && prevBlank {
			continue
		}
		out = append(out, line)
		prevBlank = blank
	}
	return strings.Join(out, "\n")
}
