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

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	fenecerrors "github.com/kraklabs/fenec/internal/errors"
	"github.com/kraklabs/fenec/internal/ui"
	"github.com/kraklabs/fenec/pkg/llm"
	"github.com/kraklabs/fenec/pkg/vectorstore"
)

const askSystemMessage = "You are a code librarian. Answer the question using only the " +
	"provided code context. When the context is insufficient, say so instead of guessing. " +
	"Reference entities by their file path."

// runAsk executes the 'ask' CLI command: retrieval-augmented question
// answering over the summarized corpus.
func runAsk(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	topK := fs.Int("top-k", 5, "Number of nearest documents to ground the answer on")
	dryRun := fs.Bool("dry-run", false, "Use the deterministic echo LLM and mock embedder; no network calls")
	showSources := fs.Bool("sources", false, "Print the IDs of the documents used as context")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: fenec ask [options] "<question>"

Description:
  Embed the question, retrieve the nearest summarized entities from the
  vector collection, and ask the configured LLM to answer from that
  context only.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  fenec ask "where are retries configured?"
  fenec ask --top-k 10 --sources "how does module resolution break ties?"

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	question := fs.Arg(0)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		fenecerrors.FatalErrorf("%v", err)
	}

	logger := newLogger(globals)
	ctx, cancel := signalContext(logger)
	defer cancel()

	_, vs, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		fenecerrors.FatalErrorf("%v", err)
	}
	defer closeStores()

	matches, err := retrieve(ctx, cfg, vs, question, *topK, *dryRun)
	if err != nil {
		fenecerrors.FatalErrorf("retrieve: %v", err)
	}
	if len(matches) == 0 {
		ui.Warn("The vector collection is empty; run 'fenec index' first")
		os.Exit(1)
	}

	prompt := buildAskPrompt(question, matches)
	client := newLLMClient(cfg, *dryRun)
	resp, err := client.Summarize(ctx, llm.Request{
		SystemMessage: askSystemMessage,
		Prompt:        prompt,
	})
	if err != nil {
		fenecerrors.FatalErrorf("llm: %v", err)
	}

	fmt.Println(llm.StripPreamble(resp.Text))
	if *showSources {
		fmt.Println()
		ui.SubHeader("Sources:")
		for _, m := range matches {
			ui.SubHeader("  %s (score %.3f)", m.Document.ID, m.Score)
		}
	}
}

// retrieve embeds the question and queries the vector store.
func retrieve(ctx context.Context, cfg *Config, vs vectorstore.Store, question string, topK int, dryRun bool) ([]vectorstore.Match, error) {
	embedder := newEmbedder(cfg, dryRun)
	vec, err := embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}
	return vs.Query(ctx, vec, topK)
}

// buildAskPrompt assembles the grounding context: each match contributes
// its summary when one exists, its document text otherwise.
func buildAskPrompt(question string, matches []vectorstore.Match) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	for _, m := range matches {
		md := m.Document.Metadata
		b.WriteString("---\n")
		if fp := md["file_path"]; fp != "" {
			fmt.Fprintf(&b, "File: %s\n", fp)
		}
		if summary := md["summary"]; summary != "" {
			b.WriteString(summary)
		} else {
			b.WriteString(m.Document.Text)
		}
		b.WriteString("\n")
	}
	b.WriteString("---\n\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
