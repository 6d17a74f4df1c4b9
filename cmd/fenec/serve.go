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
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	fenecerrors "github.com/kraklabs/fenec/internal/errors"
	"github.com/kraklabs/fenec/internal/ui"
	"github.com/kraklabs/fenec/pkg/llm"
	"github.com/kraklabs/fenec/pkg/vectorstore"
)

type searchRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

type searchHit struct {
	ID       string  `json:"id"`
	FilePath string  `json:"file_path,omitempty"`
	Score    float32 `json:"score"`
	Summary  string  `json:"summary,omitempty"`
}

type askResponse struct {
	Answer  string      `json:"answer"`
	Sources []searchHit `json:"sources"`
}

// runServe executes the 'serve' CLI command: a small HTTP retrieval surface
// over the summarized corpus.
func runServe(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "127.0.0.1:7718", "HTTP listen address")
	dryRun := fs.Bool("dry-run", false, "Use the deterministic echo LLM and mock embedder; no network calls")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: fenec serve [options]

Description:
  Serve retrieval over HTTP:

    GET  /healthz           Liveness probe
    POST /api/search        {"question": "...", "top_k": 5} -> nearest entities
    POST /api/ask           {"question": "...", "top_k": 5} -> grounded answer

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  fenec serve
  fenec serve --addr :8080

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

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

	srv := &http.Server{
		Addr:              *addr,
		Handler:           serveMux(logger, cfg, vs, *dryRun),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	ui.Success("Serving retrieval on http://%s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fenecerrors.FatalErrorf("serve: %v", err)
	}
}

func serveMux(logger *slog.Logger, cfg *Config, vs vectorstore.Store, dryRun bool) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("POST /api/search", func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeSearch(w, r)
		if !ok {
			return
		}
		matches, err := retrieve(r.Context(), cfg, vs, req.Question, req.TopK, dryRun)
		if err != nil {
			logger.Warn("serve.search.error", "err", err)
			http.Error(w, "search failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, toHits(matches))
	})

	mux.HandleFunc("POST /api/ask", func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeSearch(w, r)
		if !ok {
			return
		}
		matches, err := retrieve(r.Context(), cfg, vs, req.Question, req.TopK, dryRun)
		if err != nil {
			logger.Warn("serve.ask.retrieve_error", "err", err)
			http.Error(w, "retrieval failed", http.StatusInternalServerError)
			return
		}
		client := newLLMClient(cfg, dryRun)
		resp, err := client.Summarize(r.Context(), llm.Request{
			SystemMessage: askSystemMessage,
			Prompt:        buildAskPrompt(req.Question, matches),
		})
		if err != nil {
			logger.Warn("serve.ask.llm_error", "err", err)
			http.Error(w, "answer generation failed", http.StatusBadGateway)
			return
		}
		writeJSON(w, askResponse{
			Answer:  llm.StripPreamble(resp.Text),
			Sources: toHits(matches),
		})
	})

	return mux
}

func decodeSearch(w http.ResponseWriter, r *http.Request) (searchRequest, bool) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		http.Error(w, `expected {"question": "...", "top_k": 5}`, http.StatusBadRequest)
		return searchRequest{}, false
	}
	if req.TopK <= 0 {
		req.TopK = 5
	}
	return req, true
}

func toHits(matches []vectorstore.Match) []searchHit {
	hits := make([]searchHit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, searchHit{
			ID:       m.Document.ID,
			FilePath: m.Document.Metadata["file_path"],
			Score:    m.Score,
			Summary:  m.Document.Metadata["summary"],
		})
	}
	return hits
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
