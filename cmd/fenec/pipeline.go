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
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"

	fenecerrors "github.com/kraklabs/fenec/internal/errors"
	"github.com/kraklabs/fenec/internal/ui"
	"github.com/kraklabs/fenec/pkg/changeset"
	"github.com/kraklabs/fenec/pkg/export"
	"github.com/kraklabs/fenec/pkg/graph"
	"github.com/kraklabs/fenec/pkg/graphstore"
	"github.com/kraklabs/fenec/pkg/llm"
	"github.com/kraklabs/fenec/pkg/parser"
	"github.com/kraklabs/fenec/pkg/resolver"
	"github.com/kraklabs/fenec/pkg/summarize"
	"github.com/kraklabs/fenec/pkg/vcs"
	"github.com/kraklabs/fenec/pkg/vectorstore"
)

// newLogger builds the structured logger every subcommand shares: text
// handler on stderr, level driven by -v/-q.
func newLogger(globals GlobalFlags) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case globals.Verbose >= 2:
		level = slog.LevelDebug
	case globals.Verbose == 1:
		level = slog.LevelInfo
	case globals.Quiet:
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context canceled on SIGINT/SIGTERM so an
// in-flight summarization run stops cleanly between entities, keeping every
// summary already written.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("shutdown.signal", "signal", sig.String())
		cancel()
	}()
	return ctx, cancel
}

// startMetrics exposes the summarize package's Prometheus registry on addr
// when non-empty.
func startMetrics(addr string, logger *slog.Logger) {
	if addr == "" {
		return
	}
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(summarize.Registry, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		logger.Info("metrics.http.start", "addr", addr, "path", "/metrics")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics.http.error", "err", err)
		}
	}()
}

// newProgress wires a progressbar through the engine's ProgressCallback
// shape, one bar per phase, disabled under --quiet/--json.
func newProgress(globals GlobalFlags) func(current, total int64, phase string) {
	if globals.Quiet || globals.JSON {
		return nil
	}
	var mu sync.Mutex
	var bar *progressbar.ProgressBar
	var currentPhase string
	return func(current, total int64, phase string) {
		mu.Lock()
		defer mu.Unlock()
		if phase != currentPhase {
			if bar != nil {
				_ = bar.Finish()
			}
			currentPhase = phase
			bar = progressbar.NewOptions64(total,
				progressbar.OptionSetDescription(phase),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set64(current)
	}
}

// newParser selects the parser frontend: an explicit wire-JSON file when
// fromJSON is set, otherwise the command the config names.
func newParser(cfg *Config, fromJSON string, logger *slog.Logger) (parser.Parser, error) {
	if fromJSON != "" {
		return &parser.FileParser{Path: fromJSON, Logger: logger}, nil
	}
	if cfg.Indexing.ParserCommand != "" {
		return parser.NewCommandParser(cfg.Indexing.ParserCommand, logger), nil
	}
	return nil, fenecerrors.ConfigError("no parser configured: set indexing.parser_command in .fenec/project.yaml or pass --from-json", nil)
}

// newLLMClient returns the EchoClient for dry runs, an HTTP client
// otherwise.
func newLLMClient(cfg *Config, dryRun bool) llm.Client {
	if dryRun {
		return llm.EchoClient{}
	}
	return llm.NewHTTPClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, nil)
}

// newEmbedder returns a deterministic mock for dry runs, an Ollama-backed
// embedder otherwise.
func newEmbedder(cfg *Config, dryRun bool) llm.Embedder {
	if dryRun {
		return llm.MockEmbedder{Dimensions: cfg.Store.VectorDims}
	}
	return llm.NewOllamaEmbedder(cfg.LLM.BaseURL, cfg.LLM.EmbeddingModel, nil)
}

// pipelineOptions collects everything runPipeline needs beyond the config.
type pipelineOptions struct {
	Passes  int
	DryRun  bool
	Workers int
	// Seeds are the module IDs the planner expands from; empty means every
	// module in the entity set.
	Seeds []string
	// ChangedFiles, when set, marks this an incremental run: after the graph
	// is loaded, the change detector computes the affected closure of these
	// files and the engine re-summarizes only that set. Entities outside it
	// keep their summaries.
	ChangedFiles []string
	// FullReset drops every entity collection before loading, so stored
	// entities the parse no longer produces don't linger across a full
	// reindex.
	FullReset bool
}

// runPipeline executes resolve -> graph load -> summarize -> export ->
// vector refresh over an already-parsed entity set, returning the engine's
// stats. Parsing stays with the caller since index and update source their
// entity sets differently.
func runPipeline(ctx context.Context, logger *slog.Logger, cfg *Config,
	gs graphstore.Store, vs vectorstore.Store,
	result *parser.ParseResult, opts pipelineOptions, globals GlobalFlags,
) (summarize.Stats, error) {
	runID := uuid.NewString()
	logger.Info("pipeline.start", "run_id", runID, "entities", len(result.Entities), "passes", opts.Passes, "dry_run", opts.DryRun)

	entities := resolver.Resolve(result.Entities)

	if opts.FullReset {
		for _, kind := range []graph.BlockType{
			graph.BlockTypeModule, graph.BlockTypeClass, graph.BlockTypeFunction,
			graph.BlockTypeStandalone, graph.BlockTypeDirectory,
		} {
			if err := gs.DeleteCollection(ctx, kind); err != nil {
				return summarize.Stats{}, err
			}
		}
	}

	if err := graphstore.Load(ctx, gs, entities, logger); err != nil {
		return summarize.Stats{}, err
	}

	seeds := opts.Seeds
	if len(seeds) == 0 {
		for _, e := range entities {
			if e.Kind() == graph.BlockTypeModule {
				seeds = append(seeds, e.ID())
			}
		}
	}

	engine := summarize.New(gs, newLLMClient(cfg, opts.DryRun), entities, summarize.Config{
		Workers:      opts.Workers,
		WriteRetries: uint(cfg.Summarize.WriteRetries),
		Pricing: summarize.Pricing{
			PromptTokenPrice:     cfg.LLM.PromptPrice,
			CompletionTokenPrice: cfg.LLM.CompletionPrice,
		},
		Logger:   logger,
		Progress: newProgress(globals),
	})

	if len(opts.ChangedFiles) > 0 {
		affected, err := changeset.NewDetector(gs).Affected(ctx, opts.ChangedFiles, opts.Passes == 3)
		if err != nil {
			return summarize.Stats{}, err
		}
		logger.Info("pipeline.affected", "files", len(opts.ChangedFiles), "entities", len(affected))
		engine.RestrictTo(affected)
	}

	if err := engine.RunPasses(ctx, seeds, opts.Passes); err != nil {
		return engine.Stats(), err
	}

	if err := export.WriteEntities(cfg.Store.OutputDir, entities); err != nil {
		return engine.Stats(), err
	}
	if result.DirectoryModules != nil {
		if err := export.WriteDirectoryMap(cfg.Store.OutputDir, result.DirectoryModules); err != nil {
			return engine.Stats(), err
		}
	}

	if err := refreshVectors(ctx, logger, cfg, vs, entities, opts.DryRun); err != nil {
		return engine.Stats(), err
	}

	if git, err := vcs.NewGitVCS("."); err == nil {
		if marker, err := git.CurrentMarker(ctx); err == nil {
			if err := export.WriteLastCommit(cfg.Store.OutputDir, marker); err != nil {
				logger.Warn("pipeline.marker.write_error", "err", err)
			}
		} else {
			logger.Warn("pipeline.marker.error", "err", err)
		}
	}

	logger.Info("pipeline.done", "run_id", runID)
	return engine.Stats(), nil
}

// refreshVectors rebuilds the vector collection from scratch: every
// non-directory entity becomes one document whose text is its code content,
// embedded from its summary when one exists. Runs once, after all passes,
// never concurrently with summarization.
func refreshVectors(ctx context.Context, logger *slog.Logger, cfg *Config,
	vs vectorstore.Store, entities []graph.Entity, dryRun bool,
) error {
	embedder := newEmbedder(cfg, dryRun)

	if err := vs.Reset(ctx); err != nil {
		return err
	}

	docs := make([]vectorstore.Document, 0, len(entities))
	for _, e := range entities {
		if e.Kind() == graph.BlockTypeDirectory {
			continue
		}
		md := e.ToMetadata()
		text := e.Summary()
		if text == "" {
			text = md["code_content"]
		}
		if text == "" {
			continue
		}
		vec, err := embedder.Embed(ctx, text)
		if err != nil {
			logger.Warn("vectors.embed.error", "id", e.ID(), "err", err)
			continue
		}
		docs = append(docs, vectorstore.Document{
			ID:        e.ID(),
			Text:      md["code_content"],
			Embedding: vec,
			Metadata:  md,
		})
	}
	if len(docs) == 0 {
		return nil
	}
	return vs.UpsertMany(ctx, docs)
}

// printStats renders the per-run cost/usage summary.
func printStats(stats summarize.Stats, cfg *Config, globals GlobalFlags) {
	if globals.JSON {
		fmt.Printf(`{"entities_summarized": %d, "llm_calls": %d, "llm_errors": %d, "store_errors": %d, "prompt_tokens": %d, "completion_tokens": %d, "total_cost": %g}`+"\n",
			stats.EntitiesSummarized, stats.LLMCalls, stats.LLMErrors, stats.StoreErrors,
			stats.PromptTokens, stats.CompletionTokens,
			stats.TotalCost(summarize.Pricing{
				PromptTokenPrice:     cfg.LLM.PromptPrice,
				CompletionTokenPrice: cfg.LLM.CompletionPrice,
			}))
		return
	}
	fmt.Println()
	ui.Header("Summarization")
	ui.SubHeader("Entities summarized: %d", stats.EntitiesSummarized)
	ui.SubHeader("LLM calls: %d (%d errors)", stats.LLMCalls, stats.LLMErrors)
	ui.SubHeader("Tokens: %d prompt, %d completion", stats.PromptTokens, stats.CompletionTokens)
	if cfg.LLM.PromptPrice > 0 || cfg.LLM.CompletionPrice > 0 {
		ui.SubHeader("Total cost: %.6f", stats.TotalCost(summarize.Pricing{
			PromptTokenPrice:     cfg.LLM.PromptPrice,
			CompletionTokenPrice: cfg.LLM.CompletionPrice,
		}))
	}
	if stats.StoreErrors > 0 {
		ui.Warn("%d summary writes failed; affected entities keep their previous summary", stats.StoreErrors)
	}
}
