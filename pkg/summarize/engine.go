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

// Package summarize is the multi-pass summarization engine: it drives
// the planner across `num_passes`, gathers per-entity context, calls the LLM,
// and propagates results back into the graph store and the in-memory entity
// set.
package summarize

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	fenecerrors "github.com/kraklabs/fenec/internal/errors"
	"github.com/kraklabs/fenec/pkg/graph"
	"github.com/kraklabs/fenec/pkg/graphstore"
	"github.com/kraklabs/fenec/pkg/llm"
	"github.com/kraklabs/fenec/pkg/planner"
	"github.com/kraklabs/fenec/pkg/prompt"
)

// Pricing configures cost accounting: total_cost = prompt_tokens*P +
// completion_tokens*C, in whatever currency unit the caller's prices use.
type Pricing struct {
	PromptTokenPrice     float64
	CompletionTokenPrice float64
}

// Config tunes the engine's concurrency and retry behavior. Zero values fall
// back to sane defaults in New.
type Config struct {
	// Workers bounds how many entities at the same planner rank are
	// summarized concurrently within one pass. Default 1, fully sequential.
	Workers int
	// WriteRetries bounds the exponential-backoff retries applied to a
	// failed UpdateSummary write before the engine logs and moves on; the
	// write is idempotent, so retrying is safe.
	WriteRetries uint
	Pricing      Pricing
	Logger       *slog.Logger
	// Progress, if set, is called after every entity completes (summarized
	// or skipped).
	Progress func(current, total int64, phase string)
}

// Engine drives planner+LLM+stores for one summarization run.
type Engine struct {
	store    graphstore.Store
	planner  *planner.Planner
	client   llm.Client
	entities map[string]graph.Entity
	allowed  map[string]bool
	cfg      Config

	mu    sync.Mutex
	stats Stats
}

// New constructs an Engine over entities (the full in-memory entity set this
// run operates on, indexed by ID), backed by store and driven by client.
func New(store graphstore.Store, client llm.Client, entities []graph.Entity, cfg Config) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	byID := make(map[string]graph.Entity, len(entities))
	for _, e := range entities {
		byID[e.ID()] = e
	}
	return &Engine{
		store:    store,
		planner:  planner.New(store),
		client:   client,
		entities: byID,
		cfg:      cfg,
	}
}

// RestrictTo limits summarization to ids, the affected set an incremental
// update computed. Entities outside the set still appear in plans — their
// stored summaries feed context gathering — but are never re-summarized and
// keep whatever summary they already have. A nil ids clears the
// restriction.
func (e *Engine) RestrictTo(ids []string) {
	if ids == nil {
		e.allowed = nil
		return
	}
	e.allowed = make(map[string]bool, len(ids))
	for _, id := range ids {
		e.allowed[id] = true
	}
}

// Stats returns a snapshot of the run's accumulated cost/usage accounting,
// safe to call concurrently with Run.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// RunPasses runs numPasses passes (1 or 3 only) over the seeds' plans. ctx
// cancellation is checked before every LLM call; once canceled, no further
// entities are processed for the remainder of the run, and every summary
// already written survives. Any other numPasses value is a ConfigError and
// no plan is computed.
func (e *Engine) RunPasses(ctx context.Context, seeds []string, numPasses int) error {
	switch numPasses {
	case 1:
		return e.run(ctx, seeds, []int{1})
	case 3:
		return e.run(ctx, seeds, []int{1, 2, 3})
	default:
		return fenecerrors.ConfigError("summarize: num_passes must be 1 or 3", nil)
	}
}

func (e *Engine) run(ctx context.Context, seeds []string, passes []int) error {
	for _, passNum := range passes {
		if err := ctx.Err(); err != nil {
			return nil // already-written summaries remain; stop cleanly.
		}
		if err := e.runPass(ctx, seeds, passNum); err != nil {
			return err // PlanError is fatal for the current pass; prior passes' writes are kept.
		}
	}
	return nil
}

// runPass computes one pass's plan, snapshots previous-summary state, then
// fans each planner rank out across a worker-bounded errgroup, joining
// before advancing to the next rank.
func (e *Engine) runPass(ctx context.Context, seeds []string, passNum int) error {
	dir := planner.DirectionForPass(passNum)

	plan, err := e.planner.Plan(ctx, seeds, dir)
	if err != nil {
		return fenecerrors.PlanError("summarize: compute plan", err)
	}
	ranks, err := e.planner.Ranks(ctx, plan, dir)
	if err != nil {
		return fenecerrors.PlanError("summarize: compute ranks", err)
	}

	byRank := make(map[int][]string)
	maxRank := 0
	for i, id := range plan {
		byRank[ranks[i]] = append(byRank[ranks[i]], id)
		if ranks[i] > maxRank {
			maxRank = ranks[i]
		}
	}

	previous := make(map[string]string, len(plan))
	for _, id := range plan {
		if ent, ok := e.entities[id]; ok {
			previous[id] = ent.Summary()
		}
	}

	pc := &passContext{
		passNum:     passNum,
		dir:         dir,
		previous:    previous,
		doneSummary: make(map[string]string, len(plan)),
	}

	total := int64(len(plan))
	var done int64

	for rank := 0; rank <= maxRank; rank++ {
		members := byRank[rank]
		if len(members) == 0 {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}

		g, gctx := errgroup.WithContext(context.Background()) // a canceled pass still finishes in-flight entities rather than abandoning them mid-write
		g.SetLimit(e.cfg.Workers)
		for _, id := range members {
			id := id
			g.Go(func() error {
				e.summarizeOne(gctx, ctx, id, pc)
				n := atomicAdd(&done, 1)
				if e.cfg.Progress != nil {
					e.cfg.Progress(n, total, passPhase(passNum, dir))
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// passContext carries the state shared read-only (previous) or
// write-serialized (doneSummary) across one pass's concurrent rank
// processing.
type passContext struct {
	passNum  int
	dir      planner.Direction
	previous map[string]string

	mu          sync.Mutex
	doneSummary map[string]string // entity id -> summary written so far this pass
}

func (pc *passContext) markDone(id, summary string) {
	pc.mu.Lock()
	pc.doneSummary[id] = summary
	pc.mu.Unlock()
}

func (pc *passContext) summaryOf(id string) (string, bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	s, ok := pc.doneSummary[id]
	return s, ok
}

// summarizeOne gathers context for id, calls the LLM, and writes the result
// back. callCtx is used for the LLM call itself and is not canceled with the
// run, so a call already in flight completes; runCtx is the pass's outer context, checked before starting any work at
// all so a cancellation noticed between ranks skips every remaining entity.
func (e *Engine) summarizeOne(callCtx, runCtx context.Context, id string, pc *passContext) {
	if runCtx.Err() != nil {
		return
	}
	if e.allowed != nil && !e.allowed[id] {
		return
	}
	ent, ok := e.entities[id]
	if !ok {
		return
	}

	inputs := e.gatherInputs(runCtx, ent, pc)
	rendered, err := prompt.Render(inputs, pc.passNum)
	if err != nil {
		e.cfg.Logger.Error("summarize.prompt.error", "id", id, "err", err)
		return
	}

	resp, err := e.client.Summarize(callCtx, llm.Request{
		EntityID:   id,
		Prompt:     rendered,
		PassNumber: pc.passNum,
	})
	e.recordCall(resp, err)
	if err != nil {
		e.cfg.Logger.Warn("summarize.llm.error", "id", id, "err", err)
		return // LLMError: treat as "no summary", never abort the pass.
	}
	text := llm.StripPreamble(resp.Text)
	if text == "" {
		e.cfg.Logger.Warn("summarize.llm.empty", "id", id)
		return
	}

	if err := e.writeSummary(runCtx, id, text); err != nil {
		e.cfg.Logger.Error("summarize.store.error", "id", id, "err", err)
		return // StoreError: log and continue with the next entity.
	}
	ent.SetSummary(text)
	pc.markDone(id, text)
	e.recordSummarized()
}

func passPhase(passNum int, dir planner.Direction) string {
	name := "bottom_up"
	if dir == planner.TopDown {
		name = "top_down"
	}
	return "pass" + itoa(passNum) + "_" + name
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
