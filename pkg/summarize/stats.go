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

package summarize

import (
	"context"
	"sync/atomic"

	"github.com/cenkalti/backoff/v5"

	"github.com/kraklabs/fenec/pkg/llm"
)

// Stats is the per-run cost/usage summary surfaced to the CLI at the end
// of an index/update run.
type Stats struct {
	EntitiesSummarized int
	LLMCalls           int
	LLMErrors          int
	StoreErrors        int
	PromptTokens       int
	CompletionTokens   int
}

// TotalCost computes prompt_tokens*P + completion_tokens*C.
func (s Stats) TotalCost(pricing Pricing) float64 {
	return float64(s.PromptTokens)*pricing.PromptTokenPrice + float64(s.CompletionTokens)*pricing.CompletionTokenPrice
}

func (e *Engine) recordCall(resp llm.Response, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats.LLMCalls++
	if err != nil {
		e.stats.LLMErrors++
		summarizeLLMErrors.Inc()
		return
	}
	e.stats.PromptTokens += resp.PromptTokens
	e.stats.CompletionTokens += resp.CompletionTokens
	summarizePromptTokens.Add(float64(resp.PromptTokens))
	summarizeCompletionTokens.Add(float64(resp.CompletionTokens))
}

func (e *Engine) recordSummarized() {
	e.mu.Lock()
	e.stats.EntitiesSummarized++
	e.mu.Unlock()
	summarizeEntitiesTotal.Inc()
}

func (e *Engine) recordStoreError() {
	e.mu.Lock()
	e.stats.StoreErrors++
	e.mu.Unlock()
	summarizeStoreErrors.Inc()
}

// writeSummary replaces the entity's stored summary, retrying a failed
// write with bounded exponential backoff (cfg.WriteRetries attempts beyond
// the first) before giving up, since StoreError is documented retry-safe
// for this idempotent call.
func (e *Engine) writeSummary(ctx context.Context, id, text string) error {
	op := func() (struct{}, error) {
		return struct{}{}, e.store.UpdateSummary(ctx, id, text)
	}
	if e.cfg.WriteRetries == 0 {
		_, err := op()
		if err != nil {
			e.recordStoreError()
		}
		return err
	}
	_, err := backoff.Retry(ctx, op, backoff.WithMaxTries(e.cfg.WriteRetries+1), backoff.WithBackOff(backoff.NewExponentialBackOff()))
	if err != nil {
		e.recordStoreError()
	}
	return err
}

func atomicAdd(addr *int64, delta int64) int64 {
	return atomic.AddInt64(addr, delta)
}
