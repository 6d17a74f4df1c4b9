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

import "github.com/prometheus/client_golang/prometheus"

// Registry is this package's private Prometheus registry, mounted by the
// CLI's --metrics-addr handler. A private registry, rather than the
// global DefaultRegisterer, keeps repeated package initialization in tests
// from panicking on double registration.
var Registry = prometheus.NewRegistry()

var (
	summarizeEntitiesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fenec_summarize_entities_total",
		Help: "Entities that received a written summary.",
	})
	summarizeLLMErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fenec_summarize_llm_errors_total",
		Help: "LLM calls that returned an error.",
	})
	summarizeStoreErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fenec_summarize_store_errors_total",
		Help: "Graph-store summary writes that failed after retry.",
	})
	summarizePromptTokens = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fenec_summarize_prompt_tokens_total",
		Help: "Prompt tokens consumed across all LLM calls.",
	})
	summarizeCompletionTokens = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fenec_summarize_completion_tokens_total",
		Help: "Completion tokens produced across all LLM calls.",
	})
)

func init() {
	Registry.MustRegister(
		summarizeEntitiesTotal,
		summarizeLLMErrors,
		summarizeStoreErrors,
		summarizePromptTokens,
		summarizeCompletionTokens,
	)
}
