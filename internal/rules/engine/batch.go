// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package engine

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/ruleforge/internal/rules/eval"
	"github.com/holomush/ruleforge/internal/rules/validate"
	"github.com/holomush/ruleforge/internal/rules/value"
)

// BatchRequest is one unit of batch evaluation work: a cache key (used to
// reuse a parsed RuleSet/resolved constants across the batch, and as the
// rule code for metrics), the rule document's raw YAML, and its inputs.
type BatchRequest struct {
	CacheKey string
	RuleYAML []byte
	Inputs   map[string]value.Value
}

// BatchItemResult is the per-request outcome of a batch run. Err is set
// only for requests that could not be evaluated at all (parse failure,
// constant store failure, or an aborted fail-fast batch); evaluator
// errors surface inside Response.Error instead, consistent with
// Engine.Evaluate's own error-propagation split.
type BatchItemResult struct {
	Request  BatchRequest
	Response *eval.Response
	Report   *validate.Report
	Err      error
}

// BatchOptions governs batch dispatch and aggregation, named exactly as
// spec.md §5 names them.
type BatchOptions struct {
	MaxConcurrency       int
	Timeout              time.Duration
	FailFast             bool
	SortByPriority       bool
	ReturnPartialResults bool
}

// EvaluateBatch runs requests through Engine.Evaluate with bounded
// concurrency, grounded on the teacher's attribute.Resolver provider
// fan-out and cache.go's sync.WaitGroup-tracked background-goroutine
// discipline — a channel-backed semaphore rather than golang.org/x/sync/
// errgroup, per SPEC_FULL.md §5's "errgroup-free" note.
func (e *Engine) EvaluateBatch(ctx context.Context, requests []BatchRequest, opts BatchOptions) ([]BatchItemResult, error) {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 1
	}

	batchCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		batchCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	var cancelFailFast context.CancelFunc
	if opts.FailFast {
		batchCtx, cancelFailFast = context.WithCancel(batchCtx)
		defer cancelFailFast()
	}

	ordered := requests
	if opts.SortByPriority {
		ordered = e.sortByPriority(ctx, requests)
	}

	results := make([]BatchItemResult, len(ordered))
	sem := make(chan struct{}, opts.MaxConcurrency)
	var wg sync.WaitGroup
	var aborted atomic.Bool
	var failOnce sync.Once

	for i, req := range ordered {
		wg.Add(1)
		sem <- struct{}{}
		batchConcurrencyGauge.Inc()
		go func(i int, req BatchRequest) {
			defer wg.Done()
			defer func() { <-sem; batchConcurrencyGauge.Dec() }()

			if err := batchCtx.Err(); err != nil {
				results[i] = BatchItemResult{Request: req, Err: err}
				return
			}

			resp, report, err := e.Evaluate(batchCtx, req.CacheKey, req.RuleYAML, req.Inputs)
			results[i] = BatchItemResult{Request: req, Response: resp, Report: report, Err: err}
			if err != nil && opts.FailFast {
				failOnce.Do(func() {
					aborted.Store(true)
					if cancelFailFast != nil {
						cancelFailFast()
					}
				})
			}
		}(i, req)
	}
	wg.Wait()

	if aborted.Load() && !opts.ReturnPartialResults {
		return nil, oops.
			Code("BATCH_ABORTED").
			With("request_count", len(requests)).
			Errorf("batch aborted after first failure and return_partial_results is false")
	}
	return results, nil
}

// sortByPriority reorders requests by their rule-set's declared
// metadata.priority, highest first, parsing each (via the cache, so this
// costs nothing beyond the first parse of a given cache key).
func (e *Engine) sortByPriority(_ context.Context, requests []BatchRequest) []BatchRequest {
	type weighted struct {
		req      BatchRequest
		priority int
	}
	weightedReqs := make([]weighted, len(requests))
	for i, req := range requests {
		priority := 0
		if rs, _, _, err := e.compile(req.CacheKey, req.RuleYAML); err == nil && rs != nil {
			priority = rs.Metadata.Priority
		}
		weightedReqs[i] = weighted{req: req, priority: priority}
	}
	sort.SliceStable(weightedReqs, func(i, j int) bool {
		return weightedReqs[i].priority > weightedReqs[j].priority
	})
	out := make([]BatchRequest, len(weightedReqs))
	for i, w := range weightedReqs {
		out[i] = w.req
	}
	return out
}
