// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/ruleforge/internal/rules/dsl"
	"github.com/holomush/ruleforge/internal/rules/eval"
	"github.com/holomush/ruleforge/internal/rules/evalctx"
	"github.com/holomush/ruleforge/internal/rules/resolve"
	"github.com/holomush/ruleforge/internal/rules/store"
	"github.com/holomush/ruleforge/internal/rules/validate"
	"github.com/holomush/ruleforge/internal/rules/value"
)

// Engine wires the pipeline from SPEC_FULL.md §2 end to end: parse,
// validate, resolve constants, evaluate. Grounded on the teacher's
// policy.Engine, which fans a single Evaluate call out across a resolver,
// a cache snapshot, and an audit logger; generalized here from ABAC
// decision combination to rule-set tree-walking evaluation.
type Engine struct {
	resolver *resolve.Resolver
	cache    *Cache
	logger   *slog.Logger
}

// New builds an Engine. cache may be nil, in which case every Evaluate
// call parses and resolves from scratch.
func New(cs store.ConstantStore, cache *Cache, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		resolver: resolve.New(cs, logger),
		cache:    cache,
		logger:   logger,
	}
}

// ParseResult bundles a parsed RuleSet with every diagnostic collected
// while parsing it, mirroring dsl.ParseRuleSet's own return shape.
type ParseResult struct {
	RuleSet     *dsl.RuleSet
	Diagnostics []dsl.Diagnostic
}

// compile parses (or fetches from cache) and validates cacheKey's YAML
// text, returning a fatal error only when parsing itself failed; a
// validator report with CRITICAL issues is returned to the caller rather
// than surfaced as an error, per §4.3's non-fatal-by-default philosophy.
func (e *Engine) compile(cacheKey string, raw []byte) (*dsl.RuleSet, []dsl.Diagnostic, *validate.Report, error) {
	if e.cache != nil {
		if rs, ok := e.cache.GetRuleSet(cacheKey); ok {
			return rs, nil, validate.Run(rs), nil
		}
	}

	rs, diags := dsl.ParseRuleSet(raw)
	for _, d := range diags {
		if d.Severity == dsl.SeverityFatal {
			return nil, diags, nil, oops.
				Code("PARSE_ERROR").
				With("rule_code", cacheKey).
				With("diagnostic_code", d.Code).
				Errorf("%s", d.Message)
		}
	}

	report := validate.Run(rs)
	if e.cache != nil && cacheKey != "" {
		e.cache.PutRuleSet(cacheKey, rs)
	}
	return rs, diags, report, nil
}

// Evaluate runs the full pipeline against raw YAML text, returning the
// evaluation Response, the validator report that ran alongside it, and
// an error only for conditions that prevent evaluation outright (a fatal
// parse error or a constant-store failure) — evaluator-internal failures
// are instead captured in Response.Error, per §7's propagation policy.
func (e *Engine) Evaluate(ctx context.Context, cacheKey string, raw []byte, inputs map[string]value.Value) (*eval.Response, *validate.Report, error) {
	start := time.Now()

	rs, _, report, err := e.compile(cacheKey, raw)
	if err != nil {
		return nil, nil, err
	}

	result, err := e.resolveConstants(ctx, cacheKey, rs)
	if err != nil {
		return nil, report, oops.
			Code("CONSTANT_STORE_ERROR").
			With("rule_code", cacheKey).
			Wrapf(err, "resolving constants failed")
	}

	ec := evalctx.New(inputs, result.Values)
	resp := eval.EvalRuleSet(ctx, ec, rs)

	broken, _ := ec.CircuitBroken()
	recordEvaluationMetrics(rs.Name, time.Since(start), resp.Success, broken)

	return resp, report, nil
}

// resolveConstants consults the constants cache (if configured) before
// falling back to the resolver's batch fetch.
func (e *Engine) resolveConstants(ctx context.Context, cacheKey string, rs *dsl.RuleSet) (*resolve.Result, error) {
	if e.cache != nil && cacheKey != "" {
		if r, ok := e.cache.GetConstants(cacheKey); ok {
			return r, nil
		}
	}
	result, err := e.resolver.Resolve(ctx, rs)
	if err != nil {
		return nil, err
	}
	if e.cache != nil && cacheKey != "" {
		e.cache.PutConstants(cacheKey, result)
	}
	return result, nil
}

// Lint parses and validates raw YAML without evaluating it, the pipeline
// the `ruleforge lint` subcommand drives. Validators run only when parsing
// produced no fatal diagnostic; otherwise the report is nil.
func (e *Engine) Lint(raw []byte) (*dsl.RuleSet, []dsl.Diagnostic, *validate.Report, error) {
	rs, diags := dsl.ParseRuleSet(raw)
	for _, d := range diags {
		if d.Severity == dsl.SeverityFatal {
			return rs, diags, nil, nil
		}
	}
	var report *validate.Report
	if rs != nil {
		report = validate.Run(rs)
	}
	return rs, diags, report, nil
}
