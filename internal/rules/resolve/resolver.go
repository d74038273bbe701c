// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package resolve implements the Constant Resolver from SPEC_FULL.md
// §4.4: a static scan of the AST enumerating every referenced constant,
// minus those already satisfied inline, fetched in one batch call against
// the external constant store. Grounded on the teacher's
// internal/access/policy/attribute.Resolver provider fan-out, generalized
// from "one provider per namespace" to "one store, one batch_get call."
package resolve

import (
	"context"
	"log/slog"

	"github.com/samber/oops"

	"github.com/holomush/ruleforge/internal/rules/dsl"
	"github.com/holomush/ruleforge/internal/rules/store"
	"github.com/holomush/ruleforge/internal/rules/value"
)

// Resolver fetches the named constants an AST references that are not
// already satisfied by inline `constants:` declarations.
type Resolver struct {
	store  store.ConstantStore
	logger *slog.Logger
}

func New(cs store.ConstantStore, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: cs, logger: logger}
}

// Result is the outcome of one resolution pass: the resolved values keyed
// by constant name, and the names that were referenced but could not be
// found in the store (logged as warnings, not errors — §4.4: "the
// evaluator will fail at reference time if actually needed").
type Result struct {
	Values  map[string]value.Value
	Missing []string
}

// Resolve collects every constant-classified VariableRef in rs, subtracts
// names already declared inline, and batch-fetches the remainder.
func (r *Resolver) Resolve(ctx context.Context, rs *dsl.RuleSet) (*Result, error) {
	inline := map[string]value.Value{}
	for _, c := range rs.Constants {
		inline[c.Name] = c.Value
	}

	referenced := dsl.CollectRefsByClass(rs, dsl.ClassConstant)
	var needed []string
	result := &Result{Values: map[string]value.Value{}}
	for _, name := range referenced {
		if v, ok := inline[name]; ok {
			result.Values[name] = v
			continue
		}
		needed = append(needed, name)
	}
	if len(needed) == 0 {
		return result, nil
	}

	fetched, err := r.store.BatchGet(ctx, needed)
	if err != nil {
		return nil, oops.Code("CONSTANT_STORE_ERROR").
			With("rule_name", rs.Name).With("requested", needed).
			Wrapf(err, "batch constant fetch failed")
	}
	for _, name := range needed {
		c, ok := fetched[name]
		if !ok {
			result.Missing = append(result.Missing, name)
			r.logger.Warn("constant not found in store", "constant", name, "rule", rs.Name)
			continue
		}
		result.Values[name] = c.Value
	}
	return result, nil
}
