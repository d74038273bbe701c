// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package eval

import (
	"context"

	"github.com/holomush/ruleforge/internal/rules/dsl"
	"github.com/holomush/ruleforge/internal/rules/evalctx"
)

// checkRuleSetCircuitBreaker evaluates rs.CircuitBreaker's condition once
// before the main dispatch, acting as an implicit first rule — Open
// Question (d)'s resolution in SPEC_FULL.md §9. Once it trips, no action
// runs for the rest of the evaluation, so an in-flow circuit_breaker
// action never overwrites its message.
func checkRuleSetCircuitBreaker(ctx context.Context, ec *evalctx.Context, cb *dsl.CircuitBreakerConfig) error {
	if cb == nil || !cb.Enabled {
		return nil
	}
	triggered, err := EvalCondition(ctx, ec, cb.Condition)
	if err != nil {
		return err
	}
	if triggered {
		ec.TripCircuitBreaker(cb.Message)
	}
	return nil
}
