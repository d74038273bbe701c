// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package eval

import (
	"context"

	"github.com/holomush/ruleforge/internal/rules/dsl"
	"github.com/holomush/ruleforge/internal/rules/evalctx"
)

// EvalActions runs actions in source order, stopping (without error) the
// moment the circuit breaker trips — per §4.6: "the evaluator continues
// to completion ... but no further actions after the trip are executed."
func EvalActions(ctx context.Context, ec *evalctx.Context, actions []*dsl.Action) error {
	for _, a := range actions {
		if broken, _ := ec.CircuitBroken(); broken {
			return nil
		}
		if err := EvalAction(ctx, ec, a); err != nil {
			return err
		}
	}
	return nil
}

// EvalAction dispatches on a.Kind, per §4.6's action rules.
func EvalAction(ctx context.Context, ec *evalctx.Context, a *dsl.Action) error {
	if err := ec.Enter(); err != nil {
		return newError("INTERNAL", a.Loc, "%s", err.Error())
	}
	defer ec.Leave()

	switch a.Kind {
	case dsl.ActionSet, dsl.ActionCalculate:
		v, err := EvalExpression(ctx, ec, a.Value)
		if err != nil {
			return err
		}
		ec.SetComputed(a.Target, v)
		return nil

	case dsl.ActionFunctionCall:
		_, err := EvalExpression(ctx, ec, a.Call)
		return err

	case dsl.ActionConditional:
		r, err := EvalCondition(ctx, ec, a.Cond)
		if err != nil {
			return err
		}
		if r {
			return EvalActions(ctx, ec, a.ThenActions)
		}
		return EvalActions(ctx, ec, a.ElseActions)

	case dsl.ActionCircuitBreaker:
		ec.TripCircuitBreaker(a.Message)
		return nil

	default:
		return newError("INTERNAL", a.Loc, "unknown action kind %d", a.Kind)
	}
}
