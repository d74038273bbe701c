// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package eval

import (
	"context"
	"time"

	"github.com/holomush/ruleforge/internal/rules/dsl"
	"github.com/holomush/ruleforge/internal/rules/evalctx"
	"github.com/holomush/ruleforge/internal/rules/value"
)

// Response is the Evaluate response object from §6: {success,
// condition_result, output, circuit_breaker_triggered,
// circuit_breaker_message, execution_time_ms, error?}.
type Response struct {
	Success                 bool
	ConditionResult         bool
	Output                  map[string]value.Value
	CircuitBreakerTriggered bool
	CircuitBreakerMessage   string
	ExecutionTimeMs         int64
	Error                   string
}

// EvalRuleSet runs rs against ec end to end, dispatching on rs.Form per
// §4.6's rule-set dispatch rules, and building the final Response.
// Evaluation errors are fatal and captured in the response rather than
// returned as a Go error, per §7's propagation policy.
func EvalRuleSet(ctx context.Context, ec *evalctx.Context, rs *dsl.RuleSet) *Response {
	start := time.Now()
	resp := &Response{}

	conditionResult, err := dispatchRuleSet(ctx, ec, rs)
	elapsed := time.Since(start)
	resp.ExecutionTimeMs = elapsed.Milliseconds()

	if err != nil {
		resp.Success = false
		resp.Error = err.Error()
		return resp
	}

	resp.Success = true
	resp.ConditionResult = conditionResult
	broken, msg := ec.CircuitBroken()
	resp.CircuitBreakerTriggered = broken
	resp.CircuitBreakerMessage = msg
	resp.Output = projectOutput(rs, ec)
	return resp
}

func dispatchRuleSet(ctx context.Context, ec *evalctx.Context, rs *dsl.RuleSet) (bool, error) {
	if err := checkRuleSetCircuitBreaker(ctx, ec, rs.CircuitBreaker); err != nil {
		return false, err
	}

	switch rs.Form {
	case dsl.FormWhenThenElse:
		result, err := evalWhenConjunction(ctx, ec, rs.When)
		if err != nil {
			return false, err
		}
		if result {
			return true, EvalActions(ctx, ec, rs.Then)
		}
		return false, EvalActions(ctx, ec, rs.Else)

	case dsl.FormConditions:
		result, err := EvalCondition(ctx, ec, rs.Condition)
		if err != nil {
			return false, err
		}
		if result {
			return true, EvalActions(ctx, ec, rs.Then)
		}
		return false, EvalActions(ctx, ec, rs.Else)

	case dsl.FormRulesList:
		return evalRulesList(ctx, ec, rs.Rules)

	default:
		return false, newError("INTERNAL", rs.Loc, "unknown rule-set primary form %d", rs.Form)
	}
}

// evalWhenConjunction evaluates the when-list as a conjunction, per
// §4.6: "evaluate the when-list as a conjunction."
func evalWhenConjunction(ctx context.Context, ec *evalctx.Context, when []*dsl.Condition) (bool, error) {
	for _, cond := range when {
		r, err := EvalCondition(ctx, ec, cond)
		if err != nil {
			return false, err
		}
		if !r {
			return false, nil
		}
	}
	return true, nil
}

// evalRulesList iterates sub-rules in declared order, sharing ec across
// all of them so later rules observe earlier ones' computed variables.
// The returned condition_result is the first sub-rule's, per §4.6's
// "condition_result (boolean of main when-clause or first rule)."
func evalRulesList(ctx context.Context, ec *evalctx.Context, rules []*dsl.SubRule) (bool, error) {
	first := false
	for i, sub := range rules {
		if broken, _ := ec.CircuitBroken(); broken {
			break
		}
		r, err := EvalCondition(ctx, ec, sub.Condition)
		if err != nil {
			return false, err
		}
		if i == 0 {
			first = r
		}
		if r {
			if err := EvalActions(ctx, ec, sub.Then); err != nil {
				return false, err
			}
		} else {
			if err := EvalActions(ctx, ec, sub.Else); err != nil {
				return false, err
			}
		}
	}
	return first, nil
}

// projectOutput builds the output map per §6: for each declared output
// entry, emit the named computed variable if one exists under that key
// or under the declared producing-variable name; always union the full
// computed-variable set at the end so no computed value is hidden.
func projectOutput(rs *dsl.RuleSet, ec *evalctx.Context) map[string]value.Value {
	computed := ec.Computed()
	out := make(map[string]value.Value, len(rs.Output)+len(computed))

	for key, nameOrType := range rs.Output {
		if v, ok := computed[key]; ok {
			out[key] = v
			continue
		}
		if v, ok := computed[nameOrType]; ok {
			out[key] = v
		}
	}
	for k, v := range computed {
		out[k] = v
	}
	return out
}
