// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package evalctx implements the Evaluation Context from SPEC_FULL.md §4.5:
// the three-tier computed/input/constant variable space a single
// evaluation pass runs against, its lookup priority, and the recursion
// and circuit-breaker bookkeeping that the Evaluator consults. Grounded
// on the teacher's internal/access/policy.EvalContext, which carries the
// same "subject/resource/environment" tiered attribute map and the same
// per-request operation id.
package evalctx

import (
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/holomush/ruleforge/internal/rules/dsl"
	"github.com/holomush/ruleforge/internal/rules/value"
)

// MaxRecursionDepth bounds nested conditional-action evaluation, mirroring
// the parser's MaxRecursionDepth guard against pathological nesting.
const MaxRecursionDepth = 50

// Context holds one evaluation pass's variable space and mutable state.
// Lookup priority, per the data model, is computed > input > constant.
type Context struct {
	computed map[string]value.Value
	input    map[string]value.Value
	constant map[string]value.Value

	OperationID string
	depth       int

	circuitBroken bool
	breakMessage  string
}

// New builds a Context seeded with request inputs and resolved constants.
// computed starts empty; the evaluator populates it as Set/Calculate
// actions run.
func New(inputs map[string]value.Value, constants map[string]value.Value) *Context {
	return &Context{
		computed:    make(map[string]value.Value),
		input:       cloneMap(inputs),
		constant:    cloneMap(constants),
		OperationID: ulid.Make().String(),
	}
}

func cloneMap(in map[string]value.Value) map[string]value.Value {
	out := make(map[string]value.Value, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Lookup resolves name against the three-tier space in priority order:
// computed shadows input shadows constant. classHint, when not
// ClassUnknown, restricts the search to that single tier (used when the
// AST already classified the reference at parse time).
func (c *Context) Lookup(name string, classHint dsl.Classification) (value.Value, bool) {
	// Computed always shadows, regardless of classHint — I3: "setting a
	// computed value shadows any input or constant with the same name
	// for the rest of the evaluation." This also covers the single-word
	// name ambiguity (a name like "tier" is lexically valid camelCase
	// and valid trivial snake_case at once): whichever tier classified
	// it at parse time, a later `set`/`calculate` under that same name
	// still takes priority on lookup.
	if v, ok := c.computed[name]; ok {
		return v, true
	}
	switch classHint {
	case dsl.ClassInput:
		v, ok := c.input[name]
		return v, ok
	case dsl.ClassConstant:
		v, ok := c.constant[name]
		return v, ok
	default:
		if v, ok := c.input[name]; ok {
			return v, true
		}
		if v, ok := c.constant[name]; ok {
			return v, true
		}
		return value.Null(), false
	}
}

// SetComputed records a derived value, implementing the `set_computed`
// mutation named in §4.5. Computed names always take priority over any
// input of the same name — see Open Question (c) in SPEC_FULL.md §9.
func (c *Context) SetComputed(name string, v value.Value) {
	c.computed[name] = v
}

// Computed returns the full computed-variable map as it stands, used to
// build the final EvaluateResponse output projection.
func (c *Context) Computed() map[string]value.Value {
	return cloneMap(c.computed)
}

// Enter increments the recursion depth guard, returning an error once
// MaxRecursionDepth is exceeded. Callers must pair every successful Enter
// with a deferred Leave.
func (c *Context) Enter() error {
	c.depth++
	if c.depth > MaxRecursionDepth {
		return fmt.Errorf("evalctx: recursion depth exceeded %d", MaxRecursionDepth)
	}
	return nil
}

func (c *Context) Leave() {
	c.depth--
}

// TripCircuitBreaker records that a circuit-breaker action or rule-set
// level circuit_breaker condition fired, per Open Question (d)'s
// resolution: the trip flag latches on first fire (the evaluator halts
// remaining action execution once set), but the message is last-write-
// wins, consistent with the computed tier's normal overwrite semantics.
func (c *Context) TripCircuitBreaker(message string) {
	c.circuitBroken = true
	c.breakMessage = message
}

func (c *Context) CircuitBroken() (bool, string) {
	return c.circuitBroken, c.breakMessage
}
